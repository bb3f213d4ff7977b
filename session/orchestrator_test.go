package session_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jrsteele09/go-login-server/credentials"
	"github.com/jrsteele09/go-login-server/credentials/filestore"
	fakecredentialsrepo "github.com/jrsteele09/go-login-server/credentials/repofake"
	"github.com/jrsteele09/go-login-server/session"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// recorder collects effects in the order they happen.
type recorder struct {
	mu     sync.Mutex
	events []string
}

func (r *recorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func (r *recorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

// recordingRepo records calls before delegating to the fake repo.
type recordingRepo struct {
	*fakecredentialsrepo.FakeCredentialsRepo
	rec *recorder
}

func (r recordingRepo) Store(ctx context.Context, record credentials.Record) error {
	r.rec.add("store:" + record.ID + ":" + record.Token)
	return r.FakeCredentialsRepo.Store(ctx, record)
}

func (r recordingRepo) Read(ctx context.Context) (credentials.Record, error) {
	r.rec.add("read")
	return r.FakeCredentialsRepo.Read(ctx)
}

func (r recordingRepo) Delete(ctx context.Context) error {
	r.rec.add("delete")
	return r.FakeCredentialsRepo.Delete(ctx)
}

type errorRecord struct {
	kind session.Kind
	err  error
}

type testFixture struct {
	store  *session.Store
	repo   *fakecredentialsrepo.FakeCredentialsRepo
	rec    *recorder
	orch   *session.Orchestrator
	mu     sync.Mutex
	errs   []errorRecord
	remote func(ctx context.Context) error
}

func setupTestFixture(t *testing.T) *testFixture {
	t.Helper()
	t.Cleanup(func() { goleak.VerifyNone(t) })

	f := &testFixture{
		store:  session.NewStore(),
		repo:   fakecredentialsrepo.NewFakeCredentialsRepo(),
		rec:    &recorder{},
		remote: func(context.Context) error { return nil },
	}

	f.store.Subscribe(func(a session.Action) {
		if ns, ok := a.(session.NewSession); ok {
			f.rec.add("new_session:" + ns.ID + ":" + ns.Token)
		}
		if ls, ok := a.(session.LoginSucceeded); ok {
			f.rec.add("login_succeeded:" + ls.ID + ":" + ls.Token)
		}
	})

	orch, err := session.NewOrchestrator(f.store, recordingRepo{FakeCredentialsRepo: f.repo, rec: f.rec},
		session.WithRemoteLogout(func(ctx context.Context) error {
			f.rec.add("remote_logout")
			return f.remote(ctx)
		}),
		session.WithErrorHandler(session.ErrorHandlerFunc(func(_ context.Context, kind session.Kind, err error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.errs = append(f.errs, errorRecord{kind: kind, err: err})
		})),
	)
	require.NoError(t, err)
	require.NoError(t, orch.Start(context.Background()))
	t.Cleanup(orch.Stop)
	f.orch = orch
	return f
}

func (f *testFixture) dispatch(action session.Action) {
	f.store.Dispatch(action)
	f.orch.Wait()
}

func (f *testFixture) errors() []errorRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]errorRecord(nil), f.errs...)
}

func TestOrchestrator_SessionFromQuery(t *testing.T) {
	f := setupTestFixture(t)

	f.dispatch(session.RequestSessionFromQuery(credentials.Record{ID: "x", Token: "token"}))

	require.Equal(t, []string{
		"new_session:x:token",
		"login_succeeded:x:token",
		"store:x:token",
	}, f.rec.all())
	require.Equal(t, session.State{LoginID: "x", Token: "token"}, f.store.State())

	record, err := f.repo.Read(context.Background())
	require.NoError(t, err)
	require.Equal(t, credentials.Record{ID: "x", Token: "token"}, record)
	require.Empty(t, f.errors())
}

func TestOrchestrator_LogoutOrder(t *testing.T) {
	f := setupTestFixture(t)
	f.dispatch(session.RequestSessionFromQuery(credentials.Record{ID: "x", Token: "token"}))
	require.True(t, f.repo.Stored())
	f.rec.reset()

	var stateAtRemote session.State
	f.remote = func(context.Context) error {
		stateAtRemote = f.store.State()
		return nil
	}
	f.dispatch(session.RequestLogout())

	require.Equal(t, []string{
		"new_session::",
		"delete",
		"remote_logout",
	}, f.rec.all())
	require.Equal(t, session.State{}, stateAtRemote)
	require.Equal(t, session.State{}, f.store.State())
	require.False(t, f.repo.Stored())
	require.Empty(t, f.errors())
}

func TestOrchestrator_SessionFromStorage(t *testing.T) {
	f := setupTestFixture(t)

	t.Run("empty store yields empty session", func(t *testing.T) {
		f.dispatch(session.RequestSessionFromStorage())
		require.Equal(t, session.State{}, f.store.State())
	})

	t.Run("stored record restores session", func(t *testing.T) {
		require.NoError(t, f.repo.Store(context.Background(), credentials.Record{ID: "id", Token: "token"}))
		f.dispatch(session.RequestSessionFromStorage())
		require.Equal(t, session.State{LoginID: "id", Token: "token"}, f.store.State())
	})
	require.Empty(t, f.errors())
}

func TestOrchestrator_EachArrival(t *testing.T) {
	f := setupTestFixture(t)

	for _, id := range []string{"a", "b", "c"} {
		f.store.Dispatch(session.LoginSucceeded{ID: id, Token: "t-" + id})
	}
	f.orch.Wait()

	stores := 0
	for _, event := range f.rec.all() {
		if len(event) > 6 && event[:6] == "store:" {
			stores++
		}
	}
	require.Equal(t, 3, stores)
	// LoginSucceeded alone never touches the in-memory session
	require.Equal(t, session.State{}, f.store.State())
}

func TestOrchestrator_ErrorsAreHandledAndOrchestratorContinues(t *testing.T) {
	f := setupTestFixture(t)
	boom := errors.New("disk full")

	f.repo.SetErr(boom)
	f.dispatch(session.RequestSessionFromQuery(credentials.Record{ID: "x", Token: "token"}))

	// memory was updated even though persisting failed
	require.Equal(t, session.State{LoginID: "x", Token: "token"}, f.store.State())
	errs := f.errors()
	require.Len(t, errs, 1)
	require.Equal(t, session.KindLoginSucceeded, errs[0].kind)
	require.ErrorIs(t, errs[0].err, boom)

	f.dispatch(session.RequestSessionFromStorage())
	errs = f.errors()
	require.Len(t, errs, 2)
	require.Equal(t, session.KindSessionFromStorage, errs[1].kind)
	// a failed read leaves the session untouched
	require.Equal(t, session.State{LoginID: "x", Token: "token"}, f.store.State())

	// logout stops at the failing delete, memory is already cleared
	f.rec.reset()
	f.dispatch(session.RequestLogout())
	require.Equal(t, session.State{}, f.store.State())
	require.Equal(t, []string{"new_session::", "delete"}, f.rec.all())
	require.Len(t, f.errors(), 3)

	f.repo.SetErr(nil)
	f.dispatch(session.RequestSessionFromQuery(credentials.Record{ID: "y", Token: "token2"}))
	require.Len(t, f.errors(), 3)
	require.True(t, f.repo.Stored())
}

func TestOrchestrator_RemoteLogoutFailureAndPanic(t *testing.T) {
	f := setupTestFixture(t)

	f.remote = func(context.Context) error { return errors.New("server unreachable") }
	f.dispatch(session.RequestLogout())
	errs := f.errors()
	require.Len(t, errs, 1)
	require.Equal(t, session.KindLogoutRequested, errs[0].kind)
	require.Contains(t, errs[0].err.Error(), "server unreachable")

	f.remote = func(context.Context) error { panic("socket closed") }
	f.dispatch(session.RequestLogout())
	errs = f.errors()
	require.Len(t, errs, 2)
	require.Contains(t, errs[1].err.Error(), "socket closed")

	f.remote = func(context.Context) error { return nil }
	f.dispatch(session.RequestSessionFromQuery(credentials.Record{ID: "x", Token: "token"}))
	require.Equal(t, "x", f.store.State().LoginID)
	require.Len(t, f.errors(), 2)
}

func TestOrchestrator_StopIgnoresLaterActions(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := session.NewStore()
	repo := fakecredentialsrepo.NewFakeCredentialsRepo()
	orch, err := session.NewOrchestrator(store, repo)
	require.NoError(t, err)

	require.NoError(t, orch.Start(context.Background()))
	require.ErrorIs(t, orch.Start(context.Background()), session.ErrAlreadyStarted)
	orch.Stop()
	orch.Stop()

	store.Dispatch(session.RequestSessionFromQuery(credentials.Record{ID: "x", Token: "token"}))
	orch.Wait()
	// nobody reacts, so no session is established or persisted
	require.Equal(t, session.State{}, store.State())
	require.False(t, repo.Stored())
}

func TestOrchestrator_Run(t *testing.T) {
	defer goleak.VerifyNone(t)

	store := session.NewStore()
	repo := fakecredentialsrepo.NewFakeCredentialsRepo()
	orch, err := session.NewOrchestrator(store, repo)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, orch.Run(ctx))
}

func TestNewOrchestrator_RequiresDependencies(t *testing.T) {
	_, err := session.NewOrchestrator(nil, fakecredentialsrepo.NewFakeCredentialsRepo())
	require.Error(t, err)
	_, err = session.NewOrchestrator(session.NewStore(), nil)
	require.Error(t, err)
}

func setupFileOrchestrator(t *testing.T) (*session.Store, *filestore.Store, *session.Orchestrator) {
	t.Helper()
	store := session.NewStore()
	repo := filestore.New(t.TempDir())
	orch, err := session.NewOrchestrator(store, repo,
		session.WithErrorHandler(session.ErrorHandlerFunc(func(_ context.Context, kind session.Kind, err error) {
			t.Errorf("unexpected %s error: %v", kind, err)
		})),
	)
	require.NoError(t, err)
	require.NoError(t, orch.Start(context.Background()))
	return store, repo, orch
}

func requireStorageMatchesState(t *testing.T, store *session.Store, repo credentials.Repo, step string) {
	t.Helper()
	record, err := repo.Read(context.Background())
	require.NoError(t, err)
	state := store.State()
	require.Equal(t, state.LoginID, record.ID, step)
	require.Equal(t, state.Token, record.Token, step)
}

func TestOrchestrator_BackToBackActionsKeepStorageInStep(t *testing.T) {
	defer goleak.VerifyNone(t)
	store, repo, orch := setupFileOrchestrator(t)
	defer orch.Stop()

	record := func(id string) session.Action {
		return session.RequestSessionFromQuery(credentials.Record{ID: id, Token: "t-" + id})
	}
	sequences := map[string][]session.Action{
		"login then login":    {record("a"), record("b")},
		"logout then login":   {session.RequestLogout(), record("c")},
		"login then logout":   {record("d"), session.RequestLogout()},
		"restore then login":  {session.RequestSessionFromStorage(), record("e")},
		"restore then logout": {session.RequestSessionFromStorage(), session.RequestLogout()},
	}

	for i := 0; i < 50; i++ {
		for name, actions := range sequences {
			for _, action := range actions {
				store.Dispatch(action)
			}
			orch.Wait()
			requireStorageMatchesState(t, store, repo, fmt.Sprintf("%s #%d", name, i))
		}
	}
}

func TestOrchestrator_ConcurrentLoginsKeepStorageInStep(t *testing.T) {
	defer goleak.VerifyNone(t)
	store, repo, orch := setupFileOrchestrator(t)
	defer orch.Stop()

	for i := 0; i < 20; i++ {
		var wg sync.WaitGroup
		for g := 0; g < 8; g++ {
			wg.Add(1)
			go func(g int) {
				defer wg.Done()
				if g%3 == 0 {
					store.Dispatch(session.RequestLogout())
					return
				}
				id := fmt.Sprintf("user-%d-%d", i, g)
				store.Dispatch(session.RequestSessionFromQuery(credentials.Record{ID: id, Token: "t-" + id}))
			}(g)
		}
		wg.Wait()
		orch.Wait()
		requireStorageMatchesState(t, store, repo, fmt.Sprintf("round %d", i))
	}
}

func TestOrchestrator_StalledRemoteLogoutOnlyStallsItself(t *testing.T) {
	f := setupTestFixture(t)
	release := make(chan struct{})
	f.remote = func(context.Context) error {
		<-release
		return nil
	}

	f.store.Dispatch(session.RequestLogout())
	f.store.Dispatch(session.RequestSessionFromQuery(credentials.Record{ID: "x", Token: "token"}))

	require.Eventually(t, func() bool {
		record, err := f.repo.Read(context.Background())
		return err == nil && record.ID == "x"
	}, time.Second, 5*time.Millisecond)
	require.Equal(t, "x", f.store.State().LoginID)

	close(release)
	f.orch.Wait()
	require.Empty(t, f.errors())
}
