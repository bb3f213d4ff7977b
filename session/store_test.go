package session_test

import (
	"testing"

	"github.com/jrsteele09/go-login-server/session"
	"github.com/stretchr/testify/require"
)

func TestStore_DispatchNotifiesInOrder(t *testing.T) {
	store := session.NewStore()
	var seen []string
	store.Subscribe(func(a session.Action) { seen = append(seen, "first:"+string(a.Kind())) })
	unsubscribe := store.Subscribe(func(a session.Action) { seen = append(seen, "second:"+string(a.Kind())) })

	store.Dispatch(session.NewSession{ID: "id", Token: "token"})
	require.Equal(t, []string{"first:NEW_SESSION", "second:NEW_SESSION"}, seen)
	require.Equal(t, session.State{LoginID: "id", Token: "token"}, store.State())

	unsubscribe()
	unsubscribe()
	seen = nil
	store.Dispatch(session.RequestLogout())
	require.Equal(t, []string{"first:LOGOUT_REQUESTED"}, seen)
}

func TestStore_CompareAndDispatch(t *testing.T) {
	store := session.NewStore()
	require.Equal(t, uint64(0), store.Version())

	version := store.Version()
	require.True(t, store.CompareAndDispatch(version, session.NewSession{ID: "a", Token: "ta"}))
	require.Equal(t, version+1, store.Version())

	stale := store.Version()
	store.Dispatch(session.NewSession{ID: "b", Token: "tb"})
	require.False(t, store.CompareAndDispatch(stale, session.NewSession{ID: "a", Token: "ta"}))
	require.Equal(t, session.State{LoginID: "b", Token: "tb"}, store.State())
}
