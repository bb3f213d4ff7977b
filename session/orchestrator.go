package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jrsteele09/go-login-server/credentials"
	"github.com/jrsteele09/go-login-server/internal/metrics"
)

// RemoteLogout tells the server the session is over.
type RemoteLogout func(ctx context.Context) error

var ErrAlreadyStarted = errors.New("orchestrator already started")

type reaction func(ctx context.Context) error

// job is a credential store effect waiting for the storage worker.
type job struct {
	kind Kind
	run  reaction
}

// Orchestrator reacts to session lifecycle actions dispatched to a Store.
//
// Every occurrence of a watched action gets its own reaction. The in-memory
// part of a reaction runs on the dispatching goroutine. Credential store calls
// run on a single worker in the order the actions arrived, so the persisted
// record always ends up matching the session in memory. Remote logouts run
// on their own goroutine and only hold up themselves.
//
// Subscribers must not dispatch SessionFromQuery or LogoutRequested from
// inside a NewSession notification.
type Orchestrator struct {
	store        *Store
	credentials  credentials.Repo
	remoteLogout RemoteLogout
	errorHandler ErrorHandler

	// sessionMu keeps a session change and the queueing of its store effect
	// together when actions are dispatched from several goroutines.
	sessionMu sync.Mutex

	mu          sync.Mutex
	idle        *sync.Cond
	work        *sync.Cond
	queue       []job
	inflight    int
	started     bool
	stopped     bool
	closed      bool
	workerDone  chan struct{}
	ctx         context.Context
	unsubscribe func()
}

// OrchestratorOption defines a function type to modify the Orchestrator instance.
type OrchestratorOption func(*Orchestrator)

func WithErrorHandler(handler ErrorHandler) OrchestratorOption {
	return func(o *Orchestrator) {
		o.errorHandler = handler
	}
}

func WithRemoteLogout(remoteLogout RemoteLogout) OrchestratorOption {
	return func(o *Orchestrator) {
		o.remoteLogout = remoteLogout
	}
}

func NewOrchestrator(store *Store, repo credentials.Repo, options ...OrchestratorOption) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("[NewOrchestrator] store is required")
	}
	if repo == nil {
		return nil, errors.New("[NewOrchestrator] credentials repo is required")
	}

	o := &Orchestrator{
		store:        store,
		credentials:  repo,
		remoteLogout: func(context.Context) error { return nil },
		errorHandler: LogErrorHandler{},
	}
	o.idle = sync.NewCond(&o.mu)
	o.work = sync.NewCond(&o.mu)
	for _, opt := range options {
		opt(o)
	}
	return o, nil
}

// Start subscribes to the store and starts the storage worker. Reactions run
// on a context derived from ctx that is not cancelled with it, so a reaction
// in flight always finishes.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.started {
		return ErrAlreadyStarted
	}
	o.started = true
	o.ctx = context.WithoutCancel(ctx)
	o.workerDone = make(chan struct{})
	go o.worker()
	o.unsubscribe = o.store.Subscribe(o.take)
	return nil
}

// Stop stops taking new actions, waits for reactions in flight and stops the
// storage worker. Actions dispatched after Stop are not reacted to.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.started || o.stopped {
		o.mu.Unlock()
		o.Wait()
		return
	}
	o.stopped = true
	unsubscribe := o.unsubscribe
	o.mu.Unlock()

	unsubscribe()
	o.Wait()

	o.mu.Lock()
	o.closed = true
	o.work.Broadcast()
	o.mu.Unlock()
	<-o.workerDone
}

// Run starts the orchestrator and blocks until ctx is done.
func (o *Orchestrator) Run(ctx context.Context) error {
	if err := o.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	o.Stop()
	return nil
}

// Wait blocks until no reaction is in flight, including reactions to actions
// dispatched by other reactions.
func (o *Orchestrator) Wait() {
	o.mu.Lock()
	defer o.mu.Unlock()
	for o.inflight > 0 {
		o.idle.Wait()
	}
}

func (o *Orchestrator) take(action Action) {
	o.mu.Lock()
	if o.stopped {
		o.mu.Unlock()
		return
	}
	ctx := o.ctx
	o.mu.Unlock()

	switch a := action.(type) {
	case SessionFromQuery:
		o.sessionMu.Lock()
		defer o.sessionMu.Unlock()
		o.react(ctx, a.Kind(), func(context.Context) error {
			o.loginUser(a)
			return nil
		})
	case LoginSucceeded:
		o.enqueue(a.Kind(), func(ctx context.Context) error { return o.storeData(ctx, a) })
	case LogoutRequested:
		o.sessionMu.Lock()
		defer o.sessionMu.Unlock()
		o.react(ctx, a.Kind(), func(context.Context) error {
			o.store.Dispatch(NewSession{})
			o.enqueue(a.Kind(), o.logoutUser)
			return nil
		})
	case SessionFromStorage:
		version := o.store.Version()
		o.enqueue(a.Kind(), func(ctx context.Context) error { return o.readStorage(ctx, version) })
	}
}

// enqueue hands a credential store effect to the worker. Effects run in the
// order they were enqueued.
func (o *Orchestrator) enqueue(kind Kind, r reaction) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return
	}
	o.inflight++
	o.queue = append(o.queue, job{kind: kind, run: r})
	o.work.Signal()
}

func (o *Orchestrator) worker() {
	defer close(o.workerDone)
	for {
		o.mu.Lock()
		for len(o.queue) == 0 && !o.closed {
			o.work.Wait()
		}
		if len(o.queue) == 0 {
			o.mu.Unlock()
			return
		}
		next := o.queue[0]
		o.queue[0] = job{}
		o.queue = o.queue[1:]
		ctx := o.ctx
		o.mu.Unlock()

		o.react(ctx, next.kind, next.run)
		o.done()
	}
}

// spawn runs r on its own goroutine, tracked by Wait.
func (o *Orchestrator) spawn(kind Kind, r reaction) {
	o.mu.Lock()
	o.inflight++
	ctx := o.ctx
	o.mu.Unlock()

	go func() {
		defer o.done()
		o.react(ctx, kind, r)
	}()
}

func (o *Orchestrator) done() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.inflight--
	if o.inflight == 0 {
		o.idle.Broadcast()
	}
}

func (o *Orchestrator) react(ctx context.Context, kind Kind, r reaction) {
	defer func() {
		if p := recover(); p != nil {
			metrics.SessionReactions.WithLabelValues(string(kind), "panic").Inc()
			o.errorHandler.HandleError(ctx, kind, fmt.Errorf("panic in %s reaction: %v", kind, p))
		}
	}()

	if err := r(ctx); err != nil {
		metrics.SessionReactions.WithLabelValues(string(kind), "error").Inc()
		o.errorHandler.HandleError(ctx, kind, err)
		return
	}
	metrics.SessionReactions.WithLabelValues(string(kind), "ok").Inc()
}

// loginUser updates the in-memory session before announcing the login, so
// the record is persisted only after the state holds it.
func (o *Orchestrator) loginUser(a SessionFromQuery) {
	id, token := a.Credentials.ID, a.Credentials.Token
	o.store.Dispatch(NewSession{ID: id, Token: token})
	o.store.Dispatch(LoginSucceeded{ID: id, Token: token})
}

func (o *Orchestrator) storeData(ctx context.Context, a LoginSucceeded) error {
	if err := o.credentials.Store(ctx, credentials.Record{ID: a.ID, Token: a.Token}); err != nil {
		return fmt.Errorf("store login record: %w", err)
	}
	return nil
}

// logoutUser deletes the persisted record, then tells the server. Memory was
// cleared when the logout was taken.
func (o *Orchestrator) logoutUser(ctx context.Context) error {
	if err := o.credentials.Delete(ctx); err != nil {
		return fmt.Errorf("delete login record: %w", err)
	}
	o.spawn(KindLogoutRequested, func(ctx context.Context) error {
		if err := o.remoteLogout(ctx); err != nil {
			return fmt.Errorf("remote logout: %w", err)
		}
		return nil
	})
	return nil
}

// readStorage restores the persisted record into memory. A session change
// dispatched after the read was requested wins over what was read.
func (o *Orchestrator) readStorage(ctx context.Context, version uint64) error {
	record, err := o.credentials.Read(ctx)
	if err != nil {
		return fmt.Errorf("read login record: %w", err)
	}
	o.store.CompareAndDispatch(version, NewSession{ID: record.ID, Token: record.Token})
	return nil
}
