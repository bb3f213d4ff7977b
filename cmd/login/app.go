package main

import (
	"context"
	"errors"
	"sync"

	"github.com/jrsteele09/go-login-server/client"
	apperrors "github.com/jrsteele09/go-login-server/internal/errors"
	"github.com/jrsteele09/go-login-server/credentials/filestore"
	"github.com/jrsteele09/go-login-server/loginform"
	"github.com/jrsteele09/go-login-server/session"
)

// app wires the client side together for a single command run.
type app struct {
	store        *session.Store
	client       *client.Client
	orchestrator *session.Orchestrator
	connector    *loginform.Connector

	mu          sync.Mutex
	logoutToken string
	logoutAll   bool
	errs        []error
}

func newApp(cfg *rootConfig) (*app, error) {
	a := &app{
		store:  session.NewStore(),
		client: client.New(cfg.serverURL),
	}

	errorHandler := session.ErrorHandlerFunc(func(ctx context.Context, kind session.Kind, err error) {
		session.LogErrorHandler{}.HandleError(ctx, kind, err)
		a.mu.Lock()
		a.errs = append(a.errs, err)
		a.mu.Unlock()
	})

	orchestrator, err := session.NewOrchestrator(a.store, filestore.New(cfg.folder),
		session.WithErrorHandler(errorHandler),
		session.WithRemoteLogout(a.remoteLogout),
	)
	if err != nil {
		return nil, err
	}
	a.orchestrator = orchestrator
	a.connector = loginform.NewConnector(a.client, a.store)
	return a, nil
}

func (a *app) start(ctx context.Context) error {
	return a.orchestrator.Start(ctx)
}

func (a *app) stop() {
	a.orchestrator.Stop()
}

// dispatch sends the action and waits for every reaction it causes. Errors
// reported by the reactions are returned joined.
func (a *app) dispatch(action session.Action) error {
	a.mu.Lock()
	a.errs = nil
	a.mu.Unlock()

	a.store.Dispatch(action)
	return a.settle()
}

func (a *app) settle() error {
	a.orchestrator.Wait()

	a.mu.Lock()
	defer a.mu.Unlock()
	err := errors.Join(a.errs...)
	a.errs = nil
	return err
}

// restore loads the persisted session into the store. It returns
// errors.ErrNoSession when nothing was stored.
func (a *app) restore() error {
	if err := a.dispatch(session.RequestSessionFromStorage()); err != nil {
		return err
	}
	if !a.store.State().Active() {
		return apperrors.ErrNoSession
	}
	return nil
}

// prepareLogout captures the token for the server call. The store is cleared
// before the server is told, so the token has to be taken first.
func (a *app) prepareLogout() {
	a.mu.Lock()
	a.logoutToken = a.store.State().Token
	a.errs = nil
	a.mu.Unlock()
}

// logout ends the current session locally and on the server. With all set
// the server revokes every token of the user, not just this one.
func (a *app) logout(all bool) error {
	a.prepareLogout()
	a.mu.Lock()
	a.logoutAll = all
	a.mu.Unlock()
	a.store.Dispatch(session.RequestLogout())
	return a.settle()
}

// sessionExpired runs the logout flow for a session the server no longer accepts.
func (a *app) sessionExpired() error {
	a.prepareLogout()
	a.connector.SessionExpired()
	return a.settle()
}

func (a *app) remoteLogout(ctx context.Context) error {
	a.mu.Lock()
	token, all := a.logoutToken, a.logoutAll
	a.logoutToken, a.logoutAll = "", false
	a.mu.Unlock()

	if token == "" {
		return nil
	}
	if all {
		return a.client.LogoutAll(ctx, token)
	}
	return a.client.Logout(ctx, token)
}
