package loginform

import (
	"context"
	"net/url"
	"sync"

	"github.com/jrsteele09/go-login-server/credentials"
	"github.com/jrsteele09/go-login-server/session"
	"github.com/rs/zerolog/log"
)

// Route parameter that signals the previous session was ended elsewhere.
const (
	RefParam     = "ref"
	RefLoggedOut = "loggedOut"
)

// Authenticator runs the login mutation.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (credentials.Record, error)
}

// Dispatcher is satisfied by *session.Store.
type Dispatcher interface {
	Dispatch(action session.Action)
}

// View is what a renderer needs to draw the form.
type View struct {
	Email          string
	Loading        bool
	ServerError    string
	EmailError     bool
	PasswordError  bool
	SubmitDisabled bool
}

// Connector joins the form to the login mutation and the session store.
type Connector struct {
	form       *Form
	auth       Authenticator
	dispatcher Dispatcher

	mu          sync.Mutex
	loading     bool
	serverError string
}

func NewConnector(auth Authenticator, dispatcher Dispatcher) *Connector {
	c := &Connector{auth: auth, dispatcher: dispatcher}
	c.form = New(c.submitAction)
	return c
}

func (c *Connector) Form() *Form {
	return c.form
}

// Mount applies the route query; ref=loggedOut ends the stale session.
func (c *Connector) Mount(query url.Values) {
	if query.Get(RefParam) == RefLoggedOut {
		c.SessionExpired()
	}
}

// SessionExpired clears the session the server no longer accepts.
func (c *Connector) SessionExpired() {
	log.Info().Msg("Session expired, logging out")
	c.dispatcher.Dispatch(session.RequestLogout())
}

func (c *Connector) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Connector) ServerError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverError
}

func (c *Connector) View() View {
	loading := c.Loading()
	return View{
		Email:          c.form.Credentials().Email,
		Loading:        loading,
		ServerError:    c.ServerError(),
		EmailError:     c.form.EmailError(),
		PasswordError:  c.form.PasswordError(),
		SubmitDisabled: c.form.SubmitDisabled(loading),
	}
}

// Submit submits the form. A rejected login is reported through ServerError
// and returned.
func (c *Connector) Submit(ctx context.Context) error {
	return c.form.Submit(ctx, c.Loading())
}

// submitAction claims the loading flag before calling the server, so only one
// submission is in flight at a time.
func (c *Connector) submitAction(ctx context.Context, creds Credentials) error {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return ErrSubmitDisabled
	}
	c.loading = true
	c.serverError = ""
	c.mu.Unlock()

	record, err := c.auth.Login(ctx, creds.Email, creds.Password)

	c.mu.Lock()
	c.loading = false
	if err != nil {
		c.serverError = err.Error()
	}
	c.mu.Unlock()

	if err != nil {
		return err
	}
	c.dispatcher.Dispatch(session.RequestSessionFromQuery(record))
	return nil
}
