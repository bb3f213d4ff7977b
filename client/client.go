// Package client talks to the login server's GraphQL endpoint.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	graphql "github.com/hasura/go-graphql-client"
	"github.com/jrsteele09/go-login-server/credentials"
)

const (
	// GraphQLPath is appended to the base URL for every request.
	GraphQLPath = "/graphql"

	defaultTimeout = 10 * time.Second
)

// Error codes the GraphQL client library uses for its own failures. Those are
// transport problems, not answers from the server.
var transportErrorCodes = map[string]struct{}{
	graphql.ErrRequestError:  {},
	graphql.ErrJsonEncode:    {},
	graphql.ErrJsonDecode:    {},
	graphql.ErrGraphQLEncode: {},
	graphql.ErrGraphQLDecode: {},
}

// Error is a GraphQL error returned by the server. Message is shown to the
// user as is.
type Error struct {
	Message string
	Code    string
}

func (e *Error) Error() string {
	return e.Message
}

// User is the account a token belongs to.
type User struct {
	ID        string
	Email     string
	LastLogin *time.Time
}

type Client struct {
	gql *graphql.Client
}

type clientOptions struct {
	httpClient *http.Client
}

// ClientOption defines a function type to modify the Client instance.
type ClientOption func(*clientOptions)

// WithHTTPClient replaces the default http client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(o *clientOptions) {
		o.httpClient = httpClient
	}
}

func New(baseURL string, options ...ClientOption) *Client {
	opts := &clientOptions{httpClient: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range options {
		opt(opts)
	}
	return &Client{
		gql: graphql.NewClient(strings.TrimRight(baseURL, "/")+GraphQLPath, opts.httpClient),
	}
}

// Login runs the login mutation and returns the record to persist.
func (c *Client) Login(ctx context.Context, email, password string) (credentials.Record, error) {
	var m struct {
		Login struct {
			Token string `graphql:"token"`
			User  struct {
				ID    string `graphql:"id"`
				Email string `graphql:"email"`
			} `graphql:"user"`
		} `graphql:"login(email: $email, password: $password)"`
	}
	variables := map[string]interface{}{
		"email":    graphql.String(email),
		"password": graphql.String(password),
	}
	if err := c.gql.Mutate(ctx, &m, variables, graphql.OperationName("Login")); err != nil {
		return credentials.Record{}, translate("Login", err)
	}
	return credentials.Record{ID: m.Login.User.ID, Token: m.Login.Token}, nil
}

// Logout tells the server to revoke the token.
func (c *Client) Logout(ctx context.Context, token string) error {
	var m struct {
		Logout bool `graphql:"logout"`
	}
	if err := c.withToken(token).Mutate(ctx, &m, nil, graphql.OperationName("Logout")); err != nil {
		return translate("Logout", err)
	}
	if !m.Logout {
		return fmt.Errorf("[Logout] server did not confirm logout")
	}
	return nil
}

// LogoutAll tells the server to revoke every token of the token's user.
func (c *Client) LogoutAll(ctx context.Context, token string) error {
	var m struct {
		LogoutAll bool `graphql:"logoutAll"`
	}
	if err := c.withToken(token).Mutate(ctx, &m, nil, graphql.OperationName("LogoutAll")); err != nil {
		return translate("LogoutAll", err)
	}
	if !m.LogoutAll {
		return fmt.Errorf("[LogoutAll] server did not confirm logout")
	}
	return nil
}

// Me returns the user for the token, or nil when the server does not accept it.
func (c *Client) Me(ctx context.Context, token string) (*User, error) {
	var q struct {
		Me struct {
			ID        string `graphql:"id"`
			Email     string `graphql:"email"`
			LastLogin string `graphql:"lastLogin"`
		} `graphql:"me"`
	}
	if err := c.withToken(token).Query(ctx, &q, nil, graphql.OperationName("Me")); err != nil {
		return nil, translate("Me", err)
	}
	if q.Me.ID == "" {
		return nil, nil
	}

	user := &User{ID: q.Me.ID, Email: q.Me.Email}
	if q.Me.LastLogin != "" {
		lastLogin, err := time.Parse(time.RFC3339, q.Me.LastLogin)
		if err != nil {
			return nil, fmt.Errorf("[Me] lastLogin: %w", err)
		}
		user.LastLogin = &lastLogin
	}
	return user, nil
}

func (c *Client) withToken(token string) *graphql.Client {
	if token == "" {
		return c.gql
	}
	return c.gql.WithRequestModifier(func(r *http.Request) {
		r.Header.Set("Authorization", "Bearer "+token)
	})
}

// translate turns the first server reported GraphQL error into *Error and
// wraps everything else.
func translate(operation string, err error) error {
	var gqlErrs graphql.Errors
	if !errors.As(err, &gqlErrs) || len(gqlErrs) == 0 {
		return fmt.Errorf("[%s] %w", operation, err)
	}

	first := gqlErrs[0]
	code, _ := first.Extensions["code"].(string)
	if _, transport := transportErrorCodes[code]; transport {
		return fmt.Errorf("[%s] %w", operation, err)
	}
	return &Error{Message: first.Message, Code: code}
}
