package server

import (
	"context"
	"errors"

	"github.com/graphql-go/graphql"
	apperrors "github.com/jrsteele09/go-login-server/internal/errors"
	"github.com/jrsteele09/go-login-server/login"
	"github.com/jrsteele09/go-login-server/users"
	"github.com/rs/zerolog/log"
)

var (
	errInternal         = errors.New("Internal server error")
	errNotAuthenticated = errors.New("Not authenticated")
)

type bearerTokenKey struct{}

func withBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerTokenKey{}, token)
}

func bearerToken(ctx context.Context) string {
	token, _ := ctx.Value(bearerTokenKey{}).(string)
	return token
}

// NewSchema builds the GraphQL schema exposing login, logout and me.
func NewSchema(service *login.Service) (graphql.Schema, error) {
	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"id": &graphql.Field{
				Type: graphql.NewNonNull(graphql.ID),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*users.User).ID, nil
				},
			},
			"email": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*users.User).Email, nil
				},
			},
			"lastLogin": &graphql.Field{
				Type: graphql.DateTime,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					lastLogin := p.Source.(*users.User).LastLogin
					if lastLogin.IsZero() {
						return nil, nil
					}
					return lastLogin.UTC(), nil
				},
			},
		},
	})

	authPayloadType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthPayload",
		Fields: graphql.Fields{
			"token": &graphql.Field{
				Type: graphql.NewNonNull(graphql.String),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*login.Result).Token, nil
				},
			},
			"user": &graphql.Field{
				Type: graphql.NewNonNull(userType),
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return p.Source.(*login.Result).User, nil
				},
			},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"me": &graphql.Field{
				Type:    userType,
				Resolve: meResolver(service),
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"login": &graphql.Field{
				Type: graphql.NewNonNull(authPayloadType),
				Args: graphql.FieldConfigArgument{
					"email":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"password": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: loginResolver(service),
			},
			"logout": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Boolean),
				Resolve: logoutResolver(service.Logout),
			},
			"logoutAll": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Boolean),
				Resolve: logoutResolver(service.LogoutAll),
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

// loginResolver passes invalid credentials through as user input errors and
// hides everything else behind a generic message.
func loginResolver(service *login.Service) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		email, _ := p.Args["email"].(string)
		password, _ := p.Args["password"].(string)

		result, err := service.Login(p.Context, email, password)
		if login.IsInvalidCredentials(err) {
			return nil, err
		}
		if err != nil {
			log.Err(err).Msg("Login failed")
			return nil, errInternal
		}
		return result, nil
	}
}

// logoutResolver revokes with the bearer token. Logging out with a token that
// has already expired or been revoked succeeds.
func logoutResolver(revoke func(ctx context.Context, rawToken string) error) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		err := revoke(p.Context, bearerToken(p.Context))
		switch {
		case err == nil,
			apperrors.Is(err, apperrors.ErrTokenExpired),
			apperrors.Is(err, apperrors.ErrTokenRevoked):
			return true, nil
		case apperrors.Is(err, apperrors.ErrMissingToken),
			apperrors.Is(err, apperrors.ErrInvalidToken):
			return nil, errNotAuthenticated
		default:
			log.Err(err).Msg("Logout failed")
			return nil, errInternal
		}
	}
}

// meResolver returns null unless the bearer token is valid.
func meResolver(service *login.Service) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		user, err := service.Me(p.Context, bearerToken(p.Context))
		switch {
		case err == nil:
			return user, nil
		case apperrors.Is(err, apperrors.ErrMissingToken),
			apperrors.Is(err, apperrors.ErrInvalidToken),
			apperrors.Is(err, apperrors.ErrTokenExpired),
			apperrors.Is(err, apperrors.ErrTokenRevoked),
			apperrors.Is(err, apperrors.ErrUserNotFound):
			return nil, nil
		default:
			log.Err(err).Msg("Me lookup failed")
			return nil, errInternal
		}
	}
}
