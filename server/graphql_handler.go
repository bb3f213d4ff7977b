package server

import (
	"net/http"
	"strings"

	"github.com/graphql-go/handler"
)

// GraphQLHandler serves the schema over HTTP. The bearer token reaches the
// resolvers through the request context, see BearerTokenMiddleware.
func (s *Server) GraphQLHandler() http.HandlerFunc {
	h := handler.New(&handler.Config{
		Schema: &s.schema,
		Pretty: s.env == "DEV",
	})
	return h.ServeHTTP
}

// BearerTokenMiddleware copies the Authorization bearer token into the
// request context.
func (s *Server) BearerTokenMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next(w, r.WithContext(withBearerToken(r.Context(), BearerToken(r))))
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
