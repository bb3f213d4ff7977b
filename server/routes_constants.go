package server

// Route path constants
const (
	RouteGraphQL = "/graphql"
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)
