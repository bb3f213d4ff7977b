// Package session holds the client's session state and the orchestrator that
// reacts to session lifecycle events.
//
// State lives in a Store and changes only through Reduce. The Orchestrator
// subscribes to the Store and, for every occurrence of a watched action,
// runs a short ordered sequence of effects: dispatching further actions,
// persisting or deleting the login record and notifying the server on logout.
// Failures inside a reaction are routed to an ErrorHandler and never stop the
// orchestrator.
package session
