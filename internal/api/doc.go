// Package api holds the HTTP handlers. Handlers decode and validate requests,
// call the services and translate results and errors into JSON responses.
// Routing lives in cmd/server.
package api
