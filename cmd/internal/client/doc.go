// Package client implements the session-side of the auth protocol: an HTTP
// API boundary that turns transport failures into tagged errors, a durable
// credential store shared across session controller instances, and the
// controller state machine that keeps one consistent authenticated-identity
// view across reloads, concurrent requests and external logouts.
package client
