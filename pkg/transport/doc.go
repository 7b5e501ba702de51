// Package transport defines the handler interfaces and middleware chain for
// the askgate HTTP transport layer.
//
// The transport layer bridges browser clients and the answering engine. It
// deserializes incoming requests into the wire types defined in pkg/api,
// dispatches them for processing, and serializes results back as JSON.
//
// # Handler Interfaces
//
//   - Answerer handles the core ask operation.
//   - ArticleKeeper stores and clears the reading passage kept in a session.
//   - Switch exposes the process-wide enabled toggle.
//
// # Middleware
//
// The middleware chain wraps Answerer with cross-cutting concerns.
// Built-in middleware provides panic recovery, request ID assignment
// (X-Request-ID), and structured logging via log/slog.
package transport
