// Package controller contains HTTP middlewares and helper handlers shared by
// the API server.
//
//   - WithCORS answers preflight requests for the configured origins.
//   - AccessLog starts a server span, attaches a request-scoped logger and
//     request ID to the context, records request latency and writes one
//     access log line per request.
//   - Pprof exposes net/http/pprof under PprofPrefix.
package controller
