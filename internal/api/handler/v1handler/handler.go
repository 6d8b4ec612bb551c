// Package v1handler implements the v1 HTTP API: task intake, synchronous
// runs, task and result queries, and external result submission.
package v1handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"scanorch/internal/orchestrator"
	"scanorch/pkg/logger"
	"scanorch/pkg/serrors"

	"github.com/go-faster/jx"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request payloads.
const maxBodyBytes = 1 << 20

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// Deps holds the collaborators of Handler.
type Deps struct {
	Orchestrator orchestrator.Orchestrator
	Health       HealthChecker
}

type Handler struct {
	deps Deps
}

func New(deps Deps) *Handler {
	return &Handler{deps: deps}
}

// Register mounts the v1 routes on mux. Every route except health goes
// through sec.
func (h *Handler) Register(mux *http.ServeMux, sec *SecHandler) {
	mux.Handle("POST /v1/tasks", sec.Middleware(http.HandlerFunc(h.CreateTask)))
	mux.Handle("POST /v1/tasks/run", sec.Middleware(http.HandlerFunc(h.RunTask)))
	mux.Handle("GET /v1/tasks/{id}", sec.Middleware(http.HandlerFunc(h.GetTask)))
	mux.Handle("GET /v1/tasks/{id}/results", sec.Middleware(http.HandlerFunc(h.ListResults)))
	mux.Handle("POST /v1/results", sec.Middleware(http.HandlerFunc(h.SubmitResult)))
	mux.HandleFunc("GET /v1/health", h.Health)
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string
	Message string
}

// ErrorStatusCode pairs an ErrorResponse with its HTTP status.
type ErrorStatusCode struct {
	StatusCode int
	Response   ErrorResponse
}

type errorMapping struct {
	status  int
	message string
}

//nolint: gochecknoglobals
var errorMappings = map[serrors.Kind]errorMapping{
	serrors.ErrNotFound:     {http.StatusNotFound, "resource not found"},
	serrors.ErrUnauthorized: {http.StatusUnauthorized, "unauthorized"},
	serrors.ErrForbidden:    {http.StatusForbidden, "forbidden"},
	serrors.ErrBadRequest:   {http.StatusBadRequest, "bad request"},
	serrors.ErrConflict:     {http.StatusConflict, "conflict"},
	serrors.ErrTimeout:      {http.StatusGatewayTimeout, "request timed out"},
	serrors.ErrUnavailable:  {http.StatusServiceUnavailable, "service unavailable"},
	serrors.ErrRateLimited:  {http.StatusTooManyRequests, "too many requests"},
}

// NewError maps err to an HTTP status using its semantic kind. Internal
// errors are logged and never expose their cause.
func (h *Handler) NewError(ctx context.Context, err error) *ErrorStatusCode {
	kind := serrors.KindOf(err)
	mapping, ok := errorMappings[kind]
	if !ok {
		logger.Error(ctx, "request failed", zap.Error(err))

		return &ErrorStatusCode{
			StatusCode: http.StatusInternalServerError,
			Response:   ErrorResponse{Code: serrors.ErrInternal.Error(), Message: "internal error"},
		}
	}

	message := mapping.message
	var se *serrors.Error
	if errors.As(err, &se) {
		if se.Message() != "" {
			message = se.Message()
		}
	} else if _, isKind := err.(serrors.Kind); !isKind { //nolint: errorlint
		message = err.Error()
	}
	logger.Info(ctx, "request rejected", zap.String("kind", kind.Error()), zap.Error(err))

	return &ErrorStatusCode{
		StatusCode: mapping.status,
		Response:   ErrorResponse{Code: kind.Error(), Message: message},
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	res := h.NewError(r.Context(), err)
	writeJSON(w, res.StatusCode, encode(func(e *jx.Encoder) { encodeError(e, res.Response) }))
}

func writeJSON(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func readBody(r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "could not read request body")
	}

	return b, nil
}

// Health pings the store.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.deps.Health != nil {
		if err := h.deps.Health.Ping(r.Context()); err != nil {
			h.writeError(w, r, serrors.Wrap(serrors.ErrUnavailable, err, "database unreachable"))

			return
		}
	}

	writeJSON(w, http.StatusOK, []byte(`{"status":"ok"}`))
}
