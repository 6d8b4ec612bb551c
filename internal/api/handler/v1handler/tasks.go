package v1handler

import (
	"net/http"

	"scanorch/internal/orchestrator"
	"scanorch/pkg/domain"
	"scanorch/pkg/serrors"

	"github.com/go-faster/jx"
)

func (h *Handler) readTask(r *http.Request) (*domain.ScanTask, error) {
	b, err := readBody(r)
	if err != nil {
		return nil, err
	}
	task, err := decodeTask(b)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrBadRequest, err, "invalid scan task payload")
	}

	return task, nil
}

// taskStatusCode picks the HTTP status of a task response that carries no
// error.
func taskStatusCode(resp domain.TaskResponse) int {
	switch resp.Status {
	case domain.TaskStatusPending:
		return http.StatusAccepted
	case domain.TaskStatusInvalid:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusOK
	}
}

// CreateTask validates a task and queues it for background execution.
func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.readTask(r)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	resp, err := h.deps.Orchestrator.Submit(r.Context(), task)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	writeJSON(w, taskStatusCode(resp), encode(func(e *jx.Encoder) { encodeTaskResponse(e, resp) }))
}

// RunTask executes a task synchronously and answers with its terminal status.
// FAILED and INVALID outcomes are reported in the body with status 200 and
// 422 respectively.
func (h *Handler) RunTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.readTask(r)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	resp, err := h.deps.Orchestrator.Run(r.Context(), task)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	writeJSON(w, taskStatusCode(resp), encode(func(e *jx.Encoder) { encodeTaskResponse(e, resp) }))
}

// GetTask returns a stored task and its status.
func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.deps.Orchestrator.Task(r.Context(), domain.TaskID(r.PathValue("id")))
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, encode(func(e *jx.Encoder) { encodeTask(e, task) }))
}

// ListResults returns every result stored for a task, oldest first.
func (h *Handler) ListResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.deps.Orchestrator.Results(r.Context(), domain.TaskID(r.PathValue("id")))
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	writeJSON(w, http.StatusOK, encode(func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("items", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for i := range results {
						encodeResult(e, &results[i], orchestrator.ResultResponseOf(&results[i]))
					}
				})
			})
		})
	}))
}
