package v1handler

import (
	"net/http"

	"scanorch/pkg/domain"
	"scanorch/pkg/serrors"

	"github.com/go-faster/jx"
)

// SubmitResult stores a result produced outside the orchestrator.
func (h *Handler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	b, err := readBody(r)
	if err != nil {
		h.writeError(w, r, err)

		return
	}
	result, err := decodeResult(b)
	if err != nil {
		h.writeError(w, r, serrors.Wrap(serrors.ErrBadRequest, err, "invalid scan result payload"))

		return
	}

	resp, err := h.deps.Orchestrator.StoreResult(r.Context(), result)
	if err != nil {
		h.writeError(w, r, err)

		return
	}

	status := http.StatusCreated
	if resp.Status == domain.ResultStatusInvalid {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, encode(func(e *jx.Encoder) { encodeResultResponse(e, resp) }))
}
