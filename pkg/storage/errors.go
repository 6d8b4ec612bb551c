package storage

import "scanorch/pkg/serrors"

// Errors returned by storage backends. They carry serrors kinds so callers
// up to the HTTP layer can classify them without knowing the backend.
var (
	// ErrAlreadyInTx is returned by Begin on a handle that is already a transaction.
	ErrAlreadyInTx = serrors.With(serrors.ErrInternal, "storage handle is already in a transaction")
	// ErrNotInTx is returned by Commit or Rollback on the pooled handle.
	ErrNotInTx = serrors.With(serrors.ErrInternal, "storage handle is not in a transaction")
	// ErrNotFound is returned by updates that matched no record.
	ErrNotFound = serrors.With(serrors.ErrNotFound, "record not found")
)
