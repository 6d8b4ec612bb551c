// Package storage declares the persistence contract of the orchestrator:
// scan tasks, their aggregated results and the background jobs that execute
// them. A backend implements every capability so that a task row and its job
// can be written in one transaction.
//
//go:generate mockgen -package mockstorage -source=interface.go -destination=mock/mockstorage.go *
package storage

import "context"

// AllStorage groups the capabilities available both on the pooled handle and
// inside a transaction.
type AllStorage interface {
	TaskStorage
	ResultStorage
	JobStorage
}

// TxStorage is a transaction-bound handle. It must not be used after Commit
// or Rollback.
type TxStorage interface {
	AllStorage

	Commit() error
	Rollback() error
}

// Storage is the pooled, non-transactional handle owned by the process.
type Storage interface {
	AllStorage

	// Ping reports whether the backend is reachable. It backs the health endpoint.
	Ping(ctx context.Context) error
	// Close releases the connection pool.
	Close() error

	// Begin starts a transaction. Nested transactions are not supported and
	// fail with ErrAlreadyInTx.
	Begin(ctx context.Context) (TxStorage, error)
	// WithTx runs cb inside a transaction, committing when cb returns nil and
	// rolling back otherwise. A task and its execution job are saved this way
	// so a job never references a task that was not persisted.
	WithTx(ctx context.Context, cb func(storage AllStorage) error) error
}
