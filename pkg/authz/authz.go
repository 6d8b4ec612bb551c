// Package authz defines how scan task credentials are checked before any
// scanning work is dispatched.
package authz

import (
	"context"

	"scanorch/pkg/domain"
)

// Authorizer decides whether the credential attached to task may scan the
// task's targets. A false result with a nil error is a denial; a non-nil
// error means the decision could not be made.
//
//go:generate mockgen -package mockauthz -source=authz.go -destination=mock/mockauthz.go *
type Authorizer interface {
	Authorize(ctx context.Context, task *domain.ScanTask) (bool, error)
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, task *domain.ScanTask) (bool, error)

func (f AuthorizerFunc) Authorize(ctx context.Context, task *domain.ScanTask) (bool, error) {
	return f(ctx, task)
}
