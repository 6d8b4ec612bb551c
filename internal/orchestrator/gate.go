package orchestrator

import (
	"context"

	"scanorch/pkg/authz"
	"scanorch/pkg/domain"
	"scanorch/pkg/logger"

	"go.uber.org/zap"
)

// Gate asks the Authorizer exactly once per task whether its credential may
// be used. It never retries.
type Gate struct {
	authorizer authz.Authorizer
}

// NewGate returns a Gate over authorizer.
func NewGate(authorizer authz.Authorizer) *Gate {
	return &Gate{authorizer: authorizer}
}

// Authorize returns ErrInvalidCredentials, *UnauthorizedError or
// *AuthServiceError when the task may not be scanned.
func (g *Gate) Authorize(ctx context.Context, task *domain.ScanTask) error {
	if missingCredential(task.Credential) {
		return ErrInvalidCredentials
	}

	ok, err := g.authorizer.Authorize(ctx, task)
	if err != nil {
		logger.Warn(ctx, "authorization service failed", zap.Error(err))

		return &AuthServiceError{TaskID: task.ID, Err: err}
	}
	if !ok {
		return &UnauthorizedError{TaskID: task.ID}
	}

	return nil
}

func missingCredential(c domain.Credential) bool {
	switch v := c.(type) {
	case nil:
		return true
	case domain.JWTCredential:
		return v.Token == ""
	case domain.BasicCredential:
		return v.Username == ""
	default:
		return false
	}
}
