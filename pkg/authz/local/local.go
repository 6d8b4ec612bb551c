// Package local authorizes scan task credentials in process: JWT credentials
// are verified with an RSA public key and basic credentials against bcrypt
// hashes.
package local

import (
	"context"
	"errors"
	"fmt"

	"scanorch/pkg/authz"
	"scanorch/pkg/domain"
	"scanorch/pkg/logger"
	"scanorch/pkg/serrors"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Options configures an Authorizer.
type Options struct {
	// JWT verifies JWT credentials. JWT credentials are denied when nil.
	JWT *JWTVerifier
	// BasicUsers maps usernames to bcrypt hashes.
	BasicUsers map[string]string
}

// Authorizer implements authz.Authorizer without leaving the process.
type Authorizer struct {
	jwt   *JWTVerifier
	users map[string][]byte
}

var _ authz.Authorizer = (*Authorizer)(nil)

// New validates the configured hashes and returns an Authorizer.
func New(opts Options) (*Authorizer, error) {
	users := make(map[string][]byte, len(opts.BasicUsers))
	for name, hash := range opts.BasicUsers {
		if _, err := bcrypt.Cost([]byte(hash)); err != nil {
			return nil, fmt.Errorf("invalid bcrypt hash for user %q: %w", name, err)
		}
		users[name] = []byte(hash)
	}

	return &Authorizer{jwt: opts.JWT, users: users}, nil
}

func (a *Authorizer) Authorize(ctx context.Context, task *domain.ScanTask) (bool, error) {
	switch cred := task.Credential.(type) {
	case domain.JWTCredential:
		if a.jwt == nil {
			logger.Warn(ctx, "jwt credential received but no public key is configured")

			return false, nil
		}
		claims, err := a.jwt.Verify(cred.Token)
		if err != nil {
			if serrors.IsKind(err, serrors.ErrUnauthorized) {
				logger.Info(ctx, "jwt credential rejected", zap.Error(err))

				return false, nil
			}

			return false, err
		}
		logger.Debug(ctx, "jwt credential accepted", zap.String("subject", claims.Subject))

		return true, nil
	case domain.BasicCredential:
		hash, ok := a.users[cred.Username]
		if !ok {
			return false, nil
		}
		err := bcrypt.CompareHashAndPassword(hash, []byte(cred.Password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("could not compare password: %w", err)
		}

		return true, nil
	default:
		return false, nil
	}
}
