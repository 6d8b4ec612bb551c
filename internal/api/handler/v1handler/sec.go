package v1handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"scanorch/internal/config"
	"scanorch/pkg/authz/local"
	"scanorch/pkg/logger"
	"scanorch/pkg/serrors"

	"go.uber.org/zap"
)

type ctxKey string

// SubjectKey is the context key of the authenticated API caller.
const SubjectKey ctxKey = "subject"

// SecHandlerOptions configures API authentication.
type SecHandlerOptions struct {
	// PublicKey verifies bearer tokens (PEM). Authentication is disabled when empty.
	PublicKey string
	Issuer    string
}

func NewSecHandlerOptions(cfg *config.Config) *SecHandlerOptions {
	return &SecHandlerOptions{
		PublicKey: cfg.Auth.JWT.PublicKey,
		Issuer:    cfg.Auth.JWT.Issuer,
	}
}

// SecHandler authenticates API callers with RS256 bearer tokens.
type SecHandler struct {
	verifier *local.JWTVerifier
}

func NewSecHandler(opts *SecHandlerOptions) (*SecHandler, error) {
	if opts == nil || opts.PublicKey == "" {
		return &SecHandler{}, nil
	}

	verifier, err := local.NewJWTVerifier(opts.PublicKey, opts.Issuer)
	if err != nil {
		return nil, fmt.Errorf("could not create jwt verifier: %w", err)
	}

	return &SecHandler{verifier: verifier}, nil
}

// HandleBearerAuth verifies token and stores its subject in the returned context.
func (s *SecHandler) HandleBearerAuth(ctx context.Context, token string) (context.Context, error) {
	if s.verifier == nil {
		return ctx, nil
	}

	claims, err := s.verifier.Verify(token)
	if err != nil {
		return ctx, err //nolint: wrapcheck
	}

	ctx = context.WithValue(ctx, SubjectKey, claims.Subject)
	ctx = logger.WithFields(ctx, zap.String(string(SubjectKey), claims.Subject))

	return ctx, nil
}

// Middleware rejects requests without a valid bearer token.
func (s *SecHandler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.verifier == nil {
			next.ServeHTTP(w, r)

			return
		}

		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || token == "" {
			unauthorized(w, r, serrors.With(serrors.ErrUnauthorized, "missing bearer token"))

			return
		}

		ctx, err := s.HandleBearerAuth(r.Context(), token)
		if err != nil {
			unauthorized(w, r, err)

			return
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func unauthorized(w http.ResponseWriter, r *http.Request, err error) {
	logger.Info(r.Context(), "request not authenticated", zap.Error(err))
	w.Header().Set("WWW-Authenticate", "Bearer")
	writeJSON(w, http.StatusUnauthorized,
		[]byte(`{"code":"`+serrors.ErrUnauthorized.Error()+`","message":"unauthorized"}`))
}

// GetSubjectFromContext returns the authenticated caller, if any.
func GetSubjectFromContext(ctx context.Context) string {
	sub, _ := ctx.Value(SubjectKey).(string)

	return sub
}
