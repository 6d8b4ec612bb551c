package orchestrator_test

import (
	"context"
	"errors"
	"testing"

	"scanorch/internal/orchestrator"
	mockauthz "scanorch/pkg/authz/mock"
	"scanorch/pkg/domain"
	"scanorch/pkg/serrors"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestGate_Authorize(t *testing.T) {
	ctx := context.Background()

	t.Run("allowed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		a := mockauthz.NewMockAuthorizer(ctrl)
		task := validTask()
		a.EXPECT().Authorize(gomock.Any(), task).Return(true, nil).Times(1)

		require.NoError(t, orchestrator.NewGate(a).Authorize(ctx, task))
	})

	t.Run("denied", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		a := mockauthz.NewMockAuthorizer(ctrl)
		a.EXPECT().Authorize(gomock.Any(), gomock.Any()).Return(false, nil).Times(1)

		err := orchestrator.NewGate(a).Authorize(ctx, validTask())
		var unauthorized *orchestrator.UnauthorizedError
		require.ErrorAs(t, err, &unauthorized)
		require.Contains(t, err.Error(), "Unauthorized")
		require.ErrorIs(t, err, serrors.ErrUnauthorized)
	})

	t.Run("service failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		a := mockauthz.NewMockAuthorizer(ctrl)
		cause := errors.New("connection reset")
		a.EXPECT().Authorize(gomock.Any(), gomock.Any()).Return(false, cause).Times(1)

		err := orchestrator.NewGate(a).Authorize(ctx, validTask())
		var svcErr *orchestrator.AuthServiceError
		require.ErrorAs(t, err, &svcErr)
		require.ErrorIs(t, err, cause)
		require.ErrorIs(t, err, serrors.ErrUnavailable)
	})

	for name, cred := range map[string]domain.Credential{
		"nil":            nil,
		"empty token":    domain.JWTCredential{},
		"empty username": domain.BasicCredential{Password: "x"},
	} {
		t.Run("missing credential "+name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			a := mockauthz.NewMockAuthorizer(ctrl) // no calls expected

			task := validTask()
			task.Credential = cred
			err := orchestrator.NewGate(a).Authorize(ctx, task)
			require.ErrorIs(t, err, orchestrator.ErrInvalidCredentials)
			require.Contains(t, err.Error(), "Unauthorized")
		})
	}
}
