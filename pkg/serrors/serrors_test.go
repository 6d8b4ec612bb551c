package serrors_test

import (
	"errors"
	"fmt"
	"testing"

	"scanorch/pkg/serrors"

	"github.com/stretchr/testify/require"
)

type customError struct{ msg string }

func (e customError) Error() string { return e.msg }

func TestKindsDistinct(t *testing.T) {
	seen := map[serrors.Kind]bool{}
	for _, k := range serrors.Kinds {
		require.NotNil(t, k)
		require.False(t, seen[k], "duplicate kind %v", k)
		seen[k] = true
	}
	require.Len(t, seen, 9)
	require.Equal(t, serrors.NewKind("NOT_FOUND"), serrors.ErrNotFound, "kinds compare by name")
}

func TestErrorFormatting(t *testing.T) {
	base := errors.New("db down")

	tests := []struct {
		err  *serrors.Error
		want string
	}{
		{err: serrors.With(serrors.ErrNotFound, "scan task %s not found", "t-1"), want: "scan task t-1 not found"},
		{err: serrors.Wrap(serrors.ErrInternal, base, "saving result"), want: "saving result: db down"},
		{err: serrors.Wrap(serrors.ErrInternal, base, ""), want: "db down"},
		{err: serrors.KindOnly(serrors.ErrNotFound), want: "NOT_FOUND"},
		{err: &serrors.Error{}, want: "unknown error"},
		{err: nil, want: "<nil>"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.err.Error())
	}
}

func TestIsMatchesKindAndWrapped(t *testing.T) {
	base := customError{"root cause"}
	e := serrors.Wrap(serrors.ErrNotFound, base, "reading")

	require.ErrorIs(t, e, serrors.ErrNotFound)
	require.ErrorIs(t, e, base)
	require.NotErrorIs(t, e, serrors.ErrUnauthorized, "errors.Is should not match a different kind")
}

func TestAsMatchesKindAndWrapped(t *testing.T) {
	base := &customError{"root cause"}
	e := serrors.Wrap(serrors.ErrNotFound, base, "reading")

	var k serrors.Kind
	require.ErrorAs(t, e, &k, "errors.As should extract Kind")
	require.Equal(t, serrors.ErrNotFound, k)

	var ce *customError
	require.ErrorAs(t, e, &ce, "errors.As should extract wrapped error type")
	require.Equal(t, base, ce, "extracted cause pointer mismatch")
}

func TestAccessors(t *testing.T) {
	base := errors.New("boom")
	e := serrors.Wrap(serrors.ErrUnauthorized, base, "missing credential")
	require.Equal(t, serrors.ErrUnauthorized, e.Kind())
	require.Equal(t, "missing credential", e.Message())
	require.Equal(t, base, e.Cause())
}

type classified struct{}

func (classified) Error() string       { return "classified" }
func (classified) Kind() serrors.Kind { return serrors.ErrTimeout }

func TestKindOf(t *testing.T) {
	require.Nil(t, serrors.KindOf(nil))
	require.Nil(t, serrors.KindOf(errors.New("plain")))
	require.Equal(t, serrors.ErrNotFound, serrors.KindOf(serrors.ErrNotFound))
	require.Equal(t, serrors.ErrConflict, serrors.KindOf(serrors.With(serrors.ErrConflict, "dupe")))

	wrapped := fmt.Errorf("outer: %w", serrors.Wrap(serrors.ErrUnavailable, errors.New("down"), "auth"))
	require.Equal(t, serrors.ErrUnavailable, serrors.KindOf(wrapped))

	require.Equal(t, serrors.ErrTimeout, serrors.KindOf(fmt.Errorf("x: %w", classified{})))
}

func TestIsKind(t *testing.T) {
	require.True(t, serrors.IsKind(serrors.KindOnly(serrors.ErrInternal), serrors.ErrInternal))
	require.False(t, serrors.IsKind(serrors.KindOnly(serrors.ErrInternal), serrors.ErrTimeout))
	require.False(t, serrors.IsKind(nil, serrors.ErrInternal))
}
