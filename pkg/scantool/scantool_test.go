package scantool_test

import (
	"context"
	"errors"
	"testing"

	"scanorch/pkg/domain"
	"scanorch/pkg/scantool"
	mockscantool "scanorch/pkg/scantool/mock"
	"scanorch/pkg/serrors"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestExecutionError(t *testing.T) {
	cause := errors.New("connection refused")
	err := scantool.Fail("zap", scantool.PhaseConnect, cause)

	require.Equal(t, "zap failed during connect: connection refused", err.Error())
	require.ErrorIs(t, err, cause)
	require.ErrorIs(t, err, serrors.ErrUnavailable)
	require.Equal(t, serrors.ErrUnavailable, serrors.KindOf(err))
	require.Equal(t, "burp failed during lookup", scantool.Fail("burp", scantool.PhaseLookup, nil).Error())
}

func TestRegistry(t *testing.T) {
	ctrl := gomock.NewController(t)
	ftp := mockscantool.NewMockAdapter(ctrl)
	web := mockscantool.NewMockAdapter(ctrl)

	r := scantool.NewRegistry()
	r.Register(domain.ProtocolFTP, ftp)
	r.Register(domain.ProtocolHTTP, web)

	a, ok := r.Lookup(domain.ProtocolFTP)
	require.True(t, ok)
	require.Same(t, ftp, a)

	_, ok = r.Lookup(domain.ProtocolHTTPS)
	require.False(t, ok)

	require.Equal(t, []domain.Protocol{domain.ProtocolHTTP, domain.ProtocolFTP}, r.Protocols())
}

func TestChain_Scan(t *testing.T) {
	ctx := context.Background()
	cfg := domain.NewScanConfigBuilder().Depth(1).Build()

	t.Run("merges in order", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		first := mockscantool.NewMockAdapter(ctrl)
		second := mockscantool.NewMockAdapter(ctrl)
		first.EXPECT().Name().Return("zap").AnyTimes()
		second.EXPECT().Name().Return("burp").AnyTimes()

		gomock.InOrder(
			first.EXPECT().Scan(ctx, "https://a.test", cfg).Return(scantool.Output{
				Logs:            []string{"zap done"},
				Vulnerabilities: []domain.Vulnerability{{Type: "XSS", Severity: domain.SeverityHigh}},
			}, nil),
			second.EXPECT().Scan(ctx, "https://a.test", cfg).Return(scantool.Output{
				Logs:            []string{"burp done"},
				Vulnerabilities: []domain.Vulnerability{{Type: "SQLi", Severity: domain.SeverityCritical}},
			}, nil),
		)

		c := scantool.NewChain(first, nil, second)
		require.Equal(t, 2, c.Len())
		require.Equal(t, "zap+burp", c.Name())

		out, err := c.Scan(ctx, "https://a.test", cfg)
		require.NoError(t, err)
		require.Equal(t, []string{"zap done", "burp done"}, out.Logs)
		require.Equal(t, "XSS", out.Vulnerabilities[0].Type)
		require.Equal(t, "SQLi", out.Vulnerabilities[1].Type)
	})

	t.Run("stops at first failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		first := mockscantool.NewMockAdapter(ctrl)
		second := mockscantool.NewMockAdapter(ctrl)

		failure := scantool.Fail("zap", scantool.PhasePoll, errors.New("boom"))
		first.EXPECT().Scan(ctx, "https://a.test", cfg).Return(scantool.Output{Logs: []string{"zap started"}}, failure)

		out, err := scantool.NewChain(first, second).Scan(ctx, "https://a.test", cfg)
		require.ErrorIs(t, err, failure)
		require.Equal(t, []string{"zap started"}, out.Logs)
	})
}
