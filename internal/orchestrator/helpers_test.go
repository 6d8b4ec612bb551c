package orchestrator_test

import (
	"context"
	"testing"
	"time"

	"scanorch/internal/orchestrator"
	"scanorch/pkg/authz"
	"scanorch/pkg/domain"
	"scanorch/pkg/scantool"

	"github.com/stretchr/testify/require"
)

var created = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC) //nolint: gochecknoglobals

func validTask() *domain.ScanTask {
	return &domain.ScanTask{
		ID:            "task-1",
		TargetURLs:    []string{"https://a.test"},
		Credential:    domain.JWTCredential{Token: "tok"},
		ScanningDepth: 3,
		Protocols:     []domain.Protocol{domain.ProtocolHTTPS},
		Scheduling:    &domain.SchedulingMetadata{StartTime: created.Add(time.Minute)},
		CreatedAt:     created,
	}
}

// fakeAdapter runs fn for every scan.
type fakeAdapter struct {
	name string
	fn   func(ctx context.Context, target string) (scantool.Output, error)
}

func (f fakeAdapter) Name() string { return f.name }

func (f fakeAdapter) Scan(ctx context.Context, target string, _ domain.ScanConfig) (scantool.Output, error) {
	return f.fn(ctx, target)
}

func echoAdapter(name string) fakeAdapter {
	return fakeAdapter{name: name, fn: func(_ context.Context, target string) (scantool.Output, error) {
		return scantool.Output{
			Logs:            []string{name + " scanned " + target},
			Vulnerabilities: []domain.Vulnerability{{Type: name + "-finding", Severity: domain.SeverityLow, Location: target}},
		}, nil
	}}
}

var allowAll = authz.AuthorizerFunc(func(context.Context, *domain.ScanTask) (bool, error) { //nolint: gochecknoglobals
	return true, nil
})

func newDispatcher(
	t *testing.T,
	authorizer authz.Authorizer,
	registry *scantool.Registry,
	opts orchestrator.Options,
) *orchestrator.Dispatcher {
	t.Helper()

	if opts.Deadline == 0 {
		opts.Deadline = 5 * time.Second
	}
	d, err := orchestrator.NewDispatcher(
		opts,
		orchestrator.NewValidator(),
		orchestrator.NewGate(authorizer),
		registry,
		orchestrator.NewAggregator(),
	)
	require.NoError(t, err)

	return d
}
