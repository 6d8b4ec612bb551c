package domain_test

import (
	"testing"
	"time"

	"scanorch/pkg/domain"

	"github.com/stretchr/testify/require"
)

func TestScanConfigBuilder_BuildIsImmutable(t *testing.T) {
	b := domain.NewScanConfigBuilder().
		Depth(3).
		Credential(domain.JWTCredential{Token: "t"}).
		Label("team", "red")
	cfg := b.Build()

	// later builder calls do not leak into a built value
	b.Depth(7).Label("team", "blue")

	require.Equal(t, 3, cfg.Depth())
	v, ok := cfg.Label("team")
	require.True(t, ok)
	require.Equal(t, "red", v)

	labels := cfg.Labels()
	labels["team"] = "green"
	v, _ = cfg.Label("team")
	require.Equal(t, "red", v)
}

func TestScanConfigFor(t *testing.T) {
	task := &domain.ScanTask{
		ID:            "task-9",
		ScanningDepth: 4,
		Credential:    domain.BasicCredential{Username: "u", Password: "p"},
		Scheduling: &domain.SchedulingMetadata{
			StartTime: time.Now(),
			Labels:    map[string]string{"env": "staging"},
		},
	}

	cfg := domain.ScanConfigFor(task)
	require.Equal(t, domain.TaskID("task-9"), cfg.TaskID())
	require.Equal(t, 4, cfg.Depth())
	require.Equal(t, domain.CredentialKindBasic, cfg.Credential().Kind())
	env, ok := cfg.Label("env")
	require.True(t, ok)
	require.Equal(t, "staging", env)
}

func TestCredentialEnvelope_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		cred domain.Credential
	}{
		{"jwt", domain.JWTCredential{Token: "abc"}},
		{"basic", domain.BasicCredential{Username: "alice", Password: "secret"}},
		{"none", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := domain.EnvelopeOf(tt.cred).ToCredential()
			require.NoError(t, err)
			require.Equal(t, tt.cred, got)
		})
	}
}

func TestCredentialEnvelope_Invalid(t *testing.T) {
	_, err := domain.CredentialEnvelope{Type: "jwt"}.ToCredential()
	require.Error(t, err)

	_, err = domain.CredentialEnvelope{Type: "basic", Password: "p"}.ToCredential()
	require.Error(t, err)

	_, err = domain.CredentialEnvelope{Type: "kerberos"}.ToCredential()
	require.Error(t, err)
}

func TestCredential_StringRedacts(t *testing.T) {
	require.NotContains(t, domain.JWTCredential{Token: "abc.def"}.String(), "abc")
	require.NotContains(t, domain.BasicCredential{Username: "u", Password: "hunter2"}.String(), "hunter2")
}
