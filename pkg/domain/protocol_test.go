package domain_test

import (
	"testing"

	"scanorch/pkg/domain"

	"github.com/stretchr/testify/require"
)

func TestProtocol_Matches(t *testing.T) {
	tests := []struct {
		name     string
		protocol domain.Protocol
		url      string
		want     bool
	}{
		{"https exact", domain.ProtocolHTTPS, "https://a.test", true},
		{"https upper-case scheme", domain.ProtocolHTTPS, "HTTPS://a.test/path", true},
		{"http does not match https", domain.ProtocolHTTP, "https://a.test", false},
		{"https does not match http", domain.ProtocolHTTPS, "http://a.test", false},
		{"ftp", domain.ProtocolFTP, "ftp://files.test", true},
		{"missing slashes", domain.ProtocolFTP, "ftp:files.test", false},
		{"too short", domain.ProtocolHTTPS, "https:/", false},
		{"empty", domain.ProtocolHTTP, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.protocol.Matches(tt.url))
		})
	}
}

func TestParseProtocol(t *testing.T) {
	p, err := domain.ParseProtocol(" https ")
	require.NoError(t, err)
	require.Equal(t, domain.ProtocolHTTPS, p)

	_, err = domain.ParseProtocol("gopher")
	require.Error(t, err)
}

func TestMatchesAny(t *testing.T) {
	protocols := []domain.Protocol{domain.ProtocolHTTP, domain.ProtocolFTP}
	require.True(t, domain.MatchesAny("ftp://a.test", protocols))
	require.False(t, domain.MatchesAny("https://a.test", protocols))
	require.False(t, domain.MatchesAny("https://a.test", nil))
}
