package domain

import (
	"fmt"
	"strings"
)

// Protocol is a protocol family a scan task can target.
type Protocol string

const (
	// ProtocolHTTP targets plain http:// URLs.
	ProtocolHTTP Protocol = "HTTP"
	// ProtocolHTTPS targets https:// URLs.
	ProtocolHTTPS Protocol = "HTTPS"
	// ProtocolFTP targets ftp:// URLs.
	ProtocolFTP Protocol = "FTP"
)

// Protocols lists every supported protocol in declaration order.
var Protocols = []Protocol{ProtocolHTTP, ProtocolHTTPS, ProtocolFTP} //nolint: gochecknoglobals

// ParseProtocol parses a protocol tag case-insensitively.
func ParseProtocol(s string) (Protocol, error) {
	p := Protocol(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("unknown protocol %q", s)
	}

	return p, nil
}

// Valid reports whether p is one of the supported protocols.
func (p Protocol) Valid() bool {
	switch p {
	case ProtocolHTTP, ProtocolHTTPS, ProtocolFTP:
		return true
	default:
		return false
	}
}

// Scheme returns the URL scheme of the protocol, e.g. "https".
func (p Protocol) Scheme() string {
	return strings.ToLower(string(p))
}

// Matches reports whether rawURL starts with "<scheme>://" for this protocol.
// The scheme comparison is case-insensitive.
func (p Protocol) Matches(rawURL string) bool {
	prefix := p.Scheme() + "://"
	if len(rawURL) < len(prefix) {
		return false
	}

	return strings.EqualFold(rawURL[:len(prefix)], prefix)
}

// MatchesAny reports whether rawURL matches at least one of the given protocols.
func MatchesAny(rawURL string, protocols []Protocol) bool {
	for _, p := range protocols {
		if p.Matches(rawURL) {
			return true
		}
	}

	return false
}
