package domain

import (
	"fmt"
	"strings"
)

// CredentialKind tags the variant of a Credential.
type CredentialKind string

const (
	// CredentialKindJWT identifies a bearer JWT credential.
	CredentialKindJWT CredentialKind = "JWT"
	// CredentialKindBasic identifies a username/password credential.
	CredentialKindBasic CredentialKind = "BASIC"
)

// Credential is the typed credential attached to a scan task. A nil
// Credential means the task carries no credentials at all.
//
// Implementations are JWTCredential and BasicCredential.
type Credential interface {
	Kind() CredentialKind
	isCredential()
}

// JWTCredential carries a signed bearer token.
type JWTCredential struct {
	Token string
}

func (JWTCredential) Kind() CredentialKind { return CredentialKindJWT }
func (JWTCredential) isCredential()        {}

// String redacts the token.
func (c JWTCredential) String() string { return "JWT(***)" }

// BasicCredential carries a username and password.
type BasicCredential struct {
	Username string
	Password string
}

func (BasicCredential) Kind() CredentialKind { return CredentialKindBasic }
func (BasicCredential) isCredential()        {}

// String redacts the password.
func (c BasicCredential) String() string { return "Basic(" + c.Username + ":***)" }

// CredentialEnvelope is the flat, serializable form of a Credential. It is
// what crosses system boundaries (HTTP payloads, task files, storage) and is
// converted into a typed Credential exactly once via ToCredential.
type CredentialEnvelope struct {
	Type     string `json:"type"`
	Token    string `json:"token,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
}

// ToCredential converts the envelope into its typed variant. An envelope with
// an empty type yields a nil Credential.
func (e CredentialEnvelope) ToCredential() (Credential, error) {
	switch CredentialKind(strings.ToUpper(strings.TrimSpace(e.Type))) {
	case "":
		return nil, nil //nolint: nilnil
	case CredentialKindJWT:
		if e.Token == "" {
			return nil, fmt.Errorf("jwt credential requires a token")
		}

		return JWTCredential{Token: e.Token}, nil
	case CredentialKindBasic:
		if e.Username == "" {
			return nil, fmt.Errorf("basic credential requires a username")
		}

		return BasicCredential{Username: e.Username, Password: e.Password}, nil
	default:
		return nil, fmt.Errorf("unknown credential type %q", e.Type)
	}
}

// EnvelopeOf returns the serializable form of c. A nil credential yields a
// zero envelope.
func EnvelopeOf(c Credential) CredentialEnvelope {
	switch v := c.(type) {
	case JWTCredential:
		return CredentialEnvelope{Type: string(CredentialKindJWT), Token: v.Token}
	case BasicCredential:
		return CredentialEnvelope{Type: string(CredentialKindBasic), Username: v.Username, Password: v.Password}
	default:
		return CredentialEnvelope{}
	}
}
