package local

import (
	"crypto/rsa"
	"fmt"

	"scanorch/pkg/serrors"

	"github.com/golang-jwt/jwt/v5"
)

// JWTVerifier validates RS256 tokens against a single public key.
type JWTVerifier struct {
	publicKey *rsa.PublicKey
	parser    *jwt.Parser
}

// NewJWTVerifier parses publicKeyPEM. When issuer is not empty tokens must
// carry it in the iss claim.
func NewJWTVerifier(publicKeyPEM, issuer string) (*JWTVerifier, error) {
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(publicKeyPEM))
	if err != nil {
		return nil, fmt.Errorf("could not parse RSA public key: %w", err)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if issuer != "" {
		opts = append(opts, jwt.WithIssuer(issuer))
	}

	return &JWTVerifier{publicKey: key, parser: jwt.NewParser(opts...)}, nil
}

// Verify returns the registered claims of a valid token. Every failure is
// reported as serrors.ErrUnauthorized.
func (v *JWTVerifier) Verify(token string) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.publicKey, nil
	})
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrUnauthorized, err, "invalid token")
	}
	if claims.Subject == "" {
		return nil, serrors.With(serrors.ErrUnauthorized, "token has no subject")
	}

	return claims, nil
}
