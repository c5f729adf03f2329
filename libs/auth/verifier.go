package auth

import (
	"errors"
	"strings"
)

// Verifier checks bearer tokens. RS256 tokens with a kid are checked against JWKS when a client
// is configured; everything else falls back to the shared HS256 secret.
type Verifier struct {
	secret string
	jwks   *JWKSClient
}

func NewVerifier(secret string, jwks *JWKSClient) *Verifier {
	return &Verifier{secret: secret, jwks: jwks}
}

// Enabled reports whether any key material is configured.
func (v *Verifier) Enabled() bool {
	return v != nil && (v.secret != "" || v.jwks != nil)
}

func (v *Verifier) Verify(token string) (*Claims, error) {
	if !v.Enabled() {
		return nil, errors.New("token verification not configured")
	}
	if v.jwks != nil {
		header, err := ParseHeader(token)
		if err != nil {
			return nil, err
		}
		if header.Alg == "RS256" && header.Kid != "" {
			pub, err := v.jwks.Get(header.Kid)
			if err != nil {
				return nil, ErrInvalidToken
			}
			return VerifyRS256(token, pub)
		}
	}
	if v.secret == "" {
		return nil, ErrInvalidToken
	}
	return ParseAndVerifyHS256(token, v.secret)
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, bool) {
	if !strings.HasPrefix(header, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	return token, token != ""
}
