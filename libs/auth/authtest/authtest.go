// Package authtest mints tokens that libs/auth accepts, for tests of services that sit behind it.
// Production tokens are issued upstream of this module.
package authtest

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"

	"github.com/md-rashed-zaman/agenda/libs/auth"
)

// SignHS256 returns a compact HS256 JWT carrying claims.
func SignHS256(claims auth.Claims, secret string) (string, error) {
	header, err := json.Marshal(auth.Header{Alg: "HS256", Typ: "JWT"})
	if err != nil {
		return "", err
	}
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	unsigned := base64.RawURLEncoding.EncodeToString(header) + "." + base64.RawURLEncoding.EncodeToString(payload)
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(unsigned))
	return unsigned + "." + base64.RawURLEncoding.EncodeToString(mac.Sum(nil)), nil
}
