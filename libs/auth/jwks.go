package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"sync"
	"time"
)

var ErrKeyNotFound = errors.New("jwks key not found")

// minRefreshInterval caps how often an unknown kid can force a refetch.
const minRefreshInterval = 10 * time.Second

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// JWKSClient caches the identity provider's RSA signing keys by kid.
type JWKSClient struct {
	url    string
	http   *http.Client
	ttl    time.Duration
	logger *slog.Logger

	mu          sync.Mutex
	expires     time.Time
	lastAttempt time.Time
	keys        map[string]*rsa.PublicKey
}

type JWKSOption func(*JWKSClient)

// WithJWKSLogger reports refresh failures and stale-key fallbacks.
func WithJWKSLogger(logger *slog.Logger) JWKSOption {
	return func(c *JWKSClient) { c.logger = logger }
}

func WithJWKSHTTPClient(client *http.Client) JWKSOption {
	return func(c *JWKSClient) { c.http = client }
}

func NewJWKSClient(url string, ttl time.Duration, opts ...JWKSOption) *JWKSClient {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	c := &JWKSClient{
		url:    url,
		http:   &http.Client{Timeout: 5 * time.Second},
		ttl:    ttl,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		keys:   map[string]*rsa.PublicKey{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the key for keyID. A failed refresh falls back to the last
// key set so an identity provider outage does not lock out valid tokens.
func (c *JWKSClient) Get(keyID string) (*rsa.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	key, cached := c.keys[keyID]
	if cached && now.Before(c.expires) {
		return key, nil
	}
	if !cached && now.Before(c.expires) && now.Sub(c.lastAttempt) < minRefreshInterval {
		return nil, ErrKeyNotFound
	}

	c.lastAttempt = now
	if err := c.refresh(context.Background()); err != nil {
		if cached {
			c.logger.Warn("jwks refresh failed, serving cached key", "kid", keyID, "err", err)
			return key, nil
		}
		c.logger.Error("jwks refresh failed", "kid", keyID, "url", c.url, "err", err)
		return nil, err
	}

	if key, ok := c.keys[keyID]; ok {
		return key, nil
	}
	c.logger.Warn("jwks has no key for kid", "kid", keyID, "keys", len(c.keys))
	return nil, ErrKeyNotFound
}

func (c *JWKSClient) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("fetch jwks: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fetch jwks: status %d", resp.StatusCode)
	}

	var data jwks
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return fmt.Errorf("decode jwks: %w", err)
	}

	keys := map[string]*rsa.PublicKey{}
	for _, k := range data.Keys {
		if k.Kty != "RSA" || k.N == "" || k.E == "" || k.Kid == "" {
			continue
		}
		if k.Use != "" && k.Use != "sig" {
			continue
		}
		pub, err := jwkToPublicKey(k)
		if err != nil {
			c.logger.Warn("skipping malformed jwk", "kid", k.Kid, "err", err)
			continue
		}
		keys[k.Kid] = pub
	}

	c.keys = keys
	c.expires = time.Now().Add(c.ttl)
	c.logger.Debug("jwks refreshed", "keys", len(keys))
	return nil
}

func jwkToPublicKey(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}

	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() > int64(^uint(0)>>1) || e.Int64() < 3 {
		return nil, errors.New("invalid jwk exponent")
	}

	return &rsa.PublicKey{
		N: n,
		E: int(e.Int64()),
	}, nil
}
