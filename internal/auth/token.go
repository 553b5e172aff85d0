package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	jwt "github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/user-service/internal/config"
)

// RealmAccess is the realm role block of a provider token.
type RealmAccess struct {
	Roles []string `json:"roles"`
}

// Claims describes the provider-issued access token.
type Claims struct {
	Email             string      `json:"email"`
	PreferredUsername string      `json:"preferred_username"`
	RealmAccess       RealmAccess `json:"realm_access"`
	jwt.RegisteredClaims
}

// HasRole reports whether the token carries the realm role. Composite roles
// are already expanded by the provider, so permissions show up here too.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.RealmAccess.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Verifier validates bearer tokens against the provider's keys.
type Verifier struct {
	keyfunc  jwt.Keyfunc
	audience string
	closer   func()
}

// NewVerifier wraps an existing key function.
func NewVerifier(kf jwt.Keyfunc, audience string) *Verifier {
	return &Verifier{keyfunc: kf, audience: audience}
}

// NewJWKSVerifier fetches the realm's JWK set and keeps it refreshed.
func NewJWKSVerifier(cfg config.AuthConfig, logger *zap.Logger) (*Verifier, error) {
	jwks, err := keyfunc.Get(cfg.JWKSURL, keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			logger.Warn("jwks refresh failed", zap.String("url", cfg.JWKSURL), zap.Error(err))
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("load jwks from %s: %w", cfg.JWKSURL, err)
	}
	v := NewVerifier(jwks.Keyfunc, cfg.Audience)
	v.closer = jwks.EndBackground
	return v, nil
}

// ParseToken validates and returns claims.
func (v *Verifier) ParseToken(tokenStr string) (*Claims, error) {
	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if v.audience != "" {
		opts = append(opts, jwt.WithAudience(v.audience))
	}
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, v.keyfunc, opts...)
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// Close stops the background key refresh.
func (v *Verifier) Close() {
	if v.closer != nil {
		v.closer()
	}
}
