package upstream

import (
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenTTL is the lifetime of a signed service token.
const DefaultTokenTTL = 5 * time.Minute

// TokenConfig configures the service token sent to the backend.
type TokenConfig struct {
	// SigningKey is the HS256 secret. Empty disables the token.
	SigningKey string `yaml:"signing_key"`

	Issuer   string `yaml:"issuer"`
	Audience string `yaml:"audience"`
	Subject  string `yaml:"subject"`

	// TTL is the token lifetime. Default: 5m.
	TTL time.Duration `yaml:"ttl"`
}

// TokenSigner mints short-lived HS256 service tokens and reuses each one
// until most of its lifetime has passed.
type TokenSigner struct {
	cfg TokenConfig
	key []byte
	now func() time.Time

	mu      sync.Mutex
	token   string
	renewAt time.Time
}

// NewTokenSigner creates a TokenSigner.
func NewTokenSigner(cfg TokenConfig) (*TokenSigner, error) {
	if cfg.SigningKey == "" {
		return nil, ErrMissingSigningKey
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTokenTTL
	}
	return &TokenSigner{cfg: cfg, key: []byte(cfg.SigningKey), now: time.Now}, nil
}

// Token returns a valid token, signing a new one when needed.
func (s *TokenSigner) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.token != "" && now.Before(s.renewAt) {
		return s.token, nil
	}

	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   s.cfg.Subject,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.TTL)),
		ID:        uuid.NewString(),
	}
	if s.cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{s.cfg.Audience}
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return "", err
	}
	s.token = signed
	s.renewAt = now.Add(s.cfg.TTL * 4 / 5)
	return signed, nil
}
