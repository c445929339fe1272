package auth

import (
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrTokenInvalid     = errors.New("invalid or expired token")
	ErrInvalidSecretKey = errors.New("invalid secret key")
	ErrEmptySigningKey  = errors.New("jwt signing key cannot be empty")
)

// DefaultTokenDays is the lifetime of a generated token.
const DefaultTokenDays = 30

// Claims carried by issued tokens.
type Claims struct {
	Authenticated bool   `json:"authenticated"`
	Timestamp     int64  `json:"timestamp"`
	GeneratedBy   string `json:"generatedBy,omitempty"`
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 tokens with one shared signing key.
type Issuer struct {
	signingKey []byte
	secretKey  []byte
	now        func() time.Time
}

// NewIssuer returns an issuer. secretKey is the shared secret a caller has to
// present to obtain a token over the API.
func NewIssuer(signingKey, secretKey string) (*Issuer, error) {
	if signingKey == "" {
		return nil, ErrEmptySigningKey
	}
	return &Issuer{signingKey: []byte(signingKey), secretKey: []byte(secretKey), now: time.Now}, nil
}

// WithClock replaces the clock used for issuing and verifying.
func (i *Issuer) WithClock(now func() time.Time) *Issuer {
	i.now = now
	return i
}

// Generate signs a token valid for days days.
func (i *Issuer) Generate(days int, generatedBy string) (string, error) {
	if days < 1 {
		days = DefaultTokenDays
	}
	now := i.now()
	claims := &Claims{
		Authenticated: true,
		Timestamp:     now.UnixMilli(),
		GeneratedBy:   generatedBy,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(days) * 24 * time.Hour)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// GenerateWithSecret checks the presented secret before signing a token.
func (i *Issuer) GenerateWithSecret(secret string, days int) (string, error) {
	if len(i.secretKey) == 0 || subtle.ConstantTimeCompare([]byte(secret), i.secretKey) != 1 {
		return "", ErrInvalidSecretKey
	}
	return i.Generate(days, "")
}

// Verify parses token and returns its claims.
func (i *Issuer) Verify(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.signingKey, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}
