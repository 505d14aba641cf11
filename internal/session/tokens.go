package session

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "creditdash"

var ErrInvalidToken = errors.New("invalid session token")

type Claims struct {
	jwt.RegisteredClaims
}

// SessionID is carried in the subject claim.
func (c Claims) SessionID() string {
	return c.Subject
}

// Tokens signs and verifies HS256 session tokens.
type Tokens struct {
	Secret []byte
	TTL    time.Duration
	now    func() time.Time
}

func NewTokens(secret string, ttl time.Duration) (Tokens, error) {
	secret = strings.TrimSpace(secret)
	if len(secret) < 16 {
		return Tokens{}, errors.New("session secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return Tokens{Secret: []byte(secret), TTL: ttl}, nil
}

func (t Tokens) clock() time.Time {
	if t.now != nil {
		return t.now().UTC()
	}
	return time.Now().UTC()
}

func (t Tokens) Sign(sessionID string) (token string, expiresAt time.Time, err error) {
	now := t.clock()
	expiresAt = now.Add(t.TTL)
	claims := Claims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   sessionID,
		Issuer:    issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now.Add(-5 * time.Second)),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return s, expiresAt, nil
}

func (t Tokens) Verify(token string) (Claims, error) {
	opts := []jwt.ParserOption{jwt.WithIssuer(issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if t.now != nil {
		opts = append(opts, jwt.WithTimeFunc(t.clock))
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(*jwt.Token) (any, error) {
		return t.Secret, nil
	}, opts...)
	if err != nil {
		return Claims{}, errors.Join(ErrInvalidToken, err)
	}
	c, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || c.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return *c, nil
}
