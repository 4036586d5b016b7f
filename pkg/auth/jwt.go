package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrMissingToken = errors.New("missing auth token")
	ErrExpiredToken = errors.New("token has expired")
	ErrInvalidToken = errors.New("invalid token")
)

type Config struct {
	Secret    string `envconfig:"SECRET" split_words:"true"`
	PublicKey string `envconfig:"PUBLIC_KEY" split_words:"true"`
	Issuer    string `envconfig:"ISSUER" split_words:"true"`
	Audience  string `envconfig:"AUDIENCE" split_words:"true"`
}

// Claims carries the verified identity of a caller. The subject is the
// assistant user id.
type Claims struct {
	jwt.RegisteredClaims
}

// Verifier validates ID tokens against a single pinned signing method:
// RS256 when a public key is configured, otherwise HS256 with the shared
// secret. Tokens signed any other way are rejected outright.
type Verifier struct {
	method    jwt.SigningMethod
	secret    []byte
	publicKey *rsa.PublicKey
	issuer    string
	audience  string
}

func NewVerifier(cfg Config) (*Verifier, error) {
	secret := strings.TrimSpace(cfg.Secret)
	pemKey := strings.TrimSpace(cfg.PublicKey)

	v := &Verifier{
		issuer:   strings.TrimSpace(cfg.Issuer),
		audience: strings.TrimSpace(cfg.Audience),
	}

	// The public key wins when both are set; hosted identity providers
	// sign RS256.
	switch {
	case pemKey != "":
		key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(pemKey))
		if err != nil {
			return nil, fmt.Errorf("parse auth public key: %w", err)
		}
		v.publicKey = key
		v.method = jwt.SigningMethodRS256
	case secret != "":
		v.secret = []byte(secret)
		v.method = jwt.SigningMethodHS256
	default:
		return nil, errors.New("auth secret or public key is required")
	}

	return v, nil
}

// Verify parses and validates an ID token, returning the subject user id.
// A "Bearer " prefix is tolerated so callers can pass header values as-is.
func (v *Verifier) Verify(raw string) (string, error) {
	raw = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(raw), "Bearer "))
	if raw == "" {
		return "", ErrMissingToken
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if token.Method != v.method {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		if v.publicKey != nil {
			return v.publicKey, nil
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	if v.issuer != "" && claims.Issuer != v.issuer {
		return "", fmt.Errorf("%w: issuer mismatch", ErrInvalidToken)
	}
	if v.audience != "" && !hasAudience(claims.Audience, v.audience) {
		return "", fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}

	userID := strings.TrimSpace(claims.Subject)
	if userID == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return userID, nil
}

func hasAudience(aud jwt.ClaimStrings, want string) bool {
	for _, a := range aud {
		if a == want {
			return true
		}
	}
	return false
}
