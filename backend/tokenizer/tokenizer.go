// Package tokenizer issues and parses the opaque bearer tokens the backend
// hands out after a verified sign-in. From the client's point of view the
// token is opaque; here it is an ES256 JWT.
package tokenizer

import (
	"crypto/ecdsa"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AudienceSession marks tokens issued for desk sessions.
const AudienceSession = "desk:session"

// DefaultSessionTTL is how long a session token stays valid.
const DefaultSessionTTL = 24 * time.Hour

// Session is the parsed view of a valid token.
type Session struct {
	Address   string
	Role      string
	TokenID   string
	ExpiresAt time.Time
}

// Tokenizer signs and verifies session tokens with a single ECDSA key.
type Tokenizer struct {
	signKey *ecdsa.PrivateKey
	ttl     time.Duration
}

// New creates a tokenizer. ttl <= 0 takes DefaultSessionTTL.
func New(signKey *ecdsa.PrivateKey, ttl time.Duration) *Tokenizer {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Tokenizer{signKey: signKey, ttl: ttl}
}

// Issue creates a signed session token for address with the given role.
func (t *Tokenizer) Issue(address, role string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   address,
			ID:        uuid.New().String(),
			Audience:  jwt.ClaimStrings{AudienceSession},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	signed, err := token.SignedString(t.signKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a token string and returns the session it encodes.
func (t *Tokenizer) Parse(tokenStr string) (*Session, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodECDSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return &t.signKey.PublicKey, nil
	}, jwt.WithAudience(AudienceSession), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims type")
	}

	return &Session{
		Address:   claims.Subject,
		Role:      claims.Role,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
