package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/upb/campus-eats/services"
)

const tokenIssuer = "campus-eats"

// Codec signs session ids for the cookie and bearer channels so that forged
// values are rejected before any store lookup.
type Codec struct {
	secret []byte
}

// NewCodec creates a Codec keyed by secret
func NewCodec(secret []byte) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("session: signing secret is empty")
	}
	return &Codec{secret: secret}, nil
}

// Encode returns a signed token carrying the session id and expiry
func (c *Codec) Encode(s *Session) (string, error) {
	claims := jwt.RegisteredClaims{
		ID:        s.ID,
		Issuer:    tokenIssuer,
		IssuedAt:  jwt.NewNumericDate(s.CreatedAt),
		ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
}

// Decode verifies token and returns the session id it carries
func (c *Codec) Decode(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(5*time.Second),
	)
	if err != nil {
		return "", services.NewDomainError(services.ErrorTypeUnauthorized, "invalid session token", err)
	}
	if claims.ID == "" {
		return "", services.NewDomainError(services.ErrorTypeUnauthorized, "session token has no id", nil)
	}
	return claims.ID, nil
}
