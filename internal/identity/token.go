package identity

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sidereusnuntius/portal/internal/domain"
)

func (p *Provider) mint(id domain.Identity, now time.Time) (string, time.Time, error) {
	expires := now.Add(p.ttl)
	claims := jwt.MapClaims{
		"sub":   id.Subject,
		"email": id.Email,
		"name":  id.Name,
		"iat":   now.Unix(),
		"exp":   expires.Unix(),
		"jti":   uuid.New().String(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign ID token: %w", err)
	}
	return signed, expires, nil
}

// Verify checks the token's signature and expiry and returns the identity it was issued to.
func (p *Provider) Verify(token string) (domain.Identity, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return p.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(p.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Identity{}, ErrInvalidToken
	}
	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)
	if sub == "" || email == "" {
		return domain.Identity{}, fmt.Errorf("%w: missing subject or email", ErrInvalidToken)
	}
	return domain.Identity{Subject: sub, Email: email, Name: name}, nil
}
