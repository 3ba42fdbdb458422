package auth

import (
	"errors"

	"github.com/SLDem/BlogApp/internal/models"
)

var ErrUnauthorized = errors.New("unauthorized")

// UserLookup resolves a token subject to a user record.
type UserLookup interface {
	UserByEmail(email string) (*models.User, error)
}

// Gate resolves a bearer token to an authenticated user. Every post
// operation goes through it.
type Gate struct {
	tokens *TokenService
	users  UserLookup
}

func NewGate(tokens *TokenService, users UserLookup) *Gate {
	return &Gate{tokens: tokens, users: users}
}

// Authenticate verifies the token and looks up the embedded subject. A bad
// token and an unknown subject both come back as ErrUnauthorized so the
// caller cannot tell which check failed.
func (g *Gate) Authenticate(token string) (*models.User, error) {
	subject, err := g.tokens.Verify(token)
	if err != nil {
		return nil, ErrUnauthorized
	}
	user, err := g.users.UserByEmail(subject)
	if err != nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}
