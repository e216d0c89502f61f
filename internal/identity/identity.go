package identity

import (
	"context"
	"errors"
	"strings"
)

var ErrUnauthenticated = errors.New("unauthenticated")

// User is the authenticated caller. Username is the stable key used by staff
// settings, time tracking and scan history.
type User struct {
	Username string
	FullName string
}

// DisplayName is the denormalized operator name written into audit rows.
func (u User) DisplayName() string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}

	return u.Username
}

type contextKey struct{}

func NewContext(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, contextKey{}, u)
}

func FromContext(ctx context.Context) (User, error) {
	u, ok := ctx.Value(contextKey{}).(User)
	if !ok || u.Username == "" {
		return User{}, ErrUnauthenticated
	}

	return u, nil
}
