// Package auth is the boundary to the external identity provider.
// Token issuance, OAuth and API key management live outside this service;
// the ledger only needs to resolve a request to a known user.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/nkurilenko/walletd/internal/models"
)

// UserIDHeader carries the authenticated caller's id, set by the upstream
// API gateway after it has verified the caller's credentials
const UserIDHeader = "X-User-Id"

var ErrUnauthenticated = errors.New("request is not authenticated")

// Authenticator resolves an incoming request to a user
type Authenticator interface {
	UserFromRequest(ctx context.Context, r *http.Request) (models.User, error)
}

type userGetter interface {
	GetUser(ctx context.Context, userID uuid.UUID) (models.User, error)
}

// HeaderAuthenticator trusts the identity header stamped by the gateway in
// front of this service. It only checks that the user actually exists.
type HeaderAuthenticator struct {
	users userGetter
}

func NewHeaderAuthenticator(users userGetter) *HeaderAuthenticator {
	return &HeaderAuthenticator{users: users}
}

func (a *HeaderAuthenticator) UserFromRequest(ctx context.Context, r *http.Request) (models.User, error) {
	header := r.Header.Get(UserIDHeader)
	if header == "" {
		return models.User{}, ErrUnauthenticated
	}

	userID, err := uuid.Parse(header)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: malformed user id", ErrUnauthenticated)
	}

	user, err := a.users.GetUser(ctx, userID)
	if err != nil {
		return models.User{}, fmt.Errorf("%w: unknown user", ErrUnauthenticated)
	}

	return user, nil
}
