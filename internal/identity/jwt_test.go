package identity_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NanayasWorkshop/MakerManager/internal/identity"
)

func TestAuthenticator_IssueAndParse(t *testing.T) {
	auth := identity.NewAuthenticator("secret", "makermanager")

	token, err := auth.Issue(identity.User{Username: "alice", FullName: "Alice Smith"}, time.Hour)
	require.NoError(t, err)

	u, err := auth.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "Alice Smith", u.DisplayName())
}

func TestAuthenticator_Parse_Rejects(t *testing.T) {
	issuer := identity.NewAuthenticator("secret", "makermanager")

	expired, err := issuer.Issue(identity.User{Username: "alice"}, -time.Minute)
	require.NoError(t, err)

	otherKey, err := identity.NewAuthenticator("other", "makermanager").Issue(identity.User{Username: "alice"}, time.Hour)
	require.NoError(t, err)

	otherIssuer, err := identity.NewAuthenticator("secret", "someone-else").Issue(identity.User{Username: "alice"}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "Expired", token: expired},
		{name: "WrongKey", token: otherKey},
		{name: "WrongIssuer", token: otherIssuer},
		{name: "Garbage", token: "not-a-token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Parse(tt.token)
			assert.ErrorIs(t, err, identity.ErrUnauthenticated)
		})
	}
}

func TestAuthenticator_Middleware(t *testing.T) {
	auth := identity.NewAuthenticator("secret", "")

	token, err := auth.Issue(identity.User{Username: "bob"}, time.Hour)
	require.NoError(t, err)

	var seen identity.User

	h := auth.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, err = identity.FromContext(r.Context())
		require.NoError(t, err)
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "Valid", header: "Bearer " + token, want: http.StatusNoContent},
		{name: "Missing", header: "", want: http.StatusUnauthorized},
		{name: "WrongScheme", header: "Basic " + token, want: http.StatusUnauthorized},
		{name: "BadToken", header: "Bearer abc", want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	assert.Equal(t, "bob", seen.Username)
	assert.Equal(t, "bob", seen.DisplayName())
}

func TestFromContext_Missing(t *testing.T) {
	_, err := identity.FromContext(context.Background())
	assert.ErrorIs(t, err, identity.ErrUnauthenticated)
}
