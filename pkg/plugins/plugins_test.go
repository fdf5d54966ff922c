package plugins

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type headerAuth struct{}

func (headerAuth) Name() string { return "header" }
func (headerAuth) Type() string { return TypeAuthentication }
func (headerAuth) Authenticate(r *http.Request) (*User, error) {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return &User{ID: id, Roles: []string{"admin"}}, nil
	}
	return nil, ErrUnauthenticated
}

type adminOnly struct{}

func (adminOnly) Name() string { return "admin-only" }
func (adminOnly) Type() string { return TypeAuthorization }
func (adminOnly) Authorize(ctx context.Context, ability string, args ...interface{}) error {
	if UserFromContext(ctx).HasRole("admin") {
		return nil
	}
	return ErrForbidden
}

type wrongType struct{}

func (wrongType) Name() string { return "wrong" }
func (wrongType) Type() string { return TypeAuthorization }

func TestDefaults(t *testing.T) {
	r := NewRegistry()
	assert.Nil(t, r.GetPluginByType(TypeAuthorization))

	user, err := r.Authentication().Authenticate(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, r.Authorization().Authorize(context.Background(), "browse"))
}

func TestRegisteredPlugins(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.AddPlugin(headerAuth{}))
	require.NoError(t, r.AddPlugin(adminOnly{}))
	assert.Error(t, r.AddPlugin(wrongType{}))

	assert.Equal(t, "header", r.GetPluginByType(TypeAuthentication).Name())
	assert.Len(t, r.GetPluginsByType(TypeAuthorization), 1)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := r.Authentication().Authenticate(req)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	req.Header.Set("X-User-ID", "7")
	user, err := r.Authentication().Authenticate(req)
	require.NoError(t, err)

	ctx := WithUser(context.Background(), user)
	assert.Equal(t, "7", UserFromContext(ctx).ID)
	assert.NoError(t, r.Authorization().Authorize(ctx, "edit"))
	assert.ErrorIs(t, r.Authorization().Authorize(context.Background(), "edit"), ErrForbidden)
}
