// Package plugins holds the authentication and authorization hooks the BREAD
// handler consults. Without registered plugins everything is allowed.
package plugins

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
)

// Plugin types
const (
	TypeAuthentication = "authentication"
	TypeAuthorization  = "authorization"
)

var (
	// ErrUnauthenticated is returned when a request carries no valid user
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden is returned when the user may not perform an ability
	ErrForbidden = errors.New("forbidden")
)

// User is the authenticated user as seen by authorization plugins
type User struct {
	ID    string
	Name  string
	Email string
	Roles []string
}

// HasRole reports whether the user carries role
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type Plugin interface {
	Name() string
	Type() string
}

// AuthenticationPlugin resolves the user of a request
type AuthenticationPlugin interface {
	Plugin
	Authenticate(r *http.Request) (*User, error)
}

// AuthorizationPlugin decides whether the user in ctx may perform ability.
// args usually hold the bread and, for single rows, the record.
type AuthorizationPlugin interface {
	Plugin
	Authorize(ctx context.Context, ability string, args ...interface{}) error
}

type contextKey string

const userKey contextKey = "breadspec.user"

// WithUser stores the authenticated user in ctx
func WithUser(ctx context.Context, user *User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// UserFromContext returns the user stored by WithUser, or nil
func UserFromContext(ctx context.Context) *User {
	user, _ := ctx.Value(userKey).(*User)
	return user
}

// Registry keeps plugins by type, in registration order
type Registry struct {
	plugins map[string][]Plugin
	mu      sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string][]Plugin)}
}

func (r *Registry) AddPlugin(p Plugin) error {
	switch p.Type() {
	case TypeAuthentication:
		if _, ok := p.(AuthenticationPlugin); !ok {
			return fmt.Errorf("plugin %s does not implement authentication", p.Name())
		}
	case TypeAuthorization:
		if _, ok := p.(AuthorizationPlugin); !ok {
			return fmt.Errorf("plugin %s does not implement authorization", p.Name())
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plugins[p.Type()] = append(r.plugins[p.Type()], p)
	return nil
}

// GetPluginByType returns the first plugin registered for typ, or nil
func (r *Registry) GetPluginByType(typ string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if list := r.plugins[typ]; len(list) > 0 {
		return list[0]
	}
	return nil
}

// GetPluginsByType returns every plugin registered for typ
func (r *Registry) GetPluginsByType(typ string) []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]Plugin(nil), r.plugins[typ]...)
}

// Authentication returns the authentication plugin, or the anonymous default
func (r *Registry) Authentication() AuthenticationPlugin {
	if p, ok := r.GetPluginByType(TypeAuthentication).(AuthenticationPlugin); ok {
		return p
	}
	return AnonymousAuthentication{}
}

// Authorization returns the authorization plugin, or the allow-all default
func (r *Registry) Authorization() AuthorizationPlugin {
	if p, ok := r.GetPluginByType(TypeAuthorization).(AuthorizationPlugin); ok {
		return p
	}
	return AllowAll{}
}

// AnonymousAuthentication accepts every request without a user
type AnonymousAuthentication struct{}

func (AnonymousAuthentication) Name() string { return "anonymous" }
func (AnonymousAuthentication) Type() string { return TypeAuthentication }
func (AnonymousAuthentication) Authenticate(r *http.Request) (*User, error) {
	return nil, nil
}

// AllowAll grants every ability
type AllowAll struct{}

func (AllowAll) Name() string { return "allow-all" }
func (AllowAll) Type() string { return TypeAuthorization }
func (AllowAll) Authorize(ctx context.Context, ability string, args ...interface{}) error {
	return nil
}
