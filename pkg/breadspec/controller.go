// Package breadspec is the shared controller logic behind the BREAD routes:
// turning browse requests into queries, shaping records for display, and
// turning submitted form data back into column values.
package breadspec

import (
	"context"
	"fmt"
	"strings"

	"github.com/bitechdev/BreadSpec/pkg/bread"
	"github.com/bitechdev/BreadSpec/pkg/common"
	"github.com/bitechdev/BreadSpec/pkg/formfield"
	"github.com/bitechdev/BreadSpec/pkg/locale"
	"github.com/bitechdev/BreadSpec/pkg/logger"
	"github.com/bitechdev/BreadSpec/pkg/plugins"
	"github.com/bitechdev/BreadSpec/pkg/schema"
)

// DefaultRouteNamePrefix is the first segment of BREAD route names
const DefaultRouteNamePrefix = "voyager"

// Env carries everything the controller depends on
type Env struct {
	Locale          string
	FallbackLocale  string
	Columns         schema.ColumnLister
	Formfields      *formfield.Registry
	Plugins         *plugins.Registry
	Relations       RelationLoader
	Breads          *bread.Store
	RouteNamePrefix string
}

// Controller holds the BREAD operations for one Env
type Controller struct {
	env Env
}

// NewController fills unset Env fields with defaults: locale "en", the
// built-in formfields, an empty plugin registry and the "voyager" route prefix.
func NewController(env Env) *Controller {
	if env.Locale == "" {
		env.Locale = "en"
	}
	if env.FallbackLocale == "" {
		env.FallbackLocale = env.Locale
	}
	if env.Formfields == nil {
		env.Formfields = formfield.NewDefaultRegistry()
	}
	if env.Plugins == nil {
		env.Plugins = plugins.NewRegistry()
	}
	if env.RouteNamePrefix == "" {
		env.RouteNamePrefix = DefaultRouteNamePrefix
	}
	return &Controller{env: env}
}

func (c *Controller) Env() Env {
	return c.env
}

// WithLocale returns a controller that reads and writes translations in loc
func (c *Controller) WithLocale(loc string) *Controller {
	if loc == "" || loc == c.env.Locale {
		return c
	}
	env := c.env
	env.Locale = loc
	return &Controller{env: env}
}

// GetBread resolves the bread from the route name, <prefix>.<slug>.<action>
func (c *Controller) GetBread(r common.Request) (*bread.Bread, error) {
	if c.env.Breads == nil {
		return nil, fmt.Errorf("no bread store configured")
	}
	name := r.RouteName()
	parts := strings.Split(name, ".")
	if len(parts) < 2 || parts[1] == "" {
		return nil, fmt.Errorf("%w: route %q carries no slug", bread.ErrBreadNotFound, name)
	}
	return c.env.Breads.GetBreadBySlug(parts[1])
}

// Authorize asks the authorization plugin whether ability is allowed
func (c *Controller) Authorize(ctx context.Context, ability string, args ...interface{}) error {
	return c.env.Plugins.Authorization().Authorize(ctx, ability, args...)
}

func (c *Controller) AuthenticationPlugin() plugins.AuthenticationPlugin {
	return c.env.Plugins.Authentication()
}

func (c *Controller) AuthorizationPlugin() plugins.AuthorizationPlugin {
	return c.env.Plugins.Authorization()
}

func (c *Controller) localeContext() locale.Context {
	return locale.Context{Locale: c.env.Locale, Fallback: c.env.FallbackLocale}
}

// formfield returns the implementation for field's type. Unknown types pass
// values through unchanged.
func (c *Controller) formfield(field *bread.Formfield) (formfield.Formfield, formfield.Context) {
	fc := formfield.Context{Field: field, Locale: c.localeContext()}
	if ff, ok := c.env.Formfields.Get(field.Type); ok {
		return ff, fc
	}
	logger.Warn("Unknown formfield type '%s' for column %s, values pass through", field.Type, field.Column)
	return formfield.Base{Name: field.Type}, fc
}

// splitRelation splits "author.name" into "author" and "name"
func splitRelation(column string) (string, string) {
	idx := strings.Index(column, ".")
	if idx < 0 {
		return "", column
	}
	return column[:idx], column[idx+1:]
}
