package breadspec

import (
	"time"

	"github.com/gorilla/mux"
	"github.com/uptrace/bun"
	"gorm.io/gorm"

	"github.com/bitechdev/BreadSpec/pkg/common"
	"github.com/bitechdev/BreadSpec/pkg/common/adapters/database"
	"github.com/bitechdev/BreadSpec/pkg/common/adapters/router"
	"github.com/bitechdev/BreadSpec/pkg/schema"
)

// DefaultColumnTTL is how long introspected column lists are cached
const DefaultColumnTTL = 10 * time.Minute

// NewHandlerWithDB creates a handler over db. Env fields left nil get a
// cached column lister and a relation loader backed by db.
func NewHandlerWithDB(db common.Database, env Env, locales []string) *Handler {
	if env.Columns == nil {
		env.Columns = schema.NewCachedLister(db, nil, DefaultColumnTTL)
	}
	if env.Relations == nil && env.Breads != nil {
		env.Relations = NewDBRelationLoader(db, env.Breads.Models())
	}
	return NewHandler(db, NewController(env), locales)
}

// NewHandlerWithGORM creates a new Handler with GORM adapter
func NewHandlerWithGORM(db *gorm.DB, env Env, locales []string) *Handler {
	return NewHandlerWithDB(database.NewGormAdapter(db), env, locales)
}

// NewHandlerWithBun creates a new Handler with Bun adapter
func NewHandlerWithBun(db *bun.DB, env Env, locales []string) *Handler {
	return NewHandlerWithDB(database.NewBunAdapter(db), env, locales)
}

// SetupMuxRoutes registers the BREAD routes of handler on muxRouter under pathPrefix
func SetupMuxRoutes(muxRouter *mux.Router, handler *Handler, pathPrefix string) {
	handler.RegisterRoutes(router.NewMuxAdapter(muxRouter), pathPrefix)
}
