package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"github.com/bitechdev/BreadSpec/pkg/bread"
	"github.com/bitechdev/BreadSpec/pkg/breadspec"
	"github.com/bitechdev/BreadSpec/pkg/cache"
	"github.com/bitechdev/BreadSpec/pkg/common"
	"github.com/bitechdev/BreadSpec/pkg/common/adapters/database"
	"github.com/bitechdev/BreadSpec/pkg/config"
	"github.com/bitechdev/BreadSpec/pkg/errortracking"
	"github.com/bitechdev/BreadSpec/pkg/logger"
	"github.com/bitechdev/BreadSpec/pkg/metrics"
	"github.com/bitechdev/BreadSpec/pkg/middleware"
	"github.com/bitechdev/BreadSpec/pkg/modelregistry"
	"github.com/bitechdev/BreadSpec/pkg/schema"
	"github.com/bitechdev/BreadSpec/pkg/server"
)

func main() {
	configFile := flag.String("config", "", "path to a config file (default: ./config.yaml when present)")
	flag.Parse()

	var opts []config.Option
	if *configFile != "" {
		opts = append(opts, config.WithConfigFile(*configFile))
	}
	cfgMgr := config.NewManagerWithOptions(opts...)
	if err := cfgMgr.Load(); err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	cfg, err := cfgMgr.GetConfig()
	if err != nil {
		log.Fatalf("Failed to get configuration: %v", err)
	}

	logger.Init(cfg.Logger.Dev)
	if cfg.Logger.Path != "" {
		logger.UpdateLoggerPath(cfg.Logger.Path, cfg.Logger.Dev)
	}
	logger.Info("BreadSpec server starting")

	if cfg.ErrorTracking.Enabled {
		tracker, err := errortracking.NewProviderFromConfig(cfg.ErrorTracking)
		if err != nil {
			logger.Error("Failed to initialize error tracking: %v", err)
			os.Exit(1)
		}
		logger.InitErrorTracking(tracker)
	}

	metricsProvider := metrics.NewFromConfig(cfg.Metrics)
	metrics.SetProvider(metricsProvider)

	db, closeDB, err := database.Open(cfg.Database)
	if err != nil {
		logger.Error("Failed to open database: %v", err)
		os.Exit(1)
	}

	columnCache, err := cache.NewFromConfig(cfg.Cache)
	if err != nil {
		logger.Error("Failed to initialize cache: %v", err)
		os.Exit(1)
	}

	store := bread.NewStore(modelregistry.GetDefaultRegistry())
	if err := store.LoadDir(cfg.Breads.Path); err != nil {
		logger.Error("Failed to load breads from %s: %v", cfg.Breads.Path, err)
		os.Exit(1)
	}

	handler := breadspec.NewHandlerWithDB(db, breadspec.Env{
		Locale:          cfg.Locale.Default,
		FallbackLocale:  cfg.Locale.Fallback,
		Columns:         schema.NewCachedLister(db, columnCache, cfg.Cache.TTL),
		Breads:          store,
		RouteNamePrefix: cfg.Breads.RouteNamePrefix,
	}, cfg.Locale.Available)

	r := mux.NewRouter()
	r.Use(metricsProvider.Middleware)
	breadspec.SetupMuxRoutes(r, handler, cfg.Breads.RoutePrefix)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, metricsProvider.Handler()).Methods(http.MethodGet)
	}

	srv, err := server.New(cfg.Server, buildMiddleware(cfg, r))
	if err != nil {
		logger.Error("Failed to create server: %v", err)
		os.Exit(1)
	}
	r.Handle("/health", srv.HealthCheckHandler()).Methods(http.MethodGet)
	r.Handle("/ready", srv.ReadinessHandler()).Methods(http.MethodGet)

	srv.OnShutdown(func(ctx context.Context) error {
		return columnCache.Close()
	})
	srv.OnShutdown(func(ctx context.Context) error {
		return closeDB()
	})
	srv.OnShutdown(func(ctx context.Context) error {
		return logger.CloseErrorTracking()
	})

	logger.Info("Serving %d breads under %s on %s", len(store.All()), cfg.Breads.RoutePrefix, srv.Addr())
	if err := srv.ListenAndServe(); err != nil {
		logger.Error("Server failed: %v", err)
		os.Exit(1)
	}
}

// buildMiddleware wraps next, outermost first: request id, panic recovery,
// body size limit, rate limit, CORS. Request metrics run inside the router
// so they see the matched route template.
func buildMiddleware(cfg *config.Config, next http.Handler) http.Handler {
	cors := common.DefaultCORSConfig()
	if len(cfg.CORS.AllowedOrigins) > 0 {
		cors.AllowedOrigins = cfg.CORS.AllowedOrigins
	}
	if cfg.CORS.MaxAge > 0 {
		cors.MaxAge = cfg.CORS.MaxAge
	}
	h := middleware.CORS(cors)(next)

	if cfg.Middleware.RateLimitRPS > 0 {
		h = middleware.NewRateLimiter(cfg.Middleware.RateLimitRPS, cfg.Middleware.RateLimitBurst).Middleware(h)
	}
	h = middleware.MaxBodySize(cfg.Middleware.MaxRequestSize)(h)
	h = middleware.PanicRecovery(h)
	return middleware.RequestID(h)
}
