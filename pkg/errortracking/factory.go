package errortracking

import (
	"context"
	"fmt"
	"strings"

	"github.com/bitechdev/BreadSpec/pkg/config"
)

// NewProviderFromConfig returns the provider named by cfg.Provider.
// Disabled tracking and the "noop" provider both discard events.
func NewProviderFromConfig(cfg config.ErrorTrackingConfig) (Provider, error) {
	if !cfg.Enabled {
		return NewNoOpProvider(), nil
	}

	switch strings.ToLower(cfg.Provider) {
	case "sentry":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("error_tracking.dsn is required for the sentry provider")
		}
		return NewSentryProvider(SentryConfig{
			DSN:         cfg.DSN,
			Environment: cfg.Environment,
			Release:     cfg.Release,
			Debug:       cfg.Debug,
			SampleRate:  cfg.SampleRate,
		})
	case "noop", "":
		return NewNoOpProvider(), nil
	}
	return nil, fmt.Errorf("unknown error tracking provider: %s", cfg.Provider)
}

// NoOpProvider discards every event
type NoOpProvider struct{}

func NewNoOpProvider() *NoOpProvider { return &NoOpProvider{} }

func (*NoOpProvider) CaptureError(context.Context, error, Severity, map[string]interface{})     {}
func (*NoOpProvider) CaptureMessage(context.Context, string, Severity, map[string]interface{})  {}
func (*NoOpProvider) CapturePanic(context.Context, interface{}, []byte, map[string]interface{}) {}
func (*NoOpProvider) Flush(int) bool                                                            { return true }
func (*NoOpProvider) Close() error                                                              { return nil }
