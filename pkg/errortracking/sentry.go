package errortracking

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// SentryConfig holds the Sentry client options
type SentryConfig struct {
	DSN         string
	Environment string
	Release     string
	Debug       bool
	SampleRate  float64
}

// SentryProvider sends events through its own Sentry hub, so it does not
// touch the SDK's global hub
type SentryProvider struct {
	hub *sentry.Hub
}

func NewSentryProvider(cfg SentryConfig) (*SentryProvider, error) {
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		Release:          cfg.Release,
		Debug:            cfg.Debug,
		AttachStacktrace: true,
		SampleRate:       cfg.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Sentry client: %w", err)
	}
	return &SentryProvider{hub: sentry.NewHub(client, sentry.NewScope())}, nil
}

func (s *SentryProvider) CaptureError(ctx context.Context, err error, severity Severity, extra map[string]interface{}) {
	if err == nil {
		return
	}
	event := buildEvent(ctx, severity, err.Error(), extra)
	event.Exception = []sentry.Exception{{
		Type:       fmt.Sprintf("%T", err),
		Value:      err.Error(),
		Stacktrace: sentry.ExtractStacktrace(err),
	}}
	s.send(ctx, event)
}

func (s *SentryProvider) CaptureMessage(ctx context.Context, message string, severity Severity, extra map[string]interface{}) {
	if message != "" {
		s.send(ctx, buildEvent(ctx, severity, message, extra))
	}
}

// CapturePanic records the recovered value as a "panic" exception with the
// raw stack in the event's extra data
func (s *SentryProvider) CapturePanic(ctx context.Context, recovered interface{}, stackTrace []byte, extra map[string]interface{}) {
	if recovered == nil {
		return
	}
	event := buildEvent(ctx, SeverityError, fmt.Sprintf("Panic: %v", recovered), extra)
	event.Exception = []sentry.Exception{{Type: "panic", Value: fmt.Sprint(recovered)}}
	if len(stackTrace) > 0 {
		event.Extra["stack_trace"] = string(stackTrace)
	}
	s.send(ctx, event)
}

// Flush waits up to timeout seconds for queued events
func (s *SentryProvider) Flush(timeout int) bool {
	return s.hub.Flush(time.Duration(timeout) * time.Second)
}

func (s *SentryProvider) Close() error {
	s.hub.Flush(2 * time.Second)
	return nil
}

// send prefers a hub carried by ctx, e.g. one set by sentryhttp
func (s *SentryProvider) send(ctx context.Context, event *sentry.Event) {
	hub := s.hub
	if ctx != nil {
		if h := sentry.GetHubFromContext(ctx); h != nil {
			hub = h
		}
	}
	hub.CaptureEvent(event)
}

func buildEvent(ctx context.Context, severity Severity, message string, extra map[string]interface{}) *sentry.Event {
	event := sentry.NewEvent()
	event.Level = convertSeverity(severity)
	event.Message = message
	event.Extra = make(map[string]interface{}, len(extra))
	for k, v := range extra {
		event.Extra[k] = v
	}
	for k, v := range TagsFromContext(ctx) {
		event.Tags[k] = v
	}
	return event
}

func convertSeverity(severity Severity) sentry.Level {
	switch severity {
	case SeverityWarning:
		return sentry.LevelWarning
	case SeverityInfo:
		return sentry.LevelInfo
	case SeverityDebug:
		return sentry.LevelDebug
	}
	return sentry.LevelError
}
