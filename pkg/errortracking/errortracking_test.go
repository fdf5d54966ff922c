package errortracking

import (
	"context"
	"errors"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitechdev/BreadSpec/pkg/config"
)

func TestNoOpProvider(t *testing.T) {
	provider := NewNoOpProvider()
	ctx := context.Background()

	provider.CaptureError(ctx, errors.New("test error"), SeverityError, nil)
	provider.CaptureMessage(ctx, "test message", SeverityWarning, nil)
	provider.CapturePanic(ctx, "panic!", []byte("stack trace"), nil)

	assert.True(t, provider.Flush(5))
	assert.NoError(t, provider.Close())
}

func TestProviderInterface(t *testing.T) {
	var _ Provider = (*NoOpProvider)(nil)
	var _ Provider = (*SentryProvider)(nil)
}

func TestWithTagsMerges(t *testing.T) {
	ctx := WithTags(context.Background(), map[string]string{"slug": "posts", "action": "browse"})
	ctx = WithTags(ctx, map[string]string{"action": "edit", "request_id": "abc"})

	tags := TagsFromContext(ctx)
	assert.Equal(t, map[string]string{"slug": "posts", "action": "edit", "request_id": "abc"}, tags)
	assert.Nil(t, TagsFromContext(context.Background()))
}

func TestConvertSeverity(t *testing.T) {
	tests := []struct {
		severity Severity
		expected sentry.Level
	}{
		{SeverityError, sentry.LevelError},
		{SeverityWarning, sentry.LevelWarning},
		{SeverityInfo, sentry.LevelInfo},
		{SeverityDebug, sentry.LevelDebug},
		{Severity("other"), sentry.LevelError},
	}

	for _, tt := range tests {
		t.Run(string(tt.severity), func(t *testing.T) {
			assert.Equal(t, tt.expected, convertSeverity(tt.severity))
		})
	}
}

func TestNewProviderFromConfig(t *testing.T) {
	p, err := NewProviderFromConfig(config.ErrorTrackingConfig{Enabled: false})
	require.NoError(t, err)
	assert.IsType(t, &NoOpProvider{}, p)

	_, err = NewProviderFromConfig(config.ErrorTrackingConfig{Enabled: true, Provider: "sentry"})
	assert.Error(t, err)

	_, err = NewProviderFromConfig(config.ErrorTrackingConfig{Enabled: true, Provider: "bugsnag"})
	assert.Error(t, err)
}

func TestNoopProviderName(t *testing.T) {
	p, err := NewProviderFromConfig(config.ErrorTrackingConfig{Enabled: true, Provider: "NoOp"})
	require.NoError(t, err)
	assert.IsType(t, &NoOpProvider{}, p)
}

func TestBuildEventCarriesTags(t *testing.T) {
	ctx := WithTags(context.Background(), map[string]string{"bread": "posts", "action": "edit"})
	extra := map[string]interface{}{"id": 3}

	event := buildEvent(ctx, SeverityWarning, "something odd", extra)
	assert.Equal(t, sentry.LevelWarning, event.Level)
	assert.Equal(t, "something odd", event.Message)
	assert.Equal(t, "posts", event.Tags["bread"])
	assert.Equal(t, "edit", event.Tags["action"])
	assert.Equal(t, 3, event.Extra["id"])

	event.Extra["id"] = 4
	assert.Equal(t, 3, extra["id"])
}

func TestSentryProviderWithoutDSN(t *testing.T) {
	p, err := NewSentryProvider(SentryConfig{Environment: "test"})
	require.NoError(t, err)

	p.CaptureError(context.Background(), nil, SeverityError, nil)
	p.CaptureMessage(context.Background(), "", SeverityInfo, nil)
	p.CapturePanic(context.Background(), nil, nil, nil)
	p.CaptureMessage(context.Background(), "hello", SeverityInfo, nil)
	assert.NoError(t, p.Close())
}
