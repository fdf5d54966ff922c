package logger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bitechdev/BreadSpec/pkg/errortracking"
)

type recordingTracker struct {
	errortracking.NoOpProvider
	mu        sync.Mutex
	messages  []string
	errors    []error
	panics    []interface{}
	panicTags []map[string]string
}

func (r *recordingTracker) CaptureMessage(ctx context.Context, message string, severity errortracking.Severity, extra map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, string(severity)+":"+message)
}

func (r *recordingTracker) CaptureError(ctx context.Context, err error, severity errortracking.Severity, extra map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, err)
}

func (r *recordingTracker) CapturePanic(ctx context.Context, recovered interface{}, stack []byte, extra map[string]interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.panics = append(r.panics, recovered)
	r.panicTags = append(r.panicTags, errortracking.TagsFromContext(ctx))
}

func withTracker(t *testing.T) *recordingTracker {
	t.Helper()
	tracker := &recordingTracker{}
	previous := errorTracker
	InitErrorTracking(tracker)
	t.Cleanup(func() { errorTracker = previous })
	return tracker
}

func TestWarnAndErrorAreTracked(t *testing.T) {
	tracker := withTracker(t)

	Warn("filter %s ignored", "author.pivot.role")
	Error("bread %s not found", "posts")
	Info("not tracked")

	assert.Equal(t, []string{
		"warning:filter author.pivot.role ignored",
		"error:bread posts not found",
	}, tracker.messages)
}

func TestErrorCtxCapturesError(t *testing.T) {
	tracker := withTracker(t)

	ctx := errortracking.WithTags(context.Background(), map[string]string{"slug": "posts"})
	ErrorCtx(ctx, errors.New("boom"), "store failed")

	assert.Len(t, tracker.errors, 1)
	assert.EqualError(t, tracker.errors[0], "boom")
}

func TestHandlePanic(t *testing.T) {
	tracker := withTracker(t)

	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = HandlePanic("TestHandlePanic", r)
			}
		}()
		panic("kaboom")
	}()

	assert.EqualError(t, err, "panic in TestHandlePanic: kaboom")
	assert.Equal(t, []interface{}{"kaboom"}, tracker.panics)
}

func TestHandlePanicCtxKeepsTags(t *testing.T) {
	tracker := withTracker(t)

	ctx := errortracking.WithTags(context.Background(), map[string]string{"request_id": "abc"})
	err := HandlePanicCtx(ctx, "Browse", "nil map")

	assert.EqualError(t, err, "panic in Browse: nil map")
	assert.Equal(t, []map[string]string{{"request_id": "abc"}}, tracker.panicTags)
}

func TestLoggingWithoutInit(t *testing.T) {
	previous := Logger
	Logger = nil
	t.Cleanup(func() { Logger = previous })

	assert.NotPanics(t, func() {
		Debug("debug %d", 1)
		Info("info %d", 2)
		ErrorCtx(context.Background(), errors.New("boom"), "failed")
	})
}
