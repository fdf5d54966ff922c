// Package logger is the process-wide zap logger. Warnings, errors and panics
// are also reported to the error tracking provider when one is set.
package logger

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"sort"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/bitechdev/BreadSpec/pkg/errortracking"
)

var (
	Logger       *zap.SugaredLogger
	errorTracker errortracking.Provider
)

// Init builds a development or production logger writing to stderr
func Init(dev bool) {
	build(dev, "")
}

// UpdateLoggerPath rebuilds the logger to write to path
func UpdateLoggerPath(path string, dev bool) {
	build(dev, path)
}

func build(dev bool, path string) {
	cfg := zap.NewProductionConfig()
	if dev {
		cfg = zap.NewDevelopmentConfig()
	}
	if path != "" {
		cfg.OutputPaths = []string{path}
	}

	// skip write and the exported level function
	l, err := cfg.Build(zap.AddCallerSkip(2))
	if err != nil {
		log.Print(err)
		return
	}
	Logger = l.Sugar()
	Info("BreadSpec logger initialized")
}

// InitErrorTracking sets the provider that receives warnings, errors and panics
func InitErrorTracking(provider errortracking.Provider) {
	errorTracker = provider
	if errorTracker != nil {
		Info("Error tracking initialized")
	}
}

// CloseErrorTracking flushes and closes the error tracking provider
func CloseErrorTracking() error {
	if errorTracker == nil {
		return nil
	}
	errorTracker.Flush(5)
	return errorTracker.Close()
}

func Debug(template string, args ...interface{}) {
	write(nil, zapcore.DebugLevel, nil, template, args)
}

func Info(template string, args ...interface{}) {
	write(nil, zapcore.InfoLevel, nil, template, args)
}

func Warn(template string, args ...interface{}) {
	msg := write(nil, zapcore.WarnLevel, nil, template, args)
	if errorTracker != nil {
		errorTracker.CaptureMessage(context.Background(), msg, errortracking.SeverityWarning, extra(nil))
	}
}

func Error(template string, args ...interface{}) {
	msg := write(nil, zapcore.ErrorLevel, nil, template, args)
	if errorTracker != nil {
		errorTracker.CaptureMessage(context.Background(), msg, errortracking.SeverityError, extra(nil))
	}
}

// ErrorCtx logs err with the tags carried by ctx (request id, bread slug)
// and reports it to the tracker
func ErrorCtx(ctx context.Context, err error, template string, args ...interface{}) {
	msg := write(ctx, zapcore.ErrorLevel, err, template, args)
	if errorTracker != nil {
		errorTracker.CaptureError(ctx, err, errortracking.SeverityError, extra(map[string]interface{}{"message": msg}))
	}
}

// HandlePanic logs a recovered panic with its stack and returns it as an error.
// Call it with the result of recover() from a deferred function.
func HandlePanic(methodName string, r any) error {
	return HandlePanicCtx(context.Background(), methodName, r)
}

// HandlePanicCtx is HandlePanic with the tags carried by ctx
func HandlePanicCtx(ctx context.Context, methodName string, r any) error {
	stack := debug.Stack()
	err := fmt.Errorf("panic in %s: %v", methodName, r)
	write(ctx, zapcore.ErrorLevel, nil, "%v\nStack trace:\n%s", []interface{}{err, string(stack)})

	if errorTracker != nil {
		errorTracker.CapturePanic(ctx, r, stack, extra(map[string]interface{}{"method": methodName}))
	}
	return err
}

// write logs one line and returns the formatted message
func write(ctx context.Context, level zapcore.Level, err error, template string, args []interface{}) string {
	msg := fmt.Sprintf(template, args...)
	if Logger == nil {
		if err != nil {
			log.Printf("%s: %v", msg, err)
		} else {
			log.Print(msg)
		}
		return msg
	}

	fields := []interface{}{"process_id", os.Getpid()}
	if err != nil {
		fields = append(fields, "error", err)
	}
	if ctx != nil {
		tags := errortracking.TagsFromContext(ctx)
		keys := make([]string, 0, len(tags))
		for k := range tags {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fields = append(fields, k, tags[k])
		}
	}

	switch level {
	case zapcore.DebugLevel:
		Logger.Debugw(msg, fields...)
	case zapcore.InfoLevel:
		Logger.Infow(msg, fields...)
	case zapcore.WarnLevel:
		Logger.Warnw(msg, fields...)
	default:
		Logger.Errorw(msg, fields...)
	}
	return msg
}

func extra(fields map[string]interface{}) map[string]interface{} {
	out := map[string]interface{}{"process_id": os.Getpid()}
	for k, v := range fields {
		out[k] = v
	}
	return out
}
