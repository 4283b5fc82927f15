package logs

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

var sentryEnabled bool

// InitSentry enables error reporting. An empty DSN leaves it off.
func InitSentry(dsn, environment string) error {
	if dsn == "" {
		return nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: environment,
	}); err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	sentryEnabled = true
	return nil
}

// Capture reports err with tags when sentry is enabled.
func Capture(err error, tags map[string]string) {
	if !sentryEnabled || err == nil {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

// CapturePanic reports a recovered panic value.
func CapturePanic(rec any, tags map[string]string) {
	if !sentryEnabled {
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CurrentHub().Recover(rec)
	})
}

func Flush() {
	if sentryEnabled {
		sentry.Flush(2 * time.Second)
	}
}
