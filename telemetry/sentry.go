package telemetry

import (
	"context"
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"umrahcheck/apperrors"
	"umrahcheck/config"
)

// Reporter forwards errors to Sentry. Delivery is asynchronous; a failure to
// report is logged and never reaches the caller.
type Reporter struct {
	hub    *sentry.Hub
	logger *zap.Logger
}

// NewReporter initialises the Sentry client. An empty DSN yields a reporter
// that only logs.
func NewReporter(cfg config.SentryConfig, logger *zap.Logger) (*Reporter, error) {
	if cfg.DSN == "" {
		return &Reporter{logger: logger}, nil
	}

	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		AttachStacktrace: true,
	})
	if err != nil {
		return nil, fmt.Errorf("init sentry: %w", err)
	}

	logger.Info("🛰️  Error tracking enabled", zap.String("environment", cfg.Environment))
	return NewReporterWithHub(sentry.NewHub(client, sentry.NewScope()), logger), nil
}

func NewReporterWithHub(hub *sentry.Hub, logger *zap.Logger) *Reporter {
	return &Reporter{hub: hub, logger: logger}
}

func (r *Reporter) Enabled() bool {
	return r != nil && r.hub != nil
}

func (r *Reporter) CaptureError(_ context.Context, err error, tags map[string]string) {
	if !r.Enabled() || err == nil {
		return
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Warn("⚠️  Error report dropped",
				zap.Error(apperrors.NewTelemetryFailure(fmt.Errorf("panic: %v", p))))
		}
	}()

	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		scope.SetTag("error_code", string(apperrors.CodeOf(err)))
		if id := r.hub.CaptureException(err); id == nil {
			r.logger.Debug("error report not sent", zap.Error(err))
		}
	})
}

// CaptureMessage records an informational event, used for recovered panics.
func (r *Reporter) CaptureMessage(msg string, tags map[string]string) {
	if !r.Enabled() {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		scope.SetLevel(sentry.LevelError)
		r.hub.CaptureMessage(msg)
	})
}

// Flush waits for queued events, up to timeout.
func (r *Reporter) Flush(timeout time.Duration) bool {
	if !r.Enabled() {
		return true
	}
	return r.hub.Flush(timeout)
}
