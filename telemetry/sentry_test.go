package telemetry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"umrahcheck/apperrors"
	"umrahcheck/config"
)

type recordingTransport struct {
	mu     sync.Mutex
	events []*sentry.Event
}

func (t *recordingTransport) Configure(sentry.ClientOptions) {}
func (t *recordingTransport) Flush(time.Duration) bool { return true }
func (t *recordingTransport) FlushWithContext(context.Context) bool { return true }
func (t *recordingTransport) Close() {}
func (t *recordingTransport) SendEvent(e *sentry.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, e)
}

func (t *recordingTransport) all() []*sentry.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]*sentry.Event(nil), t.events...)
}

func newTestReporter(t *testing.T) (*Reporter, *recordingTransport) {
	t.Helper()
	transport := &recordingTransport{}
	client, err := sentry.NewClient(sentry.ClientOptions{
		Dsn:       "https://public@sentry.example.com/1",
		Transport: transport,
	})
	require.NoError(t, err)
	return NewReporterWithHub(sentry.NewHub(client, sentry.NewScope()), zaptest.NewLogger(t)), transport
}

func TestCaptureError_Tags(t *testing.T) {
	r, transport := newTestReporter(t)

	err := apperrors.NewProviderUnavailable("makkah", errors.New("status 503"))
	r.CaptureError(context.Background(), err, map[string]string{
		"operation": "search",
		"customer":  "Amina Yilmaz",
		"budget":    "1200-1300",
	})
	require.True(t, r.Flush(time.Second))

	events := transport.all()
	require.Len(t, events, 1)
	assert.Equal(t, "search", events[0].Tags["operation"])
	assert.Equal(t, "Amina Yilmaz", events[0].Tags["customer"])
	assert.Equal(t, "1200-1300", events[0].Tags["budget"])
	assert.Equal(t, "PROVIDER_UNAVAILABLE", events[0].Tags["error_code"])
	require.NotEmpty(t, events[0].Exception)
}

func TestCaptureError_ScopeDoesNotLeak(t *testing.T) {
	r, transport := newTestReporter(t)

	r.CaptureError(context.Background(), errors.New("first"), map[string]string{"operation": "audit"})
	r.CaptureError(context.Background(), errors.New("second"), nil)

	events := transport.all()
	require.Len(t, events, 2)
	_, leaked := events[1].Tags["operation"]
	assert.False(t, leaked)
}

func TestCaptureMessage(t *testing.T) {
	r, transport := newTestReporter(t)
	r.CaptureMessage("panic recovered", map[string]string{"route": "/api/search"})

	events := transport.all()
	require.Len(t, events, 1)
	assert.Equal(t, "panic recovered", events[0].Message)
	assert.Equal(t, sentry.LevelError, events[0].Level)
}

func TestDisabledReporter(t *testing.T) {
	r, err := NewReporter(config.SentryConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, r.Enabled())
	r.CaptureError(context.Background(), errors.New("ignored"), nil)
	r.CaptureMessage("ignored", nil)
	assert.True(t, r.Flush(time.Millisecond))

	var nilReporter *Reporter
	assert.False(t, nilReporter.Enabled())
}

func TestNewReporter_BadDSN(t *testing.T) {
	_, err := NewReporter(config.SentryConfig{DSN: "::not a dsn"}, zaptest.NewLogger(t))
	assert.Error(t, err)
}
