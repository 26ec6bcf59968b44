package telemetry

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestCoreForwardsErrors(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	core := newCore(zapcore.DebugLevel, provider.Tracer("test"))
	logger := zap.New(core).Named("appeal_service").With(zap.String("appealID", "APL-ABC123"))

	logger.Info("Appeal submitted")
	logger.Error("Storage operation failed", zap.Int("attempt", 3), zap.Error(errors.New("connection reset")))

	spans := recorder.Ended()
	require.Len(t, spans, 1)

	span := spans[0]
	assert.Equal(t, codes.Error, span.Status().Code)

	attrs := make(map[string]string)
	for _, kv := range span.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsString()
	}
	assert.Equal(t, "Storage operation failed", attrs["log.message"])
	assert.Equal(t, "appeal_service", attrs["log.logger"])
	assert.Equal(t, "APL-ABC123", attrs["appealID"])
	assert.Equal(t, "3", attrs["attempt"])
	assert.Equal(t, "connection reset", attrs["error"])
}

func TestErrorCategory(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"github.com/robalyx/tribunal/internal/database/service.(*AppealService).Submit": "database",
		"github.com/robalyx/tribunal/internal/rest/handler.(*AppealHandler).writeError": "rest",
		"github.com/robalyx/tribunal/internal/notify.(*DiscordNotifier).deliver":        "notify",
		"main.main": "application",
	}

	for fn, want := range tests {
		ent := zapcore.Entry{Caller: zapcore.EntryCaller{Defined: true, Function: fn}}
		assert.Equal(t, want, errorCategory(ent), fn)
	}
}
