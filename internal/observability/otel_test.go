package observability

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
)

func TestInit_InstallsProviderAndPropagator(t *testing.T) {
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})

	shutdown, err := Init(context.Background(), zap.NewNop().Sugar(), Config{ServiceName: "go_store", SampleRatio: 0})
	require.NoError(t, err)
	t.Cleanup(func() { _ = shutdown(context.Background()) })

	_, ok := otel.GetTracerProvider().(*sdktrace.TracerProvider)
	require.True(t, ok, "global provider must be the SDK one")
	assert.ElementsMatch(t, []string{"traceparent", "tracestate", "baggage"}, otel.GetTextMapPropagator().Fields())

	// Unsampled spans still carry a trace id for log correlation.
	ctx, span := otel.Tracer("test").Start(context.Background(), "op")
	defer span.End()
	assert.True(t, span.SpanContext().HasTraceID())
	assert.False(t, span.SpanContext().IsSampled())

	carrier := propagation.HeaderCarrier(http.Header{})
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	assert.Contains(t, carrier.Get("traceparent"), span.SpanContext().TraceID().String())
}

func TestNewTracerProvider_FollowsRemoteParent(t *testing.T) {
	tp, err := NewTracerProvider(context.Background(), Config{SampleRatio: 0})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	const traceparent = "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01"
	ctx := Propagator().Extract(context.Background(), propagation.HeaderCarrier(http.Header{"Traceparent": {traceparent}}))

	_, span := tp.Tracer("test").Start(ctx, "op")
	defer span.End()
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", span.SpanContext().TraceID().String())
	assert.True(t, span.SpanContext().IsSampled(), "a sampled parent keeps the child sampled")
}

func TestSampleRatio_Clamps(t *testing.T) {
	assert.Equal(t, 0.0, sampleRatio(-3))
	assert.Equal(t, 1.0, sampleRatio(7))
	assert.Equal(t, 0.25, sampleRatio(0.25))
}
