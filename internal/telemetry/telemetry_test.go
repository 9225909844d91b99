package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
)

func TestInitTracer(t *testing.T) {
	t.Run("Should install propagators without a collector", func(t *testing.T) {
		cleanup, err := InitTracer(context.Background(), config.Otel{})
		require.NoError(t, err)
		require.NoError(t, cleanup(context.Background()))

		assert.ElementsMatch(t, []string{"traceparent", "tracestate", "baggage"}, otel.GetTextMapPropagator().Fields())
	})

	t.Run("Should name the resource after the configured service", func(t *testing.T) {
		res, err := newResource(context.Background(), config.Otel{ServiceName: "catalog-test", Environment: "staging", K8sNamespace: "shop"})
		require.NoError(t, err)

		attrs := map[string]string{}
		for _, kv := range res.Attributes() {
			attrs[string(kv.Key)] = kv.Value.Emit()
		}
		assert.Equal(t, "catalog-test", attrs["service.name"])
		assert.Equal(t, "shop", attrs["k8s.namespace.name"])
		assert.Equal(t, "staging", attrs["deployment.environment"])
		assert.NotContains(t, attrs, "service.version")
	})
}
