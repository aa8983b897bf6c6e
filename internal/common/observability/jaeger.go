package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/exporters/jaeger"
)

func newJaegerExporter(endpoint string) (*jaeger.Exporter, error) {
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
	if err != nil {
		return nil, fmt.Errorf("create jaeger exporter: %w", err)
	}
	return exp, nil
}
