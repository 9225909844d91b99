package config

import "time"

// Otel configures trace export. Tracing stays local (propagation only) until
// a collector URL is set.
type Otel struct {
	ServiceName    string  `env:"OTEL_SERVICE_NAME" envDefault:"product-catalog"`
	ServiceVersion string  `env:"OTEL_SERVICE_VERSION"`
	Environment    string  `env:"OTEL_ENVIRONMENT"`
	CollectorURL   string  `env:"OTEL_COLLECTOR_URL"`
	CollectorAuth  string  `env:"OTEL_COLLECTOR_AUTH"`
	Insecure       bool    `env:"OTEL_INSECURE"`
	TraceIDRatio   float64 `env:"OTEL_TRACE_ID_RATIO" envDefault:"0.1"`

	ExportTimeout time.Duration `env:"OTEL_EXPORT_TIMEOUT" envDefault:"10s"`

	K8sPodName   string `env:"K8S_POD_NAME"`
	K8sNamespace string `env:"K8S_NAMESPACE"`
}

func (o Otel) ExportEnabled() bool {
	return o.CollectorURL != ""
}
