package pipeline

import (
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/slotpipe/logger"
	"github.com/kbukum/slotpipe/observability"
)

const instrumentationName = "github.com/kbukum/slotpipe/pipeline"

// Option customizes a Producer, Consumer or Pool.
type Option func(*options)

type options struct {
	log    *logger.Logger
	meter  metric.Meter
	tracer trace.Tracer
}

// WithLogger sets the base logger. Defaults to the global logger.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMeter sets the meter used for pipeline metrics. Defaults to the global
// meter provider.
func WithMeter(m metric.Meter) Option {
	return func(o *options) { o.meter = m }
}

// WithTracer sets the tracer used for the run span. Defaults to the global
// tracer provider.
func WithTracer(t trace.Tracer) Option {
	return func(o *options) { o.tracer = t }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.GetGlobalLogger()
	}
	if o.meter == nil {
		o.meter = observability.Meter(instrumentationName)
	}
	if o.tracer == nil {
		o.tracer = observability.Tracer(instrumentationName)
	}
	return o
}

// prepare validates cfg in place and builds the shared recorder.
func prepare(cfg *Config, opts []Option) (options, *recorder, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return options{}, nil, err
	}
	o := buildOptions(opts)
	m, err := NewMetrics(o.meter)
	if err != nil {
		return options{}, nil, err
	}
	return o, newRecorder(cfg.Name, m), nil
}
