package observability

import (
	"context"
	stderrors "errors"
	"time"
)

// Config selects which OpenTelemetry exporters a binary enables.
type Config struct {
	Tracing        bool          `yaml:"tracing" mapstructure:"tracing"`
	Metrics        bool          `yaml:"metrics" mapstructure:"metrics"`
	Endpoint       string        `yaml:"endpoint" mapstructure:"endpoint" validate:"required_if=Tracing true,required_if=Metrics true"`
	Insecure       bool          `yaml:"insecure" mapstructure:"insecure"`
	SampleRate     float64       `yaml:"sample_rate" mapstructure:"sample_rate" validate:"gte=0,lte=1"`
	MetricInterval time.Duration `yaml:"metric_interval" mapstructure:"metric_interval" validate:"gte=0"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.SampleRate == 0 {
		c.SampleRate = 1.0
	}
	if c.MetricInterval == 0 {
		c.MetricInterval = 15 * time.Second
	}
}

// ShutdownFunc flushes and stops whatever Setup started.
type ShutdownFunc func(ctx context.Context) error

// Setup starts the tracer and meter providers enabled in cfg. The returned
// shutdown function is never nil and is safe to call when nothing was
// enabled.
func Setup(ctx context.Context, cfg Config, serviceName, serviceVersion, environment string) (ShutdownFunc, error) {
	var shutdowns []ShutdownFunc
	shutdown := func(ctx context.Context) error {
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](ctx))
		}
		return stderrors.Join(errs...)
	}

	if cfg.Tracing {
		tc := DefaultTracerConfig(serviceName)
		tc.applyService(serviceVersion, environment)
		tc.Endpoint, tc.Insecure, tc.SampleRate = cfg.Endpoint, cfg.Insecure, cfg.SampleRate
		tp, err := InitTracer(ctx, &tc)
		if err != nil {
			return shutdown, err
		}
		shutdowns = append(shutdowns, tp.Shutdown)
	}

	if cfg.Metrics {
		mc := DefaultMeterConfig(serviceName)
		mc.applyService(serviceVersion, environment)
		mc.Endpoint, mc.Insecure = cfg.Endpoint, cfg.Insecure
		if cfg.MetricInterval > 0 {
			mc.Interval = cfg.MetricInterval
		}
		mp, err := InitMeter(ctx, &mc)
		if err != nil {
			return shutdown, err
		}
		shutdowns = append(shutdowns, mp.Shutdown)
	}

	return shutdown, nil
}

func (c *TracerConfig) applyService(version, environment string) {
	if version != "" {
		c.ServiceVersion = version
	}
	if environment != "" {
		c.Environment = environment
	}
}

func (c *MeterConfig) applyService(version, environment string) {
	if version != "" {
		c.ServiceVersion = version
	}
	if environment != "" {
		c.Environment = environment
	}
}
