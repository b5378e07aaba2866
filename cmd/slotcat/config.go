package main

import (
	"time"

	"github.com/kbukum/slotpipe/config"
	"github.com/kbukum/slotpipe/errors"
	"github.com/kbukum/slotpipe/observability"
	"github.com/kbukum/slotpipe/pipeline"
	"github.com/kbukum/slotpipe/resilience"
	"github.com/kbukum/slotpipe/server"
	"github.com/kbukum/slotpipe/validation"
)

const serviceName = "slotcat"

// Config is the full slotcat configuration. It is read from config.yml, a
// .env file and SLOTCAT_* environment variables, then overridden by flags.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	// Input and Output are file paths; "-" means stdin and stdout.
	Input     string `yaml:"input" mapstructure:"input" validate:"required"`
	Output    string `yaml:"output" mapstructure:"output" validate:"required"`
	Transform string `yaml:"transform" mapstructure:"transform" validate:"required"`
	// BatchSize groups lines so each worker call handles several at once.
	BatchSize int `yaml:"batch_size" mapstructure:"batch_size" validate:"gte=1"`
	// ShutdownTimeout bounds the drain after an interrupt. Zero waits for
	// the drain to complete.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout" validate:"gte=0"`

	Pipeline      pipeline.Config              `yaml:"pipeline" mapstructure:"pipeline"`
	Retry         resilience.RetryConfig       `yaml:"retry" mapstructure:"retry"`
	RateLimit     resilience.RateLimiterConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
	Server        server.Config                `yaml:"server" mapstructure:"server"`
	Observability observability.Config         `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills unset fields, including every nested section.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	if c.Input == "" {
		c.Input = "-"
	}
	if c.Output == "" {
		c.Output = "-"
	}
	if c.Transform == "" {
		c.Transform = "upper"
	}
	if c.BatchSize == 0 {
		c.BatchSize = 1
	}
	if c.Pipeline.Name == "" {
		c.Pipeline.Name = c.Name
	}
	c.Pipeline.ApplyDefaults()
	c.Server.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks every section and the transform name.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := validation.Validate(c); err != nil {
		return err
	}
	if c.Output == "-" && c.Logging.Output == "stdout" {
		return errors.InvalidConfig("logging.output", "logs cannot share stdout with the output stream")
	}
	_, err := lookupTransform(c.Transform)
	return err
}
