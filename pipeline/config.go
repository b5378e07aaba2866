package pipeline

import (
	"runtime"
	"time"

	"github.com/kbukum/slotpipe/validation"
	"github.com/kbukum/slotpipe/wait"
)

// DefaultName is used when Config.Name is empty.
const DefaultName = "slotpipe"

// Config configures a pipeline run.
type Config struct {
	// Name identifies the pipeline in logs, metrics and health reports.
	Name string `yaml:"name" mapstructure:"name"`
	// Workers is the number of transform goroutines. Each slot array holds
	// Workers+1 items.
	Workers int `yaml:"workers" mapstructure:"workers" validate:"min=1"`
	// Backoff selects how a stage waits when no slot is usable.
	Backoff wait.Policy `yaml:"backoff" mapstructure:"backoff" validate:"oneof=semaphore poll"`
	// PollInterval is the sleep between rescans with the poll policy.
	PollInterval time.Duration `yaml:"poll_interval" mapstructure:"poll_interval" validate:"gte=0"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = DefaultName
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Backoff == "" {
		c.Backoff = wait.PolicySemaphore
	}
	if c.PollInterval == 0 {
		c.PollInterval = wait.DefaultPollInterval
	}
}

// Validate checks the configuration. It returns an *errors.AppError with
// code INVALID_CONFIG listing every bad field.
func (c *Config) Validate() error {
	return validation.Validate(c)
}

// Slots returns the capacity of each slot array.
func (c *Config) Slots() int {
	return c.Workers + 1
}

func (c *Config) newWaiter() wait.Waiter {
	w, err := wait.New(c.Backoff, c.PollInterval)
	if err != nil {
		// Validate rejects unknown policies before any waiter is built.
		panic(err)
	}
	return w
}
