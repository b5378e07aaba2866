package bootstrap

import (
	"github.com/kbukum/slotpipe/config"
)

// Config is the constraint for application configuration types. A struct
// that embeds config.ServiceConfig satisfies it through promoted methods.
//
//	type MyConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Pipeline pipeline.Config `yaml:"pipeline" mapstructure:"pipeline"`
//	}
type Config interface {
	config.Config
	GetServiceConfig() *config.ServiceConfig
}
