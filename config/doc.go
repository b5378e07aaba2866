// Package config loads application configuration from a YAML file, a .env
// file and the process environment.
//
// # Usage
//
//	type Config struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Pipeline pipeline.Config `yaml:"pipeline" mapstructure:"pipeline"`
//	}
//
//	var cfg Config
//	err := config.Load("slotcat", &cfg, config.WithEnvPrefix("SLOTCAT"))
//
// Sources are layered: config.yml first, then environment variables, with a
// .env file loaded into the environment before binding. Environment keys are
// lower-cased and matched against nested keys, so SLOTCAT_PIPELINE_WORKERS
// sets pipeline.workers.
package config
