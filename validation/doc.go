// Package validation validates configuration structs with struct tags.
//
// Tags follow go-playground/validator syntax. Field names in messages come
// from the mapstructure tag, so they match the keys used in config files:
//
//	type Config struct {
//	    Workers int `mapstructure:"workers" validate:"min=1"`
//	}
//	err := validation.Validate(cfg)
package validation
