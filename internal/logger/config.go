package logger

import (
	"io"
)

// Output formats.
const (
	FormatPlain   = "plain"
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Config contains logging configuration.
// Allowed values are declared in the validate tags and checked by the
// caller's validator.
type Config struct {
	Level     string `yaml:"level" mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error fatal disabled"`
	Format    string `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=plain console json"`
	Output    string `yaml:"output" mapstructure:"output" validate:"omitempty,oneof=stdout stderr"`
	NoColor   bool   `yaml:"no_color" mapstructure:"no_color"`
	Timestamp bool   `yaml:"timestamp" mapstructure:"timestamp"`

	// Writer overrides Output when set.
	Writer io.Writer `yaml:"-" mapstructure:"-"`
}

// ApplyDefaults applies default values to logging configuration.
func (c *Config) ApplyDefaults() {
	if c.Level == "" {
		c.Level = "info"
	}
	if c.Format == "" {
		c.Format = FormatPlain
	}
	if c.Output == "" {
		c.Output = "stdout"
	}
}
