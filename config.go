package coroo

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Config holds process-wide tunables (default stack size, internal I/O
// buffer size, and a hint for how many descriptors a single Poll call is
// expected to aggregate). It is entirely optional: every Runtime and
// every BufIO works with Go zero-value-sane defaults if no Config is
// ever loaded.
type Config struct {
	DefaultStackSize   int `toml:"default_stack_size,omitempty"`
	InternalBufferSize int `toml:"internal_buffer_size,omitempty"`
	PollBatchHint      int `toml:"poll_batch_hint,omitempty"`
}

// DefaultConfig returns the built-in defaults used whenever a field is
// left unset in a loaded Config, or no Config is loaded at all.
func DefaultConfig() Config {
	return Config{
		DefaultStackSize:   DefaultStackSize,
		InternalBufferSize: 64 * 1024,
		PollBatchHint:      16,
	}
}

// LoadConfig reads and parses a TOML config file at path, filling in any
// field left zero with its built-in default. A missing file is not an
// error — it yields the defaults, since config is meant as an optional
// override of compiled-in constants, not a required input. A
// present-but-unparseable file's go-toml error is returned unwrapped.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("coroo: reading config: %w", err)
	}

	var overrides Config
	if err := toml.Unmarshal(data, &overrides); err != nil {
		return cfg, err
	}

	if overrides.DefaultStackSize != 0 {
		cfg.DefaultStackSize = overrides.DefaultStackSize
	}
	if overrides.InternalBufferSize != 0 {
		cfg.InternalBufferSize = overrides.InternalBufferSize
	}
	if overrides.PollBatchHint != 0 {
		cfg.PollBatchHint = overrides.PollBatchHint
	}
	return cfg, nil
}
