package jobenv

import (
	"fmt"
	"maps"
	"strconv"
	"time"
)

// Config is a flat string-keyed configuration map, the base configuration
// carried by a ResourceConfig and the form in which connection descriptors
// are published. Well-known keys live in defaults.go.
//
// Config values are treated as immutable once handed to a ResourceConfig or
// returned from an accessor; the harness always works on clones. The Set*
// methods mutate the receiver and return it for chaining during construction.
type Config map[string]string

// NewConfig returns an empty Config.
func NewConfig() Config {
	return make(Config)
}

// Clone returns an independent copy of c. A nil receiver yields an empty
// Config, so cloning is always safe.
func (c Config) Clone() Config {
	out := make(Config, len(c))
	maps.Copy(out, c)
	return out
}

// Contains reports whether key is present.
func (c Config) Contains(key string) bool {
	_, ok := c[key]
	return ok
}

// GetString returns the value at key, or def when absent.
func (c Config) GetString(key, def string) string {
	if v, ok := c[key]; ok {
		return v
	}
	return def
}

// GetInt returns the integer at key, or def when absent.
// A present but malformed value is an error.
func (c Config) GetInt(key string, def int) (int, error) {
	v, ok := c[key]
	if !ok {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("config key %s: parse %q as int: %w", key, v, err)
	}
	return n, nil
}

// GetBool returns the boolean at key, or def when absent.
// A present but malformed value is an error.
func (c Config) GetBool(key string, def bool) (bool, error) {
	v, ok := c[key]
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("config key %s: parse %q as bool: %w", key, v, err)
	}
	return b, nil
}

// GetDuration returns the duration at key, or def when absent.
// A present but malformed value is an error.
func (c Config) GetDuration(key string, def time.Duration) (time.Duration, error) {
	v, ok := c[key]
	if !ok {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config key %s: parse %q as duration: %w", key, v, err)
	}
	return d, nil
}

// Set stores a string value and returns c for chaining.
func (c Config) Set(key, value string) Config {
	c[key] = value
	return c
}

// SetInt stores an integer value and returns c for chaining.
func (c Config) SetInt(key string, value int) Config {
	c[key] = strconv.Itoa(value)
	return c
}

// SetBool stores a boolean value and returns c for chaining.
func (c Config) SetBool(key string, value bool) Config {
	c[key] = strconv.FormatBool(value)
	return c
}

// SetDuration stores a duration value and returns c for chaining.
func (c Config) SetDuration(key string, value time.Duration) Config {
	c[key] = value.String()
	return c
}
