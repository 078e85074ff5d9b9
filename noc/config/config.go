// Package config provides the named key lookups that routers, terminals and
// networks read their parameters from.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrMissingKey is returned when a required key is not configured.
var ErrMissingKey = errors.New("missing configuration key")

// ErrInvalidValue is returned when a key holds a value of the wrong type.
var ErrInvalidValue = errors.New("invalid configuration value")

// A Source exposes named integer, real and string lookups.
type Source interface {
	GetInt(key string) (int, error)
	GetFloat(key string) (float64, error)
	GetStr(key string) (string, error)
}

// Config is a Source backed by a map from key to value. Values keep the type
// they were set with. Integers are also readable as floats.
type Config struct {
	values map[string]any
}

// New creates an empty Config.
func New() *Config {
	return &Config{values: make(map[string]any)}
}

// Defaults returns a Config that holds the default value of every key known
// to the simulator.
func Defaults() *Config {
	c := New()

	c.Set("st_prepare_delay", 0)
	c.Set("st_final_delay", 1)
	c.Set("credit_delay", 1)
	c.Set("input_speedup", 1)
	c.Set("output_speedup", 1)
	c.Set("internal_speedup", 1.0)
	c.Set("router", "iq")
	c.Set("topology", "mesh")

	c.Set("routing_function", "dor")
	c.Set("arbiter", "round_robin")
	c.Set("num_vcs", 4)
	c.Set("vc_buf_size", 4)
	c.Set("event_buf_size", 8)
	c.Set("multi_queue_size", 4)
	c.Set("deroute_threshold", 8)

	c.Set("k", 4)
	c.Set("n", 2)
	c.Set("channel_latency", 1)
	c.Set("credit_latency", 1)
	c.Set("network_file", "")

	c.Set("traffic", "uniform")
	c.Set("injection_rate", 0.1)
	c.Set("packet_size", 4)
	c.Set("seed_name", "nocsim")
	c.Set("sim_cycles", 10000)

	return c
}

// Set assigns a value to a key. Only int, float64 and string values are
// accepted.
func (c *Config) Set(key string, value any) {
	switch v := value.(type) {
	case int, float64, string:
		c.values[key] = v
	case float32:
		c.values[key] = float64(v)
	case int64:
		c.values[key] = int(v)
	default:
		panic(fmt.Sprintf("config key %s: unsupported type %T", key, value))
	}
}

// Merge copies every key of other into c, overriding existing values.
func (c *Config) Merge(other *Config) {
	for k, v := range other.values {
		c.values[k] = v
	}
}

// Keys returns the configured keys in sorted order.
func (c *Config) Keys() []string {
	keys := make([]string, 0, len(c.values))
	for k := range c.values {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Has tells if the key is configured.
func (c *Config) Has(key string) bool {
	_, found := c.values[key]
	return found
}

// GetInt returns the integer value of key.
func (c *Config) GetInt(key string) (int, error) {
	v, found := c.values[key]
	if !found {
		return 0, fmt.Errorf("%w: %s", ErrMissingKey, key)
	}

	i, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("%w: %s is %T, not an integer",
			ErrInvalidValue, key, v)
	}

	return i, nil
}

// GetFloat returns the real value of key.
func (c *Config) GetFloat(key string) (float64, error) {
	v, found := c.values[key]
	if !found {
		return 0, fmt.Errorf("%w: %s", ErrMissingKey, key)
	}

	switch f := v.(type) {
	case float64:
		return f, nil
	case int:
		return float64(f), nil
	default:
		return 0, fmt.Errorf("%w: %s is %T, not a number",
			ErrInvalidValue, key, v)
	}
}

// GetStr returns the string value of key. Numbers, which overrides and env
// files produce for any numeric text, are formatted back into strings.
func (c *Config) GetStr(key string) (string, error) {
	v, found := c.values[key]
	if !found {
		return "", fmt.Errorf("%w: %s", ErrMissingKey, key)
	}

	switch s := v.(type) {
	case string:
		return s, nil
	case int:
		return strconv.Itoa(s), nil
	case float64:
		return strconv.FormatFloat(s, 'g', -1, 64), nil
	default:
		return "", fmt.Errorf("%w: %s is %T, not a string",
			ErrInvalidValue, key, v)
	}
}

// LoadYAML reads a flat YAML mapping of keys to scalar values.
func (c *Config) LoadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config %s: %w", path, err)
	}

	raw := make(map[string]any)

	err = yaml.Unmarshal(data, &raw)
	if err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}

	for k, v := range raw {
		switch v.(type) {
		case int, float64, string:
			c.values[k] = v
		case bool:
			return fmt.Errorf("%w: %s in %s is a boolean",
				ErrInvalidValue, k, path)
		default:
			return fmt.Errorf("%w: %s in %s is not a scalar",
				ErrInvalidValue, k, path)
		}
	}

	return nil
}

// LoadEnvFile applies the key=value pairs of a dotenv file as overrides.
func (c *Config) LoadEnvFile(path string) error {
	pairs, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("reading env file %s: %w", path, err)
	}

	for k, v := range pairs {
		c.values[k] = parseScalar(v)
	}

	return nil
}

// ParseOverride applies a single "key=value" override, as given on the
// command line.
func (c *Config) ParseOverride(assignment string) error {
	key, value, found := strings.Cut(assignment, "=")
	key = strings.TrimSpace(key)

	if !found || key == "" {
		return fmt.Errorf("%w: override %q is not key=value",
			ErrInvalidValue, assignment)
	}

	c.values[key] = parseScalar(strings.TrimSpace(value))

	return nil
}

func parseScalar(s string) any {
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}

	return s
}
