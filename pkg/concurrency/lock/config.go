package lock

import (
	"fmt"
	"os"
	"scopedlock/pkg/concurrency/primitive"
	lockerr "scopedlock/pkg/error"
	"strconv"
	"time"
)

const (
	// UseDefault as a timeout selects the lock's default timeout.
	UseDefault time.Duration = 0
	// NoTimeout as a timeout waits until the lock becomes available.
	NoTimeout time.Duration = -1
)

// Environment variables read by LoadConfigFromEnv.
const (
	EnvKind        = "SCOPEDLOCK_KIND"
	EnvTimeout     = "SCOPEDLOCK_TIMEOUT"
	EnvFairness    = "SCOPEDLOCK_FAIRNESS"
	EnvOwnerChecks = "SCOPEDLOCK_OWNER_CHECKS"
)

// Config holds the settings a Factory applies to the locks it creates.
type Config struct {
	Kind primitive.Kind
	// DefaultTimeout applies when a call passes UseDefault. It must not be
	// zero; NoTimeout (any negative value) waits forever.
	DefaultTimeout time.Duration
	Fairness       primitive.Fairness
	// OwnerChecks records the acquiring goroutine on every handle and rejects
	// use from other goroutines and re-entrant acquisition.
	OwnerChecks bool
}

// DefaultConfig returns a writer-preferred reader/writer configuration with
// a 5 second default timeout and owner checks enabled.
func DefaultConfig() Config {
	return Config{
		Kind:           primitive.ReaderWriter,
		DefaultTimeout: 5 * time.Second,
		Fairness:       primitive.WriterPreferred,
		OwnerChecks:    true,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.Kind != primitive.ExclusiveOnly && c.Kind != primitive.ReaderWriter:
		return invalidConfig("unknown kind %v", c.Kind)
	case c.Fairness != primitive.WriterPreferred && c.Fairness != primitive.ReaderPreferred:
		return invalidConfig("unknown fairness %v", c.Fairness)
	case c.DefaultTimeout == UseDefault:
		return invalidConfig("default timeout must be positive or NoTimeout")
	}
	return nil
}

func invalidConfig(format string, args ...any) error {
	err := lockerr.New(lockerr.ErrCategoryUser, "INVALID_CONFIG", "invalid lock configuration")
	err.Detail = fmt.Sprintf(format, args...)
	err.Component = "Config"
	return err
}

// envErr wraps a parse failure of the named variable, keeping it as Cause.
func envErr(name string, err error) error {
	e := lockerr.Wrap(err, "INVALID_CONFIG", "LoadConfigFromEnv", "Config")
	e.Category = lockerr.ErrCategoryUser
	e.Detail = name
	return e
}

// LoadConfigFromEnv starts from DefaultConfig and overrides every field whose
// environment variable is set.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv(EnvKind); v != "" {
		kind, err := primitive.ParseKind(v)
		if err != nil {
			return Config{}, err
		}
		cfg.Kind = kind
	}

	if v := os.Getenv(EnvTimeout); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, envErr(EnvTimeout, err)
		}
		cfg.DefaultTimeout = d
	}

	if v := os.Getenv(EnvFairness); v != "" {
		f, err := primitive.ParseFairness(v)
		if err != nil {
			return Config{}, err
		}
		cfg.Fairness = f
	}

	if v := os.Getenv(EnvOwnerChecks); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, envErr(EnvOwnerChecks, err)
		}
		cfg.OwnerChecks = b
	}

	return cfg, cfg.Validate()
}
