package lock

import (
	"errors"
	"scopedlock/pkg/concurrency/primitive"
	lockerr "scopedlock/pkg/error"
	"strconv"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Kind != primitive.ReaderWriter {
		t.Errorf("Expected readerWriter kind, got %v", cfg.Kind)
	}
	if cfg.DefaultTimeout != 5*time.Second {
		t.Errorf("Expected 5s default timeout, got %v", cfg.DefaultTimeout)
	}
	if cfg.Fairness != primitive.WriterPreferred {
		t.Errorf("Expected writer preference, got %v", cfg.Fairness)
	}
	if !cfg.OwnerChecks {
		t.Error("Expected owner checks enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default config invalid: %v", err)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"no timeout", func(c *Config) { c.DefaultTimeout = NoTimeout }, false},
		{"zero timeout", func(c *Config) { c.DefaultTimeout = 0 }, true},
		{"unknown kind", func(c *Config) { c.Kind = primitive.Kind(9) }, true},
		{"unknown fairness", func(c *Config) { c.Fairness = primitive.Fairness(9) }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				if cat, ok := lockerr.CategoryOf(err); !ok || cat != lockerr.ErrCategoryUser {
					t.Errorf("Expected user error, got %v", err)
				}
			}
		})
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Run("unset", func(t *testing.T) {
		t.Setenv(EnvKind, "")
		t.Setenv(EnvTimeout, "")
		t.Setenv(EnvFairness, "")
		t.Setenv(EnvOwnerChecks, "")

		cfg, err := LoadConfigFromEnv()
		if err != nil {
			t.Fatalf("LoadConfigFromEnv failed: %v", err)
		}
		if cfg != DefaultConfig() {
			t.Errorf("Expected defaults, got %+v", cfg)
		}
	})

	t.Run("overrides", func(t *testing.T) {
		t.Setenv(EnvKind, "exclusiveOnly")
		t.Setenv(EnvTimeout, "250ms")
		t.Setenv(EnvFairness, "readerPreferred")
		t.Setenv(EnvOwnerChecks, "false")

		cfg, err := LoadConfigFromEnv()
		if err != nil {
			t.Fatalf("LoadConfigFromEnv failed: %v", err)
		}
		want := Config{
			Kind:           primitive.ExclusiveOnly,
			DefaultTimeout: 250 * time.Millisecond,
			Fairness:       primitive.ReaderPreferred,
			OwnerChecks:    false,
		}
		if cfg != want {
			t.Errorf("Expected %+v, got %+v", want, cfg)
		}
	})

	invalid := map[string]string{
		EnvKind:        "spinlock",
		EnvTimeout:     "soon",
		EnvFairness:    "random",
		EnvOwnerChecks: "maybe",
	}
	for key, value := range invalid {
		t.Run("invalid "+key, func(t *testing.T) {
			t.Setenv(key, value)
			if _, err := LoadConfigFromEnv(); err == nil {
				t.Errorf("Expected error for %s=%q", key, value)
			}
		})
	}

	t.Run("parse failure keeps cause", func(t *testing.T) {
		t.Setenv(EnvOwnerChecks, "maybe")
		_, err := LoadConfigFromEnv()
		if !errors.Is(err, strconv.ErrSyntax) {
			t.Errorf("Expected the strconv error as cause, got %v", err)
		}
		var e *lockerr.Error
		if !errors.As(err, &e) {
			t.Fatalf("Expected *Error, got %T", err)
		}
		if e.Code != "INVALID_CONFIG" || e.Category != lockerr.ErrCategoryUser || e.Detail != EnvOwnerChecks {
			t.Errorf("Unexpected error fields %+v", e)
		}
		if e.Operation != "LoadConfigFromEnv" || e.Component != "Config" {
			t.Errorf("Expected LoadConfigFromEnv/Config, got %s/%s", e.Operation, e.Component)
		}
	})

	t.Run("zero timeout", func(t *testing.T) {
		t.Setenv(EnvTimeout, "0s")
		_, err := LoadConfigFromEnv()
		var e *lockerr.Error
		if !errors.As(err, &e) || e.Code != "INVALID_CONFIG" {
			t.Errorf("Expected INVALID_CONFIG, got %v", err)
		}
	})
}
