package config

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/okian/pitwall/internal/domain/projection"
)

const (
	envPrefix     = "PITWALL_"
	envConfigPath = "PITWALL_CONFIG"
	// Driver names such as "Carlos Sainz Jr." contain dots, so alias keys
	// must not be split on them.
	keyDelim = "/"
)

var validate = validator.New() //nolint:gochecknoglobals // validator caches struct metadata

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New(ctx))
//  2. file (YAML) if PITWALL_CONFIG is set
//  3. env (prefix PITWALL_)
func Load(ctx context.Context) (*Config, error) {
	base := New(ctx)

	k := koanf.New(keyDelim)

	if path := os.Getenv(envConfigPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
		}
	}

	// PITWALL_REFRESH_INTERVAL_S -> refresh_interval_s. Underscores are kept
	// so flat keys match the koanf tags.
	envProvider := env.Provider(envPrefix, keyDelim, func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), strings.ToLower(envPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	cfg := *base
	// Decoding into a populated slice overwrites element-wise and keeps the
	// default tail, so a shorter table must start empty.
	if k.Exists("points_table") {
		cfg.PointsTable = nil
	}
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints and the points table ordering.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return fmt.Errorf("%w: %s failed %q (value %v)", ErrInvalidConfig, f.Namespace(), f.Tag(), f.Value())
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if err := projection.PointsTable(c.PointsTable).Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
