package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	envPrefix  = "CHATGRAPH_"
	envFileKey = "CHATGRAPH_CONFIG"
)

// listKeys are the keys whose environment values are comma-separated lists.
var listKeys = map[string]struct{}{
	"anonymization_names": {},
}

// splitList splits a comma-separated value, trimming items and dropping
// empty ones.
func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadOption customizes Load.
type LoadOption func(*loadOptions)

type loadOptions struct {
	path      string
	overrides map[string]any
}

// WithFile loads the YAML file at path instead of the one named by
// CHATGRAPH_CONFIG. An empty path is ignored.
func WithFile(path string) LoadOption {
	return func(o *loadOptions) {
		if path != "" {
			o.path = path
		}
	}
}

// WithOverrides applies values keyed by koanf tag after every other layer.
// The CLI uses it for flags set explicitly by the user.
func WithOverrides(values map[string]any) LoadOption {
	return func(o *loadOptions) {
		o.overrides = values
	}
}

// Load builds a Config by layering defaults, optional file, env vars and overrides.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) from WithFile or CHATGRAPH_CONFIG
//  3. env (prefix CHATGRAPH_)
//  4. overrides
func Load(ctx context.Context, opts ...LoadOption) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	o := loadOptions{path: os.Getenv(envFileKey)}
	for _, opt := range opts {
		opt(&o)
	}

	base := New()
	k := koanf.New(".")

	if o.path != "" {
		if err := k.Load(file.Provider(o.path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, o.path, err)
		}
	}

	// CHATGRAPH_TOP_N -> top_n. Underscores are kept to match the koanf tags.
	// List keys take comma-separated values.
	envProvider := env.ProviderWithValue(envPrefix, ".", func(key, value string) (string, interface{}) {
		key = strings.TrimPrefix(strings.ToLower(key), strings.ToLower(envPrefix))
		if _, ok := listKeys[key]; ok {
			return key, splitList(value)
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}
	// The config file pointer is not a setting.
	k.Delete("config")

	for key, value := range o.overrides {
		if err := k.Set(key, value); err != nil {
			return nil, fmt.Errorf("%w: override %s: %w", ErrLoadConfig, key, err)
		}
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
