package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// envOverrides mirrors the subset of ProjectConfig that may be overridden
// from the environment. Unset variables leave the YAML value untouched.
type envOverrides struct {
	Home         string        `env:"TIMEBOX_HOME"`
	Backend      string        `env:"TIMEBOX_BACKEND"`
	StorePath    string        `env:"TIMEBOX_STORE_PATH"`
	Tick         time.Duration `env:"TIMEBOX_TICK"`
	Bell         *bool         `env:"TIMEBOX_BELL"`
	AllowRestart *bool         `env:"TIMEBOX_ALLOW_RESTART"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

func loadEnvOverrides() (envOverrides, error) {
	var overrides envOverrides
	if err := ParseEnv(&overrides); err != nil {
		return envOverrides{}, err
	}
	return overrides, nil
}

func (o envOverrides) apply(pc *ProjectConfig) {
	if backend := strings.TrimSpace(o.Backend); backend != "" {
		pc.Storage.Backend = backend
		pc.Storage.Path = ""
	}
	if path := strings.TrimSpace(o.StorePath); path != "" {
		pc.Storage.Path = path
	}
	if o.Tick > 0 {
		pc.Timer.Tick = o.Tick
	}
	if o.Bell != nil {
		bell := *o.Bell
		pc.Notify.Bell = &bell
	}
	if o.AllowRestart != nil {
		pc.Timer.AllowRestart = *o.AllowRestart
	}
}

// ResolveProjectDir returns TIMEBOX_HOME when set, otherwise fallback.
func ResolveProjectDir(fallback string) (string, error) {
	overrides, err := loadEnvOverrides()
	if err != nil {
		return "", fmt.Errorf("config: %w", err)
	}
	home := strings.TrimSpace(overrides.Home)
	if home == "" {
		return fallback, nil
	}
	abs, err := filepath.Abs(home)
	if err != nil {
		return "", fmt.Errorf("config: resolve TIMEBOX_HOME: %w", err)
	}
	return abs, nil
}
