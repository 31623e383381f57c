// internal/config/config.go
//
// This package handles configuration and the .timebox directory structure.
// Every project that uses timebox gets a .timebox/ folder created in its root.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// TimeboxDir is the name of the directory we create in each project
	TimeboxDir = ".timebox"

	// Storage backends understood by internal/kv.
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"

	// DefaultTick is the wall-clock sampling cadence while a task runs.
	DefaultTick = time.Second

	minTick = 100 * time.Millisecond
	maxTick = time.Minute
)

const defaultProjectConfigYAML = `# timebox project configuration
version: 1

# Where task state is persisted. backend is one of: file, sqlite, memory.
# path is optional and resolved relative to the project directory.
storage:
  backend: file

timer:
  # How often the clock is sampled while a task is running.
  tick: 1s
  # Starting a completed task begins a fresh run. Set to false to make
  # completion final.
  allow_restart: true

notify:
  # Ring the terminal bell when a task's allocation runs out.
  bell: true
`

// StorageConfig selects the durable key-value backend.
type StorageConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path,omitempty"`
}

// TimerConfig tunes the sampler and restart policy.
type TimerConfig struct {
	Tick         time.Duration `yaml:"tick"`
	AllowRestart bool          `yaml:"allow_restart"`
}

// NotifyConfig controls the expiry side-channel.
type NotifyConfig struct {
	Bell *bool `yaml:"bell,omitempty"`
}

// ProjectConfig models .timebox/config.yaml.
type ProjectConfig struct {
	Version int           `yaml:"version"`
	Storage StorageConfig `yaml:"storage"`
	Timer   TimerConfig   `yaml:"timer"`
	Notify  NotifyConfig  `yaml:"notify"`
}

// Config holds the runtime configuration for timebox.
type Config struct {
	// ProjectDir is the directory where the user ran `timebox` from
	// (or TIMEBOX_HOME when set)
	ProjectDir string

	// TimeboxProjectDir is ProjectDir/.timebox
	TimeboxProjectDir string

	Project ProjectConfig
}

// InitTimeboxDir creates the .timebox directory structure in the given project directory.
//
// Structure created:
// .timebox/
// ├── config.yaml
// ├── logs/         <- debug and activity logs
// └── state/        <- persisted task store
func InitTimeboxDir(projectDir string) error {
	timeboxDir := filepath.Join(projectDir, TimeboxDir)

	dirs := []string{
		filepath.Join(timeboxDir, "logs"),
		filepath.Join(timeboxDir, "state"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	if err := ensureProjectConfig(filepath.Join(timeboxDir, "config.yaml")); err != nil {
		return err
	}

	return nil
}

// NewConfig creates a new Config instance populated with project settings.
// Environment overrides are applied after the YAML file is read.
func NewConfig(projectDir string) (*Config, error) {
	cfg := &Config{
		ProjectDir:        projectDir,
		TimeboxProjectDir: filepath.Join(projectDir, TimeboxDir),
		Project:           defaultProjectConfig(),
	}

	if err := cfg.loadProjectConfig(); err != nil {
		return nil, err
	}

	overrides, err := loadEnvOverrides()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	overrides.apply(&cfg.Project)
	cfg.Project.normalize()
	if err := cfg.Project.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

// LogsDir returns the path to the logs directory
func (c *Config) LogsDir() string {
	return filepath.Join(c.TimeboxProjectDir, "logs")
}

// StateDir returns the path to the state directory
func (c *Config) StateDir() string {
	return filepath.Join(c.TimeboxProjectDir, "state")
}

// ProjectConfigPath returns the on-disk location for the project config file.
func (c *Config) ProjectConfigPath() string {
	return filepath.Join(c.TimeboxProjectDir, "config.yaml")
}

// DebugLogPath is where internal/logging writes.
func (c *Config) DebugLogPath() string {
	return filepath.Join(c.LogsDir(), "timebox.log")
}

// ActivityLogPath is where the user-facing logbook lives.
func (c *Config) ActivityLogPath() string {
	return filepath.Join(c.LogsDir(), "activity.log")
}

// Backend returns the configured storage backend.
func (c *Config) Backend() string {
	return c.Project.Storage.Backend
}

// StorePath returns the file backing the configured backend. It is empty for
// the memory backend.
func (c *Config) StorePath() string {
	if path := c.Project.Storage.Path; path != "" {
		return resolvePath(c.ProjectDir, path)
	}
	switch c.Backend() {
	case BackendSQLite:
		return filepath.Join(c.StateDir(), "store.db")
	case BackendFile:
		return filepath.Join(c.StateDir(), "store.json")
	}
	return ""
}

// TickInterval returns the sampler cadence.
func (c *Config) TickInterval() time.Duration {
	return c.Project.Timer.Tick
}

// AllowRestart reports whether completed tasks may be started again.
func (c *Config) AllowRestart() bool {
	return c.Project.Timer.AllowRestart
}

// BellEnabled reports whether the terminal bell rings on expiry.
func (c *Config) BellEnabled() bool {
	if c.Project.Notify.Bell == nil {
		return true
	}
	return *c.Project.Notify.Bell
}

// SetBackend updates the storage backend and persists the value back to
// .timebox/config.yaml. Only the storage section of the file changes;
// environment overrides stay out of it. Existing state is not migrated
// between backends.
func (c *Config) SetBackend(backend string) error {
	backend = normalizeBackend(backend)
	if backend == "" {
		return fmt.Errorf("config: backend is required")
	}
	onDisk, err := c.readProjectConfig()
	if err != nil {
		return err
	}
	onDisk.Storage = StorageConfig{Backend: backend}
	if err := c.saveProjectConfig(onDisk); err != nil {
		return err
	}
	c.Project.Storage = onDisk.Storage
	return nil
}

func (c *Config) loadProjectConfig() error {
	parsed, err := c.readProjectConfig()
	if err != nil {
		return err
	}
	c.Project = parsed
	return nil
}

// readProjectConfig returns the defaults merged with config.yaml, without
// environment overrides.
func (c *Config) readProjectConfig() (ProjectConfig, error) {
	parsed := defaultProjectConfig()
	path := c.ProjectConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return parsed, nil
		}
		return ProjectConfig{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return ProjectConfig{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	parsed.applyDefaults()
	parsed.normalize()
	if err := parsed.validate(); err != nil {
		return ProjectConfig{}, fmt.Errorf("config: %w", err)
	}
	return parsed, nil
}

func defaultProjectConfig() ProjectConfig {
	return ProjectConfig{
		Version: 1,
		Storage: StorageConfig{Backend: BackendFile},
		Timer:   TimerConfig{Tick: DefaultTick, AllowRestart: true},
	}
}

func (pc *ProjectConfig) applyDefaults() {
	if pc.Version == 0 {
		pc.Version = 1
	}
	if strings.TrimSpace(pc.Storage.Backend) == "" {
		pc.Storage.Backend = BackendFile
	}
	if pc.Timer.Tick == 0 {
		pc.Timer.Tick = DefaultTick
	}
}

func (pc *ProjectConfig) normalize() {
	pc.Storage.Backend = normalizeBackend(pc.Storage.Backend)
	pc.Storage.Path = strings.TrimSpace(pc.Storage.Path)
}

func (pc *ProjectConfig) validate() error {
	if pc.Version < 1 {
		return fmt.Errorf("config version must be >= 1")
	}
	switch pc.Storage.Backend {
	case BackendFile, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("storage.backend must be 'file', 'sqlite' or 'memory'")
	}
	if pc.Storage.Backend == BackendMemory && pc.Storage.Path != "" {
		return fmt.Errorf("storage.path is not used by the memory backend")
	}
	if pc.Timer.Tick < minTick || pc.Timer.Tick > maxTick {
		return fmt.Errorf("timer.tick must be between %s and %s", minTick, maxTick)
	}
	return nil
}

func normalizeBackend(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

func resolvePath(base, candidate string) string {
	trimmed := strings.TrimSpace(candidate)
	if trimmed == "" {
		return ""
	}
	if filepath.IsAbs(trimmed) {
		return filepath.Clean(trimmed)
	}
	return filepath.Clean(filepath.Join(base, trimmed))
}

func ensureProjectConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return os.WriteFile(path, []byte(defaultProjectConfigYAML), 0644)
}

func (c *Config) saveProjectConfig(pc ProjectConfig) error {
	if c == nil {
		return fmt.Errorf("config: nil receiver")
	}
	pc.applyDefaults()
	pc.normalize()
	if err := pc.validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := os.MkdirAll(c.TimeboxProjectDir, 0o755); err != nil {
		return fmt.Errorf("config: ensure timebox dir: %w", err)
	}
	data, err := yaml.Marshal(pc)
	if err != nil {
		return fmt.Errorf("config: encode config: %w", err)
	}
	if err := os.WriteFile(c.ProjectConfigPath(), data, 0644); err != nil {
		return fmt.Errorf("config: write project config: %w", err)
	}
	return nil
}
