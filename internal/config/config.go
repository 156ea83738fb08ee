package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// SourceConfig describes a single semester or theme document source.
type SourceConfig struct {
	// ID is an internal identifier used for selection and logging
	// (e.g. "spring26").
	ID string `yaml:"id" json:"id"`
	// URL is an http(s) endpoint or a local file path.
	URL string `yaml:"url" json:"url"`
}

// PreviewConfig holds the viewport for the PNG capture of /calendar.
type PreviewConfig struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the Web UI/API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the Web UI and API.
	Listen string `yaml:"listen" json:"listen"`

	// CacheDir is the base directory for the document cache and
	// generated artifacts (grid.json, preview.png).
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	// RefreshCron is a cron-style schedule (e.g. "0 6 * * *") for
	// re-fetching the semester and theme sources in serve mode.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Semesters lists the available semester document sources.
	Semesters []SourceConfig `yaml:"semesters" json:"semesters"`

	// Active selects the initially active semester by ID. Defaults to
	// the first listed semester.
	Active string `yaml:"active" json:"active"`

	// Theme is the theme document source.
	Theme SourceConfig `yaml:"theme" json:"theme"`

	// Events seeds the ledger's initial weekday selections, e.g.
	//   events:
	//     lecture: [monday, wednesday]
	//     recitation: [friday]
	Events map[string][]string `yaml:"events" json:"events"`

	// RequiredHolidays lists holiday names every semester document is
	// expected to contain (substring match); misses are warnings.
	RequiredHolidays []string `yaml:"required_holidays" json:"required_holidays"`

	// Preview controls the capture viewport.
	Preview PreviewConfig `yaml:"preview" json:"preview"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		CacheDir:    "./cache",
		RefreshCron: "0 6 * * *",
		Semesters:   []SourceConfig{},
		Events:      map[string][]string{},
		Preview:     PreviewConfig{Width: 1200, Height: 1800},
		BasicAuth:   nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.CacheDir == "" {
		c.CacheDir = "./cache"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "0 6 * * *"
	}
	if c.Semesters == nil {
		c.Semesters = []SourceConfig{}
	}
	if c.Active == "" && len(c.Semesters) > 0 {
		c.Active = c.Semesters[0].ID
	}
	if c.Events == nil {
		c.Events = map[string][]string{}
	}
	if c.Preview.Width <= 0 {
		c.Preview.Width = 1200
	}
	if c.Preview.Height <= 0 {
		c.Preview.Height = 1800
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".regcal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the
// package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
