package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DefaultMaxResults is the default result cap per query.
const DefaultMaxResults = 10_000_000

// Config represents the main configuration for aos.
type Config struct {
	CatalogRoot string       `toml:"catalog_root"`
	LogDir      string       `toml:"log_dir"`
	LockFile    string       `toml:"lock_file,omitempty"`
	S3          S3Config     `toml:"s3"`
	Scan        ScanConfig   `toml:"scan"`
	Search      SearchConfig `toml:"search"`
}

// S3Config selects how the bucket-listing client authenticates and where
// it connects. All fields are optional; empty values defer to the ambient
// AWS configuration chain.
type S3Config struct {
	Region          string `toml:"region,omitempty"`
	Profile         string `toml:"profile,omitempty"`
	Endpoint        string `toml:"endpoint,omitempty"` // S3-compatible endpoints (path-style)
	AccessKeyID     string `toml:"access_key_id,omitempty"`
	SecretAccessKey string `toml:"secret_access_key,omitempty"`
}

// ScanConfig holds scan-stage settings.
type ScanConfig struct {
	BucketPrefix string `toml:"bucket_prefix,omitempty"`
	Compress     bool   `toml:"compress"` // write .tsv.gz snapshots
}

// SearchConfig holds query-stage settings.
type SearchConfig struct {
	MaxResults int `toml:"max_results"`
}

// NewConfig creates a Config with default paths under baseDir.
func NewConfig(baseDir string) *Config {
	return &Config{
		CatalogRoot: filepath.Join(baseDir, "s3_objects"),
		LogDir:      filepath.Join(baseDir, "log"),
		Search:      SearchConfig{MaxResults: DefaultMaxResults},
	}
}

// IndexPath returns where the search index lives, inside the catalog root.
// The name cannot collide with snapshot files, which always carry a .tsv
// extension.
func (c *Config) IndexPath() string {
	return filepath.Join(c.CatalogRoot, "index")
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Search.MaxResults <= 0 {
		cfg.Search.MaxResults = DefaultMaxResults
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
// This is an internal helper and should not be exported.
func writeToFile(path string, cfg *Config) error {
	// Ensure the directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
