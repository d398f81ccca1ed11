package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"gar-go/internal/gar"
)

// Config represents the main configuration for gar.
type Config struct {
	BaseDir string `toml:"base_dir"`
	LogDir  string `toml:"log_dir"`

	// Regions restricts regional tables to the listed two-digit codes;
	// empty means every region.
	Regions []string `toml:"regions"`
	// HouseTypes restricts houses to the listed house type ids; empty
	// means every type.
	HouseTypes []int64 `toml:"house_types"`
	// Tables restricts which tables are tracked; empty means all.
	Tables []string `toml:"tables"`
	// RetainInactive lists tables whose inactive rows survive cleanup.
	RetainInactive []string `toml:"retain_inactive"`
	// Workers bounds concurrent per-file loads.
	Workers int `toml:"workers"`

	Database DatabaseConfig `toml:"database"`
	Source   SourceConfig   `toml:"source"`
}

// DatabaseConfig represents configuration for the registry database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite", "postgres" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
	DSN     string `toml:"dsn,omitempty"`      // only used for type=postgres
}

// SourceConfig configures where dumps come from.
type SourceConfig struct {
	// VersionListURL overrides the official version list endpoint.
	VersionListURL string `toml:"version_list_url,omitempty"`
	// TempDir receives downloaded archives; empty means the OS default.
	TempDir string `toml:"temp_dir,omitempty"`
}

// NewConfig creates a Config with defaults rooted at baseDir.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Workers: 1,
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Source: SourceConfig{
			TempDir: filepath.Join(baseDir, "tmp"),
		},
	}
}

// Validate rejects a config before any I/O happens: unknown table names,
// unknown database types and malformed region codes all fail here.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite", "memory", "postgres":
	default:
		return fmt.Errorf("unknown database type: %s", c.Database.Type)
	}
	for _, name := range c.Tables {
		if _, ok := gar.Tables[gar.TableName(name)]; !ok {
			return fmt.Errorf("unknown table in tables list: %s", name)
		}
	}
	for _, name := range c.RetainInactive {
		def, ok := gar.Tables[gar.TableName(name)]
		if !ok {
			return fmt.Errorf("unknown table in retain_inactive list: %s", name)
		}
		if !def.HasIsActive {
			return fmt.Errorf("table %s has no isactive flag to retain", name)
		}
	}
	for _, region := range c.Regions {
		if len(region) != 2 || region[0] < '0' || region[0] > '9' || region[1] < '0' || region[1] > '9' {
			return fmt.Errorf("bad region code %q, want two digits", region)
		}
	}
	for _, id := range c.HouseTypes {
		if id <= 0 {
			return fmt.Errorf("bad house type id %d", id)
		}
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	return nil
}

// TableNames converts the configured table list.
func (c *Config) TableNames() []gar.TableName {
	names := make([]gar.TableName, len(c.Tables))
	for i, name := range c.Tables {
		names[i] = gar.TableName(name)
	}
	return names
}

// RetainInactiveNames converts the configured retain list.
func (c *Config) RetainInactiveNames() []gar.TableName {
	names := make([]gar.TableName, len(c.RetainInactive))
	for i, name := range c.RetainInactive {
		names[i] = gar.TableName(name)
	}
	return names
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader and validates it.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
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
func writeToFile(path string, cfg *Config) error {
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
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
