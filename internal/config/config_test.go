package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestManager_ReadWrite_RoundTrip(t *testing.T) {
	original := &Config{
		BaseDir:        "/home/user/.local/share/gar",
		LogDir:         "/home/user/.local/share/gar/log",
		Regions:        []string{"77", "99"},
		HouseTypes:     []int64{2, 5},
		Tables:         []string{"house", "house_param", "house_type", "param_type"},
		RetainInactive: []string{"addr_obj"},
		Workers:        4,
		Database:       DatabaseConfig{Type: "sqlite", DataDir: "/home/user/.local/share/gar/db"},
		Source: SourceConfig{
			VersionListURL: "https://fias.test/versions",
			TempDir:        "/home/user/.local/share/gar/tmp",
		},
	}

	var buf bytes.Buffer
	m := &Manager{}

	if err := m.Write(&buf, original); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	got, err := m.Read(&buf)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}

	if got.BaseDir != original.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, original.BaseDir)
	}
	if got.LogDir != original.LogDir {
		t.Errorf("LogDir = %q, want %q", got.LogDir, original.LogDir)
	}
	if len(got.Regions) != 2 || got.Regions[0] != "77" {
		t.Errorf("Regions = %v, want %v", got.Regions, original.Regions)
	}
	if len(got.HouseTypes) != 2 || got.HouseTypes[1] != 5 {
		t.Errorf("HouseTypes = %v, want %v", got.HouseTypes, original.HouseTypes)
	}
	if len(got.Tables) != 4 {
		t.Fatalf("len(Tables) = %d, want 4", len(got.Tables))
	}
	if len(got.RetainInactive) != 1 || got.RetainInactive[0] != "addr_obj" {
		t.Errorf("RetainInactive = %v, want [addr_obj]", got.RetainInactive)
	}
	if got.Workers != 4 {
		t.Errorf("Workers = %d, want 4", got.Workers)
	}
	if got.Database.Type != "sqlite" {
		t.Errorf("Database.Type = %q, want %q", got.Database.Type, "sqlite")
	}
	if got.Source.VersionListURL != original.Source.VersionListURL {
		t.Errorf("Source.VersionListURL = %q, want %q", got.Source.VersionListURL, original.Source.VersionListURL)
	}
	if got.Source.TempDir != original.Source.TempDir {
		t.Errorf("Source.TempDir = %q, want %q", got.Source.TempDir, original.Source.TempDir)
	}
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("/data/gar")

	if cfg.BaseDir != "/data/gar" {
		t.Errorf("BaseDir = %q, want %q", cfg.BaseDir, "/data/gar")
	}
	if cfg.LogDir != "/data/gar/log" {
		t.Errorf("LogDir = %q, want %q", cfg.LogDir, "/data/gar/log")
	}
	if cfg.Database.Type != "sqlite" || cfg.Database.DataDir != "/data/gar/db" {
		t.Errorf("Database = %+v, want sqlite under the base dir", cfg.Database)
	}
	if cfg.Source.TempDir != "/data/gar/tmp" {
		t.Errorf("Source.TempDir = %q, want %q", cfg.Source.TempDir, "/data/gar/tmp")
	}
	if cfg.Workers != 1 {
		t.Errorf("Workers = %d, want 1", cfg.Workers)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		wantOK bool
	}{
		{"defaults pass", func(c *Config) {}, true},
		{"known tables pass", func(c *Config) { c.Tables = []string{"house", "addr_obj"} }, true},
		{"unknown table fails", func(c *Config) { c.Tables = []string{"steads"} }, false},
		{"unknown retain table fails", func(c *Config) { c.RetainInactive = []string{"steads"} }, false},
		{"retain without isactive fails", func(c *Config) { c.RetainInactive = []string{"house_param"} }, false},
		{"retain with isactive passes", func(c *Config) { c.RetainInactive = []string{"house"} }, true},
		{"two-digit regions pass", func(c *Config) { c.Regions = []string{"01", "99"} }, true},
		{"long region fails", func(c *Config) { c.Regions = []string{"123"} }, false},
		{"non-numeric region fails", func(c *Config) { c.Regions = []string{"9x"} }, false},
		{"bad house type fails", func(c *Config) { c.HouseTypes = []int64{0} }, false},
		{"negative workers fail", func(c *Config) { c.Workers = -1 }, false},
		{"unknown database type fails", func(c *Config) { c.Database.Type = "oracle" }, false},
		{"memory database passes", func(c *Config) { c.Database = DatabaseConfig{Type: "memory"} }, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewConfig("/data/gar")
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.wantOK && err != nil {
				t.Errorf("Validate() error = %v, want none", err)
			}
			if !tc.wantOK && err == nil {
				t.Error("Validate() error = nil, want failure")
			}
		})
	}
}

func TestTableNames(t *testing.T) {
	cfg := NewConfig("/data/gar")
	cfg.Tables = []string{"house", "addr_obj"}
	cfg.RetainInactive = []string{"addr_obj"}

	names := cfg.TableNames()
	if len(names) != 2 || string(names[0]) != "house" {
		t.Errorf("TableNames() = %v", names)
	}
	retain := cfg.RetainInactiveNames()
	if len(retain) != 1 || string(retain[0]) != "addr_obj" {
		t.Errorf("RetainInactiveNames() = %v", retain)
	}
}

func TestInit(t *testing.T) {
	t.Run("creates config file", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "gar.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		if _, err := os.Stat(path); err != nil {
			t.Fatalf("config file not created: %v", err)
		}
	})

	t.Run("fails if file already exists", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "gar.toml")
		cfg := NewConfig(dir)

		if err := Init(path, cfg); err != nil {
			t.Fatalf("first Init() error = %v", err)
		}

		err := Init(path, cfg)
		if err == nil {
			t.Fatal("second Init() expected error")
		}
	})
}

func TestReadFromFile(t *testing.T) {
	t.Run("reads valid config", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "gar.toml")
		cfg := NewConfig(dir)
		cfg.Database = DatabaseConfig{Type: "memory"}

		if err := Init(path, cfg); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		got, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if got.Database.Type != "memory" {
			t.Errorf("Database.Type = %q, want %q", got.Database.Type, "memory")
		}
	})

	t.Run("returns error for missing file", func(t *testing.T) {
		_, err := ReadFromFile("/nonexistent/path/gar.toml")
		if err == nil {
			t.Fatal("ReadFromFile() expected error for missing file")
		}
	})
}
