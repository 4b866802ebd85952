// Package config provides configuration loading from sqltable.ini.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shipq/sqltable/conn"
	"github.com/shipq/sqltable/dburl"
	"github.com/shipq/sqltable/inifile"
	"github.com/shipq/sqltable/logging"
)

// ConfigFilename is the name of the config file.
const ConfigFilename = "sqltable.ini"

const section = "connection"

// ErrNotFound is returned by Load when the directory has no sqltable.ini.
var ErrNotFound = errors.New(ConfigFilename + " not found")

// Config holds everything read from sqltable.ini.
type Config struct {
	// ConfigDir is the directory containing sqltable.ini.
	ConfigDir string

	URL           string
	Path          string
	Commit        bool
	OutputQueries bool
	LogFormat     string
	LogLevel      slog.Level
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Path:      conn.DefaultPath,
		LogFormat: logging.FormatJSON,
		LogLevel:  slog.LevelInfo,
	}
}

// Load reads sqltable.ini from the given directory (or CWD if empty).
// DATABASE_URL is used when the file sets no url.
func Load(dir string) (*Config, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
	}

	iniPath := filepath.Join(dir, ConfigFilename)
	f, err := inifile.ParseFile(iniPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w in %s", ErrNotFound, dir)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", ConfigFilename, err)
	}

	cfg := Default()
	cfg.ConfigDir = dir
	if err := parseConnectionSection(f, cfg); err != nil {
		return nil, err
	}

	if cfg.URL == "" {
		cfg.URL = os.Getenv("DATABASE_URL")
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadOrDefault is Load, falling back to Default when the file is missing.
func LoadOrDefault(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if errors.Is(err, ErrNotFound) {
		cfg = Default()
		cfg.ConfigDir = dir
		cfg.URL = os.Getenv("DATABASE_URL")
		return cfg, cfg.validate()
	}
	return cfg, err
}

func parseConnectionSection(f *inifile.File, cfg *Config) error {
	cfg.URL = f.Get(section, "url")

	if v := f.Get(section, "path"); v != "" {
		cfg.Path = v
	}

	if b, ok, err := f.Bool(section, "commit"); err != nil {
		return fmt.Errorf("%s: %w", ConfigFilename, err)
	} else if ok {
		cfg.Commit = b
	}

	if b, ok, err := f.Bool(section, "output_queries"); err != nil {
		return fmt.Errorf("%s: %w", ConfigFilename, err)
	} else if ok {
		cfg.OutputQueries = b
	}

	if v := f.Get(section, "log_format"); v != "" {
		cfg.LogFormat = strings.ToLower(v)
	}

	if v := f.Get(section, "log_level"); v != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("%s: invalid log_level %q: %w", ConfigFilename, v, err)
		}
		cfg.LogLevel = level
	}

	return nil
}

func (c *Config) validate() error {
	if c.URL != "" {
		if _, err := dburl.InferDialectFromDBUrl(c.URL); err != nil {
			return fmt.Errorf("%s: connection.url: %w", ConfigFilename, err)
		}
	} else if err := dburl.ValidatePath(c.Path); err != nil {
		return fmt.Errorf("%s: connection.path: %w", ConfigFilename, err)
	}

	switch c.LogFormat {
	case logging.FormatJSON, logging.FormatPretty:
	default:
		return fmt.Errorf("%s: connection.log_format must be %s or %s, got %q",
			ConfigFilename, logging.FormatJSON, logging.FormatPretty, c.LogFormat)
	}
	return nil
}

// Logger builds the logger described by log_format and log_level.
func (c *Config) Logger(w io.Writer) (*slog.Logger, error) {
	return logging.New(c.LogFormat, w, c.LogLevel)
}

// ConnConfig converts the file settings into a connection scope config.
func (c *Config) ConnConfig(logger *slog.Logger) conn.Config {
	path := c.Path
	if path != dburl.MemoryPath && !filepath.IsAbs(path) && c.ConfigDir != "" {
		path = filepath.Join(c.ConfigDir, path)
	}
	return conn.Config{
		Path:          path,
		URL:           c.URL,
		Commit:        c.Commit,
		OutputQueries: c.OutputQueries,
		Logger:        logger,
	}
}

// WriteDefault writes a sqltable.ini with default settings into dir.
// An existing file is left untouched.
func WriteDefault(dir string) (string, error) {
	iniPath := filepath.Join(dir, ConfigFilename)
	if _, err := os.Stat(iniPath); err == nil {
		return iniPath, fmt.Errorf("%s already exists", iniPath)
	}

	def := Default()
	f := &inifile.File{}
	f.Set(section, "path", def.Path)
	f.Set(section, "commit", strconv.FormatBool(def.Commit))
	f.Set(section, "output_queries", strconv.FormatBool(def.OutputQueries))
	f.Set(section, "log_format", def.LogFormat)

	if err := f.WriteFile(iniPath); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", ConfigFilename, err)
	}
	return iniPath, nil
}
