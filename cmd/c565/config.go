package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the c565 configuration file (~/.config/c565/config.yaml).
// Pointer fields distinguish "not set" from zero values.
type Config struct {
	// Bake defaults
	ChunkWidth    *int `yaml:"chunk_width"`
	ChunkHeight   *int `yaml:"chunk_height"`
	BytesPerPixel *int `yaml:"bytes_per_pixel"`

	// Output
	OutDir    string `yaml:"out_dir"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "c565", "config.yaml")
}

// LoadConfig reads the config file at path. A missing file yields a zero
// Config; a malformed one is an error.
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Config{}, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	if err != nil {
		return Config{}, err
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

func applyLogConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyBakeConfig applies config file defaults to bake command variables
// when the corresponding CLI flag was not explicitly set.
func applyBakeConfig(c *cli.Command, cfg Config, chunkW, chunkH, bpp *int) {
	if cfg.ChunkWidth != nil && !c.IsSet("chunk-width") {
		*chunkW = *cfg.ChunkWidth
	}
	if cfg.ChunkHeight != nil && !c.IsSet("chunk-height") {
		*chunkH = *cfg.ChunkHeight
	}
	if cfg.BytesPerPixel != nil && !c.IsSet("bpp") {
		*bpp = *cfg.BytesPerPixel
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
}
