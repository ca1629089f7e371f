package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Library  LibraryConfig  `toml:"library"`
	Output   OutputConfig   `toml:"output"`
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Log      LogConfig      `toml:"log"`
}

// LibraryConfig locates the source export and names the converted file.
type LibraryConfig struct {
	ExportFolder string `toml:"export_folder"`
	InputFile    string `toml:"input_file"`
	OutputFile   string `toml:"output_file"`
}

// OutputConfig controls serialization of the converted library.
type OutputConfig struct {
	Indent           string `toml:"indent"`
	FixDoctype       bool   `toml:"fix_doctype"`
	Collapse         bool   `toml:"collapse"`
	ReencodeEntities bool   `toml:"reencode_entities"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path          string `toml:"path"`
	MaxOpenConns  int    `toml:"max_open_conns"`
	MaxIdleConns  int    `toml:"max_idle_conns"`
	RecordHistory bool   `toml:"record_history"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// Validate reports configuration values the converter cannot work with.
func (c *Config) Validate() error {
	if c.Library.InputFile == "" {
		return fmt.Errorf("%w: library.input_file is empty", ErrInvalidConfig)
	}
	if c.Library.OutputFile == "" {
		return fmt.Errorf("%w: library.output_file is empty", ErrInvalidConfig)
	}
	if c.Library.InputFile == c.Library.OutputFile {
		return fmt.Errorf("%w: library.output_file must differ from library.input_file", ErrInvalidConfig)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	return nil
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
