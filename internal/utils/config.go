package utils

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// DUMP_ELF_LOG_LEVEL or DUMP_ELF_SOURCE_MODE
const EnvPrefix = "DUMP_ELF"

// Config keys shared by the loader, the defaults and the CLI overrides
const (
	KeyLogLevel     = "log_level"
	KeyLogFormat    = "log_format"
	KeyOutputFormat = "output.format"
	KeySourceMode   = "source.mode"
	KeyFailFast     = "batch.fail_fast"
)

var (
	validLogLevels   = []string{"debug", "info", "warn", "error"}
	validFormats     = []string{"text", "json"}
	validSourceModes = []string{"file", "mmap", "memory"}
)

// Config represents the application configuration
type Config struct {
	LogLevel  string `yaml:"log_level" mapstructure:"log_level"`
	LogFormat string `yaml:"log_format" mapstructure:"log_format"`

	Output OutputConfig `yaml:"output" mapstructure:"output"`
	Source SourceConfig `yaml:"source" mapstructure:"source"`
	Batch  BatchConfig  `yaml:"batch" mapstructure:"batch"`
}

// OutputConfig controls report rendering
type OutputConfig struct {
	Format string `yaml:"format" mapstructure:"format"`
}

// SourceConfig controls how input files are read
type SourceConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"`
}

// BatchConfig controls multi-file runs
type BatchConfig struct {
	FailFast bool `yaml:"fail_fast" mapstructure:"fail_fast"`
}

// LoggerConfig derives the logger settings from the configuration
func (c *Config) LoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:  ParseLogLevel(c.LogLevel),
		Format: ParseLogFormat(c.LogFormat),
	}
}

// ConfigManager handles configuration loading and management
type ConfigManager struct {
	config *Config
	viper  *viper.Viper
	logger *Logger
}

// NewConfigManager creates a new configuration manager
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		config: &Config{},
		viper:  viper.New(),
		logger: NewDefaultLogger(),
	}
}

// SetLogger sets the logger for the config manager
func (c *ConfigManager) SetLogger(logger *Logger) {
	c.logger = logger
}

// LoadConfig loads configuration from defaults, an optional file and
// environment variables. Overrides are applied last and win over all of
// them; keys use the dotted form, e.g. "output.format".
func (c *ConfigManager) LoadConfig(configFile string, overrides map[string]interface{}) error {
	c.setDefaults()

	c.viper.SetConfigType("yaml")
	c.viper.SetEnvPrefix(EnvPrefix)
	c.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	c.viper.AutomaticEnv()

	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return fmt.Errorf("config file not found: %s", configFile)
		}
		c.viper.SetConfigFile(configFile)
		if err := c.viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		c.logger.WithComponent("config").Debugf("Loaded config from: %s", c.viper.ConfigFileUsed())
	} else {
		c.viper.SetConfigName("config")
		c.viper.AddConfigPath(".")
		c.viper.AddConfigPath("$HOME/.dump-elf")
		c.viper.AddConfigPath("/etc/dump-elf")

		if err := c.viper.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("failed to read config file: %w", err)
			}
			c.logger.WithComponent("config").Debug("No config file found, using defaults and environment variables")
		} else {
			c.logger.WithComponent("config").Debugf("Loaded config from: %s", c.viper.ConfigFileUsed())
		}
	}

	for key, value := range overrides {
		c.viper.Set(key, value)
	}

	if err := c.viper.Unmarshal(c.config); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := c.validateConfig(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	return nil
}

// setDefaults sets default configuration values
func (c *ConfigManager) setDefaults() {
	c.viper.SetDefault(KeyLogLevel, "info")
	c.viper.SetDefault(KeyLogFormat, "text")
	c.viper.SetDefault(KeyOutputFormat, "text")
	c.viper.SetDefault(KeySourceMode, "file")
	c.viper.SetDefault(KeyFailFast, false)
}

// validateConfig normalises and validates the loaded configuration
func (c *ConfigManager) validateConfig() error {
	c.config.LogLevel = strings.ToLower(c.config.LogLevel)
	if !contains(validLogLevels, c.config.LogLevel) {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.config.LogLevel, validLogLevels)
	}

	c.config.LogFormat = strings.ToLower(c.config.LogFormat)
	if !contains(validFormats, c.config.LogFormat) {
		return fmt.Errorf("invalid log format: %s (valid: %v)", c.config.LogFormat, validFormats)
	}

	c.config.Output.Format = strings.ToLower(c.config.Output.Format)
	if !contains(validFormats, c.config.Output.Format) {
		return fmt.Errorf("invalid output format: %s (valid: %v)", c.config.Output.Format, validFormats)
	}

	c.config.Source.Mode = strings.ToLower(c.config.Source.Mode)
	if !contains(validSourceModes, c.config.Source.Mode) {
		return fmt.Errorf("invalid source mode: %s (valid: %v)", c.config.Source.Mode, validSourceModes)
	}

	return nil
}

// GetConfig returns the loaded configuration
func (c *ConfigManager) GetConfig() *Config {
	return c.config
}

// contains checks if a slice contains a string
func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// LoadDefaultConfig loads configuration from the standard locations
func LoadDefaultConfig() (*Config, error) {
	return LoadConfig("", nil)
}

// LoadConfig loads configuration from configFile (or the standard
// locations when empty) and applies overrides on top
func LoadConfig(configFile string, overrides map[string]interface{}) (*Config, error) {
	manager := NewConfigManager()
	manager.SetLogger(NewDiscardLogger())
	if err := manager.LoadConfig(configFile, overrides); err != nil {
		return nil, err
	}
	return manager.GetConfig(), nil
}
