package adapter

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/palmgate/palmgate/internal/paging"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Paging  PagingConfig  `mapstructure:"paging"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	UI      UIConfig      `mapstructure:"ui"`
	Logging LoggingConfig `mapstructure:"logging"`
	Store   StoreConfig   `mapstructure:"store"`
}

// ServerConfig holds the admin API endpoint and credentials
type ServerConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

// PagingConfig controls how list screens load pages
type PagingConfig struct {
	PageSize int    `mapstructure:"page_size"`
	OnError  string `mapstructure:"on_error"` // "preserve" or "stop"
	Prefetch int    `mapstructure:"prefetch"` // rows from the end that trigger the next page
}

// HTTPConfig holds transport settings
type HTTPConfig struct {
	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
}

// UIConfig holds UI configuration
type UIConfig struct {
	Theme string `mapstructure:"theme"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// StoreConfig holds the preferences store location. An empty path keeps
// preferences in memory only.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Paging: PagingConfig{
			PageSize: paging.DefaultPageSize,
			OnError:  paging.PreserveOnError.String(),
			Prefetch: 5,
		},
		HTTP: HTTPConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
		},
		UI: UIConfig{
			Theme: "default",
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
		Store: StoreConfig{
			Path: defaultStorePath(),
		},
	}
}

func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "palmgate", "palmgate.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "palmgate", "palmgate.log")
	}
}

func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "palmgate")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "palmgate")
	}
}

func defaultStorePath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "palmgate", "store")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "palmgate", "store")
	}
}

// setDefaults registers every key so environment overrides apply even when
// the config file omits them.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.url", cfg.Server.URL)
	v.SetDefault("server.token", cfg.Server.Token)
	v.SetDefault("paging.page_size", cfg.Paging.PageSize)
	v.SetDefault("paging.on_error", cfg.Paging.OnError)
	v.SetDefault("paging.prefetch", cfg.Paging.Prefetch)
	v.SetDefault("http.timeout", cfg.HTTP.Timeout)
	v.SetDefault("http.max_retries", cfg.HTTP.MaxRetries)
	v.SetDefault("ui.theme", cfg.UI.Theme)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("store.path", cfg.Store.Path)
}

// LoadConfig loads configuration from file and environment
func LoadConfig() (*Config, error) {
	return loadConfig(viper.GetViper(), defaultConfigPath(), ".")
}

func loadConfig(v *viper.Viper, paths ...string) (*Config, error) {
	cfg := DefaultConfig()
	setDefaults(v, cfg)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// PALMGATE_PAGING_PAGE_SIZE overrides paging.page_size
	v.SetEnvPrefix("PALMGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	cfg.Logging.File = expandHome(cfg.Logging.File)
	cfg.Store.Path = expandHome(cfg.Store.Path)

	return cfg, nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.URL != "" {
		u, err := url.Parse(c.Server.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("server.url must be an http(s) URL, got %q", c.Server.URL))
		}
	}
	if err := paging.ValidatePageSize(c.Paging.PageSize); err != nil {
		errs = append(errs, fmt.Errorf("paging.page_size: %w", err))
	}
	if _, err := paging.ParseFailurePolicy(c.Paging.OnError); err != nil {
		errs = append(errs, fmt.Errorf("paging.on_error: %w", err))
	}
	if c.Paging.Prefetch < 0 {
		errs = append(errs, fmt.Errorf("paging.prefetch must not be negative, got %d", c.Paging.Prefetch))
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("http.timeout must be positive, got %s", c.HTTP.Timeout))
	}
	if c.HTTP.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("http.max_retries must not be negative, got %d", c.HTTP.MaxRetries))
	}
	return errors.Join(errs...)
}

// FailurePolicy returns the parsed paging.on_error setting.
// Call Validate first; an invalid value falls back to preserve.
func (c *Config) FailurePolicy() paging.FailurePolicy {
	p, _ := paging.ParseFailurePolicy(c.Paging.OnError)
	return p
}

// IsConfigured returns true if the server URL and token are set
func (c *Config) IsConfigured() bool {
	return c.Server.URL != "" && c.Server.Token != ""
}

// SaveConfig saves the current configuration to file
func SaveConfig(cfg *Config) error {
	return saveConfig(viper.GetViper(), defaultConfigPath(), cfg)
}

func saveConfig(v *viper.Viper, dir string, cfg *Config) error {
	// Set fields individually to keep snake_case key names
	v.Set("server.url", cfg.Server.URL)
	v.Set("server.token", cfg.Server.Token)
	v.Set("paging.page_size", cfg.Paging.PageSize)
	v.Set("paging.on_error", cfg.Paging.OnError)
	v.Set("paging.prefetch", cfg.Paging.Prefetch)
	v.Set("http.timeout", cfg.HTTP.Timeout.String())
	v.Set("http.max_retries", cfg.HTTP.MaxRetries)
	v.Set("ui.theme", cfg.UI.Theme)
	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)
	v.Set("store.path", cfg.Store.Path)
	return writeConfig(v, dir)
}

// SaveToken updates just the token in the configuration
func SaveToken(token string) error {
	return saveToken(viper.GetViper(), defaultConfigPath(), token)
}

func saveToken(v *viper.Viper, dir, token string) error {
	v.Set("server.token", token)
	return writeConfig(v, dir)
}

func writeConfig(v *viper.Viper, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	// The file holds the API token.
	return os.Chmod(configFile, 0600)
}

// ConfigDir returns the directory config.yaml is saved to
func ConfigDir() string {
	return defaultConfigPath()
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
