// Package config provides XML-based configuration with environment overrides.
package config

import (
	"encoding/xml"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/gommon/bytes"
)

// FileName is the default config file name, looked up next to the executable.
const FileName = "DataExplorer.config"

// AppConfig represents the root XML configuration structure
type AppConfig struct {
	XMLName xml.Name `xml:"DataExplorer"`

	// Server configuration
	Server ServerConfig `xml:"Server"`

	// Remote analysis service
	Service ServiceConfig `xml:"Service"`

	Upload  UploadConfig  `xml:"Upload"`
	Theme   ThemeConfig   `xml:"Theme"`
	History HistoryConfig `xml:"History"`

	// Advanced options
	Advanced AdvancedConfig `xml:"Advanced"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port         int    `xml:"Port"`
	BindAddress  string `xml:"BindAddress"`
	EnableCORS   bool   `xml:"EnableCORS"`
	AllowOrigins string `xml:"AllowOrigins"`
	ReadTimeout  int    `xml:"ReadTimeoutSeconds"`
	WriteTimeout int    `xml:"WriteTimeoutSeconds"`
	IdleTimeout  int    `xml:"IdleTimeoutSeconds"`
	BodyLimit    string `xml:"BodyLimit"`
	EnableGzip   bool   `xml:"EnableGzip"`
}

// ServiceConfig locates the analysis service
type ServiceConfig struct {
	BaseURL          string `xml:"BaseURL"`
	VisualizePath    string `xml:"VisualizePath"`
	StockPath        string `xml:"StockPath"`
	FormField        string `xml:"FormField"`
	RequestTimeout   int    `xml:"RequestTimeoutSeconds"`
	DefaultStockRows int    `xml:"DefaultStockRows"`
}

// UploadConfig contains file selection rules
type UploadConfig struct {
	AcceptedExtension string `xml:"AcceptedExtension"`
	MaxUploadSize     string `xml:"MaxUploadSize"`
}

// ThemeConfig selects the chart theme
type ThemeConfig struct {
	// File is a YAML theme; empty uses the built-in dark theme.
	File string `xml:"File"`
}

// HistoryConfig controls the DuckDB attempt log
type HistoryConfig struct {
	Enabled       bool   `xml:"Enabled"`
	DataDirectory string `xml:"DataDirectory"`
	DatabaseFile  string `xml:"DatabaseFile"`
	DuckDBThreads int    `xml:"DuckDBThreads"`
}

// AdvancedConfig contains advanced/tuning options
type AdvancedConfig struct {
	LogLevel             string `xml:"LogLevel"`
	LogFile              string `xml:"LogFile"`
	EnableRequestLogging bool   `xml:"EnableRequestLogging"`
	Debug                bool   `xml:"Debug"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:         8090,
			BindAddress:  "127.0.0.1",
			EnableCORS:   true,
			AllowOrigins: "*",
			ReadTimeout:  60,
			WriteTimeout: 0,
			IdleTimeout:  120,
			BodyLimit:    "64M",
			EnableGzip:   true,
		},
		Service: ServiceConfig{
			BaseURL:          "http://127.0.0.1:8000",
			VisualizePath:    "/api/visualize",
			StockPath:        "/api/stock",
			FormField:        "file",
			RequestTimeout:   0,
			DefaultStockRows: 1000,
		},
		Upload: UploadConfig{
			AcceptedExtension: ".csv",
			MaxUploadSize:     "50M",
		},
		History: HistoryConfig{
			Enabled:       true,
			DataDirectory: "./data",
			DatabaseFile:  "history.duckdb",
			DuckDBThreads: 2,
		},
		Advanced: AdvancedConfig{
			LogLevel:             "info",
			LogFile:              "./logs/data-explorer.log",
			EnableRequestLogging: true,
			Debug:                false,
		},
	}
}

// LoadDotEnv loads .env files into the environment. Missing files are not
// an error; variables already set win.
func LoadDotEnv(paths ...string) {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			slog.Debug("failed to load .env file", "path", p, "error", err)
		}
	}
}

// ResolvePath returns the config file path: DATA_EXPLORER_CONFIG when set,
// otherwise FileName in dir.
func ResolvePath(dir string) string {
	if p := os.Getenv("DATA_EXPLORER_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(dir, FileName)
}

// LoadConfig loads configuration from XML file, creating it with defaults on
// first run
func LoadConfig(configPath string) (*AppConfig, error) {
	config := DefaultConfig()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := config.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	} else {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := xml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Apply environment variable overrides
	config.applyEnvironmentOverrides()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	// Resolve relative paths
	config.resolvePaths(filepath.Dir(configPath))

	return config, nil
}

// Save saves the configuration to XML file
func (c *AppConfig) Save(configPath string) error {
	output, err := xml.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(xml.Header + "\n<!-- Data Explorer Configuration -->\n<!-- This file is auto-generated on first run -->\n\n")
	content := append(header, output...)

	if dir := filepath.Dir(configPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, content, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate rejects values the server cannot start with
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if !strings.HasPrefix(c.Service.BaseURL, "http://") && !strings.HasPrefix(c.Service.BaseURL, "https://") {
		return fmt.Errorf("invalid analysis service URL: %q", c.Service.BaseURL)
	}
	if !strings.HasPrefix(c.Upload.AcceptedExtension, ".") {
		return fmt.Errorf("accepted extension must start with a dot: %q", c.Upload.AcceptedExtension)
	}
	if _, err := c.MaxUploadBytes(); err != nil {
		return err
	}
	switch strings.ToLower(c.Advanced.LogLevel) {
	case "debug", "info", "warn", "warning", "error", "":
	default:
		return fmt.Errorf("invalid log level: %q", c.Advanced.LogLevel)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	// PORT override
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if url := os.Getenv("ANALYSIS_SERVICE_URL"); url != "" {
		c.Service.BaseURL = url
	}

	// DATA_DIR override
	if dataDir := os.Getenv("DATA_DIR"); dataDir != "" {
		c.History.DataDirectory = dataDir
	}

	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.Advanced.LogLevel = level
	}

	if themeFile := os.Getenv("DATA_EXPLORER_THEME"); themeFile != "" {
		c.Theme.File = themeFile
	}
}

// resolvePaths converts relative paths to absolute based on config file location
func (c *AppConfig) resolvePaths(configDir string) {
	if !filepath.IsAbs(c.History.DataDirectory) {
		c.History.DataDirectory = filepath.Join(configDir, c.History.DataDirectory)
	}
	if c.Advanced.LogFile != "" && !filepath.IsAbs(c.Advanced.LogFile) {
		c.Advanced.LogFile = filepath.Join(configDir, c.Advanced.LogFile)
	}
	if c.Theme.File != "" && !filepath.IsAbs(c.Theme.File) {
		c.Theme.File = filepath.Join(configDir, c.Theme.File)
	}
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// GetHistoryPath returns the absolute DuckDB file path
func (c *AppConfig) GetHistoryPath() string {
	if filepath.IsAbs(c.History.DatabaseFile) {
		return c.History.DatabaseFile
	}
	return filepath.Join(c.History.DataDirectory, c.History.DatabaseFile)
}

// GetAllowOrigins splits the comma separated CORS origins
func (c *AppConfig) GetAllowOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.Server.AllowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}

// RequestTimeout bounds one call to the analysis service; zero means none
func (c *AppConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Service.RequestTimeout) * time.Second
}

// MaxUploadBytes parses Upload.MaxUploadSize ("50M", "1G"). Empty means no
// limit.
func (c *AppConfig) MaxUploadBytes() (int64, error) {
	if c.Upload.MaxUploadSize == "" {
		return 0, nil
	}
	n, err := bytes.Parse(c.Upload.MaxUploadSize)
	if err != nil {
		return 0, fmt.Errorf("invalid max upload size %q: %w", c.Upload.MaxUploadSize, err)
	}
	return n, nil
}

// EnsureDirectories creates all necessary directories
func (c *AppConfig) EnsureDirectories() error {
	dirs := []string{c.History.DataDirectory}
	if c.Advanced.LogFile != "" {
		dirs = append(dirs, filepath.Dir(c.Advanced.LogFile))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}
