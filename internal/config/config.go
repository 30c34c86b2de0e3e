package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"filegrip/internal/eventbus"
)

// FileName is the config file looked up in the working directory
const FileName = ".filegrip.toml"

// EnvPrefix prefixes environment overrides, e.g. FILEGRIP_CATALOG_DRIVER
const EnvPrefix = "FILEGRIP"

// Config represents the application configuration
type Config struct {
	Version   int             `toml:"version" mapstructure:"version"`
	LogFile   string          `toml:"log_file" mapstructure:"log_file"`
	Scan      ScanSettings    `toml:"scan" mapstructure:"scan"`
	Selection SelectionConfig `toml:"selection" mapstructure:"selection"`
	Catalog   CatalogConfig   `toml:"catalog" mapstructure:"catalog"`
	UI        UISettings      `toml:"ui" mapstructure:"ui"`
	Export    ExportSettings  `toml:"export" mapstructure:"export"`
}

// ScanSettings controls which directories feed the catalog
type ScanSettings struct {
	Roots    []string `toml:"roots" mapstructure:"roots"`
	MaxDepth int      `toml:"max_depth" mapstructure:"max_depth"`
}

// SelectionConfig tunes navigation and detail fetching
type SelectionConfig struct {
	FetchBatchSize   int `toml:"fetch_batch_size" mapstructure:"fetch_batch_size"`
	FetchConcurrency int `toml:"fetch_concurrency" mapstructure:"fetch_concurrency"`
	CountCacheSize   int `toml:"count_cache_size" mapstructure:"count_cache_size"`
}

// CatalogConfig selects the catalog backend and its grouping
type CatalogConfig struct {
	Driver    string   `toml:"driver" mapstructure:"driver"` // "memory" or "sqlite"
	DSN       string   `toml:"dsn" mapstructure:"dsn"`
	Hierarchy []string `toml:"hierarchy" mapstructure:"hierarchy"`
	Sort      string   `toml:"sort" mapstructure:"sort"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	ShowCounts bool `toml:"show_counts" mapstructure:"show_counts"`
	PageLimit  int  `toml:"page_limit" mapstructure:"page_limit"`
}

// ExportSettings names the files written by the export keys
type ExportSettings struct {
	CSVPath     string `toml:"csv_path" mapstructure:"csv_path"`
	RequestPath string `toml:"request_path" mapstructure:"request_path"`
}

// Validate reports the first setting that cannot be used
func (c *Config) Validate() error {
	switch c.Catalog.Driver {
	case "memory", "sqlite":
	default:
		return fmt.Errorf("catalog.driver must be memory or sqlite, got %q", c.Catalog.Driver)
	}
	switch c.Catalog.Sort {
	case "name", "size", "path":
	default:
		return fmt.Errorf("catalog.sort must be name, size or path, got %q", c.Catalog.Sort)
	}
	if c.Selection.FetchBatchSize <= 0 {
		return fmt.Errorf("selection.fetch_batch_size must be positive, got %d", c.Selection.FetchBatchSize)
	}
	if c.Selection.FetchConcurrency <= 0 {
		return fmt.Errorf("selection.fetch_concurrency must be positive, got %d", c.Selection.FetchConcurrency)
	}
	if c.Selection.CountCacheSize <= 0 {
		return fmt.Errorf("selection.count_cache_size must be positive, got %d", c.Selection.CountCacheSize)
	}
	for i, name := range c.Catalog.Hierarchy {
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("catalog.hierarchy[%d] is empty", i)
		}
	}
	return nil
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
}

type configService struct {
	bus      eventbus.EventBus
	filePath string
}

// NewConfigService creates a config service reading FileName from dir
func NewConfigService(dir string) ConfigService {
	return &configService{filePath: filepath.Join(dir, FileName)}
}

// NewConfigServiceWithBus creates a config service with event bus support
func NewConfigServiceWithBus(dir string, bus eventbus.EventBus) ConfigService {
	cs := NewConfigService(dir).(*configService)
	cs.bus = bus
	return cs
}

// Load loads the configuration file, falling back to defaults when it is missing
func (cs *configService) Load() (*Config, error) {
	cfg, err := load(cs.filePath, true)
	if err != nil {
		return nil, err
	}
	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigLoadedEvent{Path: cs.filePath})
	}
	return cfg, nil
}

// Save saves the configuration to the service's file
func (cs *configService) Save(config *Config) error {
	if err := cs.SaveToPath(config, cs.filePath); err != nil {
		return err
	}
	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigSavedEvent{Path: cs.filePath})
	}
	return nil
}

// LoadFromPath loads configuration from a specific path, which must exist
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	return load(path, false)
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func load(path string, allowMissing bool) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	v.SetConfigFile(path)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !allowMissing || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("scan.roots", def.Scan.Roots)
	v.SetDefault("scan.max_depth", def.Scan.MaxDepth)
	v.SetDefault("selection.fetch_batch_size", def.Selection.FetchBatchSize)
	v.SetDefault("selection.fetch_concurrency", def.Selection.FetchConcurrency)
	v.SetDefault("selection.count_cache_size", def.Selection.CountCacheSize)
	v.SetDefault("catalog.driver", def.Catalog.Driver)
	v.SetDefault("catalog.dsn", def.Catalog.DSN)
	v.SetDefault("catalog.hierarchy", def.Catalog.Hierarchy)
	v.SetDefault("catalog.sort", def.Catalog.Sort)
	v.SetDefault("ui.show_counts", def.UI.ShowCounts)
	v.SetDefault("ui.page_limit", def.UI.PageLimit)
	v.SetDefault("export.csv_path", def.Export.CSVPath)
	v.SetDefault("export.request_path", def.Export.RequestPath)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		LogFile: "filegrip.log",
		Scan: ScanSettings{
			Roots:    []string{"."},
			MaxDepth: 8,
		},
		Selection: SelectionConfig{
			FetchBatchSize:   500,
			FetchConcurrency: 4,
			CountCacheSize:   1024,
		},
		Catalog: CatalogConfig{
			Driver:    "memory",
			Hierarchy: []string{"top", "ext"},
			Sort:      "name",
		},
		UI: UISettings{
			ShowCounts: true,
			PageLimit:  10000,
		},
		Export: ExportSettings{
			CSVPath:     "filegrip-manifest.csv",
			RequestPath: "filegrip-request.json",
		},
	}
}
