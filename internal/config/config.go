// Package config loads dealerscout settings from defaults, an optional config
// file, a .env file and DEALERSCOUT_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// DEALERSCOUT_SCRAPE_TIMEOUT=15s.
const EnvPrefix = "DEALERSCOUT"

// DefaultUserAgent mimics a current desktop Chrome; some dealer platforms
// reject obvious bot agents outright.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122 Safari/537.36"

// DefaultBrands is the dealership name allow-list used by discovery.
var DefaultBrands = []string{
	"BMW", "Toyota", "Honda", "Ford", "Chevrolet", "Nissan", "Mercedes", "Hyundai",
	"Audi", "Volkswagen", "Kia", "Lexus", "Subaru", "Mazda", "Jeep", "Chrysler", "Dodge",
}

type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Server    ServerConfig    `mapstructure:"server"`
	Scrape    ScrapeConfig    `mapstructure:"scrape"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Log       LogConfig       `mapstructure:"log"`
}

type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type ServerConfig struct {
	Port             string        `mapstructure:"port" validate:"required,numeric"`
	AdminKey         string        `mapstructure:"admin_key"`
	RateLimit        float64       `mapstructure:"rate_limit" validate:"gt=0"`
	RateBurst        int           `mapstructure:"rate_burst" validate:"gte=1"`
	DiscoverInterval time.Duration `mapstructure:"discover_interval" validate:"gte=0"`
	TrustedProxies   []string      `mapstructure:"trusted_proxies"`
	AllowOrigins     []string      `mapstructure:"allow_origins"`
}

type ScrapeConfig struct {
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
	UserAgent         string        `mapstructure:"user_agent" validate:"required"`
	Workers           int           `mapstructure:"workers" validate:"gte=1,lte=64"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gte=0"`
}

// DiscoveryConfig carries the map crawl timing budget. The waits are fixed
// settle delays, kept as tunables rather than readiness signals.
type DiscoveryConfig struct {
	BaseURL       string        `mapstructure:"base_url" validate:"required,url"`
	Query         string        `mapstructure:"query" validate:"required"`
	Brands        []string      `mapstructure:"brands" validate:"min=1,dive,required"`
	Headless      bool          `mapstructure:"headless"`
	ChromeBin     string        `mapstructure:"chrome_bin"`
	InitialSettle time.Duration `mapstructure:"initial_settle" validate:"gte=0"`
	ScrollSettle  time.Duration `mapstructure:"scroll_settle" validate:"gte=0"`
	PanelSettle   time.Duration `mapstructure:"panel_settle" validate:"gte=0"`
	BackSettle    time.Duration `mapstructure:"back_settle" validate:"gte=0"`
	MaxScrolls    int           `mapstructure:"max_scrolls" validate:"gte=0"`
	MaxCandidates int           `mapstructure:"max_candidates" validate:"gte=0"`
}

type CacheConfig struct {
	Path   string        `mapstructure:"path" validate:"required"`
	Expiry time.Duration `mapstructure:"expiry" validate:"gte=0"`
}

type ScheduleConfig struct {
	Cron    string        `mapstructure:"cron"`
	Zips    []string      `mapstructure:"zips"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

type LogConfig struct {
	Debug bool `mapstructure:"debug"`
	JSON  bool `mapstructure:"json"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("database.path", "data/dealerscout.db")

	v.SetDefault("server.port", "8080")
	v.SetDefault("server.admin_key", "")
	v.SetDefault("server.rate_limit", 1.0)
	v.SetDefault("server.rate_burst", 10)
	v.SetDefault("server.discover_interval", 30*time.Minute)
	v.SetDefault("server.trusted_proxies", []string{"127.0.0.1", "::1"})
	v.SetDefault("server.allow_origins", []string{"*"})

	v.SetDefault("scrape.timeout", 10*time.Second)
	v.SetDefault("scrape.user_agent", DefaultUserAgent)
	v.SetDefault("scrape.workers", 5)
	v.SetDefault("scrape.requests_per_second", 0.0)

	v.SetDefault("discovery.base_url", "https://www.google.com/maps/search/")
	v.SetDefault("discovery.query", "car dealerships")
	v.SetDefault("discovery.brands", DefaultBrands)
	v.SetDefault("discovery.headless", true)
	v.SetDefault("discovery.chrome_bin", "")
	v.SetDefault("discovery.initial_settle", 5*time.Second)
	v.SetDefault("discovery.scroll_settle", 2*time.Second)
	v.SetDefault("discovery.panel_settle", 4*time.Second)
	v.SetDefault("discovery.back_settle", 3*time.Second)
	v.SetDefault("discovery.max_scrolls", 15)
	v.SetDefault("discovery.max_candidates", 0)

	v.SetDefault("cache.path", "data/region_cache.json")
	v.SetDefault("cache.expiry", 24*time.Hour)

	v.SetDefault("schedule.cron", "")
	v.SetDefault("schedule.zips", []string{})
	v.SetDefault("schedule.timeout", 2*time.Hour)

	v.SetDefault("log.debug", false)
	v.SetDefault("log.json", false)
}

// New returns a viper instance wired for dealerscout: defaults, env overrides
// and the conventional config file locations.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("dealerscout")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	return v
}

// Load reads .env (if present), the config file at path (or the default
// search locations when path is empty) and returns the validated config.
func Load(v *viper.Viper, path string) (*Config, error) {
	// A missing .env is normal outside development.
	_ = godotenv.Load()

	if path != "" {
		v.SetConfigFile(path)
	}
	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || path != "" {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
