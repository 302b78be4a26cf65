// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// maxFeedArticles bounds hue_feed.max_articles; the feed never serves more.
const maxFeedArticles = 6

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	HueFeed   HueFeedConfig   `mapstructure:"hue_feed"`
	Cache     CacheConfig     `mapstructure:"cache"`
	DB        DBConfig        `mapstructure:"db"`
	SMTP      SMTPConfig      `mapstructure:"smtp"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Share     ShareConfig     `mapstructure:"share"`
	Guides    GuidesConfig    `mapstructure:"guides"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Provinces ProvincesConfig `mapstructure:"provinces"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int `mapstructure:"port"`
	RequestTimeoutSeconds int `mapstructure:"request_timeout_seconds"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// HueFeedConfig points the feed scraper at the Hue tourism site.
type HueFeedConfig struct {
	BaseURL               string  `mapstructure:"base_url"`
	LandingPath           string  `mapstructure:"landing_path"`
	FragmentPath          string  `mapstructure:"fragment_path"`
	UserAgent             string  `mapstructure:"user_agent"`
	RequestTimeoutSeconds int     `mapstructure:"request_timeout_seconds"`
	BudgetSeconds         int     `mapstructure:"budget_seconds"`
	MaxSessionAttempts    int     `mapstructure:"max_session_attempts"`
	MaxArticles           int     `mapstructure:"max_articles"`
	RespectRobots         bool    `mapstructure:"respect_robots"`
	RateLimitRPS          float64 `mapstructure:"rate_limit_rps"`
	RateLimitBurst        int     `mapstructure:"rate_limit_burst"`
}

// CacheConfig selects the feed response cache.
type CacheConfig struct {
	Backend    string `mapstructure:"backend"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
	RedisURL   string `mapstructure:"redis_url"`
	Key        string `mapstructure:"key"`
}

// DBConfig controls access to the relational database.
type DBConfig struct {
	DSN                    string `mapstructure:"dsn"`
	MaxConns               int32  `mapstructure:"max_conns"`
	MinConns               int32  `mapstructure:"min_conns"`
	MaxConnLifetimeMinutes int    `mapstructure:"max_conn_lifetime_minutes"`
	ProvidersTable         string `mapstructure:"providers_table"`
	GuidesTable            string `mapstructure:"guides_table"`
}

// SMTPConfig configures outbound mail.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// NotifyConfig governs the card expiry reminder pipeline.
type NotifyConfig struct {
	WindowDays          int    `mapstructure:"window_days"`
	ResendIntervalHours int    `mapstructure:"resend_interval_hours"`
	Workers             int    `mapstructure:"workers"`
	QueueDepth          int    `mapstructure:"queue_depth"`
	Topic               string `mapstructure:"topic"`
}

// PubSubConfig holds metadata for publish-subscribe integration.
type PubSubConfig struct {
	ProjectID    string `mapstructure:"project_id"`
	Subscription string `mapstructure:"subscription"`
	TopicName    string `mapstructure:"topic_name"`
}

// ShareConfig controls provider share card rendering.
type ShareConfig struct {
	PublicBaseURL   string `mapstructure:"public_base_url"`
	DefaultImageURL string `mapstructure:"default_image_url"`
	CacheControl    string `mapstructure:"cache_control"`
}

// GuidesConfig points the registry scraper at the national guide registry.
type GuidesConfig struct {
	BaseURL          string `mapstructure:"base_url"`
	ListPath         string `mapstructure:"list_path"`
	ProvinceCode     string `mapstructure:"province_code"`
	CardType         string `mapstructure:"card_type"`
	UserAgent        string `mapstructure:"user_agent"`
	TimeoutSeconds   int    `mapstructure:"timeout_seconds"`
	CloudflareBypass bool   `mapstructure:"cloudflare_bypass"`
	Headless         bool   `mapstructure:"headless"`
	NavTimeoutSec    int    `mapstructure:"nav_timeout_seconds"`
}

// StorageConfig sets the blob backend for registry exports.
type StorageConfig struct {
	Backend   string `mapstructure:"backend"`
	BaseDir   string `mapstructure:"base_dir"`
	GCSBucket string `mapstructure:"gcs_bucket"`
	Prefix    string `mapstructure:"prefix"`
}

// ProvincesConfig holds the province master list used for name matching.
type ProvincesConfig struct {
	Names []string `mapstructure:"names"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HDV")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	// Cloud Run style hosts hand us the port via $PORT.
	if raw := os.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("parse PORT: %w", err)
		}
		cfg.Server.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.request_timeout_seconds", 60)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "info")
	v.SetDefault("hue_feed.base_url", "https://sdl.hue.gov.vn")
	v.SetDefault("hue_feed.landing_path", "/huong-dan-vien.html")
	v.SetDefault("hue_feed.fragment_path", "/trang-chu")
	v.SetDefault("hue_feed.user_agent", "Mozilla/5.0 (compatible; SoTayHDV/1.0)")
	v.SetDefault("hue_feed.request_timeout_seconds", 10)
	v.SetDefault("hue_feed.budget_seconds", 25)
	v.SetDefault("hue_feed.max_session_attempts", 5)
	v.SetDefault("hue_feed.max_articles", 6)
	v.SetDefault("hue_feed.respect_robots", false)
	v.SetDefault("hue_feed.rate_limit_rps", 2)
	v.SetDefault("hue_feed.rate_limit_burst", 4)
	v.SetDefault("cache.backend", "none")
	v.SetDefault("cache.ttl_seconds", 300)
	v.SetDefault("cache.key", "hdv:hue-feed")
	v.SetDefault("db.providers_table", "providers")
	v.SetDefault("db.guides_table", "guide_profiles")
	v.SetDefault("db.max_conn_lifetime_minutes", 30)
	v.SetDefault("smtp.host", "smtp.gmail.com")
	v.SetDefault("smtp.port", 587)
	v.SetDefault("notify.window_days", 30)
	v.SetDefault("notify.resend_interval_hours", 24)
	v.SetDefault("notify.workers", 2)
	v.SetDefault("notify.queue_depth", 64)
	v.SetDefault("notify.topic", "guide-notifications")
	v.SetDefault("share.public_base_url", "https://so-tay-cho-hdv.web.app")
	v.SetDefault("share.default_image_url", "https://dummyimage.com/1200x630/1d4ed8/ffffff.png&text=So+Tay+Cho+HDV")
	v.SetDefault("share.cache_control", "public, max-age=300, s-maxage=1800")
	v.SetDefault("guides.base_url", "https://huongdanvien.vn")
	v.SetDefault("guides.list_path", "/index.php/guide/cat/05")
	v.SetDefault("guides.province_code", "46")
	v.SetDefault("guides.card_type", "1")
	v.SetDefault("guides.user_agent",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	v.SetDefault("guides.timeout_seconds", 30)
	v.SetDefault("guides.cloudflare_bypass", true)
	v.SetDefault("guides.headless", false)
	v.SetDefault("guides.nav_timeout_seconds", 45)
	v.SetDefault("storage.backend", "memory")
	v.SetDefault("storage.prefix", "guides")
	v.SetDefault("provinces.names", DefaultProvinces)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.HueFeed.BaseURL == "" {
		return fmt.Errorf("hue_feed.base_url is required")
	}
	if c.HueFeed.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("hue_feed.request_timeout_seconds must be > 0")
	}
	if c.HueFeed.BudgetSeconds < c.HueFeed.RequestTimeoutSeconds {
		return fmt.Errorf("hue_feed.budget_seconds must be >= hue_feed.request_timeout_seconds")
	}
	if c.HueFeed.MaxSessionAttempts <= 0 {
		return fmt.Errorf("hue_feed.max_session_attempts must be > 0")
	}
	if c.HueFeed.MaxArticles <= 0 || c.HueFeed.MaxArticles > maxFeedArticles {
		return fmt.Errorf("hue_feed.max_articles must be between 1 and %d", maxFeedArticles)
	}
	switch c.Cache.Backend {
	case "", "none", "memory":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("cache.redis_url must be set when cache.backend is redis")
		}
	default:
		return fmt.Errorf("cache.backend %q is not supported", c.Cache.Backend)
	}
	if c.Notify.Workers <= 0 {
		return fmt.Errorf("notify.workers must be > 0")
	}
	if c.Notify.WindowDays < 0 {
		return fmt.Errorf("notify.window_days must be >= 0")
	}
	switch c.Storage.Backend {
	case "", "memory":
	case "local":
		if c.Storage.BaseDir == "" {
			return fmt.Errorf("storage.base_dir must be set when storage.backend is local")
		}
	case "gcs":
		if c.Storage.GCSBucket == "" {
			return fmt.Errorf("storage.gcs_bucket must be set when storage.backend is gcs")
		}
	default:
		return fmt.Errorf("storage.backend %q is not supported", c.Storage.Backend)
	}
	return nil
}

// RequestTimeout is the per-request deadline for upstream feed fetches.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.HueFeed.RequestTimeoutSeconds) * time.Second
}

// FeedBudget is the wall-clock budget for one feed pipeline run.
func (c Config) FeedBudget() time.Duration {
	return time.Duration(c.HueFeed.BudgetSeconds) * time.Second
}

// CacheTTL is how long a successful feed may be served from cache.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// ResendInterval is the minimum gap between two reminders to one guide.
func (c Config) ResendInterval() time.Duration {
	return time.Duration(c.Notify.ResendIntervalHours) * time.Hour
}
