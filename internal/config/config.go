package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the scraper.
type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	PostgresURL string `mapstructure:"POSTGRES_URL"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"`

	StorageBucket string `mapstructure:"STORAGE_BUCKET"`
	StorageToken  string `mapstructure:"STORAGE_TOKEN"`
	LedgerPath    string `mapstructure:"LEDGER_PATH"`

	GroupURLs     string `mapstructure:"GROUP_URLS"`
	GroupRotation string `mapstructure:"GROUP_ROTATION"`
	FeedRootURL   string `mapstructure:"FEED_ROOT_URL"`

	RunIntervalMinutes int  `mapstructure:"RUN_INTERVAL_MINUTES"`
	RunTimeoutMinutes  int  `mapstructure:"RUN_TIMEOUT_MINUTES"`
	MaxPostsPerRun     int  `mapstructure:"MAX_POSTS_PER_RUN"`
	Headless           bool `mapstructure:"HEADLESS"`

	UserDataDir string `mapstructure:"USER_DATA_DIR"`
	ChromePath  string `mapstructure:"CHROME_PATH"`
	UserAgent   string `mapstructure:"USER_AGENT"`

	MediaHostToken string `mapstructure:"MEDIA_HOST_TOKEN"`
	LightboxLabel  string `mapstructure:"LIGHTBOX_LABEL"`
	NextImageLabel string `mapstructure:"NEXT_IMAGE_LABEL"`
	SeeMoreLabel   string `mapstructure:"SEE_MORE_LABEL"`
	CommentLabel   string `mapstructure:"COMMENT_LABEL"`

	NavTimeoutSeconds      int `mapstructure:"NAV_TIMEOUT_SECONDS"`
	LightboxTimeoutSeconds int `mapstructure:"LIGHTBOX_TIMEOUT_SECONDS"`
	GallerySettleSeconds   int `mapstructure:"GALLERY_SETTLE_SECONDS"`
	ScrollSettleSeconds    int `mapstructure:"SCROLL_SETTLE_SECONDS"`
	MinActionDelayMS       int `mapstructure:"MIN_ACTION_DELAY_MS"`
	MaxActionDelayMS       int `mapstructure:"MAX_ACTION_DELAY_MS"`

	ImageFetchRPS float64 `mapstructure:"IMAGE_FETCH_RPS"`
	DedupTTLHours int     `mapstructure:"DEDUP_TTL_HOURS"`

	ConvertCommand        string `mapstructure:"CONVERT_COMMAND"`
	ConvertArgs           string `mapstructure:"CONVERT_ARGS"`
	ConvertDir            string `mapstructure:"CONVERT_DIR"`
	ConvertTimeoutMinutes int    `mapstructure:"CONVERT_TIMEOUT_MINUTES"`
}

// Load reads configuration from a .env file or environment variables.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present.
	// This allows configuration purely through environment variables.
	_ = v.ReadInConfig()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("POSTGRES_URL", "")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("STORAGE_BUCKET", "")
	v.SetDefault("STORAGE_TOKEN", "")
	v.SetDefault("LEDGER_PATH", "last_id.json")
	v.SetDefault("GROUP_URLS", "")
	v.SetDefault("GROUP_ROTATION", "random")
	v.SetDefault("FEED_ROOT_URL", "https://www.facebook.com/")
	v.SetDefault("RUN_INTERVAL_MINUTES", 20)
	v.SetDefault("RUN_TIMEOUT_MINUTES", 15)
	v.SetDefault("MAX_POSTS_PER_RUN", 5)
	v.SetDefault("HEADLESS", true)
	v.SetDefault("USER_DATA_DIR", "")
	v.SetDefault("CHROME_PATH", "")
	v.SetDefault("USER_AGENT", "")
	v.SetDefault("MEDIA_HOST_TOKEN", "scontent")
	v.SetDefault("LIGHTBOX_LABEL", "Marketplace")
	v.SetDefault("NEXT_IMAGE_LABEL", "הצגת התמונה הבאה")
	v.SetDefault("SEE_MORE_LABEL", "ראה עוד")
	v.SetDefault("COMMENT_LABEL", "תגובה של")
	v.SetDefault("NAV_TIMEOUT_SECONDS", 30)
	v.SetDefault("LIGHTBOX_TIMEOUT_SECONDS", 10)
	v.SetDefault("GALLERY_SETTLE_SECONDS", 5)
	v.SetDefault("SCROLL_SETTLE_SECONDS", 2)
	v.SetDefault("MIN_ACTION_DELAY_MS", 1000)
	v.SetDefault("MAX_ACTION_DELAY_MS", 11000)
	v.SetDefault("IMAGE_FETCH_RPS", 1.0)
	v.SetDefault("DEDUP_TTL_HOURS", 48)
	v.SetDefault("CONVERT_COMMAND", "python3")
	v.SetDefault("CONVERT_ARGS", "main.py")
	v.SetDefault("CONVERT_DIR", "")
	v.SetDefault("CONVERT_TIMEOUT_MINUTES", 10)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields without which the scraper cannot run at all.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.GroupURLs) == "" {
		return errors.New("GROUP_URLS must list at least one group feed URL")
	}
	if c.PostgresURL == "" {
		return errors.New("POSTGRES_URL is required")
	}
	if c.StorageBucket == "" {
		return errors.New("STORAGE_BUCKET is required")
	}
	if c.MaxPostsPerRun < 1 {
		return errors.New("MAX_POSTS_PER_RUN must be at least 1")
	}
	if c.MinActionDelayMS > c.MaxActionDelayMS {
		return errors.New("MIN_ACTION_DELAY_MS must not exceed MAX_ACTION_DELAY_MS")
	}
	return nil
}

// Groups splits the comma-separated group URL list.
func (c *Config) Groups() []string {
	parts := strings.Split(c.GroupURLs, ",")
	groups := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			groups = append(groups, trimmed)
		}
	}
	return groups
}

func (c *Config) RunInterval() time.Duration {
	return time.Duration(c.RunIntervalMinutes) * time.Minute
}

func (c *Config) RunTimeout() time.Duration {
	return time.Duration(c.RunTimeoutMinutes) * time.Minute
}

func (c *Config) DedupTTL() time.Duration {
	return time.Duration(c.DedupTTLHours) * time.Hour
}

// ConverterArgs splits the space-separated converter argument list.
func (c *Config) ConverterArgs() []string {
	return strings.Fields(c.ConvertArgs)
}

func (c *Config) ConvertTimeout() time.Duration {
	return time.Duration(c.ConvertTimeoutMinutes) * time.Minute
}

func (c *Config) MinActionDelay() time.Duration {
	return time.Duration(c.MinActionDelayMS) * time.Millisecond
}

func (c *Config) MaxActionDelay() time.Duration {
	return time.Duration(c.MaxActionDelayMS) * time.Millisecond
}
