// Package config loads the application configuration from an optional YAML
// file plus environment variables, grounded on the teacher's
// pkg/common/config.Load (viper.New, SetDefaults, ReadInConfig tolerant of a
// missing file, AutomaticEnv with a prefix, explicit env-var binds for the
// names the rest of the ecosystem expects).
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// RedisConfig mirrors the teacher's cache.RedisConfig shape.
type RedisConfig struct {
	Address      string        `mapstructure:"address"`
	Password     string        `mapstructure:"password"`
	Database     int           `mapstructure:"database"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

// IndexConfig configures IndexGateway's backing search index.
type IndexConfig struct {
	Addresses    []string `mapstructure:"addresses"`
	IndexName    string   `mapstructure:"index_name"`
	VectorDim    int      `mapstructure:"vector_dim"`
	DistanceType string   `mapstructure:"distance_type"` // "cosine"
}

// APIConfig configures the thin HTTP surface.
type APIConfig struct {
	ListenAddress  string        `mapstructure:"listen_address"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	EnableCORS     bool          `mapstructure:"enable_cors"`
}

// CacheTTLs holds the per-namespace TTLs from spec.md §4.4's table.
type CacheTTLs struct {
	AllArticles        time.Duration `mapstructure:"all_articles"`
	Similar            time.Duration `mapstructure:"similar"`
	SimilarLRU         time.Duration `mapstructure:"similar_lru"`
	SimilarBloom       time.Duration `mapstructure:"similar_bloom"`
	SimilarStats       time.Duration `mapstructure:"similar_stats"`
	Personalized       time.Duration `mapstructure:"personalized"`
	PersonalizedSearch time.Duration `mapstructure:"personalized_search"`
	PrefsVersion       time.Duration `mapstructure:"prefs_version"`
	ReadHistory        time.Duration `mapstructure:"read_history"`
	DailyViews         time.Duration `mapstructure:"daily_views"`
	Engagement         time.Duration `mapstructure:"engagement"`
}

// SimilarityConfig holds the weights and thresholds spec.md §4.2 pins.
type SimilarityConfig struct {
	VectorThreshold    float64 `mapstructure:"vector_threshold"`
	TextWeight         float64 `mapstructure:"text_weight"`
	SemanticWeight     float64 `mapstructure:"semantic_weight"`
	CategoryWeight     float64 `mapstructure:"category_weight"`
	TemporalWeight     float64 `mapstructure:"temporal_weight"`
	LRUMaxSize         int     `mapstructure:"lru_max_size"`
}

// PersonalizationConfig holds the weights/thresholds spec.md §4.3 pins.
type PersonalizationConfig struct {
	VectorThreshold     float64 `mapstructure:"vector_threshold"`
	SearchThreshold      float64 `mapstructure:"search_threshold"`
	PreferenceDecay     float64 `mapstructure:"preference_decay"`
	ReadFilterMissRatio float64 `mapstructure:"read_filter_miss_ratio"`
	MinTopupBuffer      int     `mapstructure:"min_topup_buffer"`
}

// Config is the top-level application configuration.
type Config struct {
	Environment     string                `mapstructure:"environment"`
	API             APIConfig             `mapstructure:"api"`
	Cache           RedisConfig           `mapstructure:"cache"`
	Index           IndexConfig           `mapstructure:"index"`
	TTLs            CacheTTLs             `mapstructure:"ttls"`
	Similarity      SimilarityConfig      `mapstructure:"similarity"`
	Personalization PersonalizationConfig `mapstructure:"personalization"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")

	v.SetDefault("api.listen_address", ":3001")
	v.SetDefault("api.request_timeout", 10*time.Second)
	v.SetDefault("api.enable_cors", true)

	v.SetDefault("cache.address", "localhost:6379")
	v.SetDefault("cache.dial_timeout", 5*time.Second)
	v.SetDefault("cache.read_timeout", 3*time.Second)
	v.SetDefault("cache.write_timeout", 3*time.Second)
	v.SetDefault("cache.pool_size", 10)
	v.SetDefault("cache.min_idle_conns", 2)
	v.SetDefault("cache.max_retries", 3)

	v.SetDefault("index.addresses", []string{"http://localhost:9200"})
	v.SetDefault("index.index_name", "news-articles")
	v.SetDefault("index.vector_dim", 768)
	v.SetDefault("index.distance_type", "cosine")

	v.SetDefault("ttls.all_articles", 300*time.Second)
	v.SetDefault("ttls.similar", 3600*time.Second)
	v.SetDefault("ttls.similar_lru", 24*3600*time.Second)
	v.SetDefault("ttls.similar_bloom", 3600*time.Second)
	v.SetDefault("ttls.similar_stats", 3600*time.Second)
	v.SetDefault("ttls.personalized", 1800*time.Second)
	v.SetDefault("ttls.personalized_search", 900*time.Second)
	v.SetDefault("ttls.prefs_version", 1800*time.Second)
	v.SetDefault("ttls.read_history", 7200*time.Second)
	v.SetDefault("ttls.daily_views", 30*24*3600*time.Second)
	v.SetDefault("ttls.engagement", 7*24*3600*time.Second)

	v.SetDefault("similarity.vector_threshold", 0.5)
	v.SetDefault("similarity.text_weight", 0.4)
	v.SetDefault("similarity.semantic_weight", 0.3)
	v.SetDefault("similarity.category_weight", 0.2)
	v.SetDefault("similarity.temporal_weight", 0.1)
	v.SetDefault("similarity.lru_max_size", 1000)

	v.SetDefault("personalization.vector_threshold", 0.4)
	v.SetDefault("personalization.search_threshold", 0.3)
	v.SetDefault("personalization.preference_decay", 0.1)
	v.SetDefault("personalization.read_filter_miss_ratio", 0.3)
	v.SetDefault("personalization.min_topup_buffer", 10)
}

// Load reads configuration from NEWS_CONFIG_FILE (if set and present) and
// from environment variables, prefixed NEWS_ (e.g. NEWS_CACHE_ADDRESS),
// falling back to REDIS_URL for the Redis address when set, matching common
// container-deployment convention.
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	configFile := os.Getenv("NEWS_CONFIG_FILE")
	if configFile == "" {
		configFile = "configs/config.yaml"
	}
	v.SetConfigFile(configFile)

	v.SetEnvPrefix("NEWS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	_ = v.BindEnv("cache.address", "REDIS_URL")
	_ = v.BindEnv("cache.address", "REDIS_ADDR")
	_ = v.BindEnv("api.listen_address", "PORT")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if port := os.Getenv("PORT"); port != "" && !strings.HasPrefix(port, ":") {
		cfg.API.ListenAddress = ":" + port
	}

	return &cfg, nil
}
