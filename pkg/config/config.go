package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Cache     CacheConfig
	Analysis  AnalysisConfig
	Chat      ChatConfig
	Proofing  ProofingConfig
	Uploads   UploadsConfig
	Dashboard DashboardConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CacheConfig toggles the Redis-backed cache layer.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// AnalysisConfig tunes the simulated file analysis worker pool.
type AnalysisConfig struct {
	Latency    time.Duration
	Workers    int
	BufferSize int
}

// ChatConfig points the chat gateway at an OpenAI-compatible completion endpoint.
// An empty APIKey keeps the gateway in fallback mode.
type ChatConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// ProofingConfig governs workspace defaults.
type ProofingConfig struct {
	ScoreIncrement int
	DefaultZoom    int
	ReviewerEmail  string
}

// UploadsConfig controls where preview copies of uploaded files live.
type UploadsConfig struct {
	StorageDir       string
	SignedURLSecret  string
	SignedURLTTL     time.Duration
	MaxFileSizeBytes int64
}

// DashboardConfig tunes order dashboard caching.
type DashboardConfig struct {
	StatsCacheTTL time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// SetConfigFile surfaces a missing .env as a path error rather than ConfigFileNotFoundError.
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Cache = CacheConfig{
		Enabled:    v.GetBool("ENABLE_CACHE"),
		DefaultTTL: parseDuration(v.GetString("CACHE_DEFAULT_TTL"), 10*time.Minute),
	}

	cfg.Analysis = AnalysisConfig{
		Latency:    parseDuration(v.GetString("ANALYSIS_LATENCY"), 2*time.Second),
		Workers:    v.GetInt("ANALYSIS_WORKERS"),
		BufferSize: v.GetInt("ANALYSIS_BUFFER_SIZE"),
	}

	cfg.Chat = ChatConfig{
		APIKey:      v.GetString("CHAT_API_KEY"),
		BaseURL:     v.GetString("CHAT_BASE_URL"),
		Model:       v.GetString("CHAT_MODEL"),
		Temperature: v.GetFloat64("CHAT_TEMPERATURE"),
		Timeout:     parseDuration(v.GetString("CHAT_TIMEOUT"), 30*time.Second),
	}

	cfg.Proofing = ProofingConfig{
		ScoreIncrement: v.GetInt("PROOFING_SCORE_INCREMENT"),
		DefaultZoom:    v.GetInt("PROOFING_DEFAULT_ZOOM"),
		ReviewerEmail:  v.GetString("PROOFING_REVIEWER_EMAIL"),
	}

	maxUpload := v.GetInt64("UPLOADS_MAX_FILE_SIZE")
	if maxUpload <= 0 {
		maxUpload = 50 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		StorageDir:       v.GetString("UPLOADS_STORAGE_DIR"),
		SignedURLSecret:  v.GetString("UPLOADS_SIGNED_URL_SECRET"),
		SignedURLTTL:     parseDuration(v.GetString("UPLOADS_SIGNED_URL_TTL"), 2*time.Hour),
		MaxFileSizeBytes: maxUpload,
	}

	cfg.Dashboard = DashboardConfig{
		StatsCacheTTL: parseDuration(v.GetString("ORDER_STATS_CACHE_TTL"), time.Minute),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "reprint-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENABLE_CACHE", false)
	v.SetDefault("CACHE_DEFAULT_TTL", "10m")

	v.SetDefault("ANALYSIS_LATENCY", "2s")
	v.SetDefault("ANALYSIS_WORKERS", 2)
	v.SetDefault("ANALYSIS_BUFFER_SIZE", 16)

	v.SetDefault("CHAT_API_KEY", "")
	v.SetDefault("CHAT_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai")
	v.SetDefault("CHAT_MODEL", "gemini-2.5-flash")
	v.SetDefault("CHAT_TEMPERATURE", 0.7)
	v.SetDefault("CHAT_TIMEOUT", "30s")

	v.SetDefault("PROOFING_SCORE_INCREMENT", 10)
	v.SetDefault("PROOFING_DEFAULT_ZOOM", 85)
	v.SetDefault("PROOFING_REVIEWER_EMAIL", "teacher@demo.edu")

	v.SetDefault("UPLOADS_STORAGE_DIR", "./uploads")
	v.SetDefault("UPLOADS_SIGNED_URL_SECRET", "dev_uploads_secret")
	v.SetDefault("UPLOADS_SIGNED_URL_TTL", "2h")
	v.SetDefault("UPLOADS_MAX_FILE_SIZE", 50*1024*1024)

	v.SetDefault("ORDER_STATS_CACHE_TTL", "1m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
