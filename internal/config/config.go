package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Redis     RedisConfig
	JWT       JWTConfig
	RateLimit RateLimitConfig
	Groq      GroqConfig
	Studio    StudioConfig
	Workflow  WorkflowConfig
	Review    ReviewConfig
	SQLite    SQLiteConfig
	R2        R2Config
	Zitadel   ZitadelConfig
}

type ServerConfig struct {
	Port     string
	Env      string
	LogLevel string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration int // hours
}

type RateLimitConfig struct {
	SongsPerHour     int
	StructuresPerMin int
	DebugPerMin      int
}

type GroqConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	TranscribeModel string
}

// StudioConfig points at the browser-automation driver sidecar that
// fronts the external song studio.
type StudioConfig struct {
	BaseURL         string
	GenerateTimeout int // seconds
	DownloadTimeout int // seconds
}

type WorkflowConfig struct {
	MaxAttempts       int
	RenderWaitSeconds int
	PendingDir        string
	ApprovedDir       string
}

type ReviewConfig struct {
	Profile              string // "fast" or "accurate"
	FastDelaySeconds     int
	AccurateDelaySeconds int
}

type SQLiteConfig struct {
	Path string
}

type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

type ZitadelConfig struct {
	Domain   string
	ClientID string
	Issuer   string
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds
	readSecret("REDIS_PASSWORD")
	readSecret("GROQ_API_KEY")
	readSecret("R2_ACCOUNT_ID")
	readSecret("R2_ACCESS_KEY_ID")
	readSecret("R2_SECRET_ACCESS_KEY")
	readSecret("ZITADEL_CLIENT_ID")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variables
	viper.AutomaticEnv()

	// Bind environment variables with underscores to nested config keys
	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.env", "SERVER_ENV")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("jwt.secret", "JWT_SECRET")
	_ = viper.BindEnv("jwt.expiration", "JWT_EXPIRATION")
	_ = viper.BindEnv("groq.api_key", "GROQ_API_KEY")
	_ = viper.BindEnv("groq.base_url", "GROQ_BASE_URL")
	_ = viper.BindEnv("groq.model", "GROQ_MODEL")
	_ = viper.BindEnv("groq.transcribe_model", "GROQ_TRANSCRIBE_MODEL")
	_ = viper.BindEnv("studio.base_url", "STUDIO_DRIVER_URL")
	_ = viper.BindEnv("studio.generate_timeout", "STUDIO_GENERATE_TIMEOUT")
	_ = viper.BindEnv("studio.download_timeout", "STUDIO_DOWNLOAD_TIMEOUT")
	_ = viper.BindEnv("workflow.max_attempts", "WORKFLOW_MAX_ATTEMPTS")
	_ = viper.BindEnv("workflow.render_wait_seconds", "WORKFLOW_RENDER_WAIT")
	_ = viper.BindEnv("workflow.pending_dir", "WORKFLOW_PENDING_DIR")
	_ = viper.BindEnv("workflow.approved_dir", "WORKFLOW_APPROVED_DIR")
	_ = viper.BindEnv("review.profile", "REVIEW_PROFILE")
	_ = viper.BindEnv("review.fast_delay_seconds", "REVIEW_FAST_DELAY")
	_ = viper.BindEnv("review.accurate_delay_seconds", "REVIEW_ACCURATE_DELAY")
	_ = viper.BindEnv("sqlite.path", "SQLITE_PATH")
	_ = viper.BindEnv("r2.account_id", "R2_ACCOUNT_ID")
	_ = viper.BindEnv("r2.access_key_id", "R2_ACCESS_KEY_ID")
	_ = viper.BindEnv("r2.secret_access_key", "R2_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("r2.bucket_name", "R2_BUCKET_NAME")
	_ = viper.BindEnv("r2.public_url", "R2_PUBLIC_URL")
	_ = viper.BindEnv("zitadel.domain", "ZITADEL_DOMAIN")
	_ = viper.BindEnv("zitadel.client_id", "ZITADEL_CLIENT_ID")
	_ = viper.BindEnv("zitadel.issuer", "ZITADEL_ISSUER")

	// Defaults
	viper.SetDefault("server.port", "8000")
	viper.SetDefault("server.env", "development")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("jwt.secret", "change-me-in-production")
	viper.SetDefault("jwt.expiration", 24)
	viper.SetDefault("ratelimit.songs_per_hour", 10)
	viper.SetDefault("ratelimit.structures_per_min", 20)
	viper.SetDefault("ratelimit.debug_per_min", 10)

	// Groq defaults
	viper.SetDefault("groq.base_url", "https://api.groq.com/openai/v1")
	viper.SetDefault("groq.model", "llama-3.3-70b-versatile")
	viper.SetDefault("groq.transcribe_model", "whisper-large-v3")

	// Studio driver defaults
	viper.SetDefault("studio.base_url", "http://localhost:8090")
	viper.SetDefault("studio.generate_timeout", 180)
	viper.SetDefault("studio.download_timeout", 120)

	// Workflow defaults
	viper.SetDefault("workflow.max_attempts", 3)
	viper.SetDefault("workflow.render_wait_seconds", 90)
	viper.SetDefault("workflow.pending_dir", "./data/pending")
	viper.SetDefault("workflow.approved_dir", "./data/approved")

	// Review defaults
	viper.SetDefault("review.profile", "fast")
	viper.SetDefault("review.fast_delay_seconds", 4)
	viper.SetDefault("review.accurate_delay_seconds", 30)

	viper.SetDefault("sqlite.path", "./data/versecraft.db")

	// Try to read config file (optional)
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Port:     viper.GetString("server.port"),
			Env:      viper.GetString("server.env"),
			LogLevel: viper.GetString("server.log_level"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			Secret:     viper.GetString("jwt.secret"),
			Expiration: viper.GetInt("jwt.expiration"),
		},
		RateLimit: RateLimitConfig{
			SongsPerHour:     viper.GetInt("ratelimit.songs_per_hour"),
			StructuresPerMin: viper.GetInt("ratelimit.structures_per_min"),
			DebugPerMin:      viper.GetInt("ratelimit.debug_per_min"),
		},
		Groq: GroqConfig{
			APIKey:          viper.GetString("groq.api_key"),
			BaseURL:         viper.GetString("groq.base_url"),
			Model:           viper.GetString("groq.model"),
			TranscribeModel: viper.GetString("groq.transcribe_model"),
		},
		Studio: StudioConfig{
			BaseURL:         viper.GetString("studio.base_url"),
			GenerateTimeout: viper.GetInt("studio.generate_timeout"),
			DownloadTimeout: viper.GetInt("studio.download_timeout"),
		},
		Workflow: WorkflowConfig{
			MaxAttempts:       viper.GetInt("workflow.max_attempts"),
			RenderWaitSeconds: viper.GetInt("workflow.render_wait_seconds"),
			PendingDir:        viper.GetString("workflow.pending_dir"),
			ApprovedDir:       viper.GetString("workflow.approved_dir"),
		},
		Review: ReviewConfig{
			Profile:              viper.GetString("review.profile"),
			FastDelaySeconds:     viper.GetInt("review.fast_delay_seconds"),
			AccurateDelaySeconds: viper.GetInt("review.accurate_delay_seconds"),
		},
		SQLite: SQLiteConfig{
			Path: viper.GetString("sqlite.path"),
		},
		R2: R2Config{
			AccountID:       viper.GetString("r2.account_id"),
			AccessKeyID:     viper.GetString("r2.access_key_id"),
			SecretAccessKey: viper.GetString("r2.secret_access_key"),
			BucketName:      viper.GetString("r2.bucket_name"),
			PublicURL:       viper.GetString("r2.public_url"),
		},
		Zitadel: ZitadelConfig{
			Domain:   viper.GetString("zitadel.domain"),
			ClientID: viper.GetString("zitadel.client_id"),
			Issuer:   viper.GetString("zitadel.issuer"),
		},
	}

	return cfg, nil
}

// ReviewDelaySeconds returns the inter-request delay for the active profile
func (c *ReviewConfig) ReviewDelaySeconds() int {
	if strings.EqualFold(c.Profile, "accurate") {
		return c.AccurateDelaySeconds
	}
	return c.FastDelaySeconds
}
