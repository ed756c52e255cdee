package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration.
type Config struct {
	DatabaseURL  string
	Port         string
	IsProduction bool

	JWTSecret         string
	JWTExpiryDuration time.Duration
	JWTIssuer         string

	RefreshTokenExpiryDuration time.Duration
	RefreshTokenCookieName     string
	RefreshTokenCookiePath     string

	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURL  string

	// Render pipeline
	AIService            string // huggingface | replicate | openai | pollinations | local
	RenderCost           int64
	SignupGrant          int64
	RenderTimeout        time.Duration
	SignedURLTTL         time.Duration
	HuggingFaceModel     string
	HuggingFaceAPIKey    string
	ReplicateAPIToken    string
	ReplicateModelVer    string
	OpenAIAPIKey         string
	PollinationsBaseURL  string
	LocalScriptPath      string
	ReplicatePollEvery   time.Duration
	ReplicateMaxAttempts int

	// Content store
	GCSBucket string

	// Usage event stream (optional; empty brokers disables publishing)
	KafkaBrokers []string
	KafkaTopic   string

	// Product analytics (optional)
	PostHogAPIKey  string
	PostHogHostURL string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_EXPIRY_DURATION", "1h")
	viper.SetDefault("JWT_ISSUER", "renderdesk")
	viper.SetDefault("REFRESH_TOKEN_EXPIRY_DURATION", "168h")
	viper.SetDefault("REFRESH_TOKEN_COOKIE_NAME", "rtid")
	viper.SetDefault("REFRESH_TOKEN_COOKIE_PATH", "/api/v1/auth")
	viper.SetDefault("AI_SERVICE", "huggingface")
	viper.SetDefault("RENDER_COST", 5)
	viper.SetDefault("SIGNUP_GRANT", 50)
	viper.SetDefault("RENDER_TIMEOUT", "60s")
	viper.SetDefault("SIGNED_URL_TTL", "300s")
	viper.SetDefault("HF_MODEL", "stabilityai/stable-diffusion-2-1")
	viper.SetDefault("REPLICATE_MODEL_VERSION", "ac732df83cea7fff18b8472768c88ad041fa750ff7682a21affe81863cbe77e4")
	viper.SetDefault("POLLINATIONS_BASE_URL", "https://image.pollinations.ai")
	viper.SetDefault("REPLICATE_POLL_INTERVAL", "2s")
	viper.SetDefault("REPLICATE_MAX_ATTEMPTS", 30)
	viper.SetDefault("GCS_BUCKET", "")
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_TOPIC", "renderdesk.credit-entries")
	viper.SetDefault("POSTHOG_API_KEY", "")
	viper.SetDefault("POSTHOG_HOST_URL", "https://app.posthog.com")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}

	cfg.Port = viper.GetString("PORT")
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "a-very-secret-key-should-be-longer-and-random" {
		log.Println("Warning: JWT_SECRET not set. Using default insecure key. THIS IS NOT FOR PRODUCTION.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.JWTExpiryDuration = parseDurationOrDefault("JWT_EXPIRY_DURATION", time.Hour)
	cfg.RefreshTokenExpiryDuration = parseDurationOrDefault("REFRESH_TOKEN_EXPIRY_DURATION", 7*24*time.Hour)
	cfg.RefreshTokenCookieName = viper.GetString("REFRESH_TOKEN_COOKIE_NAME")
	cfg.RefreshTokenCookiePath = viper.GetString("REFRESH_TOKEN_COOKIE_PATH")

	cfg.GoogleClientID = viper.GetString("GOOGLE_CLIENT_ID")
	cfg.GoogleClientSecret = viper.GetString("GOOGLE_CLIENT_SECRET")
	cfg.GoogleRedirectURL = viper.GetString("GOOGLE_REDIRECT_URL")
	if cfg.GoogleClientID == "" {
		log.Println("Warning: GOOGLE_CLIENT_ID not set. Google OAuth will not function.")
	}

	cfg.AIService = strings.ToLower(viper.GetString("AI_SERVICE"))
	cfg.RenderCost = viper.GetInt64("RENDER_COST")
	cfg.SignupGrant = viper.GetInt64("SIGNUP_GRANT")
	cfg.RenderTimeout = parseDurationOrDefault("RENDER_TIMEOUT", 60*time.Second)
	cfg.SignedURLTTL = parseDurationOrDefault("SIGNED_URL_TTL", 5*time.Minute)
	cfg.HuggingFaceModel = viper.GetString("HF_MODEL")
	cfg.HuggingFaceAPIKey = viper.GetString("HUGGINGFACE_API_KEY")
	cfg.ReplicateAPIToken = viper.GetString("REPLICATE_API_TOKEN")
	cfg.ReplicateModelVer = viper.GetString("REPLICATE_MODEL_VERSION")
	cfg.OpenAIAPIKey = viper.GetString("OPENAI_API_KEY")
	cfg.PollinationsBaseURL = viper.GetString("POLLINATIONS_BASE_URL")
	cfg.LocalScriptPath = viper.GetString("LOCAL_SCRIPT_PATH")
	cfg.ReplicatePollEvery = parseDurationOrDefault("REPLICATE_POLL_INTERVAL", 2*time.Second)
	cfg.ReplicateMaxAttempts = viper.GetInt("REPLICATE_MAX_ATTEMPTS")

	cfg.GCSBucket = viper.GetString("GCS_BUCKET")
	if cfg.GCSBucket == "" {
		log.Println("Warning: GCS_BUCKET not set. Falling back to the in-memory content store.")
	}

	if brokers := viper.GetString("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}
	cfg.KafkaTopic = viper.GetString("KAFKA_TOPIC")

	cfg.PostHogAPIKey = viper.GetString("POSTHOG_API_KEY")
	cfg.PostHogHostURL = viper.GetString("POSTHOG_HOST_URL")

	return cfg, nil
}

func parseDurationOrDefault(key string, def time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def)
		}
		return def
	}
	return d
}
