package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	AppName          string
	AppVersion       string
	Environment      string
	HTTPAddr         string
	SiteURL          string
	AuthCookieSecure bool

	OTLPEndpoint string

	DBType            string
	DBHost            string
	DBPort            string
	DBName            string
	DBUser            string
	DBPassword        string
	DBSSLMode         string
	DBMaxIdleConn     int
	DBMaxOpenConn     int
	DBConnMaxLifetime int
	DBConnMaxIdleTime int

	Stripe    StripeConfig
	Supabase  SupabaseConfig
	Auth      AuthConfig
	Storage   StorageConfig
	Email     EmailConfig
	RateLimit RateLimitConfig
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	// APIURL overrides the Stripe API base, used against stripe-mock in tests.
	APIURL               string
	WebhookToleranceSecs int64
}

// SupabaseConfig carries the backend-as-a-service endpoints. The service role key
// doubles as the database service credential that bypasses row-level security.
type SupabaseConfig struct {
	URL            string
	ServiceRoleKey string
}

type AuthConfig struct {
	JWTSecret    string
	JWTIssuer    string
	JWTAudience  string
	AdminUserIDs []string
}

type StorageConfig struct {
	Driver          string
	Bucket          string
	CredentialsFile string
	SignedURLTTL    int
}

type EmailConfig struct {
	Driver       string
	ResendAPIKey string
	ResendAPIURL string
	From         string
	SupportEmail string
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
}

type RateLimitConfig struct {
	Enabled       bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	UserRate      float64
	UserBurst     int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	environment := getenv("ENVIRONMENT", "development")
	authCookieSecure := environment == "production"
	if !authCookieSecure {
		authCookieSecure = getenvBool("AUTH_COOKIE_SECURE", false)
	}

	cfg := Config{
		AppName:          getenv("APP_SERVICE", "zalci"),
		AppVersion:       getenv("APP_VERSION", "0.1.0"),
		Environment:      environment,
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
		SiteURL:          strings.TrimRight(strings.TrimSpace(getenv("SITE_URL", "")), "/"),
		AuthCookieSecure: authCookieSecure,
		OTLPEndpoint:     getenv("OTLP_ENDPOINT", "localhost:4317"),

		DBType:            getenv("DATABASE_TYPE", "postgres"),
		DBHost:            getenv("DATABASE_HOST", "localhost"),
		DBPort:            getenv("DATABASE_PORT", "5432"),
		DBName:            getenv("DATABASE_NAME", "postgres"),
		DBUser:            getenv("DATABASE_USER", "postgres"),
		DBPassword:        getenv("DATABASE_PASSWORD", ""),
		DBSSLMode:         getenv("DATABASE_SSLMODE", "disable"),
		DBMaxIdleConn:     getenvInt("DATABASE_MAX_IDLE_CONN", 5),
		DBMaxOpenConn:     getenvInt("DATABASE_MAX_OPEN_CONN", 20),
		DBConnMaxLifetime: getenvInt("DATABASE_CONN_MAX_LIFETIME", 1800),
		DBConnMaxIdleTime: getenvInt("DATABASE_CONN_MAX_IDLE_TIME", 300),

		Stripe: StripeConfig{
			SecretKey:            strings.TrimSpace(getenv("STRIPE_SECRET_KEY", "")),
			WebhookSecret:        strings.TrimSpace(getenv("STRIPE_WEBHOOK_SECRET", "")),
			APIURL:               strings.TrimSpace(getenv("STRIPE_API_URL", "")),
			WebhookToleranceSecs: getenvInt64("STRIPE_WEBHOOK_TOLERANCE_SECONDS", 300),
		},
		Supabase: SupabaseConfig{
			URL:            strings.TrimRight(strings.TrimSpace(getenv("SUPABASE_URL", "")), "/"),
			ServiceRoleKey: strings.TrimSpace(getenv("SUPABASE_SERVICE_ROLE_KEY", "")),
		},
		Auth: AuthConfig{
			JWTSecret:    strings.TrimSpace(getenv("AUTH_JWT_SECRET", "")),
			JWTIssuer:    strings.TrimSpace(getenv("AUTH_JWT_ISSUER", "")),
			JWTAudience:  strings.TrimSpace(getenv("AUTH_JWT_AUDIENCE", "authenticated")),
			AdminUserIDs: parseList(getenv("ADMIN_USER_IDS", "")),
		},
		Storage: StorageConfig{
			Driver:          strings.ToLower(getenv("STORAGE_DRIVER", "supabase")),
			Bucket:          getenv("STORAGE_BUCKET", "songs"),
			CredentialsFile: strings.TrimSpace(getenv("GCS_CREDENTIALS_FILE", "")),
			SignedURLTTL:    getenvInt("STORAGE_SIGNED_URL_TTL_SECONDS", 60),
		},
		Email: EmailConfig{
			Driver:       strings.ToLower(getenv("EMAIL_DRIVER", "resend")),
			ResendAPIKey: strings.TrimSpace(getenv("RESEND_API_KEY", "")),
			ResendAPIURL: getenv("RESEND_API_URL", "https://api.resend.com"),
			From:         getenv("EMAIL_FROM", "Zalci Audio <noreply@zalci.net>"),
			SupportEmail: strings.TrimSpace(getenv("SUPPORT_EMAIL", "")),
			SMTPHost:     getenv("SMTP_HOST", "localhost"),
			SMTPPort:     getenvInt("SMTP_PORT", 1025),
			SMTPUsername: getenv("SMTP_USERNAME", ""),
			SMTPPassword: getenv("SMTP_PASSWORD", ""),
		},
		RateLimit: RateLimitConfig{
			Enabled:       getenvBool("RATE_LIMIT_ENABLED", false),
			RedisAddr:     strings.TrimSpace(getenv("RATE_LIMIT_REDIS_ADDR", "")),
			RedisPassword: getenv("RATE_LIMIT_REDIS_PASSWORD", ""),
			RedisDB:       getenvInt("RATE_LIMIT_REDIS_DB", 0),
			UserRate:      getenvFloat("RATE_LIMIT_USER_RATE", 0.5),
			UserBurst:     getenvInt("RATE_LIMIT_USER_BURST", 10),
		},
	}

	return cfg
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.Environment), "production")
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvBool(key string, def bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if value == "" {
		return def
	}
	switch value {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

func getenvInt64(key string, def int64) int64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func getenvFloat(key string, def float64) float64 {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return def
	}
	return parsed
}

func parseList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
