package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string

	DynamoTables DynamoTables

	// WhatsApp Business Cloud API. WhatsAppConfigured is decided once at load
	// time from credential presence.
	WhatsAppAccessToken   string
	WhatsAppPhoneNumberID string
	WhatsAppAPIBaseURL    string
	WhatsAppConfigured    bool
	WebhookVerifyToken    string

	SNSRegion    string
	S3BucketName string // raw webhook payload archive

	CodeTTL            time.Duration
	MaxConfirmAttempts int
	AllowDemoCodes     bool

	JWTPrivateKeyPath string
	JWTPublicKeyPath  string
	JWTExpiry         time.Duration

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Sessions string
	Tourists string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	env := getEnv("APP_ENV", "development")
	token := getEnv("WHATSAPP_ACCESS_TOKEN", "")
	phoneNumberID := getEnv("WHATSAPP_PHONE_NUMBER_ID", "")

	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  env,

		AWSRegion:      getEnv("AWS_REGION", "us-east-1"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),

		DynamoTables: DynamoTables{
			Sessions: getEnv("DYNAMO_TABLE_SESSIONS", "verification_sessions"),
			Tourists: getEnv("DYNAMO_TABLE_TOURISTS", "tourist_profiles"),
		},

		WhatsAppAccessToken:   token,
		WhatsAppPhoneNumberID: phoneNumberID,
		WhatsAppAPIBaseURL:    getEnv("WHATSAPP_API_BASE_URL", "https://graph.facebook.com/v21.0"),
		WhatsAppConfigured:    token != "" && phoneNumberID != "",
		WebhookVerifyToken:    getEnv("WEBHOOK_VERIFY_TOKEN", ""),

		SNSRegion:    getEnv("SNS_REGION", "us-east-1"),
		S3BucketName: getEnv("S3_BUCKET_NAME", "verify-webhook-archive"),

		CodeTTL:            getEnvDuration("CODE_TTL", 10*time.Minute),
		MaxConfirmAttempts: getEnvInt("MAX_CONFIRM_ATTEMPTS", 5),
		AllowDemoCodes:     getEnvBool("ALLOW_DEMO_CODES", env != "production"),

		JWTPrivateKeyPath: getEnv("JWT_PRIVATE_KEY_PATH", "./private_key.pem"),
		JWTPublicKeyPath:  getEnv("JWT_PUBLIC_KEY_PATH", "./public_key.pem"),
		JWTExpiry:         getEnvDuration("JWT_EXPIRY", 7*24*time.Hour),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
