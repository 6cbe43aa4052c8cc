package config

import (
	"log"
	"os"
	"strings"
)

// Config holds application configuration.
type Config struct {
	Port             string
	CORSAllowOrigin  []string
	ObjectStoreType  string
	LocalStoreDir    string
	AWSRegion        string
	S3Bucket         string
	S3Prefix         string
	S3PublicBaseURL  string
	S3Endpoint       string
	S3AccessKey      string
	S3SecretKey      string
	SSEKMSKeyID      string
	DatabaseURL      string
	Env              string
	PublicBaseURL    string
	FormPath         string
	QRServiceURL     string
	CatalogFile      string
	NotifyQueueURL   string
	AdminEmails      []string
	GoogleClientID   string
	GoogleSecret     string
	GoogleRedirect   string
	UIRedirectURL    string
	SubmitRatePerMin float64
	SubmitBurst      int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:             getEnv("PORT", "8080"),
		CORSAllowOrigin:  splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		ObjectStoreType:  normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:    getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:        getEnv("AWS_REGION", ""),
		S3Bucket:         getEnv("S3_BUCKET", "cv"),
		S3Prefix:         getEnv("S3_PREFIX", ""),
		S3PublicBaseURL:  getEnv("S3_PUBLIC_BASE_URL", ""),
		S3Endpoint:       getEnv("S3_ENDPOINT", ""),
		S3AccessKey:      getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretKey:      getEnv("S3_SECRET_ACCESS_KEY", ""),
		SSEKMSKeyID:      getEnv("SSE_KMS_KEY_ID", ""),
		DatabaseURL:      dbURL,
		Env:              env,
		PublicBaseURL:    strings.TrimRight(getEnv("PUBLIC_BASE_URL", "http://localhost:8080"), "/"),
		FormPath:         getEnv("FORM_PATH", "#/apply"),
		QRServiceURL:     getEnv("QR_SERVICE_URL", "https://api.qrserver.com/v1/create-qr-code/"),
		CatalogFile:      getEnv("CATALOG_FILE", ""),
		NotifyQueueURL:   getEnv("NOTIFY_SQS_QUEUE_URL", ""),
		AdminEmails:      splitAndTrim(strings.ToLower(getEnv("ADMIN_EMAILS", ""))),
		GoogleClientID:   getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleSecret:     getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirect:   getEnv("GOOGLE_REDIRECT_URL", ""),
		UIRedirectURL:    getEnv("UI_REDIRECT_URL", ""),
		SubmitRatePerMin: getEnvFloat("SUBMIT_RATE_PER_MIN", 6),
		SubmitBurst:      getEnvInt("SUBMIT_BURST", 3),
	}
}

// FormURL is the public address of the application form, used as the QR target.
func (c Config) FormURL() string {
	base := strings.TrimRight(c.PublicBaseURL, "/")
	path := strings.TrimSpace(c.FormPath)
	if path == "" {
		return base
	}
	if strings.HasPrefix(path, "#") || strings.HasPrefix(path, "/") {
		return base + "/" + strings.TrimLeft(path, "/")
	}
	return base + "/" + path
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "development", "dev":
		return "dev"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}
