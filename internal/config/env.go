package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Env holds connection-level settings read from the environment. Backend
// selection and the processor registry live in the YAML settings file; the
// environment only carries credentials, endpoints and paths.
type Env struct {
	Port string

	DatabaseURL string

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	GeminiAPIKey string
	EmbedModel   string

	ContentRoot     string
	MetadataPath    string
	ChatProfileRoot string
}

// LoadEnv loads the environment variables and returns the env settings.
func LoadEnv() *Env {
	_ = godotenv.Load()

	return &Env{
		Port: getEnv("PORT", "8111"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "knowflow-docs"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "knowflow-profiles"),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		EmbedModel:   getEnv("EMBED_MODEL", "text-embedding-004"),

		ContentRoot:     getEnv("CONTENT_ROOT", "./data/content"),
		MetadataPath:    getEnv("METADATA_PATH", "./data/metadata.json"),
		ChatProfileRoot: getEnv("CHAT_PROFILE_ROOT", "./data/profiles"),
	}
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a bool, using default %v", key, v, def)
		return def
	}
	return b
}
