package config

import (
	"os"
	"strconv"
)

type S3 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	Endpoint   string
	RootPrefix string
}

type Config struct {
	StorageBackend          string // drive, s3 or memory
	GoogleOAuthClientID     string
	GoogleOAuthClientSecret string
	GoogleOAuthRefreshToken string
	GoogleClientEmail       string
	GooglePrivateKey        string
	DriveRootFolderID       string
	S3                      S3
	RateLimitMax            int
	RateLimitWindowMS       int
	CronSecret              string
	Port                    string
}

func LoadConfig() *Config {
	return &Config{
		StorageBackend:          getEnv("STORAGE_BACKEND", "drive"),
		GoogleOAuthClientID:     getEnv("GOOGLE_OAUTH_CLIENT_ID", ""),
		GoogleOAuthClientSecret: getEnv("GOOGLE_OAUTH_CLIENT_SECRET", ""),
		GoogleOAuthRefreshToken: getEnv("GOOGLE_OAUTH_REFRESH_TOKEN", ""),
		GoogleClientEmail:       getEnv("GOOGLE_CLIENT_EMAIL", ""),
		GooglePrivateKey:        getEnv("GOOGLE_PRIVATE_KEY", ""),
		DriveRootFolderID:       getEnv("GOOGLE_DRIVE_ROOT_FOLDER_ID", ""),
		S3: S3{
			AccountID:  getEnv("S3_ACCOUNT_ID", ""),
			AccessKey:  getEnv("S3_ACCESS_KEY", ""),
			SecretKey:  getEnv("S3_SECRET_KEY", ""),
			BucketName: getEnv("S3_BUCKET_NAME", ""),
			Endpoint:   getEnv("S3_ENDPOINT", ""),
			RootPrefix: getEnv("S3_ROOT_PREFIX", ""),
		},
		RateLimitMax:      getEnvInt("RATE_LIMIT_MAX", 5),
		RateLimitWindowMS: getEnvInt("RATE_LIMIT_WINDOW_MS", 60000),
		CronSecret:        getEnv("CRON_SECRET", ""),
		Port:              getEnv("PORT", "3000"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
