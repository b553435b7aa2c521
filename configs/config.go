package config

import "os"

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
}

type Config struct {
	MeliAppID          string
	MeliAppSecret      string
	MeliRedirectURI    string
	DeepSeekAPIKey     string
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRedirectURI  string
	PostgresURI        string
	RedisURI           string
	FrontendURL        string
	R2                 R2
	SecretKey          string
	CookieName         string
	CronSecret         string
	JobCurrentKey      string
	JobNextKey         string
	TokenFile          string
}

func LoadConfig() *Config {
	return &Config{
		MeliAppID:          getEnv("MELI_APP_ID", ""),
		MeliAppSecret:      getEnv("MELI_APP_SECRET", ""),
		MeliRedirectURI:    getEnv("MELI_REDIRECT_URI", "http://localhost:3000/auth/meli/callback"),
		DeepSeekAPIKey:     getEnv("DEEPSEEK_API_KEY", ""),
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", "http://localhost:3000/login/callback"),
		PostgresURI:        getEnv("POSTGRES_URI", ""),
		RedisURI:           getEnv("REDIS_URI", ""),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  getEnv("R2_PUBLIC_URL", ""),
		},
		SecretKey:     getEnv("SECRET_KEY", ""),
		CookieName:    getEnv("COOKIE_NAME", "melipanel_session"),
		CronSecret:    getEnv("CRON_SECRET", ""),
		JobCurrentKey: getEnv("JOB_CURRENT_SIGNING_KEY", ""),
		JobNextKey:    getEnv("JOB_NEXT_SIGNING_KEY", ""),
		TokenFile:     getEnv("MELI_TOKEN_FILE", "tokens.json"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
