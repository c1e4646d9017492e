package config

import (
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost            string
	DBPort            string
	DBUser            string
	DBPassword        string
	DBName            string
	JWTSecret         string
	ServerPort        string
	CORSOrigin        string
	SingleChoicePolls bool
}

func Load() *Config {
	// Optional; real deployments set env vars directly.
	_ = godotenv.Load()

	return &Config{
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "5432"),
		DBUser:            getEnv("DB_USER", "postgres"),
		DBPassword:        getEnv("DB_PASSWORD", "postgres"),
		DBName:            getEnv("DB_NAME", "voting"),
		JWTSecret:         getEnv("JWT_SECRET", "super-secret-key-change-me"),
		ServerPort:        getEnv("SERVER_PORT", "8080"),
		CORSOrigin:        getEnv("CORS_ORIGIN", "*"),
		SingleChoicePolls: getEnv("SINGLE_CHOICE_POLLS", "false") == "true",
	}
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
