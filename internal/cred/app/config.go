package app

import "os"

type Config struct {
	DatabaseFile    string // Optional: path to the SQLite database file (default: ./credstore.db)
	LegacyUsersFile string // Optional: path to the legacy flat user file (default: ./users.txt)
	DefaultRole     string // Optional: role assigned to new registrations (default: user)
	Env             string // Environment (dev, staging, prod) (default: dev)
	LogLevel        string // Log level (debug, info, warn, error) (default: info)
	LogFormat       string // Log format (json, text) (default: json)
}

func LoadConfig() Config {
	return Config{
		DatabaseFile:    getEnvOrDefault("CRED_DATABASE_FILE", "credstore.db"),
		LegacyUsersFile: getEnvOrDefault("CRED_LEGACY_USERS_FILE", "users.txt"),
		DefaultRole:     getEnvOrDefault("CRED_DEFAULT_ROLE", "user"),
		Env:             getEnvOrDefault("ENV", "dev"),
		LogLevel:        getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       getEnvOrDefault("LOG_FORMAT", "json"),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
