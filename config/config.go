package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

func Load() (*config, error) {
	if err := godotenv.Load(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	return &config{
		Database: DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			Port:     EnvtoInt(os.Getenv("DB_PORT")),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		Fubon: FubonConfig{
			BaseURL: getEnvOr("FUBON_BASE_URL", "https://api.fugle.tw"),
			APIKey:  os.Getenv("FUBON_API_KEY"),
		},
		Server: ServerConfig{
			Port: getPortOr("SERVER_PORT", 3000),
		},
		Symbols: getSymbols(),
	}, nil
}

// helper env(string) to int
func EnvtoInt(s string) int {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return i
}

func getEnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getPortOr(key string, fallback int) int {
	if v := EnvtoInt(os.Getenv(key)); v != 0 {
		return v
	}
	return fallback
}

// helper to get the default symbol universe
func getSymbols() []string {
	symbols := os.Getenv("STOCK_SYMBOLS")
	if symbols == "" {
		return []string{"2330", "2317", "2454"} // Default symbols if none specified
	}
	return strings.Split(symbols, ",")
}
