package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Addr       string // listen address
	DBPath     string
	KeyDir     string // holds privkey.pem / pubkey.pem
	ClientURL  string // allowed CORS origin; empty disables CORS headers
	AdminUser  string // bootstrap admin account; empty skips bootstrap
	AdminPass  string
	BcryptCost int
}

// Load reads an optional .env file, then the environment. Missing
// values fall back to development defaults.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:       getenv("ADDR", ":3000"),
		DBPath:     getenv("DB_PATH", "database/tidder.db"),
		KeyDir:     getenv("KEY_DIR", "keystore"),
		ClientURL:  os.Getenv("CLIENT_URL"),
		AdminUser:  os.Getenv("ADMIN_USER"),
		AdminPass:  os.Getenv("ADMIN_PASS"),
		BcryptCost: bcrypt.DefaultCost,
	}
	if v := os.Getenv("BCRYPT_COST"); v != "" {
		if cost, err := strconv.Atoi(v); err == nil {
			cfg.BcryptCost = cost
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
