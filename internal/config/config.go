package config

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Store     StoreConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

// StorageConfig selects the key-value backend: memory, redis or postgres
type StorageConfig struct {
	Driver        string
	MigrationsDir string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Database string
	Schema   string
}

type RedisConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	KeyPrefix string
}

type AuthConfig struct {
	VisitorSecret string
	VisitorCookie string
	VisitorExpiry int // in days
	HashPasswords bool
	SecureCookies bool
}

// StoreConfig holds storefront presentation settings
type StoreConfig struct {
	Name            string
	LogoPath        string
	AssetsDir       string
	FooterPath      string
	InvoiceFilename string
	Currency        string
	Location        string
	Language        string
}

type RateLimitConfig struct {
	Enabled           bool
	RequestsPerWindow int
	Window            time.Duration
}

// DefaultVisitorSecret signs visitor cookies when AUTH_VISITOR_SECRET is unset.
// It is public, so it is only accepted in development.
const DefaultVisitorSecret = "dev-visitor-secret"

// ErrInsecureVisitorSecret is returned by Validate outside development when
// the visitor cookie secret is blank or the public default
var ErrInsecureVisitorSecret = errors.New("AUTH_VISITOR_SECRET must be set to a private value outside development")

// Validate rejects settings that are unsafe to serve with
func (c *Config) Validate() error {
	if c.IsDevelopment() {
		return nil
	}
	if c.Auth.VisitorSecret == "" || c.Auth.VisitorSecret == DefaultVisitorSecret {
		return ErrInsecureVisitorSecret
	}
	return nil
}

// IsDevelopment reports whether the server runs outside production
func (c *Config) IsDevelopment() bool {
	return c.Server.Env != "production"
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("SERVER_ALLOWED_ORIGINS", "http://localhost:8080")
	viper.SetDefault("STORAGE_DRIVER", "memory")
	viper.SetDefault("STORAGE_MIGRATIONS_DIR", "")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SCHEMA", "public")
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_KEY_PREFIX", "shopease:")
	viper.SetDefault("AUTH_VISITOR_SECRET", DefaultVisitorSecret)
	viper.SetDefault("AUTH_VISITOR_COOKIE", "shopease_visitor")
	viper.SetDefault("AUTH_VISITOR_EXPIRY", 365)
	viper.SetDefault("AUTH_HASH_PASSWORDS", false)
	viper.SetDefault("AUTH_SECURE_COOKIES", false)
	viper.SetDefault("STORE_NAME", "ShopEase")
	viper.SetDefault("STORE_LOGO_PATH", "assets/images/shop.png")
	viper.SetDefault("STORE_ASSETS_DIR", "assets")
	viper.SetDefault("STORE_FOOTER_PATH", "footer.html")
	viper.SetDefault("STORE_INVOICE_FILENAME", "ShopEase-Invoice.pdf")
	viper.SetDefault("STORE_CURRENCY", "₹")
	viper.SetDefault("STORE_LOCATION", "Local")
	viper.SetDefault("STORE_LANGUAGE", "en")
	viper.SetDefault("RATE_LIMIT_ENABLED", false)
	viper.SetDefault("RATE_LIMIT_REQUESTS", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW", time.Minute)

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port:           viper.GetString("SERVER_PORT"),
			Env:            viper.GetString("SERVER_ENV"),
			LogLevel:       viper.GetString("LOG_LEVEL"),
			AllowedOrigins: splitList(viper.GetString("SERVER_ALLOWED_ORIGINS")),
		},
		Storage: StorageConfig{
			Driver:        strings.ToLower(viper.GetString("STORAGE_DRIVER")),
			MigrationsDir: viper.GetString("STORAGE_MIGRATIONS_DIR"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			Database: viper.GetString("DB_DATABASE"),
			Schema:   viper.GetString("DB_SCHEMA"),
		},
		Redis: RedisConfig{
			Host:      viper.GetString("REDIS_HOST"),
			Port:      viper.GetString("REDIS_PORT"),
			Password:  viper.GetString("REDIS_PASSWORD"),
			DB:        viper.GetInt("REDIS_DB"),
			KeyPrefix: viper.GetString("REDIS_KEY_PREFIX"),
		},
		Auth: AuthConfig{
			VisitorSecret: viper.GetString("AUTH_VISITOR_SECRET"),
			VisitorCookie: viper.GetString("AUTH_VISITOR_COOKIE"),
			VisitorExpiry: viper.GetInt("AUTH_VISITOR_EXPIRY"),
			HashPasswords: viper.GetBool("AUTH_HASH_PASSWORDS"),
			SecureCookies: viper.GetBool("AUTH_SECURE_COOKIES"),
		},
		Store: StoreConfig{
			Name:            viper.GetString("STORE_NAME"),
			LogoPath:        viper.GetString("STORE_LOGO_PATH"),
			AssetsDir:       viper.GetString("STORE_ASSETS_DIR"),
			FooterPath:      viper.GetString("STORE_FOOTER_PATH"),
			InvoiceFilename: viper.GetString("STORE_INVOICE_FILENAME"),
			Currency:        viper.GetString("STORE_CURRENCY"),
			Location:        viper.GetString("STORE_LOCATION"),
			Language:        viper.GetString("STORE_LANGUAGE"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           viper.GetBool("RATE_LIMIT_ENABLED"),
			RequestsPerWindow: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Window:            viper.GetDuration("RATE_LIMIT_WINDOW"),
		},
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
