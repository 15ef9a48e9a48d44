package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Admin      AdminConfig
	Gateway    GatewayConfig
	Telegram   TelegramConfig
	Cloudinary CloudinaryConfig
	Worker     WorkerConfig
	CORS       CORSConfig
}

type ServerConfig struct {
	Port         string
	Env          string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	DSN             string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

type JWTConfig struct {
	Secret string
	Expiry time.Duration
	Issuer string
}

// AdminConfig holds the operator login for the admin API surface.
// If ADMIN_PASSWORD_HASH is unset, ADMIN_PASSWORD is bcrypt-hashed at load time.
type AdminConfig struct {
	Email        string
	PasswordHash string
}

// GatewayConfig selects and configures the PIX provider.
// Provider is one of "pushinpay", "syncpay" or "stub".
type GatewayConfig struct {
	Provider string

	PushinPayAPIKey  string
	PushinPayBaseURL string

	SyncPayAuthURL        string
	SyncPayCashinURL      string
	SyncPayTransactionURL string
	SyncPayClientID       string
	SyncPayClientSecret   string
}

type TelegramConfig struct {
	BotToken        string
	SecretAccessURL string
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
}

type WorkerConfig struct {
	ReconcileInterval time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Printf("[Config] loaded .env")
	}

	return &Config{
		Server: ServerConfig{
			Port:         getenv("PORT", "8080"),
			Env:          getenv("APP_ENV", "development"),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			DSN:             getenv("DATABASE_DSN", "sigilo:sigilo@tcp(localhost:3306)/sigilo?charset=utf8mb4&parseTime=True&loc=Local"),
			MaxIdleConns:    10,
			MaxOpenConns:    100,
			ConnMaxLifetime: time.Hour,
		},
		JWT: JWTConfig{
			Secret: getenv("JWT_SECRET", "change-me-in-production"),
			Expiry: getduration("JWT_EXPIRY", 12*time.Hour),
			Issuer: "sigilo",
		},
		Admin: AdminConfig{
			Email:        getenv("ADMIN_EMAIL", "admin@sigilo.local"),
			PasswordHash: adminPasswordHash(),
		},
		Gateway: GatewayConfig{
			Provider:              getenv("GATEWAY_PROVIDER", "pushinpay"),
			PushinPayAPIKey:       os.Getenv("PUSHINPAY_API_KEY"),
			PushinPayBaseURL:      getenv("PUSHINPAY_BASE_URL", "https://api.pushinpay.com.br/api"),
			SyncPayAuthURL:        getenv("SYNCPAY_AUTH_URL", "https://syncpay.apidog.io/api/partner/v1/auth-token"),
			SyncPayCashinURL:      getenv("SYNCPAY_CASHIN_URL", "https://syncpay.apidog.io/api/partner/v1/pix/cashin"),
			SyncPayTransactionURL: getenv("SYNCPAY_TRANSACTION_URL", "https://syncpay.apidog.io/api/partner/v1/transactions"),
			SyncPayClientID:       os.Getenv("SYNCPAY_CLIENT_ID"),
			SyncPayClientSecret:   os.Getenv("SYNCPAY_CLIENT_SECRET"),
		},
		Telegram: TelegramConfig{
			BotToken:        os.Getenv("TELEGRAM_BOT_TOKEN"),
			SecretAccessURL: getenv("SECRET_ACCESS_URL", "https://example.com/secret"),
		},
		Cloudinary: CloudinaryConfig{
			CloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			APIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			APISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		},
		Worker: WorkerConfig{
			ReconcileInterval: getduration("RECONCILE_INTERVAL", 25*time.Second),
		},
		CORS: CORSConfig{
			AllowedOrigins: csv(getenv("ALLOWED_ORIGINS", "*")),
		},
	}
}

func adminPasswordHash() string {
	if h := os.Getenv("ADMIN_PASSWORD_HASH"); h != "" {
		return h
	}
	plain := getenv("ADMIN_PASSWORD", "change-me")
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[Config] bcrypt hash failed: %v", err)
		return ""
	}
	return string(hash)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getduration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return fallback
}

func csv(value string) []string {
	var out []string
	for _, chunk := range strings.Split(value, ",") {
		chunk = strings.TrimSpace(chunk)
		if chunk != "" {
			out = append(out, chunk)
		}
	}
	return out
}
