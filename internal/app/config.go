package app

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/shrimpsizemoose/trekker/logger"
)

const (
	defaultMaxUploadBytes = 5 << 20
	defaultTokenTTLHours  = 24
	defaultPrize          = "Quarterly Prize"
	defaultHistoryLimit   = 50
)

type Config struct {
	Server struct {
		Port              string   `toml:"port"`
		MaxUploadBytes    int64    `toml:"max_upload_bytes"`
		AllowedExtensions []string `toml:"allowed_extensions"`
	} `toml:"server"`

	Auth struct {
		JWTSecret     string `toml:"jwt_secret"`
		TokenTTLHours int    `toml:"token_ttl_hours"`
		RedisURL      string `toml:"redis_url"`
		AdminEmail    string `toml:"admin_email"`
		AdminName     string `toml:"admin_name"`
		AdminPassword string `toml:"admin_password"`
	} `toml:"auth"`

	Database struct {
		DSN           string `toml:"dsn"`
		MigrationsDir string `toml:"migrations_dir"`
		BackupDir     string `toml:"backup_dir"`
	} `toml:"database"`

	Raffle struct {
		DefaultPrize string `toml:"default_prize"`
		HistoryLimit int    `toml:"history_limit"`
	} `toml:"raffle"`

	Telegram struct {
		Token    string  `toml:"token"`
		AdminIDs []int64 `toml:"admin_ids"`
	} `toml:"telegram"`

	Export struct {
		Schedule        string `toml:"schedule"`
		BackupSchedule  string `toml:"backup_schedule"`
		SheetID         string `toml:"sheet_id"`
		SheetName       string `toml:"sheet_name"`
		CredentialsPath string `toml:"credentials_path"`
	} `toml:"export"`
}

func LoadConfig(path string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	return ParseConfig(data)
}

// ParseConfig decodes TOML, applies environment overrides and defaults.
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	overrideFromEnv(&config)
	if err := config.applyDefaults(); err != nil {
		return nil, err
	}

	if config.Server.Port == "" {
		return nil, fmt.Errorf("Server port is not specified in config, use a value like :8080")
	}
	if config.Database.DSN == "" {
		return nil, fmt.Errorf("Database DSN is not specified in config or DATABASE_DSN")
	}

	logger.Debug.Printf("Loaded raffle config: %+v", config.Raffle)

	return &config, nil
}

func overrideFromEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		if !strings.HasPrefix(v, ":") {
			v = ":" + v
		}
		cfg.Server.Port = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Auth.RedisURL = v
	}
	if v := os.Getenv("ADMIN_EMAIL"); v != "" {
		cfg.Auth.AdminEmail = v
	}
	if v := os.Getenv("ADMIN_PASSWORD"); v != "" {
		cfg.Auth.AdminPassword = v
	}
	if v := os.Getenv("DATABASE_DSN"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("TELEGRAM_TOKEN"); v != "" {
		cfg.Telegram.Token = v
	}
	if v := os.Getenv("MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Server.MaxUploadBytes = n
		} else {
			logger.Error.Printf("Ignoring MAX_UPLOAD_BYTES=%q: %v", v, err)
		}
	}
}

func (c *Config) applyDefaults() error {
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = defaultMaxUploadBytes
	}
	if len(c.Server.AllowedExtensions) == 0 {
		c.Server.AllowedExtensions = []string{".xlsx", ".xlsm", ".csv"}
	}
	if c.Auth.TokenTTLHours <= 0 {
		c.Auth.TokenTTLHours = defaultTokenTTLHours
	}
	if c.Auth.AdminName == "" {
		c.Auth.AdminName = "Administrator"
	}
	if c.Database.MigrationsDir == "" {
		c.Database.MigrationsDir = "./migrations"
	}
	if c.Database.BackupDir == "" {
		c.Database.BackupDir = "./backups"
	}
	if c.Raffle.DefaultPrize == "" {
		c.Raffle.DefaultPrize = defaultPrize
	}
	if c.Raffle.HistoryLimit <= 0 {
		c.Raffle.HistoryLimit = defaultHistoryLimit
	}
	if c.Auth.JWTSecret == "" {
		secret, err := randomHex(32)
		if err != nil {
			return fmt.Errorf("failed to generate jwt secret: %w", err)
		}
		c.Auth.JWTSecret = secret
		logger.Info.Println("No JWT secret configured, generated one; tokens will not survive a restart")
	}
	return nil
}

func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLHours) * time.Hour
}

// ExtensionAllowed reports whether an upload with the given extension
// (including the dot, any case) may be imported.
func (c *Config) ExtensionAllowed(ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range c.Server.AllowedExtensions {
		if strings.ToLower(allowed) == ext {
			return true
		}
	}
	return false
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
