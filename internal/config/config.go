package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig
	DB     DBConfig
	JWT    JWTConfig
	S3     S3Config
	Log    LogConfig
	CORS   CORSConfig
	Queue  QueueConfig
	Email  EmailConfig
	Drive  DriveConfig
	Batch  BatchConfig
	Upload UploadConfig
}

// EmailConfig holds batch notification delivery settings.
type EmailConfig struct {
	Provider    string   `mapstructure:"provider"`
	Region      string   `mapstructure:"region"`
	FromAddress string   `mapstructure:"from_address"`
	FromName    string   `mapstructure:"from_name"`
	Recipients  []string `mapstructure:"recipients"`
}

// QueueConfig holds parse queue worker settings.
type QueueConfig struct {
	PollIntervalSecs int `mapstructure:"poll_interval_secs"`
	MaxRetries       int `mapstructure:"max_retries"`
	Concurrency      int `mapstructure:"concurrency"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DriveConfig holds Google Drive OAuth client and API settings.
type DriveConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	TokenPath    string `mapstructure:"token_path"`
	RootFolderID string `mapstructure:"root_folder_id"`
	RedirectPort int    `mapstructure:"redirect_port"`
	AuthURL      string `mapstructure:"auth_url"`
	TokenURL     string `mapstructure:"token_url"`
	APIBaseURL   string `mapstructure:"api_base_url"`
}

// Validate reports missing OAuth client credentials.
func (d *DriveConfig) Validate() error {
	if d.ClientID == "" || d.ClientSecret == "" {
		return fmt.Errorf("missing CARTELLINO_DRIVE_CLIENT_ID or CARTELLINO_DRIVE_CLIENT_SECRET")
	}
	return nil
}

// BatchConfig holds batch download and parse settings.
type BatchConfig struct {
	Workers       int      `mapstructure:"workers"`
	FlushEvery    int      `mapstructure:"flush_every"`
	TimeoutSecs   int      `mapstructure:"timeout_secs"`
	ExcludeTerms  []string `mapstructure:"exclude_terms"`
	ScanWorkers   int      `mapstructure:"scan_workers"`
	ArchiveToS3   bool     `mapstructure:"archive_to_s3"`
	ArchivePrefix string   `mapstructure:"archive_prefix"`
}

// UploadConfig holds API upload settings.
type UploadConfig struct {
	MaxFileSizeMB int64 `mapstructure:"max_file_size_mb"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds PostgreSQL connection settings.
type DBConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds API token signing settings. ClientSecretHash is the bcrypt
// hash of the single API client's secret.
type JWTConfig struct {
	Secret            string        `mapstructure:"secret"`
	AccessTokenExpiry time.Duration `mapstructure:"access_expiry"`
	Issuer            string        `mapstructure:"issuer"`
	ClientID          string        `mapstructure:"client_id"`
	ClientSecretHash  string        `mapstructure:"client_secret_hash"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Debug reports whether parser diagnostics should be logged.
func (l *LogConfig) Debug() bool {
	return strings.EqualFold(l.Level, "debug")
}

// Load reads configuration from environment variables with the CARTELLINO_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CARTELLINO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "cartellino")
	v.SetDefault("db.password", "cartellino_secret")
	v.SetDefault("db.name", "cartellino_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.access_expiry", "1h")
	v.SetDefault("jwt.issuer", "cartellino")
	v.SetDefault("jwt.client_id", "cartellino-client")
	v.SetDefault("jwt.client_secret_hash", "")

	// S3 defaults
	v.SetDefault("s3.region", "eu-south-1")
	v.SetDefault("s3.bucket", "cartellino-timesheets")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "info")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Queue defaults
	v.SetDefault("queue.poll_interval_secs", 10)
	v.SetDefault("queue.max_retries", 3)
	v.SetDefault("queue.concurrency", 4)

	// Email defaults
	v.SetDefault("email.provider", "noop")
	v.SetDefault("email.region", "eu-south-1")
	v.SetDefault("email.from_address", "noreply@cartellino.local")
	v.SetDefault("email.from_name", "Cartellino")
	v.SetDefault("email.recipients", "")

	// Drive defaults
	v.SetDefault("drive.client_id", "")
	v.SetDefault("drive.client_secret", "")
	v.SetDefault("drive.token_path", "token.json")
	v.SetDefault("drive.root_folder_id", "")
	v.SetDefault("drive.redirect_port", 0)
	v.SetDefault("drive.auth_url", "https://accounts.google.com/o/oauth2/auth")
	v.SetDefault("drive.token_url", "https://oauth2.googleapis.com/token")
	v.SetDefault("drive.api_base_url", "https://www.googleapis.com/drive/v3")

	// Batch defaults
	v.SetDefault("batch.workers", 6)
	v.SetDefault("batch.flush_every", 25)
	v.SetDefault("batch.timeout_secs", 300)
	v.SetDefault("batch.exclude_terms", "cedolino,cedolini,busta,buste,paga,busta paga,buste paga")
	v.SetDefault("batch.scan_workers", 4)
	v.SetDefault("batch.archive_to_s3", false)
	v.SetDefault("batch.archive_prefix", "batches")

	// Upload defaults
	v.SetDefault("upload.max_file_size_mb", 20)

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":              "CARTELLINO_SERVER_PORT",
		"server.read_timeout":      "CARTELLINO_SERVER_READ_TIMEOUT",
		"server.write_timeout":     "CARTELLINO_SERVER_WRITE_TIMEOUT",
		"server.environment":       "CARTELLINO_SERVER_ENVIRONMENT",
		"db.host":                  "CARTELLINO_DB_HOST",
		"db.port":                  "CARTELLINO_DB_PORT",
		"db.user":                  "CARTELLINO_DB_USER",
		"db.password":              "CARTELLINO_DB_PASSWORD",
		"db.name":                  "CARTELLINO_DB_NAME",
		"db.sslmode":               "CARTELLINO_DB_SSLMODE",
		"db.max_open":              "CARTELLINO_DB_MAX_OPEN",
		"db.max_idle":              "CARTELLINO_DB_MAX_IDLE",
		"jwt.secret":               "CARTELLINO_JWT_SECRET",
		"jwt.access_expiry":        "CARTELLINO_JWT_ACCESS_EXPIRY",
		"jwt.issuer":               "CARTELLINO_JWT_ISSUER",
		"jwt.client_id":            "CARTELLINO_JWT_CLIENT_ID",
		"jwt.client_secret_hash":   "CARTELLINO_JWT_CLIENT_SECRET_HASH",
		"s3.region":                "CARTELLINO_S3_REGION",
		"s3.bucket":                "CARTELLINO_S3_BUCKET",
		"s3.endpoint":              "CARTELLINO_S3_ENDPOINT",
		"s3.access_key":            "CARTELLINO_S3_ACCESS_KEY",
		"s3.secret_key":            "CARTELLINO_S3_SECRET_KEY",
		"s3.presign_expiry":        "CARTELLINO_S3_PRESIGN_EXPIRY",
		"log.level":                "CARTELLINO_LOG_LEVEL",
		"cors.allowed_origins":     "CARTELLINO_CORS_ALLOWED_ORIGINS",
		"queue.poll_interval_secs": "CARTELLINO_QUEUE_POLL_INTERVAL_SECS",
		"queue.max_retries":        "CARTELLINO_QUEUE_MAX_RETRIES",
		"queue.concurrency":        "CARTELLINO_QUEUE_CONCURRENCY",
		"email.provider":           "CARTELLINO_EMAIL_PROVIDER",
		"email.region":             "CARTELLINO_EMAIL_REGION",
		"email.from_address":       "CARTELLINO_EMAIL_FROM_ADDRESS",
		"email.from_name":          "CARTELLINO_EMAIL_FROM_NAME",
		"email.recipients":         "CARTELLINO_EMAIL_RECIPIENTS",
		"drive.client_id":          "CARTELLINO_DRIVE_CLIENT_ID",
		"drive.client_secret":      "CARTELLINO_DRIVE_CLIENT_SECRET",
		"drive.token_path":         "CARTELLINO_DRIVE_TOKEN_PATH",
		"drive.root_folder_id":     "CARTELLINO_DRIVE_ROOT_FOLDER_ID",
		"drive.redirect_port":      "CARTELLINO_DRIVE_REDIRECT_PORT",
		"drive.auth_url":           "CARTELLINO_DRIVE_AUTH_URL",
		"drive.token_url":          "CARTELLINO_DRIVE_TOKEN_URL",
		"drive.api_base_url":       "CARTELLINO_DRIVE_API_BASE_URL",
		"batch.workers":            "CARTELLINO_BATCH_WORKERS",
		"batch.flush_every":        "CARTELLINO_BATCH_FLUSH_EVERY",
		"batch.timeout_secs":       "CARTELLINO_BATCH_TIMEOUT_SECS",
		"batch.exclude_terms":      "CARTELLINO_BATCH_EXCLUDE_TERMS",
		"batch.scan_workers":       "CARTELLINO_BATCH_SCAN_WORKERS",
		"batch.archive_to_s3":      "CARTELLINO_BATCH_ARCHIVE_TO_S3",
		"batch.archive_prefix":     "CARTELLINO_BATCH_ARCHIVE_PREFIX",
		"upload.max_file_size_mb":  "CARTELLINO_UPLOAD_MAX_FILE_SIZE_MB",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Hosting platforms set a PORT env var. Use it if CARTELLINO_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("CARTELLINO_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret:            v.GetString("jwt.secret"),
		AccessTokenExpiry: v.GetDuration("jwt.access_expiry"),
		Issuer:            v.GetString("jwt.issuer"),
		ClientID:          v.GetString("jwt.client_id"),
		ClientSecretHash:  v.GetString("jwt.client_secret_hash"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level: v.GetString("log.level"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: SplitList(v.GetString("cors.allowed_origins")),
	}

	cfg.Queue = QueueConfig{
		PollIntervalSecs: v.GetInt("queue.poll_interval_secs"),
		MaxRetries:       v.GetInt("queue.max_retries"),
		Concurrency:      v.GetInt("queue.concurrency"),
	}

	cfg.Email = EmailConfig{
		Provider:    v.GetString("email.provider"),
		Region:      v.GetString("email.region"),
		FromAddress: v.GetString("email.from_address"),
		FromName:    v.GetString("email.from_name"),
		Recipients:  SplitList(v.GetString("email.recipients")),
	}

	cfg.Drive = DriveConfig{
		ClientID:     v.GetString("drive.client_id"),
		ClientSecret: v.GetString("drive.client_secret"),
		TokenPath:    v.GetString("drive.token_path"),
		RootFolderID: v.GetString("drive.root_folder_id"),
		RedirectPort: v.GetInt("drive.redirect_port"),
		AuthURL:      v.GetString("drive.auth_url"),
		TokenURL:     v.GetString("drive.token_url"),
		APIBaseURL:   v.GetString("drive.api_base_url"),
	}

	cfg.Batch = BatchConfig{
		Workers:       v.GetInt("batch.workers"),
		FlushEvery:    v.GetInt("batch.flush_every"),
		TimeoutSecs:   v.GetInt("batch.timeout_secs"),
		ExcludeTerms:  SplitList(v.GetString("batch.exclude_terms")),
		ScanWorkers:   v.GetInt("batch.scan_workers"),
		ArchiveToS3:   v.GetBool("batch.archive_to_s3"),
		ArchivePrefix: v.GetString("batch.archive_prefix"),
	}

	cfg.Upload = UploadConfig{
		MaxFileSizeMB: v.GetInt64("upload.max_file_size_mb"),
	}

	return cfg, nil
}

// SplitList splits a comma-separated setting, dropping blank items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
