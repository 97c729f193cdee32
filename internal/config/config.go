// internal/config/config.go
package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port          string
	LogLevel      string
	LogFormat     string
	PublicBaseURL string

	Database DatabaseConfig
	Storage  StorageConfig
	Gemini   GeminiConfig
	Auth     AuthConfig

	AnalysisConfidence float64
	MaxUploadBytes     int64
}

type DatabaseConfig struct {
	Driver     string // postgres or sqlite
	URL        string
	Host       string
	Port       string
	User       string
	Password   string
	Name       string
	SSLMode    string
	SQLitePath string
}

type StorageConfig struct {
	Driver     string // local or minio
	UploadsDir string
	MinIO      MinIOConfig
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type GeminiConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// DSN builds the postgres connection string, preferring DATABASE_URL.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("public_base_url", "")

	v.SetDefault("db_driver", "postgres")
	v.SetDefault("database_url", "")
	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", "5432")
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "")
	v.SetDefault("db_name", "healcheck")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("sqlite_path", "healcheck.db")

	v.SetDefault("storage_driver", "local")
	v.SetDefault("uploads_dir", "uploads")
	v.SetDefault("minio_endpoint", "localhost:9000")
	v.SetDefault("minio_access_key", "")
	v.SetDefault("minio_secret_key", "")
	v.SetDefault("minio_bucket", "meal-images")
	v.SetDefault("minio_use_ssl", false)

	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_model", "gemini-2.5-flash")
	v.SetDefault("gemini_base_url", "https://generativelanguage.googleapis.com/v1beta")
	v.SetDefault("gemini_timeout", 30*time.Second)
	v.SetDefault("gemini_max_retries", 0)

	v.SetDefault("analysis_confidence", 0.95)
	v.SetDefault("max_upload_bytes", int64(10<<20))

	v.SetDefault("jwt_secret", "")
	v.SetDefault("jwt_ttl", 24*time.Hour)
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:          v.GetString("port"),
		LogLevel:      v.GetString("log_level"),
		LogFormat:     v.GetString("log_format"),
		PublicBaseURL: strings.TrimRight(v.GetString("public_base_url"), "/"),
		Database: DatabaseConfig{
			Driver:     strings.ToLower(v.GetString("db_driver")),
			URL:        v.GetString("database_url"),
			Host:       v.GetString("db_host"),
			Port:       v.GetString("db_port"),
			User:       v.GetString("db_user"),
			Password:   v.GetString("db_password"),
			Name:       v.GetString("db_name"),
			SSLMode:    v.GetString("db_sslmode"),
			SQLitePath: v.GetString("sqlite_path"),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(v.GetString("storage_driver")),
			UploadsDir: v.GetString("uploads_dir"),
			MinIO: MinIOConfig{
				Endpoint:  v.GetString("minio_endpoint"),
				AccessKey: v.GetString("minio_access_key"),
				SecretKey: v.GetString("minio_secret_key"),
				Bucket:    v.GetString("minio_bucket"),
				UseSSL:    v.GetBool("minio_use_ssl"),
			},
		},
		Gemini: GeminiConfig{
			APIKey:     v.GetString("gemini_api_key"),
			Model:      v.GetString("gemini_model"),
			BaseURL:    strings.TrimRight(v.GetString("gemini_base_url"), "/"),
			Timeout:    v.GetDuration("gemini_timeout"),
			MaxRetries: v.GetInt("gemini_max_retries"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("jwt_secret"),
			TokenTTL:  v.GetDuration("jwt_ttl"),
		},
		AnalysisConfidence: v.GetFloat64("analysis_confidence"),
		MaxUploadBytes:     v.GetInt64("max_upload_bytes"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Storage.Driver {
	case "local", "minio":
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}
	if c.AnalysisConfidence < 0 || c.AnalysisConfidence > 1 {
		return fmt.Errorf("ANALYSIS_CONFIDENCE must be within [0,1], got %v", c.AnalysisConfidence)
	}
	if c.Gemini.Timeout <= 0 {
		return fmt.Errorf("GEMINI_TIMEOUT must be positive")
	}
	if c.Gemini.MaxRetries < 0 {
		return fmt.Errorf("GEMINI_MAX_RETRIES must not be negative")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	return nil
}
