package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Server        ServerConfig        `json:"server"`
	Database      DatabaseConfig      `json:"database"`
	Security      SecurityConfig      `json:"security"`
	Logging       LoggingConfig       `json:"logging"`
	Storage       StorageConfig       `json:"storage"`
	Upload        UploadConfig        `json:"upload"`
	OCR           OCRConfig           `json:"ocr"`
	AI            AIConfig            `json:"ai"`
	Verification  VerificationConfig  `json:"verification"`
	Notifications NotificationsConfig `json:"notifications"`
	Dashboard     DashboardConfig     `json:"dashboard"`
	RateLimit     RateLimitConfig     `json:"rate_limit"`
	CORS          CORSConfig          `json:"cors"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `json:"host"`
	Port         int           `json:"port"`
	Mode         string        `json:"mode"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
	IdleTimeout  time.Duration `json:"idle_timeout"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host           string        `json:"host"`
	Port           int           `json:"port"`
	User           string        `json:"user"`
	Password       string        `json:"password"`
	DBName         string        `json:"db_name"`
	SSLMode        string        `json:"ssl_mode"`
	MaxConnections int           `json:"max_connections"`
	MaxIdleConns   int           `json:"max_idle_conns"`
	MaxLifetime    time.Duration `json:"max_lifetime"`
	AutoMigrate    bool          `json:"auto_migrate"`
}

// SecurityConfig holds the token signing settings
type SecurityConfig struct {
	JWTSecret string        `json:"jwt_secret"`
	TokenTTL  time.Duration `json:"token_ttl"`
}

// LoggingConfig
type LoggingConfig struct {
	Level       string `json:"level"`
	Development bool   `json:"development"`
}

// StorageConfig selects where uploaded certificate files live.
// Driver is either "local" or "s3"; the S3 settings also cover MinIO.
type StorageConfig struct {
	Driver          string        `json:"driver"`
	LocalPath       string        `json:"local_path"`
	Bucket          string        `json:"bucket"`
	Region          string        `json:"region"`
	Endpoint        string        `json:"endpoint"`
	AccessKeyID     string        `json:"access_key_id"`
	SecretAccessKey string        `json:"secret_access_key"`
	UsePathStyle    bool          `json:"use_path_style"`
	PresignExpiry   time.Duration `json:"presign_expiry"`
}

// UploadConfig
type UploadConfig struct {
	MaxFileSize       int64    `json:"max_file_size"`
	AllowedExtensions []string `json:"allowed_extensions"`
}

// OCRConfig
type OCRConfig struct {
	TesseractCmd string        `json:"tesseract_cmd"`
	Languages    string        `json:"languages"`
	Timeout      time.Duration `json:"timeout"`
}

// AIConfig points at the external authenticity model. An empty ServiceURL disables predictions.
type AIConfig struct {
	ServiceURL   string        `json:"service_url"`
	ModelVersion string        `json:"model_version"`
	Timeout      time.Duration `json:"timeout"`
}

// VerificationConfig holds the matching thresholds
type VerificationConfig struct {
	NameSimilarityThreshold  float64 `json:"name_similarity_threshold"`
	MarksSimilarityThreshold float64 `json:"marks_similarity_threshold"`
	VerifiedThreshold        float64 `json:"verified_threshold"`
	LowConfidenceThreshold   float64 `json:"low_confidence_threshold"`
	MultipleMismatchCount    int     `json:"multiple_mismatch_count"`
	CandidateLimit           int     `json:"candidate_limit"`
	BulkLimit                int     `json:"bulk_limit"`
}

// NotificationsConfig
type NotificationsConfig struct {
	Region           string   `json:"region"`
	SNSTopicARN      string   `json:"sns_topic_arn"`
	SESFromAddress   string   `json:"ses_from_address"`
	DigestRecipients []string `json:"digest_recipients"`
	DigestCron       string   `json:"digest_cron"`
}

// DashboardConfig
type DashboardConfig struct {
	CacheTTL time.Duration `json:"cache_ttl"`
}

// RateLimitConfig
type RateLimitConfig struct {
	RequestsPerMinute int `json:"requests_per_minute"`
	Burst             int `json:"burst"`
}

// CORSConfig
type CORSConfig struct {
	AllowedOrigins []string `json:"allowed_origins"`
}

// Default returns the configuration used when no file or environment overrides are present
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			Mode:         "debug",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{
			Host:           "localhost",
			Port:           5432,
			User:           os.Getenv("USER"),
			DBName:         "certificate_verification",
			SSLMode:        "disable",
			MaxConnections: 25,
			MaxIdleConns:   5,
			MaxLifetime:    5 * time.Minute,
			AutoMigrate:    true,
		},
		Security: SecurityConfig{
			TokenTTL: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:       "info",
			Development: true,
		},
		Storage: StorageConfig{
			Driver:        "local",
			LocalPath:     "uploads",
			Bucket:        "certificates",
			Region:        "us-east-1",
			PresignExpiry: time.Hour,
		},
		Upload: UploadConfig{
			MaxFileSize:       10 * 1024 * 1024,
			AllowedExtensions: []string{"jpg", "jpeg", "png", "pdf"},
		},
		OCR: OCRConfig{
			TesseractCmd: "tesseract",
			Languages:    "eng",
			Timeout:      60 * time.Second,
		},
		AI: AIConfig{
			ModelVersion: "v1.0.0",
			Timeout:      30 * time.Second,
		},
		Verification: VerificationConfig{
			NameSimilarityThreshold:  0.8,
			MarksSimilarityThreshold: 0.7,
			VerifiedThreshold:        0.8,
			LowConfidenceThreshold:   0.5,
			MultipleMismatchCount:    2,
			CandidateLimit:           10,
			BulkLimit:                100,
		},
		Notifications: NotificationsConfig{
			Region:     "us-east-1",
			DigestCron: "0 0 8 * * *",
		},
		Dashboard: DashboardConfig{
			CacheTTL: time.Minute,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 60,
			Burst:             10,
		},
		CORS: CORSConfig{
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	config := Default()

	if configPath != "" {
		if data, err := os.ReadFile(configPath); err == nil {
			if err := json.Unmarshal(data, config); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		}
	}

	overrideWithEnv(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func overrideWithEnv(config *Config) {
	setString(&config.Server.Host, "SERVER_HOST")
	setInt(&config.Server.Port, "SERVER_PORT")
	setString(&config.Server.Mode, "GIN_MODE")

	setString(&config.Database.Host, "DATABASE_HOST")
	setInt(&config.Database.Port, "DATABASE_PORT")
	setString(&config.Database.User, "DATABASE_USER")
	setString(&config.Database.Password, "DATABASE_PASSWORD")
	setString(&config.Database.DBName, "DATABASE_DBNAME")
	setString(&config.Database.SSLMode, "DATABASE_SSLMODE")
	setBool(&config.Database.AutoMigrate, "DATABASE_AUTO_MIGRATE")

	setString(&config.Security.JWTSecret, "SECRET_KEY")
	if minutes := os.Getenv("ACCESS_TOKEN_EXPIRE_MINUTES"); minutes != "" {
		if m, err := strconv.Atoi(minutes); err == nil {
			config.Security.TokenTTL = time.Duration(m) * time.Minute
		}
	}

	setString(&config.Logging.Level, "LOG_LEVEL")

	setString(&config.Storage.Driver, "STORAGE_DRIVER")
	setString(&config.Storage.LocalPath, "UPLOAD_FOLDER")
	setString(&config.Storage.Bucket, "S3_BUCKET_NAME")
	setString(&config.Storage.Region, "AWS_REGION")
	setString(&config.Storage.Endpoint, "S3_ENDPOINT_URL")
	setString(&config.Storage.AccessKeyID, "AWS_ACCESS_KEY_ID")
	setString(&config.Storage.SecretAccessKey, "AWS_SECRET_ACCESS_KEY")
	setBool(&config.Storage.UsePathStyle, "S3_USE_PATH_STYLE")

	if size := os.Getenv("MAX_FILE_SIZE"); size != "" {
		if s, err := strconv.ParseInt(size, 10, 64); err == nil {
			config.Upload.MaxFileSize = s
		}
	}
	setList(&config.Upload.AllowedExtensions, "ALLOWED_EXTENSIONS")

	setString(&config.OCR.TesseractCmd, "TESSERACT_CMD")
	setString(&config.OCR.Languages, "OCR_LANGUAGES")

	setString(&config.AI.ServiceURL, "AI_SERVICE_URL")
	setString(&config.AI.ModelVersion, "AI_MODEL_VERSION")

	setFloat(&config.Verification.VerifiedThreshold, "VERIFICATION_THRESHOLD")
	setFloat(&config.Verification.NameSimilarityThreshold, "NAME_SIMILARITY_THRESHOLD")
	setFloat(&config.Verification.MarksSimilarityThreshold, "MARKS_SIMILARITY_THRESHOLD")
	setFloat(&config.Verification.LowConfidenceThreshold, "LOW_CONFIDENCE_THRESHOLD")

	setString(&config.Notifications.Region, "NOTIFICATIONS_REGION")
	setString(&config.Notifications.SNSTopicARN, "ALERTS_SNS_TOPIC_ARN")
	setString(&config.Notifications.SESFromAddress, "ALERTS_FROM_EMAIL")
	setList(&config.Notifications.DigestRecipients, "ALERTS_DIGEST_RECIPIENTS")
	setString(&config.Notifications.DigestCron, "ALERTS_DIGEST_CRON")

	setInt(&config.RateLimit.RequestsPerMinute, "RATE_LIMIT_PER_MINUTE")
	setList(&config.CORS.AllowedOrigins, "CORS_ORIGINS")
}

// Validate rejects settings the service cannot run with
func (c *Config) Validate() error {
	v := c.Verification
	thresholds := map[string]float64{
		"name_similarity_threshold":  v.NameSimilarityThreshold,
		"marks_similarity_threshold": v.MarksSimilarityThreshold,
		"verified_threshold":         v.VerifiedThreshold,
		"low_confidence_threshold":   v.LowConfidenceThreshold,
	}
	for name, value := range thresholds {
		if value < 0 || value > 1 {
			return fmt.Errorf("verification.%s must be between 0 and 1, got %v", name, value)
		}
	}
	if v.CandidateLimit <= 0 || v.BulkLimit <= 0 {
		return errors.New("verification limits must be positive")
	}
	if c.Upload.MaxFileSize <= 0 {
		return errors.New("upload.max_file_size must be positive")
	}
	switch c.Storage.Driver {
	case "local", "s3":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

func setFloat(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setList(dst *[]string, key string) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	var items []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	*dst = items
}
