package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Import    ImportConfig    `mapstructure:"import"`
	Media     MediaConfig     `mapstructure:"media"`
	Schedule  ScheduleConfig  `mapstructure:"schedule"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	Host         string        `mapstructure:"host"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	APIKey       string        `mapstructure:"api_key"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	URL             string        `mapstructure:"url"`
	MaxConnections  int           `mapstructure:"max_connections"`
	MinConnections  int           `mapstructure:"min_connections"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// StorageConfig holds asset storage configuration
type StorageConfig struct {
	Type     string   `mapstructure:"type"`
	BasePath string   `mapstructure:"base_path"`
	S3       S3Config `mapstructure:"s3"`
}

// S3Config holds S3/MinIO connection settings used when storage.type is "s3"
type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	NoColor bool   `mapstructure:"no_color"`
}

// ImportConfig holds feed import configuration
type ImportConfig struct {
	InboxDir     string `mapstructure:"inbox_dir"`
	BackupDir    string `mapstructure:"backup_dir"`
	ImageBaseURL string `mapstructure:"image_base_url"`
	BatchLimit   int    `mapstructure:"batch_limit"`
}

// MediaConfig holds image download configuration
type MediaConfig struct {
	DownloadTimeout   time.Duration `mapstructure:"download_timeout"`
	MaxBytes          int64         `mapstructure:"max_bytes"`
	RequestsPerSecond int           `mapstructure:"requests_per_second"`
	MaxRetries        int           `mapstructure:"max_retries"`
	InitialBackoffMs  int           `mapstructure:"initial_backoff_ms"`
	MaxBackoffMs      int           `mapstructure:"max_backoff_ms"`
}

// ScheduleConfig holds the periodic job intervals
type ScheduleConfig struct {
	Enabled            bool          `mapstructure:"enabled"`
	ExtractInterval    time.Duration `mapstructure:"extract_interval"`
	TransformInterval  time.Duration `mapstructure:"transform_interval"`
	LogCleanupInterval time.Duration `mapstructure:"log_cleanup_interval"`
	LogRetentionDays   int           `mapstructure:"log_retention_days"`
}

// NotifyConfig holds email notification configuration
type NotifyConfig struct {
	SMTPHost     string   `mapstructure:"smtp_host"`
	SMTPPort     int      `mapstructure:"smtp_port"`
	SMTPUsername string   `mapstructure:"smtp_username"`
	SMTPPassword string   `mapstructure:"smtp_password"`
	From         string   `mapstructure:"from"`
	Recipients   []string `mapstructure:"recipients"`
	SiteURL      string   `mapstructure:"site_url"`
}

// TelemetryConfig holds OpenTelemetry exporter configuration
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	ServiceName string `mapstructure:"service_name"`
}

var globalConfig *Config

// Load loads the configuration from file, .env, and environment variables
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	if err := loadEnvFile(); err != nil {
		// .env is optional
		log.Debug().Err(err).Msg(".env file not loaded")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("CATALOG_SERVICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvVars(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Comma separated lists arrive from the environment as a single element
	cfg.Notify.Recipients = SplitList(strings.Join(cfg.Notify.Recipients, ","))

	globalConfig = &cfg
	return &cfg, nil
}

// loadEnvFile loads the first .env file found next to the binary or config dir
func loadEnvFile() error {
	for _, path := range []string{".", "./config"} {
		envFile := fmt.Sprintf("%s/.env", path)
		if _, err := os.Stat(envFile); err == nil {
			return loadDotEnvFile(envFile)
		}
	}
	return fmt.Errorf("no .env file found")
}

// loadDotEnvFile reads KEY=VALUE lines and exports them unless already set
func loadDotEnvFile(filename string) error {
	file, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), "\"'")
		if _, exists := os.LookupEnv(key); !exists {
			os.Setenv(key, value)
		}
	}
	return scanner.Err()
}

// bindEnvVars binds well-known environment variables to config keys
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("database.url", "DATABASE_URL")
	v.BindEnv("server.port", "PORT")
	v.BindEnv("server.api_key", "INTERNAL_API_KEY")
	v.BindEnv("logging.level", "LOG_LEVEL")
	v.BindEnv("storage.base_path", "STORAGE_PATH")
	v.BindEnv("import.inbox_dir", "IMPORT_INBOX_DIR")
	v.BindEnv("import.backup_dir", "IMPORT_BACKUP_DIR")
	v.BindEnv("notify.recipients", "NOTIFY_RECIPIENTS")
	v.BindEnv("notify.smtp_password", "SMTP_PASSWORD")
	v.BindEnv("storage.s3.access_key_id", "S3_ACCESS_KEY_ID")
	v.BindEnv("storage.s3.secret_access_key", "S3_SECRET_ACCESS_KEY")
	v.BindEnv("telemetry.endpoint", "OTEL_EXPORTER_OTLP_ENDPOINT")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("database.max_connections", 10)
	v.SetDefault("database.min_connections", 2)
	v.SetDefault("database.max_conn_lifetime", 1*time.Hour)
	v.SetDefault("database.max_conn_idle_time", 30*time.Minute)
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.base_path", "./data/assets")
	v.SetDefault("storage.s3.region", "us-east-1")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.no_color", false)

	v.SetDefault("import.inbox_dir", "./data/xml-import")
	v.SetDefault("import.backup_dir", "./data/xml-import-bk")
	v.SetDefault("import.image_base_url", "https://img.roline.ch/")
	v.SetDefault("import.batch_limit", 200)

	v.SetDefault("media.download_timeout", 30*time.Second)
	v.SetDefault("media.max_bytes", 20*1024*1024)
	v.SetDefault("media.requests_per_second", 5)
	v.SetDefault("media.max_retries", 2)
	v.SetDefault("media.initial_backoff_ms", 200)
	v.SetDefault("media.max_backoff_ms", 5000)

	v.SetDefault("schedule.enabled", true)
	v.SetDefault("schedule.extract_interval", 24*time.Hour)
	v.SetDefault("schedule.transform_interval", 5*time.Minute)
	v.SetDefault("schedule.log_cleanup_interval", 24*time.Hour)
	v.SetDefault("schedule.log_retention_days", 30)

	v.SetDefault("notify.smtp_port", 587)
	v.SetDefault("notify.from", "catalog-import@localhost")

	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "catalog-service")
}

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// GetDatabaseURL returns the database URL from config or environment
func GetDatabaseURL() string {
	if cfg := Get(); cfg != nil && cfg.Database.URL != "" {
		return cfg.Database.URL
	}
	return os.Getenv("DATABASE_URL")
}

// SplitList splits a comma or semicolon separated list and drops blanks
func SplitList(raw string) []string {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';'
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}
