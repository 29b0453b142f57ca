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
	Server    ServerConfig
	DB        DBConfig
	Auth      AuthConfig
	S3        S3Config
	Log       LogConfig
	Parser    ParserConfig
	Extractor ExtractorConfig
	Imaging   ImagingConfig
	Report    ReportConfig
	CORS      CORSConfig
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// ParserProviderConfig holds settings for a single vision parser provider.
type ParserProviderConfig struct {
	Provider     string `mapstructure:"provider"`
	APIKey       string `mapstructure:"api_key"`
	DefaultModel string `mapstructure:"default_model"`
	MaxRetries   int    `mapstructure:"max_retries"`
	TimeoutSecs  int    `mapstructure:"timeout_secs"`
}

// ParserConfig holds the vision parser chain used for image input.
type ParserConfig struct {
	Primary   ParserProviderConfig `mapstructure:"primary"`
	Secondary ParserProviderConfig `mapstructure:"secondary"`
	Tertiary  ParserProviderConfig `mapstructure:"tertiary"`

	// Concurrency bounds how many images are sent to the provider at once.
	Concurrency int `mapstructure:"concurrency"`
}

// Providers returns the configured providers in fallback order.
func (p *ParserConfig) Providers() []*ParserProviderConfig {
	var out []*ParserProviderConfig
	for _, pc := range []*ParserProviderConfig{&p.Primary, &p.Secondary, &p.Tertiary} {
		if pc.Provider != "" {
			out = append(out, pc)
		}
	}
	return out
}

// ExtractorConfig holds settings for the PDF table-extraction sidecar.
type ExtractorConfig struct {
	Endpoint    string `mapstructure:"endpoint"`
	Pages       string `mapstructure:"pages"`
	Flavor      string `mapstructure:"flavor"`
	TimeoutSecs int    `mapstructure:"timeout_secs"`
}

// ImagingConfig holds pre-processing settings applied before OCR.
type ImagingConfig struct {
	MinWidth    int     `mapstructure:"min_width"`
	Contrast    float64 `mapstructure:"contrast"`
	Sharpen     float64 `mapstructure:"sharpen"`
	JPEGQuality int     `mapstructure:"jpeg_quality"`
}

// ReportConfig holds report computation and output settings.
type ReportConfig struct {
	// Timezone decides which calendar day "today" is for open-ended contracts.
	Timezone  string `mapstructure:"timezone"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// Location resolves Timezone, falling back to UTC.
func (r *ReportConfig) Location() *time.Location {
	if r.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port          string        `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	Environment   string        `mapstructure:"environment"`
	MaxUploadMB   int64         `mapstructure:"max_upload_mb"`
	MaxImageCount int           `mapstructure:"max_image_count"`
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

	// AutoMigrate applies embedded migrations on server start.
	AutoMigrate bool `mapstructure:"auto_migrate"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// AuthConfig holds JWT settings for the API.
type AuthConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Secret      string        `mapstructure:"secret"`
	Issuer      string        `mapstructure:"issuer"`
	TokenExpiry time.Duration `mapstructure:"token_expiry"`
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
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from environment variables with the VIDALAB_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VIDALAB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "300s")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.max_upload_mb", 16)
	v.SetDefault("server.max_image_count", 20)

	// DB defaults
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "vidalab")
	v.SetDefault("db.password", "vidalab_secret")
	v.SetDefault("db.name", "vidalab_db")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 10)
	v.SetDefault("db.max_idle", 5)
	v.SetDefault("db.auto_migrate", false)

	// Auth defaults
	v.SetDefault("auth.enabled", false)
	v.SetDefault("auth.secret", "change-me-in-production")
	v.SetDefault("auth.issuer", "vidalaboral")
	v.SetDefault("auth.token_expiry", "24h")

	// S3 defaults
	v.SetDefault("s3.region", "eu-south-2")
	v.SetDefault("s3.bucket", "vidalab-reports")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.presign_expiry", 3600)

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Parser defaults
	v.SetDefault("parser.concurrency", 3)
	v.SetDefault("parser.primary.provider", "openrouter")
	v.SetDefault("parser.primary.api_key", "")
	v.SetDefault("parser.primary.default_model", "mistralai/pixtral-large-2411")
	v.SetDefault("parser.primary.max_retries", 2)
	v.SetDefault("parser.primary.timeout_secs", 60)
	v.SetDefault("parser.secondary.provider", "")
	v.SetDefault("parser.secondary.api_key", "")
	v.SetDefault("parser.secondary.default_model", "")
	v.SetDefault("parser.secondary.max_retries", 2)
	v.SetDefault("parser.secondary.timeout_secs", 60)
	v.SetDefault("parser.tertiary.provider", "")
	v.SetDefault("parser.tertiary.api_key", "")
	v.SetDefault("parser.tertiary.default_model", "")
	v.SetDefault("parser.tertiary.max_retries", 2)
	v.SetDefault("parser.tertiary.timeout_secs", 60)

	// Extractor defaults
	v.SetDefault("extractor.endpoint", "http://localhost:5001")
	v.SetDefault("extractor.pages", "2-5")
	v.SetDefault("extractor.flavor", "stream")
	v.SetDefault("extractor.timeout_secs", 120)

	// Imaging defaults
	v.SetDefault("imaging.min_width", 2000)
	v.SetDefault("imaging.contrast", 30)
	v.SetDefault("imaging.sharpen", 1.5)
	v.SetDefault("imaging.jpeg_quality", 98)

	// Report defaults
	v.SetDefault("report.timezone", "Europe/Madrid")
	v.SetDefault("report.key_prefix", "reports")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                    "VIDALAB_SERVER_PORT",
		"server.read_timeout":            "VIDALAB_SERVER_READ_TIMEOUT",
		"server.write_timeout":           "VIDALAB_SERVER_WRITE_TIMEOUT",
		"server.environment":             "VIDALAB_SERVER_ENVIRONMENT",
		"server.max_upload_mb":           "VIDALAB_SERVER_MAX_UPLOAD_MB",
		"server.max_image_count":         "VIDALAB_SERVER_MAX_IMAGE_COUNT",
		"db.host":                        "VIDALAB_DB_HOST",
		"db.port":                        "VIDALAB_DB_PORT",
		"db.user":                        "VIDALAB_DB_USER",
		"db.password":                    "VIDALAB_DB_PASSWORD",
		"db.name":                        "VIDALAB_DB_NAME",
		"db.sslmode":                     "VIDALAB_DB_SSLMODE",
		"db.max_open":                    "VIDALAB_DB_MAX_OPEN",
		"db.max_idle":                    "VIDALAB_DB_MAX_IDLE",
		"db.auto_migrate":                "VIDALAB_DB_AUTO_MIGRATE",
		"auth.enabled":                   "VIDALAB_AUTH_ENABLED",
		"auth.secret":                    "VIDALAB_AUTH_SECRET",
		"auth.issuer":                    "VIDALAB_AUTH_ISSUER",
		"auth.token_expiry":              "VIDALAB_AUTH_TOKEN_EXPIRY",
		"s3.region":                      "VIDALAB_S3_REGION",
		"s3.bucket":                      "VIDALAB_S3_BUCKET",
		"s3.endpoint":                    "VIDALAB_S3_ENDPOINT",
		"s3.access_key":                  "VIDALAB_S3_ACCESS_KEY",
		"s3.secret_key":                  "VIDALAB_S3_SECRET_KEY",
		"s3.presign_expiry":              "VIDALAB_S3_PRESIGN_EXPIRY",
		"log.level":                      "VIDALAB_LOG_LEVEL",
		"log.format":                     "VIDALAB_LOG_FORMAT",
		"cors.allowed_origins":           "VIDALAB_CORS_ALLOWED_ORIGINS",
		"parser.concurrency":             "VIDALAB_PARSER_CONCURRENCY",
		"parser.primary.provider":        "VIDALAB_PARSER_PRIMARY_PROVIDER",
		"parser.primary.api_key":         "VIDALAB_PARSER_PRIMARY_API_KEY",
		"parser.primary.default_model":   "VIDALAB_PARSER_PRIMARY_DEFAULT_MODEL",
		"parser.primary.max_retries":     "VIDALAB_PARSER_PRIMARY_MAX_RETRIES",
		"parser.primary.timeout_secs":    "VIDALAB_PARSER_PRIMARY_TIMEOUT_SECS",
		"parser.secondary.provider":      "VIDALAB_PARSER_SECONDARY_PROVIDER",
		"parser.secondary.api_key":       "VIDALAB_PARSER_SECONDARY_API_KEY",
		"parser.secondary.default_model": "VIDALAB_PARSER_SECONDARY_DEFAULT_MODEL",
		"parser.secondary.max_retries":   "VIDALAB_PARSER_SECONDARY_MAX_RETRIES",
		"parser.secondary.timeout_secs":  "VIDALAB_PARSER_SECONDARY_TIMEOUT_SECS",
		"parser.tertiary.provider":       "VIDALAB_PARSER_TERTIARY_PROVIDER",
		"parser.tertiary.api_key":        "VIDALAB_PARSER_TERTIARY_API_KEY",
		"parser.tertiary.default_model":  "VIDALAB_PARSER_TERTIARY_DEFAULT_MODEL",
		"parser.tertiary.max_retries":    "VIDALAB_PARSER_TERTIARY_MAX_RETRIES",
		"parser.tertiary.timeout_secs":   "VIDALAB_PARSER_TERTIARY_TIMEOUT_SECS",
		"extractor.endpoint":             "VIDALAB_EXTRACTOR_ENDPOINT",
		"extractor.pages":                "VIDALAB_EXTRACTOR_PAGES",
		"extractor.flavor":               "VIDALAB_EXTRACTOR_FLAVOR",
		"extractor.timeout_secs":         "VIDALAB_EXTRACTOR_TIMEOUT_SECS",
		"imaging.min_width":              "VIDALAB_IMAGING_MIN_WIDTH",
		"imaging.contrast":               "VIDALAB_IMAGING_CONTRAST",
		"imaging.sharpen":                "VIDALAB_IMAGING_SHARPEN",
		"imaging.jpeg_quality":           "VIDALAB_IMAGING_JPEG_QUALITY",
		"report.timezone":                "VIDALAB_REPORT_TIMEZONE",
		"report.key_prefix":              "VIDALAB_REPORT_KEY_PREFIX",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	// OPENROUTER_API_KEY is what the OCR scripts have always read.
	if key := os.Getenv("OPENROUTER_API_KEY"); key != "" && os.Getenv("VIDALAB_PARSER_PRIMARY_API_KEY") == "" {
		v.Set("parser.primary.api_key", key)
	}

	cfg := &Config{}

	// Railway/Heroku/Render set a PORT env var. Use it if VIDALAB_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("VIDALAB_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:          serverPort,
		ReadTimeout:   v.GetDuration("server.read_timeout"),
		WriteTimeout:  v.GetDuration("server.write_timeout"),
		Environment:   v.GetString("server.environment"),
		MaxUploadMB:   v.GetInt64("server.max_upload_mb"),
		MaxImageCount: v.GetInt("server.max_image_count"),
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

		AutoMigrate: v.GetBool("db.auto_migrate"),
	}
	cfg.Auth = AuthConfig{
		Enabled:     v.GetBool("auth.enabled"),
		Secret:      v.GetString("auth.secret"),
		Issuer:      v.GetString("auth.issuer"),
		TokenExpiry: v.GetDuration("auth.token_expiry"),
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
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}

	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{AllowedOrigins: corsOrigins}

	cfg.Parser = ParserConfig{
		Concurrency: v.GetInt("parser.concurrency"),
		Primary:     providerConfig(v, "parser.primary"),
		Secondary:   providerConfig(v, "parser.secondary"),
		Tertiary:    providerConfig(v, "parser.tertiary"),
	}

	cfg.Extractor = ExtractorConfig{
		Endpoint:    v.GetString("extractor.endpoint"),
		Pages:       v.GetString("extractor.pages"),
		Flavor:      v.GetString("extractor.flavor"),
		TimeoutSecs: v.GetInt("extractor.timeout_secs"),
	}

	cfg.Imaging = ImagingConfig{
		MinWidth:    v.GetInt("imaging.min_width"),
		Contrast:    v.GetFloat64("imaging.contrast"),
		Sharpen:     v.GetFloat64("imaging.sharpen"),
		JPEGQuality: v.GetInt("imaging.jpeg_quality"),
	}

	cfg.Report = ReportConfig{
		Timezone:  v.GetString("report.timezone"),
		KeyPrefix: v.GetString("report.key_prefix"),
	}

	return cfg, nil
}

func providerConfig(v *viper.Viper, prefix string) ParserProviderConfig {
	return ParserProviderConfig{
		Provider:     v.GetString(prefix + ".provider"),
		APIKey:       v.GetString(prefix + ".api_key"),
		DefaultModel: v.GetString(prefix + ".default_model"),
		MaxRetries:   v.GetInt(prefix + ".max_retries"),
		TimeoutSecs:  v.GetInt(prefix + ".timeout_secs"),
	}
}
