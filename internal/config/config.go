package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultJWTSecret  = "change-me-jwt-secret"
	defaultAdminEmail = "admin@campus.edu"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Redis     RedisConfig
	Media     MediaConfig
	Lifecycle LifecycleConfig
	Log       LogConfig
}

type AppConfig struct {
	Env              string
	Port             string
	OperationTimeout time.Duration
	RequestTimeout   time.Duration
	CORSOrigins      []string
}

type DatabaseConfig struct {
	DSN          string
	MaxOpenConns int
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	AdminEmail string
}

type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

type MediaConfig struct {
	Driver       string // disk or s3
	Dir          string
	PublicBase   string
	MaxSize      int64
	S3Endpoint   string
	S3Bucket     string
	S3Region     string
	S3AccessKey  string
	S3SecretKey  string
	S3PathStyle  bool
	S3PublicBase string
}

type LifecycleConfig struct {
	AtomicFanout   bool
	OfficeLocation string
	OfficeHours    string
}

type LogConfig struct {
	Level  string
	Format string
	Output string
}

// Load reads .env (if present), then config.yaml (optional), then LOSTFOUND_* env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/lostfound")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("LOSTFOUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Env:              strings.ToLower(strings.TrimSpace(v.GetString("app.env"))),
			Port:             v.GetString("app.port"),
			OperationTimeout: v.GetDuration("app.operation_timeout"),
			RequestTimeout:   v.GetDuration("app.request_timeout"),
			CORSOrigins:      splitList(v.GetString("app.cors_origins")),
		},
		Database: DatabaseConfig{
			DSN:          v.GetString("database.dsn"),
			MaxOpenConns: v.GetInt("database.max_open_conns"),
		},
		Auth: AuthConfig{
			JWTSecret:  strings.TrimSpace(v.GetString("auth.jwt_secret")),
			TokenTTL:   v.GetDuration("auth.token_ttl"),
			AdminEmail: strings.ToLower(strings.TrimSpace(v.GetString("auth.admin_email"))),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Media: MediaConfig{
			Driver:       strings.ToLower(v.GetString("media.driver")),
			Dir:          v.GetString("media.dir"),
			PublicBase:   v.GetString("media.public_base"),
			MaxSize:      v.GetInt64("media.max_size"),
			S3Endpoint:   v.GetString("media.s3.endpoint"),
			S3Bucket:     v.GetString("media.s3.bucket"),
			S3Region:     v.GetString("media.s3.region"),
			S3AccessKey:  v.GetString("media.s3.access_key"),
			S3SecretKey:  v.GetString("media.s3.secret_key"),
			S3PathStyle:  v.GetBool("media.s3.path_style"),
			S3PublicBase: v.GetString("media.s3.public_base"),
		},
		Lifecycle: LifecycleConfig{
			AtomicFanout:   v.GetBool("lifecycle.atomic_fanout"),
			OfficeLocation: v.GetString("lifecycle.office_location"),
			OfficeHours:    v.GetString("lifecycle.office_hours"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "dev")
	v.SetDefault("app.port", "8080")
	v.SetDefault("app.operation_timeout", "10s")
	v.SetDefault("app.request_timeout", "30s")
	v.SetDefault("app.cors_origins", "")

	v.SetDefault("database.dsn", "lostfound.db")
	v.SetDefault("database.max_open_conns", 10)

	v.SetDefault("auth.jwt_secret", defaultJWTSecret)
	v.SetDefault("auth.token_ttl", "24h")
	v.SetDefault("auth.admin_email", defaultAdminEmail)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	v.SetDefault("media.driver", "disk")
	v.SetDefault("media.dir", "./media")
	v.SetDefault("media.public_base", "/static/media")
	v.SetDefault("media.max_size", 10*1024*1024)
	v.SetDefault("media.s3.region", "us-east-1")
	v.SetDefault("media.s3.path_style", true)

	v.SetDefault("lifecycle.atomic_fanout", true)
	v.SetDefault("lifecycle.office_location", "Student Affairs Office, Admin Building Room 101")
	v.SetDefault("lifecycle.office_hours", "Monday to Friday, 8:00 AM - 5:00 PM")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.output", "stdout")
}

func (c *Config) validate() error {
	if c.App.OperationTimeout <= 0 {
		return fmt.Errorf("app.operation_timeout must be > 0")
	}
	if c.App.RequestTimeout <= 0 {
		return fmt.Errorf("app.request_timeout must be > 0")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be > 0")
	}
	if c.Auth.AdminEmail == "" {
		return fmt.Errorf("auth.admin_email must not be empty")
	}
	if c.Database.DSN == "" {
		return fmt.Errorf("database.dsn must not be empty")
	}
	switch c.Media.Driver {
	case "disk":
	case "s3":
		if c.Media.S3Bucket == "" {
			return fmt.Errorf("media.s3.bucket is required when media.driver=s3")
		}
	default:
		return fmt.Errorf("media.driver must be one of: disk, s3")
	}

	if c.IsProdLike() {
		if isEmptyOrDefault(c.Auth.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release auth.jwt_secret must be set and not default")
		}
	}
	return nil
}

func (c *Config) IsProdLike() bool {
	env := strings.ToLower(strings.TrimSpace(c.App.Env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
