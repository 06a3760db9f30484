package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envBindings keeps the flat variable names operators already use.
var envBindings = map[string]string{
	"app.environment":    "APP_ENV",
	"app.public_url":     "PUBLIC_APP_URL",
	"app.seed_demo":      "SEED_DEMO",
	"server.port":        "PORT",
	"database.driver":    "DB_DRIVER",
	"database.path":      "DB_PATH",
	"database.url":       "DATABASE_URL",
	"redis.address":      "REDIS_ADDR",
	"redis.password":     "REDIS_PASSWORD",
	"mail.transport":     "MAIL_TRANSPORT",
	"mail.from":          "MAIL_FROM",
	"mail.smtp.host":     "SMTP_HOST",
	"mail.smtp.port":     "SMTP_PORT",
	"mail.smtp.username": "SMTP_USER",
	"mail.smtp.password": "SMTP_PASS",
	"mail.ses.region":    "AWS_REGION",
	"report.locale":      "REPORT_LOCALE",
	"logging.level":      "LOG_LEVEL",
	"logging.format":     "LOG_FORMAT",
}

// Load reads .env (best effort), an optional config.yaml from . or ./configs,
// and environment variables.
func Load() (*Config, error) {
	// Production should inject real environment variables; a missing .env is fine.
	_ = godotenv.Load(".env")

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	return decode(v)
}

// LoadFromFile reads configuration from a specific file; environment
// variables still override it.
func LoadFromFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}

	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "invoice-roi"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = EnvDevelopment
	}
	if cfg.App.PublicURL == "" {
		cfg.App.PublicURL = "http://localhost:3000"
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}

	if cfg.Database.Driver == "" {
		if cfg.Database.URL != "" {
			cfg.Database.Driver = DriverPostgres
		} else {
			cfg.Database.Driver = DriverSQLite
		}
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./dev.db"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}

	if cfg.Redis.TTL == 0 {
		cfg.Redis.TTL = 300
	}

	if cfg.Mail.Transport == "" {
		cfg.Mail.Transport = MailAuto
	}
	if cfg.Mail.From == "" {
		cfg.Mail.From = cfg.Mail.SMTP.Username
	}
	if cfg.Mail.Timeout == 0 {
		cfg.Mail.Timeout = 30000
	}

	if cfg.Report.Locale == "" {
		cfg.Report.Locale = "en-US"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		if cfg.IsDev() {
			cfg.Logging.Format = "console"
		} else {
			cfg.Logging.Format = "json"
		}
	}
}

func validateConfig(cfg *Config) error {
	switch cfg.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if cfg.Database.URL == "" {
			return fmt.Errorf("database.url is required for the postgres driver")
		}
	default:
		return fmt.Errorf("database.driver %q is not supported", cfg.Database.Driver)
	}

	switch cfg.Mail.Transport {
	case MailAuto, MailNone:
	case MailSMTP:
		if !cfg.Mail.SMTP.Complete() {
			return fmt.Errorf("mail.smtp host, port, username and password are required for the smtp transport")
		}
		if cfg.Mail.From == "" {
			return fmt.Errorf("mail.from is required")
		}
	case MailSES:
		if cfg.Mail.SES.Region == "" {
			return fmt.Errorf("mail.ses.region is required for the ses transport")
		}
		if cfg.Mail.From == "" {
			return fmt.Errorf("mail.from is required")
		}
	default:
		return fmt.Errorf("mail.transport %q is not supported", cfg.Mail.Transport)
	}

	if cfg.Redis.TTL < 0 {
		return fmt.Errorf("redis.ttl must not be negative")
	}

	return nil
}
