package config

import "strings"

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	MailAuto = "auto"
	MailSMTP = "smtp"
	MailSES  = "ses"
	MailNone = "none"
)

// Config holds application configuration sourced from config files, .env and
// environment variables.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Mail     MailConfig     `mapstructure:"mail"`
	Report   ReportConfig   `mapstructure:"report"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
	PublicURL   string `mapstructure:"public_url"`
	SeedDemo    bool   `mapstructure:"seed_demo"`
}

type ServerConfig struct {
	Port            string `mapstructure:"port"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Path         string `mapstructure:"path"`
	URL          string `mapstructure:"url"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

// RedisConfig enables the scenario cache when Address is set.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TTL      int    `mapstructure:"ttl"` // seconds
}

type MailConfig struct {
	Transport string     `mapstructure:"transport"`
	From      string     `mapstructure:"from"`
	Timeout   int        `mapstructure:"timeout"` // milliseconds
	SMTP      SMTPConfig `mapstructure:"smtp"`
	SES       SESConfig  `mapstructure:"ses"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Complete reports whether every credential needed to send is present.
func (s SMTPConfig) Complete() bool {
	return s.Host != "" && s.Port != 0 && s.Username != "" && s.Password != ""
}

type SESConfig struct {
	Region string `mapstructure:"region"`
}

type ReportConfig struct {
	Locale string `mapstructure:"locale"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// IsDev reports whether the app runs in the development environment.
func (c Config) IsDev() bool {
	return strings.EqualFold(c.App.Environment, EnvDevelopment)
}

// MailTransport resolves "auto" to smtp when SMTP credentials are complete
// and to none otherwise.
func (c Config) MailTransport() string {
	if c.Mail.Transport != MailAuto {
		return c.Mail.Transport
	}
	if c.Mail.SMTP.Complete() {
		return MailSMTP
	}
	return MailNone
}
