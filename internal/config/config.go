package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const defaultConfigPath = "./config/config.yaml"

const (
	MailTransportRabbitMQ = "rabbitmq"
	MailTransportSMTP     = "smtp"
)

type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"local"`
	Tokens     `yaml:"tokens"`
	Codes      `yaml:"codes"`
	Mail       `yaml:"mail"`
	RabbitMQ   `yaml:"rabbitmq"`
	Postgres   `yaml:"postgres"`
	Redis      `yaml:"redis"`
	HTTPServer `yaml:"http_server"`
}

// MailSender конфиг отдельного процесса доставки писем из очереди.
type MailSender struct {
	Env      string `yaml:"env" env:"ENV" env-default:"local"`
	Mail     `yaml:"mail"`
	RabbitMQ `yaml:"rabbitmq"`
}

type HTTPServer struct {
	Address      string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout      time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env-default:"60s"`
	CookieSecure bool          `yaml:"cookie_secure" env:"HTTP_COOKIE_SECURE" env-default:"false"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"postgres"`
	Port     int    `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-required:"true"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-required:"true"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type Redis struct {
	Addr     string `yaml:"addr" env:"REDIS_ADDR" env-default:"redis:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"REDIS_DB" env-default:"0"`
}

type Tokens struct {
	AccessTokenTTL     time.Duration `yaml:"access_token_ttl" env-default:"1h"`
	RefreshTokenTTL    time.Duration `yaml:"refresh_token_ttl" env-default:"720h"`
	AccessTokenSecret  string        `yaml:"access_token_secret" env:"ACCESS_SECRET" env-required:"true"`
	RefreshTokenSecret string        `yaml:"refresh_token_secret" env:"REFRESH_SECRET" env-required:"true"`
}

type Codes struct {
	TTL time.Duration `yaml:"ttl" env-default:"10m"`
}

type Mail struct {
	Transport string `yaml:"transport" env:"MAIL_TRANSPORT" env-default:"rabbitmq"`
	Host      string `yaml:"host" env:"MAIL_HOST"`
	Port      int    `yaml:"port" env:"MAIL_PORT" env-default:"587"`
	Username  string `yaml:"username" env:"MAIL_AUTH_USER"`
	Password  string `yaml:"password" env:"MAIL_AUTH_PASSWORD"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env:"RABBITMQ_URL"`
	QueueName string `yaml:"queue_name" env:"RABBITMQ_QUEUE" env-default:"confirmation_codes"`
}

// * MustLoad читает конфиг по пути из CONFIG_PATH (или пути по умолчанию) и паникует при ошибке.
func MustLoad() *Config {
	cfg, err := Load(configPath())
	if err != nil {
		panic(err.Error())
	}

	return cfg
}

func Load(configPath string) (*Config, error) {
	const op = "config.Load"

	var cfg Config

	if err := read(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &cfg, nil
}

func MustLoadMailSender() *MailSender {
	cfg, err := LoadMailSender(configPath())
	if err != nil {
		panic(err.Error())
	}

	return cfg
}

func LoadMailSender(configPath string) (*MailSender, error) {
	const op = "config.LoadMailSender"

	var cfg MailSender

	if err := read(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.RabbitMQ.URL == "" {
		return nil, fmt.Errorf("%s: rabbitmq url is required", op)
	}

	if cfg.Mail.Host == "" {
		return nil, fmt.Errorf("%s: mail host is required", op)
	}

	return &cfg, nil
}

func configPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	return defaultConfigPath
}

func read(configPath string, cfg any) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", configPath)
	}

	if err := cleanenv.ReadConfig(configPath, cfg); err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	return nil
}

func (c *Config) validate() error {
	if c.Tokens.AccessTokenSecret == c.Tokens.RefreshTokenSecret {
		return fmt.Errorf("access and refresh token secrets must differ")
	}

	if c.Tokens.AccessTokenTTL >= c.Tokens.RefreshTokenTTL {
		return fmt.Errorf("access token ttl must be shorter than refresh token ttl")
	}

	switch c.Mail.Transport {
	case MailTransportRabbitMQ:
		if c.RabbitMQ.URL == "" {
			return fmt.Errorf("rabbitmq url is required for the %q mail transport", c.Mail.Transport)
		}
	case MailTransportSMTP:
		if c.Mail.Host == "" {
			return fmt.Errorf("mail host is required for the %q mail transport", c.Mail.Transport)
		}
	default:
		return fmt.Errorf("unknown mail transport %q", c.Mail.Transport)
	}

	return nil
}
