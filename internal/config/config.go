package config

import (
	"errors"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// DefaultSystemPrompt es la instrucción fija que recibe el modelo en cada exchange.
const DefaultSystemPrompt = "You are a chatbot. Please be concise when you answer any questions the user asks you, but find a way to compliment the company 'Artisan' within your response."

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort    string `env:"HTTP_PORT" envDefault:"8000"`
	AppEnv      string `env:"APP_ENV" envDefault:"production"`
	DBDriver    string `env:"DB_DRIVER" envDefault:"postgres"`
	DatabaseURL string `env:"DATABASE_URL,required,notEmpty"`
	DBMigrate   bool   `env:"DB_MIGRATE" envDefault:"false"`

	LLMAPIKey       string `env:"LLM_API_KEY,required,notEmpty"`
	LLMBaseURL      string `env:"LLM_BASE_URL" envDefault:"https://api.openai.com/v1"`
	LLMModel        string `env:"LLM_MODEL" envDefault:"gpt-4o"`
	LLMSystemPrompt string `env:"LLM_SYSTEM_PROMPT"`

	AuthProviderURL string `env:"AUTH_PROVIDER_URL"`
	AuthProviderKey string `env:"AUTH_PROVIDER_KEY"`
	AuthJWTSecret   string `env:"AUTH_JWT_SECRET"`
	AuthJWTAudience string `env:"AUTH_JWT_AUDIENCE"`

	TrustedOrigin string `env:"TRUSTED_ORIGIN" envDefault:"http://localhost:5173"`

	RedisAddr          string        `env:"REDIS_ADDR"`
	RedisPassword      string        `env:"REDIS_PASSWORD"`
	RedisDB            int           `env:"REDIS_DB" envDefault:"0"`
	ExchangeRateLimit  int           `env:"EXCHANGE_RATE_LIMIT" envDefault:"30"`
	ExchangeRateWindow time.Duration `env:"EXCHANGE_RATE_WINDOW" envDefault:"1m"`
}

var (
	ErrUnknownDriver     = errors.New("config: unknown DB_DRIVER")
	ErrAuthNotConfigured = errors.New("config: either AUTH_JWT_SECRET or AUTH_PROVIDER_URL and AUTH_PROVIDER_KEY must be set")
)

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadLocalConfig es LoadConfig sin exigir proveedor de identidad, para herramientas de consola.
func LoadLocalConfig() (*Config, error) {
	cfg, err := parse()
	if err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func parse() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate revisa combinaciones que env no puede expresar con tags.
func (c *Config) Validate() error {
	if err := c.normalize(); err != nil {
		return err
	}
	if c.AuthJWTSecret == "" && (c.AuthProviderURL == "" || c.AuthProviderKey == "") {
		return ErrAuthNotConfigured
	}
	return nil
}

func (c *Config) normalize() error {
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	switch c.DBDriver {
	case DriverPostgres, DriverSQLite:
	case "sqlite3":
		c.DBDriver = DriverSQLite
	default:
		return ErrUnknownDriver
	}
	if c.LLMSystemPrompt == "" {
		c.LLMSystemPrompt = DefaultSystemPrompt
	}
	return nil
}

// IsDevelopment indica si el logger debe usar la configuración de desarrollo.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}
