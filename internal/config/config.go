// config предоставляет структуру конфигурации сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Поддерживаемые драйверы хранилища.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env      string        `yaml:"env" env:"ENV" env-default:"local"`
	HTTP     HTTPConfig    `yaml:"http"`
	Auth     AuthConfig    `yaml:"auth"`
	Cookie   CookieConfig  `yaml:"cookie"`
	DB       DBConfig      `yaml:"db"`
	Redis    RedisConfig   `yaml:"redis"`
	Janitor  JanitorConfig `yaml:"janitor"`
	Timeouts TimeoutConfig `yaml:"timeouts"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
}

// HTTPConfig — сетевые настройки HTTP-сервера.
type HTTPConfig struct {
	Host              string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port              string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	BasePath          string        `yaml:"base_path" env:"HTTP_BASE_PATH"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"HTTP_READ_HEADER_TIMEOUT" env-default:"5s"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// AuthConfig содержит параметры выпуска и валидации токенов.
// Секреты access- и refresh-токенов независимы.
type AuthConfig struct {
	AccessTokenSecret  string        `yaml:"access_token_secret" env:"ACCESS_TOKEN_SECRET" env-required:"true"`
	AccessTokenTTL     time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenSecret string        `yaml:"refresh_token_secret" env:"REFRESH_TOKEN_SECRET" env-required:"true"`
	RefreshTokenTTL    time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"24h"`
	Issuer             string        `yaml:"issuer" env:"TOKEN_ISSUER" env-default:"bodytrack"`
	Audience           []string      `yaml:"audience" env:"TOKEN_AUDIENCE" env-default:"bodytrack-web"`
	Leeway             time.Duration `yaml:"leeway" env:"TOKEN_LEEWAY" env-default:"0s"`
	BcryptCost         int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"10"`
	AdminEmail         string        `yaml:"admin_email" env:"ADMIN_EMAIL"`
	AdminPassword      string        `yaml:"admin_password" env:"ADMIN_PASSWORD"`
}

// CookieConfig — атрибуты cookie с refresh-токеном.
// HttpOnly выставляется всегда, Secure — если не задан Insecure.
type CookieConfig struct {
	Name     string `yaml:"name" env:"COOKIE_NAME" env-default:"refresh_token"`
	Path     string `yaml:"path" env:"COOKIE_PATH" env-default:"/"`
	Domain   string `yaml:"domain" env:"COOKIE_DOMAIN"`
	Insecure bool   `yaml:"insecure" env:"COOKIE_INSECURE"` // только для локальной разработки по http
	SameSite string `yaml:"same_site" env:"COOKIE_SAME_SITE" env-default:"none"`
}

// SameSiteMode переводит строковое значение в http.SameSite.
func (c CookieConfig) SameSiteMode() http.SameSite {
	switch strings.ToLower(c.SameSite) {
	case "lax":
		return http.SameSiteLaxMode
	case "strict":
		return http.SameSiteStrictMode
	case "default":
		return http.SameSiteDefaultMode
	default:
		return http.SameSiteNoneMode
	}
}

// DBConfig — настройки подключения к базе данных.
type DBConfig struct {
	Driver         string `yaml:"driver" env:"DB_DRIVER" env-default:"postgres"`
	DatabaseURL    string `yaml:"db_url" env:"DATABASE_URL"`
	SkipMigrations bool   `yaml:"skip_migrations" env:"DB_SKIP_MIGRATIONS"`
}

// RedisConfig — настройки Redis для ограничения попыток входа.
// Пустой RedisURL отключает ограничение.
type RedisConfig struct {
	RedisURL         string        `yaml:"redis_url" env:"REDIS_URL"`
	LoginMaxAttempts int           `yaml:"login_max_attempts" env:"LOGIN_MAX_ATTEMPTS" env-default:"5"`
	LoginWindow      time.Duration `yaml:"login_window" env:"LOGIN_WINDOW" env-default:"15m"`
}

// JanitorConfig — расписание очистки просроченных refresh-токенов (формат robfig/cron).
// Пустое расписание отключает очистку.
type JanitorConfig struct {
	Schedule string `yaml:"schedule" env:"JANITOR_SCHEDULE" env-default:"@every 30m"`
}

// Validate проверяет согласованность значений, которые не выражаются тегами.
func (c *Config) Validate() error {
	const op = "config.Validate"

	if c.Auth.AccessTokenSecret == c.Auth.RefreshTokenSecret {
		return fmt.Errorf("%s: %w", op, errors.New("access and refresh token secrets must differ"))
	}

	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("%s: %w", op, errors.New("token ttl must be positive"))
	}

	switch c.DB.Driver {
	case DriverPostgres:
		if c.DB.DatabaseURL == "" {
			return fmt.Errorf("%s: %w", op, errors.New("db_url is required for postgres driver"))
		}
	case DriverMemory:
	default:
		return fmt.Errorf("%s: unknown db driver %q", op, c.DB.Driver)
	}

	return nil
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла ENV-переменные накладываются поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cfg.Validate(); err != nil {
			return nil, err
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
