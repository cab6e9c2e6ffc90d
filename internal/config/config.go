// config предоставляет структуру конфигурации приложения и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
//
// Конфигурация строится один раз при старте процесса и далее передаётся
// по значению/указателю; глобального изменяемого состояния нет.
package config

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Драйверы кэша отзыва токенов.
const (
	CacheDriverRedis  = "redis"
	CacheDriverMemory = "memory"
)

// Config — корневая конфигурация приложения.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	DB        DBConfig        `yaml:"db"`
	Redis     RedisConfig     `yaml:"redis"`
	Cache     CacheConfig     `yaml:"cache"`
	Session   SessionConfig   `yaml:"session"`
	OAuth     OAuthConfig     `yaml:"oauth"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
}

// TimeoutConfig — таймауты обработки запросов.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"5s"`
}

// HTTPConfig — сетевые настройки HTTP-сервера.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	// PublicURL — внешний адрес приложения, используется в ссылках из писем.
	PublicURL string `yaml:"public_url" env:"PUBLIC_URL" env-default:"http://localhost:8080"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// AuthConfig содержит параметры выпуска и валидации токенов.
type AuthConfig struct {
	JWTSecret            string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	AccessTokenTTL       time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL      time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"720h"`
	EmailVerificationTTL time.Duration `yaml:"email_verification_ttl" env:"EMAIL_VERIFICATION_TTL" env-default:"24h"`
	Issuer               string        `yaml:"issuer" env:"ISSUER" env-default:"login-boilerplate"`
}

// DBConfig — настройки подключения к базе данных.
type DBConfig struct {
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL" env-required:"true"`
}

// RedisConfig — подключение к Redis (кэш отзыва токенов).
type RedisConfig struct {
	RedisURL string `yaml:"redis_url" env:"REDIS_URL" env-default:"redis://localhost:6379/0"`
	Prefix   string `yaml:"prefix" env:"REDIS_PREFIX" env-default:"auth:tok:"`
}

// CacheConfig выбирает реализацию кэша отзыва: redis или memory.
type CacheConfig struct {
	Driver string `yaml:"driver" env:"CACHE_DRIVER" env-default:"redis"`
}

// SessionConfig — параметры cookie-сессии веб-интерфейса.
type SessionConfig struct {
	CookieName string `yaml:"cookie_name" env:"SESSION_COOKIE_NAME" env-default:"session"`
	// HashKey подписывает cookie (HMAC), BlockKey (опционально) шифрует её.
	HashKey  string        `yaml:"hash_key" env:"SESSION_HASH_KEY" env-required:"true"`
	BlockKey string        `yaml:"block_key" env:"SESSION_BLOCK_KEY"`
	MaxAge   time.Duration `yaml:"max_age" env:"SESSION_MAX_AGE" env-default:"336h"`
	Secure   bool          `yaml:"secure" env:"SESSION_SECURE" env-default:"false"`
}

// OAuthConfig — клиенты социальных провайдеров.
// Провайдер без client_id считается отключённым.
type OAuthConfig struct {
	Google   OAuthClient `yaml:"google" env-prefix:"GOOGLE_"`
	Facebook OAuthClient `yaml:"facebook" env-prefix:"FACEBOOK_"`
}

type OAuthClient struct {
	ClientID     string `yaml:"client_id" env:"CLIENT_ID"`
	ClientSecret string `yaml:"client_secret" env:"CLIENT_SECRET"`
	RedirectURL  string `yaml:"redirect_url" env:"REDIRECT_URL"`
}

// Enabled сообщает, сконфигурирован ли клиент.
func (c OAuthClient) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

// BootstrapConfig — первый суперпользователь для команды init-data.
type BootstrapConfig struct {
	SuperuserEmail    string `yaml:"superuser_email" env:"FIRST_SUPERUSER_EMAIL"`
	SuperuserPassword string `yaml:"superuser_password" env:"FIRST_SUPERUSER_PASSWORD"`
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

	// чтение файла + overlay ENV.
	tryRead := func(p string) (*Config, error) {
		if p == "" {
			return nil, fmt.Errorf("empty config path")
		}

		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	var (
		out *Config
		err error
	)

	switch {
	// 1) Явный путь.
	case path != "":
		out, err = tryRead(path)
	// 2) CONFIG_PATH.
	case os.Getenv("CONFIG_PATH") != "":
		out, err = tryRead(os.Getenv("CONFIG_PATH"))
	default:
		// 3) ./local.yaml.
		if _, statErr := os.Stat("local.yaml"); statErr == nil {
			out, err = tryRead("local.yaml")
			break
		}

		// 4) Только ENV.
		if envErr := cleanenv.ReadEnv(&cfg); envErr != nil {
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", envErr)
		}
		out = &cfg
	}

	if err != nil {
		return nil, err
	}

	if err := out.validate(); err != nil {
		return nil, err
	}

	return out, nil
}

// validate проверяет согласованность значений, которые cleanenv не проверяет сам.
func (c *Config) validate() error {
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 || c.Auth.EmailVerificationTTL <= 0 {
		return fmt.Errorf("config: token ttl must be positive")
	}

	// AES-ключ шифрования cookie: 16, 24 или 32 байта.
	switch len(c.Session.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return fmt.Errorf("config: session block_key must be 16, 24 or 32 bytes")
	}

	switch c.Cache.Driver {
	case CacheDriverRedis, CacheDriverMemory:
	default:
		return fmt.Errorf("config: unknown cache driver %q", c.Cache.Driver)
	}

	return nil
}
