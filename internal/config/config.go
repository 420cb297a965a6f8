// Package config загружает конфигурацию бота из переменных окружения.
// Используется envconfig для маппинга переменных окружения на поля структуры.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config содержит ВСЕ настройки приложения.
type Config struct {
	// --- Telegram ---
	TelegramBotToken string `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`

	// --- Admin ---
	// Админы по Telegram ID и/или по @username (через запятую)
	AdminIDsRaw       string   `envconfig:"ADMIN_IDS"`
	AdminIDs          []int64  `envconfig:"-"` // заполним вручную
	AdminUsernamesRaw string   `envconfig:"ADMIN_USERNAMES"`
	AdminUsernames    []string `envconfig:"-"`
	// Если задан: перед /codecreate нужен /login <пароль>
	AdminPasswordHash string `envconfig:"ADMIN_PASSWORD_HASH"`

	// --- Database ---
	DBHost     string `envconfig:"DB_HOST" default:"postgres"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"botuser"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" default:"ufcards"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int32  `envconfig:"DB_MAX_CONNS" default:"25"`
	DBMinConns int32  `envconfig:"DB_MIN_CONNS" default:"2"`

	// --- Redis (необязательно; без него сессии живут в памяти) ---
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`

	// --- Application ---
	AppEnv      string `envconfig:"APP_ENV" default:"development"`
	AppLogLevel string `envconfig:"APP_LOG_LEVEL" default:"debug"`
	AppTimezone string `envconfig:"APP_TIMEZONE" default:"Europe/Moscow"`
	MetricsAddr string `envconfig:"METRICS_ADDR"`

	// --- Bot runtime ---
	// Сколько апдейтов обрабатываем параллельно.
	BotMaxInflight int `envconfig:"BOT_MAX_INFLIGHT" default:"64"`
	// Таймаут long polling (секунды)
	BotUpdateTimeoutSeconds int `envconfig:"BOT_UPDATE_TIMEOUT_SECONDS" default:"60"`
	// Время жизни сессий листания коллекции
	SessionTTL time.Duration `envconfig:"SESSION_TTL" default:"30m"`

	// --- Cards ---
	CardCooldown  time.Duration `envconfig:"CARD_COOLDOWN" default:"3h"`
	CatalogPath   string        `envconfig:"CATALOG_PATH"` // пусто = встроенный каталог
	CardImagesDir string        `envconfig:"CARD_IMAGES_DIR" default:"images"`
	CurrencyName  string        `envconfig:"CURRENCY_NAME" default:"UFCoins"`
	TopLimit      int           `envconfig:"TOP_LIMIT" default:"10"`

	// --- Rate Limiting ---
	RateLimitPerSecond float64 `envconfig:"RATE_LIMIT_PER_SECOND" default:"1"`
	RateLimitBurst     int     `envconfig:"RATE_LIMIT_BURST" default:"5"`
}

// DatabaseDSN возвращает строку подключения к PostgreSQL в формате URL.
// Логин и пароль экранируются, в пароле допустимы @, / и :.
func (c *Config) DatabaseDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": {c.DBSSLMode}}.Encode(),
	}
	return u.String()
}

func (c *Config) Validate() error {
	if c.BotMaxInflight <= 0 {
		return fmt.Errorf("BOT_MAX_INFLIGHT должен быть > 0")
	}
	if c.BotUpdateTimeoutSeconds <= 0 {
		return fmt.Errorf("BOT_UPDATE_TIMEOUT_SECONDS должен быть > 0")
	}
	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("некорректные DB_MIN_CONNS/DB_MAX_CONNS")
	}
	if c.CardCooldown < time.Second {
		return fmt.Errorf("CARD_COOLDOWN должен быть не меньше 1s")
	}
	if c.TopLimit <= 0 {
		return fmt.Errorf("TOP_LIMIT должен быть > 0")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL должен быть > 0")
	}
	if c.RateLimitPerSecond <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_SECOND и RATE_LIMIT_BURST должны быть > 0")
	}
	return nil
}

// Load читает переменные окружения и заполняет структуру Config.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("не удалось загрузить конфигурацию: %w", err)
	}

	ids, err := parseInt64CSV(cfg.AdminIDsRaw)
	if err != nil {
		return nil, fmt.Errorf("ADMIN_IDS parse: %w", err)
	}
	cfg.AdminIDs = ids
	cfg.AdminUsernames = parseUsernames(cfg.AdminUsernamesRaw)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseInt64CSV(s string) ([]int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]int64, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("bad int64 %q: %w", p, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// parseUsernames нормализует список: без @, в нижнем регистре.
func parseUsernames(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		p = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(p), "@"))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
