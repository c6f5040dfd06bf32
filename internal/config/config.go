// config предоставляет структуру конфигурации market-insights
// и функции загрузки из YAML/ENV с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация сервиса.
// Приоритет источников:
//  1. явный путь, переданный в MustLoad/Load;
//  2. переменная окружения CONFIG_PATH;
//  3. файл ./local.yaml из рабочей директории;
//  4. переменные окружения.
//
// Значения из ENV перекрывают значения из файла.
type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	HTTP      HTTPConfig      `yaml:"http"`
	Feed      FeedConfig      `yaml:"feed"`
	Cache     CacheConfig     `yaml:"cache"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Tracing   TracingConfig   `yaml:"tracing"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
}

// HTTPConfig — сетевые настройки HTTP-сервера.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// FeedConfig — источник ленты и политика загрузки.
type FeedConfig struct {
	// PrimaryURL — основной URL ленты (с партнёрским токеном).
	PrimaryURL string `yaml:"primary_url" env:"FEED_PRIMARY_URL" env-default:"https://www.simplifyingthemarket.com/en/feed"`
	// FallbackURL — запасной вариант того же хоста; пустой отключает повтор.
	FallbackURL string `yaml:"fallback_url" env:"FEED_FALLBACK_URL" env-default:"https://www.simplifyingthemarket.com/feed"`
	UserAgent   string `yaml:"user_agent" env:"FEED_USER_AGENT" env-default:"market-insights/1.0 (+https://www.simplifyingthemarket.com)"`
	// Timeout — дедлайн одной попытки загрузки и разбора.
	Timeout time.Duration `yaml:"timeout" env:"FEED_TIMEOUT" env-default:"10s"`
	// Revalidate — срок, на который HTTP-слой кэширует ответ (Cache-Control и кэш ленты).
	Revalidate time.Duration `yaml:"revalidate" env:"FEED_REVALIDATE" env-default:"1h"`
	// DisableCoalescing — не объединять параллельные загрузки в один запрос к апстриму.
	DisableCoalescing bool `yaml:"disable_coalescing" env:"FEED_DISABLE_COALESCING"`
	ExcerptLength     int  `yaml:"excerpt_length" env:"FEED_EXCERPT_LENGTH" env-default:"150"`
}

// CacheConfig — кэш ответа ленты. Пустой RedisURL — кэш в памяти процесса.
type CacheConfig struct {
	Disabled bool   `yaml:"disabled" env:"CACHE_DISABLED"`
	RedisURL string `yaml:"redis_url" env:"CACHE_REDIS_URL"`
	Prefix   string `yaml:"prefix" env:"CACHE_PREFIX" env-default:"market-insights:"`
}

// TelemetryConfig — буфер событий и параметры панелей производительности.
type TelemetryConfig struct {
	// Capacity — ёмкость кольцевого буфера событий.
	Capacity  int         `yaml:"capacity" env:"TELEMETRY_CAPACITY" env-default:"500"`
	Dashboard PanelConfig `yaml:"dashboard" env-prefix:"TELEMETRY_DASHBOARD_"`
	Compact   PanelConfig `yaml:"compact" env-prefix:"TELEMETRY_COMPACT_"`
}

// PanelConfig — окно событий и период пересчёта одной панели.
type PanelConfig struct {
	Window   int           `yaml:"window" env:"WINDOW"`
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`
}

// TracingConfig — экспорт трейсов по OTLP/gRPC.
type TracingConfig struct {
	Enabled  bool   `yaml:"enabled" env:"TRACING_ENABLED" env-default:"false"`
	Endpoint string `yaml:"endpoint" env:"TRACING_ENDPOINT" env-default:"localhost:4317"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"30s"`
}

// Значения панелей по умолчанию: полная панель и компактный виджет.
const (
	defaultDashboardWindow   = 10
	defaultDashboardInterval = 5 * time.Second
	defaultCompactWindow     = 5
	defaultCompactInterval   = 10 * time.Second
)

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
func Load(path string) (*Config, error) {
	var cfg Config

	readFile := func(p string) error {
		if _, err := os.Stat(p); err != nil {
			return fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		return nil
	}

	switch {
	// 1) Явный путь.
	case path != "":
		if err := readFile(path); err != nil {
			return nil, err
		}
	// 2) CONFIG_PATH.
	case os.Getenv("CONFIG_PATH") != "":
		if err := readFile(os.Getenv("CONFIG_PATH")); err != nil {
			return nil, err
		}
	// 3) ./local.yaml.
	case fileExists("local.yaml"):
		if err := readFile("local.yaml"); err != nil {
			return nil, err
		}
	// 4) Только ENV.
	default:
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
		}
	}

	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// applyDefaults заполняет поля, для которых у вложенных структур
// нет собственных env-default (панели используют общий PanelConfig).
func (c *Config) applyDefaults() {
	if c.Telemetry.Dashboard.Window == 0 {
		c.Telemetry.Dashboard.Window = defaultDashboardWindow
	}

	if c.Telemetry.Dashboard.Interval == 0 {
		c.Telemetry.Dashboard.Interval = defaultDashboardInterval
	}

	if c.Telemetry.Compact.Window == 0 {
		c.Telemetry.Compact.Window = defaultCompactWindow
	}

	if c.Telemetry.Compact.Interval == 0 {
		c.Telemetry.Compact.Interval = defaultCompactInterval
	}
}

// validate — базовая валидация значений.
func (c *Config) validate() error {
	if err := validURL("feed.primary_url", c.Feed.PrimaryURL); err != nil {
		return err
	}

	if c.Feed.FallbackURL != "" {
		if err := validURL("feed.fallback_url", c.Feed.FallbackURL); err != nil {
			return err
		}
	}

	if c.Feed.Timeout <= 0 {
		return fmt.Errorf("feed.timeout must be > 0")
	}

	if c.Feed.Revalidate < time.Second {
		return fmt.Errorf("feed.revalidate must be at least 1s")
	}

	if c.Feed.ExcerptLength <= 0 {
		return fmt.Errorf("feed.excerpt_length must be > 0")
	}

	if c.Telemetry.Capacity <= 0 {
		return fmt.Errorf("telemetry.capacity must be > 0")
	}

	for name, p := range map[string]PanelConfig{
		"dashboard": c.Telemetry.Dashboard,
		"compact":   c.Telemetry.Compact,
	} {
		if p.Window <= 0 || p.Window > c.Telemetry.Capacity {
			return fmt.Errorf("telemetry.%s.window must be in (0, telemetry.capacity]", name)
		}

		if p.Interval < 100*time.Millisecond {
			return fmt.Errorf("telemetry.%s.interval must be at least 100ms", name)
		}
	}

	if c.Tracing.Enabled && c.Tracing.Endpoint == "" {
		return fmt.Errorf("tracing.endpoint is required when tracing is enabled")
	}

	return nil
}

func validURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http(s) URL", field)
	}

	return nil
}
