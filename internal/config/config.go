package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is loaded from environment variables. Nested structs are prefixed by
// their field name, so Log.Level reads LOG_LEVEL and DB.Host reads DB_HOST.
type Config struct {
	Log struct {
		Level     string `envconfig:"LEVEL" default:"info"`
		Format    string `envconfig:"FORMAT" default:"text"`
		Component string `envconfig:"COMPONENT" default:"rndvu"`
		Source    bool   `envconfig:"SOURCE" default:"false"`
		SQL       bool   `envconfig:"SQL" default:"false"`
	}

	App struct {
		ENV      string `envconfig:"ENV" default:"development"`
		Timezone string `envconfig:"TIMEZONE" default:"Europe/Moscow"`
	}

	DB struct {
		Driver   string `envconfig:"DRIVER" default:"mysql"`
		DSN      string `envconfig:"DSN"`
		Host     string `envconfig:"HOST" default:"localhost"`
		Port     string `envconfig:"PORT" default:"3306"`
		User     string `envconfig:"USER" default:"root"`
		Password string `envconfig:"PASSWORD" default:"root"`
		Name     string `envconfig:"NAME" default:"rndvu"`
		SSLMode  string `envconfig:"SSLMODE" default:"disable"`
		MaxConns int    `envconfig:"MAX_CONNS" default:"25"`
	}

	Redis struct {
		Addr     string `envconfig:"ADDR" default:"localhost:6379"`
		Password string `envconfig:"PASSWORD"`
		DB       int    `envconfig:"DB" default:"0"`
	}

	HTTP struct {
		Host           string        `envconfig:"HOST" default:"0.0.0.0"`
		Port           string        `envconfig:"PORT" default:"8080"`
		AllowedOrigins []string      `envconfig:"ALLOWED_ORIGINS" default:"*"`
		RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"15s"`
	}

	GRPC struct {
		Host string `envconfig:"HOST" default:"127.0.0.1"`
		Port string `envconfig:"PORT" default:"50051"`
	}

	Auth struct {
		AllowTestMode  bool   `envconfig:"ALLOW_TEST_MODE" default:"false"`
		TestUserID     int64  `envconfig:"TEST_USER_ID" default:"123456789"`
		AdminTokenHash string `envconfig:"ADMIN_TOKEN_HASH"`
	}

	Telegram struct {
		BotToken  string `envconfig:"BOT_TOKEN"`
		WebAppURL string `envconfig:"WEB_APP_URL"`
	}

	Storage struct {
		Region          string        `envconfig:"REGION" default:"ru-central1"`
		Bucket          string        `envconfig:"BUCKET"`
		Endpoint        string        `envconfig:"ENDPOINT"`
		AccessKeyID     string        `envconfig:"ACCESS_KEY_ID"`
		SecretAccessKey string        `envconfig:"SECRET_ACCESS_KEY"`
		PresignTTL      time.Duration `envconfig:"PRESIGN_TTL" default:"15m"`
		MaxPhotoBytes   int64         `envconfig:"MAX_PHOTO_BYTES" default:"20971520"`
	}

	Billing struct {
		ShopID           string `envconfig:"SHOP_ID"`
		SecretKey        string `envconfig:"SECRET_KEY"`
		APIURL           string `envconfig:"API_URL" default:"https://api.yookassa.ru/v3"`
		DefaultReturnURL string `envconfig:"DEFAULT_RETURN_URL" default:"https://rndvu.rozari.info/"`
	}

	Feed struct {
		PageSize      int           `envconfig:"PAGE_SIZE" default:"10"`
		SkipRetention time.Duration `envconfig:"SKIP_RETENTION" default:"48h"`
	}
}

// Load reads the environment into a Config and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.DB.DSN == "" {
		cfg.DB.DSN = cfg.buildDSN()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c *Config) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.App.ENV)) {
	case "production", "prod":
		return true
	}
	return false
}

// TestModeAllowed is the single switch for the auth bypass. It is never on in production.
func (c *Config) TestModeAllowed() bool {
	return c.Auth.AllowTestMode && !c.IsProduction()
}

func (c *Config) Validate() error {
	switch c.DB.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.Feed.PageSize <= 0 {
		return fmt.Errorf("FEED_PAGE_SIZE must be > 0")
	}
	if c.Feed.SkipRetention <= 0 {
		return fmt.Errorf("FEED_SKIP_RETENTION must be > 0")
	}
	if c.IsProduction() && c.Telegram.BotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN is required in production")
	}
	return nil
}

func (c *Config) buildDSN() string {
	switch c.DB.Driver {
	case "postgres":
		return fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Name, c.DB.SSLMode,
		)
	case "sqlite":
		return c.DB.Name + ".db"
	default:
		return fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name,
		)
	}
}
