package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Env   string `env:"ENV" envDefault:"development"`
	Debug bool   `env:"DEBUG" envDefault:"false"`

	Server   ServerConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Discord  DiscordConfig
	Twitter  TwitterConfig
	Privy    PrivyConfig
}

type ServerConfig struct {
	Port    int      `env:"PORT" envDefault:"8080"`
	Origins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`
}

type PostgresConfig struct {
	DatabaseURL string `env:"DATABASE_URL"`
	Host        string `env:"PGHOST" envDefault:"localhost"`
	Port        string `env:"PGPORT" envDefault:"5432"`
	User        string `env:"PGUSER"`
	Password    string `env:"PGPASSWORD"`
	Database    string `env:"PGDATABASE"`
	SSLMode     string `env:"PGSSLMODE" envDefault:"disable"`
}

type RedisConfig struct {
	Host     string `env:"REDIS_HOST" envDefault:"localhost"`
	Port     int    `env:"REDIS_PORT" envDefault:"6379"`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type AuthConfig struct {
	JWTSecret    string `env:"JWT_SECRET,required"`
	AccessTTL    string `env:"JWT_ACCESS_TTL" envDefault:"1h"`
	RefreshTTL   string `env:"JWT_REFRESH_TTL" envDefault:"168h"`
	CookieDomain string `env:"AUTH_COOKIE_DOMAIN"`

	// First device seen for a wallet is created authorized.
	AutoAuthorizeFirstDevice bool `env:"AUTH_AUTO_AUTHORIZE_FIRST_DEVICE" envDefault:"true"`

	// Create a user record on first OAuth login without a linked wallet.
	OAuthAutoCreate bool `env:"AUTH_OAUTH_AUTO_CREATE" envDefault:"false"`

	// bcrypt hash of the operator secret for the dev-login endpoint.
	// Dev login is only enabled when ENV=development and this is set.
	DevLoginSecretHash string `env:"DEV_LOGIN_SECRET_HASH"`
}

type DiscordConfig struct {
	ClientID     string `env:"DISCORD_CLIENT_ID"`
	ClientSecret string `env:"DISCORD_CLIENT_SECRET"`
	RedirectURL  string `env:"DISCORD_REDIRECT_URL"`
}

type TwitterConfig struct {
	ClientID     string `env:"TWITTER_CLIENT_ID"`
	ClientSecret string `env:"TWITTER_CLIENT_SECRET"`
	RedirectURL  string `env:"TWITTER_REDIRECT_URL"`
}

type PrivyConfig struct {
	AppID     string `env:"PRIVY_APP_ID"`
	IssuerURL string `env:"PRIVY_ISSUER_URL" envDefault:"https://auth.privy.io"`
}

func Load() (*Config, error) {
	// Missing .env is fine; production sets variables directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "local"
}
