package config

import "github.com/caarlos0/env/v10"

// Config centraliza la configuración del servicio.
type Config struct {
	HTTPPort              string   `env:"HTTP_PORT" envDefault:"8080"`
	DatabaseURL           string   `env:"DATABASE_URL,required,notEmpty"`
	DBMaxConns            int32    `env:"DB_MAX_CONNS" envDefault:"10"`
	DBStatementTimeoutMS  int      `env:"DB_STATEMENT_TIMEOUT_MS" envDefault:"5000"`
	DBConnectAttempts     int      `env:"DB_CONNECT_ATTEMPTS" envDefault:"5"`
	JWTSecret             string   `env:"JWT_SECRET"`
	JWTAccessTTLMinutes   int      `env:"JWT_ACCESS_TTL_MINUTES" envDefault:"15"`
	JWTRefreshTTLMinutes  int      `env:"JWT_REFRESH_TTL_MINUTES" envDefault:"43200"`
	SMTPHost              string   `env:"SMTP_HOST"`
	SMTPPort              int      `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser              string   `env:"SMTP_USER"`
	SMTPPass              string   `env:"SMTP_PASS"`
	SMTPFrom              string   `env:"SMTP_FROM"`
	SMTPFromName          string   `env:"SMTP_FROM_NAME" envDefault:"Advisor Finder"`
	SMTPUseTLS            bool     `env:"SMTP_USE_TLS" envDefault:"false"`
	RedisAddr             string   `env:"REDIS_ADDR"`
	RedisPassword         string   `env:"REDIS_PASSWORD"`
	RedisDB               int      `env:"REDIS_DB" envDefault:"0"`
	CORSAllowedOrigins    []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:3001"`
	SearchMaxTermLength   int      `env:"SEARCH_MAX_TERM_LENGTH" envDefault:"200"`
	SearchMaxFacets       int      `env:"SEARCH_MAX_FACETS" envDefault:"100"`
	RequestTimeoutSeconds int      `env:"REQUEST_TIMEOUT_SECONDS" envDefault:"10"`
	AutoMigrate           bool     `env:"AUTO_MIGRATE" envDefault:"true"`
	SeedOnStartup         bool     `env:"SEED_ON_STARTUP" envDefault:"true"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
