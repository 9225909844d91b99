package config

import (
	"net/url"
	"strconv"
	"time"
)

type Postgres struct {
	Host     string `env:"POSTGRES_HOST,required"`
	Port     int    `env:"POSTGRES_PORT,required"`
	User     string `env:"POSTGRES_USER,required"`
	Password string `env:"POSTGRES_PASSWORD,required"`
	DB       string `env:"POSTGRES_DB,required"`
	SSLMode  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// ApplicationName shows up in pg_stat_activity.
	ApplicationName string `env:"POSTGRES_APPLICATION_NAME" envDefault:"product-catalog"`

	MaxConns          int32         `env:"POSTGRES_MAX_CONNS" envDefault:"10"`
	MinConns          int32         `env:"POSTGRES_MIN_CONNS" envDefault:"1"`
	MaxConnLifetime   time.Duration `env:"POSTGRES_MAX_CONN_LIFETIME" envDefault:"1h"`
	MaxConnIdleTime   time.Duration `env:"POSTGRES_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	HealthCheckPeriod time.Duration `env:"POSTGRES_HEALTH_CHECK_PERIOD" envDefault:"1m"`
	PingTimeout       time.Duration `env:"POSTGRES_PING_TIMEOUT" envDefault:"5s"`
}

// DSN returns the connection string understood by pgx and database/sql.
// Credentials are escaped.
func (p Postgres) DSN() string {
	q := url.Values{}
	q.Set("sslmode", p.SSLMode)
	if p.ApplicationName != "" {
		q.Set("application_name", p.ApplicationName)
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     p.Host + ":" + strconv.Itoa(p.Port),
		Path:     "/" + p.DB,
		RawQuery: q.Encode(),
	}
	return u.String()
}
