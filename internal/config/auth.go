package config

import "errors"

type Auth struct {
	Enabled   bool   `env:"AUTH_ENABLED" envDefault:"false"`
	JWTSecret string `env:"AUTH_JWT_SECRET"`
	JWTIssuer string `env:"AUTH_JWT_ISSUER"`
}

func (a Auth) Validate() error {
	if a.Enabled && a.JWTSecret == "" {
		return errors.New("AUTH_JWT_SECRET is required when AUTH_ENABLED is set")
	}
	return nil
}
