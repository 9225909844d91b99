package config

type HTTP struct {
	Port              uint32   `env:"HTTP_PORT" envDefault:"8000"`
	Swagger           bool     `env:"HTTP_SWAGGER" envDefault:"true"`
	OpenAPIValidation bool     `env:"HTTP_OPENAPI_VALIDATION" envDefault:"false"`
	CORSAllowedOrigin []string `env:"HTTP_CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}
