// Package config loads typed configuration from environment variables.
//
// Structs declare their variables with github.com/caarlos0/env tags and are
// parsed once per type. A .env file in the working directory is read on the
// first Load; real environment variables take precedence over it.
//
//	type Config struct {
//		Addr string `env:"HTTP_ADDR" envDefault:":8080"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// Packages that need configuration (pg, redis, httpserver, locker) export
// their own Config struct so cmd/leagued can embed them in one AppConfig.
package config
