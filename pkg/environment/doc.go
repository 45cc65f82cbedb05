// Package environment names the deployment environment and carries it through
// request contexts.
//
// The value comes from APP_ENV at startup and is parsed once:
//
//	env, err := environment.Parse(cfg.Env)
//	if err != nil {
//		return err
//	}
//	router.Use(environment.Middleware(env))
//
// LoggerExtractor plugs into logger.WithContextExtractors so every record
// logged with a request context is tagged with the environment.
package environment
