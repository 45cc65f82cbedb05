// Package logger builds the service's *slog.Logger and holds the attribute
// helpers every package uses, so keys such as "entity_id", "event" and
// "request_id" are spelled the same everywhere.
//
//	log := logger.New(
//		logger.WithEnvironment(env, "leagued"),
//		logger.WithLevelName(cfg.LogLevel),
//		logger.WithContextExtractors(
//			requestid.LoggerExtractor(),
//			environment.LoggerExtractor(),
//		),
//	)
//	log.InfoContext(ctx, "transition applied",
//		logger.EntityID("m-42"),
//		logger.Transition("scheduled", "ready"),
//	)
//
// Error and Errors return an empty attribute for nil errors, so they can be
// passed unconditionally.
package logger
