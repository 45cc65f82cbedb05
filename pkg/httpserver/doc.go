// Package httpserver runs an http.Handler with sane timeouts and graceful,
// context-driven shutdown.
//
// Run binds the listener synchronously, so a bad address surfaces as ErrStart
// instead of a silent goroutine failure, then serves until the context is
// cancelled or Shutdown is called. Signal handling is left to the caller,
// typically via signal.NotifyContext.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//		return err
//	}
//
// LivenessHandler and ReadinessHandler back the /health/live and
// /health/ready probes; readiness runs each named Check with a timeout.
package httpserver
