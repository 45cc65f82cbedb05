// Package webhook delivers workflow effects to an HTTP collaborator.
//
// Each envelope is POSTed as JSON with its id in X-Leagueflow-Delivery and
// its kind in X-Leagueflow-Effect. When a secret is configured the body is
// signed with HMAC-SHA256 over "<unix timestamp>.<body>"; receivers check it
// with Verify.
//
// Transient failures (network errors, 5xx, 408, 425, 429) are retried with
// exponential backoff. A circuit breaker stops deliveries after repeated
// failures and lets a single probe through once the recovery timeout passes.
//
// Sender.Deliver has the shape of dispatch.Handler, so wiring it is:
//
//	sender, err := webhook.New(cfg.Webhook, webhook.WithLogger(log))
//	if err != nil {
//		return err
//	}
//	go dispatch.Consume(ctx, effects, log, sender.Deliver)
package webhook
