// Package retry provides exponential backoff and retry logic for handling
// transient failures in network operations.
//
// Features:
//   - Multiple backoff strategies (exponential, constant)
//   - Jitter to avoid thundering herd problems
//   - Context support for cancellation
//   - Configurable retry predicates driven by typed errors
//
// Basic usage:
//
//	// Simple retry with defaults
//	retries, err := retry.Do(func() error {
//		return client.GetJSON(ctx, url, &out)
//	}, nil)
//
//	// Custom configuration
//	cfg := &retry.Config{
//		MaxAttempts: 5,
//		Backoff: &retry.ExponentialBackoff{
//			BaseDelay:    2 * time.Second,
//			MaxDelay:     30 * time.Second,
//			Multiplier:   2.0,
//			JitterFactor: 0.1,
//		},
//		RetryIf: retry.DefaultRetryIf,
//		Context: ctx,
//		Logger:  logger.GetLogger(),
//	}
//	retries, err := retry.Do(operation, cfg)
//
// The default predicate retries rate limits, server errors, timeouts and
// network failures. Blocks (captcha, login walls) and not-found errors
// are never retried: repeating those requests only burns quota and makes
// the client look more like a bot.
package retry
