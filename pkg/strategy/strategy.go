package strategy

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"reelscraper/pkg/config"
	errs "reelscraper/pkg/errors"
	"reelscraper/pkg/logger"
	"reelscraper/pkg/models"
	"reelscraper/pkg/retry"
)

// Strategy is one self-contained method of retrieving reel metadata.
// Every operation returns a StrategyResult; an operation a variant cannot
// meaningfully perform returns a failed result immediately without making
// a network call. New variants plug into the orchestrator through this
// interface without touching its control flow.
type Strategy interface {
	Name() string
	SearchByHashtag(ctx context.Context, tag string, limit int) *models.StrategyResult
	GetUserReels(ctx context.Context, username string, limit int) *models.StrategyResult
	GetByURL(ctx context.Context, url string) *models.StrategyResult
	GetTrendingReels(ctx context.Context, limit int) *models.StrategyResult
}

// ErrIncomplete marks an attempt that extracted some records but could
// not finish (missing sub-fetches, truncated response). The runner maps
// it to a partial result instead of discarding the records.
var ErrIncomplete = stderrors.New("extraction incomplete")

// Incompletef wraps ErrIncomplete with context.
func Incompletef(format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, ErrIncomplete)...)
}

// attemptFunc performs one full attempt of an operation.
type attemptFunc func(ctx context.Context) ([]models.Post, error)

// runner wraps a strategy's single-attempt execution in retry logic and
// builds the StrategyResult. Recoverable failures are retried with
// exponential backoff and jitter up to the descriptor's budget;
// classified blocks fail immediately.
type runner struct {
	name   string
	cfg    config.StrategyConfig
	logger logger.Logger
}

func newRunner(name string, cfg config.StrategyConfig, log logger.Logger) *runner {
	if log == nil {
		log = logger.GetLogger()
	}
	return &runner{name: name, cfg: cfg, logger: log}
}

// run executes fn under the per-attempt timeout and retry budget.
func (r *runner) run(ctx context.Context, fn attemptFunc) *models.StrategyResult {
	start := time.Now()
	result := &models.StrategyResult{
		Strategy: r.name,
		Metadata: &models.ResultMetadata{},
	}

	var records []models.Post

	retryCfg := &retry.Config{
		MaxAttempts: r.cfg.MaxRetries + 1,
		Backoff: &retry.ExponentialBackoff{
			BaseDelay:    r.cfg.RetryDelay,
			MaxDelay:     10 * r.cfg.RetryDelay,
			Multiplier:   2.0,
			JitterFactor: 0.1,
		},
		RetryIf: func(err error) bool {
			if stderrors.Is(err, ErrIncomplete) {
				return false
			}
			return retry.DefaultRetryIf(err)
		},
		Context: ctx,
		Logger:  r.logger.WithField("strategy", r.name),
	}

	retries, err := retry.Do(func() error {
		attemptCtx := ctx
		if r.cfg.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
			defer cancel()
		}
		var attemptErr error
		records, attemptErr = fn(attemptCtx)
		return attemptErr
	}, retryCfg)

	result.Metadata.RetryCount = retries
	result.ExecutionTime = time.Since(start)

	if err != nil {
		r.classifyFailure(result, records, err)
		return result
	}

	result.Records = records
	result.Status = models.StatusSuccess
	return result
}

// classifyFailure maps an attempt error onto result status and metadata.
func (r *runner) classifyFailure(result *models.StrategyResult, records []models.Post, err error) {
	result.Error = err.Error()

	if stderrors.Is(err, ErrIncomplete) && len(records) > 0 {
		result.Records = records
		result.Status = models.StatusPartial
		return
	}

	if stderrors.Is(err, context.DeadlineExceeded) {
		result.Status = models.StatusTimeout
		return
	}

	var apiErr *errs.Error
	if stderrors.As(err, &apiErr) {
		result.Metadata.StatusCode = apiErr.Code
		switch apiErr.Type {
		case errs.ErrorTypeRateLimit:
			result.Status = models.StatusRateLimited
			result.Metadata.RateLimited = true
		case errs.ErrorTypeLoginRequired:
			result.Status = models.StatusBlocked
			result.Metadata.LoginRequired = true
		case errs.ErrorTypeCaptcha:
			result.Status = models.StatusBlocked
			result.Metadata.CaptchaRequired = true
		case errs.ErrorTypeChallenge, errs.ErrorTypeBlocked:
			result.Status = models.StatusBlocked
		case errs.ErrorTypeTimeout:
			result.Status = models.StatusTimeout
		default:
			result.Status = models.StatusFailed
		}
		return
	}

	result.Status = models.StatusFailed
}

// capRecords bounds a record slice to limit when limit is positive.
func capRecords(records []models.Post, limit int) []models.Post {
	if limit > 0 && len(records) > limit {
		return records[:limit]
	}
	return records
}
