package orchestrator

import (
	"context"
	"sort"
	"sync"
	"time"

	"reelscraper/pkg/config"
	"reelscraper/pkg/health"
	"reelscraper/pkg/logger"
	"reelscraper/pkg/models"
	"reelscraper/pkg/strategy"
)

// Operation names one retrieval operation fanned out to strategies.
type Operation string

const (
	OpSearchHashtag Operation = "search_hashtag"
	OpUserReels     Operation = "user_reels"
	OpByURL         Operation = "by_url"
	OpTrending      Operation = "trending"
)

// registered pairs a strategy with its selection priority and its
// continue-on-failure semantics.
type registered struct {
	strategy          strategy.Strategy
	priority          int
	continueOnFailure bool
}

// Orchestrator fans one retrieval request out across registered
// strategies, in priority order, and merges their records into a single
// deduplicated result. It never returns an error: every outcome,
// including "everything was blocked", is expressed in the
// AggregateResult. Invalid input (an empty target) is reported through
// the result's Error field so callers can tell it apart from an
// exhausted run.
type Orchestrator struct {
	cfg     config.OrchestratorConfig
	tracker *health.Tracker
	logger  logger.Logger

	mu         sync.Mutex
	strategies []registered
}

// New creates an orchestrator. Strategies are added with Register.
func New(cfg config.OrchestratorConfig, tracker *health.Tracker, log logger.Logger) *Orchestrator {
	if log == nil {
		log = logger.GetLogger()
	}
	if tracker == nil {
		tracker = health.NewTracker(0, 0, log)
	}
	return &Orchestrator{
		cfg:     cfg,
		tracker: tracker,
		logger:  log,
	}
}

// Register adds a strategy at the given priority. Lower priority values
// run first. When continueOnFailure is false, a failure of this strategy
// ends a sequential run instead of falling through to the next one. A
// nil strategy is ignored so conditional constructors can feed their
// result straight in.
func (o *Orchestrator) Register(s strategy.Strategy, priority int, continueOnFailure bool) {
	if s == nil {
		return
	}
	o.mu.Lock()
	defer o.mu.Unlock()

	o.strategies = append(o.strategies, registered{
		strategy:          s,
		priority:          priority,
		continueOnFailure: continueOnFailure,
	})
	o.tracker.Register(s.Name())
	o.logger.DebugWithFields("strategy registered", map[string]interface{}{
		"strategy": s.Name(),
		"priority": priority,
	})
}

// Health returns the tracker so callers can inspect strategy health.
func (o *Orchestrator) Health() *health.Tracker {
	return o.tracker
}

// SearchByHashtag retrieves posts for a hashtag across strategies.
func (o *Orchestrator) SearchByHashtag(ctx context.Context, tag string, limit int) *models.AggregateResult {
	return o.execute(ctx, OpSearchHashtag, tag, limit)
}

// GetUserReels retrieves a user's reels across strategies.
func (o *Orchestrator) GetUserReels(ctx context.Context, username string, limit int) *models.AggregateResult {
	return o.execute(ctx, OpUserReels, username, limit)
}

// GetByURL retrieves a single post by URL across strategies.
func (o *Orchestrator) GetByURL(ctx context.Context, url string) *models.AggregateResult {
	return o.execute(ctx, OpByURL, url, 1)
}

// GetTrendingReels retrieves trending posts across strategies.
func (o *Orchestrator) GetTrendingReels(ctx context.Context, limit int) *models.AggregateResult {
	return o.execute(ctx, OpTrending, "", limit)
}

func (o *Orchestrator) execute(ctx context.Context, op Operation, target string, limit int) *models.AggregateResult {
	start := time.Now()
	result := &models.AggregateResult{
		Records:         []models.Post{},
		StrategyResults: []models.StrategyResult{},
		ExecutedAt:      start.UTC(),
	}

	if op != OpTrending && target == "" {
		o.logger.Error("orchestrator called with empty target")
		result.Error = "invalid target: operation " + string(op) + " requires a non-empty target"
		result.TotalExecutionTime = time.Since(start)
		return result
	}

	candidates := o.candidates()
	if len(candidates) == 0 {
		o.logger.Warn("no strategies available for execution")
		result.TotalExecutionTime = time.Since(start)
		return result
	}

	if o.cfg.GlobalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.GlobalTimeout)
		defer cancel()
	}

	var attempts []models.StrategyResult
	if o.cfg.ParallelExecution {
		attempts = o.runParallel(ctx, candidates, op, target, limit)
	} else {
		attempts = o.runSequential(ctx, candidates, op, target, limit)
	}

	o.aggregate(result, attempts, limit)
	result.TotalExecutionTime = time.Since(start)

	o.logger.InfoWithFields("orchestration complete", map[string]interface{}{
		"operation":  string(op),
		"target":     target,
		"records":    len(result.Records),
		"strategies": len(attempts),
		"succeeded":  result.SucceededCount,
		"best":       result.BestStrategy,
		"duration":   result.TotalExecutionTime,
	})

	return result
}

// candidates returns the strategies eligible for this execution, sorted
// by priority. Strategies whose circuit breaker is open are skipped.
func (o *Orchestrator) candidates() []registered {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]registered, 0, len(o.strategies))
	for _, r := range o.strategies {
		if !o.tracker.IsAvailable(r.strategy.Name()) {
			o.logger.DebugWithFields("skipping unavailable strategy", map[string]interface{}{
				"strategy": r.strategy.Name(),
			})
			continue
		}
		out = append(out, r)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].priority < out[j].priority
	})
	return out
}

// runSequential executes candidates one at a time in priority order,
// optionally stopping once enough unique records have accumulated.
func (o *Orchestrator) runSequential(ctx context.Context, candidates []registered, op Operation, target string, limit int) []models.StrategyResult {
	var attempts []models.StrategyResult
	unique := make(map[string]bool)

	for _, r := range candidates {
		if ctx.Err() != nil {
			break
		}

		res := o.invoke(ctx, r.strategy, op, target, limit)
		attempts = append(attempts, *res)
		o.tracker.RecordOutcome(res.Strategy, res.Succeeded(), res.ExecutionTime)

		if !res.Succeeded() && !r.continueOnFailure {
			o.logger.WarnWithFields("stopping after non-continuable strategy failure", map[string]interface{}{
				"strategy": res.Strategy,
				"status":   string(res.Status),
			})
			break
		}

		for _, post := range res.Records {
			unique[post.Identity()] = true
		}

		if o.cfg.StopOnFirstSuccess && res.Succeeded() && len(unique) >= o.minRecords() {
			o.logger.DebugWithFields("stopping after sufficient records", map[string]interface{}{
				"strategy": res.Strategy,
				"records":  len(unique),
			})
			break
		}
	}

	return attempts
}

// runParallel executes all candidates concurrently. Results are ordered
// by priority regardless of completion order so deduplication stays
// deterministic. With StopOnFirstSuccess set, the remaining strategies
// are cancelled once enough unique records have accumulated, and their
// cancelled attempts are discarded rather than recorded as failures.
func (o *Orchestrator) runParallel(ctx context.Context, candidates []registered, op Operation, target string, limit int) []models.StrategyResult {
	batchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([]*models.StrategyResult, len(candidates))
	unique := make(map[string]bool)
	stopped := false
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i, r := range candidates {
		wg.Add(1)
		go func(idx int, s strategy.Strategy) {
			defer wg.Done()
			res := o.invoke(batchCtx, s, op, target, limit)

			mu.Lock()
			discarded := stopped && !res.Succeeded()
			if !discarded {
				results[idx] = res
				for _, post := range res.Records {
					unique[post.Identity()] = true
				}
				if o.cfg.StopOnFirstSuccess && res.Succeeded() && len(unique) >= o.minRecords() && !stopped {
					stopped = true
					cancel()
				}
			}
			mu.Unlock()

			if !discarded {
				o.tracker.RecordOutcome(res.Strategy, res.Succeeded(), res.ExecutionTime)
			}
		}(i, r.strategy)
	}
	wg.Wait()

	attempts := make([]models.StrategyResult, 0, len(results))
	for _, res := range results {
		if res != nil {
			attempts = append(attempts, *res)
		}
	}
	return attempts
}

// invoke dispatches one operation to one strategy.
func (o *Orchestrator) invoke(ctx context.Context, s strategy.Strategy, op Operation, target string, limit int) *models.StrategyResult {
	o.logger.DebugWithFields("executing strategy", map[string]interface{}{
		"strategy":  s.Name(),
		"operation": string(op),
	})

	var res *models.StrategyResult
	switch op {
	case OpSearchHashtag:
		res = s.SearchByHashtag(ctx, target, limit)
	case OpUserReels:
		res = s.GetUserReels(ctx, target, limit)
	case OpByURL:
		res = s.GetByURL(ctx, target)
	case OpTrending:
		res = s.GetTrendingReels(ctx, limit)
	default:
		res = &models.StrategyResult{
			Strategy: s.Name(),
			Status:   models.StatusFailed,
			Error:    "unknown operation " + string(op),
			Metadata: &models.ResultMetadata{},
		}
	}

	if res == nil {
		res = &models.StrategyResult{
			Strategy: s.Name(),
			Status:   models.StatusFailed,
			Error:    "strategy returned no result",
			Metadata: &models.ResultMetadata{},
		}
	}
	return res
}

// aggregate merges attempt results into the final output: first-seen
// deduplication across attempts in order, counts, and the best-strategy
// score.
func (o *Orchestrator) aggregate(result *models.AggregateResult, attempts []models.StrategyResult, limit int) {
	seen := make(map[string]bool)
	bestScore := int64(0)
	haveBest := false

	for i := range attempts {
		attempt := &attempts[i]
		result.StrategyResults = append(result.StrategyResults, *attempt)

		if attempt.Succeeded() {
			result.SucceededCount++
		} else {
			result.FailedCount++
		}

		for _, post := range attempt.Records {
			key := post.Identity()
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			result.Records = append(result.Records, post)
		}

		if attempt.Succeeded() {
			score := int64(len(attempt.Records))*100 - attempt.ExecutionTime.Milliseconds()/100
			if !haveBest || score > bestScore {
				bestScore = score
				haveBest = true
				result.BestStrategy = attempt.Strategy
			}
		}
	}

	if limit > 0 && len(result.Records) > limit {
		result.Records = result.Records[:limit]
	}

	result.Success = len(result.Records) >= o.minRecords()
}

func (o *Orchestrator) minRecords() int {
	if o.cfg.MinRecordsForSuccess > 0 {
		return o.cfg.MinRecordsForSuccess
	}
	return 1
}
