package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"reelscraper/pkg/auth"
	"reelscraper/pkg/config"
	"reelscraper/pkg/logger"
	"reelscraper/pkg/models"
	"reelscraper/pkg/orchestrator"
	"reelscraper/pkg/sink"
)

var hashtagCmd = &cobra.Command{
	Use:   "hashtag <tag>",
	Short: "Retrieve reels for a hashtag",
	Example: `  reelscraper hashtag travel
  reelscraper hashtag "#travel" --limit 50 --parallel`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, o *orchestrator.Orchestrator) *models.AggregateResult {
			return o.SearchByHashtag(ctx, args[0], limit)
		})
	},
}

var userCmd = &cobra.Command{
	Use:   "user <username>",
	Short: "Retrieve a user's reels",
	Example: `  reelscraper user natgeo
  reelscraper user @natgeo --limit 10 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, o *orchestrator.Orchestrator) *models.AggregateResult {
			return o.GetUserReels(ctx, args[0], limit)
		})
	},
}

var urlCmd = &cobra.Command{
	Use:   "url <post-url>",
	Short: "Retrieve a single post by URL",
	Example: `  reelscraper url https://www.instagram.com/reel/Cabc123defG/`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, o *orchestrator.Orchestrator) *models.AggregateResult {
			return o.GetByURL(ctx, args[0])
		})
	},
}

var trendingCmd = &cobra.Command{
	Use:   "trending",
	Short: "Retrieve trending reels",
	Example: `  reelscraper trending --limit 30`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(func(ctx context.Context, o *orchestrator.Orchestrator) *models.AggregateResult {
			return o.GetTrendingReels(ctx, limit)
		})
	},
}

func init() {
	rootCmd.AddCommand(hashtagCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(urlCmd)
	rootCmd.AddCommand(trendingCmd)
}

// run wires config, logging, credentials and the orchestrator, then
// executes one operation and reports its result.
func run(op func(context.Context, *orchestrator.Orchestrator) *models.AggregateResult) error {
	cfg, err := config.Load(configFile, globalFlags())
	if err != nil {
		return err
	}

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return err
	}
	log := logger.GetLogger()

	provider := buildProvider(cfg, log)

	o, cleanup := orchestrator.Build(cfg, provider, log)
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result := op(ctx, o)

	if err := persist(ctx, cfg, result, log); err != nil {
		log.WithError(err).Warn("failed to persist records")
	}

	return report(result)
}

// buildProvider prefers session credentials passed via flags or config,
// falling back to the stored credential chain.
func buildProvider(cfg *config.Config, log logger.Logger) auth.Provider {
	if cfg.Session.SessionID != "" && cfg.Session.CSRFToken != "" {
		return &auth.StaticProvider{Account: auth.Account{
			SessionID:    cfg.Session.SessionID,
			CSRFToken:    cfg.Session.CSRFToken,
			UserAgent:    cfg.Session.UserAgent,
			LastModified: time.Now(),
		}}
	}

	manager, err := auth.NewManager()
	if err != nil {
		log.WithError(err).Debug("credential manager unavailable")
		return nil
	}
	return manager
}

// persist stores records when a database path is configured.
func persist(ctx context.Context, cfg *config.Config, result *models.AggregateResult, log logger.Logger) error {
	if cfg.Storage.DatabasePath == "" || len(result.Records) == 0 {
		return nil
	}

	store, err := sink.OpenSQLite(cfg.Storage.DatabasePath, log)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Store(ctx, result.Records)
}

// report prints the result and sets the exit status via error.
func report(result *models.AggregateResult) error {
	if result.Error != "" {
		return fmt.Errorf("%s", result.Error)
	}

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return err
		}
	} else {
		printSummary(result)
	}

	if !result.Success {
		return fmt.Errorf("no records retrieved (%d strategies failed)", result.FailedCount)
	}
	return nil
}

func printSummary(result *models.AggregateResult) {
	fmt.Printf("Retrieved %d records in %s\n", len(result.Records), result.TotalExecutionTime.Round(time.Millisecond))
	if result.BestStrategy != "" {
		fmt.Printf("Best strategy: %s (%d succeeded, %d failed)\n", result.BestStrategy, result.SucceededCount, result.FailedCount)
	}
	fmt.Println()

	for i, post := range result.Records {
		fmt.Printf("%2d. %s\n", i+1, post.URL)
		if post.Author.Username != "" {
			fmt.Printf("    author:   @%s\n", post.Author.Username)
		}
		if post.Caption != "" {
			caption := post.Caption
			if len(caption) > 80 {
				caption = caption[:80] + "..."
			}
			fmt.Printf("    caption:  %s\n", caption)
		}
		if post.ViewCount > 0 || post.LikeCount > 0 {
			fmt.Printf("    counts:   %d views, %d likes, %d comments\n", post.ViewCount, post.LikeCount, post.CommentCount)
		}
		if post.PostedAtKnown {
			fmt.Printf("    posted:   %s\n", post.PostedAt.Format("2006-01-02 15:04"))
		}
	}

	if verbose {
		fmt.Println("\nStrategy attempts:")
		for _, sr := range result.StrategyResults {
			line := fmt.Sprintf("  %-8s %-12s %3d records  %s",
				sr.Strategy, sr.Status, len(sr.Records), sr.ExecutionTime.Round(time.Millisecond))
			if sr.Error != "" {
				line += "  (" + sr.Error + ")"
			}
			fmt.Println(line)
		}
	}
}
