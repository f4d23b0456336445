package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	version   = "1.0.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile string
	logLevel   string
	verbose    bool
	parallel   bool
	useBrowser bool
	minRecords int
	limit      int
	jsonOutput bool
	dbPath     string
	sessionID  string
	csrfToken  string
)

var rootCmd = &cobra.Command{
	Use:   "reelscraper",
	Short: "Multi-strategy reel metadata retriever",
	Long: `Reelscraper retrieves short-video post metadata through multiple
independent strategies: structured endpoints, the public embed endpoint,
HTML scraping, an optional authenticated session, and headless browser
rendering as a last resort.

Strategies run in priority order with shared rate limiting; unhealthy
strategies are skipped while their circuit breaker is open, and results
from all attempts are merged into one deduplicated record set.`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&configFile, "config", "c", "", "config file (default is .reelscraper.yaml)")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output (implies log-level=debug)")
	pf.BoolVar(&parallel, "parallel", false, "run all strategies concurrently")
	pf.BoolVar(&useBrowser, "browser", false, "enable the headless browser strategy")
	pf.IntVar(&minRecords, "min-records", 0, "records required before stopping early")
	pf.IntVarP(&limit, "limit", "n", 20, "maximum records to return")
	pf.BoolVar(&jsonOutput, "json", false, "print the full aggregate result as JSON")
	pf.StringVar(&dbPath, "database", "", "SQLite file to persist records to")
	pf.StringVar(&sessionID, "session-id", "", "session cookie for the authenticated strategy")
	pf.StringVar(&csrfToken, "csrf-token", "", "CSRF token for the authenticated strategy")

	rootCmd.SetVersionTemplate(`reelscraper {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// globalFlags collects the persistent flags for config merging.
func globalFlags() map[string]interface{} {
	return map[string]interface{}{
		"log-level":   logLevel,
		"verbose":     verbose,
		"parallel":    parallel,
		"browser":     useBrowser,
		"min-records": minRecords,
		"database":    dbPath,
		"session-id":  sessionID,
		"csrf-token":  csrfToken,
	}
}
