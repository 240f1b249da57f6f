package cli

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentx-labs/tooldex/internal/branding"
	"github.com/agentx-labs/tooldex/internal/catalog"
	"github.com/agentx-labs/tooldex/internal/config"
	"github.com/agentx-labs/tooldex/internal/logging"
	"github.com/agentx-labs/tooldex/internal/scanner"
	"github.com/agentx-labs/tooldex/internal/store"
	"github.com/agentx-labs/tooldex/internal/toggle"
	"github.com/agentx-labs/tooldex/internal/userdata"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	configFile string
	verbose    bool
	logJSON    bool
)

// app holds what PersistentPreRunE resolved for the running command.
var app struct {
	settings config.Settings
	paths    userdata.Paths
	logger   *zap.Logger
	closeLog func()
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` indexes the skills, plugins, commands, hooks, MCP servers and binaries
installed under agentic coding homes (~/.claude, ~/.codex) into a local searchable
catalog, records how often they are used, and enables or disables them in place.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app.closeLog != nil {
			app.closeLog()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Config file (default ~/"+branding.HomeDir()+"/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log at debug level")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write console logs as JSON")
}

func setup(cmd *cobra.Command, args []string) error {
	if configFile != "" {
		config.LoadFile(configFile)
	} else {
		config.Load()
	}
	app.settings = config.Resolve()

	paths, err := userdata.Resolve(app.settings)
	if err != nil {
		return err
	}
	app.paths = paths

	level := app.settings.LogLevel
	if verbose {
		level = "debug"
	}
	logger, closeLog, err := logging.New(logging.Options{
		Level:   level,
		File:    paths.LogFile,
		Console: cmd.ErrOrStderr(),
		JSON:    logJSON,
	})
	if err != nil {
		return err
	}
	app.logger = logger.Named(cmd.Name())
	app.closeLog = closeLog
	return nil
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func openStore(ctx context.Context) (*store.Store, error) {
	if err := app.paths.EnsureDBDir(); err != nil {
		return nil, err
	}
	return store.Open(ctx, store.Options{Path: app.paths.DBPath, Logger: app.logger})
}

func platformRoots() []scanner.PlatformRoots {
	return []scanner.PlatformRoots{
		{Platform: catalog.PlatformClaude, Home: app.paths.ClaudeHome, ClaudeJSON: app.paths.ClaudeJSON},
		{Platform: catalog.PlatformCodex, Home: app.paths.CodexHome},
	}
}

func toggleEngine() *toggle.Engine {
	return toggle.New(toggle.Locations{
		ClaudeHome: app.paths.ClaudeHome,
		ClaudeJSON: app.paths.ClaudeJSON,
		CodexHome:  app.paths.CodexHome,
	}, app.logger)
}

// parsePlatforms maps a --platform value to the platforms to scan.
func parsePlatforms(value string) ([]catalog.Platform, error) {
	if value == "" || strings.EqualFold(value, "all") {
		return catalog.Platforms, nil
	}
	p, err := catalog.ParsePlatform(value)
	if err != nil {
		return nil, err
	}
	return []catalog.Platform{p}, nil
}

// scanAndStore runs a scan and upserts the result.
func scanAndStore(ctx context.Context, st *store.Store, platforms []catalog.Platform, parallel bool) (catalog.ScanResult, store.UpsertSummary, error) {
	start := time.Now()
	result := scanner.NewOrchestrator(platformRoots(), app.logger).ScanAll(ctx, platforms, parallel)
	app.logger.Info("scan finished",
		zap.Int("entries", result.Total()),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("elapsed", time.Since(start)))

	summary, err := st.Upsert(ctx, result)
	if err != nil {
		return result, summary, fmt.Errorf("saving scan: %w", err)
	}
	return result, summary, nil
}

func parseIdentity(s string) (catalog.Identity, error) {
	return catalog.ParseIdentity(s, catalog.PlatformClaude)
}
