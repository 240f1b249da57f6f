package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/agentx-labs/tooldex/internal/scanner"
)

var (
	watchPlatform string
	watchDebounce time.Duration
)

func init() {
	watchCmd.Flags().StringVar(&watchPlatform, "platform", "all", "Platform to watch (claude, codex, all)")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", scanner.DefaultDebounce, "Quiet period before re-scanning")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-scan whenever a tool home changes",
	Long:  `Scan once, then re-scan and refresh the catalog after every burst of file changes until interrupted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		platforms, err := parsePlatforms(watchPlatform)
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		refresh := func() {
			result, summary, err := scanAndStore(ctx, st, platforms, app.settings.ScanParallel)
			if err != nil {
				app.logger.Error("refresh failed", zap.Error(err))
				return
			}
			printer.Fprintf(cmd.OutOrStdout(), "%s  %d components, %d new, %d scan error(s)\n",
				time.Now().Format("15:04:05"), result.Total(), summary.Installed, len(result.Errors))
		}
		refresh()

		var dirs []string
		for _, r := range platformRoots() {
			for _, p := range platforms {
				if r.Platform == p {
					dirs = append(dirs, r.WatchDirs()...)
				}
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Watching for changes (Ctrl-C to stop)...")
		return scanner.Watch(ctx, dirs, watchDebounce, app.logger, refresh)
	},
}
