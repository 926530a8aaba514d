package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/atikulmunna/esoloom/internal/tailer"
	"github.com/atikulmunna/esoloom/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [paths...]",
	Short: "Follow encounter logs and report each fight",
	Long: `Follow one or more encounter logs (or glob patterns) as the game writes them
and print a report whenever a fight ends. A log that does not exist yet is
picked up as soon as the game creates it.

Examples:
  esoloom watch ~/Documents/Elder\ Scrolls\ Online/live/Logs/Encounter.log
  esoloom watch "./Logs/Encounter*.log" --from-start
  esoloom watch Encounter.log --output json --dashboard --port 9000`,
	RunE: runWatch,
}

func init() {
	flags := watchCmd.Flags()
	flags.Bool("from-start", false, "read existing log content when there is no checkpoint")
	flags.String("checkpoint", "", "offset checkpoint file (default .esoloom-state.json)")
	flags.Bool("dashboard", false, "serve the web dashboard and /metrics")
	flags.String("port", "", "dashboard port (default 8080)")

	cobra.CheckErr(viper.BindPFlag("from_start", flags.Lookup("from-start")))
	cobra.CheckErr(viper.BindPFlag("dashboard.enabled", flags.Lookup("dashboard")))
	cobra.CheckErr(viper.BindPFlag("dashboard.port", flags.Lookup("port")))
	cobra.CheckErr(viper.BindPFlag("checkpoint", flags.Lookup("checkpoint")))

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}
	if err := cfg.RequirePaths(); err != nil {
		return err
	}

	// --- Set up context with graceful shutdown ---
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "\nesoloom shutting down...")
		cancel()
	}()

	// --- Initialize watcher ---
	w, err := watcher.New(cfg.Paths)
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	if w.Len() == 0 {
		fmt.Fprintf(os.Stderr, "esoloom waiting for a log matching %v\n", cfg.Paths)
	} else {
		fmt.Fprintf(os.Stderr, "esoloom watching %d file(s):\n", w.Len())
		for _, p := range w.Paths() {
			fmt.Fprintf(os.Stderr, "   • %s\n", p)
		}
	}
	fmt.Fprintln(os.Stderr)

	// --- Initialize checkpoint and tailer ---
	ckpt, err := tailer.NewCheckpoint(cfg.Checkpoint)
	if err != nil {
		return fmt.Errorf("failed to load checkpoint: %w", err)
	}
	t := tailer.New(w, ckpt, cfg.FromStart)

	p, err := newPipeline(cfg, t.Lines())
	if err != nil {
		return err
	}

	// --- Start pipeline ---
	go w.Start(ctx)
	go t.Start(ctx)
	go func() {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			p.metrics.FilesWatched.Set(float64(w.Len()))
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()

	p.run(ctx, cfg.Dashboard.Enabled, w.Len)
	return nil
}
