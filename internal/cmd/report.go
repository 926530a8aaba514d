package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/atikulmunna/esoloom/internal/tailer"
)

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Report every fight in a finished encounter log",
	Long: `Read a whole encounter log from the beginning and print a report for every
fight in it. A fight still open at the end of the file is reported as ending
at the last recorded event.

Examples:
  esoloom report Encounter.log
  esoloom report Encounter.log --output json > fights.jsonl`,
	Args: cobra.ExactArgs(1),
	RunE: runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	lines, errc, err := tailer.Replay(ctx, args[0])
	if err != nil {
		return err
	}

	p, err := newPipeline(cfg, lines)
	if err != nil {
		return err
	}
	p.run(ctx, false, func() int { return 1 })

	if err := <-errc; err != nil {
		return fmt.Errorf("replay failed: %w", err)
	}
	return nil
}
