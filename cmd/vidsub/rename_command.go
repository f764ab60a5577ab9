package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vidsub/internal/resolution"
)

func newRenameCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "rename <dir>",
		Short: "Prefix video file names with their resolution (e.g. 1080px_movie.mp4)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.runtime()
			if err != nil {
				return err
			}
			renamer := resolution.NewRenamer(resolution.FFprobe(cfg.FFprobeBinary()),
				resolution.WithDryRun(dryRun),
				resolution.WithExtensions(cfg.Subtitles.Extensions),
				resolution.WithLogger(logger),
			)
			runCtx, stop := signalContext(cmd.Context())
			defer stop()
			summary, err := renamer.Run(runCtx, strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, renderTable(
				[]string{"Total", "Renamed", "Skipped", "Errors", "Dry run"},
				[][]string{{
					fmt.Sprint(summary.Total),
					fmt.Sprint(summary.Renamed),
					fmt.Sprint(summary.Skipped),
					fmt.Sprint(summary.Errors),
					yesNo(dryRun),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show planned renames without changing files")
	return cmd
}
