package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vidsub/internal/media/ffprobe"
	"vidsub/internal/thumbnails"
)

func newThumbnailsCommand(ctx *commandContext) *cobra.Command {
	var (
		count int
		clean bool
	)

	cmd := &cobra.Command{
		Use:   "thumbnails <dir>",
		Short: "Capture evenly spaced screenshots from every video under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.runtime()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("count") {
				count = cfg.Thumbnails.Count
			}
			if count <= 0 {
				return fmt.Errorf("--count must be positive")
			}
			binary := cfg.FFprobeBinary()
			capturer := thumbnails.NewCapturer(cfg.FFmpegBinary(),
				func(c context.Context, path string) (ffprobe.Result, error) { return ffprobe.Inspect(c, binary, path) },
				thumbnails.WithCount(count),
				thumbnails.WithMargin(cfg.Thumbnails.MarginRatio),
				thumbnails.WithExtensions(cfg.Subtitles.Extensions),
				thumbnails.WithLogger(logger),
			)
			runCtx, stop := signalContext(cmd.Context())
			defer stop()
			summary, err := capturer.Run(runCtx, strings.TrimSpace(args[0]), clean)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Videos", "Screenshots", "Cleaned", "Errors"},
				[][]string{{
					fmt.Sprint(summary.Videos),
					fmt.Sprint(summary.Screenshots),
					fmt.Sprint(summary.Cleaned),
					fmt.Sprint(summary.Errors),
				}},
				[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Screenshots per video (defaults to thumbnails.count)")
	cmd.Flags().BoolVar(&clean, "clean", false, "Remove existing images in the directory first")
	return cmd
}
