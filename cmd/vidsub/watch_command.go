package main

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vidsub/internal/batch"
	"vidsub/internal/logging"
	"vidsub/internal/notifications"
	"vidsub/internal/watch"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var outputDir string

	cmd := &cobra.Command{
		Use:   "watch <dir>",
		Short: "Generate subtitles for new videos as they appear under a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.runtime()
			if err != nil {
				return err
			}
			root, err := filepath.Abs(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve directory: %w", err)
			}
			if err := batch.ValidateRoot(root); err != nil {
				return err
			}
			outDir := strings.TrimSpace(outputDir)
			if outDir != "" {
				if outDir, err = filepath.Abs(outDir); err != nil {
					return fmt.Errorf("resolve output directory: %w", err)
				}
			}

			proc, err := ctx.buildPipeline(cfg, logger, generateOptions{root: root, outputDir: outDir})
			if err != nil {
				return err
			}
			driver, closeHistory := buildDriver(cfg, logger, proc)
			defer closeHistory()

			notifier := notifications.NewService(cfg)
			handle := func(runCtx context.Context, path string) {
				summary, err := driver.RunFiles(runCtx, root, []string{path})
				notifyRun(runCtx, notifier, logger, summary, err, "watch")
				if err != nil {
					logging.WarnWithContext(logger, "watch run failed", "watch_run_failed",
						logging.String("path", path),
						logging.Error(err),
						logging.String(logging.FieldImpact, "file will be retried when it changes again"),
					)
					return
				}
				writeSummary(cmd.OutOrStdout(), summary)
			}
			watcher := watch.New(handle,
				watch.WithExtensions(cfg.Subtitles.Extensions),
				watch.WithSettle(time.Duration(cfg.Watch.SettleSeconds)*time.Second),
				watch.WithLogger(logger),
			)

			runCtx, stop := signalContext(cmd.Context())
			defer stop()
			return watcher.Run(runCtx, root)
		},
	}
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Write subtitles under this directory, mirroring the source layout")
	return cmd
}
