package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"vidsub/internal/batch"
	"vidsub/internal/config"
	"vidsub/internal/notifications"
)

func newGenerateCommand(ctx *commandContext) *cobra.Command {
	var (
		target    string
		outputDir string
		overwrite bool
		provs     string
		workers   int
	)

	cmd := &cobra.Command{
		Use:     "generate <dir>",
		Aliases: []string{"subtitle"},
		Short:   "Generate original-language and translated subtitles for every video under a directory",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("provide the media directory. Example: vidsub generate /path/to/videos\nRun vidsub generate --help for more details")
			}
			return nil
		},
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

			runCfg := *cfg
			if cmd.Flags().Changed("target") {
				runCfg.Subtitles.TargetLanguage = strings.TrimSpace(target)
			}
			if cmd.Flags().Changed("overwrite") {
				runCfg.Subtitles.Overwrite = overwrite
			}
			if cmd.Flags().Changed("providers") {
				runCfg.Translation.Providers = config.ParseProviders(provs)
			}
			if cmd.Flags().Changed("workers") {
				runCfg.Translation.Workers = workers
			}
			if err := runCfg.Validate(); err != nil {
				return err
			}

			outDir := strings.TrimSpace(outputDir)
			if outDir != "" {
				if outDir, err = filepath.Abs(outDir); err != nil {
					return fmt.Errorf("resolve output directory: %w", err)
				}
			}
			proc, err := ctx.buildPipeline(&runCfg, logger, generateOptions{root: root, outputDir: outDir})
			if err != nil {
				return err
			}
			driver, closeHistory := buildDriver(&runCfg, logger, proc)
			defer closeHistory()

			runCtx, stop := signalContext(cmd.Context())
			defer stop()
			summary, runErr := driver.Run(runCtx, root)
			writeSummary(cmd.OutOrStdout(), summary)
			notifyRun(runCtx, notifications.NewService(&runCfg), logger, summary, runErr, "generate")
			return runErr
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "Target subtitle language (overrides subtitles.target_language)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Write subtitles under this directory, mirroring the source layout")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Regenerate subtitles even when the target file exists")
	cmd.Flags().StringVar(&provs, "providers", "", "Comma-separated provider fallback order (google, linguee, pons, llm)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Segments translated concurrently")
	return cmd
}

func writeSummary(out io.Writer, summary batch.Summary) {
	if summary.RunID == "" {
		return
	}
	if len(summary.Results) > 0 {
		rows := make([][]string, 0, len(summary.Results))
		for _, r := range summary.Results {
			ok := r.Status == batch.StatusSucceeded || r.Status == batch.StatusSkipped
			rows = append(rows, []string{
				filepath.Base(r.Path),
				statusLabel(out, string(r.Status), ok),
				r.Outcome.DetectedLanguage,
				strconv.Itoa(len(r.Outcome.WrittenPaths())),
				truncate(r.Reason, 60),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"File", "Status", "Detected", "Artifacts", "Reason"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		))
	}
	fmt.Fprintf(out, "Run %s: %d files, %d succeeded, %d partial, %d skipped, %d failed\n",
		summary.RunID, summary.Total, summary.Succeeded, summary.Partial, summary.Skipped, summary.Failed)
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	return string(runes[:limit-1]) + "…"
}
