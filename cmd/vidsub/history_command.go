package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vidsub/internal/batch"
	"vidsub/internal/history"
	"vidsub/internal/srt"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var (
		runID string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent batch runs or the files of one run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			store, err := history.Open(cfg.HistoryPath())
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if id := strings.TrimSpace(runID); id != "" {
				run, err := store.GetRun(cmd.Context(), id)
				if err != nil {
					return err
				}
				files, err := store.RunFiles(cmd.Context(), id)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Run %s (%s) started %s\n", run.ID, run.Root, formatWhen(run.StartedAt))
				rows := make([][]string, 0, len(files))
				for _, f := range files {
					ok := f.State == string(batch.StatusSucceeded) || f.State == string(batch.StatusSkipped)
					rows = append(rows, []string{
						filepath.Base(f.Path),
						statusLabel(out, f.State, ok),
						f.DetectedLanguage,
						strconv.Itoa(len(f.Artifacts)),
						cueCount(f.Artifacts),
						f.Duration.Round(time.Millisecond).String(),
						truncate(firstNonEmpty(f.ErrorClass, f.Reason), 50),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"File", "State", "Detected", "Artifacts", "Cues", "Duration", "Reason"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
				))
				return nil
			}

			runs, err := store.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded")
				return nil
			}
			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				finished := "running"
				if r.Finished() {
					finished = r.FinishedAt.Sub(r.StartedAt).Round(time.Second).String()
				}
				rows = append(rows, []string{
					r.ID,
					formatWhen(r.StartedAt),
					finished,
					r.Root,
					strconv.Itoa(r.Total),
					strconv.Itoa(r.Succeeded),
					strconv.Itoa(r.Partial),
					strconv.Itoa(r.Skipped),
					strconv.Itoa(r.Failed),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Run", "Started", "Elapsed", "Root", "Total", "OK", "Partial", "Skipped", "Failed"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&runID, "run", "", "Show the files of one run")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to list (0 for all)")
	return cmd
}

func formatWhen(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// cueCount parses the last recorded artifact, usually the translated one,
// and reports its cue count. Missing or unreadable files show "-".
func cueCount(artifacts []string) string {
	if len(artifacts) == 0 {
		return "-"
	}
	file, err := os.Open(artifacts[len(artifacts)-1])
	if err != nil {
		return "-"
	}
	defer file.Close()
	doc, err := srt.Parse(file)
	if err != nil {
		return "-"
	}
	return strconv.Itoa(len(doc.Cues))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
