package main

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"vidsub/internal/deps"
	"vidsub/internal/services/llm"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check external tools and the llm endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			out := cmd.OutOrStdout()
			statuses := deps.CheckBinaries(deps.Requirements(cfg))

			rows := make([][]string, 0, len(statuses)+1)
			for _, s := range statuses {
				label := "ok"
				switch {
				case !s.Available && s.Optional:
					label = "optional"
				case !s.Available:
					label = "missing"
				}
				rows = append(rows, []string{s.Name, statusLabel(out, label, s.Available), s.Detail, s.Description})
			}

			var llmErr error
			if slices.Contains(cfg.Translation.Providers, "llm") {
				llmCfg := cfg.GetLLM()
				client := llm.NewClient(llm.Config{
					APIKey:         llmCfg.APIKey,
					BaseURL:        llmCfg.BaseURL,
					Model:          llmCfg.Model,
					Referer:        llmCfg.Referer,
					Title:          llmCfg.Title,
					TimeoutSeconds: llmCfg.TimeoutSeconds,
				}, llm.WithRetryMaxAttempts(1))
				llmErr = client.HealthCheck(cmd.Context())
				detail := client.Model()
				label := "ok"
				if llmErr != nil {
					label = "failed"
					detail = truncate(llmErr.Error(), 60)
				}
				rows = append(rows, []string{"LLM", statusLabel(out, label, llmErr == nil), detail, "Translation provider endpoint"})
			}

			fmt.Fprintln(out, renderTable(
				[]string{"Dependency", "Status", "Detail", "Purpose"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
			))

			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("%d required dependencies missing", len(missing))
			}
			if llmErr != nil {
				return fmt.Errorf("llm health check: %w", llmErr)
			}
			return nil
		},
	}
}
