package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"vidsub/internal/config"
	"vidsub/internal/language"
	"vidsub/internal/translation"
	"vidsub/internal/translation/providers"
)

func newTranslateCommand(ctx *commandContext) *cobra.Command {
	var (
		from  string
		to    string
		provs string
	)

	cmd := &cobra.Command{
		Use:   "translate <text>",
		Short: "Translate one line of text through the provider fallback chain",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.runtime()
			if err != nil {
				return err
			}
			var names []string
			if cmd.Flags().Changed("providers") {
				names = config.ParseProviders(provs)
			}
			provList, err := providers.FromConfig(cfg, names)
			if err != nil {
				return err
			}
			target := strings.TrimSpace(to)
			if target == "" {
				target = cfg.Subtitles.TargetLanguage
			}
			chain := translation.NewChain(target, provList, translation.WithLogger(logger))
			text := strings.Join(args, " ")
			result, attempts := chain.Attempts(cmd.Context(), text, language.Normalize(from))

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result)
			if len(attempts) > 0 {
				rows := make([][]string, 0, len(attempts))
				for _, a := range attempts {
					detail := "ok"
					if a.Err != nil {
						detail = truncate(a.Err.Error(), 60)
					}
					rows = append(rows, []string{a.Provider, a.Source, statusLabel(out, yesNo(a.Succeeded()), a.Succeeded()), detail})
				}
				fmt.Fprintln(cmd.ErrOrStderr(), renderTable(
					[]string{"Provider", "Source", "Succeeded", "Detail"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft},
				))
			}
			if translation.Exhausted(attempts) {
				return translation.ExhaustedError(attempts)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&from, "from", language.Auto, "Source language (auto-detect by default)")
	cmd.Flags().StringVar(&to, "to", "", "Target language (defaults to subtitles.target_language)")
	cmd.Flags().StringVar(&provs, "providers", "", "Comma-separated provider fallback order")
	return cmd
}
