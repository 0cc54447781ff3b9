package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/samajhai/internal/insight"
	"github.com/KaramelBytes/samajhai/internal/utils"
)

var flagAskDryRun bool

var askCmd = &cobra.Command{
	Use:   "ask <summary|insights> <file.csv|sheet-url>",
	Short: "Ask the model for a dataset summary or actionable insights",
	Long: `Send one completion request built from the dataset and print the answer.

  summary   explains what the data represents from its first rows
  insights  asks for five actionable insights from the numeric statistics`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := insight.ParseKind(args[0])
		if err != nil {
			return err
		}
		t, err := loadArg(cmd, args[1])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()

		if flagAskDryRun {
			rows := insight.DefaultSummaryRows
			if cfg != nil && cfg.SummaryRows > 0 {
				rows = cfg.SummaryRows
			}
			excerpt := insight.Excerpt(t, kind, rows)
			prompt := insight.Prompt(kind, excerpt)
			est := insight.PromptTokens(kind, excerpt)
			fmt.Fprintln(out, prompt)
			fmt.Fprintf(out, "\n[dry-run] ~%d prompt tokens (template ~%d, excerpt ~%d); no request sent\n",
				utils.CountTokens(prompt), est["template"], est["excerpt"])
			return nil
		}
		if err := requireConfig(); err != nil {
			return err
		}

		text, err := newRequester().Request(contextOf(cmd), kind, t)
		if err != nil {
			var ie *insight.InsightError
			if errors.As(err, &ie) {
				if hint := ie.Hint(); hint != "" {
					return fmt.Errorf("%w\n  hint: %s", err, hint)
				}
			}
			return err
		}
		success(out, "%s", kind.Title())
		fmt.Fprintln(out, strings.TrimSpace(text))
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&flagAskDryRun, "dry-run", false, "print the prompt without sending it")
	rootCmd.AddCommand(askCmd)
}
