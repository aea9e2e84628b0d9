package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/newsroom-comments-api/internal/spam"
	"github.com/spf13/cobra"
)

var scoreAuthor string

var scoreCmd = &cobra.Command{
	Use:   "score [flags] TEXT...",
	Short: "Score a comment with the spam engine",
	Long: `Runs the spam scoring engine locally on the given text and prints the
verdict, the score and the reasons that contributed to it.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content := strings.Join(args, " ")
		result := spam.Detect(content, scoreAuthor)
		out := cmd.OutOrStdout()

		if jsonOutput {
			data, err := json.MarshalIndent(result, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Fprintln(out, string(data))
			return nil
		}

		verdict := "clean"
		if result.IsSpam {
			verdict = "spam"
		}
		fmt.Fprintf(out, "Verdict: %s\n", verdict)
		fmt.Fprintf(out, "Score:   %d (threshold %d)\n", result.Score, spam.Threshold)
		if len(result.Reasons) > 0 {
			fmt.Fprintln(out, "Reasons:")
			for _, r := range result.Reasons {
				fmt.Fprintf(out, "  - %s\n", r)
			}
		}
		return nil
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreAuthor, "author", "", "author display name")
	scoreCmd.MarkFlagRequired("author")
}
