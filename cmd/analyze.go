package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"magyarkaland/internal/game"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze word [word...]",
	Short: "Break Hungarian words into their root and suffixes",
	Long: `Analyze one or more Hungarian words without starting a game.
Each word is normalized, broken into its root and suffixes, and
printed with the meaning and grammatical function of each part.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := buildApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer app.Close()

		cache := app.ctrl.Cache()
		for _, word := range args {
			breakdown := cache.Analyze(cmd.Context(), word)
			fmt.Printf("%s\n", game.Normalize(word))
			fmt.Printf("  root: %s - %s\n", breakdown.Root.Text, breakdown.Root.Meaning)
			if len(breakdown.Suffixes) == 0 {
				fmt.Println("  no suffixes")
			}
			for _, suffix := range breakdown.Suffixes {
				fmt.Printf("  %s: %s (%s)\n", suffix.Text, suffix.Meaning, suffix.Function)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
