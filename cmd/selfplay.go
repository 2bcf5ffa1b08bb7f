package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"magyarkaland/internal/game"
	"magyarkaland/internal/models"
)

var (
	selfplayDifficulty string
	selfplayMission    string
	selfplayOut        string
)

var selfplayCmd = &cobra.Command{
	Use:   "selfplay",
	Short: "Let a second model play a full mission end to end",
	Long: `Selfplay runs a complete mission without a human: the game master
generates scenes as usual, and a second Gemini model plays the
student, choosing an option (or writing a Hungarian answer on the
hardest difficulties) each turn. The transcript is printed and the
suffix recap is written as a CSV.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		difficulty, err := parseDifficulty(selfplayDifficulty)
		if err != nil {
			return err
		}

		app, err := buildApp(ctx, false)
		if err != nil {
			return err
		}
		defer app.Close()

		playerClient, err := genai.NewClient(ctx, option.WithAPIKey(app.cfg.GeminiAPIKey))
		if err != nil {
			return fmt.Errorf("creating player client: %w", err)
		}
		defer playerClient.Close()
		player := playerClient.GenerativeModel(app.cfg.TextModel)

		fmt.Printf("--- Starting mission (difficulty: %s) ---\n", difficulty)
		snap, job, err := app.ctrl.StartGame(ctx, difficulty, selfplayMission)
		if err != nil {
			return err
		}
		if job != nil {
			snap = app.ctrl.ResolveImage(ctx, *job)
		}

		for snap.State == models.StatePlaying {
			printScene(snap.Scene)

			optionIndex, textInput := playerAction(ctx, player, snap.Scene, difficulty)
			if difficulty.FreeText() {
				fmt.Printf("Player answers: %s\n\n", textInput)
			} else {
				fmt.Printf("Player picks: %s\n\n", snap.Scene.Options[optionIndex].Hungarian)
			}

			snap, job, err = app.ctrl.SelectOption(ctx, optionIndex, textInput)
			if err != nil {
				return err
			}
			if snap.State == models.StateStart {
				return fmt.Errorf("mission aborted: %s", snap.Err)
			}
			if job != nil {
				snap = app.ctrl.ResolveImage(ctx, *job)
			}

			// Analyze every dialogue word so the recap has material.
			if snap.Scene != nil && snap.Scene.Dialogue != nil {
				for _, field := range strings.Fields(snap.Scene.Dialogue.Hungarian) {
					app.ctrl.Cache().Analyze(ctx, field)
				}
			}
		}

		printScene(snap.Scene)
		fmt.Println("--- Mission complete ---")

		words := app.ctrl.EncounteredWords()
		fmt.Printf("Encountered %d suffix-bearing words.\n", len(words))
		if err := game.ExportRecap(selfplayOut, words); err != nil {
			return fmt.Errorf("writing recap: %w", err)
		}
		fmt.Printf("Recap written to %s\n", selfplayOut)
		return nil
	},
}

func init() {
	selfplayCmd.Flags().StringVar(&selfplayDifficulty, "difficulty", string(models.Intermediate), "difficulty level")
	selfplayCmd.Flags().StringVar(&selfplayMission, "mission", "", "custom mission prompt (blank for the default)")
	selfplayCmd.Flags().StringVar(&selfplayOut, "out", game.RecapFilename, "recap CSV path")
	rootCmd.AddCommand(selfplayCmd)
}

func parseDifficulty(name string) (models.Difficulty, error) {
	for _, d := range models.Difficulties {
		if strings.EqualFold(string(d), name) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q", name)
}

func printScene(scene *models.Scene) {
	if scene == nil {
		return
	}
	fmt.Printf("--- Turn %d ---\n", scene.Turn)
	if scene.Feedback != "" {
		fmt.Printf("[%s] %s\n", scene.FeedbackType, scene.Feedback)
	}
	fmt.Println(scene.Narration)
	if scene.Dialogue != nil {
		fmt.Printf("%s: %s\n", scene.Dialogue.Speaker, scene.Dialogue.Hungarian)
	}
	for i, o := range scene.Options {
		fmt.Printf("  %d. %s (%s)\n", i+1, o.Hungarian, o.English)
	}
	if scene.Question != "" {
		fmt.Printf("Q: %s\n", scene.Question)
	}
}

// playerAction asks the player model what to do. On any failure it
// falls back to the first option or a stock answer.
func playerAction(ctx context.Context, player *genai.GenerativeModel, scene *models.Scene, difficulty models.Difficulty) (int, string) {
	if difficulty.FreeText() {
		prompt := fmt.Sprintf(`You are a student playing a Hungarian practice game.
The character said: %q
The question is: %q
Answer in one short Hungarian sentence. Return ONLY the sentence.`,
			dialogueLine(scene), scene.Question)
		if answer := generateLine(ctx, player, prompt); answer != "" {
			return -1, answer
		}
		return -1, "Nem tudom."
	}

	var options strings.Builder
	for i, o := range scene.Options {
		fmt.Fprintf(&options, "%d: %s\n", i, o.Hungarian)
	}
	prompt := fmt.Sprintf(`You are a student playing a Hungarian practice game.
The character said: %q
Your options are:
%s
Pick the most natural response. Return ONLY the option number.`,
		dialogueLine(scene), options.String())

	if line := generateLine(ctx, player, prompt); line != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(line)); err == nil && n >= 0 && n < len(scene.Options) {
			return n, ""
		}
	}
	return 0, ""
}

func dialogueLine(scene *models.Scene) string {
	if scene.Dialogue == nil {
		return ""
	}
	return scene.Dialogue.Hungarian
}

func generateLine(ctx context.Context, player *genai.GenerativeModel, prompt string) string {
	resp, err := player.GenerateContent(ctx, genai.Text(prompt))
	if err != nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0]))
}
