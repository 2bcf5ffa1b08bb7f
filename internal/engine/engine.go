// Package engine talks to Gemini: it generates mission scenes and
// breaks Hungarian words down into root and suffixes.
package engine

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"

	"magyarkaland/internal/models"
)

//go:embed prompts/system_instruction.txt
var systemInstructionPrompt string

//go:embed prompts/next_scene.txt
var nextScenePrompt string

//go:embed prompts/breakdown_word.txt
var breakdownWordPrompt string

// DefaultTextModel is the Gemini model used for scenes and breakdowns.
const DefaultTextModel = "gemini-2.5-flash"

const defaultMission = "A standard adventure to order a coffee and cake at a café."

const analyzerInstruction = "You are a Hungarian linguistics expert. Your job is to break down a Hungarian word into its root and suffixes for an English-speaking learner."

type Engine struct {
	client    *genai.Client
	textModel string
	log       *logrus.Logger
}

func NewEngine(ctx context.Context, apiKey, textModel string, log *logrus.Logger) (*Engine, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if textModel == "" {
		textModel = DefaultTextModel
	}
	return &Engine{
		client:    client,
		textModel: textModel,
		log:       log,
	}, nil
}

func (e *Engine) Close() {
	e.client.Close()
}

var sceneSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"turn":        {Type: genai.TypeInteger, Description: "The current turn number, starting from 1."},
		"narration":   {Type: genai.TypeString, Description: "The scene's narration. In English unless difficulty is Advanced or higher."},
		"imagePrompt": {Type: genai.TypeString, Description: "A highly detailed, photorealistic, vibrant visual prompt for an image generator."},
		"dialogue": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"speaker":   {Type: genai.TypeString, Description: "The character speaking (e.g., 'Barista', 'Ticket Inspector')."},
				"hungarian": {Type: genai.TypeString, Description: "The dialogue in Hungarian."},
				"english":   {Type: genai.TypeString, Description: "The English translation of the dialogue. ONLY for Novice difficulty."},
			},
		},
		"options": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"hungarian": {Type: genai.TypeString, Description: "An option for the player to choose, in Hungarian."},
					"english":   {Type: genai.TypeString, Description: "The English translation of the option. ONLY for Novice difficulty."},
				},
			},
		},
		"question":     {Type: genai.TypeString, Description: "A question for the player to answer in free text. ONLY for Erős Pista difficulty."},
		"feedback":     {Type: genai.TypeString, Description: "On turn 2+, provide feedback on the player's previous answer. Praise correct choices, gently correct mistakes. Omit for turn 1."},
		"feedbackType": {Type: genai.TypeString, Enum: []string{"positive", "negative"}, Description: "On turn 2+, classify the feedback. 'positive' for good choices, 'negative' for wild card choices or mistakes. Omit for turn 1."},
	},
	Required: []string{"turn", "narration", "imagePrompt"},
}

var breakdownSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"root": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"text":    {Type: genai.TypeString},
				"meaning": {Type: genai.TypeString, Description: "English meaning of the root word."},
			},
			Required: []string{"text", "meaning"},
		},
		"suffixes": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"text":     {Type: genai.TypeString, Description: "The suffix itself, including the dash (e.g., '-ban')."},
					"meaning":  {Type: genai.TypeString, Description: "The grammatical name of the suffix (e.g., 'Inessive case')."},
					"function": {Type: genai.TypeString, Description: "A simple explanation of what the suffix does."},
				},
				Required: []string{"text", "meaning", "function"},
			},
		},
	},
}

func difficultyRules(difficulty models.Difficulty) string {
	switch difficulty {
	case models.Novice:
		return "- Difficulty: Novice. Narration is in English. Dialogue and options are in Hungarian WITH English translations."
	case models.Intermediate:
		return "- Difficulty: Intermediate. Narration is in English. Dialogue and options are in Hungarian. No translations."
	case models.Superior:
		return "- Difficulty: Superior. Narration is in English. Dialogue and options are in Hungarian. No translations."
	case models.Advanced:
		return "- Difficulty: Advanced. ALL text (narration, dialogue, options) is in Hungarian. No translations."
	case models.ErosPista:
		return "- Difficulty: Erős Pista. ALL text is in Hungarian. Instead of options, provide a 'question' for the user to answer in free text."
	}
	return ""
}

// NextScene requests the scene for turn len(history)+1. The returned
// scene has an empty ImageURL; callers own the image lifecycle.
func (e *Engine) NextScene(ctx context.Context, difficulty models.Difficulty, history []models.Scene, customPrompt, lastAction string) (*models.Scene, error) {
	tmpl, err := template.New("system_instruction").Parse(systemInstructionPrompt)
	if err != nil {
		return nil, err
	}

	mission := customPrompt
	if mission == "" {
		mission = defaultMission
	}

	var instruction bytes.Buffer
	err = tmpl.Execute(&instruction, struct {
		Mission         string
		DifficultyRules string
	}{Mission: mission, DifficultyRules: difficultyRules(difficulty)})
	if err != nil {
		return nil, err
	}

	turn := len(history) + 1
	narrations := make([]string, 0, len(history))
	for _, s := range history {
		narrations = append(narrations, s.Narration)
	}
	if lastAction == "" {
		lastAction = "Starting the adventure."
	}

	tmpl, err = template.New("next_scene").Parse(nextScenePrompt)
	if err != nil {
		return nil, err
	}

	var prompt bytes.Buffer
	err = tmpl.Execute(&prompt, struct {
		Turn    int
		History string
		Action  string
	}{Turn: turn, History: strings.Join(narrations, "\n"), Action: lastAction})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := e.generateJSON(ctx, instruction.String(), sceneSchema, prompt.String())
	if err != nil {
		e.log.WithError(err).WithField("turn", turn).Warn("scene request failed")
		return nil, fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	scene, err := parseScene(raw, difficulty, turn)
	if err != nil {
		e.log.WithError(err).WithField("turn", turn).Warn("scene response rejected")
		return nil, err
	}

	e.log.WithFields(logrus.Fields{
		"turn":     turn,
		"duration": time.Since(start),
		"options":  len(scene.Options),
	}).Debug("scene generated")
	return scene, nil
}

// parseScene decodes and validates a scene response.
func parseScene(raw []byte, difficulty models.Difficulty, turn int) (*models.Scene, error) {
	var scene models.Scene
	if err := json.Unmarshal(raw, &scene); err != nil {
		return nil, fmt.Errorf("%w: failed to parse scene JSON: %v\nOutput was: %s", ErrGeneration, err, raw)
	}

	if scene.Narration == "" || scene.ImagePrompt == "" {
		return nil, fmt.Errorf("%w: scene is missing narration or image prompt", ErrGeneration)
	}
	if difficulty.FreeText() {
		if scene.Question == "" {
			return nil, fmt.Errorf("%w: scene is missing the free-text question", ErrGeneration)
		}
	} else if len(scene.Options) == 0 {
		return nil, fmt.Errorf("%w: scene has no options", ErrGeneration)
	}

	// The model occasionally misnumbers; the history length is
	// authoritative.
	scene.Turn = turn
	scene.ImageURL = ""
	return &scene, nil
}

// BreakdownWord analyzes a single normalized Hungarian word.
func (e *Engine) BreakdownWord(ctx context.Context, word string) (models.WordBreakdown, error) {
	tmpl, err := template.New("breakdown_word").Parse(breakdownWordPrompt)
	if err != nil {
		return models.WordBreakdown{}, err
	}

	var prompt bytes.Buffer
	if err := tmpl.Execute(&prompt, struct{ Word string }{Word: word}); err != nil {
		return models.WordBreakdown{}, err
	}

	raw, err := e.generateJSON(ctx, analyzerInstruction, breakdownSchema, prompt.String())
	if err != nil {
		e.log.WithError(err).WithField("word", word).Warn("breakdown request failed")
		return models.WordBreakdown{}, fmt.Errorf("%w: %v", ErrAnalysis, err)
	}

	var breakdown models.WordBreakdown
	if err := json.Unmarshal(raw, &breakdown); err != nil {
		return models.WordBreakdown{}, fmt.Errorf("%w: failed to parse breakdown JSON: %v\nOutput was: %s", ErrAnalysis, err, raw)
	}
	if breakdown.Root.Text == "" {
		return models.WordBreakdown{}, fmt.Errorf("%w: breakdown has no root", ErrAnalysis)
	}

	return breakdown, nil
}

// generateJSON runs one structured-output request and returns the raw
// JSON bytes with any stray markdown fences stripped.
func (e *Engine) generateJSON(ctx context.Context, instruction string, schema *genai.Schema, prompt string) ([]byte, error) {
	model := e.client.GenerativeModel(e.textModel)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(instruction)}}
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = schema

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, err
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("no content returned from Gemini")
	}

	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("unexpected response type from Gemini")
	}

	clean := strings.TrimSpace(string(text))
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return []byte(strings.TrimSpace(clean)), nil
}
