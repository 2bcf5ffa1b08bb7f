package models

// Difficulty controls how much Hungarian the player is exposed to and
// whether they answer with multiple choice or free text.
type Difficulty string

const (
	Novice       Difficulty = "Novice"
	Intermediate Difficulty = "Intermediate"
	Superior     Difficulty = "Superior"
	Advanced     Difficulty = "Advanced"
	ErosPista    Difficulty = "Erős Pista"
)

// Difficulties lists all levels in presentation order.
var Difficulties = []Difficulty{Novice, Intermediate, Superior, Advanced, ErosPista}

// DifficultyDescriptions holds the blurb shown on the start screen.
var DifficultyDescriptions = map[Difficulty]string{
	Novice:       "English narration. Hungarian dialogue & options with inline English translations.",
	Intermediate: "English narration. Hungarian dialogue & options. A glossary sidebar helps with key words.",
	Superior:     "English narration. Pure Hungarian dialogue and options, no translations provided.",
	Advanced:     "Full immersion. Narration, dialogue, and options are all in Hungarian.",
	ErosPista:    "The ultimate challenge. Full Hungarian immersion with free-text input instead of multiple choice.",
}

// FreeText reports whether this difficulty takes free-text answers
// instead of multiple choice.
func (d Difficulty) FreeText() bool {
	return d == ErosPista
}

// GameState describes what the UI may currently request.
type GameState string

const (
	StateStart    GameState = "Start"
	StateLoading  GameState = "Loading"
	StatePlaying  GameState = "Playing"
	StateFinished GameState = "Finished"
)

// Dialogue is one character's line in a scene.
type Dialogue struct {
	Speaker   string `json:"speaker"`
	Hungarian string `json:"hungarian"`
	English   string `json:"english,omitempty"` // Novice only
}

// Option is one multiple-choice answer.
type Option struct {
	Hungarian string `json:"hungarian"`
	English   string `json:"english,omitempty"` // Novice only
}

// FeedbackType classifies the feedback on the player's previous answer.
type FeedbackType string

const (
	FeedbackPositive FeedbackType = "positive"
	FeedbackNegative FeedbackType = "negative"
)

// Scene is one turn of the mission. A scene is published as soon as its
// text arrives, with a placeholder ImageURL; the real image is patched in
// later by turn position.
type Scene struct {
	Turn         int          `json:"turn"`
	Narration    string       `json:"narration"`
	ImagePrompt  string       `json:"imagePrompt"`
	Dialogue     *Dialogue    `json:"dialogue,omitempty"`
	Options      []Option     `json:"options,omitempty"`
	Question     string       `json:"question,omitempty"` // Erős Pista only
	ImageURL     string       `json:"imageUrl,omitempty"`
	Feedback     string       `json:"feedback,omitempty"`
	FeedbackType FeedbackType `json:"feedbackType,omitempty"`
}

// Mission is one play-through: a title, a fixed difficulty and the scenes
// resolved so far.
type Mission struct {
	Title      string
	Difficulty Difficulty
	Scenes     []Scene
}

// CurrentTurn returns the turn number of the latest scene, or 0 for a
// mission with no scenes yet.
func (m *Mission) CurrentTurn() int {
	if m == nil || len(m.Scenes) == 0 {
		return 0
	}
	return m.Scenes[len(m.Scenes)-1].Turn
}

// WordBreakdown is the linguistic analysis of a single Hungarian word.
type WordBreakdown struct {
	Root     Root     `json:"root"`
	Suffixes []Suffix `json:"suffixes"`
}

// Root is the stem of an analyzed word.
type Root struct {
	Text    string `json:"text"`
	Meaning string `json:"meaning"`
}

// Suffix is one suffix of an analyzed word, in surface order.
type Suffix struct {
	Text     string `json:"text"`     // includes the dash, e.g. "-ban"
	Meaning  string `json:"meaning"`  // grammatical name, e.g. "Inessive case"
	Function string `json:"function"` // plain explanation
}

// EncounteredWord is a glossary entry derived from the mission and the
// breakdown cache: a word, its analysis and how often it was seen.
type EncounteredWord struct {
	Word      string
	Breakdown WordBreakdown
	Count     int
}
