package game

import (
	"context"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"magyarkaland/internal/models"
)

// fakeGenerator returns scenes from a caller-supplied func and records
// every request.
type fakeGenerator struct {
	mu      sync.Mutex
	calls   int
	actions []string
	fn      func(history []models.Scene, lastAction string) (*models.Scene, error)
}

func (g *fakeGenerator) NextScene(ctx context.Context, difficulty models.Difficulty, history []models.Scene, customPrompt, lastAction string) (*models.Scene, error) {
	g.mu.Lock()
	g.calls++
	g.actions = append(g.actions, lastAction)
	g.mu.Unlock()
	return g.fn(history, lastAction)
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func (g *fakeGenerator) lastAction() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.actions) == 0 {
		return ""
	}
	return g.actions[len(g.actions)-1]
}

// fakeRenderer resolves every prompt to a fixed reference.
type fakeRenderer struct {
	mu    sync.Mutex
	calls int
	ref   string
}

func (r *fakeRenderer) Render(ctx context.Context, prompt string) string {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.ref != "" {
		return r.ref
	}
	return "data:image/jpeg;base64,fake"
}

// fakeAnalyzer serves canned breakdowns and counts calls per word. An
// optional gate blocks calls until released, for concurrency tests.
type fakeAnalyzer struct {
	mu        sync.Mutex
	calls     map[string]int
	results   map[string]models.WordBreakdown
	err       error
	gate      chan struct{}
}

func newFakeAnalyzer() *fakeAnalyzer {
	return &fakeAnalyzer{
		calls:   make(map[string]int),
		results: make(map[string]models.WordBreakdown),
	}
}

func (a *fakeAnalyzer) BreakdownWord(ctx context.Context, word string) (models.WordBreakdown, error) {
	a.mu.Lock()
	a.calls[word]++
	gate := a.gate
	a.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if a.err != nil {
		return models.WordBreakdown{}, a.err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if b, ok := a.results[word]; ok {
		return b, nil
	}
	return models.WordBreakdown{Root: models.Root{Text: word, Meaning: "meaning of " + word}}, nil
}

func (a *fakeAnalyzer) callCount(word string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[word]
}

func (a *fakeAnalyzer) totalCalls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	total := 0
	for _, n := range a.calls {
		total += n
	}
	return total
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// sequentialScenes builds a generator whose scene turn always follows
// the history length, with four fixed options.
func sequentialScenes() *fakeGenerator {
	return &fakeGenerator{fn: func(history []models.Scene, lastAction string) (*models.Scene, error) {
		return &models.Scene{
			Turn:        len(history) + 1,
			Narration:   "You are at the café.",
			ImagePrompt: "a café in Budapest",
			Dialogue:    &models.Dialogue{Speaker: "Barista", Hungarian: "Mit adhatok?"},
			Options: []models.Option{
				{Hungarian: "Egy kávét kérek."},
				{Hungarian: "Egy teát kérek."},
				{Hungarian: "Hol van a mosdó?"},
				{Hungarian: "Elkezdek táncolni."},
			},
		}, nil
	}}
}

func newTestController(gen SceneGenerator) (*Controller, *fakeAnalyzer) {
	analyzer := newFakeAnalyzer()
	cache := NewCache(analyzer)
	return NewController(gen, &fakeRenderer{}, cache, testLogger()), analyzer
}
