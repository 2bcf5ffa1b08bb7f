// Package game holds the session core: the turn controller state
// machine, the word-breakdown cache and the glossary derivation.
package game

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"magyarkaland/internal/imagen"
	"magyarkaland/internal/models"
)

// SceneGenerator produces the scene for turn len(history)+1.
type SceneGenerator interface {
	NextScene(ctx context.Context, difficulty models.Difficulty, history []models.Scene, customPrompt, lastAction string) (*models.Scene, error)
}

// ImageRenderer resolves an image prompt to a usable reference. It must
// not fail; implementations substitute a placeholder instead.
type ImageRenderer interface {
	Render(ctx context.Context, prompt string) string
}

// DefaultMissionTitle is used when the player gives no custom mission.
const DefaultMissionTitle = "A Day in Budapest"

// finalTurn is the hard cutoff: answering on this turn finishes the
// mission without another generation request.
const finalTurn = 5

// genFailureMessage is shown to the player when a scene request fails.
const genFailureMessage = "Failed to generate the next part of the story. Please try again."

// ErrNoMission is returned when SelectOption is called with no active
// mission or current scene.
var ErrNoMission = errors.New("no active mission")

// Snapshot is an immutable view of the session handed to consumers.
type Snapshot struct {
	State   models.GameState
	Mission *models.Mission
	Scene   *models.Scene
	Err     string
}

// ImageJob describes the pending image fetch for a freshly published
// scene. Gen ties the result to the fetch cycle that produced it; a
// stale result is discarded instead of applied.
type ImageJob struct {
	Gen    uint64
	Turn   int
	Prompt string
}

// Controller owns the session state and sequences scene generation.
// All mutation happens through its methods; consumers only ever see
// snapshots.
type Controller struct {
	scenes SceneGenerator
	images ImageRenderer
	cache  *Cache
	log    *logrus.Logger

	mu       sync.Mutex
	rng      *rand.Rand
	state    models.GameState
	mission  *models.Mission
	current  *models.Scene
	errMsg   string
	fetchGen uint64
}

func NewController(scenes SceneGenerator, images ImageRenderer, cache *Cache, log *logrus.Logger) *Controller {
	return &Controller{
		scenes: scenes,
		images: images,
		cache:  cache,
		log:    log,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		state:  models.StateStart,
	}
}

// Cache exposes the session's word-breakdown cache.
func (c *Controller) Cache() *Cache {
	return c.cache
}

// Snapshot returns the current session view.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:   c.state,
		Mission: cloneMission(c.mission),
		Scene:   cloneScene(c.current),
		Err:     c.errMsg,
	}
}

// StartGame begins a new mission at the given difficulty and fetches
// its first scene. On failure the session reverts to the start state
// with a recorded message and no mission.
func (c *Controller) StartGame(ctx context.Context, difficulty models.Difficulty, customPrompt string) (Snapshot, *ImageJob, error) {
	title := customPrompt
	if title == "" {
		title = DefaultMissionTitle
	}

	c.mu.Lock()
	c.mission = &models.Mission{Title: title, Difficulty: difficulty}
	c.current = nil
	c.errMsg = ""
	c.state = models.StateLoading
	c.fetchGen++
	gen := c.fetchGen
	c.mu.Unlock()

	c.log.WithFields(logrus.Fields{"difficulty": difficulty, "mission": title}).Info("starting game")
	return c.fetchScene(ctx, gen, difficulty, nil, customPrompt, "", true)
}

// SelectOption resolves the player's answer for the current scene and
// advances the mission. On the final turn it finishes the mission
// without a generation request.
func (c *Controller) SelectOption(ctx context.Context, optionIndex int, textInput string) (Snapshot, *ImageJob, error) {
	c.mu.Lock()
	if c.mission == nil || c.current == nil {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap, nil, ErrNoMission
	}

	var action string
	if c.mission.Difficulty.FreeText() {
		action = textInput
		if action == "" {
			action = "No response."
		}
	} else if optionIndex >= 0 && optionIndex < len(c.current.Options) {
		action = c.current.Options[optionIndex].Hungarian
	} else {
		action = "No option selected"
	}

	if turn := c.current.Turn; turn >= finalTurn {
		c.state = models.StateFinished
		snap := c.snapshotLocked()
		c.mu.Unlock()
		c.log.WithField("turn", turn).Info("mission finished")
		return snap, nil, nil
	}

	difficulty := c.mission.Difficulty
	title := c.mission.Title
	history := append([]models.Scene(nil), c.mission.Scenes...)
	c.errMsg = ""
	c.state = models.StateLoading
	c.fetchGen++
	gen := c.fetchGen
	c.mu.Unlock()

	return c.fetchScene(ctx, gen, difficulty, history, title, action, false)
}

// fetchScene is the two-phase fetch shared by StartGame and
// SelectOption: scene text now, image later via the returned ImageJob.
// A failure is atomic per turn: a fresh mission is discarded entirely,
// while a mid-mission failure keeps the completed scenes.
func (c *Controller) fetchScene(ctx context.Context, gen uint64, difficulty models.Difficulty, history []models.Scene, customPrompt, action string, fresh bool) (Snapshot, *ImageJob, error) {
	scene, err := c.scenes.NextScene(ctx, difficulty, history, customPrompt, action)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.fetchGen {
		// A reset or newer action superseded this fetch.
		c.log.Debug("discarding stale scene result")
		return c.snapshotLocked(), nil, nil
	}

	if err != nil {
		c.state = models.StateStart
		c.errMsg = genFailureMessage
		if fresh {
			c.mission = nil
			c.current = nil
		}
		return c.snapshotLocked(), nil, err
	}

	// Shuffle so the wild card option's slot carries no signal.
	c.rng.Shuffle(len(scene.Options), func(i, j int) {
		scene.Options[i], scene.Options[j] = scene.Options[j], scene.Options[i]
	})

	scene.ImageURL = imagen.PendingURL(scene.ImagePrompt)
	c.current = cloneScene(scene)
	c.mission.Scenes = append(history, *cloneScene(scene))
	c.state = models.StatePlaying

	job := &ImageJob{Gen: gen, Turn: scene.Turn, Prompt: scene.ImagePrompt}
	return c.snapshotLocked(), job, nil
}

// ResolveImage renders the scene image for a published scene and
// patches it in by turn position. Results from a superseded fetch
// cycle are dropped.
func (c *Controller) ResolveImage(ctx context.Context, job ImageJob) Snapshot {
	ref := c.images.Render(ctx, job.Prompt)

	c.mu.Lock()
	defer c.mu.Unlock()

	if job.Gen != c.fetchGen {
		c.log.Debug("discarding stale image result")
		return c.snapshotLocked()
	}

	if c.current != nil && c.current.Turn == job.Turn {
		c.current.ImageURL = ref
	}
	if c.mission != nil {
		for i := range c.mission.Scenes {
			if c.mission.Scenes[i].Turn == job.Turn {
				c.mission.Scenes[i].ImageURL = ref
			}
		}
	}
	return c.snapshotLocked()
}

// Reset unconditionally returns the session to the start state and
// clears the mission, current scene, error and word cache.
func (c *Controller) Reset() Snapshot {
	c.mu.Lock()
	c.state = models.StateStart
	c.mission = nil
	c.current = nil
	c.errMsg = ""
	c.fetchGen++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.cache.Reset()
	c.log.Info("session reset")
	return snap
}

// EncounteredWords derives the glossary for the current mission.
func (c *Controller) EncounteredWords() []models.EncounteredWord {
	c.mu.Lock()
	mission := cloneMission(c.mission)
	c.mu.Unlock()
	return EncounteredWords(mission, c.cache)
}

func cloneScene(s *models.Scene) *models.Scene {
	if s == nil {
		return nil
	}
	clone := *s
	if s.Dialogue != nil {
		dialogue := *s.Dialogue
		clone.Dialogue = &dialogue
	}
	clone.Options = append([]models.Option(nil), s.Options...)
	return &clone
}

func cloneMission(m *models.Mission) *models.Mission {
	if m == nil {
		return nil
	}
	clone := *m
	clone.Scenes = make([]models.Scene, len(m.Scenes))
	for i := range m.Scenes {
		clone.Scenes[i] = *cloneScene(&m.Scenes[i])
	}
	return &clone
}
