package game

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"magyarkaland/internal/imagen"
	"magyarkaland/internal/models"
)

func TestStartGamePublishesSceneBeforeImage(t *testing.T) {
	gen := sequentialScenes()
	ctrl, _ := newTestController(gen)

	snap, job, err := ctrl.StartGame(context.Background(), models.Novice, "")
	if err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	if snap.State != models.StatePlaying {
		t.Errorf("Expected Playing, got %s", snap.State)
	}
	if snap.Mission == nil || snap.Mission.Title != DefaultMissionTitle {
		t.Errorf("Expected default mission title, got %+v", snap.Mission)
	}
	if len(snap.Mission.Scenes) != 1 {
		t.Fatalf("Expected 1 scene, got %d", len(snap.Mission.Scenes))
	}
	if want := imagen.PendingURL("a café in Budapest"); snap.Scene.ImageURL != want {
		t.Errorf("Expected placeholder image %q, got %q", want, snap.Scene.ImageURL)
	}
	if job == nil || job.Turn != 1 || job.Prompt != "a café in Budapest" {
		t.Errorf("Unexpected image job: %+v", job)
	}
}

func TestStartGameFailureRevertsToStart(t *testing.T) {
	gen := &fakeGenerator{fn: func([]models.Scene, string) (*models.Scene, error) {
		return nil, errors.New("quota exceeded")
	}}
	ctrl, _ := newTestController(gen)

	snap, job, err := ctrl.StartGame(context.Background(), models.Novice, "order a lángos")
	if err == nil {
		t.Fatal("Expected an error")
	}
	if job != nil {
		t.Error("Expected no image job on failure")
	}
	if snap.State != models.StateStart {
		t.Errorf("Expected Start, got %s", snap.State)
	}
	if snap.Mission != nil {
		t.Errorf("Expected discarded mission, got %+v", snap.Mission)
	}
	if snap.Err == "" {
		t.Error("Expected a user-facing error message")
	}
}

func TestSelectOptionWithoutMission(t *testing.T) {
	ctrl, _ := newTestController(sequentialScenes())

	_, _, err := ctrl.SelectOption(context.Background(), 0, "")
	if !errors.Is(err, ErrNoMission) {
		t.Errorf("Expected ErrNoMission, got %v", err)
	}
	if snap := ctrl.Snapshot(); snap.State != models.StateStart {
		t.Errorf("Expected state unchanged, got %s", snap.State)
	}
}

func TestTurnCutoffFinishesWithoutFetch(t *testing.T) {
	gen := sequentialScenes()
	ctrl, _ := newTestController(gen)
	ctx := context.Background()

	if _, _, err := ctrl.StartGame(ctx, models.Intermediate, ""); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	for range 4 {
		if _, _, err := ctrl.SelectOption(ctx, 0, ""); err != nil {
			t.Fatalf("SelectOption failed: %v", err)
		}
	}
	if snap := ctrl.Snapshot(); snap.Scene.Turn != finalTurn {
		t.Fatalf("Expected to be on turn %d, got %d", finalTurn, snap.Scene.Turn)
	}

	before := gen.callCount()
	snap, job, err := ctrl.SelectOption(ctx, 2, "")
	if err != nil {
		t.Fatalf("SelectOption failed: %v", err)
	}
	if snap.State != models.StateFinished {
		t.Errorf("Expected Finished, got %s", snap.State)
	}
	if job != nil {
		t.Error("Expected no image job at the cutoff")
	}
	if gen.callCount() != before {
		t.Errorf("Expected no generation request at the cutoff, got %d extra", gen.callCount()-before)
	}
}

func TestSelectOptionResolvesActionText(t *testing.T) {
	gen := sequentialScenes()
	ctrl, _ := newTestController(gen)
	ctrl.rng = rand.New(rand.NewSource(0)) // freeze option order
	ctx := context.Background()

	if _, _, err := ctrl.StartGame(ctx, models.Novice, ""); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	chosen := ctrl.Snapshot().Scene.Options[1].Hungarian

	if _, _, err := ctrl.SelectOption(ctx, 1, ""); err != nil {
		t.Fatalf("SelectOption failed: %v", err)
	}
	if got := gen.lastAction(); got != chosen {
		t.Errorf("Expected action %q, got %q", chosen, got)
	}

	// Out-of-range index falls back to a literal.
	if _, _, err := ctrl.SelectOption(ctx, 99, ""); err != nil {
		t.Fatalf("SelectOption failed: %v", err)
	}
	if got := gen.lastAction(); got != "No option selected" {
		t.Errorf("Expected fallback action, got %q", got)
	}
}

func TestFreeTextAction(t *testing.T) {
	gen := &fakeGenerator{fn: func(history []models.Scene, lastAction string) (*models.Scene, error) {
		return &models.Scene{
			Turn:        len(history) + 1,
			Narration:   "A pincér rád néz.",
			ImagePrompt: "a waiter",
			Question:    "Mit kérsz?",
		}, nil
	}}
	ctrl, _ := newTestController(gen)
	ctx := context.Background()

	if _, _, err := ctrl.StartGame(ctx, models.ErosPista, ""); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	if _, _, err := ctrl.SelectOption(ctx, -1, "Egy gulyást kérek."); err != nil {
		t.Fatalf("SelectOption failed: %v", err)
	}
	if got := gen.lastAction(); got != "Egy gulyást kérek." {
		t.Errorf("Expected free-text action, got %q", got)
	}

	if _, _, err := ctrl.SelectOption(ctx, -1, ""); err != nil {
		t.Fatalf("SelectOption failed: %v", err)
	}
	if got := gen.lastAction(); got != "No response." {
		t.Errorf("Expected empty-input fallback, got %q", got)
	}
}

func TestShuffleIsSetPreservingPermutation(t *testing.T) {
	gen := sequentialScenes()
	ctrl, _ := newTestController(gen)
	ctrl.rng = rand.New(rand.NewSource(42))
	ctx := context.Background()

	original := []string{
		"Egy kávét kérek.",
		"Egy teát kérek.",
		"Hol van a mosdó?",
		"Elkezdek táncolni.",
	}

	movedFirst := false
	for range 50 {
		snap, _, err := ctrl.StartGame(ctx, models.Novice, "")
		if err != nil {
			t.Fatalf("StartGame failed: %v", err)
		}

		got := make(map[string]int)
		for _, o := range snap.Scene.Options {
			got[o.Hungarian]++
		}
		for _, text := range original {
			if got[text] != 1 {
				t.Fatalf("Shuffle lost or duplicated option %q: %v", text, got)
			}
		}
		if snap.Scene.Options[0].Hungarian != original[0] {
			movedFirst = true
		}
	}
	if !movedFirst {
		t.Error("Option order never changed across 50 shuffles")
	}
}

func TestResolveImagePatchesSceneInPlace(t *testing.T) {
	ctrl, _ := newTestController(sequentialScenes())
	ctx := context.Background()

	snap, job, err := ctrl.StartGame(ctx, models.Novice, "")
	if err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	narration := snap.Scene.Narration

	resolved := ctrl.ResolveImage(ctx, *job)
	if !strings.HasPrefix(resolved.Scene.ImageURL, "data:image/jpeg;base64,") {
		t.Errorf("Expected resolved image, got %q", resolved.Scene.ImageURL)
	}
	if resolved.Scene.Narration != narration {
		t.Error("Image resolution must leave other scene fields untouched")
	}
	if resolved.Mission.Scenes[0].ImageURL != resolved.Scene.ImageURL {
		t.Error("Mission history scene not patched")
	}
}

func TestStaleImageResultDiscarded(t *testing.T) {
	ctrl, _ := newTestController(sequentialScenes())
	ctx := context.Background()

	_, staleJob, err := ctrl.StartGame(ctx, models.Novice, "")
	if err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	// A second game supersedes the first fetch cycle.
	fresh, _, err := ctrl.StartGame(ctx, models.Advanced, "buy a metro ticket")
	if err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	snap := ctrl.ResolveImage(ctx, *staleJob)
	if snap.Scene.ImageURL != fresh.Scene.ImageURL {
		t.Errorf("Stale image applied: %q", snap.Scene.ImageURL)
	}
	if snap.Mission.Title != "buy a metro ticket" {
		t.Errorf("Unexpected mission: %q", snap.Mission.Title)
	}
}

func TestMidMissionFailureKeepsHistory(t *testing.T) {
	fail := false
	gen := &fakeGenerator{}
	gen.fn = func(history []models.Scene, lastAction string) (*models.Scene, error) {
		if fail {
			return nil, errors.New("blocked")
		}
		return &models.Scene{
			Turn:        len(history) + 1,
			Narration:   "ok",
			ImagePrompt: "p",
			Options:     []models.Option{{Hungarian: "Igen."}, {Hungarian: "Nem."}},
		}, nil
	}
	ctrl, _ := newTestController(gen)
	ctx := context.Background()

	if _, _, err := ctrl.StartGame(ctx, models.Novice, ""); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}

	fail = true
	snap, _, err := ctrl.SelectOption(ctx, 0, "")
	if err == nil {
		t.Fatal("Expected an error")
	}
	if snap.State != models.StateStart {
		t.Errorf("Expected Start, got %s", snap.State)
	}
	if snap.Mission == nil || len(snap.Mission.Scenes) != 1 {
		t.Errorf("Completed scenes must survive a failed turn, got %+v", snap.Mission)
	}
}

func TestResetClearsSessionAndCache(t *testing.T) {
	ctrl, analyzer := newTestController(sequentialScenes())
	ctx := context.Background()

	if _, _, err := ctrl.StartGame(ctx, models.Novice, ""); err != nil {
		t.Fatalf("StartGame failed: %v", err)
	}
	ctrl.Cache().Analyze(ctx, "kávét")

	snap := ctrl.Reset()
	if snap.State != models.StateStart || snap.Mission != nil || snap.Scene != nil || snap.Err != "" {
		t.Errorf("Reset left state behind: %+v", snap)
	}

	ctrl.Cache().Analyze(ctx, "kávét")
	if got := analyzer.callCount("kávét"); got != 2 {
		t.Errorf("Expected re-analysis after reset, got %d calls", got)
	}
}
