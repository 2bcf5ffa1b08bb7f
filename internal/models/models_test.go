package models

import (
	"encoding/json"
	"testing"
)

func TestSceneJSON(t *testing.T) {
	raw := `{
		"turn": 2,
		"narration": "You step up to the counter.",
		"imagePrompt": "A barista behind an espresso machine in a Budapest café",
		"dialogue": {"speaker": "Barista", "hungarian": "Mit adhatok?", "english": "What can I get you?"},
		"options": [
			{"hungarian": "Egy kávét kérek.", "english": "A coffee, please."},
			{"hungarian": "Hol van a mosdó?"}
		],
		"feedback": "Jó választás!",
		"feedbackType": "positive"
	}`

	var scene Scene
	if err := json.Unmarshal([]byte(raw), &scene); err != nil {
		t.Fatalf("Failed to unmarshal scene: %v", err)
	}

	if scene.Turn != 2 {
		t.Errorf("Expected turn 2, got %d", scene.Turn)
	}
	if scene.Dialogue == nil || scene.Dialogue.Speaker != "Barista" {
		t.Errorf("Expected barista dialogue, got %+v", scene.Dialogue)
	}
	if len(scene.Options) != 2 {
		t.Fatalf("Expected 2 options, got %d", len(scene.Options))
	}
	if scene.Options[1].English != "" {
		t.Errorf("Expected empty english for option 2, got %q", scene.Options[1].English)
	}
	if scene.FeedbackType != FeedbackPositive {
		t.Errorf("Expected positive feedback, got %q", scene.FeedbackType)
	}
}

func TestMissionCurrentTurn(t *testing.T) {
	var m *Mission
	if m.CurrentTurn() != 0 {
		t.Errorf("Expected 0 for nil mission, got %d", m.CurrentTurn())
	}

	m = &Mission{Title: "A Day in Budapest", Difficulty: Novice}
	if m.CurrentTurn() != 0 {
		t.Errorf("Expected 0 for empty mission, got %d", m.CurrentTurn())
	}

	m.Scenes = append(m.Scenes, Scene{Turn: 1}, Scene{Turn: 2}, Scene{Turn: 3})
	if m.CurrentTurn() != 3 {
		t.Errorf("Expected turn 3, got %d", m.CurrentTurn())
	}
}

func TestFreeText(t *testing.T) {
	for _, d := range Difficulties {
		want := d == ErosPista
		if d.FreeText() != want {
			t.Errorf("%s: FreeText() = %v, want %v", d, d.FreeText(), want)
		}
	}
}
