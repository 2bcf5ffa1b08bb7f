package scenario

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaults(t *testing.T) {
	scenarios, err := Defaults()
	if err != nil {
		t.Fatalf("Defaults failed: %v", err)
	}
	if len(scenarios) == 0 {
		t.Fatal("Expected built-in scenarios")
	}
	for _, s := range scenarios {
		if s.Title == "" || s.Prompt == "" {
			t.Errorf("Incomplete scenario: %+v", s)
		}
	}
}

func TestLoadMissingFileFallsBack(t *testing.T) {
	scenarios, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	defaults, _ := Defaults()
	if len(scenarios) != len(defaults) {
		t.Errorf("Expected the built-in set, got %d scenarios", len(scenarios))
	}
}

func TestLoadCustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	content := "scenarios:\n  - title: \"Post office\"\n    prompt: \"Mail a postcard home\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	scenarios, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(scenarios) != 1 || scenarios[0].Title != "Post office" {
		t.Errorf("Unexpected scenarios: %+v", scenarios)
	}
}

func TestLoadRejectsIncompleteScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenarios.yaml")
	if err := os.WriteFile(path, []byte("scenarios:\n  - title: \"No prompt\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected an error for a scenario without a prompt")
	}
}
