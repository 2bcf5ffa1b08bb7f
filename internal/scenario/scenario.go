// Package scenario provides ready-made mission prompts for the start
// screen. A built-in set ships with the binary; players can replace it
// with their own YAML file in the config directory.
package scenario

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed scenarios.yaml
var defaultScenarios []byte

// Scenario is one preset mission.
type Scenario struct {
	Title  string `yaml:"title"`
	Prompt string `yaml:"prompt"`
}

// Load reads scenarios from path, falling back to the built-in set when
// the file does not exist.
func Load(path string) ([]Scenario, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return Defaults()
	}
	if err != nil {
		return nil, fmt.Errorf("reading scenarios file: %w", err)
	}
	return parse(data)
}

// Defaults returns the built-in scenario set.
func Defaults() ([]Scenario, error) {
	return parse(defaultScenarios)
}

func parse(data []byte) ([]Scenario, error) {
	var doc struct {
		Scenarios []Scenario `yaml:"scenarios"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing scenarios: %w", err)
	}

	for i, s := range doc.Scenarios {
		if s.Title == "" || s.Prompt == "" {
			return nil, fmt.Errorf("scenario %d is missing a title or prompt", i+1)
		}
	}
	return doc.Scenarios, nil
}
