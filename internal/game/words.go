package game

import (
	"regexp"
	"strings"

	"github.com/samber/lo"

	"magyarkaland/internal/models"
)

// wordRuns matches runs of letters and digits; accented Hungarian
// characters count as word characters.
var wordRuns = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// EncounteredWords derives the glossary from the mission and the
// breakdown cache: every Hungarian dialogue and option word that was
// analyzed and carries at least one suffix, counted across all scenes,
// in first-seen order. It is a pure recomputation; nothing is
// maintained incrementally.
func EncounteredWords(mission *models.Mission, cache *Cache) []models.EncounteredWord {
	if mission == nil {
		return nil
	}

	var order []string
	seen := make(map[string]*models.EncounteredWord)

	for _, scene := range mission.Scenes {
		var texts []string
		if scene.Dialogue != nil && scene.Dialogue.Hungarian != "" {
			texts = append(texts, scene.Dialogue.Hungarian)
		}
		texts = append(texts, lo.Map(scene.Options, func(o models.Option, _ int) string {
			return o.Hungarian
		})...)

		for _, token := range wordRuns.FindAllString(strings.Join(texts, " "), -1) {
			word := strings.ToLower(token)
			breakdown, ok := cache.Lookup(word)
			if !ok || len(breakdown.Suffixes) == 0 {
				continue
			}
			if entry, dup := seen[word]; dup {
				entry.Count++
				continue
			}
			seen[word] = &models.EncounteredWord{Word: word, Breakdown: breakdown, Count: 1}
			order = append(order, word)
		}
	}

	words := make([]models.EncounteredWord, 0, len(order))
	for _, word := range order {
		words = append(words, *seen[word])
	}
	return words
}
