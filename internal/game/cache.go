package game

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"magyarkaland/internal/models"
)

// WordAnalyzer breaks a normalized Hungarian word into root and
// suffixes.
type WordAnalyzer interface {
	BreakdownWord(ctx context.Context, word string) (models.WordBreakdown, error)
}

// degradedMeaning is cached in place of a real analysis when the
// analyzer fails, so callers never have to handle an analysis error.
const degradedMeaning = "Could not analyze word."

// Cache memoizes word breakdowns for one session. Each distinct
// normalized word is analyzed at most once; concurrent misses for the
// same word share a single request.
type Cache struct {
	analyzer WordAnalyzer

	mu      sync.Mutex
	entries map[string]models.WordBreakdown
	group   singleflight.Group
}

func NewCache(analyzer WordAnalyzer) *Cache {
	return &Cache{
		analyzer: analyzer,
		entries:  make(map[string]models.WordBreakdown),
	}
}

// Normalize maps a surface form to its cache key: lower case with
// trailing sentence punctuation stripped.
func Normalize(word string) string {
	return strings.TrimRight(strings.ToLower(word), ".,!?")
}

// Analyze returns the breakdown for word, consulting the cache first.
// On a miss the analyzer is called once; a failure is downgraded to a
// degraded entry. An entry, once cached, is never overwritten.
func (c *Cache) Analyze(ctx context.Context, word string) models.WordBreakdown {
	key := Normalize(word)

	c.mu.Lock()
	if breakdown, ok := c.entries[key]; ok {
		c.mu.Unlock()
		return breakdown
	}
	c.mu.Unlock()

	result, _, _ := c.group.Do(key, func() (interface{}, error) {
		breakdown, err := c.analyzer.BreakdownWord(ctx, key)
		if err != nil {
			breakdown = models.WordBreakdown{
				Root: models.Root{Text: key, Meaning: degradedMeaning},
			}
		}

		c.mu.Lock()
		defer c.mu.Unlock()
		if existing, ok := c.entries[key]; ok {
			return existing, nil
		}
		c.entries[key] = breakdown
		return breakdown, nil
	})

	return result.(models.WordBreakdown)
}

// Lookup returns the cached breakdown for an already-normalized word.
// It never triggers an analysis.
func (c *Cache) Lookup(word string) (models.WordBreakdown, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	breakdown, ok := c.entries[word]
	return breakdown, ok
}

// Len reports how many distinct words are cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Reset empties the cache; the next Analyze for any word hits the
// analyzer again.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]models.WordBreakdown)
}
