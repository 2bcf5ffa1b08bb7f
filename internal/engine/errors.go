package engine

import "errors"

// ErrGeneration marks a scene request that failed or returned unusable
// content. The current turn is abandoned; nothing is partially applied.
var ErrGeneration = errors.New("scene generation failed")

// ErrAnalysis marks a failed word breakdown. The cache layer downgrades
// it to a degraded entry, so it never reaches the player.
var ErrAnalysis = errors.New("word analysis failed")
