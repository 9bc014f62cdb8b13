// Package generator picks target words for typing sessions.
package generator

import (
	"math/rand"
	"time"
)

// Generator draws words uniformly at random, with replacement.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Generator with a fixed seed, producing a repeatable sequence.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Pick returns a uniformly chosen element of words, or "" when words is empty.
// Consecutive picks may repeat.
func (g *Generator) Pick(words []string) string {
	if len(words) == 0 {
		return ""
	}
	return words[g.rnd.Intn(len(words))]
}
