package prompt

import (
	"math/rand"
	"strings"
	"time"
)

// Generator produces randomized writing prompts.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewWithSeed(time.Now().UnixNano())
}

// NewWithSeed returns a deterministic Generator.
func NewWithSeed(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Pick selects up to count distinct words.
func (g *Generator) Pick(words []string, count int) []string {
	if count <= 0 || len(words) == 0 {
		return nil
	}
	if count > len(words) {
		count = len(words)
	}
	out := make([]string, 0, count)
	for _, idx := range g.rnd.Perm(len(words))[:count] {
		out = append(out, words[idx])
	}
	return out
}

// Prompt renders a one-line prompt from count seed words.
func (g *Generator) Prompt(words []string, count int) string {
	picked := g.Pick(words, count)
	if len(picked) == 0 {
		return ""
	}
	return "Write about: " + strings.Join(picked, ", ")
}
