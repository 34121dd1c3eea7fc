package enrich

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/sells-group/directory-cli/internal/normalize"
	"github.com/sells-group/directory-cli/internal/resilience"
)

// GateConfig sets the acceptance thresholds for generated text.
type GateConfig struct {
	MinWords            int
	MaxWords            int
	BannedPhrases       []string
	SimilarityWindow    int
	SimilarityThreshold float64
}

// DefaultGateConfig returns the thresholds used when config leaves them unset.
func DefaultGateConfig() GateConfig {
	return GateConfig{
		MinWords:            180,
		MaxWords:            900,
		SimilarityWindow:    50,
		SimilarityThreshold: 0.55,
	}
}

const shingleSize = 3

type shingleSet map[uint64]struct{}

// Gate validates generated descriptions. It keeps a rolling window of
// recently accepted outputs and rejects text too similar to any of them.
// Safe for concurrent use.
type Gate struct {
	cfg    GateConfig
	banned []string

	mu     sync.Mutex
	recent []shingleSet // oldest first
}

// NewGate creates a Gate. Non-positive thresholds fall back to defaults.
func NewGate(cfg GateConfig) *Gate {
	def := DefaultGateConfig()
	if cfg.MinWords <= 0 {
		cfg.MinWords = def.MinWords
	}
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = def.MaxWords
	}
	if cfg.SimilarityWindow <= 0 {
		cfg.SimilarityWindow = def.SimilarityWindow
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = def.SimilarityThreshold
	}

	g := &Gate{cfg: cfg}
	for _, p := range cfg.BannedPhrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			g.banned = append(g.banned, p)
		}
	}
	return g
}

// Seed loads previously accepted descriptions into the similarity window.
func (g *Gate) Seed(texts []string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, t := range texts {
		g.remember(shingles(t))
	}
}

// Check validates text. Text that passes is added to the similarity window,
// so of two near-identical concurrent outputs only the first is accepted.
func (g *Gate) Check(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return resilience.NewValidationError("empty output")
	}

	words := len(strings.Fields(text))
	if words < g.cfg.MinWords {
		return resilience.NewValidationError(fmt.Sprintf("too short: %d words, minimum %d", words, g.cfg.MinWords))
	}
	if words > g.cfg.MaxWords {
		return resilience.NewValidationError(fmt.Sprintf("too long: %d words, maximum %d", words, g.cfg.MaxWords))
	}

	lower := strings.ToLower(text)
	for _, p := range g.banned {
		if strings.Contains(lower, p) {
			return resilience.NewValidationError(fmt.Sprintf("banned phrase %q", p))
		}
	}

	set := shingles(text)

	g.mu.Lock()
	defer g.mu.Unlock()
	for _, prev := range g.recent {
		if sim := jaccard(set, prev); sim >= g.cfg.SimilarityThreshold {
			return resilience.NewValidationError(fmt.Sprintf("too similar to a recent description: %.2f", sim))
		}
	}
	g.remember(set)
	return nil
}

// remember adds set to the ring buffer. Caller holds mu.
func (g *Gate) remember(set shingleSet) {
	if len(set) == 0 {
		return
	}
	g.recent = append(g.recent, set)
	if over := len(g.recent) - g.cfg.SimilarityWindow; over > 0 {
		g.recent = slices.Delete(g.recent, 0, over)
	}
}

// Forget removes text from the similarity window. Call it when text that
// passed Check was never persisted.
func (g *Gate) Forget(text string) {
	set := shingles(strings.TrimSpace(text))
	if len(set) == 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	for i := len(g.recent) - 1; i >= 0; i-- {
		if maps.Equal(g.recent[i], set) {
			g.recent = slices.Delete(g.recent, i, i+1)
			return
		}
	}
}

// shingles hashes every run of three consecutive folded words.
func shingles(text string) shingleSet {
	words := strings.Fields(normalize.Fold(text))
	set := make(shingleSet)
	for i := 0; i+shingleSize <= len(words); i++ {
		set[xxhash.Sum64String(strings.Join(words[i:i+shingleSize], " "))] = struct{}{}
	}
	return set
}

// Similarity returns the Jaccard similarity of the word 3-shingles of a and b.
func Similarity(a, b string) float64 {
	return jaccard(shingles(a), shingles(b))
}

func jaccard(a, b shingleSet) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	inter := 0
	for h := range a {
		if _, ok := b[h]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}
