package enrich

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/directory-cli/internal/resilience"
)

// words returns n distinct words tagged with seed.
func words(seed string, n int) string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%sx%d", seed, i)
	}
	return strings.Join(out, " ")
}

func testGate() *Gate {
	return NewGate(GateConfig{
		MinWords:            10,
		MaxWords:            100,
		BannedPhrases:       []string{"Nestled In", "look no further"},
		SimilarityWindow:    3,
		SimilarityThreshold: 0.55,
	})
}

func TestGate_WordBounds(t *testing.T) {
	g := testGate()

	err := g.Check(words("a", 9))
	require.Error(t, err)
	assert.Equal(t, resilience.ClassValidation, resilience.Classify(err))
	assert.Contains(t, err.Error(), "too short")

	err = g.Check(words("b", 101))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too long")

	assert.NoError(t, g.Check(words("c", 10)))
	assert.NoError(t, g.Check(words("d", 100)))
}

func TestGate_Empty(t *testing.T) {
	err := testGate().Check("   \n ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty")
}

func TestGate_BannedPhrases(t *testing.T) {
	g := testGate()
	err := g.Check("Suds City is nestled in the heart of town. " + words("e", 12))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nestled in")
}

func TestGate_Similarity(t *testing.T) {
	g := testGate()
	base := words("f", 40)

	require.NoError(t, g.Check(base))

	// Same text with one word changed still shares most shingles.
	near := strings.Replace(base, "fx20", "changed", 1)
	err := g.Check(near)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "too similar")

	assert.NoError(t, g.Check(words("g", 40)))
}

func TestGate_WindowEvictsOldest(t *testing.T) {
	g := testGate()
	first := words("h", 20)
	require.NoError(t, g.Check(first))
	for _, seed := range []string{"i", "j", "k"} {
		require.NoError(t, g.Check(words(seed, 20)))
	}
	// Window of 3 no longer holds the first text.
	assert.NoError(t, g.Check(first))
}

func TestGate_Forget(t *testing.T) {
	g := testGate()
	text := words("p", 20)
	other := words("q", 20)
	require.NoError(t, g.Check(text))
	require.NoError(t, g.Check(other))

	g.Forget(text)
	assert.NoError(t, g.Check(text))
	assert.Error(t, g.Check(other))
}

func TestGate_Seed(t *testing.T) {
	g := testGate()
	prior := words("m", 30)
	g.Seed([]string{prior, ""})
	assert.Error(t, g.Check(prior))
}

func TestGate_ConcurrentDuplicates(t *testing.T) {
	g := testGate()
	text := words("n", 30)

	var wg sync.WaitGroup
	var mu sync.Mutex
	passed := 0
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g.Check(text) == nil {
				mu.Lock()
				passed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, passed)
}

func TestSimilarity(t *testing.T) {
	a := words("p", 30)
	assert.InDelta(t, 1.0, Similarity(a, a), 1e-9)
	assert.InDelta(t, 0.0, Similarity(a, words("q", 30)), 1e-9)
	assert.InDelta(t, 0.0, Similarity("", ""), 1e-9)
	assert.InDelta(t, 0.0, Similarity("too short", "too short"), 1e-9)
}

func TestNewGate_Defaults(t *testing.T) {
	g := NewGate(GateConfig{})
	assert.Equal(t, DefaultGateConfig().MinWords, g.cfg.MinWords)
	assert.Equal(t, 900, g.cfg.MaxWords)
	assert.Equal(t, 50, g.cfg.SimilarityWindow)
	assert.InDelta(t, 0.55, g.cfg.SimilarityThreshold, 1e-9)
}
