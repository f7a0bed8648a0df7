package rank

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/probe/internal/extract"
	"github.com/standardbeagle/probe/internal/index"
)

func statsBlock(path string, start int, kind string, counts map[int]int, length int, hits int) *index.BlockStats {
	unique := make(map[int]bool, len(counts))
	for t := range counts {
		unique[t] = true
	}
	lineHits := make([]int, hits)
	for i := range lineHits {
		lineHits[i] = start + i
	}
	return &index.BlockStats{
		Block: extract.Block{
			Path:      path,
			StartLine: start,
			EndLine:   start + 9,
			NodeKind:  kind,
			LineHits:  lineHits,
		},
		TermCounts:   counts,
		UniqueTerms:  unique,
		LengthTokens: length,
	}
}

func corpusOf(blocks ...*index.BlockStats) *index.Corpus {
	c := &index.Corpus{Blocks: blocks, N: len(blocks), DF: make(map[int]int)}
	total := 0
	for _, b := range blocks {
		total += b.LengthTokens
		for t := range b.UniqueTerms {
			c.DF[t]++
		}
	}
	if c.N > 0 {
		c.AvgLen = float64(total) / float64(c.N)
	}
	return c
}

func TestKnown(t *testing.T) {
	for _, name := range Names {
		assert.True(t, Known(name))
	}
	assert.False(t, Known("pagerank"))
}

func TestRankUnknownName(t *testing.T) {
	_, err := Rank("pagerank", corpusOf(), 1)
	assert.Error(t, err)
}

func TestTFIDFHandComputed(t *testing.T) {
	// One block, one term: tf = 2/10, idf = log(2/2)+1 = 1.
	b := statsBlock("a.go", 1, "function_declaration", map[int]int{0: 2}, 10, 1)
	corpus := corpusOf(b)

	scored, err := Rank("tfidf", corpus, 1)
	require.NoError(t, err)
	require.Len(t, scored, 1)
	assert.InDelta(t, 0.2, scored[0].Score, 1e-9)
}

func TestTFIDFRewardsRarity(t *testing.T) {
	common := statsBlock("a.go", 1, "function_declaration", map[int]int{0: 1}, 10, 1)
	alsoCommon := statsBlock("b.go", 1, "function_declaration", map[int]int{0: 1}, 10, 1)
	rare := statsBlock("c.go", 1, "function_declaration", map[int]int{1: 1}, 10, 1)
	corpus := corpusOf(common, alsoCommon, rare)

	scored, err := Rank("tfidf", corpus, 2)
	require.NoError(t, err)
	assert.Equal(t, "c.go", scored[0].Stats.Block.Path,
		"the rarer term scores higher at equal tf")
}

func TestBM25HandComputed(t *testing.T) {
	b := statsBlock("a.go", 1, "function_declaration", map[int]int{0: 3}, 10, 1)
	corpus := corpusOf(b)

	scored, err := Rank("bm25", corpus, 1)
	require.NoError(t, err)

	// N=1, df=1: idf = ln((1-1+0.5)/(1+0.5) + 1) = ln(4/3).
	// len == avgLen so the length norm is exactly k1.
	idf := math.Log(4.0 / 3.0)
	tf := 3.0
	want := idf * tf * (bm25K1 + 1) / (tf + bm25K1)
	assert.InDelta(t, want, scored[0].Score, 1e-9)
}

func TestHybridIsNormalizedBlend(t *testing.T) {
	strong := statsBlock("a.go", 1, "function_declaration", map[int]int{0: 5}, 10, 1)
	weak := statsBlock("b.go", 1, "function_declaration", map[int]int{0: 1}, 10, 1)
	corpus := corpusOf(strong, weak)

	scored, err := Rank("hybrid", corpus, 1)
	require.NoError(t, err)

	assert.Equal(t, "a.go", scored[0].Stats.Block.Path)
	assert.InDelta(t, 1.0, scored[0].Score, 1e-9, "best block normalizes to 1")
	assert.InDelta(t, 0.0, scored[1].Score, 1e-9, "worst block normalizes to 0")
}

func TestHybrid2ComponentsPresent(t *testing.T) {
	a := statsBlock("a.go", 1, "function_declaration", map[int]int{0: 3, 1: 1}, 10, 2)
	b := statsBlock("b.go", 1, "comment", map[int]int{0: 1}, 10, 1)
	corpus := corpusOf(a, b)

	scored, err := Rank("hybrid2", corpus, 2)
	require.NoError(t, err)

	for _, name := range []string{"bm25", "tfidf", "term_coverage", "hit_density", "structural_bonus", "filename_bonus"} {
		_, ok := scored[0].Components[name]
		assert.True(t, ok, "component %s recorded", name)
	}
	assert.Equal(t, "a.go", scored[0].Stats.Block.Path,
		"full coverage plus structural bonus wins")
}

func TestStructuralBonus(t *testing.T) {
	assert.Equal(t, 1.0, structuralBonus("function_item"))
	assert.Equal(t, 1.0, structuralBonus("method_declaration"))
	assert.Equal(t, 1.0, structuralBonus("class_declaration"))
	assert.Equal(t, 1.0, structuralBonus("struct_specifier"))
	assert.Equal(t, 1.0, structuralBonus("impl_item"))
	assert.Equal(t, 0.5, structuralBonus("mod_item"))
	assert.Equal(t, 0.5, structuralBonus("namespace_definition"))
	assert.Equal(t, 0.0, structuralBonus("comment"))
	assert.Equal(t, 0.0, structuralBonus("line"))
}

func TestTieBreakByPathThenLine(t *testing.T) {
	b1 := statsBlock("b.go", 5, "function_declaration", map[int]int{0: 1}, 10, 1)
	b2 := statsBlock("a.go", 9, "function_declaration", map[int]int{0: 1}, 10, 1)
	b3 := statsBlock("a.go", 2, "function_declaration", map[int]int{0: 1}, 10, 1)
	corpus := corpusOf(b1, b2, b3)

	scored, err := Rank("bm25", corpus, 1)
	require.NoError(t, err)

	require.Len(t, scored, 3)
	assert.Equal(t, "a.go", scored[0].Stats.Block.Path)
	assert.Equal(t, 2, scored[0].Stats.Block.StartLine)
	assert.Equal(t, "a.go", scored[1].Stats.Block.Path)
	assert.Equal(t, 9, scored[1].Stats.Block.StartLine)
	assert.Equal(t, "b.go", scored[2].Stats.Block.Path)
}

func TestRankDeterminism(t *testing.T) {
	blocks := []*index.BlockStats{
		statsBlock("x.go", 1, "function_declaration", map[int]int{0: 2}, 12, 1),
		statsBlock("y.go", 4, "type_declaration", map[int]int{0: 1}, 8, 1),
		statsBlock("z.go", 7, "method_declaration", map[int]int{0: 3}, 20, 2),
	}
	corpus := corpusOf(blocks...)

	first, err := Rank("hybrid2", corpus, 1)
	require.NoError(t, err)
	second, err := Rank("hybrid2", corpus, 1)
	require.NoError(t, err)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Stats.Block.Path, second[i].Stats.Block.Path)
		assert.Equal(t, first[i].Score, second[i].Score)
	}
}

func TestMinMaxNormalize(t *testing.T) {
	assert.Equal(t, []float64{0, 0.5, 1}, minMaxNormalize([]float64{2, 4, 6}))
	assert.Equal(t, []float64{0, 0, 0}, minMaxNormalize([]float64{3, 3, 3}))
	assert.Empty(t, minMaxNormalize(nil))
}
