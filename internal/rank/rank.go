// Package rank scores the filtered candidate set. Four interchangeable
// rankers share one input (block statistics plus corpus frequencies)
// and one output contract: higher is better, ties broken by ascending
// path then start line, so ordering is fully deterministic.
package rank

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/standardbeagle/probe/internal/index"
)

// Okapi BM25 parameters.
const (
	bm25K1 = 1.2
	bm25B  = 0.75
)

// hybrid2 signal weights. Fixed constants, not user-tunable.
const (
	weightBM25       = 0.35
	weightTFIDF      = 0.15
	weightCoverage   = 0.20
	weightHitDensity = 0.10
	weightStructural = 0.10
	weightFilename   = 0.10
)

// Names lists the recognized ranker names. "hybrid" is the default.
var Names = []string{"hybrid", "hybrid2", "bm25", "tfidf"}

// Known reports whether name is a recognized ranker.
func Known(name string) bool {
	for _, n := range Names {
		if n == name {
			return true
		}
	}
	return false
}

// Scored pairs a block's statistics with its component and final scores.
type Scored struct {
	Stats      *index.BlockStats
	Components map[string]float64
	Score      float64
}

// Rank scores every block in the corpus with the named ranker and
// returns the list sorted best-first.
func Rank(name string, corpus *index.Corpus, queryTerms int) ([]Scored, error) {
	if !Known(name) {
		return nil, fmt.Errorf("unknown reranker %q (valid: %s)", name, strings.Join(Names, ", "))
	}

	scored := make([]Scored, len(corpus.Blocks))
	tfidfScores := make([]float64, len(corpus.Blocks))
	bm25Scores := make([]float64, len(corpus.Blocks))
	for i, stats := range corpus.Blocks {
		tfidfScores[i] = tfidf(stats, corpus)
		bm25Scores[i] = bm25(stats, corpus)
		scored[i] = Scored{
			Stats: stats,
			Components: map[string]float64{
				"tfidf": tfidfScores[i],
				"bm25":  bm25Scores[i],
			},
		}
	}

	switch name {
	case "tfidf":
		for i := range scored {
			scored[i].Score = tfidfScores[i]
		}
	case "bm25":
		for i := range scored {
			scored[i].Score = bm25Scores[i]
		}
	case "hybrid":
		tfidfNorm := minMaxNormalize(tfidfScores)
		bm25Norm := minMaxNormalize(bm25Scores)
		for i := range scored {
			scored[i].Components["tfidf_norm"] = tfidfNorm[i]
			scored[i].Components["bm25_norm"] = bm25Norm[i]
			scored[i].Score = 0.5*tfidfNorm[i] + 0.5*bm25Norm[i]
		}
	case "hybrid2":
		rankHybrid2(scored, tfidfScores, bm25Scores, corpus, queryTerms)
	}

	sortScored(scored)
	return scored, nil
}

// tfidf: sum over query terms present in the block of tf*idf with
// tf = count/length and idf = log((N+1)/(df+1)) + 1.
func tfidf(stats *index.BlockStats, corpus *index.Corpus) float64 {
	if stats.LengthTokens == 0 {
		return 0
	}
	score := 0.0
	for t, count := range stats.TermCounts {
		tf := float64(count) / float64(stats.LengthTokens)
		idf := math.Log(float64(corpus.N+1)/float64(corpus.DF[t]+1)) + 1
		score += tf * idf
	}
	return score
}

// bm25: standard Okapi formulation using raw term counts, document
// frequencies, and mean block length.
func bm25(stats *index.BlockStats, corpus *index.Corpus) float64 {
	if corpus.AvgLen == 0 {
		return 0
	}
	score := 0.0
	lenNorm := bm25K1 * (1 - bm25B + bm25B*float64(stats.LengthTokens)/corpus.AvgLen)
	for t, count := range stats.TermCounts {
		df := float64(corpus.DF[t])
		idf := math.Log((float64(corpus.N)-df+0.5)/(df+0.5) + 1)
		tf := float64(count)
		score += idf * tf * (bm25K1 + 1) / (tf + lenNorm)
	}
	return score
}

func rankHybrid2(scored []Scored, tfidfScores, bm25Scores []float64, corpus *index.Corpus, queryTerms int) {
	tfidfNorm := minMaxNormalize(tfidfScores)
	bm25Norm := minMaxNormalize(bm25Scores)

	coverage := make([]float64, len(scored))
	density := make([]float64, len(scored))
	structural := make([]float64, len(scored))
	filename := make([]float64, len(scored))
	for i, s := range scored {
		stats := s.Stats
		if queryTerms > 0 {
			coverage[i] = float64(len(stats.UniqueTerms)) / float64(queryTerms)
		}
		if n := stats.Block.NumLines(); n > 0 {
			density[i] = float64(len(stats.Block.LineHits)) / float64(n)
		}
		structural[i] = structuralBonus(stats.Block.NodeKind)
		if stats.FilenameMatch {
			filename[i] = 1.0
		}
	}
	coverage = minMaxNormalize(coverage)
	density = minMaxNormalize(density)
	structural = minMaxNormalize(structural)
	filename = minMaxNormalize(filename)

	for i := range scored {
		scored[i].Components["term_coverage"] = coverage[i]
		scored[i].Components["hit_density"] = density[i]
		scored[i].Components["structural_bonus"] = structural[i]
		scored[i].Components["filename_bonus"] = filename[i]
		scored[i].Score = weightBM25*bm25Norm[i] +
			weightTFIDF*tfidfNorm[i] +
			weightCoverage*coverage[i] +
			weightHitDensity*density[i] +
			weightStructural*structural[i] +
			weightFilename*filename[i]
	}
}

// structuralBonus favors definition-shaped blocks: full credit for
// functions, methods, structs, classes, and impls; half credit for
// modules and namespaces.
func structuralBonus(nodeKind string) float64 {
	switch {
	case strings.Contains(nodeKind, "function"),
		strings.Contains(nodeKind, "method"),
		strings.Contains(nodeKind, "constructor"),
		strings.Contains(nodeKind, "struct"),
		strings.Contains(nodeKind, "class"),
		strings.Contains(nodeKind, "impl"):
		return 1.0
	case strings.Contains(nodeKind, "mod"),
		strings.Contains(nodeKind, "module"),
		strings.Contains(nodeKind, "namespace"):
		return 0.5
	}
	return 0.0
}

// minMaxNormalize maps values onto [0,1] over the candidate set. A
// constant slice normalizes to all zeros.
func minMaxNormalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	if max == min {
		return out
	}
	for i, v := range values {
		out[i] = (v - min) / (max - min)
	}
	return out
}

func sortScored(scored []Scored) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		bi, bj := scored[i].Stats.Block, scored[j].Stats.Block
		if bi.Path != bj.Path {
			return bi.Path < bj.Path
		}
		return bi.StartLine < bj.StartLine
	})
}
