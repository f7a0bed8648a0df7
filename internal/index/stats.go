// Package index derives per-block term statistics and corpus-level
// frequencies from the extractor's candidate blocks. Statistics feed
// the rankers; blocks failing the term gate are discarded here.
package index

import (
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/probe/internal/extract"
	"github.com/standardbeagle/probe/internal/query"
)

// BlockStats is the bag-of-terms view of one candidate block.
type BlockStats struct {
	Block extract.Block

	// ID is a stable hash of (path, start line) identifying the block
	// across runs.
	ID uint64

	TermCounts    map[int]int
	UniqueTerms   map[int]bool
	LengthTokens  int
	FilenameMatch bool
}

// Corpus holds the filtered candidate set and the statistics rankers
// consume: N, document frequencies, and mean block length.
type Corpus struct {
	Blocks []*BlockStats
	N      int
	DF     map[int]int
	AvgLen float64
}

// Builder accumulates block statistics; safe for concurrent Add calls.
// Document frequencies are reduced in Finish after all blocks are in.
type Builder struct {
	query            *query.Query
	anyTerm          bool
	includeFilenames bool

	mu     sync.Mutex
	blocks []*BlockStats
}

// NewBuilder creates a statistics builder for one search invocation.
// With anyTerm false (the default) only blocks containing every query
// term survive; with anyTerm true one matching term suffices.
func NewBuilder(q *query.Query, anyTerm, includeFilenames bool) *Builder {
	return &Builder{query: q, anyTerm: anyTerm, includeFilenames: includeFilenames}
}

// Add tokenizes one block and records its statistics.
func (b *Builder) Add(block extract.Block) {
	stats := b.analyze(block)
	b.mu.Lock()
	b.blocks = append(b.blocks, stats)
	b.mu.Unlock()
}

func (b *Builder) analyze(block extract.Block) *BlockStats {
	stats := &BlockStats{
		Block:       block,
		ID:          xxhash.Sum64String(fmt.Sprintf("%s:%d", block.Path, block.StartLine)),
		TermCounts:  make(map[int]int),
		UniqueTerms: make(map[int]bool),
	}

	// Synthetic whole-file blocks carry no text; term presence comes
	// from the scanner's recorded hit terms instead.
	if block.StartLine == 0 && block.EndLine == 0 {
		for _, t := range block.HitTerms {
			stats.TermCounts[t]++
			stats.UniqueTerms[t] = true
		}
		stats.FilenameMatch = block.FilenameOnly
		return stats
	}

	for _, tok := range query.ContentTokens(block.Text) {
		norm, ok := b.query.NormalizeToken(tok)
		if !ok {
			continue
		}
		stats.LengthTokens++
		if i := b.query.TermIndex(norm); i >= 0 {
			stats.TermCounts[i]++
			stats.UniqueTerms[i] = true
		}
	}

	if terms := b.query.MatchFilenameTerms(block.Path); len(terms) > 0 {
		stats.FilenameMatch = true
		if b.includeFilenames {
			// Filename tokens count toward term presence so that
			// filename-matched blocks survive the all-terms gate.
			for _, i := range terms {
				stats.UniqueTerms[i] = true
			}
		}
	}

	return stats
}

// Finish applies the term gate and reduces corpus-level statistics.
func (b *Builder) Finish() *Corpus {
	b.mu.Lock()
	defer b.mu.Unlock()

	corpus := &Corpus{DF: make(map[int]int)}
	totalTokens := 0
	for _, stats := range b.blocks {
		if !b.passesGate(stats) {
			continue
		}
		corpus.Blocks = append(corpus.Blocks, stats)
		totalTokens += stats.LengthTokens
		for t := range stats.UniqueTerms {
			corpus.DF[t]++
		}
	}
	corpus.N = len(corpus.Blocks)
	if corpus.N > 0 {
		corpus.AvgLen = float64(totalTokens) / float64(corpus.N)
	}
	return corpus
}

func (b *Builder) passesGate(stats *BlockStats) bool {
	if b.anyTerm {
		return len(stats.UniqueTerms) > 0
	}
	return len(stats.UniqueTerms) == len(b.query.Terms)
}
