// Package search wires the pipeline together: query processing, file
// scanning, block extraction, statistics, ranking, and selection. This
// is the sole public entry point of the core.
package search

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/standardbeagle/probe/internal/config"
	"github.com/standardbeagle/probe/internal/debug"
	proberrors "github.com/standardbeagle/probe/internal/errors"
	"github.com/standardbeagle/probe/internal/extract"
	"github.com/standardbeagle/probe/internal/index"
	"github.com/standardbeagle/probe/internal/query"
	"github.com/standardbeagle/probe/internal/rank"
	"github.com/standardbeagle/probe/internal/results"
	"github.com/standardbeagle/probe/internal/scanner"
)

// maxCandidateBlocks caps the intermediate candidate set so pathological
// queries cannot produce unbounded memory use.
const maxCandidateBlocks = 100000

// Search runs one search invocation and returns the final ordered
// result list. An empty list (not an error) means nothing survived
// filtering. Cancellation via ctx discards partial results and returns
// errors.ErrCancelled.
func Search(ctx context.Context, opts config.Options) ([]results.Block, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	exact := opts.Exact || !opts.FrequencySearch
	q, err := query.Process(opts.Pattern, exact)
	if err != nil {
		return nil, err
	}
	debug.LogSearch("query %q: %d terms, exact=%v", opts.Pattern, len(q.Terms), exact)

	corpus, err := gatherCandidates(ctx, opts, q)
	if err != nil {
		err = translateCancel(ctx, err)
		var pathErr *proberrors.PathError
		if proberrors.IsCancelled(err) || errors.As(err, &pathErr) {
			return nil, err
		}
		return nil, proberrors.NewSearchError(opts.Pattern, err)
	}
	debug.LogSearch("candidate set: %d blocks, avg length %.1f tokens", corpus.N, corpus.AvgLen)

	if err := ctx.Err(); err != nil {
		return nil, proberrors.ErrCancelled
	}

	// The reranker name was validated up front; a failure here is an
	// internal search error, not a configuration one.
	ranked, err := rank.Rank(opts.Reranker, corpus, len(q.Terms))
	if err != nil {
		return nil, proberrors.NewSearchError(opts.Pattern, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, proberrors.ErrCancelled
	}

	selected := results.Select(ranked, results.Options{
		AllowTests:     opts.AllowTests,
		MergeBlocks:    opts.MergeBlocks,
		MergeThreshold: opts.MergeThreshold,
		MaxResults:     opts.MaxResults,
		MaxBytes:       opts.MaxBytes,
		MaxTokens:      opts.MaxTokens,
	})
	return selected, nil
}

// gatherCandidates runs the scan/extract pipeline: scanner workers
// stream per-file hits over a bounded channel, extractor workers climb
// each file's AST and feed the statistics builder.
func gatherCandidates(ctx context.Context, opts config.Options, q *query.Query) (*index.Corpus, error) {
	workers := runtime.NumCPU()

	sc := scanner.New(q)
	sc.Ignore = opts.Ignore
	sc.MaxFileSize = opts.MaxFileSize
	sc.FilesOnly = opts.FilesOnly
	sc.IncludeFilenames = opts.IncludeFilenames
	sc.Workers = workers

	builder := index.NewBuilder(q, opts.AnyTerm, opts.IncludeFilenames)
	hits := make(chan scanner.FileHits, workers*2)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sc.Run(ctx, opts.Paths, hits)
	})

	var candidates atomic.Int64
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			for fh := range hits {
				if err := ctx.Err(); err != nil {
					return err
				}
				for _, block := range extract.File(fh) {
					if candidates.Add(1) > maxCandidateBlocks {
						debug.LogExtract("candidate cap %d reached, dropping %s:%d",
							maxCandidateBlocks, block.Path, block.StartLine)
						continue
					}
					builder.Add(block)
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return builder.Finish(), nil
}

// translateCancel maps context cancellation to the explicit cancelled
// outcome while passing real failures through.
func translateCancel(ctx context.Context, err error) error {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return proberrors.ErrCancelled
	}
	return err
}
