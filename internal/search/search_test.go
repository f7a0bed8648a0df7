package search

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/probe/internal/config"
	proberrors "github.com/standardbeagle/probe/internal/errors"
	"github.com/standardbeagle/probe/internal/results"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func baseOptions(pattern string, paths ...string) config.Options {
	opts := config.Default()
	opts.Pattern = pattern
	opts.Paths = paths
	return opts
}

func run(t *testing.T, opts config.Options) []results.Block {
	t.Helper()
	blocks, err := Search(context.Background(), opts)
	require.NoError(t, err)
	return blocks
}

// Scenario: two single-line Rust functions, query matches both.
func TestTwoRustFunctions(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.rs", "fn foo() { let x = 1; }\nfn bar() { foo(); }")

	blocks := run(t, baseOptions("foo", dir))

	require.Len(t, blocks, 2)
	for _, b := range blocks {
		assert.Equal(t, "function_item", b.NodeKind)
		assert.Equal(t, b.StartLine, b.EndLine)
	}
	// Deterministic tie-break: same path, ascending start line on equal score.
	if blocks[0].Score == blocks[1].Score {
		assert.Less(t, blocks[0].StartLine, blocks[1].StartLine)
	}
}

// Scenario: test function is invisible to a query matching only the helper.
func TestHelperNotTest(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.py", "def test_x(): pass\ndef helper(): return 1\n")

	blocks := run(t, baseOptions("helper", dir))
	require.Len(t, blocks, 1)
	assert.Equal(t, 2, blocks[0].StartLine)
	assert.Equal(t, 2, blocks[0].EndLine)

	opts := baseOptions("helper", dir)
	opts.AllowTests = true
	blocks = run(t, opts)
	require.Len(t, blocks, 1, "allow_tests does not invent matches for test_x")
}

// Scenario: adjacent functions merge when the gap is within threshold.
func TestMergeAdjacentFunctions(t *testing.T) {
	dir := t.TempDir()
	source := `package main

func Process(items []string) int {
	count := 0
	for range items {
		count++
	}
	if count > 0 {
		return count
	}
	return 0
}


func helper() int {
	return 1
}
`
	writeFile(t, dir, "c.go", source)

	opts := baseOptions("process helper", dir)
	opts.AnyTerm = true
	opts.MergeBlocks = true
	opts.MergeThreshold = 5
	blocks := run(t, opts)

	require.Len(t, blocks, 1, "gap of 2 blank lines is within threshold")
	assert.Equal(t, "merged", blocks[0].NodeKind)
	assert.Equal(t, 3, blocks[0].StartLine)
	assert.Equal(t, 17, blocks[0].EndLine)
}

// Scenario: stopword removal and stemming in frequency mode; all four
// words in exact mode.
func TestStopwordsAndStems(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "d.go", "package d\n\n// the quick brown fox\nfunc Jump() {}\n")

	blocks := run(t, baseOptions("the quick brown fox", dir))
	require.Len(t, blocks, 1, "stems quick/brown/fox match after dropping 'the'")

	opts := baseOptions("the quick brown fox", dir)
	opts.Exact = true
	blocks = run(t, opts)
	require.Len(t, blocks, 1, "all four exact words appear on the line")
}

// Scenario: files-only returns one zero-line block per matching file,
// ordered by path.
func TestFilesOnly(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.rs", "impl Foo {}\n")
	writeFile(t, dir, "b.rs", "impl Bar {}\n")
	writeFile(t, dir, "sub/c.rs", "impl Baz {}\n")

	opts := baseOptions("impl", dir)
	opts.FilesOnly = true
	blocks := run(t, opts)

	require.Len(t, blocks, 3)
	var paths []string
	for _, b := range blocks {
		assert.Equal(t, 0, b.StartLine)
		assert.Equal(t, 0, b.EndLine)
		assert.Equal(t, "file", b.NodeKind)
		paths = append(paths, b.Path)
	}
	assert.IsIncreasing(t, paths, "equal scores order by path")
}

// Scenario: byte budget keeps the leading block and stops before the
// next block would exceed 100 bytes.
func TestMaxBytesBudget(t *testing.T) {
	dir := t.TempDir()
	// Single-line functions with text lengths 59 and 50 bytes.
	long := "fn foo() { let aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa = foo; }//"
	writeFile(t, dir, "a.rs", long+"\nfn foo2() { let aaaaaaaaaaaaaaaaaa = foo; }///////\n")

	opts := baseOptions("foo", dir)
	opts.AnyTerm = true
	opts.MaxBytes = 100
	blocks := run(t, opts)

	total := 0
	for _, b := range blocks {
		total += len(b.Text)
	}
	assert.LessOrEqual(t, total, 100)
	assert.NotEmpty(t, blocks, "greedy budget keeps the leading block")
}

func TestDeterminism(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n\nfunc Alpha() { beta() }\n")
	writeFile(t, dir, "b.go", "package b\n\nfunc beta() {}\n\nfunc betaHelper() {}\n")
	writeFile(t, dir, "c.rs", "fn beta() {}\n")

	first := run(t, baseOptions("beta", dir))
	for i := 0; i < 5; i++ {
		again := run(t, baseOptions("beta", dir))
		assert.Equal(t, first, again, "identical inputs produce identical results")
	}
}

func TestAllTermsGating(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n\nfunc one() { alpha(); beta() }\n\nfunc two() { alpha() }\n")

	blocks := run(t, baseOptions("alpha beta", dir))
	require.Len(t, blocks, 1, "default requires every term in the block")
	assert.Equal(t, 3, blocks[0].StartLine)

	opts := baseOptions("alpha beta", dir)
	opts.AnyTerm = true
	blocks = run(t, opts)
	assert.Len(t, blocks, 2)
}

func TestTestsExcludedByDefault(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "m.go", "package m\n\nfunc Work() {}\n")
	writeFile(t, dir, "m_test.go", "package m\n\nfunc TestWork(t *testing.T) { Work() }\n")

	blocks := run(t, baseOptions("work", dir))
	require.Len(t, blocks, 1)
	assert.Equal(t, filepath.Join(dir, "m.go"), blocks[0].Path)

	opts := baseOptions("work", dir)
	opts.AllowTests = true
	blocks = run(t, opts)
	assert.Len(t, blocks, 2)
}

func TestNonOverlapProperty(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "n.py", `def outer():
    def inner():
        target = 1
    target = inner
    return target
`)

	blocks := run(t, baseOptions("target", dir))
	byFile := make(map[string][]results.Block)
	for _, b := range blocks {
		byFile[b.Path] = append(byFile[b.Path], b)
	}
	for _, list := range byFile {
		for i := 0; i < len(list); i++ {
			for j := i + 1; j < len(list); j++ {
				noOverlap := list[i].EndLine < list[j].StartLine ||
					list[j].EndLine < list[i].StartLine
				assert.True(t, noOverlap, "blocks %v and %v overlap", list[i], list[j])
			}
		}
	}
}

func TestIncludeFilenames(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "handler.go", "package h\n")
	writeFile(t, dir, "other.go", "package o\n")

	opts := baseOptions("handler", dir)
	opts.IncludeFilenames = true
	blocks := run(t, opts)

	require.Len(t, blocks, 1, "filename-matched file appears without a content hit")
	assert.Equal(t, filepath.Join(dir, "handler.go"), blocks[0].Path)
	assert.Equal(t, 0, blocks[0].StartLine)
}

func TestEmptyResultIsNotError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n")

	blocks := run(t, baseOptions("nonexistentterm", dir))
	assert.Empty(t, blocks)
}

func TestMissingRootFailsInvocation(t *testing.T) {
	_, err := Search(context.Background(), baseOptions("x", "/no/such/dir"))

	var pathErr *proberrors.PathError
	require.ErrorAs(t, err, &pathErr)
}

func TestConfigErrorFailsFast(t *testing.T) {
	opts := baseOptions("x", ".")
	opts.Reranker = "nonsense"
	_, err := Search(context.Background(), opts)

	var cfgErr *proberrors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
}

func TestCancellation(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 50; i++ {
		writeFile(t, dir, filepath.Join("sub", "f"+string(rune('a'+i%26))+".go"),
			"package p\n\nfunc Work() {}\n")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Search(ctx, baseOptions("work", dir))
	assert.True(t, proberrors.IsCancelled(err), "cancelled searches report the explicit outcome")
}

func TestRerankersAllProduceResults(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n\nfunc Score() {}\n\nfunc ScoreAll() { Score() }\n")

	for _, ranker := range []string{"hybrid", "hybrid2", "bm25", "tfidf"} {
		opts := baseOptions("score", dir)
		opts.Reranker = ranker
		blocks := run(t, opts)
		assert.NotEmpty(t, blocks, "ranker %s", ranker)
	}
}

func TestBudgetMonotonicityEndToEnd(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.go", "package a\n\nfunc CacheGet() {}\n\nfunc CachePut() {}\n\nfunc CacheDel() {}\n")

	full := run(t, baseOptions("cache", dir))
	require.NotEmpty(t, full)
	for n := 1; n <= len(full); n++ {
		opts := baseOptions("cache", dir)
		opts.MaxResults = n
		limited := run(t, opts)
		assert.Equal(t, full[:n], limited)
	}
}
