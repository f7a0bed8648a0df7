// Package query turns a raw user query into normalized terms and the
// compiled scan pattern. Frequency mode applies stopword removal and
// Porter2 stemming; exact mode keeps the tokens as typed (lowercased).
package query

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/surgebase/porter2"

	proberrors "github.com/standardbeagle/probe/internal/errors"
)

// Term is a normalized query term. In exact mode Stemmed equals Original.
type Term struct {
	Original string
	Stemmed  string
}

// Query holds the processed term list and compiled patterns for one
// search invocation. Immutable after Process returns.
type Query struct {
	Raw   string
	Exact bool
	Terms []Term

	// Pattern matches any term; used by the file scanner.
	Pattern *regexp.Regexp

	// termPatterns[i] matches only term i; used to record which terms
	// occur on a hit line and in filename tokens.
	termPatterns []*regexp.Regexp

	// keepStopwords is set when the query itself fell back to stopword
	// terms; content tokenization must not drop them in that case.
	keepStopwords bool
}

// Process tokenizes and normalizes the raw query. In frequency mode
// (exact=false) stopwords are removed and terms are stemmed; if stopword
// removal would empty the query, the original lowercased tokens are kept
// so no query becomes empty.
func Process(raw string, exact bool) (*Query, error) {
	tokens := SplitTokens(strings.ToLower(raw))
	if len(tokens) == 0 {
		return nil, proberrors.NewConfigError("pattern", raw, fmt.Errorf("query contains no searchable terms"))
	}

	var terms []Term
	if exact {
		for _, tok := range tokens {
			terms = append(terms, Term{Original: tok, Stemmed: tok})
		}
	} else {
		kept := make([]string, 0, len(tokens))
		for _, tok := range tokens {
			if !IsStopword(tok) {
				kept = append(kept, tok)
			}
		}
		if len(kept) == 0 {
			// Every token was a stopword; fall back to the originals.
			kept = tokens
		}
		for _, tok := range kept {
			terms = append(terms, Term{Original: tok, Stemmed: porter2.Stem(tok)})
		}
	}

	terms = dedupeTerms(terms)

	q := &Query{Raw: raw, Exact: exact, Terms: terms}
	for _, t := range terms {
		if IsStopword(t.Original) {
			q.keepStopwords = true
			break
		}
	}
	if err := q.compile(); err != nil {
		return nil, err
	}
	return q, nil
}

func dedupeTerms(terms []Term) []Term {
	seen := make(map[string]bool, len(terms))
	out := terms[:0]
	for _, t := range terms {
		if seen[t.Original] {
			continue
		}
		seen[t.Original] = true
		out = append(out, t)
	}
	return out
}

// termAlternative builds the regex alternative for one term.
// In exact mode the literal token is anchored on both sides. In frequency
// mode the original and stemmed forms are combined and anchored on either
// side, so the stem still matches longer identifier forms ("process"
// matches "processing" via the leading boundary).
func termAlternative(t Term, exact bool) string {
	if exact {
		return `\b` + regexp.QuoteMeta(t.Original) + `\b`
	}
	base := regexp.QuoteMeta(t.Original)
	if t.Stemmed != t.Original {
		base = "(?:" + regexp.QuoteMeta(t.Original) + "|" + regexp.QuoteMeta(t.Stemmed) + ")"
	}
	return `(?:\b` + base + `|` + base + `\b)`
}

func (q *Query) compile() error {
	alts := make([]string, len(q.Terms))
	q.termPatterns = make([]*regexp.Regexp, len(q.Terms))
	for i, t := range q.Terms {
		alt := termAlternative(t, q.Exact)
		alts[i] = alt
		re, err := regexp.Compile("(?i)" + alt)
		if err != nil {
			return proberrors.NewConfigError("pattern", q.Raw, err)
		}
		q.termPatterns[i] = re
	}
	re, err := regexp.Compile("(?i)(?:" + strings.Join(alts, "|") + ")")
	if err != nil {
		return proberrors.NewConfigError("pattern", q.Raw, err)
	}
	q.Pattern = re
	return nil
}

// MatchTerms returns the indices of all terms whose pattern occurs
// anywhere on the line.
func (q *Query) MatchTerms(line []byte) []int {
	var indices []int
	for i, re := range q.termPatterns {
		if re.Match(line) {
			indices = append(indices, i)
		}
	}
	return indices
}

// NormalizeToken applies the query's normalization to one content token.
// Returns false when the token is dropped (stopword in frequency mode).
func (q *Query) NormalizeToken(tok string) (string, bool) {
	lower := strings.ToLower(tok)
	if q.Exact {
		return lower, true
	}
	if IsStopword(lower) && !q.keepStopwords {
		return "", false
	}
	return porter2.Stem(lower), true
}

// TermIndex maps a normalized content token to a query term index, or -1.
// A token matches a term when it equals the term's original form or
// reduces to the same stem.
func (q *Query) TermIndex(normalized string) int {
	for i, t := range q.Terms {
		if normalized == t.Original || normalized == t.Stemmed {
			return i
		}
	}
	return -1
}

// MatchFilenameTerms returns indices of terms matching any path
// component token of the given path (identifier-aware splitting, so
// "user_service.go" yields "user" and "service").
func (q *Query) MatchFilenameTerms(path string) []int {
	matched := make(map[int]bool)
	for _, tok := range ContentTokens(path) {
		norm, ok := q.NormalizeToken(tok)
		if !ok {
			continue
		}
		if i := q.TermIndex(norm); i >= 0 {
			matched[i] = true
		}
	}
	if len(matched) == 0 {
		return nil
	}
	indices := make([]int, 0, len(matched))
	for i := range q.Terms {
		if matched[i] {
			indices = append(indices, i)
		}
	}
	return indices
}
