// Package search provides a small, deterministic in-memory token index used
// by the admin list views to filter records by free text.
//
// Documents are identified by an opaque Ref (a record id, or the record's
// position when it has none). Scoring is query coverage: the share of query
// tokens that appear in the document, where a query token also matches any
// document token it prefixes. Tokens are Unicode case-folded, so "ÖZIL" and
// "özil" compare equal.
//
// An Index is immutable after construction and safe for concurrent use.
package search

import (
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Doc is one searchable record.
type Doc struct {
	Ref  string
	Text string
}

// Result is a matched document with its coverage score in (0, 1].
type Result struct {
	Ref   string
	Score float64
}

// Option configures an Index.
type Option func(*config)

type config struct {
	stopwords map[string]struct{}
	minPrefix int
}

func defaultConfig() config {
	return config{minPrefix: 3}
}

// WithStopwords drops the given words from both documents and queries.
func WithStopwords(words []string) Option {
	return func(c *config) {
		m := make(map[string]struct{}, len(words))
		for _, w := range words {
			w = fold(strings.TrimSpace(w))
			if w != "" {
				m[w] = struct{}{}
			}
		}
		if len(m) > 0 {
			c.stopwords = m
		}
	}
}

// WithMinPrefix sets the shortest query token that may match as a prefix.
// Shorter tokens must match exactly. Zero disables prefix matching.
func WithMinPrefix(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minPrefix = n
		}
	}
}

type doc struct {
	ref    string
	pos    int
	tokens map[string]struct{}
}

// Index matches queries against a fixed set of documents.
type Index struct {
	cfg  config
	docs []doc
}

// New builds an Index. Documents with no tokens are skipped.
func New(docs []Doc, opts ...Option) *Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	out := make([]doc, 0, len(docs))
	for i, d := range docs {
		toks := tokenize(d.Text, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		out = append(out, doc{ref: d.Ref, pos: i, tokens: toks})
	}
	return &Index{cfg: cfg, docs: out}
}

// Match returns every document whose coverage is at least threshold, best
// first. Ties keep input order. A blank query matches nothing.
func (i *Index) Match(query string, threshold float64) []Result {
	q := tokenize(query, i.cfg.stopwords)
	if len(q) == 0 || len(i.docs) == 0 {
		return nil
	}
	if threshold <= 0 {
		threshold = 1e-9
	}

	type scored struct {
		ref   string
		pos   int
		score float64
	}
	var buf []scored
	for _, d := range i.docs {
		hit := 0
		for t := range q {
			if i.matches(t, d.tokens) {
				hit++
			}
		}
		if hit == 0 {
			continue
		}
		s := float64(hit) / float64(len(q))
		if s < threshold {
			continue
		}
		buf = append(buf, scored{ref: d.ref, pos: d.pos, score: s})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		return buf[a].pos < buf[b].pos
	})

	out := make([]Result, len(buf))
	for k, s := range buf {
		out[k] = Result{Ref: s.ref, Score: s.score}
	}
	return out
}

func (i *Index) matches(t string, toks map[string]struct{}) bool {
	if _, ok := toks[t]; ok {
		return true
	}
	if i.cfg.minPrefix == 0 || len([]rune(t)) < i.cfg.minPrefix {
		return false
	}
	for d := range toks {
		if strings.HasPrefix(d, t) {
			return true
		}
	}
	return false
}

var wordRE = regexp.MustCompile(`[\p{L}\p{N}]+`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(fold(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if stop != nil {
			if _, skip := stop[w]; skip {
				continue
			}
		}
		out[w] = struct{}{}
	}
	return out
}

// fold applies full Unicode case folding. cases.Caser is stateful, so a new
// one is built per call.
func fold(s string) string {
	return cases.Fold().String(s)
}
