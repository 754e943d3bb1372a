// Package phrases builds multi-word phrase vocabularies by repeatedly merging
// adjacent tokens with a high normalized pointwise mutual information.
package phrases

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"
)

// CorpusFile is the corpus path of n-gram level n inside dir.
func CorpusFile(dir string, n int) string {
	return filepath.Join(dir, fmt.Sprintf("ngrams_%d.txt", n))
}

type bigram struct {
	a, b string
}

// Counts holds the unigram and adjacent bigram frequencies of a corpus.
type Counts struct {
	Unigrams map[string]int
	bigrams  map[bigram]int
	// Words is the total number of tokens in the corpus.
	Words int
}

// NewCounts returns empty counts.
func NewCounts() *Counts {
	return &Counts{
		Unigrams: map[string]int{},
		bigrams:  map[bigram]int{},
		Words:    0,
	}
}

// Add counts one tokenized sentence.
func (c *Counts) Add(tokens []string) {
	for i, token := range tokens {
		c.Unigrams[token]++
		c.Words++

		if i > 0 {
			c.bigrams[bigram{a: tokens[i-1], b: token}]++
		}
	}
}

// Bigram returns the frequency of the adjacent pair a b.
func (c *Counts) Bigram(a, b string) int {
	return c.bigrams[bigram{a: a, b: b}]
}

// NPMI scores the pair a b by normalized pointwise mutual information, with
// probabilities taken over the total word count. Pairs seen fewer than
// minCount times score negative infinity.
func (c *Counts) NPMI(a, b string, minCount int) float64 {
	count := c.Bigram(a, b)
	if count == 0 || count < minCount || c.Words == 0 {
		return math.Inf(-1)
	}

	words := float64(c.Words)
	pa := float64(c.Unigrams[a]) / words
	pb := float64(c.Unigrams[b]) / words
	pab := float64(count) / words

	return math.Log(pab/(pa*pb)) / -math.Log(pab)
}

// Merger rewrites sentences by joining qualifying pairs.
type Merger struct {
	counts    *Counts
	minCount  int
	threshold float64
	delimiter string
}

// NewMerger creates a merger over counts.
func NewMerger(counts *Counts, minCount int, threshold float64, delimiter string) *Merger {
	return &Merger{
		counts:    counts,
		minCount:  minCount,
		threshold: threshold,
		delimiter: delimiter,
	}
}

// Found is one merged pair and its score.
type Found struct {
	Token string
	Score float64
}

// Merge walks tokens left to right and joins each pair scoring above the
// threshold. A merged token is not merged again within the same pass.
func (m *Merger) Merge(tokens []string) ([]string, []Found) {
	out := make([]string, 0, len(tokens))

	var found []Found

	pending := ""

	for _, token := range tokens {
		if pending == "" {
			pending = token

			continue
		}

		score := m.counts.NPMI(pending, token, m.minCount)
		if score > m.threshold {
			merged := pending + m.delimiter + token
			out = append(out, merged)
			found = append(found, Found{Token: merged, Score: score})
			pending = ""

			continue
		}

		out = append(out, pending)
		pending = token
	}

	if pending != "" {
		out = append(out, pending)
	}

	return out, found
}

// phraseText turns a merged token back into words.
func phraseText(token string, delimiter string) string {
	return strings.ReplaceAll(token, delimiter, " ")
}
