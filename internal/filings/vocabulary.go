package filings

import (
	"maps"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rxtech-lab/argo-research/internal/store"
	"github.com/rxtech-lab/argo-research/internal/types"
	"github.com/rxtech-lab/argo-research/pkg/errors"
)

// Logical keys of the vocabulary side tables.
const (
	TokensKey    = "vocab/tokens"
	SentencesKey = "vocab/sentences"
)

// TokenCount is the corpus frequency of one token.
type TokenCount struct {
	Token string
	Count int
}

// ItemCount is the number of kept sentences of one item code.
type ItemCount struct {
	Item      string
	Sentences int
}

// Vocabulary accumulates token frequencies and per-item sentence counts.
// It is a value: Add returns a new Vocabulary and never changes the receiver.
type Vocabulary struct {
	tokens    map[string]int
	sentences map[string]int
	documents int
}

// NewVocabulary returns an empty vocabulary.
func NewVocabulary() Vocabulary {
	return Vocabulary{
		tokens:    map[string]int{},
		sentences: map[string]int{},
		documents: 0,
	}
}

// Add folds one document's sentence rows into a copy of v.
func (v Vocabulary) Add(rows []types.SentenceRow) Vocabulary {
	next := Vocabulary{
		tokens:    maps.Clone(v.tokens),
		sentences: maps.Clone(v.sentences),
		documents: v.documents + 1,
	}

	if next.tokens == nil {
		next.tokens = map[string]int{}
	}

	if next.sentences == nil {
		next.sentences = map[string]int{}
	}

	for _, row := range rows {
		next.sentences[row.Item]++

		for _, token := range strings.Fields(row.Text) {
			next.tokens[token]++
		}
	}

	return next
}

// Documents is the number of documents folded in.
func (v Vocabulary) Documents() int {
	return v.documents
}

// Count returns the frequency of token.
func (v Vocabulary) Count(token string) int {
	return v.tokens[token]
}

// Size is the number of distinct tokens.
func (v Vocabulary) Size() int {
	return len(v.tokens)
}

// Tokens returns the token frequencies, most frequent first, ties by token.
func (v Vocabulary) Tokens() []TokenCount {
	out := make([]TokenCount, 0, len(v.tokens))
	for token, count := range v.tokens {
		out = append(out, TokenCount{Token: token, Count: count})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}

		return out[i].Token < out[j].Token
	})

	return out
}

// Sentences returns the sentence counts per item in natural item order.
func (v Vocabulary) Sentences() []ItemCount {
	out := make([]ItemCount, 0, len(v.sentences))
	for item, count := range v.sentences {
		out = append(out, ItemCount{Item: item, Sentences: count})
	}

	sort.Slice(out, func(i, j int) bool {
		return itemLess(out[i].Item, out[j].Item)
	})

	return out
}

// SaveVocabulary writes the token and sentence side tables to the store.
func SaveVocabulary(s *store.Store, v Vocabulary) error {
	tokens := v.Tokens()
	tokenRows := make([][]any, 0, len(tokens))

	for _, t := range tokens {
		tokenRows = append(tokenRows, []any{t.Token, t.Count})
	}

	err := s.WriteTable(TokensKey, []store.Column{
		{Name: "token", Type: "TEXT"},
		{Name: "count", Type: "BIGINT"},
	}, tokenRows)
	if err != nil {
		return err
	}

	items := v.Sentences()
	itemRows := make([][]any, 0, len(items))

	for _, item := range items {
		itemRows = append(itemRows, []any{item.Item, item.Sentences})
	}

	return s.WriteTable(SentencesKey, []store.Column{
		{Name: "item", Type: "TEXT"},
		{Name: "sentences", Type: "BIGINT"},
	}, itemRows)
}

// ExportVocabulary writes the saved side tables to dir as tokens.parquet and
// sentences.parquet and returns the written paths.
func ExportVocabulary(s *store.Store, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeExportFailed, err, "failed to create %s", dir)
	}

	var paths []string

	for key, name := range map[string]string{TokensKey: "tokens.parquet", SentencesKey: "sentences.parquet"} {
		path := filepath.Join(dir, name)
		if err := s.ExportParquet(key, path); err != nil {
			return nil, err
		}

		paths = append(paths, path)
	}

	sort.Strings(paths)

	return paths, nil
}
