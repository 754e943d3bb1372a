package filings

import (
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
	"github.com/rxtech-lab/argo-research/pkg/errors"
)

// DefaultMinSentenceTokens is the minimum number of kept tokens per sentence.
const DefaultMinSentenceTokens = 5

// dropTags are part-of-speech tags never kept: symbols, foreign words, list
// markers, numbers and punctuation.
var dropTags = map[string]struct{}{
	"SYM": {}, "FW": {}, "LS": {}, "CD": {},
	".": {}, ",": {}, ":": {}, "(": {}, ")": {}, "``": {}, "''": {}, "#": {}, "$": {},
}

// Tokenizer splits section text into cleaned sentences. The tagging model is
// loaded once and shared by every document the tokenizer creates.
type Tokenizer struct {
	stopwords         Stopwords
	minSentenceTokens int
	model             *prose.Model
}

// NewTokenizer creates a tokenizer. A minSentenceTokens below 1 keeps every
// non-empty sentence.
func NewTokenizer(stopwords Stopwords, minSentenceTokens int) *Tokenizer {
	if stopwords == nil {
		stopwords = DefaultStopwords()
	}

	return &Tokenizer{
		stopwords:         stopwords,
		minSentenceTokens: minSentenceTokens,
		model:             loadModel(),
	}
}

// loadModel decodes the default tagging model. A nil model makes prose load
// its default on every document.
func loadModel() *prose.Model {
	base, err := prose.NewDocument("",
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil
	}

	return base.Model
}

func (t *Tokenizer) document(text string, opts ...prose.DocOpt) (*prose.Document, error) {
	if t.model != nil {
		opts = append(opts, prose.UsingModel(t.model))
	}

	return prose.NewDocument(text, opts...)
}

// Tokenize segments text into sentences and returns the kept tokens of each
// sentence that has at least the minimum number of them. Tokens are kept when
// they are purely alphabetic, not stopwords and not tagged as a symbol or
// punctuation; kept tokens are lowercased.
func (t *Tokenizer) Tokenize(text string) ([][]string, error) {
	doc, err := t.document(text,
		prose.WithTokenization(false),
		prose.WithTagging(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTokenizeFailed, "failed to segment text", err)
	}

	var sentences [][]string

	for _, sentence := range doc.Sentences() {
		tokens, err := t.tokens(sentence.Text)
		if err != nil {
			return nil, err
		}

		if len(tokens) == 0 || len(tokens) < t.minSentenceTokens {
			continue
		}

		sentences = append(sentences, tokens)
	}

	return sentences, nil
}

func (t *Tokenizer) tokens(sentence string) ([]string, error) {
	doc, err := t.document(sentence,
		prose.WithSegmentation(false),
		prose.WithExtraction(false),
	)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeTokenizeFailed, "failed to tag sentence", err)
	}

	kept := make([]string, 0, len(doc.Tokens()))

	for _, token := range doc.Tokens() {
		if _, drop := dropTags[token.Tag]; drop {
			continue
		}

		if !alphabetic(token.Text) || t.stopwords.Contains(token.Text) {
			continue
		}

		kept = append(kept, strings.ToLower(token.Text))
	}

	return kept, nil
}

func alphabetic(word string) bool {
	if word == "" {
		return false
	}

	for _, r := range word {
		if !unicode.IsLetter(r) {
			return false
		}
	}

	return true
}
