package filings

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rxtech-lab/argo-research/internal/logger"
	"github.com/rxtech-lab/argo-research/internal/store"
	"github.com/rxtech-lab/argo-research/internal/types"
	"github.com/stretchr/testify/suite"
)

type VocabularyTestSuite struct {
	suite.Suite
}

func TestVocabularySuite(t *testing.T) {
	suite.Run(t, new(VocabularyTestSuite))
}

func (suite *VocabularyTestSuite) TestAddDoesNotChangeReceiver() {
	empty := NewVocabulary()

	first := empty.Add([]types.SentenceRow{
		{Item: "1", Sentence: 0, Text: "revenue growth revenue"},
		{Item: "7", Sentence: 0, Text: "liquidity"},
	})
	second := first.Add([]types.SentenceRow{
		{Item: "1", Sentence: 0, Text: "growth"},
	})

	suite.Equal(0, empty.Documents())
	suite.Equal(0, empty.Size())

	suite.Equal(1, first.Documents())
	suite.Equal(1, first.Count("growth"))

	suite.Equal(2, second.Documents())
	suite.Equal(2, second.Count("growth"))
	suite.Equal(2, second.Count("revenue"))
	suite.Equal(0, second.Count("missing"))
}

func (suite *VocabularyTestSuite) TestZeroValueAdd() {
	var v Vocabulary

	next := v.Add([]types.SentenceRow{{Item: "1", Text: "growth"}})
	suite.Equal(1, next.Count("growth"))
}

func (suite *VocabularyTestSuite) TestOrdering() {
	v := NewVocabulary().Add([]types.SentenceRow{
		{Item: "10", Text: "beta alpha"},
		{Item: "1a", Text: "alpha gamma"},
		{Item: "2", Text: "alpha beta"},
		{Item: "2", Text: "delta"},
	})

	suite.Equal([]TokenCount{
		{Token: "alpha", Count: 3},
		{Token: "beta", Count: 2},
		{Token: "delta", Count: 1},
		{Token: "gamma", Count: 1},
	}, v.Tokens())

	suite.Equal([]ItemCount{
		{Item: "1a", Sentences: 1},
		{Item: "2", Sentences: 2},
		{Item: "10", Sentences: 1},
	}, v.Sentences())
}

func (suite *VocabularyTestSuite) TestSaveVocabulary() {
	s, err := store.Open(":memory:", store.Options{}, logger.NewNopLogger())
	suite.Require().NoError(err)
	defer s.Close()

	v := NewVocabulary().Add([]types.SentenceRow{
		{Item: "1", Text: "alpha beta"},
		{Item: "7", Text: "alpha"},
	})
	suite.Require().NoError(SaveVocabulary(s, v))

	tokens, err := s.Count(TokensKey)
	suite.Require().NoError(err)
	suite.Equal(2, tokens)

	items, err := s.Count(SentencesKey)
	suite.Require().NoError(err)
	suite.Equal(2, items)
}

func (suite *VocabularyTestSuite) TestExportVocabulary() {
	s, err := store.Open(":memory:", store.Options{}, logger.NewNopLogger())
	suite.Require().NoError(err)
	defer s.Close()

	dir := filepath.Join(suite.T().TempDir(), "vocab")

	_, err = ExportVocabulary(s, dir)
	suite.Require().Error(err)

	v := NewVocabulary().Add([]types.SentenceRow{{Item: "1", Text: "alpha beta"}})
	suite.Require().NoError(SaveVocabulary(s, v))

	paths, err := ExportVocabulary(s, dir)
	suite.Require().NoError(err)
	suite.Equal([]string{
		filepath.Join(dir, "sentences.parquet"),
		filepath.Join(dir, "tokens.parquet"),
	}, paths)

	for _, path := range paths {
		info, err := os.Stat(path)
		suite.Require().NoError(err)
		suite.Positive(info.Size())
	}
}
