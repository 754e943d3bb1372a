package filings

import (
	"strings"
	"testing"
	"time"
	"unicode"

	"github.com/rxtech-lab/argo-research/internal/types"
	"github.com/stretchr/testify/suite"
)

type TokenizerTestSuite struct {
	suite.Suite
}

func TestTokenizerSuite(t *testing.T) {
	suite.Run(t, new(TokenizerTestSuite))
}

const sampleText = "The Company reported strong revenue growth during the year. Risk exists. " +
	"Our customers purchase products through retail stores and online channels."

func (suite *TokenizerTestSuite) TestTokenize() {
	tokenizer := NewTokenizer(DefaultStopwords(), DefaultMinSentenceTokens)

	sentences, err := tokenizer.Tokenize(sampleText)
	suite.Require().NoError(err)
	suite.Require().Len(sentences, 2)

	suite.Equal([]string{"company", "reported", "strong", "revenue", "growth", "year"}, sentences[0])

	for _, sentence := range sentences {
		suite.GreaterOrEqual(len(sentence), DefaultMinSentenceTokens)

		for _, token := range sentence {
			suite.Equal(strings.ToLower(token), token)
			suite.False(DefaultStopwords().Contains(token), token)

			for _, r := range token {
				suite.True(unicode.IsLetter(r), token)
			}
		}
	}
}

func (suite *TokenizerTestSuite) TestModelLoadedOnce() {
	tokenizer := NewTokenizer(DefaultStopwords(), 1)
	suite.Require().NotNil(tokenizer.model)

	section := strings.Repeat("The company reported strong revenue growth during the year. ", 200)

	start := time.Now()
	sentences, err := tokenizer.Tokenize(section)
	suite.Require().NoError(err)

	suite.Len(sentences, 200)
	suite.Less(time.Since(start), 10*time.Second)
}

func (suite *TokenizerTestSuite) TestShortSentencesKeptWithLowMinimum() {
	tokenizer := NewTokenizer(DefaultStopwords(), 1)

	sentences, err := tokenizer.Tokenize(sampleText)
	suite.Require().NoError(err)
	suite.Len(sentences, 3)
}

func (suite *TokenizerTestSuite) TestNumbersAndSymbolsDropped() {
	tokenizer := NewTokenizer(DefaultStopwords(), 1)

	sentences, err := tokenizer.Tokenize("Revenue increased 12% to $4.5 billion in 2023.")
	suite.Require().NoError(err)

	for _, sentence := range sentences {
		for _, token := range sentence {
			suite.NotContains(token, "12")
			suite.NotContains(token, "$")
			suite.NotContains(token, "2023")
		}
	}
}

func (suite *TokenizerTestSuite) TestCustomStopwords() {
	tokenizer := NewTokenizer(NewStopwords("Revenue"), 1)

	sentences, err := tokenizer.Tokenize("Revenue growth accelerated sharply.")
	suite.Require().NoError(err)
	suite.Require().Len(sentences, 1)
	suite.NotContains(sentences[0], "revenue")
	suite.Contains(sentences[0], "growth")
}

func (suite *TokenizerTestSuite) TestEmptyText() {
	tokenizer := NewTokenizer(nil, DefaultMinSentenceTokens)

	sentences, err := tokenizer.Tokenize("")
	suite.Require().NoError(err)
	suite.Empty(sentences)
}

func (suite *TokenizerTestSuite) TestTokenizeSectionsNumbersSentencesPerItem() {
	tokenizer := NewTokenizer(DefaultStopwords(), 1)

	rows, err := tokenizer.TokenizeSections([]types.Section{
		{Item: "1", Text: "Revenue growth accelerated sharply. Margins expanded considerably."},
		{Item: "7", Text: "Liquidity remained strong."},
	})
	suite.Require().NoError(err)
	suite.Require().Len(rows, 3)

	suite.Equal(types.SentenceRow{Item: "1", Sentence: 0, Text: "revenue growth accelerated sharply"}, rows[0])
	suite.Equal("1", rows[1].Item)
	suite.Equal(1, rows[1].Sentence)
	suite.Equal("7", rows[2].Item)
	suite.Equal(0, rows[2].Sentence)
}
