package inspect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rxtech-lab/argo-research/internal/filings"
	"github.com/rxtech-lab/argo-research/internal/logger"
	"github.com/rxtech-lab/argo-research/internal/store"
	"github.com/rxtech-lab/argo-research/internal/types"
	"github.com/rxtech-lab/argo-research/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type InspectTestSuite struct {
	suite.Suite
	dir   string
	store *store.Store
}

func TestInspectSuite(t *testing.T) {
	suite.Run(t, new(InspectTestSuite))
}

func (suite *InspectTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()

	s, err := store.Open(":memory:", store.Options{}, logger.NewNopLogger())
	suite.Require().NoError(err)

	suite.store = s
}

func (suite *InspectTestSuite) TearDownTest() {
	suite.store.Close()
}

func (suite *InspectTestSuite) writeSentences(name string, content string) {
	suite.Require().NoError(os.WriteFile(filepath.Join(suite.dir, name), []byte(content), 0644))
}

func (suite *InspectTestSuite) TestInspect() {
	suite.writeSentences("a.csv", "item,sentence,text\n1,0,alpha beta\n1,1,alpha beta gamma delta\n7,0,alpha\n")
	suite.writeSentences("b.csv", "item,sentence,text\n1a,0,beta gamma delta\n")

	vocab := filings.NewVocabulary().Add([]types.SentenceRow{
		{Item: "1", Text: "alpha beta alpha beta gamma delta alpha"},
		{Item: "1a", Text: "beta gamma delta"},
	})
	suite.Require().NoError(filings.SaveVocabulary(suite.store, vocab))

	report, err := NewInspector(suite.store, logger.NewNopLogger()).Inspect(suite.dir, 2)
	suite.Require().NoError(err)

	suite.Equal(2, report.Documents)
	suite.Equal(4, report.Sentences)
	suite.Equal([]filings.ItemCount{
		{Item: "1", Sentences: 2},
		{Item: "1a", Sentences: 1},
		{Item: "7", Sentences: 1},
	}, report.Items)

	suite.InDelta(1.0, report.Tokens.Min, 1e-9)
	suite.InDelta(4.0, report.Tokens.Max, 1e-9)
	suite.InDelta(2.5, report.Tokens.Median, 1e-9)
	suite.InDelta(2.5, report.Tokens.Mean, 1e-9)

	suite.Equal([]filings.TokenCount{
		{Token: "alpha", Count: 3},
		{Token: "beta", Count: 3},
	}, report.TopTokens)
}

func (suite *InspectTestSuite) TestWithoutVocabulary() {
	suite.writeSentences("a.csv", "item,sentence,text\n1,0,alpha beta\n")

	report, err := NewInspector(suite.store, logger.NewNopLogger()).Inspect(suite.dir, DefaultTopN)
	suite.Require().NoError(err)

	suite.Equal(1, report.Documents)
	suite.Empty(report.TopTokens)
}

func (suite *InspectTestSuite) TestEmptyDirectory() {
	_, err := NewInspector(suite.store, logger.NewNopLogger()).Inspect(suite.dir, DefaultTopN)
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}
