package phrases

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rxtech-lab/argo-research/internal/logger"
	"github.com/rxtech-lab/argo-research/internal/store"
	"github.com/rxtech-lab/argo-research/internal/types"
	"github.com/rxtech-lab/argo-research/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type PhrasesTestSuite struct {
	suite.Suite
	dir string
	log *logger.Logger
}

func TestPhrasesSuite(t *testing.T) {
	suite.Run(t, new(PhrasesTestSuite))
}

func (suite *PhrasesTestSuite) SetupTest() {
	suite.dir = suite.T().TempDir()
	suite.log = logger.NewNopLogger()
}

// writeCorpus writes the unigram corpus used by most tests.
func (suite *PhrasesTestSuite) writeCorpus() {
	var lines []string

	repeat := func(line string, n int) {
		for i := 0; i < n; i++ {
			lines = append(lines, line)
		}
	}

	repeat("interest rate", 30)
	repeat("company growth", 40)
	repeat("company sales", 200)
	repeat("strong growth", 200)
	repeat("net income", 10)

	err := os.WriteFile(CorpusFile(suite.dir, 1), []byte(strings.Join(lines, "\n")+"\n"), 0644)
	suite.Require().NoError(err)
}

func (suite *PhrasesTestSuite) config(maxLength int) Config {
	config := DefaultConfig()
	config.MaxLength = maxLength

	return config
}

func phraseMap(phrases []types.Phrase) map[string]types.Phrase {
	out := make(map[string]types.Phrase, len(phrases))
	for _, p := range phrases {
		out[p.Phrase] = p
	}

	return out
}

func (suite *PhrasesTestSuite) TestCorpusFile() {
	suite.Equal(filepath.Join("corpus", "ngrams_3.txt"), CorpusFile("corpus", 3))
}

func (suite *PhrasesTestSuite) TestNPMI() {
	counts := NewCounts()
	for i := 0; i < 30; i++ {
		counts.Add([]string{"a", "b", "c"})
	}

	suite.Equal(90, counts.Words)
	suite.Equal(30, counts.Bigram("a", "b"))
	suite.Equal(0, counts.Bigram("a", "c"))

	suite.InDelta(1.0, counts.NPMI("a", "b", 1), 1e-9)
	suite.True(math.IsInf(counts.NPMI("a", "c", 1), -1))
	suite.True(math.IsInf(counts.NPMI("a", "b", 31), -1))
	suite.True(math.IsInf(NewCounts().NPMI("a", "b", 1), -1))
}

func (suite *PhrasesTestSuite) TestMergeDoesNotRemergeInSamePass() {
	counts := NewCounts()
	for i := 0; i < 30; i++ {
		counts.Add([]string{"a", "b", "c"})
	}

	merger := NewMerger(counts, 1, 0.5, "_")
	merged, found := merger.Merge([]string{"a", "b", "c"})

	suite.Equal([]string{"a_b", "c"}, merged)
	suite.Require().Len(found, 1)
	suite.Equal("a_b", found[0].Token)

	merged, found = merger.Merge([]string{"c", "a"})
	suite.Equal([]string{"c", "a"}, merged)
	suite.Empty(found)
}

func (suite *PhrasesTestSuite) TestBuildSingleLevel() {
	suite.writeCorpus()

	builder, err := NewBuilder(suite.config(2), suite.dir, suite.log)
	suite.Require().NoError(err)

	phrases, err := builder.Run(context.Background())
	suite.Require().NoError(err)

	found := phraseMap(phrases)
	suite.Len(found, 3)

	suite.Contains(found, "interest rate")
	suite.Contains(found, "company sales")
	suite.Contains(found, "strong growth")
	suite.NotContains(found, "company growth")
	suite.NotContains(found, "net income")

	suite.InDelta(1.0, found["interest rate"].Score, 1e-9)
	suite.InDelta(math.Log(4)/math.Log(960.0/200.0), found["company sales"].Score, 1e-9)
	suite.Equal(2, found["interest rate"].Length)
	suite.Equal(2, found["interest rate"].NGram)

	suite.Equal("interest rate", phrases[0].Phrase)
	for i := 1; i < len(phrases); i++ {
		suite.GreaterOrEqual(phrases[i-1].Score, phrases[i].Score)
	}

	content, err := os.ReadFile(CorpusFile(suite.dir, 2))
	suite.Require().NoError(err)
	suite.Contains(string(content), "interest_rate\n")
	suite.Contains(string(content), "company growth\n")
	suite.Contains(string(content), "net income\n")

	_, err = os.Stat(CorpusFile(suite.dir, 2) + ".tmp")
	suite.True(os.IsNotExist(err))
}

func (suite *PhrasesTestSuite) TestBuildSecondLevel() {
	suite.writeCorpus()

	builder, err := NewBuilder(suite.config(3), suite.dir, suite.log)
	suite.Require().NoError(err)

	phrases, err := builder.Run(context.Background())
	suite.Require().NoError(err)

	found := phraseMap(phrases)
	suite.Require().Contains(found, "company growth")
	suite.Equal(3, found["company growth"].Length)
	suite.Equal(2, found["company growth"].NGram)
	suite.NotContains(found, "net income")

	_, err = os.Stat(CorpusFile(suite.dir, 3))
	suite.NoError(err)
}

func (suite *PhrasesTestSuite) TestExistingLevelIsNotRewritten() {
	suite.writeCorpus()

	existing := CorpusFile(suite.dir, 2)
	suite.Require().NoError(os.WriteFile(existing, []byte("kept\n"), 0644))

	builder, err := NewBuilder(suite.config(2), suite.dir, suite.log)
	suite.Require().NoError(err)

	phrases, err := builder.Run(context.Background())
	suite.Require().NoError(err)
	suite.Len(phrases, 3)

	content, err := os.ReadFile(existing)
	suite.Require().NoError(err)
	suite.Equal("kept\n", string(content))
}

func (suite *PhrasesTestSuite) TestStaleLevelIsRebuilt() {
	suite.writeCorpus()

	stale := time.Now().Add(-time.Hour)

	for n, content := range map[int]string{2: "old\n", 3: "older\n"} {
		path := CorpusFile(suite.dir, n)
		suite.Require().NoError(os.WriteFile(path, []byte(content), 0644))
		suite.Require().NoError(os.Chtimes(path, stale, stale))
	}

	builder, err := NewBuilder(suite.config(3), suite.dir, suite.log)
	suite.Require().NoError(err)

	phrases, err := builder.Run(context.Background())
	suite.Require().NoError(err)
	suite.Contains(phraseMap(phrases), "company growth")

	second, err := os.ReadFile(CorpusFile(suite.dir, 2))
	suite.Require().NoError(err)
	suite.Contains(string(second), "company_sales")

	third, err := os.ReadFile(CorpusFile(suite.dir, 3))
	suite.Require().NoError(err)
	suite.NotEqual("older\n", string(third))
}

func (suite *PhrasesTestSuite) TestMissingCorpus() {
	builder, err := NewBuilder(suite.config(2), suite.dir, suite.log)
	suite.Require().NoError(err)

	_, err = builder.Run(context.Background())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeCorpusMissing))
}

func (suite *PhrasesTestSuite) TestEmptyCorpus() {
	suite.Require().NoError(os.WriteFile(CorpusFile(suite.dir, 1), []byte("\n\n"), 0644))

	builder, err := NewBuilder(suite.config(2), suite.dir, suite.log)
	suite.Require().NoError(err)

	_, err = builder.Run(context.Background())
	suite.Require().Error(err)
	suite.True(errors.HasCode(err, errors.ErrCodeCorpusEmpty))
}

func (suite *PhrasesTestSuite) TestCancelled() {
	suite.writeCorpus()

	builder, err := NewBuilder(suite.config(2), suite.dir, suite.log)
	suite.Require().NoError(err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = builder.Run(ctx)
	suite.True(errors.HasCode(err, errors.ErrCodeCancelled))
}

func (suite *PhrasesTestSuite) TestInvalidConfig() {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{name: "min count", mutate: func(c *Config) { c.MinCount = 0 }},
		{name: "threshold", mutate: func(c *Config) { c.Threshold = 1.5 }},
		{name: "max length", mutate: func(c *Config) { c.MaxLength = 1 }},
		{name: "delimiter", mutate: func(c *Config) { c.Delimiter = "" }},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			config := DefaultConfig()
			tc.mutate(&config)

			_, err := NewBuilder(config, suite.dir, suite.log)
			suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
		})
	}
}

func (suite *PhrasesTestSuite) TestSavePhrases() {
	s, err := store.Open(":memory:", store.Options{}, suite.log)
	suite.Require().NoError(err)
	defer s.Close()

	err = SavePhrases(s, []types.Phrase{
		{Phrase: "interest rate", Score: 1, Length: 2, NGram: 2},
		{Phrase: "company growth", Score: 0.7, Length: 3, NGram: 2},
	})
	suite.Require().NoError(err)

	count, err := s.Count(PhrasesKey)
	suite.Require().NoError(err)
	suite.Equal(2, count)
}
