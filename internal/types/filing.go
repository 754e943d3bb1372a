package types

// Section is one retained item of a filing.
type Section struct {
	Item string `csv:"item"`
	Text string `csv:"text"`
}

// SentenceRow is one cleaned sentence of a filing item.
type SentenceRow struct {
	Item     string `csv:"item"`
	Sentence int    `csv:"sentence"`
	Text     string `csv:"text"`
}

// Phrase is a scored multi-word phrase detected at one n-gram level.
type Phrase struct {
	// Phrase is the merged token with the delimiter replaced by spaces.
	Phrase string  `json:"phrase" csv:"phrase"`
	Score  float64 `json:"score" csv:"score"`
	// Length is the builder level that produced the phrase.
	Length int `json:"length" csv:"length"`
	// NGram is the number of words in the phrase.
	NGram int `json:"ngram" csv:"ngram"`
}
