package types

import (
	"sort"
	"time"

	"github.com/moznion/go-optional"
)

// Prediction is one model output for a (symbol, time) under a hyperparameter value.
type Prediction struct {
	Symbol string
	Time   time.Time
	// Param is the hyperparameter label the model was trained with (e.g. a lookahead).
	Param string
	// Predicted is the predicted return.
	Predicted float64
	// Actual is the realized return, absent for out-of-sample rows.
	Actual optional.Option[float64]
}

// SignalRecord is a joined row: a price bar with the signal score, if any.
type SignalRecord struct {
	Symbol string
	Time   time.Time
	// Score is absent when no prediction exists for this (symbol, time).
	Score optional.Option[float64]
	// Bar is absent when the signal was not joined with a price row.
	Bar optional.Option[MarketData]
}

// CrossSection is the set of signal records sharing one timestamp.
type CrossSection struct {
	Time    time.Time
	Records []SignalRecord
}

// Scored returns the records that carry a score.
func (c CrossSection) Scored() []SignalRecord {
	scored := make([]SignalRecord, 0, len(c.Records))

	for _, record := range c.Records {
		if record.Score.IsSome() {
			scored = append(scored, record)
		}
	}

	return scored
}

// Filter returns a copy of the cross-section keeping records accepted by keep.
func (c CrossSection) Filter(keep func(SignalRecord) bool) CrossSection {
	out := CrossSection{Time: c.Time, Records: make([]SignalRecord, 0, len(c.Records))}

	for _, record := range c.Records {
		if keep(record) {
			out.Records = append(out.Records, record)
		}
	}

	return out
}

// GroupCrossSections groups records by timestamp, ordered by time.
// Records keep their input order inside each group.
func GroupCrossSections(records []SignalRecord) []CrossSection {
	index := make(map[int64]int)

	var sections []CrossSection

	for _, record := range records {
		key := record.Time.UnixNano()

		i, ok := index[key]
		if !ok {
			i = len(sections)
			index[key] = i
			sections = append(sections, CrossSection{Time: record.Time, Records: nil})
		}

		sections[i].Records = append(sections[i].Records, record)
	}

	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].Time.Before(sections[j].Time)
	})

	return sections
}
