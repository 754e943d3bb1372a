// Package filings turns raw SEC filing text into item sections, cleaned
// sentences and token vocabularies.
package filings

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/rxtech-lab/argo-research/internal/types"
	"github.com/rxtech-lab/argo-research/pkg/errors"
)

// DefaultDelimiter separates sections in the raw filing text.
const DefaultDelimiter = "°"

const sectionHeader = "item"

var (
	itemCode     = regexp.MustCompile(`^([0-9]{1,2})([a-z]?)$`)
	codeStripper = strings.NewReplacer(".", "", ":", "", ",", "")
)

// ExtractSections splits a filing into item sections. Text is lowercased and
// split on delimiter. A section whose first word is "item" is a header: the
// next word, stripped of '.', ':' and ',', is the item code and the remaining
// words are the text. When an item code appears more than once the longest
// text wins, so a table-of-contents entry loses to the real section.
//
// Headers without a usable code are returned as MalformedSectionHeaderError
// values next to the sections; they never stop the extraction.
func ExtractSections(document string, text string, delimiter string) ([]types.Section, []error) {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}

	longest := make(map[string]string)

	var malformed []error

	for index, section := range strings.Split(strings.ToLower(text), delimiter) {
		words := strings.Fields(section)
		if len(words) == 0 || words[0] != sectionHeader {
			continue
		}

		if len(words) < 2 {
			malformed = append(malformed, errors.NewMalformedSectionHeaderError(document, index, section))

			continue
		}

		code := codeStripper.Replace(words[1])
		if !itemCode.MatchString(code) {
			malformed = append(malformed, errors.NewMalformedSectionHeaderError(document, index, strings.Join(words, " ")))

			continue
		}

		body := strings.Join(words[2:], " ")
		if body == "" {
			continue
		}

		if current, ok := longest[code]; !ok || len(body) > len(current) {
			longest[code] = body
		}
	}

	sections := make([]types.Section, 0, len(longest))
	for code, body := range longest {
		sections = append(sections, types.Section{Item: code, Text: body})
	}

	sort.Slice(sections, func(i, j int) bool {
		return itemLess(sections[i].Item, sections[j].Item)
	})

	return sections, malformed
}

// itemLess orders item codes naturally: 1, 1a, 1b, 2, ..., 7, 7a, 10.
func itemLess(a, b string) bool {
	ma := itemCode.FindStringSubmatch(a)
	mb := itemCode.FindStringSubmatch(b)

	if ma == nil || mb == nil {
		return a < b
	}

	na, _ := strconv.Atoi(ma[1])
	nb, _ := strconv.Atoi(mb[1])

	if na != nb {
		return na < nb
	}

	return ma[2] < mb[2]
}
