// Package extract turns arbitrary dealer inventory HTML into listing records.
// It assumes no template: any container whose visible text carries a model
// year, a dollar price and a mileage is treated as one listing.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	yearRegex    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
	priceRegex   = regexp.MustCompile(`\$\d{1,3}(,\d{3})*(\.\d{2})?`)
	mileageRegex = regexp.MustCompile(`(?i)\d{1,3}(,\d{3})* miles`)
)

// Fields holds the pattern-matched values of one text block. A nil field was
// not found or did not parse.
type Fields struct {
	Year    *int
	Price   *int
	Mileage *int
}

// Complete reports whether all three fields resolved.
func (f Fields) Complete() bool {
	return f.Year != nil && f.Price != nil && f.Mileage != nil
}

// ExtractFields runs the year, price and mileage matchers independently
// against text. It never fails; unmatched fields stay nil.
func ExtractFields(text string) Fields {
	return Fields{
		Year:    parseYear(text),
		Price:   parsePrice(text),
		Mileage: parseMileage(text),
	}
}

func parseYear(text string) *int {
	match := yearRegex.FindString(text)
	if match == "" {
		return nil
	}
	return atoi(match)
}

// parsePrice drops the symbol and separators; cents are truncated.
func parsePrice(text string) *int {
	match := priceRegex.FindString(text)
	if match == "" {
		return nil
	}
	digits := strings.TrimPrefix(match, "$")
	if dot := strings.IndexByte(digits, '.'); dot >= 0 {
		digits = digits[:dot]
	}
	return atoi(strings.ReplaceAll(digits, ",", ""))
}

func parseMileage(text string) *int {
	match := mileageRegex.FindString(text)
	if match == "" {
		return nil
	}
	digits := match[:len(match)-len(" miles")]
	return atoi(strings.ReplaceAll(digits, ",", ""))
}

// atoi returns nil for values that overflow int.
func atoi(s string) *int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}
