package filtering

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/emberline/stockroom/internal/records"
)

// Profile describes how one record shape is filtered.
type Profile struct {
	Shape *records.Shape
	// Text returns the projections searched in text mode, in match order.
	Text func(*records.Record) []string
	// Facets decides inclusion in facet mode.
	Facets func(*records.Record, State) bool
}

// StockProfile filters stock items.
var StockProfile = mustProfile(Profile{
	Shape: records.StockItem,
	Text: func(record *records.Record) []string {
		return []string{
			zeroPadded(record.Lookup(records.SKU)),
			lowered(record.Lookup(records.Description)),
			lowered(record.Lookup(records.HSENo)),
			lowered(record.Lookup(records.CENo)),
			lowered(record.Lookup(records.SerialNo)),
			lowered(record.Lookup(records.Notes)),
			lowered(record.Lookup(records.ProductID)),
		}
	},
	Facets: func(record *records.Record, state State) bool {
		category, ok := record.Lookup(records.Category).Int64()
		if !ok || !state.Categories.Contains(category) {
			return false
		}
		classification, ok := record.Lookup(records.Classification).Int64()
		if !ok || !state.Classifications.Contains(classification) {
			return false
		}
		return !records.IsHidden(record) || state.ShowHidden
	},
}, records.SKU, records.Description, records.HSENo, records.CENo, records.SerialNo,
	records.Notes, records.ProductID, records.Category, records.Classification, records.Hidden)

// ShowProfile filters shows. Facet mode keeps open shows, and closed shows
// only when ShowHidden is set.
var ShowProfile = mustProfile(Profile{
	Shape: records.Show,
	Text: func(record *records.Record) []string {
		return []string{
			zeroPadded(record.Lookup(records.ShowID)),
			lowered(record.Lookup(records.ShowTitle)),
			lowered(record.Lookup(records.ShowDescription)),
			lowered(record.Lookup(records.Supervisor)),
		}
	},
	Facets: func(record *records.Record, state State) bool {
		complete, _ := record.Lookup(records.Complete).Boolean()
		return !complete || state.ShowHidden
	},
}, records.ShowID, records.ShowTitle, records.ShowDescription, records.Supervisor, records.Complete)

func mustProfile(profile Profile, fields ...records.Field) Profile {
	if err := profile.Shape.Check(fields...); err != nil {
		panic(err)
	}
	return profile
}

func zeroPadded(value records.Value) string {
	if id, ok := value.Int64(); ok {
		return fmt.Sprintf("%06d", id)
	}
	return ""
}

func lowered(value records.Value) string {
	return strings.ToLower(value.Text())
}

// Matcher evaluates one compiled filter state against records.
type Matcher struct {
	profile Profile
	state   State
	pattern *regexp.Regexp
}

// Compile prepares state for repeated evaluation. A query that is not a
// valid pattern yields an *InvalidFilterError.
func Compile(profile Profile, state State) (*Matcher, error) {
	matcher := &Matcher{profile: profile, state: state}
	if !state.TextMode() {
		return matcher, nil
	}
	pattern, err := regexp.Compile("(?im)" + state.Query)
	if err != nil {
		return nil, &InvalidFilterError{Query: state.Query, Err: err}
	}
	matcher.pattern = pattern
	return matcher, nil
}

// Match reports whether the record is included.
func (m *Matcher) Match(record *records.Record) bool {
	if m.pattern == nil {
		return m.profile.Facets(record, m.state)
	}
	for _, projection := range m.profile.Text(record) {
		if m.pattern.MatchString(projection) {
			return true
		}
	}
	return false
}

// Evaluate compiles state and applies it to a single record.
func Evaluate(profile Profile, record *records.Record, state State) (bool, error) {
	matcher, err := Compile(profile, state)
	if err != nil {
		return false, err
	}
	return matcher.Match(record), nil
}
