package editing

import (
	"strings"

	"github.com/emberline/stockroom/internal/records"
)

// Rule reports whether a required field's value is acceptable.
type Rule func(records.Value) bool

// Requirement pairs a required field with its acceptance rule.
type Requirement struct {
	Field  records.Field
	Valid  Rule
	Reason string
}

// Policy is the required-field set of one record shape, checked in order.
type Policy struct {
	Shape    *records.Shape
	Required []Requirement
}

// NotNull accepts any present value.
func NotNull(value records.Value) bool { return !value.IsNull() }

// NotBlank accepts text that is non-empty after trimming whitespace.
func NotBlank(value records.Value) bool {
	return strings.TrimSpace(value.Text()) != ""
}

// HasText accepts values whose text form is non-empty.
func HasText(value records.Value) bool { return value.Text() != "" }

// Decided accepts the tri-state values 0, 1 and the undecided sentinel 2.
// Only null counts as missing.
func Decided(value records.Value) bool {
	state, ok := value.Int64()
	if !ok {
		return false
	}
	return state == records.HiddenNo || state == records.HiddenYes || state == records.HiddenUndecided
}

// NotBlankChoice rejects null and the trailing blank entry of choices.
func NotBlankChoice(choices []string) Rule {
	blank := int64(len(choices) - 1)
	return func(value records.Value) bool {
		index, ok := value.Int64()
		if !ok {
			return false
		}
		return len(choices) == 0 || index != blank
	}
}

// StockPolicy is the required-field set for stock items. The facet choice
// lists must end with their blank entry.
func StockPolicy(categories, classifications []string) Policy {
	return Policy{
		Shape: records.StockItem,
		Required: []Requirement{
			{Field: records.Description, Valid: NotBlank, Reason: "must not be blank"},
			{Field: records.Category, Valid: NotBlankChoice(categories), Reason: "must be chosen"},
			{Field: records.Classification, Valid: NotBlankChoice(classifications), Reason: "must be chosen"},
			{Field: records.Hidden, Valid: Decided, Reason: "must be decided"},
			{Field: records.StockOnHand, Valid: HasText, Reason: "is required"},
		},
	}
}

// ShowPolicy is the required-field set for shows.
func ShowPolicy() Policy {
	return Policy{
		Shape: records.Show,
		Required: []Requirement{
			{Field: records.ShowTitle, Valid: NotBlank, Reason: "must not be blank"},
			{Field: records.DateTime, Valid: NotNull, Reason: "is required"},
			{Field: records.Supervisor, Valid: NotNull, Reason: "is required"},
			{Field: records.Complete, Valid: NotNull, Reason: "is required"},
		},
	}
}
