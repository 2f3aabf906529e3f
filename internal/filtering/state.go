// Package filtering decides which records a list view includes.
//
// A non-empty text query switches the filter into text mode, where the
// query is a case-insensitive multiline regular expression matched against
// a fixed list of textual projections of the record. An empty query
// switches to facet mode, where category, classification and visibility
// must all pass. The two modes never compose.
package filtering

import (
	"errors"
	"fmt"
)

// ErrInvalidFilter is matched by every InvalidFilterError.
var ErrInvalidFilter = errors.New("filtering: invalid filter")

// InvalidFilterError reports a search pattern that does not compile.
type InvalidFilterError struct {
	Query string
	Err   error
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("filtering: invalid search pattern %q: %v", e.Query, e.Err)
}

func (e *InvalidFilterError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrInvalidFilter.
func (e *InvalidFilterError) Is(target error) bool { return target == ErrInvalidFilter }

// IndexSet is a set of facet indexes.
type IndexSet map[int64]struct{}

// NewIndexSet returns a set holding the given indexes.
func NewIndexSet(indexes ...int64) IndexSet {
	set := make(IndexSet, len(indexes))
	for _, index := range indexes {
		set[index] = struct{}{}
	}
	return set
}

// FullIndexSet returns the set {0, ..., size-1}.
func FullIndexSet(size int) IndexSet {
	set := make(IndexSet, size)
	for index := 0; index < size; index++ {
		set[int64(index)] = struct{}{}
	}
	return set
}

// Contains reports membership.
func (s IndexSet) Contains(index int64) bool {
	_, ok := s[index]
	return ok
}

// Toggle flips membership of index.
func (s IndexSet) Toggle(index int64) {
	if s.Contains(index) {
		delete(s, index)
		return
	}
	s[index] = struct{}{}
}

// Clone returns an independent copy.
func (s IndexSet) Clone() IndexSet {
	clone := make(IndexSet, len(s))
	for index := range s {
		clone[index] = struct{}{}
	}
	return clone
}

// State is the full set of filter inputs of one list view. For shows,
// ShowHidden is the "show closed shows" toggle and the index sets are unused.
type State struct {
	Query           string
	Categories      IndexSet
	Classifications IndexSet
	ShowHidden      bool
}

// Clone returns a copy that shares no sets with s.
func (s State) Clone() State {
	s.Categories = s.Categories.Clone()
	s.Classifications = s.Classifications.Clone()
	return s
}

// TextMode reports whether the query drives the filter. A non-empty query
// replaces the facet conditions rather than narrowing them.
func (s State) TextMode() bool { return s.Query != "" }
