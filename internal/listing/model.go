// Package listing holds the tabular view model behind the stock and show
// lists: the loaded records, the inclusion vector and the filter state.
//
// A Model is owned by a single view and is not safe for concurrent use.
package listing

import (
	"errors"
	"fmt"
	"iter"

	"github.com/emberline/stockroom/internal/columns"
	"github.com/emberline/stockroom/internal/filtering"
	"github.com/emberline/stockroom/internal/records"
)

// ErrShapeMismatch indicates records or a schema of the wrong shape.
var ErrShapeMismatch = errors.New("listing: shape mismatch")

// Row is one projected, included record.
type Row struct {
	// Index is the record's position in the source list.
	Index    int
	Identity records.Value
	Cells    []string
}

// Config describes the view a model serves.
type Config struct {
	Schema  *columns.Schema
	Profile filtering.Profile
	// CategoryCount and ClassificationCount size the facet domains used by
	// SelectAllFacets.
	CategoryCount       int
	ClassificationCount int
}

// Model keeps records and their inclusion flags index-aligned.
type Model struct {
	schema              *columns.Schema
	profile             filtering.Profile
	categoryCount       int
	classificationCount int

	records   []*records.Record
	inclusion []bool
	state     filtering.State
	filterErr error
}

// New builds an empty model with every facet selected.
func New(cfg Config) (*Model, error) {
	if cfg.Schema == nil || cfg.Profile.Shape == nil {
		return nil, fmt.Errorf("%w: schema and profile are required", ErrShapeMismatch)
	}
	if cfg.Schema.Shape() != cfg.Profile.Shape {
		return nil, fmt.Errorf("%w: schema is for %s, profile is for %s",
			ErrShapeMismatch, cfg.Schema.Shape().Name(), cfg.Profile.Shape.Name())
	}
	return &Model{
		schema:              cfg.Schema,
		profile:             cfg.Profile,
		categoryCount:       cfg.CategoryCount,
		classificationCount: cfg.ClassificationCount,
		state: filtering.State{
			Categories:      filtering.FullIndexSet(cfg.CategoryCount),
			Classifications: filtering.FullIndexSet(cfg.ClassificationCount),
		},
	}, nil
}

// Load replaces the source records and recomputes inclusion under the
// current state. If the current query is invalid nothing is included.
func (m *Model) Load(source []*records.Record) error {
	loaded := make([]*records.Record, len(source))
	for position, record := range source {
		if record.Shape() != m.profile.Shape {
			return fmt.Errorf("%w: record %d is a %s", ErrShapeMismatch, position, record.Shape().Name())
		}
		loaded[position] = record.Clone()
	}
	m.records = loaded
	m.inclusion = make([]bool, len(loaded))
	return m.RefreshFilter(m.state)
}

// RefreshFilter recomputes every inclusion flag. On an invalid pattern the
// previous flags stay in place and the error is returned and retained.
func (m *Model) RefreshFilter(state filtering.State) error {
	m.state = state.Clone()
	matcher, err := filtering.Compile(m.profile, m.state)
	if err != nil {
		m.filterErr = err
		return err
	}
	m.filterErr = nil
	for position, record := range m.records {
		m.inclusion[position] = matcher.Match(record)
	}
	return nil
}

// FilterError returns the error from the latest refresh, if any.
func (m *Model) FilterError() error { return m.filterErr }

// State returns a copy of the current filter state.
func (m *Model) State() filtering.State { return m.state.Clone() }

// Schema returns the column schema.
func (m *Model) Schema() *columns.Schema { return m.schema }

// Len returns the number of source records.
func (m *Model) Len() int { return len(m.records) }

// Record returns a copy of the source record at index.
func (m *Model) Record(index int) (*records.Record, bool) {
	if index < 0 || index >= len(m.records) {
		return nil, false
	}
	return m.records[index].Clone(), true
}

// Inclusion returns a copy of the inclusion vector.
func (m *Model) Inclusion() []bool {
	return append([]bool(nil), m.inclusion...)
}

// VisibleCount returns how many records are included.
func (m *Model) VisibleCount() int {
	count := 0
	for _, included := range m.inclusion {
		if included {
			count++
		}
	}
	return count
}

// VisibleRows yields included records in source order. Each iteration
// projects afresh, so the sequence can be ranged over repeatedly.
func (m *Model) VisibleRows() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for position, record := range m.records {
			if !m.inclusion[position] {
				continue
			}
			row := Row{Index: position, Identity: record.Identity(), Cells: m.schema.Project(record)}
			if !yield(row) {
				return
			}
		}
	}
}

// SelectAllFacets selects every category and classification and refreshes.
func (m *Model) SelectAllFacets() error {
	state := m.state.Clone()
	state.Categories = filtering.FullIndexSet(m.categoryCount)
	state.Classifications = filtering.FullIndexSet(m.classificationCount)
	return m.RefreshFilter(state)
}

// ClearAllFacets deselects every category and classification and refreshes.
func (m *Model) ClearAllFacets() error {
	state := m.state.Clone()
	state.Categories = filtering.NewIndexSet()
	state.Classifications = filtering.NewIndexSet()
	return m.RefreshFilter(state)
}

// SetQuery changes the text query and refreshes.
func (m *Model) SetQuery(query string) error {
	state := m.state.Clone()
	state.Query = query
	return m.RefreshFilter(state)
}

// ToggleCategory flips one category and refreshes.
func (m *Model) ToggleCategory(index int64) error {
	state := m.state.Clone()
	state.Categories.Toggle(index)
	return m.RefreshFilter(state)
}

// ToggleClassification flips one classification and refreshes.
func (m *Model) ToggleClassification(index int64) error {
	state := m.state.Clone()
	state.Classifications.Toggle(index)
	return m.RefreshFilter(state)
}

// SetShowHidden changes the hidden (or closed-show) toggle and refreshes.
func (m *Model) SetShowHidden(show bool) error {
	state := m.state.Clone()
	state.ShowHidden = show
	return m.RefreshFilter(state)
}
