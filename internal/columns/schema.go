// Package columns maps display labels to record fields and renders rows.
package columns

import (
	"errors"
	"fmt"

	"github.com/emberline/stockroom/internal/records"
)

// ErrDuplicateLabel indicates two columns share a display label.
var ErrDuplicateLabel = errors.New("columns: duplicate label")

// Column binds a display label to a field, a formatter and a preferred width.
type Column struct {
	Label  string
	Field  records.Field
	Format Formatter
	Width  int
}

// Schema is an ordered, validated column list for one record shape.
type Schema struct {
	shape   *records.Shape
	columns []Column
}

// NewSchema validates labels and fields against the shape. Columns without a
// formatter render verbatim.
func NewSchema(shape *records.Shape, columns ...Column) (*Schema, error) {
	seen := make(map[string]struct{}, len(columns))
	owned := make([]Column, len(columns))
	for position, column := range columns {
		if _, duplicate := seen[column.Label]; duplicate {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateLabel, column.Label)
		}
		seen[column.Label] = struct{}{}
		if err := shape.Check(column.Field); err != nil {
			return nil, err
		}
		if column.Format == nil {
			column.Format = Verbatim
		}
		owned[position] = column
	}
	return &Schema{shape: shape, columns: owned}, nil
}

// Shape returns the record shape the schema applies to.
func (s *Schema) Shape() *records.Shape { return s.shape }

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.columns) }

// Labels returns the column labels in display order.
func (s *Schema) Labels() []string {
	labels := make([]string, len(s.columns))
	for position, column := range s.columns {
		labels[position] = column.Label
	}
	return labels
}

// Widths returns the preferred widths in display order.
func (s *Schema) Widths() []int {
	widths := make([]int, len(s.columns))
	for position, column := range s.columns {
		widths[position] = column.Width
	}
	return widths
}

// Project renders one display string per column. Null cells are empty and
// never reach the formatter.
func (s *Schema) Project(record *records.Record) []string {
	cells := make([]string, len(s.columns))
	for position, column := range s.columns {
		value := record.Lookup(column.Field)
		if value.IsNull() {
			continue
		}
		cells[position] = column.Format(value)
	}
	return cells
}

// FitWidths returns column widths where the expand column absorbs whatever
// total leaves after the other columns, never shrinking below its preferred
// width.
func (s *Schema) FitWidths(total, expand int) []int {
	widths := s.Widths()
	if expand < 0 || expand >= len(widths) {
		return widths
	}
	taken := 0
	for position, width := range widths {
		if position != expand {
			taken += width
		}
	}
	if grown := total - taken - 1; grown > widths[expand] {
		widths[expand] = grown
	}
	return widths
}
