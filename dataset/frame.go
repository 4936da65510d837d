// Package dataset fetches, parses and partitions the census income table.
package dataset

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/YuminosukeSato/adultcensus/pkg/errors"
)

// Frame is an immutable table of string cells with named columns.
type Frame struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// NewFrame builds a Frame. Every row must have one cell per column and
// column names must be unique.
func NewFrame(columns []string, rows [][]string) (*Frame, error) {
	if len(columns) == 0 {
		return nil, errors.NewValueError("NewFrame", "no columns")
	}
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, errors.NewValueError("NewFrame", fmt.Sprintf("duplicate column %q", c))
		}
		index[c] = i
	}
	for i, r := range rows {
		if len(r) != len(columns) {
			return nil, errors.NewDimensionError(fmt.Sprintf("NewFrame row %d", i), len(columns), len(r), 1)
		}
	}
	return &Frame{columns: slices.Clone(columns), index: index, rows: rows}, nil
}

// Columns returns the column names in order.
func (f *Frame) Columns() []string {
	return slices.Clone(f.columns)
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.rows)
}

// Row returns a copy of row i.
func (f *Frame) Row(i int) []string {
	return slices.Clone(f.rows[i])
}

// HasColumn reports whether name is a column of f.
func (f *Frame) HasColumn(name string) bool {
	_, ok := f.index[name]
	return ok
}

// Column returns the cells of the named column.
func (f *Frame) Column(name string) ([]string, error) {
	j, ok := f.index[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrMissingColumn, "column %q", name)
	}
	out := make([]string, len(f.rows))
	for i, r := range f.rows {
		out[i] = r[j]
	}
	return out, nil
}

// Float parses the named column as float64 values.
func (f *Frame) Float(name string) ([]float64, error) {
	cells, err := f.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(cells))
	for i, c := range cells {
		v, err := strconv.ParseFloat(c, 64)
		if err != nil {
			return nil, errors.NewValueError("Frame.Float", fmt.Sprintf("column %q row %d: %q is not numeric", name, i, c))
		}
		out[i] = v
	}
	return out, nil
}

// Select returns a Frame with only cols, in the given order.
func (f *Frame) Select(cols ...string) (*Frame, error) {
	idx := make([]int, len(cols))
	for k, c := range cols {
		j, ok := f.index[c]
		if !ok {
			return nil, errors.Wrapf(errors.ErrMissingColumn, "select %q", c)
		}
		idx[k] = j
	}

	rows := make([][]string, len(f.rows))
	for i, r := range f.rows {
		row := make([]string, len(idx))
		for k, j := range idx {
			row[k] = r[j]
		}
		rows[i] = row
	}
	return NewFrame(cols, rows)
}

// Head returns the first n rows (all rows when n exceeds Len).
func (f *Frame) Head(n int) *Frame {
	n = max(0, min(n, len(f.rows)))
	return &Frame{columns: f.columns, index: f.index, rows: f.rows[:n]}
}

// RandomSplit partitions the rows by weight.
//
// Weights are normalized by their sum. A single PCG stream seeded with seed
// draws one uniform value per row in input order; the row goes to the first
// partition whose cumulative weight exceeds the draw. The same seed and input
// always give the same partitions, and every row lands in exactly one.
func (f *Frame) RandomSplit(weights []float64, seed int64) ([]*Frame, error) {
	if len(weights) == 0 {
		return nil, errors.NewValidationError("weights", "at least one weight is required", weights)
	}
	var total float64
	for _, w := range weights {
		if w <= 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, errors.NewValidationError("weights", "must be finite and positive", weights)
		}
		total += w
	}

	bounds := make([]float64, len(weights))
	var acc float64
	for i, w := range weights {
		acc += w / total
		bounds[i] = acc
	}
	bounds[len(bounds)-1] = 1

	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed)))
	parts := make([][][]string, len(weights))
	for _, r := range f.rows {
		u := rng.Float64()
		k := 0
		for k < len(bounds)-1 && u >= bounds[k] {
			k++
		}
		parts[k] = append(parts[k], r)
	}

	out := make([]*Frame, len(parts))
	for i, rows := range parts {
		out[i] = &Frame{columns: f.columns, index: f.index, rows: rows}
	}
	return out, nil
}

// String renders the frame as an aligned text table with a row index.
func (f *Frame) String() string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "\t%s\n", strings.Join(f.columns, "\t"))
	for i, r := range f.rows {
		fmt.Fprintf(tw, "%d\t%s\n", i, strings.Join(r, "\t"))
	}
	_ = tw.Flush()
	return b.String()
}
