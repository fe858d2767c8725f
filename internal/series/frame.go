package series

import (
	"fmt"
	"time"
)

// Frame is one partition of a Table: all rows sharing a single symbol (or
// the whole table when no symbol column is configured). Frames are the unit
// of parallel processing and never share backing slices with each other.
type Frame struct {
	Symbol string
	times  []time.Time
	order  []string
	cols   map[string][]float64
}

func NewFrame(symbol string, times []time.Time) *Frame {
	return &Frame{
		Symbol: symbol,
		times:  append([]time.Time(nil), times...),
		cols:   make(map[string][]float64),
	}
}

func (f *Frame) Len() int { return len(f.times) }

func (f *Frame) Times() []time.Time { return f.times }

func (f *Frame) Columns() []string {
	return append([]string(nil), f.order...)
}

func (f *Frame) Column(name string) ([]float64, bool) {
	vals, ok := f.cols[name]
	return vals, ok
}

func (f *Frame) AddColumn(name string, vals []float64) error {
	if len(vals) != len(f.times) {
		return fmt.Errorf("column %q length %d does not match %d rows", name, len(vals), len(f.times))
	}
	if _, exists := f.cols[name]; exists {
		return &DuplicateColumnError{Column: name}
	}
	f.order = append(f.order, name)
	f.cols[name] = append([]float64(nil), vals...)
	return nil
}

// Clone returns a deep copy so stages can append columns without mutating
// the caller's frame.
func (f *Frame) Clone() *Frame {
	out := NewFrame(f.Symbol, f.times)
	for _, name := range f.order {
		out.order = append(out.order, name)
		out.cols[name] = append([]float64(nil), f.cols[name]...)
	}
	return out
}

// ColumnSet is an ordered collection of equally sized named columns, used as
// the output of indicator and cross implementations. Insertion order is the
// canonical, reproducible column order.
type ColumnSet struct {
	order []string
	cols  map[string][]float64
}

func NewColumnSet() *ColumnSet {
	return &ColumnSet{cols: make(map[string][]float64)}
}

func (s *ColumnSet) Add(name string, vals []float64) error {
	if _, exists := s.cols[name]; exists {
		return &DuplicateColumnError{Column: name}
	}
	s.order = append(s.order, name)
	s.cols[name] = vals
	return nil
}

func (s *ColumnSet) Names() []string {
	return append([]string(nil), s.order...)
}

func (s *ColumnSet) Column(name string) ([]float64, bool) {
	vals, ok := s.cols[name]
	return vals, ok
}

// Width is the number of columns.
func (s *ColumnSet) Width() int { return len(s.order) }

// Rows is the length of the first column; 0 for an empty set.
func (s *ColumnSet) Rows() int {
	if len(s.order) == 0 {
		return 0
	}
	return len(s.cols[s.order[0]])
}
