package series

import (
	"fmt"
	"time"
)

// Canonical bar column names. Loaders map whatever field names their source
// uses onto these before the engine sees the table.
const (
	ColOpen   = "open"
	ColHigh   = "high"
	ColLow    = "low"
	ColClose  = "close"
	ColVolume = "volume"
)

// Table is a row-aligned, column-oriented bar table. Every row carries a
// timestamp and, in multi-symbol mode, a symbol. Timestamps are expected to
// be monotonically non-decreasing within each symbol.
type Table struct {
	symbols []string // nil in single-series mode
	times   []time.Time
	order   []string
	cols    map[string][]float64
}

func NewTable() *Table {
	return &Table{cols: make(map[string][]float64)}
}

func (t *Table) Len() int { return len(t.times) }

// SetTimes installs the time index. Must be called before AddColumn.
func (t *Table) SetTimes(times []time.Time) {
	t.times = append([]time.Time(nil), times...)
}

// SetSymbols installs the per-row symbol column; pass nil for single-series
// data.
func (t *Table) SetSymbols(symbols []string) error {
	if symbols != nil && len(symbols) != len(t.times) {
		return fmt.Errorf("symbol column length %d does not match %d rows", len(symbols), len(t.times))
	}
	if symbols == nil {
		t.symbols = nil
		return nil
	}
	t.symbols = append([]string(nil), symbols...)
	return nil
}

func (t *Table) Times() []time.Time { return t.times }

// Symbols returns the per-row symbol column, or nil in single-series mode.
func (t *Table) Symbols() []string { return t.symbols }

func (t *Table) Columns() []string {
	return append([]string(nil), t.order...)
}

func (t *Table) Column(name string) ([]float64, bool) {
	vals, ok := t.cols[name]
	return vals, ok
}

func (t *Table) AddColumn(name string, vals []float64) error {
	if len(vals) != len(t.times) {
		return fmt.Errorf("column %q length %d does not match %d rows", name, len(vals), len(t.times))
	}
	if _, exists := t.cols[name]; exists {
		return &DuplicateColumnError{Column: name}
	}
	t.order = append(t.order, name)
	t.cols[name] = append([]float64(nil), vals...)
	return nil
}

// Window keeps rows with begin <= time < end. A nil bound is open on that
// side. Comparisons are done on the instants themselves, so mixed zones in
// the input behave consistently.
func (t *Table) Window(begin, end *time.Time) *Table {
	if begin == nil && end == nil {
		return t
	}
	keep := make([]int, 0, len(t.times))
	for i, ts := range t.times {
		if begin != nil && ts.Before(*begin) {
			continue
		}
		if end != nil && !ts.Before(*end) {
			continue
		}
		keep = append(keep, i)
	}
	return t.selectRows(keep)
}

func (t *Table) selectRows(idx []int) *Table {
	out := NewTable()
	out.times = make([]time.Time, len(idx))
	for i, row := range idx {
		out.times[i] = t.times[row]
	}
	if t.symbols != nil {
		out.symbols = make([]string, len(idx))
		for i, row := range idx {
			out.symbols[i] = t.symbols[row]
		}
	}
	for _, name := range t.order {
		src := t.cols[name]
		vals := make([]float64, len(idx))
		for i, row := range idx {
			vals[i] = src[row]
		}
		out.order = append(out.order, name)
		out.cols[name] = vals
	}
	return out
}

// Partition splits the table into per-symbol frames in first-seen symbol
// order. Row order inside each frame is preserved. Without a symbol column
// the whole table becomes one frame.
func (t *Table) Partition() []*Frame {
	if t.symbols == nil {
		return []*Frame{t.frameOf("", allRows(t.Len()))}
	}
	var symbolOrder []string
	rowsBySymbol := make(map[string][]int)
	for i, sym := range t.symbols {
		if _, seen := rowsBySymbol[sym]; !seen {
			symbolOrder = append(symbolOrder, sym)
		}
		rowsBySymbol[sym] = append(rowsBySymbol[sym], i)
	}
	frames := make([]*Frame, 0, len(symbolOrder))
	for _, sym := range symbolOrder {
		frames = append(frames, t.frameOf(sym, rowsBySymbol[sym]))
	}
	return frames
}

func allRows(n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return idx
}

func (t *Table) frameOf(symbol string, idx []int) *Frame {
	f := NewFrame(symbol, nil)
	f.times = make([]time.Time, len(idx))
	for i, row := range idx {
		f.times[i] = t.times[row]
	}
	for _, name := range t.order {
		src := t.cols[name]
		vals := make([]float64, len(idx))
		for i, row := range idx {
			vals[i] = src[row]
		}
		f.order = append(f.order, name)
		f.cols[name] = vals
	}
	return f
}

// Concat reassembles per-partition frames into one table, preserving the
// given frame order. All frames must carry the same column set.
func Concat(frames []*Frame) (*Table, error) {
	out := NewTable()
	if len(frames) == 0 {
		return out, nil
	}
	reference := frames[0].Columns()
	multiSymbol := len(frames) > 1 || frames[0].Symbol != ""
	for _, f := range frames {
		cols := f.Columns()
		if len(cols) != len(reference) {
			return nil, fmt.Errorf("partition %q produced %d columns, expected %d", f.Symbol, len(cols), len(reference))
		}
		for i, name := range cols {
			if name != reference[i] {
				return nil, fmt.Errorf("partition %q produced column %q where %q was expected", f.Symbol, name, reference[i])
			}
		}
		out.times = append(out.times, f.times...)
		if multiSymbol {
			for range f.times {
				out.symbols = append(out.symbols, f.Symbol)
			}
		}
	}
	for _, name := range reference {
		merged := make([]float64, 0, out.Len())
		for _, f := range frames {
			merged = append(merged, f.cols[name]...)
		}
		out.order = append(out.order, name)
		out.cols[name] = merged
	}
	return out, nil
}
