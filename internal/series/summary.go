package series

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// SymbolSummary describes one symbol's slice of a table. Volume is
// accumulated with decimals so long tables do not drift.
type SymbolSummary struct {
	Symbol string
	Rows   int
	Begin  time.Time
	End    time.Time
	Volume decimal.Decimal
}

// Summarize reports per-symbol row counts, time ranges and volume totals in
// first-seen symbol order.
func Summarize(t *Table) []SymbolSummary {
	volumes, _ := t.Column(ColVolume)
	bySymbol := make(map[string]*SymbolSummary)
	var order []string
	for i, ts := range t.Times() {
		sym := ""
		if syms := t.Symbols(); syms != nil {
			sym = syms[i]
		}
		s, ok := bySymbol[sym]
		if !ok {
			s = &SymbolSummary{Symbol: sym, Begin: ts, End: ts}
			bySymbol[sym] = s
			order = append(order, sym)
		}
		s.Rows++
		if ts.Before(s.Begin) {
			s.Begin = ts
		}
		if ts.After(s.End) {
			s.End = ts
		}
		if volumes != nil && !math.IsNaN(volumes[i]) {
			s.Volume = s.Volume.Add(decimal.NewFromFloat(volumes[i]))
		}
	}
	out := make([]SymbolSummary, 0, len(order))
	for _, sym := range order {
		out = append(out, *bySymbol[sym])
	}
	return out
}

// FormatSummaries renders summaries as an aligned block for InfoBlock.
func FormatSummaries(title string, summaries []SymbolSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s:\n", title)
	if len(summaries) == 0 {
		b.WriteString("  (no rows)")
		return b.String()
	}
	for _, s := range summaries {
		name := s.Symbol
		if name == "" {
			name = "(single series)"
		}
		fmt.Fprintf(&b, "  %-12s rows=%-6d %s .. %s volume=%s\n",
			name, s.Rows, FormatTime(s.Begin), FormatTime(s.End), s.Volume.String())
	}
	return strings.TrimRight(b.String(), "\n")
}
