package factor

import (
	"fmt"

	"factorizer/internal/registry"
	"factorizer/internal/series"
)

// ComputeIndicators applies indicator specs to one partition in declared
// order and returns the augmented frame plus the names of the produced
// columns, in production order. Each spec sees the columns appended by the
// specs before it.
func ComputeIndicators(reg *registry.Registry, bars *series.Frame, specs []IndicatorSpec) (*series.Frame, []string, error) {
	frame := bars.Clone()
	var produced []string
	for _, spec := range specs {
		fn, err := reg.Indicator(spec.Name)
		if err != nil {
			return nil, nil, err
		}
		out, err := fn(frame, spec.Args)
		if err != nil {
			return nil, nil, fmt.Errorf("indicator %s: %w", spec.Name, err)
		}
		for _, name := range out.Names() {
			vals, _ := out.Column(name)
			if len(vals) != frame.Len() {
				return nil, nil, fmt.Errorf("indicator %s: column %q has %d rows, partition has %d", spec.Name, name, len(vals), frame.Len())
			}
			if err := frame.AddColumn(name, vals); err != nil {
				return nil, nil, fmt.Errorf("indicator %s: %w", spec.Name, err)
			}
			produced = append(produced, name)
		}
	}
	return frame, produced, nil
}

// ApplyCrosses applies cross specs to a frame already augmented by the
// indicator stage. Only indicator-stage outputs (the eligible list) feed the
// first spec; each spec's outputs join the eligible set for the specs after
// it, never for itself. Raw bar columns are never eligible.
func ApplyCrosses(reg *registry.Registry, frame *series.Frame, eligible []string, specs []CrossSpec) (*series.Frame, error) {
	current := append([]string(nil), eligible...)
	for _, spec := range specs {
		entry, err := reg.Cross(spec.Name)
		if err != nil {
			return nil, err
		}
		groups, err := enumerateGroups(spec, entry, current)
		if err != nil {
			return nil, err
		}
		var added []string
		for _, group := range groups {
			input, err := subset(frame, group)
			if err != nil {
				return nil, fmt.Errorf("cross %s: %w", spec.Name, err)
			}
			out, err := entry.Fn(input, spec.Args)
			if err != nil {
				return nil, fmt.Errorf("cross %s: %w", spec.Name, err)
			}
			for _, name := range out.Names() {
				vals, _ := out.Column(name)
				if len(vals) != frame.Len() {
					return nil, fmt.Errorf("cross %s: column %q has %d rows, partition has %d", spec.Name, name, len(vals), frame.Len())
				}
				if err := frame.AddColumn(name, vals); err != nil {
					return nil, fmt.Errorf("cross %s: %w", spec.Name, err)
				}
				added = append(added, name)
			}
		}
		current = append(current, added...)
	}
	return frame, nil
}

// enumerateGroups expands a cross spec into the column groups it will be
// invoked over. Enumeration follows the stable first-added column order, so
// group order is identical across runs.
func enumerateGroups(spec CrossSpec, entry registry.CrossEntry, eligible []string) ([][]string, error) {
	if len(eligible) == 0 {
		return nil, &ArityError{Cross: spec.Name, Order: firstOrder(spec.Orders), Eligible: 0}
	}
	if !entry.OrderSensitive || len(spec.Orders) == 0 {
		return [][]string{append([]string(nil), eligible...)}, nil
	}
	var groups [][]string
	for _, order := range spec.Orders {
		if order == -1 {
			groups = append(groups, append([]string(nil), eligible...))
			continue
		}
		if order < 2 || order > len(eligible) {
			return nil, &ArityError{Cross: spec.Name, Order: order, Eligible: len(eligible)}
		}
		if entry.Sequential {
			groups = append(groups, permutations(eligible, order)...)
		} else {
			groups = append(groups, combinations(eligible, order)...)
		}
	}
	return groups, nil
}

func firstOrder(orders []int) int {
	if len(orders) == 0 {
		return -1
	}
	return orders[0]
}

func subset(frame *series.Frame, names []string) (*series.ColumnSet, error) {
	out := series.NewColumnSet()
	for _, name := range names {
		vals, ok := frame.Column(name)
		if !ok {
			return nil, fmt.Errorf("column %q vanished from partition", name)
		}
		if err := out.Add(name, vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func combinations(items []string, k int) [][]string {
	var out [][]string
	pick := make([]string, 0, k)
	var walk func(start int)
	walk = func(start int) {
		if len(pick) == k {
			out = append(out, append([]string(nil), pick...))
			return
		}
		for i := start; i <= len(items)-(k-len(pick)); i++ {
			pick = append(pick, items[i])
			walk(i + 1)
			pick = pick[:len(pick)-1]
		}
	}
	walk(0)
	return out
}

func permutations(items []string, k int) [][]string {
	var out [][]string
	used := make([]bool, len(items))
	pick := make([]string, 0, k)
	var walk func()
	walk = func() {
		if len(pick) == k {
			out = append(out, append([]string(nil), pick...))
			return
		}
		for i := range items {
			if used[i] {
				continue
			}
			used[i] = true
			pick = append(pick, items[i])
			walk()
			pick = pick[:len(pick)-1]
			used[i] = false
		}
	}
	walk()
	return out
}
