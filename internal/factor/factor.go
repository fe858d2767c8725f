// Package factor implements the indicator and cross stages of the workflow
// engine, plus the built-in implementations of both.
package factor

import "fmt"

// IndicatorSpec is one (name, args) step of the indicator stage, applied in
// declared order.
type IndicatorSpec struct {
	Name string
	Args map[string]any
}

// CrossSpec is one (name, orders, args) step of the cross stage. Each entry
// of Orders is a grouping arity; -1 means all eligible columns at once.
type CrossSpec struct {
	Name   string
	Orders []int
	Args   map[string]any
}

// MissingColumnError reports an indicator or cross whose required input
// column is absent from the partition. This aborts the partition: a partial
// indicator table is unsafe to cross.
type MissingColumnError struct {
	Capability string
	Column     string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("%s requires missing input column %q", e.Capability, e.Column)
}

// ArityError reports a cross grouping order that cannot be satisfied by the
// eligible column set.
type ArityError struct {
	Cross    string
	Order    int
	Eligible int
}

func (e *ArityError) Error() string {
	return fmt.Sprintf("cross %s: order %d not satisfiable with %d eligible columns", e.Cross, e.Order, e.Eligible)
}
