package workflow

import (
	"errors"
	"time"

	"factorizer/internal/factor"
	"factorizer/internal/registry"
)

// ErrInvalidWindow is returned when both window bounds are given and end is
// not after begin.
var ErrInvalidWindow = errors.New("invalid time window: end must be after begin")

// Plan is the validated, in-memory form of one workflow run. It is built
// once, treated as read-only, and owned by the runner for the duration of
// the run.
type Plan struct {
	Name       string
	Loader     EndpointConf
	Writer     EndpointConf
	Indicators []factor.IndicatorSpec
	Crosses    []factor.CrossSpec
	Begin      *time.Time
	End        *time.Time
}

// BuildPlan validates a decoded config against the registry and the optional
// [begin, end) window. Every capability name is resolved here so a broken
// plan fails before any data is loaded.
func BuildPlan(cfg *Config, reg *registry.Registry, begin, end *time.Time) (*Plan, error) {
	if begin != nil && end != nil && !end.After(*begin) {
		return nil, ErrInvalidWindow
	}
	if _, err := reg.Loader(cfg.Data.Loader.Name); err != nil {
		return nil, err
	}
	if _, err := reg.Writer(cfg.Data.Writer.Name); err != nil {
		return nil, err
	}
	plan := &Plan{
		Name:   cfg.Name,
		Loader: cfg.Data.Loader,
		Writer: cfg.Data.Writer,
		Begin:  begin,
		End:    end,
	}
	for _, ind := range cfg.Factor.Indicators {
		if _, err := reg.Indicator(ind.Name); err != nil {
			return nil, err
		}
		plan.Indicators = append(plan.Indicators, factor.IndicatorSpec{
			Name: ind.Name,
			Args: ind.Args,
		})
	}
	for _, cr := range cfg.Factor.Crosses {
		if _, err := reg.Cross(cr.Name); err != nil {
			return nil, err
		}
		plan.Crosses = append(plan.Crosses, factor.CrossSpec{
			Name:   cr.Name,
			Orders: append([]int(nil), cr.Orders...),
			Args:   cr.Args,
		})
	}
	return plan, nil
}
