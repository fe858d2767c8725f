package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"factorizer/internal/factor"
	"factorizer/internal/logger"
	"factorizer/internal/registry"
	"factorizer/internal/series"
)

// Runner states, in execution order. Failed is terminal and reachable from
// any non-terminal state.
const (
	StateBuilt        = "built"
	StateLoading      = "loading"
	StatePartitioning = "partitioning"
	StateProcessing   = "processing"
	StateWriting      = "writing"
	StateDone         = "done"
	StateFailed       = "failed"
)

// Runner executes one plan: load, window, partition, process partitions on a
// bounded pool, concatenate in discovery order, write once.
type Runner struct {
	id          string
	reg         *registry.Registry
	plan        *Plan
	concurrency int

	mu    sync.Mutex
	state string
}

// NewRunner wires a runner to a registry and plan. Concurrency below 1 is
// treated as 1 (sequential).
func NewRunner(reg *registry.Registry, plan *Plan, concurrency int) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		id:          uuid.NewString(),
		reg:         reg,
		plan:        plan,
		concurrency: concurrency,
		state:       StateBuilt,
	}
}

func (r *Runner) ID() string { return r.id }

func (r *Runner) State() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Runner) setState(state string) {
	r.mu.Lock()
	r.state = state
	r.mu.Unlock()
	logger.Debugf("[run %s] state=%s", r.id, state)
}

func (r *Runner) fail(err error) error {
	r.setState(StateFailed)
	logger.Errorf("[run %s] %v", r.id, err)
	return err
}

// Run executes the plan once. Any failure is fatal: outstanding partitions
// are cancelled, nothing is written, and the first error is returned.
func (r *Runner) Run(ctx context.Context) error {
	logger.Infof("[run %s] workflow %q starting (concurrency=%d)", r.id, r.plan.Name, r.concurrency)

	r.setState(StateLoading)
	loadFn, err := r.reg.Loader(r.plan.Loader.Name)
	if err != nil {
		return r.fail(err)
	}
	table, err := loadFn(ctx, r.plan.Loader.Args)
	if err != nil {
		return r.fail(fmt.Errorf("load %s: %w", r.plan.Loader.Name, err))
	}
	logger.InfoBlock(series.FormatSummaries("loaded data", series.Summarize(table)))

	if r.plan.Begin != nil || r.plan.End != nil {
		table = table.Window(r.plan.Begin, r.plan.End)
		logger.InfoBlock(series.FormatSummaries("windowed data", series.Summarize(table)))
	}

	r.setState(StatePartitioning)
	partitions := table.Partition()
	logger.Infof("[run %s] %d partition(s)", r.id, len(partitions))

	r.setState(StateProcessing)
	results := make([]*series.Frame, len(partitions))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(r.concurrency)
	for i, part := range partitions {
		i, part := i, part
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			frame, produced, err := factor.ComputeIndicators(r.reg, part, r.plan.Indicators)
			if err != nil {
				return fmt.Errorf("partition %q: %w", part.Symbol, err)
			}
			if len(r.plan.Crosses) > 0 {
				frame, err = factor.ApplyCrosses(r.reg, frame, produced, r.plan.Crosses)
				if err != nil {
					return fmt.Errorf("partition %q: %w", part.Symbol, err)
				}
			}
			results[i] = frame
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return r.fail(err)
	}

	final, err := series.Concat(results)
	if err != nil {
		return r.fail(err)
	}
	logger.Infof("[run %s] result columns: %s", r.id, strings.Join(final.Columns(), ", "))

	r.setState(StateWriting)
	writeFn, err := r.reg.Writer(r.plan.Writer.Name)
	if err != nil {
		return r.fail(err)
	}
	if err := writeFn(ctx, final, r.plan.Writer.Args); err != nil {
		return r.fail(fmt.Errorf("write %s: %w", r.plan.Writer.Name, err))
	}

	r.setState(StateDone)
	logger.Infof("[run %s] workflow %q done: %d rows, %d columns", r.id, r.plan.Name, final.Len(), len(final.Columns()))
	return nil
}
