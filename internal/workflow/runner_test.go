package workflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factorizer/internal/dataio"
	"factorizer/internal/factor"
	"factorizer/internal/registry"
	"factorizer/internal/series"
)

// barTable builds a deterministic multi-symbol table with rows per symbol
// interleaved the way a real loader would emit them.
func barTable(t *testing.T, symbols []string, rowsPerSymbol int) *series.Table {
	t.Helper()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	var times []time.Time
	var syms []string
	var opens, highs, lows, closes, volumes []float64
	for r := 0; r < rowsPerSymbol; r++ {
		for s, sym := range symbols {
			c := float64(10 + r + s*100)
			times = append(times, base.Add(time.Duration(r)*time.Hour))
			syms = append(syms, sym)
			opens = append(opens, c-0.5)
			highs = append(highs, c+1)
			lows = append(lows, c-1)
			closes = append(closes, c)
			volumes = append(volumes, float64(1000+r))
		}
	}
	table := series.NewTable()
	table.SetTimes(times)
	require.NoError(t, table.SetSymbols(syms))
	require.NoError(t, table.AddColumn(series.ColOpen, opens))
	require.NoError(t, table.AddColumn(series.ColHigh, highs))
	require.NoError(t, table.AddColumn(series.ColLow, lows))
	require.NoError(t, table.AddColumn(series.ColClose, closes))
	require.NoError(t, table.AddColumn(series.ColVolume, volumes))
	return table
}

type captureWriter struct {
	invocations int
	buf         bytes.Buffer
}

func (w *captureWriter) write(_ context.Context, table *series.Table, _ map[string]any) error {
	w.invocations++
	return dataio.EncodeCSV(table, &w.buf)
}

func runnerFixture(t *testing.T, table *series.Table) (*registry.Registry, *Plan, *captureWriter) {
	t.Helper()
	reg := registry.New()
	factor.Register(reg)
	reg.RegisterLoader("memory", func(context.Context, map[string]any) (*series.Table, error) {
		return table, nil
	})
	capture := &captureWriter{}
	reg.RegisterWriter("capture", capture.write)

	plan, err := BuildPlan(&Config{
		Name: "fixture",
		Data: DataConf{
			Loader: EndpointConf{Name: "memory"},
			Writer: EndpointConf{Name: "capture"},
		},
		Factor: FactorConf{
			Indicators: []IndicatorConf{{Name: "SMA", Args: map[string]any{"periods": []int{2, 6}}}},
			Crosses:    []CrossConf{{Name: "MUL", Orders: []int{2}}},
		},
	}, reg, nil, nil)
	require.NoError(t, err)
	return reg, plan, capture
}

func TestRunnerEndToEnd(t *testing.T) {
	table := barTable(t, []string{"BTC", "ETH"}, 30)
	reg, plan, capture := runnerFixture(t, table)

	runner := NewRunner(reg, plan, 1)
	assert.Equal(t, StateBuilt, runner.State())
	require.NoError(t, runner.Run(context.Background()))
	assert.Equal(t, StateDone, runner.State())
	assert.Equal(t, 1, capture.invocations)

	lines := bytes.Split(bytes.TrimSpace(capture.buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 61)
	assert.Equal(t, "symbol,time,open,high,low,close,volume,sma_2,sma_6,mul_sma_2__sma_6", string(lines[0]))
	// Partitions come back whole and in discovery order.
	assert.Contains(t, string(lines[1]), "BTC,")
	assert.Contains(t, string(lines[31]), "ETH,")
}

func TestRunnerSixtyDayScenario(t *testing.T) {
	table := barTable(t, []string{"BTC"}, 60)
	reg := registry.New()
	factor.Register(reg)
	reg.RegisterLoader("memory", func(context.Context, map[string]any) (*series.Table, error) {
		return table, nil
	})
	capture := &captureWriter{}
	reg.RegisterWriter("capture", capture.write)

	plan, err := BuildPlan(&Config{
		Name: "sixty",
		Data: DataConf{
			Loader: EndpointConf{Name: "memory"},
			Writer: EndpointConf{Name: "capture"},
		},
		Factor: FactorConf{
			Indicators: []IndicatorConf{{Name: "SMA", Args: map[string]any{"periods": []int{3, 6}}}},
			Crosses:    []CrossConf{{Name: "MUL", Orders: []int{2}}},
		},
	}, reg, nil, nil)
	require.NoError(t, err)
	require.NoError(t, NewRunner(reg, plan, 1).Run(context.Background()))

	lines := bytes.Split(bytes.TrimSpace(capture.buf.Bytes()), []byte("\n"))
	// Row count unchanged at 60.
	require.Len(t, lines, 61)
	assert.Equal(t, "symbol,time,open,high,low,close,volume,sma_3,sma_6,mul_sma_3__sma_6", string(lines[0]))
	// sma_6 warm-up: first 5 rows undefined, emitted as empty cells.
	for row := 1; row <= 5; row++ {
		fields := bytes.Split(lines[row], []byte(","))
		assert.Empty(t, string(fields[8]), "row %d sma_6", row)
		assert.Empty(t, string(fields[9]), "row %d cross", row)
	}
	fields := bytes.Split(lines[7], []byte(","))
	assert.NotEmpty(t, string(fields[8]))
	assert.NotEmpty(t, string(fields[9]))
}

func TestRunnerDeterministicAcrossConcurrency(t *testing.T) {
	render := func(concurrency int) []byte {
		table := barTable(t, []string{"BTC", "ETH", "SOL", "BNB"}, 15)
		reg, plan, capture := runnerFixture(t, table)
		runner := NewRunner(reg, plan, concurrency)
		require.NoError(t, runner.Run(context.Background()))
		return capture.buf.Bytes()
	}
	sequential := render(1)
	parallel := render(4)
	assert.Equal(t, sequential, parallel)
}

func TestRunnerPartitionFailureAbortsRun(t *testing.T) {
	table := barTable(t, []string{"BTC", "BAD", "ETH"}, 10)
	reg, plan, capture := runnerFixture(t, table)
	reg.RegisterIndicator("SMA", func(bars *series.Frame, args map[string]any) (*series.ColumnSet, error) {
		if bars.Symbol == "BAD" {
			return nil, fmt.Errorf("corrupt feed")
		}
		out := series.NewColumnSet()
		vals := make([]float64, bars.Len())
		for i := range vals {
			vals[i] = math.NaN()
		}
		if err := out.Add("sma_2", vals); err != nil {
			return nil, err
		}
		return out, out.Add("sma_6", append([]float64(nil), vals...))
	})

	runner := NewRunner(reg, plan, 2)
	err := runner.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"BAD"`)
	assert.Equal(t, StateFailed, runner.State())
	assert.Zero(t, capture.invocations)
}

func TestRunnerAppliesWindow(t *testing.T) {
	table := barTable(t, []string{"BTC"}, 20)
	reg, _, capture := runnerFixture(t, table)

	begin := table.Times()[10]
	end := table.Times()[15]
	plan, err := BuildPlan(&Config{
		Name: "windowed",
		Data: DataConf{
			Loader: EndpointConf{Name: "memory"},
			Writer: EndpointConf{Name: "capture"},
		},
		Factor: FactorConf{
			Indicators: []IndicatorConf{{Name: "Return", Args: map[string]any{"periods": []int{1}}}},
		},
	}, reg, &begin, &end)
	require.NoError(t, err)

	require.NoError(t, NewRunner(reg, plan, 1).Run(context.Background()))
	lines := bytes.Split(bytes.TrimSpace(capture.buf.Bytes()), []byte("\n"))
	// Header plus rows 10..14: begin inclusive, end exclusive.
	assert.Len(t, lines, 6)
}

func TestRunnerLoaderFailure(t *testing.T) {
	reg := registry.New()
	factor.Register(reg)
	boom := errors.New("connection refused")
	reg.RegisterLoader("memory", func(context.Context, map[string]any) (*series.Table, error) {
		return nil, boom
	})
	capture := &captureWriter{}
	reg.RegisterWriter("capture", capture.write)

	plan, err := BuildPlan(&Config{
		Name: "failing",
		Data: DataConf{
			Loader: EndpointConf{Name: "memory"},
			Writer: EndpointConf{Name: "capture"},
		},
		Factor: FactorConf{
			Indicators: []IndicatorConf{{Name: "SMA"}},
		},
	}, reg, nil, nil)
	require.NoError(t, err)

	runner := NewRunner(reg, plan, 1)
	err = runner.Run(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, StateFailed, runner.State())
	assert.Zero(t, capture.invocations)
}

func TestRunnerConcurrencyClamped(t *testing.T) {
	table := barTable(t, []string{"BTC"}, 10)
	reg, plan, _ := runnerFixture(t, table)
	runner := NewRunner(reg, plan, 0)
	assert.NoError(t, runner.Run(context.Background()))
}
