package factor

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factorizer/internal/series"
)

func barFrame(t *testing.T, closes []float64) *series.Frame {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, len(closes))
	highs := make([]float64, len(closes))
	lows := make([]float64, len(closes))
	volumes := make([]float64, len(closes))
	for i, c := range closes {
		times[i] = base.Add(time.Duration(i) * time.Hour)
		highs[i] = c + 1
		lows[i] = c - 1
		volumes[i] = 100
	}
	f := series.NewFrame("BTCUSDT", times)
	require.NoError(t, f.AddColumn(series.ColOpen, closes))
	require.NoError(t, f.AddColumn(series.ColHigh, highs))
	require.NoError(t, f.AddColumn(series.ColLow, lows))
	require.NoError(t, f.AddColumn(series.ColClose, closes))
	require.NoError(t, f.AddColumn(series.ColVolume, volumes))
	return f
}

func TestSmaValuesAndWarmup(t *testing.T) {
	f := barFrame(t, []float64{1, 2, 3, 4, 5, 6})
	out, err := smaIndicator(f, map[string]any{"periods": []int{2}})
	require.NoError(t, err)
	require.Equal(t, []string{"sma_2"}, out.Names())

	vals, _ := out.Column("sma_2")
	require.Len(t, vals, 6)
	assert.True(t, math.IsNaN(vals[0]))
	for i, want := range []float64{1.5, 2.5, 3.5, 4.5, 5.5} {
		assert.InDelta(t, want, vals[i+1], 1e-9)
	}
}

func TestDefaultPeriods(t *testing.T) {
	f := barFrame(t, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	out, err := smaIndicator(f, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"sma_2", "sma_5"}, out.Names())
}

func TestShortPartitionIsAllNaN(t *testing.T) {
	f := barFrame(t, []float64{1, 2, 3})
	out, err := smaIndicator(f, map[string]any{"periods": []int{5}})
	require.NoError(t, err)
	vals, _ := out.Column("sma_5")
	require.Len(t, vals, 3)
	for i, v := range vals {
		assert.True(t, math.IsNaN(v), "row %d", i)
	}
}

func TestMissingInputColumn(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	f := series.NewFrame("", []time.Time{base, base.Add(time.Hour)})
	require.NoError(t, f.AddColumn(series.ColOpen, []float64{1, 2}))

	_, err := smaIndicator(f, nil)
	var missing *MissingColumnError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "SMA", missing.Capability)
	assert.Equal(t, series.ColClose, missing.Column)
}

func TestReturnValues(t *testing.T) {
	f := barFrame(t, []float64{1, 2, 4, 8})
	out, err := returnIndicator(f, map[string]any{"periods": []int{1}})
	require.NoError(t, err)
	vals, _ := out.Column("return_1")
	assert.True(t, math.IsNaN(vals[0]))
	assert.Equal(t, []float64{1, 2, 4}, vals[1:])
}

func TestReturnPctValues(t *testing.T) {
	f := barFrame(t, []float64{1, 2, 3})
	out, err := returnPctIndicator(f, map[string]any{"periods": []int{1}})
	require.NoError(t, err)
	vals, _ := out.Column("return_pct_1")
	assert.True(t, math.IsNaN(vals[0]))
	assert.InDelta(t, 1.0, vals[1], 1e-9)
	assert.InDelta(t, 0.5, vals[2], 1e-9)
}

func TestMacdNameEmbedsParams(t *testing.T) {
	closes := make([]float64, 50)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	f := barFrame(t, closes)

	out, err := macdIndicator(f, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"macd_12_26_9"}, out.Names())

	out, err = macdIndicator(f, map[string]any{"fast_period": 3, "slow_period": 6, "signal_period": 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"macd_3_6_2"}, out.Names())
}

func TestStochNamesEmbedParams(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(10 + i%4)
	}
	f := barFrame(t, closes)
	out, err := stochIndicator(f, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"stoch_k_5_3_3", "stoch_d_5_3_3"}, out.Names())
}

func TestPrrIsHighOverLow(t *testing.T) {
	f := barFrame(t, []float64{10, 20})
	out, err := prrIndicator(f, nil)
	require.NoError(t, err)
	vals, _ := out.Column("prr")
	assert.InDelta(t, 11.0/9.0, vals[0], 1e-9)
	assert.InDelta(t, 21.0/19.0, vals[1], 1e-9)
}

func TestSanitizeMapsInfinityToNaN(t *testing.T) {
	vals := sanitize([]float64{1, math.Inf(1), math.Inf(-1)})
	assert.Equal(t, 1.0, vals[0])
	assert.True(t, math.IsNaN(vals[1]))
	assert.True(t, math.IsNaN(vals[2]))
}

func TestEmptyPartition(t *testing.T) {
	f := barFrame(t, nil)
	out, err := obvIndicator(f, nil)
	require.NoError(t, err)
	vals, _ := out.Column("obv")
	assert.Empty(t, vals)
}
