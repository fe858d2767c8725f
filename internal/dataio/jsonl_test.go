package dataio

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factorizer/internal/series"
)

func TestLoadJSONL(t *testing.T) {
	path := writeFile(t, "bars.jsonl", `{"symbol":"BTC","time":"2024-01-01T00:00:00Z","open":1,"high":2,"low":0.5,"close":1.5,"volume":100}
{"symbol":"BTC","time":"2024-01-01T01:00:00Z","open":1.5,"high":3,"low":1,"close":2.5,"volume":200}
`)
	table, err := LoadJSONL(context.Background(), map[string]any{"file_path": path})
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
	assert.Equal(t, []string{"BTC", "BTC"}, table.Symbols())
	closes, _ := table.Column(series.ColClose)
	assert.Equal(t, []float64{1.5, 2.5}, closes)
}

func TestLoadJSONLNestedPaths(t *testing.T) {
	path := writeFile(t, "bars.jsonl", `{"bar":{"ts":1704067200,"px":{"c":42}}}
`)
	table, err := LoadJSONL(context.Background(), map[string]any{
		"file_path":   path,
		"time_field":  "bar.ts",
		"close_field": "bar.px.c",
	})
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	closes, ok := table.Column(series.ColClose)
	require.True(t, ok)
	assert.Equal(t, []float64{42}, closes)
	// No open/high/low/volume in the source: those columns are dropped.
	_, ok = table.Column(series.ColOpen)
	assert.False(t, ok)
}

func TestLoadJSONLExtraColumns(t *testing.T) {
	path := writeFile(t, "bars.jsonl", `{"time":"2024-01-01","close":1,"funding":0.01}
{"time":"2024-01-02","close":2}
`)
	table, err := LoadJSONL(context.Background(), map[string]any{
		"file_path": path,
		"columns":   []string{"funding"},
	})
	require.NoError(t, err)
	funding, ok := table.Column("funding")
	require.True(t, ok)
	assert.Equal(t, 0.01, funding[0])
	assert.True(t, math.IsNaN(funding[1]))
}

func TestLoadJSONLMissingTimeField(t *testing.T) {
	path := writeFile(t, "bars.jsonl", `{"close":1}
`)
	_, err := LoadJSONL(context.Background(), map[string]any{"file_path": path})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestLoadJSONLSkipsBlankLines(t *testing.T) {
	path := writeFile(t, "bars.jsonl", `{"time":"2024-01-01","close":1}

{"time":"2024-01-02","close":2}
`)
	table, err := LoadJSONL(context.Background(), map[string]any{"file_path": path})
	require.NoError(t, err)
	assert.Equal(t, 2, table.Len())
}
