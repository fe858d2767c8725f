package dataio

import (
	"context"
	"database/sql"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"factorizer/internal/series"
)

func seedDatabase(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bars.db")
	db, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE candles (symbol TEXT, time INTEGER, open REAL, close REAL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO candles VALUES
		('BTC', 1704070800, 1.5, 2.5),
		('BTC', 1704067200, 1.0, 1.5),
		('ETH', 1704067200, 10, NULL)`)
	require.NoError(t, err)
	return path
}

func TestLoadSQLite(t *testing.T) {
	path := seedDatabase(t)
	table, err := LoadSQLite(context.Background(), map[string]any{"path": path})
	require.NoError(t, err)

	require.Equal(t, 3, table.Len())
	// Rows come back ordered by time, not insertion order.
	times := table.Times()
	assert.True(t, times[0].Before(times[2]))

	closes, _ := table.Column(series.ColClose)
	nulls := 0
	for _, v := range closes {
		if math.IsNaN(v) {
			nulls++
		}
	}
	assert.Equal(t, 1, nulls)
	assert.Contains(t, table.Symbols(), "ETH")
}

func TestLoadSQLiteMissingTable(t *testing.T) {
	path := seedDatabase(t)
	_, err := LoadSQLite(context.Background(), map[string]any{"path": path, "table": "absent"})
	assert.Error(t, err)
}

func TestLoadSQLiteRequiresPath(t *testing.T) {
	_, err := LoadSQLite(context.Background(), nil)
	assert.Error(t, err)
}

func TestWriteSQLiteRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.db")
	err := WriteSQLite(context.Background(), resultTable(t), map[string]any{
		"path":  path,
		"table": "factors",
	})
	require.NoError(t, err)

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM factors`).Scan(&count))
	assert.Equal(t, 2, count)

	var values string
	require.NoError(t, db.QueryRow(`SELECT "values" FROM factors WHERE symbol = 'BTC' ORDER BY time LIMIT 1`).Scan(&values))
	// NaN cells are stored as JSON null.
	assert.Contains(t, values, `"sma_2":null`)
	assert.Contains(t, values, `"close":1.5`)
}
