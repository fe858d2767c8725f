package dataio

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"factorizer/internal/pkg/args"
	"factorizer/internal/pkg/convert"
	"factorizer/internal/series"
)

type sqliteLoaderArgs struct {
	Path      string `mapstructure:"path"`
	Table     string `mapstructure:"table"`
	fieldArgs `mapstructure:",squash"`
}

// LoadSQLite reads a bar table from a local sqlite database. Rows come back
// ordered by the time column; the symbol column is used when the table has
// one. Time cells may be epoch integers or text timestamps.
func LoadSQLite(ctx context.Context, raw map[string]any) (*series.Table, error) {
	a := sqliteLoaderArgs{Table: "candles"}
	if err := args.Decode(raw, &a); err != nil {
		return nil, err
	}
	a.applyDefaults()
	if a.Path == "" {
		return nil, fmt.Errorf("sqlite loader requires path")
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&mode=ro", a.Path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s", quoteIdent(a.Table), quoteIdent(a.TimeField))
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", a.Table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	timeIdx, symbolIdx := -1, -1
	for i, name := range names {
		switch name {
		case a.TimeField:
			timeIdx = i
		case a.SymbolField:
			symbolIdx = i
		}
	}
	if timeIdx < 0 {
		return nil, fmt.Errorf("table %s: required time column %q not found", a.Table, a.TimeField)
	}

	var times []time.Time
	var symbols []string
	values := make(map[int][]float64)
	scan := make([]any, len(names))
	for i := range scan {
		scan[i] = new(any)
	}
	for rows.Next() {
		if err := rows.Scan(scan...); err != nil {
			return nil, err
		}
		ts, err := convert.Time(*scan[timeIdx].(*any))
		if err != nil {
			return nil, fmt.Errorf("table %s row %d: %w", a.Table, len(times)+1, err)
		}
		times = append(times, ts)
		if symbolIdx >= 0 {
			symbols = append(symbols, convert.String(*scan[symbolIdx].(*any)))
		}
		for i := range names {
			if i == timeIdx || i == symbolIdx {
				continue
			}
			values[i] = append(values[i], convert.Float(*scan[i].(*any)))
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	table := series.NewTable()
	table.SetTimes(times)
	if symbolIdx >= 0 {
		if err := table.SetSymbols(symbols); err != nil {
			return nil, err
		}
	}
	for i, name := range names {
		if i == timeIdx || i == symbolIdx {
			continue
		}
		if err := table.AddColumn(a.canonicalName(name), values[i]); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func quoteIdent(name string) string {
	return `"` + name + `"`
}
