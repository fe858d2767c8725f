package dataio

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/tidwall/gjson"

	"factorizer/internal/pkg/args"
	"factorizer/internal/series"
)

type jsonlLoaderArgs struct {
	FilePath  string   `mapstructure:"file_path"`
	Columns   []string `mapstructure:"columns"`
	fieldArgs `mapstructure:",squash"`
}

// LoadJSONL reads newline-delimited JSON bars. Field settings are gjson
// paths, so nested sources work (e.g. time_field: "bar.ts"). Columns lists
// extra value paths to load beyond OHLCV; missing values become the
// undefined marker.
func LoadJSONL(_ context.Context, raw map[string]any) (*series.Table, error) {
	var a jsonlLoaderArgs
	if err := args.Decode(raw, &a); err != nil {
		return nil, err
	}
	a.applyDefaults()
	if a.FilePath == "" {
		return nil, fmt.Errorf("jsonl loader requires file_path")
	}
	f, err := os.Open(a.FilePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	paths := []string{a.OpenField, a.HighField, a.LowField, a.CloseField, a.VolumeField}
	paths = append(paths, a.Columns...)

	var times []time.Time
	var symbols []string
	sawSymbol := false
	values := make([][]float64, len(paths))

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		tsRes := gjson.GetBytes(line, a.TimeField)
		if !tsRes.Exists() {
			return nil, fmt.Errorf("%s line %d: required time field %q not found", a.FilePath, lineNo, a.TimeField)
		}
		ts, err := series.ParseTime(tsRes.String())
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", a.FilePath, lineNo, err)
		}
		times = append(times, ts)
		if symRes := gjson.GetBytes(line, a.SymbolField); symRes.Exists() {
			sawSymbol = true
			symbols = append(symbols, symRes.String())
		} else {
			symbols = append(symbols, "")
		}
		for i, path := range paths {
			res := gjson.GetBytes(line, path)
			if res.Exists() {
				values[i] = append(values[i], res.Float())
			} else {
				values[i] = append(values[i], math.NaN())
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", a.FilePath, err)
	}

	table := series.NewTable()
	table.SetTimes(times)
	if sawSymbol {
		if err := table.SetSymbols(symbols); err != nil {
			return nil, err
		}
	}
	for i, path := range paths {
		if allNaN(values[i]) {
			continue
		}
		if err := table.AddColumn(a.canonicalName(path), values[i]); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func allNaN(vals []float64) bool {
	for _, v := range vals {
		if !math.IsNaN(v) {
			return false
		}
	}
	return len(vals) > 0
}
