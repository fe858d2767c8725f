package dataio

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"factorizer/internal/pkg/args"
	"factorizer/internal/series"
)

type csvLoaderArgs struct {
	FilePath  string `mapstructure:"file_path"`
	fieldArgs `mapstructure:",squash"`
}

// LoadCSV reads a bar table from a delimited file. The time column is
// required; symbol and OHLCV columns are optional and renamed to their
// canonical names. Every other column is parsed as a float series, with
// empty cells becoming the undefined marker.
func LoadCSV(_ context.Context, raw map[string]any) (*series.Table, error) {
	var a csvLoaderArgs
	if err := args.Decode(raw, &a); err != nil {
		return nil, err
	}
	a.applyDefaults()
	if a.FilePath == "" {
		return nil, fmt.Errorf("csv loader requires file_path")
	}
	f, err := os.Open(a.FilePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header of %s: %w", a.FilePath, err)
	}
	timeIdx, symbolIdx := -1, -1
	for i, name := range header {
		switch name {
		case a.TimeField:
			timeIdx = i
		case a.SymbolField:
			symbolIdx = i
		}
	}
	if timeIdx < 0 {
		return nil, fmt.Errorf("%s: required time column %q not found", a.FilePath, a.TimeField)
	}

	var times []time.Time
	var symbols []string
	values := make(map[int][]float64)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", a.FilePath, err)
		}
		ts, err := series.ParseTime(record[timeIdx])
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", a.FilePath, len(times)+2, err)
		}
		times = append(times, ts)
		if symbolIdx >= 0 {
			symbols = append(symbols, record[symbolIdx])
		}
		for i := range header {
			if i == timeIdx || i == symbolIdx {
				continue
			}
			v := math.NaN()
			if record[i] != "" {
				parsed, err := strconv.ParseFloat(record[i], 64)
				if err != nil {
					return nil, fmt.Errorf("%s row %d column %q: %w", a.FilePath, len(times)+1, header[i], err)
				}
				v = parsed
			}
			values[i] = append(values[i], v)
		}
	}

	table := series.NewTable()
	table.SetTimes(times)
	if symbolIdx >= 0 {
		if err := table.SetSymbols(symbols); err != nil {
			return nil, err
		}
	}
	for i, name := range header {
		if i == timeIdx || i == symbolIdx {
			continue
		}
		if err := table.AddColumn(a.canonicalName(name), values[i]); err != nil {
			return nil, err
		}
	}
	return table, nil
}

type csvWriterArgs struct {
	DirPath string `mapstructure:"dir_path"`
	Prefix  string `mapstructure:"prefix"`
	Suffix  string `mapstructure:"suffix"`
}

// runManifest accompanies csv output so downstream jobs can discover what a
// run produced without parsing the data file.
type runManifest struct {
	GeneratedAt string   `yaml:"generated_at"`
	Rows        int      `yaml:"rows"`
	Symbols     []string `yaml:"symbols,omitempty"`
	Columns     []string `yaml:"columns"`
	DataFile    string   `yaml:"data_file"`
}

// WriteCSV persists the assembled factor table as
// {prefix}calculations{suffix}.csv plus a yaml manifest in the same
// directory.
func WriteCSV(_ context.Context, table *series.Table, raw map[string]any) error {
	var a csvWriterArgs
	if err := args.Decode(raw, &a); err != nil {
		return err
	}
	if a.DirPath == "" {
		return fmt.Errorf("csv writer requires dir_path")
	}
	if err := os.MkdirAll(a.DirPath, 0o755); err != nil {
		return err
	}
	dataName := fmt.Sprintf("%scalculations%s.csv", a.Prefix, a.Suffix)
	f, err := os.Create(filepath.Join(a.DirPath, dataName))
	if err != nil {
		return err
	}
	defer f.Close()
	if err := EncodeCSV(table, f); err != nil {
		return err
	}

	manifest := runManifest{
		GeneratedAt: series.FormatTime(time.Now()),
		Rows:        table.Len(),
		Columns:     table.Columns(),
		DataFile:    dataName,
	}
	for _, s := range series.Summarize(table) {
		if s.Symbol != "" {
			manifest.Symbols = append(manifest.Symbols, s.Symbol)
		}
	}
	buf, err := yaml.Marshal(manifest)
	if err != nil {
		return err
	}
	manifestName := fmt.Sprintf("%smanifest%s.yaml", a.Prefix, a.Suffix)
	return os.WriteFile(filepath.Join(a.DirPath, manifestName), buf, 0o644)
}

// EncodeCSV writes the table in its canonical textual form: symbol column
// first when present, then time, then data columns in table order. NaN
// cells are emitted empty. The encoding is deterministic so identical
// tables produce identical bytes.
func EncodeCSV(table *series.Table, w io.Writer) error {
	cw := csv.NewWriter(w)
	cols := table.Columns()
	header := make([]string, 0, len(cols)+2)
	hasSymbols := table.Symbols() != nil
	if hasSymbols {
		header = append(header, "symbol")
	}
	header = append(header, "time")
	header = append(header, cols...)
	if err := cw.Write(header); err != nil {
		return err
	}
	record := make([]string, len(header))
	for i, ts := range table.Times() {
		record = record[:0]
		if hasSymbols {
			record = append(record, table.Symbols()[i])
		}
		record = append(record, series.FormatTime(ts))
		for _, name := range cols {
			vals, _ := table.Column(name)
			if math.IsNaN(vals[i]) {
				record = append(record, "")
			} else {
				record = append(record, strconv.FormatFloat(vals[i], 'g', -1, 64))
			}
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
