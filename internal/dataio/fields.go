// Package dataio provides the built-in loaders and writers: local files
// (csv, jsonl, sqlite), the binance kline API, and report-style outputs
// (sqlite, charts). All of them are looked up through the capability
// registry; none is special to the engine.
package dataio

import "factorizer/internal/series"

// fieldArgs lets a source keep its own column names; loaders map them onto
// the canonical bar columns before the engine sees the table.
type fieldArgs struct {
	SymbolField string `mapstructure:"symbol_field"`
	TimeField   string `mapstructure:"time_field"`
	OpenField   string `mapstructure:"open_field"`
	HighField   string `mapstructure:"high_field"`
	LowField    string `mapstructure:"low_field"`
	CloseField  string `mapstructure:"close_field"`
	VolumeField string `mapstructure:"volume_field"`
}

func (f *fieldArgs) applyDefaults() {
	if f.SymbolField == "" {
		f.SymbolField = "symbol"
	}
	if f.TimeField == "" {
		f.TimeField = "time"
	}
	if f.OpenField == "" {
		f.OpenField = series.ColOpen
	}
	if f.HighField == "" {
		f.HighField = series.ColHigh
	}
	if f.LowField == "" {
		f.LowField = series.ColLow
	}
	if f.CloseField == "" {
		f.CloseField = series.ColClose
	}
	if f.VolumeField == "" {
		f.VolumeField = series.ColVolume
	}
}

// canonicalName maps a source column name onto the canonical bar column it
// is configured as, or returns it unchanged (already-computed factor columns
// ride along under their own names).
func (f *fieldArgs) canonicalName(name string) string {
	switch name {
	case f.OpenField:
		return series.ColOpen
	case f.HighField:
		return series.ColHigh
	case f.LowField:
		return series.ColLow
	case f.CloseField:
		return series.ColClose
	case f.VolumeField:
		return series.ColVolume
	}
	return name
}
