package dataio

import "factorizer/internal/registry"

// Register installs the built-in loaders and writers.
func Register(reg *registry.Registry) {
	reg.RegisterLoader("csv", LoadCSV)
	reg.RegisterLoader("jsonl", LoadJSONL)
	reg.RegisterLoader("sqlite", LoadSQLite)
	reg.RegisterLoader("binance", LoadBinance)

	reg.RegisterWriter("csv", WriteCSV)
	reg.RegisterWriter("sqlite", WriteSQLite)
	reg.RegisterWriter("chart", WriteChart)
}
