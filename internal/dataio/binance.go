package dataio

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/adshao/go-binance/v2/futures"

	"factorizer/internal/logger"
	"factorizer/internal/pkg/args"
	"factorizer/internal/pkg/convert"
	"factorizer/internal/pkg/symbol"
	"factorizer/internal/series"
)

const binanceMaxLimit = 1500

type binanceLoaderArgs struct {
	Symbols  []string `mapstructure:"symbols"`
	Interval string   `mapstructure:"interval"`
	Limit    int      `mapstructure:"limit"`
	BaseURL  string   `mapstructure:"base_url"`
}

// LoadBinance pulls klines from the Binance USDT futures REST API, one
// request per symbol, and assembles them into a multi-symbol bar table in
// the configured symbol order.
func LoadBinance(ctx context.Context, raw map[string]any) (*series.Table, error) {
	a := binanceLoaderArgs{Interval: "1d", Limit: 500}
	if err := args.Decode(raw, &a); err != nil {
		return nil, err
	}
	if len(a.Symbols) == 0 {
		return nil, fmt.Errorf("binance loader requires symbols")
	}
	if a.Limit <= 0 || a.Limit > binanceMaxLimit {
		a.Limit = binanceMaxLimit
	}
	interval := strings.ToLower(strings.TrimSpace(a.Interval))
	if interval == "" {
		return nil, fmt.Errorf("binance loader requires interval")
	}

	client := futures.NewClient("", "")
	client.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	if base := strings.TrimSpace(a.BaseURL); base != "" {
		client.BaseURL = base
	}

	var times []time.Time
	var symbols []string
	var opens, highs, lows, closes, volumes []float64
	for _, symRaw := range a.Symbols {
		sym := symbol.Normalize(symRaw)
		if sym == "" {
			continue
		}
		klines, err := client.NewKlinesService().
			Symbol(sym).
			Interval(interval).
			Limit(a.Limit).
			Do(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching %s %s klines: %w", sym, interval, err)
		}
		logger.Debugf("binance: %s %s returned %d klines", sym, interval, len(klines))
		for _, kl := range klines {
			if kl == nil {
				continue
			}
			times = append(times, time.UnixMilli(kl.OpenTime).UTC())
			symbols = append(symbols, sym)
			opens = append(opens, convert.Float(kl.Open))
			highs = append(highs, convert.Float(kl.High))
			lows = append(lows, convert.Float(kl.Low))
			closes = append(closes, convert.Float(kl.Close))
			volumes = append(volumes, convert.Float(kl.Volume))
		}
	}

	table := series.NewTable()
	table.SetTimes(times)
	if err := table.SetSymbols(symbols); err != nil {
		return nil, err
	}
	for _, col := range []struct {
		name string
		vals []float64
	}{
		{series.ColOpen, opens},
		{series.ColHigh, highs},
		{series.ColLow, lows},
		{series.ColClose, closes},
		{series.ColVolume, volumes},
	} {
		if err := table.AddColumn(col.name, col.vals); err != nil {
			return nil, err
		}
	}
	return table, nil
}
