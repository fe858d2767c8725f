package factor

import (
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"

	"factorizer/internal/pkg/args"
	"factorizer/internal/series"
)

// defaultPeriods applies when an indicator spec omits the periods argument.
var defaultPeriods = []int{2, 5}

type periodArgs struct {
	Periods []int `mapstructure:"periods"`
}

func (p periodArgs) periods() []int {
	if len(p.Periods) == 0 {
		return defaultPeriods
	}
	return p.Periods
}

func requireColumn(bars *series.Frame, capability, column string) ([]float64, error) {
	vals, ok := bars.Column(column)
	if !ok {
		return nil, &MissingColumnError{Capability: capability, Column: column}
	}
	return vals, nil
}

// markWarmup blanks the leading lookback region with NaN. go-talib emits
// zeros there, which are indistinguishable from real values downstream.
func markWarmup(vals []float64, lookback int) []float64 {
	if lookback > len(vals) {
		lookback = len(vals)
	}
	for i := 0; i < lookback; i++ {
		vals[i] = math.NaN()
	}
	return vals
}

func allNaN(n int) []float64 {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = math.NaN()
	}
	return vals
}

// safeCompute runs a go-talib call only when the partition extends past its
// lookback; talib indexes into that region unconditionally and would panic
// on shorter input. Partitions that are all lookback come back as all NaN.
func safeCompute(n, lookback int, fn func() []float64) []float64 {
	if lookback >= n {
		return allNaN(n)
	}
	return markWarmup(fn(), lookback)
}

// sanitize maps infinities (from divisions by zero) onto the NaN marker.
func sanitize(vals []float64) []float64 {
	for i, v := range vals {
		if math.IsInf(v, 0) {
			vals[i] = math.NaN()
		}
	}
	return vals
}

func smaIndicator(bars *series.Frame, raw map[string]any) (*series.ColumnSet, error) {
	var a periodArgs
	if err := args.Decode(raw, &a); err != nil {
		return nil, err
	}
	closes, err := requireColumn(bars, "SMA", series.ColClose)
	if err != nil {
		return nil, err
	}
	out := series.NewColumnSet()
	for _, p := range a.periods() {
		if err := out.Add(fmt.Sprintf("sma_%d", p), safeCompute(len(closes), p-1, func() []float64 { return talib.Sma(closes, p) })); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func emaIndicator(bars *series.Frame, raw map[string]any) (*series.ColumnSet, error) {
	var a periodArgs
	if err := args.Decode(raw, &a); err != nil {
		return nil, err
	}
	closes, err := requireColumn(bars, "EMA", series.ColClose)
	if err != nil {
		return nil, err
	}
	out := series.NewColumnSet()
	for _, p := range a.periods() {
		if err := out.Add(fmt.Sprintf("ema_%d", p), safeCompute(len(closes), p-1, func() []float64 { return talib.Ema(closes, p) })); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func rsiIndicator(bars *series.Frame, raw map[string]any) (*series.ColumnSet, error) {
	var a periodArgs
	if err := args.Decode(raw, &a); err != nil {
		return nil, err
	}
	closes, err := requireColumn(bars, "RSI", series.ColClose)
	if err != nil {
		return nil, err
	}
	out := series.NewColumnSet()
	for _, p := range a.periods() {
		if err := out.Add(fmt.Sprintf("rsi_%d", p), safeCompute(len(closes), p, func() []float64 { return talib.Rsi(closes, p) })); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func returnIndicator(bars *series.Frame, raw map[string]any) (*series.ColumnSet, error) {
	var a periodArgs
	if err := args.Decode(raw, &a); err != nil {
		return nil, err
	}
	closes, err := requireColumn(bars, "Return", series.ColClose)
	if err != nil {
		return nil, err
	}
	out := series.NewColumnSet()
	for _, p := range a.periods() {
		vals := make([]float64, len(closes))
		for i := range closes {
			if i < p {
				vals[i] = math.NaN()
				continue
			}
			vals[i] = closes[i] - closes[i-p]
		}
		if err := out.Add(fmt.Sprintf("return_%d", p), vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func returnPctIndicator(bars *series.Frame, raw map[string]any) (*series.ColumnSet, error) {
	var a periodArgs
	if err := args.Decode(raw, &a); err != nil {
		return nil, err
	}
	closes, err := requireColumn(bars, "Percentage_Of_Return", series.ColClose)
	if err != nil {
		return nil, err
	}
	out := series.NewColumnSet()
	for _, p := range a.periods() {
		vals := make([]float64, len(closes))
		for i := range closes {
			if i < p {
				vals[i] = math.NaN()
				continue
			}
			vals[i] = (closes[i] - closes[i-p]) / closes[i-p]
		}
		if err := out.Add(fmt.Sprintf("return_pct_%d", p), sanitize(vals)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func obvIndicator(bars *series.Frame, _ map[string]any) (*series.ColumnSet, error) {
	closes, err := requireColumn(bars, "OBV", series.ColClose)
	if err != nil {
		return nil, err
	}
	volumes, err := requireColumn(bars, "OBV", series.ColVolume)
	if err != nil {
		return nil, err
	}
	vals := allNaN(len(closes))
	if len(closes) > 0 {
		vals = talib.Obv(closes, volumes)
	}
	out := series.NewColumnSet()
	if err := out.Add("obv", vals); err != nil {
		return nil, err
	}
	return out, nil
}

func adLineIndicator(bars *series.Frame, _ map[string]any) (*series.ColumnSet, error) {
	highs, err := requireColumn(bars, "AD", series.ColHigh)
	if err != nil {
		return nil, err
	}
	lows, err := requireColumn(bars, "AD", series.ColLow)
	if err != nil {
		return nil, err
	}
	closes, err := requireColumn(bars, "AD", series.ColClose)
	if err != nil {
		return nil, err
	}
	volumes, err := requireColumn(bars, "AD", series.ColVolume)
	if err != nil {
		return nil, err
	}
	vals := allNaN(len(closes))
	if len(closes) > 0 {
		vals = sanitize(talib.Ad(highs, lows, closes, volumes))
	}
	out := series.NewColumnSet()
	if err := out.Add("ad_line", vals); err != nil {
		return nil, err
	}
	return out, nil
}

func adxIndicator(bars *series.Frame, raw map[string]any) (*series.ColumnSet, error) {
	var a periodArgs
	if err := args.Decode(raw, &a); err != nil {
		return nil, err
	}
	highs, err := requireColumn(bars, "ADX", series.ColHigh)
	if err != nil {
		return nil, err
	}
	lows, err := requireColumn(bars, "ADX", series.ColLow)
	if err != nil {
		return nil, err
	}
	closes, err := requireColumn(bars, "ADX", series.ColClose)
	if err != nil {
		return nil, err
	}
	out := series.NewColumnSet()
	for _, p := range a.periods() {
		// talib ADX lookback is 2p-1.
		if err := out.Add(fmt.Sprintf("adx_%d", p), safeCompute(len(closes), 2*p-1, func() []float64 { return talib.Adx(highs, lows, closes, p) })); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func aroonIndicator(bars *series.Frame, raw map[string]any) (*series.ColumnSet, error) {
	var a periodArgs
	if err := args.Decode(raw, &a); err != nil {
		return nil, err
	}
	highs, err := requireColumn(bars, "Aroon", series.ColHigh)
	if err != nil {
		return nil, err
	}
	lows, err := requireColumn(bars, "Aroon", series.ColLow)
	if err != nil {
		return nil, err
	}
	out := series.NewColumnSet()
	for _, p := range a.periods() {
		down, up := allNaN(len(highs)), allNaN(len(highs))
		if p < len(highs) {
			d, u := talib.Aroon(highs, lows, p)
			down, up = markWarmup(d, p), markWarmup(u, p)
		}
		if err := out.Add(fmt.Sprintf("aroon_down_%d", p), down); err != nil {
			return nil, err
		}
		if err := out.Add(fmt.Sprintf("aroon_up_%d", p), up); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type macdArgs struct {
	FastPeriod   int `mapstructure:"fast_period"`
	SlowPeriod   int `mapstructure:"slow_period"`
	SignalPeriod int `mapstructure:"signal_period"`
}

func macdIndicator(bars *series.Frame, raw map[string]any) (*series.ColumnSet, error) {
	a := macdArgs{FastPeriod: 12, SlowPeriod: 26, SignalPeriod: 9}
	if err := args.Decode(raw, &a); err != nil {
		return nil, err
	}
	closes, err := requireColumn(bars, "MACD", series.ColClose)
	if err != nil {
		return nil, err
	}
	warm := a.SlowPeriod + a.SignalPeriod - 2
	line := allNaN(len(closes))
	if warm < len(closes) {
		raw, _, _ := talib.Macd(closes, a.FastPeriod, a.SlowPeriod, a.SignalPeriod)
		line = markWarmup(raw, warm)
	}
	out := series.NewColumnSet()
	name := fmt.Sprintf("macd_%d_%d_%d", a.FastPeriod, a.SlowPeriod, a.SignalPeriod)
	if err := out.Add(name, line); err != nil {
		return nil, err
	}
	return out, nil
}

type stochArgs struct {
	FastKPeriod int `mapstructure:"fastk_period"`
	SlowKPeriod int `mapstructure:"slowk_period"`
	SlowDPeriod int `mapstructure:"slowd_period"`
}

func stochIndicator(bars *series.Frame, raw map[string]any) (*series.ColumnSet, error) {
	a := stochArgs{FastKPeriod: 5, SlowKPeriod: 3, SlowDPeriod: 3}
	if err := args.Decode(raw, &a); err != nil {
		return nil, err
	}
	highs, err := requireColumn(bars, "STOCH", series.ColHigh)
	if err != nil {
		return nil, err
	}
	lows, err := requireColumn(bars, "STOCH", series.ColLow)
	if err != nil {
		return nil, err
	}
	closes, err := requireColumn(bars, "STOCH", series.ColClose)
	if err != nil {
		return nil, err
	}
	warm := a.FastKPeriod + a.SlowKPeriod + a.SlowDPeriod - 3
	slowK, slowD := allNaN(len(closes)), allNaN(len(closes))
	if warm < len(closes) {
		k, d := talib.Stoch(highs, lows, closes, a.FastKPeriod, a.SlowKPeriod, talib.SMA, a.SlowDPeriod, talib.SMA)
		slowK, slowD = markWarmup(k, warm), markWarmup(d, warm)
	}
	out := series.NewColumnSet()
	suffix := fmt.Sprintf("%d_%d_%d", a.FastKPeriod, a.SlowKPeriod, a.SlowDPeriod)
	if err := out.Add("stoch_k_"+suffix, slowK); err != nil {
		return nil, err
	}
	if err := out.Add("stoch_d_"+suffix, slowD); err != nil {
		return nil, err
	}
	return out, nil
}

func atrIndicator(bars *series.Frame, raw map[string]any) (*series.ColumnSet, error) {
	var a periodArgs
	if err := args.Decode(raw, &a); err != nil {
		return nil, err
	}
	highs, err := requireColumn(bars, "ATR", series.ColHigh)
	if err != nil {
		return nil, err
	}
	lows, err := requireColumn(bars, "ATR", series.ColLow)
	if err != nil {
		return nil, err
	}
	closes, err := requireColumn(bars, "ATR", series.ColClose)
	if err != nil {
		return nil, err
	}
	out := series.NewColumnSet()
	for _, p := range a.periods() {
		if err := out.Add(fmt.Sprintf("atr_%d", p), safeCompute(len(closes), p, func() []float64 { return talib.Atr(highs, lows, closes, p) })); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func biasIndicator(bars *series.Frame, raw map[string]any) (*series.ColumnSet, error) {
	var a periodArgs
	if err := args.Decode(raw, &a); err != nil {
		return nil, err
	}
	closes, err := requireColumn(bars, "BIAS", series.ColClose)
	if err != nil {
		return nil, err
	}
	out := series.NewColumnSet()
	for _, p := range a.periods() {
		sma := safeCompute(len(closes), p-1, func() []float64 { return talib.Sma(closes, p) })
		vals := make([]float64, len(closes))
		for i := range closes {
			vals[i] = (closes[i] - sma[i]) / sma[i]
		}
		if err := out.Add(fmt.Sprintf("bias_%d", p), sanitize(vals)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func prrIndicator(bars *series.Frame, _ map[string]any) (*series.ColumnSet, error) {
	highs, err := requireColumn(bars, "PRR", series.ColHigh)
	if err != nil {
		return nil, err
	}
	lows, err := requireColumn(bars, "PRR", series.ColLow)
	if err != nil {
		return nil, err
	}
	vals := make([]float64, len(highs))
	for i := range highs {
		vals[i] = highs[i] / lows[i]
	}
	out := series.NewColumnSet()
	if err := out.Add("prr", sanitize(vals)); err != nil {
		return nil, err
	}
	return out, nil
}

func rocIndicator(bars *series.Frame, raw map[string]any) (*series.ColumnSet, error) {
	var a periodArgs
	if err := args.Decode(raw, &a); err != nil {
		return nil, err
	}
	closes, err := requireColumn(bars, "ROC", series.ColClose)
	if err != nil {
		return nil, err
	}
	out := series.NewColumnSet()
	for _, p := range a.periods() {
		if err := out.Add(fmt.Sprintf("roc_%d", p), sanitize(safeCompute(len(closes), p, func() []float64 { return talib.Roc(closes, p) }))); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func ampIndicator(bars *series.Frame, raw map[string]any) (*series.ColumnSet, error) {
	var a periodArgs
	if err := args.Decode(raw, &a); err != nil {
		return nil, err
	}
	closes, err := requireColumn(bars, "AMP", series.ColClose)
	if err != nil {
		return nil, err
	}
	out := series.NewColumnSet()
	for _, p := range a.periods() {
		maxs := safeCompute(len(closes), p-1, func() []float64 { return talib.Max(closes, p) })
		mins := safeCompute(len(closes), p-1, func() []float64 { return talib.Min(closes, p) })
		vals := make([]float64, len(closes))
		for i := range closes {
			vals[i] = (maxs[i] - mins[i]) / mins[i]
		}
		if err := out.Add(fmt.Sprintf("amp_%d", p), sanitize(vals)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func volIndicator(bars *series.Frame, raw map[string]any) (*series.ColumnSet, error) {
	var a periodArgs
	if err := args.Decode(raw, &a); err != nil {
		return nil, err
	}
	closes, err := requireColumn(bars, "VOL", series.ColClose)
	if err != nil {
		return nil, err
	}
	out := series.NewColumnSet()
	for _, p := range a.periods() {
		sma := safeCompute(len(closes), p-1, func() []float64 { return talib.Sma(closes, p) })
		std := safeCompute(len(closes), p-1, func() []float64 { return talib.StdDev(closes, p, 1.0) })
		vals := make([]float64, len(closes))
		for i := range closes {
			vals[i] = sma[i] / std[i]
		}
		if err := out.Add(fmt.Sprintf("vol_%d", p), sanitize(vals)); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func hlIndicator(bars *series.Frame, raw map[string]any) (*series.ColumnSet, error) {
	var a periodArgs
	if err := args.Decode(raw, &a); err != nil {
		return nil, err
	}
	highs, err := requireColumn(bars, "HL", series.ColHigh)
	if err != nil {
		return nil, err
	}
	lows, err := requireColumn(bars, "HL", series.ColLow)
	if err != nil {
		return nil, err
	}
	ratio := make([]float64, len(highs))
	for i := range highs {
		ratio[i] = highs[i] / lows[i]
	}
	ratio = sanitize(ratio)
	out := series.NewColumnSet()
	for _, p := range a.periods() {
		if err := out.Add(fmt.Sprintf("hl_%d", p), safeCompute(len(ratio), p-1, func() []float64 { return talib.Sma(ratio, p) })); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func dpoIndicator(bars *series.Frame, raw map[string]any) (*series.ColumnSet, error) {
	var a periodArgs
	if err := args.Decode(raw, &a); err != nil {
		return nil, err
	}
	closes, err := requireColumn(bars, "DPO", series.ColClose)
	if err != nil {
		return nil, err
	}
	out := series.NewColumnSet()
	for _, p := range a.periods() {
		sma := safeCompute(len(closes), p-1, func() []float64 { return talib.Sma(closes, p) })
		shift := p/2 + 1
		vals := make([]float64, len(closes))
		for i := range closes {
			if i < shift {
				vals[i] = math.NaN()
				continue
			}
			vals[i] = closes[i-shift] - sma[i]
		}
		if err := out.Add(fmt.Sprintf("dpo_%d", p), vals); err != nil {
			return nil, err
		}
	}
	return out, nil
}
