package factor

import "factorizer/internal/registry"

// Register installs the built-in indicators and crosses. User code may call
// the registry afterwards to add or replace entries under its own names.
func Register(reg *registry.Registry) {
	reg.RegisterIndicator("SMA", smaIndicator)
	reg.RegisterIndicator("EMA", emaIndicator)
	reg.RegisterIndicator("RSI", rsiIndicator)
	reg.RegisterIndicator("Return", returnIndicator)
	reg.RegisterIndicator("Percentage_Of_Return", returnPctIndicator)
	reg.RegisterIndicator("OBV", obvIndicator)
	reg.RegisterIndicator("AD", adLineIndicator)
	reg.RegisterIndicator("ADX", adxIndicator)
	reg.RegisterIndicator("Aroon", aroonIndicator)
	reg.RegisterIndicator("MACD", macdIndicator)
	reg.RegisterIndicator("STOCH", stochIndicator)
	reg.RegisterIndicator("ATR", atrIndicator)
	reg.RegisterIndicator("BIAS", biasIndicator)
	reg.RegisterIndicator("PRR", prrIndicator)
	reg.RegisterIndicator("ROC", rocIndicator)
	reg.RegisterIndicator("AMP", ampIndicator)
	reg.RegisterIndicator("VOL", volIndicator)
	reg.RegisterIndicator("HL", hlIndicator)
	reg.RegisterIndicator("DPO", dpoIndicator)

	reg.RegisterCross("MUL", registry.CrossEntry{Fn: mulCross, OrderSensitive: true})
	reg.RegisterCross("W_SUM", registry.CrossEntry{Fn: wsumCross, OrderSensitive: true, Sequential: true})
	reg.RegisterCross("PCA", registry.CrossEntry{Fn: pcaCross})
}
