package types

type IndicatorType string

const (
	IndicatorTypeSMA            IndicatorType = "sma"
	IndicatorTypeEMA            IndicatorType = "ema"
	IndicatorTypeWMA            IndicatorType = "wma"
	IndicatorTypeStdDev         IndicatorType = "stddev"
	IndicatorTypeRSI            IndicatorType = "rsi"
	IndicatorTypeATR            IndicatorType = "atr"
	IndicatorTypeMACD           IndicatorType = "macd"
	IndicatorTypeBollingerBands IndicatorType = "bollinger_bands"
	IndicatorTypeVortex         IndicatorType = "vortex"
	IndicatorTypeKeltner        IndicatorType = "keltner"
	IndicatorTypeHighest        IndicatorType = "highest"
	IndicatorTypeLowest         IndicatorType = "lowest"
	// IndicatorTypeCustom marks producers built from a plain function.
	IndicatorTypeCustom IndicatorType = "custom"
)
