package types

import "time"

// Bar is one OHLCV candle. A slice of bars ordered by ascending, unique Time
// is the event stream a backtest runs over.
type Bar struct {
	Symbol string    `json:"symbol,omitempty" csv:"symbol" yaml:"symbol,omitempty"`
	Time   time.Time `json:"time" csv:"time" yaml:"time"`
	Open   float64   `json:"open" csv:"open" yaml:"open"`
	High   float64   `json:"high" csv:"high" yaml:"high"`
	Low    float64   `json:"low" csv:"low" yaml:"low"`
	Close  float64   `json:"close" csv:"close" yaml:"close"`
	Volume float64   `json:"volume" csv:"volume" yaml:"volume"`
}

// Closes extracts the close prices of bars in order.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}

	return out
}

// PricePoint is a primary-timeframe bar annotated with its MACD values, kept
// for charting. Indicator values are NaN until the indicator is defined.
type PricePoint struct {
	Bar
	MACD      Metric `json:"macd"`
	Signal    Metric `json:"macd_signal"`
	Histogram Metric `json:"macd_histogram"`
}
