package types

import (
	"fmt"
	"time"

	"github.com/rxtech-lab/argo-macd/pkg/errors"
)

// SignalKind is the closed set of tags a signal generator can emit.
type SignalKind string

const (
	SignalKindBuy       SignalKind = "buy"
	SignalKindSell      SignalKind = "sell"
	SignalKindValleyBuy SignalKind = "valley_buy"
	SignalKindTopSell   SignalKind = "top_sell"
	SignalKindHold      SignalKind = "hold"
)

// AllSignalKinds lists every kind in declaration order.
var AllSignalKinds = []SignalKind{
	SignalKindBuy,
	SignalKindSell,
	SignalKindValleyBuy,
	SignalKindTopSell,
	SignalKindHold,
}

// ParseSignalKind converts a tag into a SignalKind.
func ParseSignalKind(s string) (SignalKind, error) {
	for _, k := range AllSignalKinds {
		if string(k) == s {
			return k, nil
		}
	}

	return "", errors.Newf(errors.ErrCodeInvalidParameter, "unknown signal kind %q", s)
}

// Direction returns the position a signal asks to open. Hold has no direction.
func (k SignalKind) Direction() (PositionType, bool) {
	switch k {
	case SignalKindBuy, SignalKindValleyBuy:
		return PositionTypeLong, true
	case SignalKindSell, SignalKindTopSell:
		return PositionTypeShort, true
	case SignalKindHold:
		return "", false
	default:
		panic(fmt.Sprintf("unhandled signal kind %q", string(k)))
	}
}

// IsHold reports whether k never triggers an action.
func (k SignalKind) IsHold() bool {
	return k == SignalKindHold
}

// IsExtreme reports whether k is a valley buy or a top sell.
func (k SignalKind) IsExtreme() bool {
	return k == SignalKindValleyBuy || k == SignalKindTopSell
}

// Signal is one generator output for one timeframe at one bar.
type Signal struct {
	Time      time.Time  `json:"time" yaml:"time"`
	Timeframe Timeframe  `json:"timeframe" yaml:"timeframe"`
	Kind      SignalKind `json:"kind" yaml:"kind"`
	// Strength is normalized to [0,1]; hold always carries 0.
	Strength float64 `json:"strength" yaml:"strength"`
}

// HoldSignal returns the neutral signal for a timeframe.
func HoldSignal(timeframe Timeframe, t time.Time) Signal {
	return Signal{
		Time:      t,
		Timeframe: timeframe,
		Kind:      SignalKindHold,
		Strength:  0,
	}
}

func cloneSignals(signals []Signal) []Signal {
	if len(signals) == 0 {
		return []Signal{}
	}

	out := make([]Signal, len(signals))
	copy(out, signals)

	return out
}
