package signal

import (
	"github.com/rxtech-lab/argo-macd/internal/types"
)

// Decision is the outcome of a multi-timeframe vote.
type Decision string

const (
	DecisionLong  Decision = "LONG"
	DecisionShort Decision = "SHORT"
	DecisionWait  Decision = "WAIT"
)

// VoteConfig weights each timeframe and each signal kind.
type VoteConfig struct {
	TimeframeWeights map[types.Timeframe]float64  `yaml:"timeframe_weights" json:"timeframe_weights"`
	KindWeights      map[types.SignalKind]float64 `yaml:"kind_weights" json:"kind_weights"`
	// Threshold is the minimum score gap that produces LONG or SHORT.
	Threshold float64 `yaml:"threshold" json:"threshold"`
}

// DefaultVoteConfig uses Fibonacci weights from 15m up to 3d.
func DefaultVoteConfig() VoteConfig {
	return VoteConfig{
		TimeframeWeights: map[types.Timeframe]float64{
			types.Timeframe15m: 1,
			types.Timeframe30m: 2,
			types.Timeframe1h:  3,
			types.Timeframe4h:  5,
			types.Timeframe1d:  8,
			types.Timeframe3d:  13,
		},
		KindWeights: map[types.SignalKind]float64{
			types.SignalKindBuy:       1.0,
			types.SignalKindSell:      1.0,
			types.SignalKindValleyBuy: 1.5,
			types.SignalKindTopSell:   1.5,
			types.SignalKindHold:      0,
		},
		Threshold: 2.0,
	}
}

// DefaultTimeframes is the timeframe set of DefaultVoteConfig, shortest first.
func DefaultTimeframes() []types.Timeframe {
	return []types.Timeframe{
		types.Timeframe15m,
		types.Timeframe30m,
		types.Timeframe1h,
		types.Timeframe4h,
		types.Timeframe1d,
		types.Timeframe3d,
	}
}

// WeightedSignal is a signal with its contribution to the vote.
type WeightedSignal struct {
	types.Signal
	Weight float64 `json:"weight"`
}

// VoteResult holds both side scores and the decision.
type VoteResult struct {
	Decision   Decision         `json:"decision"`
	LongScore  float64          `json:"long_score"`
	ShortScore float64          `json:"short_score"`
	Signals    []WeightedSignal `json:"signals"`
}

// Weight is timeframe weight x kind weight x strength.
func (c VoteConfig) Weight(s types.Signal) float64 {
	return c.TimeframeWeights[s.Timeframe] * c.KindWeights[s.Kind] * s.Strength
}

// Vote scores signals per side and decides LONG or SHORT when one side
// leads the other by at least the threshold.
func Vote(signals []types.Signal, config VoteConfig) VoteResult {
	result := VoteResult{
		Decision: DecisionWait,
		Signals:  make([]WeightedSignal, 0, len(signals)),
	}

	for _, s := range signals {
		weight := config.Weight(s)
		result.Signals = append(result.Signals, WeightedSignal{Signal: s, Weight: weight})

		direction, ok := s.Kind.Direction()
		if !ok {
			continue
		}

		switch direction {
		case types.PositionTypeLong:
			result.LongScore += weight
		case types.PositionTypeShort:
			result.ShortScore += weight
		}
	}

	switch {
	case result.LongScore-result.ShortScore >= config.Threshold:
		result.Decision = DecisionLong
	case result.ShortScore-result.LongScore >= config.Threshold:
		result.Decision = DecisionShort
	}

	return result
}
