package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type SignalTestSuite struct {
	suite.Suite
}

func TestSignalSuite(t *testing.T) {
	suite.Run(t, new(SignalTestSuite))
}

func (suite *SignalTestSuite) TestDirection() {
	tests := []struct {
		kind      SignalKind
		direction PositionType
		ok        bool
	}{
		{SignalKindBuy, PositionTypeLong, true},
		{SignalKindValleyBuy, PositionTypeLong, true},
		{SignalKindSell, PositionTypeShort, true},
		{SignalKindTopSell, PositionTypeShort, true},
		{SignalKindHold, "", false},
	}

	for _, tt := range tests {
		suite.Run(string(tt.kind), func() {
			direction, ok := tt.kind.Direction()
			suite.Equal(tt.ok, ok)
			suite.Equal(tt.direction, direction)
		})
	}
}

func (suite *SignalTestSuite) TestDirectionPanicsOnUnknownKind() {
	suite.Panics(func() {
		_, _ = SignalKind("strong_buy").Direction()
	})
}

func (suite *SignalTestSuite) TestParseSignalKind() {
	kind, err := ParseSignalKind("valley_buy")
	suite.NoError(err)
	suite.Equal(SignalKindValleyBuy, kind)
	suite.True(kind.IsExtreme())

	_, err = ParseSignalKind("moon")
	suite.Error(err)
}

func (suite *SignalTestSuite) TestHoldSignal() {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	signal := HoldSignal(Timeframe1h, now)

	suite.True(signal.Kind.IsHold())
	suite.Equal(0.0, signal.Strength)
	suite.Equal(Timeframe1h, signal.Timeframe)
	suite.Equal(now, signal.Time)
}

func (suite *SignalTestSuite) TestParseTimeframes() {
	tfs, err := ParseTimeframes([]string{"1h", "4h", "1d"})
	suite.Require().NoError(err)
	suite.Equal([]Timeframe{Timeframe1h, Timeframe4h, Timeframe1d}, tfs)

	_, err = ParseTimeframes([]string{"1h", "1h"})
	suite.Error(err)

	_, err = ParseTimeframes([]string{"1y"})
	suite.Error(err)

	_, err = ParseTimeframes([]string{"h"})
	suite.Error(err)
}

func (suite *SignalTestSuite) TestTimeframeDuration() {
	tests := []struct {
		tf       Timeframe
		expected time.Duration
	}{
		{Timeframe15m, 15 * time.Minute},
		{Timeframe4h, 4 * time.Hour},
		{Timeframe3d, 72 * time.Hour},
		{Timeframe1w, 7 * 24 * time.Hour},
	}

	for _, tt := range tests {
		d, err := tt.tf.Duration()
		suite.NoError(err)
		suite.Equal(tt.expected, d)
	}

	suite.Panics(func() { Timeframe("0m").MustDuration() })
}
