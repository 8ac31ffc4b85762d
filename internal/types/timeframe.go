package types

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rxtech-lab/argo-macd/pkg/errors"
)

// Timeframe is a bar aggregation label such as "15m", "4h" or "1d".
type Timeframe string

const (
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe30m Timeframe = "30m"
	Timeframe1h  Timeframe = "1h"
	Timeframe4h  Timeframe = "4h"
	Timeframe1d  Timeframe = "1d"
	Timeframe3d  Timeframe = "3d"
	Timeframe1w  Timeframe = "1w"
)

// ParseTimeframe validates s and returns it as a Timeframe.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(s)
	if _, err := tf.Duration(); err != nil {
		return "", err
	}

	return tf, nil
}

// ParseTimeframes parses a list of labels, rejecting duplicates.
func ParseTimeframes(labels []string) ([]Timeframe, error) {
	seen := make(map[Timeframe]struct{}, len(labels))
	out := make([]Timeframe, 0, len(labels))

	for _, label := range labels {
		tf, err := ParseTimeframe(label)
		if err != nil {
			return nil, err
		}

		if _, ok := seen[tf]; ok {
			return nil, errors.Newf(errors.ErrCodeInvalidTimeframe, "duplicate timeframe %q", label)
		}

		seen[tf] = struct{}{}
		out = append(out, tf)
	}

	return out, nil
}

// Duration returns the wall-clock length of one bar.
func (t Timeframe) Duration() (time.Duration, error) {
	s := string(t)
	if len(s) < 2 {
		return 0, errors.Newf(errors.ErrCodeInvalidTimeframe, "invalid timeframe %q", s)
	}

	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n <= 0 {
		return 0, errors.Newf(errors.ErrCodeInvalidTimeframe, "invalid timeframe %q", s)
	}

	var unit time.Duration

	switch s[len(s)-1] {
	case 'm':
		unit = time.Minute
	case 'h':
		unit = time.Hour
	case 'd':
		unit = 24 * time.Hour
	case 'w':
		unit = 7 * 24 * time.Hour
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidTimeframe, "invalid timeframe unit in %q", s)
	}

	return time.Duration(n) * unit, nil
}

// MustDuration is Duration for timeframes already validated.
func (t Timeframe) MustDuration() time.Duration {
	d, err := t.Duration()
	if err != nil {
		panic(fmt.Sprintf("timeframe %q: %v", string(t), err))
	}

	return d
}

func (t Timeframe) String() string {
	return string(t)
}
