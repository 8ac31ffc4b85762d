package types

import (
	"encoding/json"
	"sort"
	"time"
)

// TimePoint is one sample of a TimeSeries.
type TimePoint struct {
	Time  time.Time `json:"time" yaml:"time"`
	Value float64   `json:"value" yaml:"value"`
}

// TimeSeries is an ordered mapping from timestamp to value. Setting a
// timestamp that already exists overwrites its value in place.
type TimeSeries struct {
	points []TimePoint
}

// Set records value at t, keeping points sorted by time.
func (s *TimeSeries) Set(t time.Time, value float64) {
	n := len(s.points)
	if n == 0 || s.points[n-1].Time.Before(t) {
		s.points = append(s.points, TimePoint{Time: t, Value: value})

		return
	}

	i := sort.Search(n, func(i int) bool { return !s.points[i].Time.Before(t) })
	if i < n && s.points[i].Time.Equal(t) {
		s.points[i].Value = value

		return
	}

	s.points = append(s.points, TimePoint{})
	copy(s.points[i+1:], s.points[i:])
	s.points[i] = TimePoint{Time: t, Value: value}
}

// Get returns the value at t.
func (s TimeSeries) Get(t time.Time) (float64, bool) {
	i := sort.Search(len(s.points), func(i int) bool { return !s.points[i].Time.Before(t) })
	if i < len(s.points) && s.points[i].Time.Equal(t) {
		return s.points[i].Value, true
	}

	return 0, false
}

func (s TimeSeries) Len() int {
	return len(s.points)
}

// Last returns the most recent point.
func (s TimeSeries) Last() (TimePoint, bool) {
	if len(s.points) == 0 {
		return TimePoint{}, false
	}

	return s.points[len(s.points)-1], true
}

// Points returns a copy of the samples in time order.
func (s TimeSeries) Points() []TimePoint {
	out := make([]TimePoint, len(s.points))
	copy(out, s.points)

	return out
}

// Values returns the sample values in time order.
func (s TimeSeries) Values() []float64 {
	out := make([]float64, len(s.points))
	for i, p := range s.points {
		out[i] = p.Value
	}

	return out
}

// Max returns the largest value, or 0 for an empty series.
func (s TimeSeries) Max() float64 {
	maxValue := 0.0
	for i, p := range s.points {
		if i == 0 || p.Value > maxValue {
			maxValue = p.Value
		}
	}

	return maxValue
}

func (s TimeSeries) MarshalJSON() ([]byte, error) {
	if s.points == nil {
		return []byte("[]"), nil
	}

	return json.Marshal(s.points)
}

func (s *TimeSeries) UnmarshalJSON(data []byte) error {
	var points []TimePoint
	if err := json.Unmarshal(data, &points); err != nil {
		return err
	}

	s.points = nil
	for _, p := range points {
		s.Set(p.Time, p.Value)
	}

	return nil
}
