package types

import (
	"encoding/json"
	"math"
	"strconv"
)

// Metric is a float64 that survives JSON encoding when it is infinite or NaN.
// +Inf and -Inf encode as the strings "inf" and "-inf"; NaN encodes as null.
type Metric float64

func (m Metric) Float64() float64 {
	return float64(m)
}

func (m Metric) IsInf() bool {
	return math.IsInf(float64(m), 0)
}

func (m Metric) MarshalJSON() ([]byte, error) {
	f := float64(m)

	switch {
	case math.IsNaN(f):
		return []byte("null"), nil
	case math.IsInf(f, 1):
		return []byte(`"inf"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-inf"`), nil
	}

	return []byte(strconv.FormatFloat(f, 'g', -1, 64)), nil
}

func (m *Metric) UnmarshalJSON(data []byte) error {
	s := string(data)

	switch s {
	case "null":
		*m = Metric(math.NaN())

		return nil
	case `"inf"`, `"Infinity"`:
		*m = Metric(math.Inf(1))

		return nil
	case `"-inf"`, `"-Infinity"`:
		*m = Metric(math.Inf(-1))

		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}

	*m = Metric(f)

	return nil
}

func (m Metric) String() string {
	f := float64(m)

	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "n/a"
	}

	return strconv.FormatFloat(f, 'f', 2, 64)
}
