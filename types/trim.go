package types

import (
	"math"
	"strconv"
	"strings"
)

// ParseTrim turns user entered bounds into a TrimRange for a clip of the
// given duration. An unparsable or negative start becomes 0. An end that is
// unparsable, not positive, past the clip or not after start becomes the
// full duration.
func ParseTrim(start, end string, duration float64) TrimRange {
	if duration < 0 || math.IsNaN(duration) {
		duration = 0
	}
	s := parseSeconds(start)
	if math.IsNaN(s) || s < 0 {
		s = 0
	}
	e := parseSeconds(end)
	if math.IsNaN(e) || e <= 0 || e > duration || e <= s {
		e = duration
	}
	return ClampTrim(s, e, duration)
}

// ClampTrim enforces 0 <= start <= end <= duration.
func ClampTrim(start, end, duration float64) TrimRange {
	if math.IsNaN(start) {
		start = 0
	}
	if math.IsNaN(end) {
		end = duration
	}
	start = math.Max(0, math.Min(start, duration))
	end = math.Max(start, math.Min(end, duration))
	return TrimRange{Start: start, End: end}
}

func parseSeconds(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(v, 0) {
		return math.NaN()
	}
	return v
}
