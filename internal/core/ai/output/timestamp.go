package output

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// maxTimestampSeconds is the largest value whose microsecond count fits in
// an int64.
const maxTimestampSeconds = float64(math.MaxInt64 / 1_000_000)

// FormatTimestamp renders seconds as an SRT timestamp, HH:MM:SS,mmm.
// The value is rounded to the nearest microsecond and then truncated to
// milliseconds, so 2.9999999 renders as 00:00:03,000. Negative and NaN
// inputs render as zero, +Inf and huge values saturate, and hours grow past
// two digits rather than wrapping.
func FormatTimestamp(seconds float64) string {
	switch {
	case seconds < 0 || math.IsNaN(seconds):
		seconds = 0
	case !(seconds < maxTimestampSeconds):
		seconds = maxTimestampSeconds
	}
	// round to microseconds first so 1.001 does not become 1.000
	us := int64(math.Round(seconds * 1e6))
	ms := us / 1000

	h := ms / 3_600_000
	m := ms / 60_000 % 60
	s := ms / 1000 % 60
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, ms%1000)
}

// ParseTimestamp reads an SRT timestamp back into seconds.
// A '.' millisecond separator is accepted as well as ','.
func ParseTimestamp(ts string) (float64, error) {
	ts = strings.TrimSpace(ts)
	clock, frac, ok := strings.Cut(strings.Replace(ts, ".", ",", 1), ",")
	if !ok {
		return 0, fmt.Errorf("invalid timestamp %q: missing milliseconds", ts)
	}

	parts := strings.Split(clock, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q: want HH:MM:SS,mmm", ts)
	}

	var fields [4]int64
	for i, p := range append(parts, frac) {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid timestamp %q", ts)
		}
		fields[i] = n
	}
	if fields[1] > 59 || fields[2] > 59 || len(frac) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q: field out of range", ts)
	}

	ms := fields[0]*3_600_000 + fields[1]*60_000 + fields[2]*1000 + fields[3]
	return float64(ms) / 1000, nil
}
