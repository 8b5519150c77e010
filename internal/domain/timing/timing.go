// Package timing formats race and lap times for display.
package timing

import (
	"fmt"
	"math"
	"time"
)

// FormatRaceTime renders seconds as m:ss.mmm, e.g. 5423.417 -> "90:23.417".
// Negative or non-finite values render as an empty string.
func FormatRaceTime(seconds float64) string {
	ms, ok := millis(seconds)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%d:%02d.%03d", ms/60000, (ms/1000)%60, ms%1000)
}

// FormatClock renders a duration as h:mm:ss.mmm, the classified leader format.
func FormatClock(d time.Duration) string {
	if d < 0 {
		return ""
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%d:%02d:%02d.%03d", ms/3600000, (ms/60000)%60, (ms/1000)%60, ms%1000)
}

// Gap renders the interval to the leader as +x.xxxs. The leader itself gets "".
func Gap(leader, t float64) string {
	if t <= leader {
		return ""
	}
	return fmt.Sprintf("+%.3fs", t-leader)
}

func millis(seconds float64) (int64, bool) {
	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0, false
	}
	return int64(math.Round(seconds * 1000)), true
}
