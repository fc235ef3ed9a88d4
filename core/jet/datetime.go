package jet

import (
	"math"
	"time"
)

// oleEpoch is day zero of the OLE automation date scale used by Jet.
var oleEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const secondsPerDay = 86400

// FromOLEDate converts an OLE automation date: the integer part counts days
// from 1899-12-30 and the fractional part is the time of day. For negative
// values the fraction still moves forward from midnight. The result is
// rounded to the millisecond.
func FromOLEDate(v float64) time.Time {
	days := math.Trunc(v)
	ms := math.Round(math.Abs(v-days) * secondsPerDay * 1000)
	return oleEpoch.AddDate(0, 0, int(days)).Add(time.Duration(ms) * time.Millisecond)
}

// ToOLEDate is the inverse of FromOLEDate for times on or after the epoch.
func ToOLEDate(t time.Time) float64 {
	t = t.UTC()
	midnight := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	days := math.Round(midnight.Sub(oleEpoch).Hours() / 24)
	return days + t.Sub(midnight).Seconds()/secondsPerDay
}
