package types

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MaxDurationHours is the largest hour count a canonical duration can carry
const MaxDurationHours = 999

var canonicalDuration = regexp.MustCompile(`^(\d{1,3}):(\d{2}):(\d{2})$`)

// Duration is an elapsed time in canonical H:MM:SS form (e.g. "36:00:00").
// Hours may exceed 24 and keep the digits they were written with;
// DurationFromSeconds pads them to at least two.
type Duration string

// DurationFromSeconds formats a second count as a canonical duration.
// Negative counts and counts beyond MaxDurationHours are rejected.
func DurationFromSeconds(total int) (Duration, bool) {
	if total < 0 {
		return "", false
	}
	hours := total / 3600
	if hours > MaxDurationHours {
		return "", false
	}
	minutes := (total % 3600) / 60
	seconds := total % 60
	return Duration(fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)), true
}

// ParseDuration accepts only strings already in canonical form
func ParseDuration(s string) (Duration, bool) {
	d := Duration(strings.TrimSpace(s))
	if _, ok := d.Seconds(); !ok {
		return "", false
	}
	return d, true
}

// Seconds returns the total second count of a canonical duration
func (d Duration) Seconds() (int, bool) {
	parts := canonicalDuration.FindStringSubmatch(string(d))
	if parts == nil {
		return 0, false
	}
	hours, _ := strconv.Atoi(parts[1])
	minutes, _ := strconv.Atoi(parts[2])
	seconds, _ := strconv.Atoi(parts[3])
	if minutes >= 60 || seconds >= 60 {
		return 0, false
	}
	return hours*3600 + minutes*60 + seconds, true
}

// Percent is a percentage in the source locale form: comma decimal,
// two fraction digits and a trailing sign (e.g. "83,00%").
type Percent string

// PercentFromValue formats a value already expressed in percentage units
func PercentFromValue(v float64) Percent {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	return Percent(strings.Replace(s, ".", ",", 1) + "%")
}

// Value returns the numeric percentage (83.0 for "83,00%")
func (p Percent) Value() (float64, bool) {
	s := strings.TrimSuffix(strings.TrimSpace(string(p)), "%")
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
