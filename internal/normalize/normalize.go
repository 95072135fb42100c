// Package normalize decodes raw spreadsheet cell values into typed metric
// values. Every decoder is total: input it cannot interpret yields nil, so a
// single bad cell never aborts the decoding of a sheet.
package normalize

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dennisdiepolder/monti/feedback/internal/types"
)

// Kind identifies the domain type a cell decodes into
type Kind int

const (
	KindInteger Kind = iota
	KindDecimal
	KindDuration
	KindPercent
)

func (k Kind) String() string {
	switch k {
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindDuration:
		return "duration"
	case KindPercent:
		return "percent"
	default:
		return "unknown"
	}
}

// Hint is the display text the spreadsheet renders for a cell
type Hint string

// IsPercent reports whether the cell is displayed with a percentage format
func (h Hint) IsPercent() bool {
	return strings.HasSuffix(strings.TrimSpace(string(h)), "%")
}

// Value is a decoded cell; exactly one field is set unless the cell is null
type Value struct {
	Kind     Kind
	Integer  *int
	Decimal  *float64
	Duration *types.Duration
	Percent  *types.Percent
}

// IsNull reports whether the cell decoded to nothing
func (v Value) IsNull() bool {
	return v.Integer == nil && v.Decimal == nil && v.Duration == nil && v.Percent == nil
}

// Normalize decodes raw into the requested kind
func Normalize(raw any, kind Kind, hint Hint) Value {
	v := Value{Kind: kind}
	switch kind {
	case KindInteger:
		v.Integer = Integer(raw)
	case KindDecimal:
		v.Decimal = Decimal(raw)
	case KindDuration:
		v.Duration = Duration(raw)
	case KindPercent:
		v.Percent = Percent(raw, hint)
	}
	return v
}

// eraOrigin is day zero of spreadsheet serial dates
var eraOrigin = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

// sentinels are placeholder texts used by the source sheets for "no data"
var sentinels = map[string]struct{}{
	"-":        {},
	"##":       {},
	"#n/a":     {},
	"em breve": {},
}

func isSentinel(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return true
	}
	_, ok := sentinels[s]
	return ok
}

// Integer decodes counts. Text keeps only digits and minus signs.
func Integer(raw any) *int {
	if f, ok := asNumber(raw); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt32 {
			return nil
		}
		n := int(math.Round(f))
		return &n
	}

	s, ok := asText(raw)
	if !ok || isSentinel(s) {
		return nil
	}
	digits := strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		return -1
	}, s)
	if digits == "" || digits == "-" {
		return nil
	}
	n, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &n
}

// Decimal decodes scores. Text may use comma or dot decimals and a trailing %.
func Decimal(raw any) *float64 {
	if f, ok := asNumber(raw); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return &f
	}

	s, ok := asText(raw)
	if !ok || isSentinel(s) {
		return nil
	}
	f, ok := parseLocaleNumber(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	if !ok {
		return nil
	}
	return &f
}

// timeShaped matches H:M[:S] texts before range validation
var timeShaped = regexp.MustCompile(`^(\d{1,3}):(\d{1,2})(?::(\d{1,2}))?$`)

// Duration decodes elapsed times given as day fractions, serial date/times or
// H:MM:SS text into the canonical duration form.
func Duration(raw any) *types.Duration {
	if f, ok := asNumber(raw); ok {
		return fromDays(f)
	}

	if t, ok := raw.(time.Time); ok {
		if t.IsZero() {
			return nil
		}
		return fromDays(t.Sub(eraOrigin).Seconds() / 86400)
	}

	s, ok := asText(raw)
	if !ok || isSentinel(s) {
		return nil
	}
	s = strings.TrimSpace(s)

	if parts := timeShaped.FindStringSubmatch(s); parts != nil {
		minutes, _ := strconv.Atoi(parts[2])
		seconds := 0
		if parts[3] != "" {
			seconds, _ = strconv.Atoi(parts[3])
		}
		if minutes >= 60 || seconds >= 60 {
			return nil
		}
		// hour digits are kept as written so canonical input round-trips
		d := types.Duration(fmt.Sprintf("%s:%02d:%02d", parts[1], minutes, seconds))
		return &d
	}

	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromDays(f)
	}
	return nil
}

func fromDays(f float64) *types.Duration {
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return nil
	}
	total := math.Round(f * 86400)
	if total >= float64(types.MaxDurationHours+1)*3600 {
		return nil
	}
	d, ok := types.DurationFromSeconds(int(total))
	if !ok {
		return nil
	}
	return &d
}

// Percent decodes percentages. Numbers below 1 in magnitude are fractions and
// are scaled by 100; numbers from 1 up are taken as already being percentage
// units, unless the hint shows a percentage display format, in which case the
// stored number is always a fraction.
func Percent(raw any, hint Hint) *types.Percent {
	if f, ok := asNumber(raw); ok {
		return percentFromNumber(f, hint)
	}

	s, ok := asText(raw)
	if !ok || isSentinel(s) {
		return nil
	}
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, "%") {
		f, ok := parseLocaleNumber(strings.TrimSpace(strings.TrimSuffix(s, "%")))
		if !ok {
			return nil
		}
		p := types.PercentFromValue(f)
		return &p
	}

	f, ok := parseLocaleNumber(s)
	if !ok {
		return nil
	}
	return percentFromNumber(f, hint)
}

func percentFromNumber(f float64, hint Hint) *types.Percent {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	if hint.IsPercent() || math.Abs(f) < 1 {
		f *= 100
	}
	p := types.PercentFromValue(f)
	return &p
}

// parseLocaleNumber accepts "83,5", "83.5" and "1.234,5"
func parseLocaleNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func asNumber(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func asText(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	case time.Time:
		return "", false
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}
