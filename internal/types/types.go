package types

import (
	"errors"
	"fmt"
	"strings"
)

// Month represents one reporting period of the rolling three-month window
type Month string

const (
	Outubro  Month = "Outubro"
	Novembro Month = "Novembro"
	Dezembro Month = "Dezembro"
)

// Months lists the reporting periods in chronological order
var Months = []Month{Outubro, Novembro, Dezembro}

// ErrUnknownMonth is returned for month names outside the reporting window
var ErrUnknownMonth = errors.New("unknown month")

// ParseMonth resolves a month name case-insensitively
func ParseMonth(s string) (Month, error) {
	name := strings.TrimSpace(s)
	for _, m := range Months {
		if strings.EqualFold(name, string(m)) {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMonth, s)
}

// Valid reports whether m belongs to the reporting window
func (m Month) Valid() bool {
	return m.index() >= 0
}

// Before reports whether m is chronologically earlier than other
func (m Month) Before(other Month) bool {
	i, j := m.index(), other.index()
	return i >= 0 && j >= 0 && i < j
}

func (m Month) index() int {
	for i, candidate := range Months {
		if candidate == m {
			return i
		}
	}
	return -1
}

// CallMetrics contains the phone channel figures of one month
type CallMetrics struct {
	Count             *int      `json:"count"`
	AverageHandleTime *Duration `json:"averageHandleTime"` // TMA
	SurveyScore       *float64  `json:"surveyScore"`
	SurveyCount       *int      `json:"surveyCount"`
}

// TicketMetrics contains the ticket channel figures of one month
type TicketMetrics struct {
	Count                *int      `json:"count"`
	AverageTreatmentTime *Duration `json:"averageTreatmentTime"` // TMT
	SurveyScore          *float64  `json:"surveyScore"`
	SurveyCount          *int      `json:"surveyCount"`
}

// QualityMetrics contains monitoring results of one month
type QualityMetrics struct {
	Score       *float64 `json:"score"` // percentage-like scale
	Evaluations *int     `json:"evaluations"`
}

// AttendanceMetrics contains scheduled vs. actual time figures of one month.
// Durations are cumulative over the period and may exceed 24 hours.
type AttendanceMetrics struct {
	LoggedScheduled     *Duration `json:"loggedScheduled"`
	LoggedActual        *Duration `json:"loggedActual"`
	LoggedPercentage    *Percent  `json:"loggedPercentage"`
	Absences            *int      `json:"absences"`
	Tardiness           *int      `json:"tardiness"`
	BreakScheduled      *Duration `json:"breakScheduled"`
	BreakActual         *Duration `json:"breakActual"`
	BreakPercentage     *Percent  `json:"breakPercentage"`
	LunchScheduled      *Duration `json:"lunchScheduled"`
	LunchActual         *Duration `json:"lunchActual"`
	LunchPercentage     *Percent  `json:"lunchPercentage"`
	ShortBreakScheduled *Duration `json:"shortBreakScheduled"`
	ShortBreakActual    *Duration `json:"shortBreakActual"`
	BathroomScheduled   *Duration `json:"bathroomScheduled"`
	BathroomActual      *Duration `json:"bathroomActual"`
	BathroomPercentage  *Percent  `json:"bathroomPercentage"`
	FeedbackScheduled   *Duration `json:"feedbackScheduled"`
	FeedbackActual      *Duration `json:"feedbackActual"`
	TrainingScheduled   *Duration `json:"trainingScheduled"`
	TrainingActual      *Duration `json:"trainingActual"`
}

// MonthlyMetrics groups every figure reported for an operator in one month.
// Absent figures are nil and serialize as null.
type MonthlyMetrics struct {
	Calls      CallMetrics       `json:"calls"`
	Tickets    TicketMetrics     `json:"tickets"`
	Quality    QualityMetrics    `json:"quality"`
	Attendance AttendanceMetrics `json:"attendance"`
}

// HasData reports whether at least one figure is present
func (m *MonthlyMetrics) HasData() bool {
	if m == nil {
		return false
	}
	c, t, q, a := m.Calls, m.Tickets, m.Quality, m.Attendance
	return anyInt(c.Count, c.SurveyCount, t.Count, t.SurveyCount, q.Evaluations, a.Absences, a.Tardiness) ||
		anyFloat(c.SurveyScore, t.SurveyScore, q.Score) ||
		anyDuration(c.AverageHandleTime, t.AverageTreatmentTime,
			a.LoggedScheduled, a.LoggedActual, a.BreakScheduled, a.BreakActual,
			a.LunchScheduled, a.LunchActual, a.ShortBreakScheduled, a.ShortBreakActual,
			a.BathroomScheduled, a.BathroomActual, a.FeedbackScheduled, a.FeedbackActual,
			a.TrainingScheduled, a.TrainingActual) ||
		anyPercent(a.LoggedPercentage, a.BreakPercentage, a.LunchPercentage, a.BathroomPercentage)
}

func anyInt(values ...*int) bool {
	for _, v := range values {
		if v != nil {
			return true
		}
	}
	return false
}

func anyFloat(values ...*float64) bool {
	for _, v := range values {
		if v != nil {
			return true
		}
	}
	return false
}

func anyDuration(values ...*Duration) bool {
	for _, v := range values {
		if v != nil {
			return true
		}
	}
	return false
}

func anyPercent(values ...*Percent) bool {
	for _, v := range values {
		if v != nil {
			return true
		}
	}
	return false
}
