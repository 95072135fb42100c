package ingestion

import (
	"github.com/dennisdiepolder/monti/feedback/internal/normalize"
	"github.com/dennisdiepolder/monti/feedback/internal/types"
)

// ColumnCount is the width of a metrics sheet: the display name followed by
// one column per metric
const ColumnCount = 1 + len(metricColumns)

// column maps one sheet column onto a MonthlyMetrics field
type column struct {
	name   string
	kind   normalize.Kind
	assign func(m *types.MonthlyMetrics, v normalize.Value)
}

func intCol(name string, field func(*types.MonthlyMetrics) **int) column {
	return column{name, normalize.KindInteger, func(m *types.MonthlyMetrics, v normalize.Value) {
		*field(m) = v.Integer
	}}
}

func decCol(name string, field func(*types.MonthlyMetrics) **float64) column {
	return column{name, normalize.KindDecimal, func(m *types.MonthlyMetrics, v normalize.Value) {
		*field(m) = v.Decimal
	}}
}

func durCol(name string, field func(*types.MonthlyMetrics) **types.Duration) column {
	return column{name, normalize.KindDuration, func(m *types.MonthlyMetrics, v normalize.Value) {
		*field(m) = v.Duration
	}}
}

func pctCol(name string, field func(*types.MonthlyMetrics) **types.Percent) column {
	return column{name, normalize.KindPercent, func(m *types.MonthlyMetrics, v normalize.Value) {
		*field(m) = v.Percent
	}}
}

// metricColumns are sheet columns 1 to 30, in order
var metricColumns = [...]column{
	intCol("calls.count", func(m *types.MonthlyMetrics) **int { return &m.Calls.Count }),
	durCol("calls.averageHandleTime", func(m *types.MonthlyMetrics) **types.Duration { return &m.Calls.AverageHandleTime }),
	decCol("calls.surveyScore", func(m *types.MonthlyMetrics) **float64 { return &m.Calls.SurveyScore }),
	intCol("calls.surveyCount", func(m *types.MonthlyMetrics) **int { return &m.Calls.SurveyCount }),
	intCol("tickets.count", func(m *types.MonthlyMetrics) **int { return &m.Tickets.Count }),
	durCol("tickets.averageTreatmentTime", func(m *types.MonthlyMetrics) **types.Duration { return &m.Tickets.AverageTreatmentTime }),
	decCol("tickets.surveyScore", func(m *types.MonthlyMetrics) **float64 { return &m.Tickets.SurveyScore }),
	intCol("tickets.surveyCount", func(m *types.MonthlyMetrics) **int { return &m.Tickets.SurveyCount }),
	decCol("quality.score", func(m *types.MonthlyMetrics) **float64 { return &m.Quality.Score }),
	intCol("quality.evaluations", func(m *types.MonthlyMetrics) **int { return &m.Quality.Evaluations }),
	durCol("attendance.loggedScheduled", func(m *types.MonthlyMetrics) **types.Duration { return &m.Attendance.LoggedScheduled }),
	durCol("attendance.loggedActual", func(m *types.MonthlyMetrics) **types.Duration { return &m.Attendance.LoggedActual }),
	pctCol("attendance.loggedPercentage", func(m *types.MonthlyMetrics) **types.Percent { return &m.Attendance.LoggedPercentage }),
	intCol("attendance.absences", func(m *types.MonthlyMetrics) **int { return &m.Attendance.Absences }),
	intCol("attendance.tardiness", func(m *types.MonthlyMetrics) **int { return &m.Attendance.Tardiness }),
	durCol("attendance.breakScheduled", func(m *types.MonthlyMetrics) **types.Duration { return &m.Attendance.BreakScheduled }),
	durCol("attendance.breakActual", func(m *types.MonthlyMetrics) **types.Duration { return &m.Attendance.BreakActual }),
	pctCol("attendance.breakPercentage", func(m *types.MonthlyMetrics) **types.Percent { return &m.Attendance.BreakPercentage }),
	durCol("attendance.lunchScheduled", func(m *types.MonthlyMetrics) **types.Duration { return &m.Attendance.LunchScheduled }),
	durCol("attendance.lunchActual", func(m *types.MonthlyMetrics) **types.Duration { return &m.Attendance.LunchActual }),
	pctCol("attendance.lunchPercentage", func(m *types.MonthlyMetrics) **types.Percent { return &m.Attendance.LunchPercentage }),
	durCol("attendance.shortBreakScheduled", func(m *types.MonthlyMetrics) **types.Duration { return &m.Attendance.ShortBreakScheduled }),
	durCol("attendance.shortBreakActual", func(m *types.MonthlyMetrics) **types.Duration { return &m.Attendance.ShortBreakActual }),
	durCol("attendance.bathroomScheduled", func(m *types.MonthlyMetrics) **types.Duration { return &m.Attendance.BathroomScheduled }),
	durCol("attendance.bathroomActual", func(m *types.MonthlyMetrics) **types.Duration { return &m.Attendance.BathroomActual }),
	pctCol("attendance.bathroomPercentage", func(m *types.MonthlyMetrics) **types.Percent { return &m.Attendance.BathroomPercentage }),
	durCol("attendance.feedbackScheduled", func(m *types.MonthlyMetrics) **types.Duration { return &m.Attendance.FeedbackScheduled }),
	durCol("attendance.feedbackActual", func(m *types.MonthlyMetrics) **types.Duration { return &m.Attendance.FeedbackActual }),
	durCol("attendance.trainingScheduled", func(m *types.MonthlyMetrics) **types.Duration { return &m.Attendance.TrainingScheduled }),
	durCol("attendance.trainingActual", func(m *types.MonthlyMetrics) **types.Duration { return &m.Attendance.TrainingActual }),
}

// ColumnNames returns the field names of sheet columns 1 to 30
func ColumnNames() []string {
	names := make([]string, len(metricColumns))
	for i, c := range metricColumns {
		names[i] = c.name
	}
	return names
}
