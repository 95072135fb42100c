package trend

import (
	"github.com/dennisdiepolder/monti/feedback/internal/types"
)

// Metric identifies a tracked figure in a trend report
type Metric string

const (
	MetricCalls                Metric = "calls"
	MetricAverageHandleTime    Metric = "averageHandleTime"
	MetricTickets              Metric = "tickets"
	MetricAverageTreatmentTime Metric = "averageTreatmentTime"
	MetricQualityScore         Metric = "qualityScore"
	MetricEvaluations          Metric = "evaluations"
	MetricLoggedTime           Metric = "loggedTime"
	MetricTotalBreaks          Metric = "totalBreaks"
	MetricBathroomBreak        Metric = "bathroomBreak"
	MetricFeedbackBreak        Metric = "feedbackBreak"
	MetricAbsences             Metric = "absences"
	MetricTardiness            Metric = "tardiness"
)

// Polarity tells which direction of change is desirable for a metric
type Polarity int

const (
	HigherIsBetter Polarity = iota
	LowerIsBetter
)

func (p Polarity) String() string {
	if p == LowerIsBetter {
		return "lower_is_better"
	}
	return "higher_is_better"
}

// Unit of the values reported for a metric
type Unit string

const (
	UnitCount   Unit = "count"
	UnitSeconds Unit = "seconds"
	UnitScore   Unit = "score"
)

// DefaultDeadBandPct is the tolerance, in percentage points, inside which a
// change is reported as on par
const DefaultDeadBandPct = 5.0

// Policy holds the business rules used to classify changes
type Policy struct {
	DeadBandPct float64
	Polarity    map[Metric]Polarity
}

// DefaultPolicy returns the standard polarity table with a ±5 point dead-band
func DefaultPolicy() Policy {
	return Policy{
		DeadBandPct: DefaultDeadBandPct,
		Polarity: map[Metric]Polarity{
			MetricCalls:                HigherIsBetter,
			MetricAverageHandleTime:    LowerIsBetter,
			MetricTickets:              HigherIsBetter,
			MetricAverageTreatmentTime: LowerIsBetter,
			MetricQualityScore:         HigherIsBetter,
			MetricEvaluations:          HigherIsBetter,
			MetricLoggedTime:           HigherIsBetter,
			MetricTotalBreaks:          LowerIsBetter,
			MetricBathroomBreak:        LowerIsBetter,
			MetricFeedbackBreak:        LowerIsBetter,
			MetricAbsences:             LowerIsBetter,
			MetricTardiness:            LowerIsBetter,
		},
	}
}

// polarity falls back to the default table for metrics the policy omits
func (p Policy) polarity(m Metric) Polarity {
	if pol, ok := p.Polarity[m]; ok {
		return pol
	}
	return DefaultPolicy().Polarity[m]
}

// tracked describes how one metric is read from a month
type tracked struct {
	metric  Metric
	label   string
	unit    Unit
	extract func(*types.MonthlyMetrics) (float64, bool)
}

// trackedMetrics is in report order
var trackedMetrics = []tracked{
	{MetricCalls, "Ligações", UnitCount, func(m *types.MonthlyMetrics) (float64, bool) {
		return fromInt(m.Calls.Count)
	}},
	{MetricAverageHandleTime, "TMA", UnitSeconds, func(m *types.MonthlyMetrics) (float64, bool) {
		return fromDuration(m.Calls.AverageHandleTime)
	}},
	{MetricTickets, "Chamados", UnitCount, func(m *types.MonthlyMetrics) (float64, bool) {
		return fromInt(m.Tickets.Count)
	}},
	{MetricAverageTreatmentTime, "TMT", UnitSeconds, func(m *types.MonthlyMetrics) (float64, bool) {
		return fromDuration(m.Tickets.AverageTreatmentTime)
	}},
	{MetricQualityScore, "Nota de Qualidade", UnitScore, func(m *types.MonthlyMetrics) (float64, bool) {
		return fromFloat(m.Quality.Score)
	}},
	{MetricEvaluations, "Avaliações", UnitCount, func(m *types.MonthlyMetrics) (float64, bool) {
		return fromInt(m.Quality.Evaluations)
	}},
	{MetricLoggedTime, "Tempo Logado", UnitSeconds, func(m *types.MonthlyMetrics) (float64, bool) {
		return fromDuration(m.Attendance.LoggedActual)
	}},
	{MetricTotalBreaks, "Pausas", UnitSeconds, func(m *types.MonthlyMetrics) (float64, bool) {
		return fromDuration(m.Attendance.BreakActual)
	}},
	{MetricBathroomBreak, "Pausa Banheiro", UnitSeconds, func(m *types.MonthlyMetrics) (float64, bool) {
		return fromDuration(m.Attendance.BathroomActual)
	}},
	{MetricFeedbackBreak, "Pausa Feedback", UnitSeconds, func(m *types.MonthlyMetrics) (float64, bool) {
		return fromDuration(m.Attendance.FeedbackActual)
	}},
	{MetricAbsences, "Faltas", UnitCount, func(m *types.MonthlyMetrics) (float64, bool) {
		return fromInt(m.Attendance.Absences)
	}},
	{MetricTardiness, "Atrasos", UnitCount, func(m *types.MonthlyMetrics) (float64, bool) {
		return fromInt(m.Attendance.Tardiness)
	}},
}

func fromInt(v *int) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return float64(*v), true
}

func fromFloat(v *float64) (float64, bool) {
	if v == nil {
		return 0, false
	}
	return *v, true
}

func fromDuration(v *types.Duration) (float64, bool) {
	if v == nil {
		return 0, false
	}
	secs, ok := v.Seconds()
	return float64(secs), ok
}
