package projector

import "github.com/dennisdiepolder/monti/feedback/internal/types"

// View is the flat per-month shape consumed by feedback and export tooling.
// Field names are part of the external contract.
type View struct {
	Month string `json:"month,omitempty"`

	CallCount          *int            `json:"callCount"`
	AverageHandleTime  *types.Duration `json:"averageHandleTime"`
	CallSurveyScore    *float64        `json:"callSurveyScore"`
	CallSurveyCount    *int            `json:"callSurveyCount"`
	TicketCount        *int            `json:"ticketCount"`
	AverageTreatment   *types.Duration `json:"averageTreatmentTime"`
	TicketSurveyScore  *float64        `json:"ticketSurveyScore"`
	TicketSurveyCount  *int            `json:"ticketSurveyCount"`
	QualityScore       *float64        `json:"qualityScore"`
	QualityEvaluations *int            `json:"qualityEvaluations"`

	LoggedScheduled     *types.Duration `json:"loggedScheduled"`
	LoggedActual        *types.Duration `json:"loggedActual"`
	LoggedPercentage    *types.Percent  `json:"loggedPercentage"`
	Absences            *int            `json:"absences"`
	Tardiness           *int            `json:"tardiness"`
	BreakScheduled      *types.Duration `json:"breakScheduled"`
	BreakActual         *types.Duration `json:"breakActual"`
	BreakPercentage     *types.Percent  `json:"breakPercentage"`
	LunchScheduled      *types.Duration `json:"lunchScheduled"`
	LunchActual         *types.Duration `json:"lunchActual"`
	LunchPercentage     *types.Percent  `json:"lunchPercentage"`
	ShortBreakScheduled *types.Duration `json:"shortBreakScheduled"`
	ShortBreakActual    *types.Duration `json:"shortBreakActual"`
	BathroomScheduled   *types.Duration `json:"bathroomScheduled"`
	BathroomActual      *types.Duration `json:"bathroomActual"`
	BathroomPercentage  *types.Percent  `json:"bathroomPercentage"`
	FeedbackScheduled   *types.Duration `json:"feedbackScheduled"`
	FeedbackActual      *types.Duration `json:"feedbackActual"`
	TrainingScheduled   *types.Duration `json:"trainingScheduled"`
	TrainingActual      *types.Duration `json:"trainingActual"`
}

// Flatten converts grouped metrics into a View. A nil input yields nil.
func Flatten(m *types.MonthlyMetrics, month types.Month) *View {
	if m == nil {
		return nil
	}
	c, t, q, a := m.Calls, m.Tickets, m.Quality, m.Attendance
	return &View{
		Month: string(month),

		CallCount:          c.Count,
		AverageHandleTime:  c.AverageHandleTime,
		CallSurveyScore:    c.SurveyScore,
		CallSurveyCount:    c.SurveyCount,
		TicketCount:        t.Count,
		AverageTreatment:   t.AverageTreatmentTime,
		TicketSurveyScore:  t.SurveyScore,
		TicketSurveyCount:  t.SurveyCount,
		QualityScore:       q.Score,
		QualityEvaluations: q.Evaluations,

		LoggedScheduled:     a.LoggedScheduled,
		LoggedActual:        a.LoggedActual,
		LoggedPercentage:    a.LoggedPercentage,
		Absences:            a.Absences,
		Tardiness:           a.Tardiness,
		BreakScheduled:      a.BreakScheduled,
		BreakActual:         a.BreakActual,
		BreakPercentage:     a.BreakPercentage,
		LunchScheduled:      a.LunchScheduled,
		LunchActual:         a.LunchActual,
		LunchPercentage:     a.LunchPercentage,
		ShortBreakScheduled: a.ShortBreakScheduled,
		ShortBreakActual:    a.ShortBreakActual,
		BathroomScheduled:   a.BathroomScheduled,
		BathroomActual:      a.BathroomActual,
		BathroomPercentage:  a.BathroomPercentage,
		FeedbackScheduled:   a.FeedbackScheduled,
		FeedbackActual:      a.FeedbackActual,
		TrainingScheduled:   a.TrainingScheduled,
		TrainingActual:      a.TrainingActual,
	}
}

// ProjectView projects rec and flattens the result in one step
func ProjectView(rec *types.OperatorRecord, month types.Month) *View {
	m, used := Project(rec, month)
	return Flatten(m, used)
}
