package trend

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/dennisdiepolder/monti/feedback/internal/types"
)

func intPtr(n int) *int { return &n }

func durPtr(s string) *types.Duration {
	d := types.Duration(s)
	return &d
}

func record(months map[types.Month]*types.MonthlyMetrics) *types.OperatorRecord {
	return &types.OperatorRecord{Email: "ana.souza@example.com", Months: months}
}

func TestComparePolarityInversion(t *testing.T) {
	rec := record(map[types.Month]*types.MonthlyMetrics{
		types.Outubro: {Calls: types.CallMetrics{Count: intPtr(100), AverageHandleTime: durPtr("00:05:00")}},
		types.Novembro: {Calls: types.CallMetrics{Count: intPtr(70), AverageHandleTime: durPtr("00:03:30")}},
	})

	report := NewComparator(DefaultPolicy()).Compare(rec, types.Novembro)
	if report == nil {
		t.Fatal("expected report")
	}

	tma := report.PerMetric[MetricAverageHandleTime]
	if tma == nil {
		t.Fatal("expected TMA result")
	}
	if tma.Current != 210 || tma.BaselineAverage != 300 {
		t.Errorf("expected 210 vs 300 seconds, got %v vs %v", tma.Current, tma.BaselineAverage)
	}
	if tma.PercentChange != -30 {
		t.Errorf("expected -30%%, got %v", tma.PercentChange)
	}
	if tma.Status != StatusImproved {
		t.Errorf("expected TMA improved, got %s", tma.Status)
	}

	calls := report.PerMetric[MetricCalls]
	if calls == nil || calls.PercentChange != -30 || calls.Status != StatusRegressed {
		t.Errorf("expected calls -30%% regressed, got %+v", calls)
	}
	if calls.Difference != -30 || calls.MonthsCompared != 1 {
		t.Errorf("unexpected calls figures: %+v", calls)
	}
}

func TestCompareEqualIsOnPar(t *testing.T) {
	rec := record(map[types.Month]*types.MonthlyMetrics{
		types.Outubro:  {Calls: types.CallMetrics{Count: intPtr(80), AverageHandleTime: durPtr("00:04:00")}},
		types.Dezembro: {Calls: types.CallMetrics{Count: intPtr(80), AverageHandleTime: durPtr("00:04:00")}},
	})

	report := NewComparator(Policy{DeadBandPct: 0}).Compare(rec, types.Dezembro)
	if report == nil {
		t.Fatal("expected report")
	}
	for _, r := range report.Results() {
		if r.Status != StatusOnPar {
			t.Errorf("%s: expected on par, got %s", r.Metric, r.Status)
		}
	}
}

func TestCompareDeadBand(t *testing.T) {
	tests := []struct {
		name    string
		before  int
		after   int
		metric  Metric
		want    Status
		absence bool
	}{
		{"within band up", 100, 105, MetricCalls, StatusOnPar, false},
		{"within band down", 100, 95, MetricCalls, StatusOnPar, false},
		{"above band", 100, 106, MetricCalls, StatusImproved, false},
		{"below band", 100, 94, MetricCalls, StatusRegressed, false},
		{"absences up is worse", 10, 12, MetricAbsences, StatusRegressed, true},
		{"absences down is better", 10, 8, MetricAbsences, StatusImproved, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			month := func(n int) *types.MonthlyMetrics {
				if tt.absence {
					return &types.MonthlyMetrics{Attendance: types.AttendanceMetrics{Absences: intPtr(n)}}
				}
				return &types.MonthlyMetrics{Calls: types.CallMetrics{Count: intPtr(n)}}
			}
			rec := record(map[types.Month]*types.MonthlyMetrics{
				types.Outubro:  month(tt.before),
				types.Novembro: month(tt.after),
			})

			report := NewComparator(DefaultPolicy()).Compare(rec, types.Novembro)
			if report == nil {
				t.Fatal("expected report")
			}
			if got := report.PerMetric[tt.metric].Status; got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestCompareDeadBandBoundaryFractionalScores(t *testing.T) {
	tests := []struct {
		name   string
		before float64
		after  float64
		want   Status
	}{
		{"exactly five up", 0.7, 0.735, StatusOnPar},
		{"exactly five down", 0.7, 0.665, StatusOnPar},
		{"exactly five whole scores", 80, 84, StatusOnPar},
		{"just above band", 0.7, 0.7351, StatusImproved},
		{"just below band", 0.7, 0.6649, StatusRegressed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before, after := tt.before, tt.after
			rec := record(map[types.Month]*types.MonthlyMetrics{
				types.Outubro:  {Quality: types.QualityMetrics{Score: &before}},
				types.Novembro: {Quality: types.QualityMetrics{Score: &after}},
			})

			report := NewComparator(DefaultPolicy()).Compare(rec, types.Novembro)
			if report == nil {
				t.Fatal("expected report")
			}
			result := report.PerMetric[MetricQualityScore]
			if result.Status != tt.want {
				t.Errorf("expected %s, got %s (change %v)", tt.want, result.Status, result.PercentChange)
			}
		})
	}
}

func TestCompareInsufficientHistory(t *testing.T) {
	single := record(map[types.Month]*types.MonthlyMetrics{
		types.Novembro: {Calls: types.CallMetrics{Count: intPtr(10)}},
	})
	c := NewComparator(DefaultPolicy())

	if c.Compare(single, types.Novembro) != nil {
		t.Error("expected nil for a single populated month")
	}
	if c.Compare(single, types.Dezembro) != nil {
		t.Error("expected nil for an absent reference month")
	}
	if c.Compare(nil, types.Novembro) != nil {
		t.Error("expected nil for nil record")
	}

	emptyBaseline := record(map[types.Month]*types.MonthlyMetrics{
		types.Outubro:  {},
		types.Novembro: {Calls: types.CallMetrics{Count: intPtr(10)}},
	})
	if c.Compare(emptyBaseline, types.Novembro) != nil {
		t.Error("expected nil when earlier months have no data")
	}
}

func TestCompareSkipsIncomparableMetrics(t *testing.T) {
	rec := record(map[types.Month]*types.MonthlyMetrics{
		types.Outubro: {
			Calls:   types.CallMetrics{Count: intPtr(100)},
			Tickets: types.TicketMetrics{Count: intPtr(0)},
			Quality: types.QualityMetrics{Evaluations: intPtr(0)},
		},
		types.Novembro: {
			Calls:   types.CallMetrics{Count: intPtr(120)},
			Tickets: types.TicketMetrics{Count: intPtr(5)},
			Quality: types.QualityMetrics{Evaluations: intPtr(0)},
		},
		types.Dezembro: {
			Calls:      types.CallMetrics{Count: intPtr(110), AverageHandleTime: durPtr("00:03:00")},
			Tickets:    types.TicketMetrics{Count: intPtr(6)},
			Quality:    types.QualityMetrics{Evaluations: intPtr(0)},
			Attendance: types.AttendanceMetrics{Absences: intPtr(1)},
		},
	})

	report := NewComparator(DefaultPolicy()).Compare(rec, types.Dezembro)
	if report == nil {
		t.Fatal("expected report")
	}

	if len(report.BaselineMonths) != 2 {
		t.Errorf("expected two baseline months, got %v", report.BaselineMonths)
	}
	calls := report.PerMetric[MetricCalls]
	if calls.BaselineAverage != 110 || calls.Status != StatusOnPar || calls.MonthsCompared != 2 {
		t.Errorf("unexpected calls result: %+v", calls)
	}
	for _, m := range []Metric{MetricAverageHandleTime, MetricAbsences} {
		if _, ok := report.PerMetric[m]; ok {
			t.Errorf("%s has no baseline and should be skipped", m)
		}
	}
	if tickets := report.PerMetric[MetricTickets]; tickets == nil || tickets.BaselineAverage != 2.5 {
		t.Errorf("expected tickets averaged over 0 and 5, got %+v", tickets)
	}
	if ev := report.PerMetric[MetricEvaluations]; ev == nil || ev.PercentChange != 0 || ev.Status != StatusOnPar {
		t.Errorf("expected zero over zero to be on par, got %+v", ev)
	}
}

func TestCompareZeroBaselineNonZeroCurrent(t *testing.T) {
	rec := record(map[types.Month]*types.MonthlyMetrics{
		types.Outubro:  {Attendance: types.AttendanceMetrics{Tardiness: intPtr(0), Absences: intPtr(2)}},
		types.Novembro: {Attendance: types.AttendanceMetrics{Tardiness: intPtr(3), Absences: intPtr(2)}},
	})

	report := NewComparator(DefaultPolicy()).Compare(rec, types.Novembro)
	if report == nil {
		t.Fatal("expected report")
	}
	if _, ok := report.PerMetric[MetricTardiness]; ok {
		t.Error("change from zero baseline should be skipped")
	}
	if len(report.Results()) != 1 {
		t.Errorf("expected only absences, got %d results", len(report.Results()))
	}
}

func TestSummaryText(t *testing.T) {
	rec := record(map[types.Month]*types.MonthlyMetrics{
		types.Outubro: {
			Calls:   types.CallMetrics{Count: intPtr(100), AverageHandleTime: durPtr("00:05:00")},
			Tickets: types.TicketMetrics{Count: intPtr(50)},
			Quality: types.QualityMetrics{Evaluations: intPtr(4)},
		},
		types.Novembro: {
			Calls:   types.CallMetrics{Count: intPtr(50), AverageHandleTime: durPtr("00:04:00")},
			Tickets: types.TicketMetrics{Count: intPtr(80)},
			Quality: types.QualityMetrics{Evaluations: intPtr(4)},
		},
	})

	report := NewComparator(DefaultPolicy()).Compare(rec, types.Novembro)
	if report == nil {
		t.Fatal("expected report")
	}

	want := "Melhorou: TMA, Chamados\nPiorou: Ligações\nManteve: Avaliações"
	if report.SummaryText != want {
		t.Errorf("expected summary\n%s\ngot\n%s", want, report.SummaryText)
	}
}

func TestSummaryOmitsEmptyGroups(t *testing.T) {
	got := summarize([]*MetricResult{{Label: "Faltas", Status: StatusImproved}})
	if got != "Melhorou: Faltas" {
		t.Errorf("unexpected summary %q", got)
	}
	if strings.Contains(got, "Piorou") || strings.Contains(got, "Manteve") {
		t.Error("empty groups should be omitted")
	}
}

func TestPolicyOverride(t *testing.T) {
	policy := DefaultPolicy()
	policy.DeadBandPct = 50
	policy.Polarity[MetricCalls] = LowerIsBetter

	rec := record(map[types.Month]*types.MonthlyMetrics{
		types.Outubro:  {Calls: types.CallMetrics{Count: intPtr(100)}},
		types.Novembro: {Calls: types.CallMetrics{Count: intPtr(40)}},
	})
	report := NewComparator(policy).Compare(rec, types.Novembro)
	if got := report.PerMetric[MetricCalls].Status; got != StatusImproved {
		t.Errorf("expected improved with inverted polarity, got %s", got)
	}

	if DefaultPolicy().Polarity[MetricCalls] != HigherIsBetter {
		t.Error("overriding a policy should not change the defaults")
	}
}

func TestReportJSON(t *testing.T) {
	rec := record(map[types.Month]*types.MonthlyMetrics{
		types.Outubro:  {Calls: types.CallMetrics{Count: intPtr(100)}},
		types.Novembro: {Calls: types.CallMetrics{Count: intPtr(100)}},
	})
	data, err := json.Marshal(NewComparator(DefaultPolicy()).Compare(rec, types.Novembro))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(data)
	for _, want := range []string{`"referenceMonth":"Novembro"`, `"baselineMonths":["Outubro"]`, `"perMetric":{"calls":`, `"status":"on par"`} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}
}
