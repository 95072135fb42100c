package projector

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/dennisdiepolder/monti/feedback/internal/types"
)

func metricsWithCalls(n int) *types.MonthlyMetrics {
	return &types.MonthlyMetrics{Calls: types.CallMetrics{Count: &n}}
}

func TestProject(t *testing.T) {
	snapshot := metricsWithCalls(99)

	tests := []struct {
		name      string
		rec       *types.OperatorRecord
		month     types.Month
		wantCalls int // 0 means nil metrics
		wantMonth types.Month
	}{
		{
			name: "latest month with data",
			rec: &types.OperatorRecord{Months: map[types.Month]*types.MonthlyMetrics{
				types.Outubro:  metricsWithCalls(10),
				types.Novembro: metricsWithCalls(20),
			}},
			wantCalls: 20,
			wantMonth: types.Novembro,
		},
		{
			name: "empty december is skipped",
			rec: &types.OperatorRecord{Months: map[types.Month]*types.MonthlyMetrics{
				types.Outubro:  metricsWithCalls(10),
				types.Dezembro: {},
			}},
			wantCalls: 10,
			wantMonth: types.Outubro,
		},
		{
			name: "explicit month",
			rec: &types.OperatorRecord{Months: map[types.Month]*types.MonthlyMetrics{
				types.Outubro:  metricsWithCalls(10),
				types.Novembro: metricsWithCalls(20),
			}},
			month:     types.Outubro,
			wantCalls: 10,
			wantMonth: types.Outubro,
		},
		{
			name: "explicit month absent",
			rec: &types.OperatorRecord{
				Months:          map[types.Month]*types.MonthlyMetrics{types.Outubro: metricsWithCalls(10)},
				CurrentSnapshot: snapshot,
			},
			month: types.Dezembro,
		},
		{
			name:      "snapshot when months are absent",
			rec:       &types.OperatorRecord{CurrentSnapshot: snapshot},
			wantCalls: 99,
		},
		{
			name:  "snapshot not used for explicit month",
			rec:   &types.OperatorRecord{CurrentSnapshot: snapshot},
			month: types.Novembro,
		},
		{
			name: "months without data",
			rec: &types.OperatorRecord{Months: map[types.Month]*types.MonthlyMetrics{
				types.Outubro: {},
			}},
		},
		{
			name: "nil record",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, month := Project(tt.rec, tt.month)
			if tt.wantCalls == 0 {
				if got != nil {
					t.Errorf("expected nil, got %+v", got)
				}
				return
			}
			if got == nil || got.Calls.Count == nil {
				t.Fatalf("expected %d calls, got %+v", tt.wantCalls, got)
			}
			if *got.Calls.Count != tt.wantCalls {
				t.Errorf("expected %d calls, got %d", tt.wantCalls, *got.Calls.Count)
			}
			if month != tt.wantMonth {
				t.Errorf("expected month %q, got %q", tt.wantMonth, month)
			}
		})
	}
}

func TestProjectDoesNotMutate(t *testing.T) {
	rec := &types.OperatorRecord{Months: map[types.Month]*types.MonthlyMetrics{
		types.Novembro: metricsWithCalls(20),
	}}
	Project(rec, types.Dezembro)
	Project(rec, "")

	if len(rec.Months) != 1 || rec.CurrentSnapshot != nil {
		t.Errorf("record was modified: %+v", rec)
	}
}

func TestFlattenView(t *testing.T) {
	if Flatten(nil, types.Outubro) != nil {
		t.Error("expected nil view for nil metrics")
	}

	tma := types.Duration("00:04:30")
	pct := types.Percent("97,10%")
	m := &types.MonthlyMetrics{
		Calls:      types.CallMetrics{AverageHandleTime: &tma},
		Attendance: types.AttendanceMetrics{LoggedPercentage: &pct},
	}
	m.Calls.Count = metricsWithCalls(150).Calls.Count

	data, err := json.Marshal(Flatten(m, types.Novembro))
	if err != nil {
		t.Fatalf("marshal view: %v", err)
	}
	s := string(data)
	for _, want := range []string{
		`"month":"Novembro"`,
		`"callCount":150`,
		`"averageHandleTime":"00:04:30"`,
		`"loggedPercentage":"97,10%"`,
		`"ticketCount":null`,
		`"trainingActual":null`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %s in %s", want, s)
		}
	}
}

func TestProjectView(t *testing.T) {
	rec := &types.OperatorRecord{Months: map[types.Month]*types.MonthlyMetrics{
		types.Outubro: metricsWithCalls(7),
	}}
	v := ProjectView(rec, "")
	if v == nil || v.Month != "Outubro" || v.CallCount == nil || *v.CallCount != 7 {
		t.Errorf("unexpected view: %+v", v)
	}
	if ProjectView(rec, types.Dezembro) != nil {
		t.Error("expected nil view for absent month")
	}
}
