// Package trend compares a reference month of an operator against the
// average of the months before it and classifies each change.
package trend

import (
	"math"
	"strings"

	"github.com/dennisdiepolder/monti/feedback/internal/types"
)

// Status is the classification of one metric's change
type Status string

const (
	StatusImproved  Status = "improved"
	StatusRegressed Status = "regressed"
	StatusOnPar     Status = "on par"
)

// summaryHeadings are rendered in this order
var summaryHeadings = []struct {
	status  Status
	heading string
}{
	{StatusImproved, "Melhorou"},
	{StatusRegressed, "Piorou"},
	{StatusOnPar, "Manteve"},
}

// MetricResult is the comparison of one metric
type MetricResult struct {
	Metric          Metric  `json:"metric"`
	Label           string  `json:"label"`
	Unit            Unit    `json:"unit"`
	Current         float64 `json:"current"`
	BaselineAverage float64 `json:"baselineAverage"`
	Difference      float64 `json:"difference"`
	PercentChange   float64 `json:"percentChange"`
	Status          Status  `json:"status"`
	MonthsCompared  int     `json:"monthsCompared"`
}

// Report is the outcome of comparing a reference month against its baseline
type Report struct {
	Email          string                   `json:"email,omitempty"`
	ReferenceMonth types.Month              `json:"referenceMonth"`
	BaselineMonths []types.Month            `json:"baselineMonths"`
	PerMetric      map[Metric]*MetricResult `json:"perMetric"`
	SummaryText    string                   `json:"summaryText"`

	order []Metric
}

// Results returns the per-metric results in report order
func (r *Report) Results() []*MetricResult {
	out := make([]*MetricResult, 0, len(r.order))
	for _, m := range r.order {
		out = append(out, r.PerMetric[m])
	}
	return out
}

// Comparator builds trend reports under a fixed policy
type Comparator struct {
	policy Policy
}

// NewComparator creates a comparator. A negative dead-band is treated as zero.
func NewComparator(policy Policy) *Comparator {
	if policy.DeadBandPct < 0 || math.IsNaN(policy.DeadBandPct) {
		policy.DeadBandPct = 0
	}
	if policy.Polarity == nil {
		policy.Polarity = DefaultPolicy().Polarity
	}
	return &Comparator{policy: policy}
}

// Compare builds the report for reference. It returns nil when no earlier
// month has data or when no metric can be compared.
func (c *Comparator) Compare(rec *types.OperatorRecord, reference types.Month) *Report {
	if rec == nil || !reference.Valid() {
		return nil
	}
	current := rec.Months[reference]
	if current == nil {
		return nil
	}

	var baseline []*types.MonthlyMetrics
	var baselineMonths []types.Month
	for _, month := range types.Months {
		if !month.Before(reference) {
			break
		}
		if m := rec.Months[month]; m.HasData() {
			baseline = append(baseline, m)
			baselineMonths = append(baselineMonths, month)
		}
	}
	if len(baseline) == 0 {
		return nil
	}

	report := &Report{
		Email:          rec.Email,
		ReferenceMonth: reference,
		BaselineMonths: baselineMonths,
		PerMetric:      make(map[Metric]*MetricResult),
	}

	for _, t := range trackedMetrics {
		result, ok := c.compareMetric(t, current, baseline)
		if !ok {
			continue
		}
		report.PerMetric[t.metric] = result
		report.order = append(report.order, t.metric)
	}

	if len(report.order) == 0 {
		return nil
	}
	report.SummaryText = summarize(report.Results())
	return report
}

func (c *Comparator) compareMetric(t tracked, current *types.MonthlyMetrics, baseline []*types.MonthlyMetrics) (*MetricResult, bool) {
	cur, ok := t.extract(current)
	if !ok {
		return nil, false
	}

	var sum float64
	var n int
	for _, m := range baseline {
		if v, ok := t.extract(m); ok {
			sum += v
			n++
		}
	}
	if n == 0 {
		return nil, false
	}
	avg := sum / float64(n)

	var pct float64
	switch {
	case avg != 0:
		pct = (cur - avg) / avg * 100
	case cur == 0:
		pct = 0
	default:
		// change from a zero baseline has no percentage
		return nil, false
	}

	// status is derived from the published, rounded change
	pct = round2(pct)

	return &MetricResult{
		Metric:          t.metric,
		Label:           t.label,
		Unit:            t.unit,
		Current:         cur,
		BaselineAverage: round2(avg),
		Difference:      round2(cur - avg),
		PercentChange:   pct,
		Status:          c.classify(t.metric, pct),
		MonthsCompared:  n,
	}, true
}

func (c *Comparator) classify(m Metric, pct float64) Status {
	if c.policy.polarity(m) == LowerIsBetter {
		pct = -pct
	}
	switch {
	case pct > c.policy.DeadBandPct:
		return StatusImproved
	case pct < -c.policy.DeadBandPct:
		return StatusRegressed
	default:
		return StatusOnPar
	}
}

func summarize(results []*MetricResult) string {
	groups := make(map[Status][]string)
	for _, r := range results {
		groups[r.Status] = append(groups[r.Status], r.Label)
	}

	var lines []string
	for _, h := range summaryHeadings {
		if labels := groups[h.status]; len(labels) > 0 {
			lines = append(lines, h.heading+": "+strings.Join(labels, ", "))
		}
	}
	return strings.Join(lines, "\n")
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
