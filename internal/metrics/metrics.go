package metrics

import (
	"io"
	"sort"
	"strconv"
	"sync"
	"time"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Ingestion metrics
	RowsDecodedTotal   int64
	CellsNulledTotal   int64
	RowsSkippedTotal   int64
	MonthsWrittenTotal int64
	ImportErrorsTotal  int64

	// Storage metrics
	WriteConflictsTotal int64
	resolutions         map[string]int64 // strategy -> count

	// Trend metrics
	TrendReportsTotal        int64
	InsufficientHistoryTotal int64

	// Timing
	startTime          time.Time
	lastImportDuration time.Duration
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = newMetrics()
	})
	return instance
}

func newMetrics() *Metrics {
	return &Metrics{
		resolutions: make(map[string]int64),
		startTime:   time.Now(),
	}
}

// RecordRowDecoded records a decoded sheet row and how many of its cells
// could not be interpreted
func (m *Metrics) RecordRowDecoded(nulledCells int) {
	m.mu.Lock()
	m.RowsDecodedTotal++
	m.CellsNulledTotal += int64(nulledCells)
	m.mu.Unlock()
}

// RecordRowSkipped increments the skipped rows counter
func (m *Metrics) RecordRowSkipped() {
	m.mu.Lock()
	m.RowsSkippedTotal++
	m.mu.Unlock()
}

// RecordMonthWritten increments the written months counter
func (m *Metrics) RecordMonthWritten() {
	m.mu.Lock()
	m.MonthsWrittenTotal++
	m.mu.Unlock()
}

// RecordImport records a finished import
func (m *Metrics) RecordImport(duration time.Duration, failed bool) {
	m.mu.Lock()
	m.lastImportDuration = duration
	if failed {
		m.ImportErrorsTotal++
	}
	m.mu.Unlock()
}

// RecordWriteConflict increments the optimistic write conflict counter
func (m *Metrics) RecordWriteConflict() {
	m.mu.Lock()
	m.WriteConflictsTotal++
	m.mu.Unlock()
}

// RecordResolution counts a record lookup by the strategy that matched
func (m *Metrics) RecordResolution(strategy string) {
	m.mu.Lock()
	m.resolutions[strategy]++
	m.mu.Unlock()
}

// Resolutions returns the lookup count for strategy
func (m *Metrics) Resolutions(strategy string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resolutions[strategy]
}

// RecordTrend records a trend comparison; a nil report counts as
// insufficient history
func (m *Metrics) RecordTrend(produced bool) {
	m.mu.Lock()
	if produced {
		m.TrendReportsTotal++
	} else {
		m.InsufficientHistoryTotal++
	}
	m.mu.Unlock()
}

// WriteTo renders all metrics in Prometheus text format
func (m *Metrics) WriteTo(w io.Writer) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var written int64
	var werr error

	// Helper to write metric
	write := func(name string, value interface{}, labels ...string) {
		if werr != nil {
			return
		}
		labelStr := ""
		if len(labels) > 0 {
			labelStr = "{"
			for i := 0; i < len(labels); i += 2 {
				if i > 0 {
					labelStr += ","
				}
				labelStr += labels[i] + "=\"" + labels[i+1] + "\""
			}
			labelStr += "}"
		}

		var line string
		switch v := value.(type) {
		case int:
			line = name + labelStr + " " + strconv.Itoa(v) + "\n"
		case int64:
			line = name + labelStr + " " + strconv.FormatInt(v, 10) + "\n"
		case float64:
			line = name + labelStr + " " + strconv.FormatFloat(v, 'f', 6, 64) + "\n"
		default:
			return
		}
		n, err := io.WriteString(w, line)
		written += int64(n)
		werr = err
	}

	// System metrics
	write("feedback_uptime_seconds", time.Since(m.startTime).Seconds())

	// Ingestion metrics
	write("feedback_rows_decoded_total", m.RowsDecodedTotal)
	write("feedback_cells_nulled_total", m.CellsNulledTotal)
	write("feedback_rows_skipped_total", m.RowsSkippedTotal)
	write("feedback_months_written_total", m.MonthsWrittenTotal)
	write("feedback_import_errors_total", m.ImportErrorsTotal)
	write("feedback_import_duration_seconds", m.lastImportDuration.Seconds())

	// Storage metrics
	write("feedback_write_conflicts_total", m.WriteConflictsTotal)

	strategies := make([]string, 0, len(m.resolutions))
	for s := range m.resolutions {
		strategies = append(strategies, s)
	}
	sort.Strings(strategies)
	for _, s := range strategies {
		write("feedback_resolutions_total", m.resolutions[s], "strategy", s)
	}

	// Trend metrics
	write("feedback_trend_reports_total", m.TrendReportsTotal)
	write("feedback_insufficient_history_total", m.InsufficientHistoryTotal)

	return written, werr
}
