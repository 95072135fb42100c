package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrNoRows means the sheet has no data rows below the header
	ErrNoRows = errors.New("sheet has no data rows (row 1 is the header)")
	// ErrBadHeader means the header row does not span the metrics layout
	ErrBadHeader = fmt.Errorf("sheet header must span %d columns", ColumnCount)
)

// Cell is one spreadsheet cell: its stored value and the text the
// spreadsheet displays for it. Raw is nil for empty cells and otherwise a
// float64, bool, time.Time or string.
type Cell struct {
	Raw     any
	Display string
}

// Row is one data row of a metrics sheet
type Row struct {
	Number int // 1-based sheet row
	Name   string
	Cells  [len(metricColumns)]Cell
}

// Workbook reads metric rows from an xlsx document
type Workbook struct {
	file  *excelize.File
	sheet string
}

// OpenWorkbook opens the document in r. An empty sheet selects the first one.
func OpenWorkbook(r io.Reader, sheet string) (*Workbook, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}

	if sheet == "" {
		sheet = f.GetSheetName(0)
	} else if idx, err := f.GetSheetIndex(sheet); err != nil || idx < 0 {
		f.Close()
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}

	return &Workbook{file: f, sheet: sheet}, nil
}

// Sheet returns the name of the sheet being read
func (w *Workbook) Sheet() string { return w.sheet }

// Close releases the workbook
func (w *Workbook) Close() error { return w.file.Close() }

// Rows returns every data row. Rows without a display name and without
// any value are left out.
func (w *Workbook) Rows(ctx context.Context) ([]Row, error) {
	raw, err := w.file.GetRows(w.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", w.sheet, err)
	}
	display, err := w.file.GetRows(w.sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", w.sheet, err)
	}

	if len(raw) < 2 {
		return nil, ErrNoRows
	}
	if len(raw[0]) < ColumnCount {
		return nil, ErrBadHeader
	}

	var rows []Row
	for i := 1; i < len(raw); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row := Row{Number: i + 1}
		blank := true
		for col := 0; col < ColumnCount && col < len(raw[i]); col++ {
			text := raw[i][col]
			if strings.TrimSpace(text) == "" {
				continue
			}
			blank = false
			if col == 0 {
				row.Name = strings.TrimSpace(text)
				continue
			}

			cell, err := w.cell(i, col, text)
			if err != nil {
				return nil, err
			}
			if i < len(display) && col < len(display[i]) {
				cell.Display = display[i][col]
			}
			row.Cells[col-1] = cell
		}
		if !blank {
			rows = append(rows, row)
		}
	}

	if len(rows) == 0 {
		return nil, ErrNoRows
	}
	return rows, nil
}

// cell types the stored text by the cell's type. rowIdx and col are 0-based.
func (w *Workbook) cell(rowIdx, col int, text string) (Cell, error) {
	axis, err := excelize.CoordinatesToCellName(col+1, rowIdx+1)
	if err != nil {
		return Cell{}, err
	}
	cellType, err := w.file.GetCellType(w.sheet, axis)
	if err != nil {
		return Cell{}, fmt.Errorf("failed to read cell %s: %w", axis, err)
	}

	switch cellType {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString:
		runs, err := w.file.GetCellRichText(w.sheet, axis)
		if err == nil && len(runs) > 0 {
			var sb strings.Builder
			for _, run := range runs {
				sb.WriteString(run.Text)
			}
			return Cell{Raw: sb.String()}, nil
		}
		return Cell{Raw: text}, nil
	case excelize.CellTypeBool:
		return Cell{Raw: text == "1" || strings.EqualFold(text, "true")}, nil
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339Nano, text); err == nil {
			return Cell{Raw: t}, nil
		}
		return Cell{Raw: text}, nil
	case excelize.CellTypeError:
		return Cell{Raw: text}, nil
	default:
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return Cell{Raw: f}, nil
		}
		return Cell{Raw: text}, nil
	}
}
