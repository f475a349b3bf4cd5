// Package tables holds the dashboard's tabular panels. A Table is a plain
// header plus string rows; projectors turn typed records into rows and
// RenderRows swaps a table's contents in one step.
package tables

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
	"github.com/vanderheijden86/readmit/pkg/metrics"
	"github.com/vanderheijden86/readmit/pkg/theme"
)

// Table ids double as export targets.
const (
	TopHospitalsID     = "top-hospitals-table"
	WorstMeasuresID    = "worst-measures-table"
	StatePerformanceID = "state-performance-table"
)

// NoRows is shown under the header of an empty table.
const NoRows = "No data"

// Table is one rendered table panel.
type Table struct {
	ID      string
	Headers []string
	rows    [][]string
	offset  int
}

// New returns an empty table.
func New(id string, headers ...string) *Table {
	return &Table{ID: id, Headers: headers}
}

// Rows returns a copy of the current rows.
func (t *Table) Rows() [][]string {
	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Clear removes every row.
func (t *Table) Clear() { t.rows, t.offset = nil, 0 }

// Scroll moves the first visible row by delta, clamped to the rows.
func (t *Table) Scroll(delta int) {
	t.offset = min(max(t.offset+delta, 0), max(len(t.rows)-1, 0))
}

// Offset returns the first visible row.
func (t *Table) Offset() int { return t.offset }

// RenderRows replaces t's rows with one projected row per record, in input
// order.
func RenderRows[T any](t *Table, records []T, project func(T) []string) {
	defer metrics.Timer(metrics.Render)()
	rows := make([][]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, project(rec))
	}
	t.rows, t.offset = rows, 0
}

// View renders the table to fit width terminal columns, showing at most
// maxRows rows from the scroll offset (all rows when maxRows <= 0). Cells
// that do not fit are truncated by display width.
func (t *Table) View(width, maxRows int, p theme.Palette) string {
	cols := max(len(t.Headers), 1)
	cellW := max((width-cols-1)/cols-2, 3)

	rows := t.rows[t.offset:]
	if maxRows > 0 && len(rows) > maxRows {
		rows = rows[:maxRows]
	}
	if len(rows) == 0 {
		empty := make([]string, cols)
		empty[0] = NoRows
		rows = [][]string{empty}
	}
	cut := func(cells []string) []string {
		out := make([]string, len(cells))
		for i, c := range cells {
			out[i] = runewidth.Truncate(c, cellW, "…")
		}
		return out
	}
	body := make([][]string, len(rows))
	for i, r := range rows {
		body[i] = cut(r)
	}

	header := lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(theme.Fg(p.Accent))
	cell := lipgloss.NewStyle().Padding(0, 1).Foreground(theme.Fg(p.Text))
	muted := cell.Foreground(theme.Fg(p.Muted))
	empty := len(t.rows) == 0

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(theme.Fg(p.Border))).
		Headers(cut(t.Headers)...).
		Rows(body...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case empty:
				return muted
			default:
				return cell
			}
		}).
		String()
}
