// Package geomap draws the state choropleth as a tile-grid cartogram.
//
// Each placed region is one square tile filled from a sequential red scale
// spanning the min..max average score of the current data set. Region codes
// are drawn on the tiles in a translucent label color; terminals have no
// alpha, so the label is pre-blended over each fill. The same artifact can
// be written as PNG (gg) or SVG (svgo).
package geomap

import (
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vanderheijden86/readmit/pkg/debug"
	"github.com/vanderheijden86/readmit/pkg/metrics"
	"github.com/vanderheijden86/readmit/pkg/model"
	"github.com/vanderheijden86/readmit/pkg/theme"
)

// TileWidth is the number of terminal columns per tile in View.
const TileWidth = 4

// LegendTitle labels the color bar.
const LegendTitle = "Avg Score"

// NoMapData is shown before the first render and for an empty data set.
const NoMapData = "No state data available"

// MapView is the rendered choropleth. Not safe for concurrent use.
type MapView struct {
	palette  theme.Palette
	data     map[model.Region]model.StateSummaryRecord
	extent   Extent
	unplaced []model.Region
	rendered bool

	cursor   model.Region
	onSelect func(model.Region)
}

// New returns an empty map styled with p.
func New(p theme.Palette) *MapView {
	return &MapView{palette: p, cursor: "CA"}
}

// Render replaces the whole artifact with summaries.
func (m *MapView) Render(summaries []model.StateSummaryRecord, p theme.Palette) {
	defer metrics.Timer(metrics.Render)()

	data := make(map[model.Region]model.StateSummaryRecord, len(summaries))
	var scores []float64
	var unplaced []model.Region
	for _, s := range summaries {
		data[s.Region] = s
		if v, ok := s.AverageScore.Float(); ok {
			scores = append(scores, v)
		}
		if _, ok := tiles[s.Region]; !ok {
			unplaced = append(unplaced, s.Region)
		}
	}
	sort.Slice(unplaced, func(i, j int) bool { return unplaced[i] < unplaced[j] })
	if len(unplaced) > 0 {
		debug.Log("geomap: %d regions without a tile: %v", len(unplaced), unplaced)
	}

	m.palette = p
	m.data = data
	m.extent = ExtentOf(scores)
	m.unplaced = unplaced
	m.rendered = true
}

// RestyleForTheme swaps the label and legend colors. Fills are unchanged.
func (m *MapView) RestyleForTheme(p theme.Palette) {
	defer metrics.Timer(metrics.Restyle)()
	m.palette = p
}

// OnRegionSelected registers the single selection callback.
func (m *MapView) OnRegionSelected(fn func(model.Region)) { m.onSelect = fn }

// Select emits region to the selection callback. Only regions present in
// the rendered data are selectable.
func (m *MapView) Select(r model.Region) bool {
	if _, ok := m.data[r]; !ok {
		return false
	}
	if _, ok := tiles[r]; ok {
		m.cursor = r
	}
	if m.onSelect != nil {
		m.onSelect(r)
	}
	return true
}

// SelectCursor selects the region under the cursor.
func (m *MapView) SelectCursor() bool { return m.Select(m.cursor) }

// Cursor returns the region under the keyboard cursor.
func (m *MapView) Cursor() model.Region { return m.cursor }

// Move steps the cursor by (dx, dy) cells, skipping empty cells. The cursor
// stays put when there is no tile in that direction.
func (m *MapView) Move(dx, dy int) {
	if dx == 0 && dy == 0 {
		return
	}
	p := tiles[m.cursor]
	for step := 1; step < GridCols+GridRows; step++ {
		q := Pos{Row: p.Row + dy*step, Col: p.Col + dx*step}
		if q.Row < 0 || q.Row >= GridRows || q.Col < 0 || q.Col >= GridCols {
			return
		}
		if r, ok := byPos[q]; ok {
			m.cursor = r
			return
		}
	}
}

// RegionAt maps a position inside View (column x, line y) to a region.
func (m *MapView) RegionAt(x, y int) (model.Region, bool) {
	if x < 0 || y < 0 {
		return "", false
	}
	return RegionAtCell(Pos{Row: y, Col: x / TileWidth})
}

// Rendered reports whether Render has been called.
func (m *MapView) Rendered() bool { return m.rendered }

// Unplaced lists data regions that have no tile, sorted.
func (m *MapView) Unplaced() []model.Region { return m.unplaced }

// Extent returns the score range of the rendered data.
func (m *MapView) Extent() Extent { return m.extent }

// Palette returns the palette the map is currently styled with.
func (m *MapView) Palette() theme.Palette { return m.palette }

// FillFor returns the tile fill of region and whether it carries a score.
func (m *MapView) FillFor(r model.Region) (string, bool) {
	s, ok := m.data[r]
	if !ok {
		return m.palette.Border, false
	}
	v, ok := s.AverageScore.Float()
	if !ok {
		return m.palette.Border, false
	}
	return m.extent.Color(v), true
}

// LabelColor returns the opaque label color drawn over region's tile.
func (m *MapView) LabelColor(r model.Region) string {
	fill, _ := m.FillFor(r)
	return m.palette.Over(fill)
}

// Summary returns the rendered record for region.
func (m *MapView) Summary(r model.Region) (model.StateSummaryRecord, bool) {
	s, ok := m.data[r]
	return s, ok
}

// View renders the tile grid followed by the legend. Output depends only on
// the data, palette and cursor.
func (m *MapView) View() string {
	if !m.rendered {
		return NoMapData
	}
	var b strings.Builder
	blank := strings.Repeat(" ", TileWidth)
	for row := 0; row < GridRows; row++ {
		for col := 0; col < GridCols; col++ {
			r, ok := byPos[Pos{Row: row, Col: col}]
			if !ok {
				b.WriteString(blank)
				continue
			}
			b.WriteString(m.tile(r))
		}
		b.WriteString("\n")
	}
	b.WriteString(m.legend())
	return b.String()
}

func (m *MapView) tile(r model.Region) string {
	fill, _ := m.FillFor(r)
	style := lipgloss.NewStyle().
		Background(theme.Fill(fill)).
		Foreground(theme.Fg(m.palette.Over(fill)))
	label := " " + string(r) + " "
	if r == m.cursor {
		style = style.Bold(true).Underline(true)
		label = "[" + string(r) + "]"
	}
	return style.Render(label)
}

func (m *MapView) legend() string {
	text := lipgloss.NewStyle().Foreground(theme.Fg(m.palette.Text))
	if !m.extent.OK {
		return text.Render(LegendTitle + "  " + model.Placeholder)
	}
	const steps = 12
	var bar strings.Builder
	for i := 0; i < steps; i++ {
		c := ScaleColor(float64(i) / (steps - 1))
		bar.WriteString(lipgloss.NewStyle().Foreground(theme.Fill(c)).Render("█"))
	}
	return text.Render(LegendTitle+"  "+model.NumberOf(m.extent.Min).Fixed2()+" ") +
		bar.String() +
		text.Render(" "+model.NumberOf(m.extent.Max).Fixed2())
}
