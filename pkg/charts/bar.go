package charts

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/vanderheijden86/readmit/pkg/model"
	"github.com/vanderheijden86/readmit/pkg/theme"
	"github.com/wcharczuk/go-chart/v2"
	"gonum.org/v1/gonum/floats"
)

type bar struct {
	Label string
	Value model.Number
}

// VolumeBar is the average-score-by-volume-tier chart. The y axis starts at
// zero; the KPI average of the same refresh is drawn as a baseline marker.
type VolumeBar struct {
	id        uint64
	bars      []bar
	baseline  model.Number
	fill      string
	tick      string
	marker    string
	surface   string
	destroyed bool
}

func newVolumeBar(id uint64, data []model.VolumeTierRecord, p theme.Palette, baseline model.Number) *VolumeBar {
	v := &VolumeBar{id: id, baseline: baseline, bars: make([]bar, 0, len(data))}
	for _, rec := range data {
		v.bars = append(v.bars, bar{Label: rec.Tier, Value: rec.AverageScore})
	}
	v.fill = p.Bar
	v.Restyle(p)
	return v
}

func (v *VolumeBar) ID() uint64      { return v.id }
func (v *VolumeBar) Slot() SlotID    { return SlotVolume }
func (v *VolumeBar) Destroy()        { v.destroyed = true }
func (v *VolumeBar) Destroyed() bool { return v.destroyed }

// Restyle updates tick and baseline colors. The bar fill is theme-neutral.
func (v *VolumeBar) Restyle(p theme.Palette) {
	v.tick = p.Text
	v.marker = p.Baseline
	v.surface = p.Surface
}

// TickColor returns the current tick label color.
func (v *VolumeBar) TickColor() string { return v.tick }

// Labels returns the tier labels in server order.
func (v *VolumeBar) Labels() []string {
	out := make([]string, len(v.bars))
	for i, b := range v.bars {
		out[i] = b.Label
	}
	return out
}

// Baseline returns the marker value.
func (v *VolumeBar) Baseline() model.Number { return v.baseline }

func (v *VolumeBar) max() float64 {
	vals := []float64{0}
	for _, b := range v.bars {
		vals = append(vals, b.Value.Or(0))
	}
	vals = append(vals, v.baseline.Or(0))
	return floats.Max(vals)
}

// View draws one horizontal bar per tier, scaled from zero.
func (v *VolumeBar) View(width int) string {
	labelW := 0
	for _, b := range v.bars {
		labelW = max(labelW, runewidth.StringWidth(b.Label))
	}
	const valueW = 8
	barW := max(width-labelW-valueW-2, 4)
	top := v.max()

	tick := lipgloss.NewStyle().Foreground(theme.Fg(v.tick))
	fill := lipgloss.NewStyle().Foreground(theme.Fill(v.fill))
	marker := lipgloss.NewStyle().Foreground(theme.Fg(v.marker))

	mark := -1
	if b, ok := v.baseline.Float(); ok && top > 0 {
		mark = min(int(b/top*float64(barW)), barW-1)
	}

	lines := make([]string, 0, len(v.bars)+1)
	for _, b := range v.bars {
		n := 0
		if val, ok := b.Value.Float(); ok && top > 0 && val > 0 {
			n = int(val / top * float64(barW))
		}
		var row strings.Builder
		for i := 0; i < barW; i++ {
			switch {
			case i == mark:
				row.WriteString(marker.Render("│"))
			case i < n:
				row.WriteString(fill.Render("█"))
			default:
				row.WriteString(" ")
			}
		}
		lines = append(lines, fmt.Sprintf("%s %s %s",
			tick.Render(runewidth.FillRight(b.Label, labelW)),
			row.String(),
			tick.Render(runewidth.FillLeft(b.Value.Fixed2(), valueW))))
	}
	if mark >= 0 {
		lines = append(lines, marker.Render(fmt.Sprintf("%s│ baseline %s",
			strings.Repeat(" ", labelW+1+mark), v.baseline.Fixed2())))
	}
	return strings.Join(lines, "\n")
}

// WritePNG renders the bars through go-chart.
func (v *VolumeBar) WritePNG(w io.Writer, width, height int) error {
	top := v.max()
	if top <= 0 || len(v.bars) == 0 {
		return ErrNoData
	}
	bars := make([]chart.Value, 0, len(v.bars))
	for _, b := range v.bars {
		bars = append(bars, chart.Value{
			Value: b.Value.Or(0),
			Label: b.Label,
			Style: chart.Style{FillColor: hexColor(v.fill), StrokeColor: hexColor(v.fill)},
		})
	}
	title := "Average score by hospital volume"
	if v.baseline.Valid() {
		title += " (baseline " + v.baseline.Fixed2() + ")"
	}
	axis := chart.Style{FontColor: hexColor(v.tick), StrokeColor: hexColor(v.tick)}
	bc := chart.BarChart{
		Title:      title,
		TitleStyle: chart.Style{FontColor: hexColor(v.tick)},
		Width:      width,
		Height:     height,
		BarWidth:   max(width/(2*len(bars)+1), 10),
		Background: chart.Style{FillColor: hexColor(v.surface), Padding: chart.Box{Top: 40}},
		Canvas:     chart.Style{FillColor: hexColor(v.surface)},
		XAxis:      axis,
		YAxis: chart.YAxis{
			Style: axis,
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars: bars,
	}
	return bc.Render(chart.PNG, w)
}
