package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vanderheijden86/readmit/pkg/model"
	"github.com/vanderheijden86/readmit/pkg/theme"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData is returned when a chart has nothing to draw into an image.
var ErrNoData = errors.New("charts: no data to draw")

type slice struct {
	Label   string
	Value   float64
	Percent model.Number
	Color   string
}

// Donut is the performance-category chart: one slice per category, sized by
// the number of measures.
type Donut struct {
	id        uint64
	slices    []slice
	total     float64
	legend    string
	surface   string
	destroyed bool
}

func newDonut(id uint64, data []model.PerformanceCategoryRecord, p theme.Palette) *Donut {
	d := &Donut{id: id, slices: make([]slice, 0, len(data))}
	for _, rec := range data {
		v := math.Max(rec.Measures.Or(0), 0)
		d.slices = append(d.slices, slice{
			Label:   string(rec.Category),
			Value:   v,
			Percent: rec.Percentage,
			Color:   p.CategoryColor(rec.Category),
		})
		d.total += v
	}
	d.Restyle(p)
	return d
}

func (d *Donut) ID() uint64      { return d.id }
func (d *Donut) Slot() SlotID    { return SlotDonut }
func (d *Donut) Destroy()        { d.destroyed = true }
func (d *Donut) Destroyed() bool { return d.destroyed }

// Restyle updates legend colors. Slice colors belong to the data.
func (d *Donut) Restyle(p theme.Palette) {
	d.legend = p.Text
	d.surface = p.Surface
}

// Slices returns the labels and colors in draw order.
func (d *Donut) Slices() (labels, colors []string) {
	for _, s := range d.slices {
		labels = append(labels, s.Label)
		colors = append(colors, s.Color)
	}
	return labels, colors
}

// LegendColor returns the current legend text color.
func (d *Donut) LegendColor() string { return d.legend }

// View draws the ring as a proportional band followed by the legend.
func (d *Donut) View(width int) string {
	if width < 4 {
		width = 4
	}
	var b strings.Builder
	cells := apportion(d.values(), width)
	for i, n := range cells {
		if n == 0 {
			continue
		}
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Fill(d.slices[i].Color)).Render(strings.Repeat("█", n)))
	}
	if d.total == 0 {
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Fg(ColorEmptyRing)).Render(strings.Repeat("░", width)))
	}

	legend := lipgloss.NewStyle().Foreground(theme.Fg(d.legend))
	for _, s := range d.slices {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(theme.Fill(s.Color)).Render("■"))
		b.WriteString(legend.Render(fmt.Sprintf(" %s  %s measures (%s%%)",
			s.Label, model.NumberOf(s.Value).Grouped(), s.Percent.Plain())))
	}
	return b.String()
}

// ColorEmptyRing fills the band when every slice is zero.
const ColorEmptyRing = "#4b5563"

func (d *Donut) values() []float64 {
	out := make([]float64, len(d.slices))
	for i, s := range d.slices {
		out[i] = s.Value
	}
	return out
}

// WritePNG renders the donut through go-chart.
func (d *Donut) WritePNG(w io.Writer, width, height int) error {
	if d.total == 0 {
		return ErrNoData
	}
	values := make([]chart.Value, 0, len(d.slices))
	for _, s := range d.slices {
		if s.Value == 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: s.Value,
			Label: s.Label,
			Style: chart.Style{
				FillColor:   hexColor(s.Color),
				StrokeColor: hexColor(d.surface),
				FontColor:   hexColor(d.legend),
			},
		})
	}
	dc := chart.DonutChart{
		Width:      width,
		Height:     height,
		Values:     values,
		Background: chart.Style{FillColor: hexColor(d.surface)},
	}
	return dc.Render(chart.PNG, w)
}

// apportion splits width cells across values by largest remainder, so the
// cells always sum to width when any value is positive.
func apportion(values []float64, width int) []int {
	out := make([]int, len(values))
	var total float64
	for _, v := range values {
		total += v
	}
	if total <= 0 {
		return out
	}
	type rem struct {
		i int
		r float64
	}
	rems := make([]rem, 0, len(values))
	used := 0
	for i, v := range values {
		exact := v / total * float64(width)
		out[i] = int(exact)
		used += out[i]
		rems = append(rems, rem{i, exact - float64(out[i])})
	}
	for left := width - used; left > 0; left-- {
		best := 0
		for j := range rems {
			if rems[j].r > rems[best].r {
				best = j
			}
		}
		out[rems[best].i]++
		rems[best].r = -1
	}
	return out
}

func hexColor(hex string) drawing.Color {
	c := theme.RGBA(hex)
	return drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A}
}
