// Package charts owns the dashboard's two chart slots.
//
// A slot holds at most one live Instance, or a placeholder message when its
// dataset was empty or failed to load. Rendering into a slot is an atomic
// replace: the new instance (or placeholder) is installed and the old
// instance destroyed in the same step, so a refresh can never leave two live
// instances behind or keep a destroyed one on screen.
package charts

import (
	"io"

	"github.com/vanderheijden86/readmit/pkg/debug"
	"github.com/vanderheijden86/readmit/pkg/metrics"
	"github.com/vanderheijden86/readmit/pkg/model"
	"github.com/vanderheijden86/readmit/pkg/theme"
)

// SlotID names a chart slot. The values double as export target ids.
type SlotID string

const (
	SlotDonut  SlotID = "performance-donut-chart"
	SlotVolume SlotID = "volume-bar-chart"
)

// Slots lists every slot in layout order.
var Slots = []SlotID{SlotDonut, SlotVolume}

// Placeholder messages shown instead of an empty chart.
const (
	NoPerformanceData = "No performance data available"
	NoVolumeData      = "No volume data available"
	Loading           = "Loading…"
)

// Instance is one live chart.
type Instance interface {
	ID() uint64
	Slot() SlotID
	// View renders the chart for the terminal at the given width.
	View(width int) string
	// Restyle swaps color-dependent properties in place.
	Restyle(p theme.Palette)
	// WritePNG encodes the chart as an image.
	WritePNG(w io.Writer, width, height int) error
	Destroy()
	Destroyed() bool
}

type slot struct {
	live        Instance
	placeholder string
}

// Registry holds the chart slots. Not safe for concurrent use.
type Registry struct {
	slots  map[SlotID]*slot
	nextID uint64
}

// NewRegistry returns a registry with every slot showing Loading.
func NewRegistry() *Registry {
	r := &Registry{slots: make(map[SlotID]*slot, len(Slots))}
	for _, id := range Slots {
		r.slots[id] = &slot{placeholder: Loading}
	}
	return r
}

// RenderDonut replaces the donut slot's content with data.
func (r *Registry) RenderDonut(data []model.PerformanceCategoryRecord, p theme.Palette) {
	defer metrics.Timer(metrics.Render)()
	if len(data) == 0 {
		r.replace(SlotDonut, nil, NoPerformanceData)
		return
	}
	r.replace(SlotDonut, newDonut(r.allocID(), data, p), "")
}

// RenderVolumeBar replaces the volume slot's content with data. baseline is
// the KPI average of the same cycle; an invalid baseline draws no marker.
func (r *Registry) RenderVolumeBar(data []model.VolumeTierRecord, p theme.Palette, baseline model.Number) {
	defer metrics.Timer(metrics.Render)()
	if len(data) == 0 {
		r.replace(SlotVolume, nil, NoVolumeData)
		return
	}
	r.replace(SlotVolume, newVolumeBar(r.allocID(), data, p, baseline), "")
}

// Clear destroys the slot's instance and shows message instead.
func (r *Registry) Clear(id SlotID, message string) {
	r.replace(id, nil, message)
}

// RestyleForTheme restyles live instances in place without rebuilding them.
func (r *Registry) RestyleForTheme(p theme.Palette) {
	defer metrics.Timer(metrics.Restyle)()
	for _, id := range Slots {
		if s := r.slots[id]; s.live != nil {
			s.live.Restyle(p)
		}
	}
}

// Live returns the slot's instance, or nil when it shows a placeholder.
func (r *Registry) Live(id SlotID) Instance {
	if s, ok := r.slots[id]; ok {
		return s.live
	}
	return nil
}

// Placeholder returns the slot's placeholder message ("" when live).
func (r *Registry) Placeholder(id SlotID) string {
	if s, ok := r.slots[id]; ok {
		return s.placeholder
	}
	return ""
}

// LiveCount returns the number of live instances across all slots.
func (r *Registry) LiveCount() int {
	n := 0
	for _, s := range r.slots {
		if s.live != nil && !s.live.Destroyed() {
			n++
		}
	}
	return n
}

// View renders a slot: the live chart, or its placeholder.
func (r *Registry) View(id SlotID, width int) string {
	s, ok := r.slots[id]
	if !ok {
		return ""
	}
	if s.live == nil {
		return s.placeholder
	}
	return s.live.View(width)
}

func (r *Registry) allocID() uint64 {
	r.nextID++
	return r.nextID
}

func (r *Registry) replace(id SlotID, next Instance, placeholder string) {
	s := r.slots[id]
	old := s.live
	s.live, s.placeholder = next, placeholder
	if old != nil {
		old.Destroy()
		debug.Log("charts: %s destroyed instance %d", id, old.ID())
	}
}
