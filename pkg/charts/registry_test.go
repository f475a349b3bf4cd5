package charts

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/vanderheijden86/readmit/pkg/model"
	"github.com/vanderheijden86/readmit/pkg/theme"
	"pgregory.net/rapid"
)

func performance() []model.PerformanceCategoryRecord {
	return []model.PerformanceCategoryRecord{
		{Category: model.CategoryBetter, Measures: model.NumberOf(120), Percentage: model.NumberOf(40)},
		{Category: model.CategoryAverage, Measures: model.NumberOf(90), Percentage: model.NumberOf(30)},
		{Category: model.CategoryWorse, Measures: model.NumberOf(60), Percentage: model.NumberOf(20)},
		{Category: model.CategoryTooSmall, Measures: model.NumberOf(30), Percentage: model.NumberOf(10)},
	}
}

func volume() []model.VolumeTierRecord {
	return []model.VolumeTierRecord{
		{Tier: "Small", AverageScore: model.NumberOf(14.1)},
		{Tier: "Medium", AverageScore: model.NumberOf(15.3)},
		{Tier: "Large", AverageScore: model.NumberOf(16.2)},
	}
}

func TestNewRegistryShowsLoading(t *testing.T) {
	r := NewRegistry()
	for _, id := range Slots {
		if r.Live(id) != nil {
			t.Errorf("%s: expected no live instance", id)
		}
		if got := r.View(id, 40); got != Loading {
			t.Errorf("%s: view = %q, want %q", id, got, Loading)
		}
	}
}

func TestRenderDonutReplacesInstance(t *testing.T) {
	r := NewRegistry()
	p := theme.PaletteFor(theme.Light)

	r.RenderDonut(performance(), p)
	first := r.Live(SlotDonut)
	if first == nil {
		t.Fatal("expected live donut")
	}

	r.RenderDonut(performance()[:2], p)
	second := r.Live(SlotDonut)
	if second == nil || second.ID() == first.ID() {
		t.Fatalf("expected a new instance, got %v", second)
	}
	if !first.Destroyed() {
		t.Error("previous instance was not destroyed")
	}
	if r.LiveCount() != 1 {
		t.Errorf("LiveCount = %d, want 1", r.LiveCount())
	}
}

func TestRenderEmptyShowsPlaceholder(t *testing.T) {
	r := NewRegistry()
	p := theme.PaletteFor(theme.Dark)

	r.RenderDonut(performance(), p)
	r.RenderVolumeBar(volume(), p, model.NumberOf(15))
	donut, bars := r.Live(SlotDonut), r.Live(SlotVolume)

	r.RenderDonut(nil, p)
	r.RenderVolumeBar([]model.VolumeTierRecord{}, p, model.NumberOf(15))

	if !donut.Destroyed() || !bars.Destroyed() {
		t.Error("empty render must destroy the previous instance")
	}
	if got := r.View(SlotDonut, 40); got != NoPerformanceData {
		t.Errorf("donut view = %q", got)
	}
	if got := r.View(SlotVolume, 40); got != NoVolumeData {
		t.Errorf("volume view = %q", got)
	}
	if r.LiveCount() != 0 {
		t.Errorf("LiveCount = %d, want 0", r.LiveCount())
	}
}

func TestClear(t *testing.T) {
	r := NewRegistry()
	r.RenderVolumeBar(volume(), theme.PaletteFor(theme.Light), model.Number{})
	inst := r.Live(SlotVolume)
	r.Clear(SlotVolume, NoVolumeData)
	if !inst.Destroyed() || r.Live(SlotVolume) != nil {
		t.Fatal("Clear must destroy the live instance")
	}
	if r.Placeholder(SlotVolume) != NoVolumeData {
		t.Errorf("placeholder = %q", r.Placeholder(SlotVolume))
	}
}

func TestRestyleKeepsInstances(t *testing.T) {
	r := NewRegistry()
	light, dark := theme.PaletteFor(theme.Light), theme.PaletteFor(theme.Dark)
	r.RenderDonut(performance(), light)
	r.RenderVolumeBar(volume(), light, model.NumberOf(15.2))
	donutID, barID := r.Live(SlotDonut).ID(), r.Live(SlotVolume).ID()

	r.RestyleForTheme(dark)

	d := r.Live(SlotDonut).(*Donut)
	v := r.Live(SlotVolume).(*VolumeBar)
	if d.ID() != donutID || v.ID() != barID {
		t.Fatal("restyle must not rebuild instances")
	}
	if d.LegendColor() != dark.Text {
		t.Errorf("legend color = %s, want %s", d.LegendColor(), dark.Text)
	}
	if v.TickColor() != dark.Text {
		t.Errorf("tick color = %s, want %s", v.TickColor(), dark.Text)
	}
}

func TestDonutColors(t *testing.T) {
	data := append(performance(), model.PerformanceCategoryRecord{
		Category: "Not Available", Measures: model.NumberOf(5),
	})
	d := newDonut(1, data, theme.PaletteFor(theme.Light))
	labels, colors := d.Slices()
	want := []string{theme.ColorBetter, theme.ColorAverage, theme.ColorWorse, theme.ColorFallback, theme.ColorFallback}
	for i := range want {
		if colors[i] != want[i] {
			t.Errorf("%s: color = %s, want %s", labels[i], colors[i], want[i])
		}
	}
}

func TestDonutViewListsCategories(t *testing.T) {
	d := newDonut(1, performance(), theme.PaletteFor(theme.Light))
	out := d.View(40)
	for _, rec := range performance() {
		if !strings.Contains(out, string(rec.Category)) {
			t.Errorf("view missing %q", rec.Category)
		}
	}
}

func TestVolumeBarKeepsServerOrder(t *testing.T) {
	data := append(volume(), model.VolumeTierRecord{Tier: "Very Large", AverageScore: model.Number{}})
	v := newVolumeBar(1, data, theme.PaletteFor(theme.Light), model.NumberOf(15.2))
	labels := v.Labels()
	if labels[3] != "Very Large" {
		t.Errorf("labels = %v", labels)
	}
	out := v.View(60)
	if !strings.Contains(out, model.Placeholder) {
		t.Error("invalid score should render as placeholder")
	}
	if !strings.Contains(out, "baseline 15.20") {
		t.Error("baseline marker missing")
	}
}

func TestWritePNG(t *testing.T) {
	p := theme.PaletteFor(theme.Dark)
	for _, inst := range []Instance{
		newDonut(1, performance(), p),
		newVolumeBar(2, volume(), p, model.NumberOf(15)),
	} {
		var buf bytes.Buffer
		if err := inst.WritePNG(&buf, 400, 300); err != nil {
			t.Fatalf("%s: %v", inst.Slot(), err)
		}
		if _, err := png.Decode(&buf); err != nil {
			t.Errorf("%s: not a png: %v", inst.Slot(), err)
		}
	}
}

func TestWritePNGNoData(t *testing.T) {
	d := newDonut(1, []model.PerformanceCategoryRecord{{Category: model.CategoryBetter}}, theme.PaletteFor(theme.Light))
	if err := d.WritePNG(&bytes.Buffer{}, 100, 100); err != ErrNoData {
		t.Errorf("err = %v, want ErrNoData", err)
	}
}

func TestApportionSumsToWidth(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		vals := rapid.SliceOfN(rapid.Float64Range(0, 1e6), 1, 8).Draw(t, "values")
		width := rapid.IntRange(1, 200).Draw(t, "width")
		cells := apportion(vals, width)
		sum, total := 0, 0.0
		for i, c := range cells {
			if c < 0 {
				t.Fatalf("negative cell %d", c)
			}
			sum += c
			total += vals[i]
		}
		if total > 0 && sum != width {
			t.Fatalf("cells sum %d, want %d", sum, width)
		}
	})
}

func TestAtMostOneLivePerSlot(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := NewRegistry()
		p := theme.PaletteFor(theme.Light)
		var seen []Instance
		steps := rapid.IntRange(1, 20).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			switch rapid.IntRange(0, 3).Draw(t, "op") {
			case 0:
				r.RenderDonut(performance(), p)
			case 1:
				r.RenderDonut(nil, p)
			case 2:
				r.RenderVolumeBar(volume(), p, model.NumberOf(15))
			case 3:
				r.RestyleForTheme(theme.PaletteFor(theme.Dark))
			}
			for _, id := range Slots {
				if inst := r.Live(id); inst != nil {
					seen = append(seen, inst)
				}
			}
		}
		alive := 0
		ids := map[uint64]bool{}
		for _, inst := range seen {
			if !inst.Destroyed() && !ids[inst.ID()] {
				alive++
			}
			ids[inst.ID()] = true
		}
		if alive > len(Slots) || alive != r.LiveCount() {
			t.Fatalf("alive = %d, LiveCount = %d", alive, r.LiveCount())
		}
	})
}
