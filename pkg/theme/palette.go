package theme

import (
	"image/color"
	"os"

	"github.com/vanderheijden86/readmit/pkg/model"

	"github.com/charmbracelet/colorprofile"
	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
)

// TermProfile holds the detected terminal color profile. Computed once at
// package init so every style helper can branch without re-detecting.
var TermProfile colorprofile.Profile

func init() {
	TermProfile = colorprofile.Detect(os.Stdout, os.Environ())
}

// Bg returns the given hex color for TrueColor terminals and
// lipgloss.NoColor{} otherwise, so 16/256-color terminals keep their own
// background instead of a down-converted approximation.
func Bg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.TrueColor {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// Fg returns the given hex color for ANSI256+ terminals and ANSI white
// (color 7) for 16-color or lower terminals.
func Fg(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.ANSIColor(7)
	}
	return lipgloss.Color(hex)
}

// Fill is like Bg but keeps the color on ANSI256 terminals. Choropleth
// tiles carry data, so they degrade instead of disappearing.
func Fill(hex string) lipgloss.TerminalColor {
	if TermProfile < colorprofile.ANSI256 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(hex)
}

// Category colors are the same in both themes.
const (
	ColorBetter   = "#22c55e"
	ColorAverage  = "#f97316"
	ColorWorse    = "#ef4444"
	ColorFallback = "#6b7280"
	ColorBar      = "#3b82f6"
)

// Palette is every color the dashboard draws with for one Theme.
type Palette struct {
	Theme Theme

	Text       string // primary text: chart legends, ticks, map legend
	Muted      string
	Background string
	Surface    string
	Border     string
	Accent     string
	Highlight  string

	// MapLabel is the translucent in-map label color. Terminals have no
	// alpha, so callers blend it over the tile fill (see Over).
	MapLabel color.NRGBA

	Bar      string
	Baseline string
}

// PaletteFor returns the palette of t.
func PaletteFor(t Theme) Palette {
	if t == Dark {
		return Palette{
			Theme:      Dark,
			Text:       "#e5e7eb",
			Muted:      "#9ca3af",
			Background: "#111827",
			Surface:    "#1f2937",
			Border:     "#374151",
			Accent:     "#60a5fa",
			Highlight:  "#facc15",
			MapLabel:   color.NRGBA{R: 255, G: 255, B: 255, A: 179},
			Bar:        ColorBar,
			Baseline:   "#fbbf24",
		}
	}
	return Palette{
		Theme:      Light,
		Text:       "#1f2937",
		Muted:      "#6b7280",
		Background: "#f9fafb",
		Surface:    "#ffffff",
		Border:     "#d1d5db",
		Accent:     "#2563eb",
		Highlight:  "#ca8a04",
		MapLabel:   color.NRGBA{R: 0, G: 0, B: 0, A: 179},
		Bar:        ColorBar,
		Baseline:   "#b45309",
	}
}

// CategoryColor maps a performance category to its slice color. Labels
// outside the known buckets get the neutral fallback.
func (p Palette) CategoryColor(c model.Category) string {
	switch c {
	case model.CategoryBetter:
		return ColorBetter
	case model.CategoryAverage:
		return ColorAverage
	case model.CategoryWorse:
		return ColorWorse
	default:
		return ColorFallback
	}
}

// Over composites the translucent map label color over a fill and returns
// the opaque result as hex.
func (p Palette) Over(fillHex string) string {
	fill, err := colorful.Hex(fillHex)
	if err != nil {
		fill, _ = colorful.Hex(p.Background)
	}
	label, _ := colorful.MakeColor(color.NRGBA{R: p.MapLabel.R, G: p.MapLabel.G, B: p.MapLabel.B, A: 255})
	alpha := float64(p.MapLabel.A) / 255
	return fill.BlendRgb(label, alpha).Clamped().Hex()
}

// RGBA converts a hex color for image renderers. Bad input yields opaque
// black.
func RGBA(hex string) color.RGBA {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{A: 255}
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 255}
}
