package geomap

import (
	"errors"
	"fmt"
	"image/color"
	"io"

	"git.sr.ht/~sbinet/gg"
	svg "github.com/ajstarks/svgo"
	"github.com/vanderheijden86/readmit/pkg/model"
	"github.com/vanderheijden86/readmit/pkg/theme"
	"golang.org/x/image/font/basicfont"
)

// ErrNotRendered is returned when exporting a map that has no data yet.
var ErrNotRendered = errors.New("geomap: map has not been rendered")

const (
	imagePad     = 24
	legendHeight = 56
	legendSteps  = 40
)

type layout struct {
	width, height int
	tileW, tileH  float64
	gap           float64
	legendY       float64
}

func newLayout(width, height int) layout {
	l := layout{width: width, height: height, gap: 4}
	l.tileW = float64(width-2*imagePad) / GridCols
	l.tileH = float64(height-2*imagePad-legendHeight) / GridRows
	l.legendY = float64(height - imagePad - legendHeight + 16)
	return l
}

func (l layout) origin(p Pos) (x, y float64) {
	return imagePad + float64(p.Col)*l.tileW, imagePad + float64(p.Row)*l.tileH
}

// WritePNG draws the current artifact with gg.
func (m *MapView) WritePNG(w io.Writer, width, height int) error {
	if !m.rendered {
		return ErrNotRendered
	}
	l := newLayout(width, height)
	dc := gg.NewContext(width, height)
	dc.SetColor(theme.RGBA(m.palette.Surface))
	dc.Clear()
	dc.SetFontFace(basicfont.Face7x13)

	for _, r := range sortedRegions() {
		x, y := l.origin(tiles[r])
		fill, _ := m.FillFor(r)
		dc.SetColor(theme.RGBA(fill))
		dc.DrawRoundedRectangle(x, y, l.tileW-l.gap, l.tileH-l.gap, 4)
		dc.Fill()
		dc.SetColor(m.palette.MapLabel)
		dc.DrawStringAnchored(string(r), x+(l.tileW-l.gap)/2, y+(l.tileH-l.gap)/2, 0.5, 0.5)
	}

	text := theme.RGBA(m.palette.Text)
	dc.SetColor(text)
	dc.DrawStringAnchored(LegendTitle, imagePad, l.legendY, 0, 0.5)
	if m.extent.OK {
		barX, barW := float64(imagePad+80), float64(width-2*imagePad-160)
		step := barW / legendSteps
		for i := 0; i < legendSteps; i++ {
			dc.SetColor(theme.RGBA(ScaleColor(float64(i) / (legendSteps - 1))))
			dc.DrawRectangle(barX+float64(i)*step, l.legendY-8, step+1, 16)
			dc.Fill()
		}
		dc.SetColor(text)
		dc.DrawStringAnchored(model.NumberOf(m.extent.Min).Fixed2(), barX, l.legendY+20, 0, 0.5)
		dc.DrawStringAnchored(model.NumberOf(m.extent.Max).Fixed2(), barX+barW, l.legendY+20, 1, 0.5)
	}
	return dc.EncodePNG(w)
}

// WriteSVG draws the current artifact with svgo.
func (m *MapView) WriteSVG(w io.Writer, width, height int) error {
	if !m.rendered {
		return ErrNotRendered
	}
	l := newLayout(width, height)
	canvas := svg.New(w)
	canvas.Start(width, height)
	canvas.Rect(0, 0, width, height, "fill:"+m.palette.Surface)

	label := m.palette.MapLabel
	labelStyle := fmt.Sprintf("fill:%s;fill-opacity:%.2f;font-size:13px;font-family:monospace;text-anchor:middle;dominant-baseline:middle",
		css(label), float64(label.A)/255)

	for _, r := range sortedRegions() {
		p := tiles[r]
		x, y := l.origin(p)
		fill, _ := m.FillFor(r)
		tw, th := int(l.tileW-l.gap), int(l.tileH-l.gap)
		canvas.Roundrect(int(x), int(y), tw, th, 4, 4, "fill:"+fill)
		canvas.Text(int(x)+tw/2, int(y)+th/2, string(r), labelStyle)
	}

	textStyle := fmt.Sprintf("fill:%s;font-size:13px;font-family:monospace", m.palette.Text)
	canvas.Text(imagePad, int(l.legendY)+4, LegendTitle, textStyle)
	if m.extent.OK {
		barX, barW := imagePad+80, width-2*imagePad-160
		step := max(barW/legendSteps, 1)
		for i := 0; i < legendSteps; i++ {
			canvas.Rect(barX+i*step, int(l.legendY)-8, step+1, 16,
				"fill:"+ScaleColor(float64(i)/(legendSteps-1)))
		}
		canvas.Text(barX, int(l.legendY)+24, model.NumberOf(m.extent.Min).Fixed2(), textStyle)
		canvas.Text(barX+legendSteps*step, int(l.legendY)+24, model.NumberOf(m.extent.Max).Fixed2(), textStyle+";text-anchor:end")
	}
	canvas.End()
	return nil
}

func sortedRegions() []model.Region {
	out := make([]model.Region, 0, len(tiles))
	for row := 0; row < GridRows; row++ {
		for col := 0; col < GridCols; col++ {
			if r, ok := byPos[Pos{Row: row, Col: col}]; ok {
				out = append(out, r)
			}
		}
	}
	return out
}

func css(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
