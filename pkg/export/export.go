// Package export writes what the dashboard currently shows to disk: tables
// as CSV, charts and the map as images, or everything at once as a SQLite
// snapshot. Exports read rendered state only and never trigger a fetch.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/vanderheijden86/readmit/pkg/charts"
	"github.com/vanderheijden86/readmit/pkg/debug"
	"github.com/vanderheijden86/readmit/pkg/geomap"
	"github.com/vanderheijden86/readmit/pkg/metrics"
	"github.com/vanderheijden86/readmit/pkg/model"
	"github.com/vanderheijden86/readmit/pkg/tables"
)

// ErrNothingToExport is returned when the target has no rendered artifact.
var ErrNothingToExport = errors.New("nothing to export")

// MapID is the export target id of the choropleth.
const MapID = "us-map"

// File extensions by artifact kind.
const (
	ExtCSV = "csv"
	ExtPNG = "png"
	ExtSVG = "svg"
)

// Filename returns "<target>_<region>.<ext>", using "national" when
// unfiltered.
func Filename(target string, region model.Region, ext string) string {
	return fmt.Sprintf("%s_%s.%s", target, region.Label(), ext)
}

// SaveTable writes t as CSV into dir and returns the path.
func SaveTable(dir string, t *tables.Table, region model.Region) (string, error) {
	if t == nil {
		return "", ErrNothingToExport
	}
	path := filepath.Join(dir, Filename(t.ID, region, ExtCSV))
	return path, writeAtomic(path, func(w io.Writer) error { return WriteCSV(w, t) })
}

// SaveChartPNG writes a live chart as PNG into dir.
func SaveChartPNG(dir string, inst charts.Instance, region model.Region, width, height int) (string, error) {
	if inst == nil || inst.Destroyed() {
		return "", ErrNothingToExport
	}
	path := filepath.Join(dir, Filename(string(inst.Slot()), region, ExtPNG))
	return path, writeAtomic(path, func(w io.Writer) error { return inst.WritePNG(w, width, height) })
}

// SaveMapPNG writes the map as PNG into dir.
func SaveMapPNG(dir string, m *geomap.MapView, region model.Region, width, height int) (string, error) {
	if m == nil || !m.Rendered() {
		return "", ErrNothingToExport
	}
	path := filepath.Join(dir, Filename(MapID, region, ExtPNG))
	return path, writeAtomic(path, func(w io.Writer) error { return m.WritePNG(w, width, height) })
}

// SaveMapSVG writes the map as SVG into dir.
func SaveMapSVG(dir string, m *geomap.MapView, region model.Region, width, height int) (string, error) {
	if m == nil || !m.Rendered() {
		return "", ErrNothingToExport
	}
	path := filepath.Join(dir, Filename(MapID, region, ExtSVG))
	return path, writeAtomic(path, func(w io.Writer) error { return m.WriteSVG(w, width, height) })
}

// writeClipboard is swapped out in tests.
var writeClipboard = clipboard.WriteAll

// CopyCSV puts t on the system clipboard as CSV.
func CopyCSV(t *tables.Table) error {
	if t == nil {
		return ErrNothingToExport
	}
	text, err := CSVString(t)
	if err != nil {
		return err
	}
	if err := writeClipboard(text); err != nil {
		return fmt.Errorf("copy %s to clipboard: %w", t.ID, err)
	}
	return nil
}

// writeAtomic writes through a temp file in the target directory and
// renames it into place.
func writeAtomic(path string, write func(io.Writer) error) error {
	defer metrics.Timer(metrics.Export)()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := write(tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename temp file: %w", err)
	}
	debug.Log("export: wrote %s", path)
	return nil
}
