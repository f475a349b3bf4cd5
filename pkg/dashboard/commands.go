package dashboard

import (
	"errors"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vanderheijden86/readmit/pkg/charts"
	"github.com/vanderheijden86/readmit/pkg/debug"
	"github.com/vanderheijden86/readmit/pkg/export"
	"github.com/vanderheijden86/readmit/pkg/model"
	"github.com/vanderheijden86/readmit/pkg/tables"
)

// Command is a user intent. Key bindings, mouse handlers and the CLI all
// go through Dispatch.
type Command interface{ command() }

type (
	// SetFilter scopes the dashboard to one region.
	SetFilter struct{ Region model.Region }
	// ResetFilter returns to national data.
	ResetFilter struct{}
	// ToggleTheme flips light/dark and restyles in place.
	ToggleTheme struct{}
	// Export writes one panel to the export directory. Format is only
	// consulted for the map ("svg" or "png").
	Export struct {
		Target string
		Format string
	}
	// CopyTable puts a table on the clipboard as CSV.
	CopyTable struct{ Target string }
	// Snapshot writes every table into one SQLite file.
	Snapshot struct{}
)

func (SetFilter) command()   {}
func (ResetFilter) command() {}
func (ToggleTheme) command() {}
func (Export) command()      {}
func (CopyTable) command()   {}
func (Snapshot) command()    {}

// Targets lists every exportable panel in focus order.
var Targets = []string{
	export.MapID,
	string(charts.SlotDonut),
	string(charts.SlotVolume),
	tables.TopHospitalsID,
	tables.WorstMeasuresID,
	tables.StatePerformanceID,
}

// ErrUnknownTarget is returned for an export target that names no panel.
var ErrUnknownTarget = errors.New("unknown export target")

// Dispatch executes cmd and returns any follow-up command.
func (c *Controller) Dispatch(cmd Command) tea.Cmd {
	switch cmd := cmd.(type) {
	case SetFilter:
		return c.SetFilter(cmd.Region)
	case ResetFilter:
		return c.SetFilter(model.National)
	case ToggleTheme:
		c.themes.Toggle()
		c.status = StatusMsg{Text: c.themes.Theme().String() + " theme"}
	case Export:
		path, err := c.Export(cmd.Target, cmd.Format)
		c.reportFile("exported", path, err)
	case CopyTable:
		err := export.CopyCSV(c.table(cmd.Target))
		if err == nil {
			c.status = StatusMsg{Text: "copied " + cmd.Target + " to clipboard"}
		} else {
			c.status = StatusMsg{Text: "copy failed", Err: err}
		}
	case Snapshot:
		path, err := c.Snapshot()
		c.reportFile("snapshot", path, err)
	}
	return nil
}

func (c *Controller) reportFile(verb, path string, err error) {
	if err != nil {
		debug.Log("dashboard: %s failed: %v", verb, err)
		c.status = StatusMsg{Text: verb + " failed", Err: err}
		return
	}
	c.status = StatusMsg{Text: fmt.Sprintf("%s %s", verb, path)}
}

func (c *Controller) table(target string) *tables.Table {
	switch target {
	case tables.TopHospitalsID:
		return c.TopHospitals
	case tables.WorstMeasuresID:
		return c.WorstMeasures
	case tables.StatePerformanceID:
		return c.StateDetails
	}
	return nil
}

// Export writes one panel's rendered state: tables as CSV, charts as PNG,
// the map as PNG or SVG. It reads only what is on screen.
func (c *Controller) Export(target, format string) (string, error) {
	dir, e := c.export.Dir, c.export
	switch target {
	case export.MapID:
		if format == export.ExtSVG {
			return export.SaveMapSVG(dir, c.Map, c.filter, e.MapWidth, e.MapHeight)
		}
		return export.SaveMapPNG(dir, c.Map, c.filter, e.MapWidth, e.MapHeight)
	case string(charts.SlotDonut), string(charts.SlotVolume):
		return export.SaveChartPNG(dir, c.Charts.Live(charts.SlotID(target)), c.filter, e.ChartWidth, e.ChartHeight)
	}
	if t := c.table(target); t != nil {
		return export.SaveTable(dir, t, c.filter)
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTarget, target)
}

// ExportAll exports every panel. See ExportTargets.
func (c *Controller) ExportAll(mapFormat string) ([]string, error) {
	return c.ExportTargets(Targets, mapFormat)
}

// ExportTargets exports the named panels in order, skipping those with
// nothing rendered. It returns the written paths and the first hard
// failure.
func (c *Controller) ExportTargets(targets []string, mapFormat string) ([]string, error) {
	var paths []string
	for _, target := range targets {
		path, err := c.Export(target, mapFormat)
		if errors.Is(err, export.ErrNothingToExport) || errors.Is(err, charts.ErrNoData) {
			debug.Log("dashboard: skip %s: %v", target, err)
			continue
		}
		if err != nil {
			return paths, fmt.Errorf("export %s: %w", target, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// Snapshot writes all three tables into a SQLite file in the export dir.
func (c *Controller) Snapshot() (string, error) {
	path := filepath.Join(c.export.Dir, export.SnapshotName(c.filter))
	err := export.SQLiteSnapshot(path, c.filter, c.now(), c.TopHospitals, c.WorstMeasures, c.StateDetails)
	return path, err
}
