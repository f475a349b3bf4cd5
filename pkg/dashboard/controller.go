// Package dashboard coordinates the readmission dashboard: a single active
// region filter, the fetches it fans out to, and the visuals they feed.
//
// Every state change happens on the Bubble Tea update goroutine. Fetches run
// as tea.Cmds and come back as Fetched messages stamped with the refresh
// generation that issued them; a message from an older generation is
// dropped, so the last filter selected always wins regardless of the order
// responses arrive in.
package dashboard

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vanderheijden86/readmit/pkg/charts"
	"github.com/vanderheijden86/readmit/pkg/config"
	"github.com/vanderheijden86/readmit/pkg/debug"
	"github.com/vanderheijden86/readmit/pkg/gateway"
	"github.com/vanderheijden86/readmit/pkg/geomap"
	"github.com/vanderheijden86/readmit/pkg/metrics"
	"github.com/vanderheijden86/readmit/pkg/model"
	"github.com/vanderheijden86/readmit/pkg/tables"
	"github.com/vanderheijden86/readmit/pkg/theme"
)

// Fetcher is the backend the controller reads from. *gateway.Client
// implements it.
type Fetcher interface {
	FetchKPI(ctx context.Context, region model.Region) (model.MetricRecord, error)
	FetchPerformance(ctx context.Context, region model.Region) ([]model.PerformanceCategoryRecord, error)
	FetchVolume(ctx context.Context, region model.Region) ([]model.VolumeTierRecord, error)
	FetchTopHospitals(ctx context.Context, region model.Region) ([]model.HospitalRankRecord, error)
	FetchWorstMeasures(ctx context.Context, region model.Region) ([]model.MeasureRecord, error)
	FetchStateScores(ctx context.Context) ([]model.StateSummaryRecord, error)
	FetchStateDetails(ctx context.Context) ([]model.StateSummaryRecord, error)
}

var _ Fetcher = (*gateway.Client)(nil)

// refreshFetches is the number of fetches one refresh settles: the KPI
// fetch plus its four dependents.
const refreshFetches = 5

// Tiles are the KPI values as displayed.
type Tiles struct {
	TotalHospitals string
	AverageScore   string
}

var placeholderTiles = Tiles{TotalHospitals: model.Placeholder, AverageScore: model.Placeholder}

// Controller owns the dashboard state. Not safe for concurrent use; all
// methods are called from the update loop (or, headless, one goroutine).
type Controller struct {
	ctx    context.Context
	gw     Fetcher
	themes *theme.Controller
	export config.ExportConfig
	now    func() time.Time

	filter     model.Region
	generation uint64
	pageLoad   uint64
	pending    int
	tiles      Tiles
	baseline   model.Number
	failures   map[gateway.Dataset]error
	status     StatusMsg
	queued     []tea.Cmd

	Charts        *charts.Registry
	Map           *geomap.MapView
	TopHospitals  *tables.Table
	WorstMeasures *tables.Table
	StateDetails  *tables.Table
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now for snapshot timestamps.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithExportConfig sets where and how large exports are written.
func WithExportConfig(e config.ExportConfig) Option {
	return func(c *Controller) { c.export = e }
}

// WithRegion sets the filter the first refresh starts from.
func WithRegion(r model.Region) Option {
	return func(c *Controller) { c.filter = r }
}

// New wires a controller. ctx bounds every fetch and is cancelled on quit.
func New(ctx context.Context, gw Fetcher, themes *theme.Controller, opts ...Option) *Controller {
	c := &Controller{
		ctx:           ctx,
		gw:            gw,
		themes:        themes,
		export:        config.DefaultConfig().Export,
		now:           time.Now,
		tiles:         placeholderTiles,
		failures:      make(map[gateway.Dataset]error),
		Charts:        charts.NewRegistry(),
		Map:           geomap.New(themes.Palette()),
		TopHospitals:  tables.NewTopHospitals(),
		WorstMeasures: tables.NewWorstMeasures(),
		StateDetails:  tables.NewStatePerformance(),
	}
	for _, opt := range opts {
		opt(c)
	}
	themes.OnChange(func(_ theme.Theme, p theme.Palette) {
		c.Charts.RestyleForTheme(p)
		c.Map.RestyleForTheme(p)
	})
	c.Map.OnRegionSelected(func(r model.Region) {
		c.queued = append(c.queued, c.SetFilter(r))
	})
	return c
}

// Init issues the page-load fetches (map and state details, unfiltered)
// and the first refresh.
func (c *Controller) Init() tea.Cmd {
	scores, details := c.pageLoads(c.ctx)
	return tea.Batch(scores, details, c.Refresh())
}

// pageLoads starts a new page-load generation and returns its two fetches.
// A config reload issues a new page load, so results from the previous
// backend are dropped.
func (c *Controller) pageLoads(ctx context.Context) (scores, details tea.Cmd) {
	c.pageLoad++
	return pageLoadCmd(ctx, c.pageLoad, gateway.DatasetStateScores, c.gw.FetchStateScores, wrapScores),
		pageLoadCmd(ctx, c.pageLoad, gateway.DatasetStateDetails, c.gw.FetchStateDetails, wrapDetails)
}

// SetFilter is the only way the active filter changes. National clears it.
func (c *Controller) SetFilter(r model.Region) tea.Cmd {
	c.filter = r
	debug.Log("dashboard: filter -> %s", r.Label())
	return c.Refresh()
}

// Refresh starts a new generation and issues its KPI fetch. The four
// dependent fetches follow once the KPI settles.
func (c *Controller) Refresh() tea.Cmd {
	c.generation++
	c.pending = refreshFetches
	for _, d := range refreshDatasets {
		delete(c.failures, d)
	}
	metrics.CountRefresh()
	return fetchCmd(c.ctx, c.generation, gateway.DatasetKPIs, c.filter, c.gw.FetchKPI)
}

var refreshDatasets = []gateway.Dataset{
	gateway.DatasetKPIs,
	gateway.DatasetPerformance,
	gateway.DatasetVolume,
	gateway.DatasetTopHospitals,
	gateway.DatasetWorstMeasures,
}

// dependents issues the four fetches that follow the KPI, concurrently.
func (c *Controller) dependents(gen uint64, region model.Region) tea.Cmd {
	return tea.Batch(
		fetchCmd(c.ctx, gen, gateway.DatasetPerformance, region, c.gw.FetchPerformance),
		fetchCmd(c.ctx, gen, gateway.DatasetVolume, region, c.gw.FetchVolume),
		fetchCmd(c.ctx, gen, gateway.DatasetTopHospitals, region, c.gw.FetchTopHospitals),
		fetchCmd(c.ctx, gen, gateway.DatasetWorstMeasures, region, c.gw.FetchWorstMeasures),
	)
}

// Handle applies a result message. It reports whether msg was one of the
// controller's, and returns any follow-up command.
func (c *Controller) Handle(msg tea.Msg) (tea.Cmd, bool) {
	switch msg := msg.(type) {
	case KPIMsg:
		if !c.current(msg.Gen, msg.Dataset) {
			return nil, true
		}
		c.applyKPI(msg.Data, msg.Err)
		return c.dependents(msg.Gen, msg.Region), true

	case PerformanceMsg:
		if c.current(msg.Gen, msg.Dataset) {
			c.applyPerformance(msg.Data, msg.Err)
		}
		return nil, true

	case VolumeMsg:
		if c.current(msg.Gen, msg.Dataset) {
			c.applyVolume(msg.Data, msg.Err)
		}
		return nil, true

	case TopHospitalsMsg:
		if c.current(msg.Gen, msg.Dataset) {
			c.applyTable(c.TopHospitals, msg.Dataset, msg.Err, func() {
				tables.RenderRows(c.TopHospitals, msg.Data, tables.TopHospitalRow)
			})
		}
		return nil, true

	case WorstMeasuresMsg:
		if c.current(msg.Gen, msg.Dataset) {
			c.applyTable(c.WorstMeasures, msg.Dataset, msg.Err, func() {
				tables.RenderRows(c.WorstMeasures, msg.Data, tables.WorstMeasureRow)
			})
		}
		return nil, true

	case StateScoresMsg:
		if c.currentPage(msg.Gen, msg.Dataset) {
			c.applyStateScores(msg.Data, msg.Err)
		}
		return nil, true

	case StateDetailsMsg:
		if c.currentPage(msg.Gen, msg.Dataset) {
			c.applyTable(c.StateDetails, msg.Dataset, msg.Err, func() {
				tables.RenderRows(c.StateDetails, msg.Data, tables.StateDetailRow)
			})
		}
		return nil, true

	case StatusMsg:
		c.status = msg
		return nil, true
	}
	return nil, false
}

// current reports whether a result belongs to the live generation, and
// counts it as settled when it does.
func (c *Controller) current(gen uint64, d gateway.Dataset) bool {
	if gen != c.generation {
		metrics.CountStale()
		debug.Log("dashboard: dropped stale %s (gen %d, live %d)", d, gen, c.generation)
		return false
	}
	if c.pending > 0 {
		c.pending--
	}
	return true
}

// currentPage is current for page-load results. They are not part of the
// refresh's pending count.
func (c *Controller) currentPage(gen uint64, d gateway.Dataset) bool {
	if gen != c.pageLoad {
		metrics.CountStale()
		debug.Log("dashboard: dropped stale %s (page load %d, live %d)", d, gen, c.pageLoad)
		return false
	}
	return true
}

func (c *Controller) fail(d gateway.Dataset, err error) {
	c.failures[d] = err
	c.status = StatusMsg{Text: string(d) + " unavailable", Err: err}
	debug.Log("dashboard: %v", err)
}

func (c *Controller) applyKPI(rec model.MetricRecord, err error) {
	if err != nil {
		c.fail(gateway.DatasetKPIs, err)
		c.tiles = placeholderTiles
		c.baseline = model.Number{}
		return
	}
	c.tiles = Tiles{
		TotalHospitals: rec.TotalHospitals.Grouped(),
		AverageScore:   rec.AverageScore.Plain(),
	}
	c.baseline = rec.AverageScore
}

func (c *Controller) applyPerformance(data []model.PerformanceCategoryRecord, err error) {
	if err != nil {
		c.fail(gateway.DatasetPerformance, err)
		c.Charts.Clear(charts.SlotDonut, charts.NoPerformanceData)
		return
	}
	c.Charts.RenderDonut(data, c.themes.Palette())
}

func (c *Controller) applyVolume(data []model.VolumeTierRecord, err error) {
	if err != nil {
		c.fail(gateway.DatasetVolume, err)
		c.Charts.Clear(charts.SlotVolume, charts.NoVolumeData)
		return
	}
	c.Charts.RenderVolumeBar(data, c.themes.Palette(), c.baseline)
}

func (c *Controller) applyTable(t *tables.Table, d gateway.Dataset, err error, render func()) {
	if err != nil {
		c.fail(d, err)
		t.Clear()
		return
	}
	render()
}

func (c *Controller) applyStateScores(data []model.StateSummaryRecord, err error) {
	if err != nil {
		c.fail(gateway.DatasetStateScores, err)
		data = nil
	}
	c.Map.Render(data, c.themes.Palette())
}

// Drain returns commands queued by callbacks (map selection) since the
// last call.
func (c *Controller) Drain() tea.Cmd {
	if len(c.queued) == 0 {
		return nil
	}
	cmds := c.queued
	c.queued = nil
	return tea.Batch(cmds...)
}

// Reconfigure points the controller at a new backend and export settings,
// then reloads everything.
func (c *Controller) Reconfigure(gw Fetcher, export config.ExportConfig) tea.Cmd {
	c.gw = gw
	c.export = export
	return c.Init()
}

// Filter returns the active region (National when unfiltered).
func (c *Controller) Filter() model.Region { return c.filter }

// Indicator returns the filter banner and whether it is shown.
func (c *Controller) Indicator() (string, bool) {
	if c.filter.IsNational() {
		return "", false
	}
	return "Showing data for: " + string(c.filter), true
}

// Tiles returns the KPI tile values.
func (c *Controller) Tiles() Tiles { return c.tiles }

// Baseline returns the KPI average captured by the latest refresh.
func (c *Controller) Baseline() model.Number { return c.baseline }

// Generation returns the live refresh generation.
func (c *Controller) Generation() uint64 { return c.generation }

// Refreshing reports whether the live generation still has fetches
// outstanding.
func (c *Controller) Refreshing() bool { return c.pending > 0 }

// Pending returns the number of unsettled fetches of the live generation.
func (c *Controller) Pending() int { return c.pending }

// Failures returns the datasets that failed since they were last fetched.
func (c *Controller) Failures() map[gateway.Dataset]error {
	out := make(map[gateway.Dataset]error, len(c.failures))
	for k, v := range c.failures {
		out[k] = v
	}
	return out
}

// Status returns the status line.
func (c *Controller) Status() StatusMsg { return c.status }

// Themes returns the theme controller.
func (c *Controller) Themes() *theme.Controller { return c.themes }

// ExportConfig returns the current export settings.
func (c *Controller) ExportConfig() config.ExportConfig { return c.export }
