package dashboard

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vanderheijden86/readmit/pkg/charts"
	"github.com/vanderheijden86/readmit/pkg/config"
	"github.com/vanderheijden86/readmit/pkg/export"
	"github.com/vanderheijden86/readmit/pkg/gateway"
	"github.com/vanderheijden86/readmit/pkg/model"
	"github.com/vanderheijden86/readmit/pkg/tables"
	"github.com/vanderheijden86/readmit/pkg/testutil"
	"github.com/vanderheijden86/readmit/pkg/theme"
)

type memStore struct {
	t     theme.Theme
	ok    bool
	saves int
}

func (s *memStore) Load() (theme.Theme, bool, error) { return s.t, s.ok, nil }
func (s *memStore) Save(t theme.Theme) error {
	s.t, s.ok = t, true
	s.saves++
	return nil
}

type fixture struct {
	ctrl    *Controller
	backend *testutil.Backend
	store   *memStore
	dir     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	b := testutil.NewBackend(t)
	gw, err := gateway.New(config.APIConfig{BaseURL: b.URL(), Timeout: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	store := &memStore{}
	dir := t.TempDir()
	exp := config.DefaultConfig().Export
	exp.Dir = dir
	exp.ChartWidth, exp.ChartHeight = 320, 240
	exp.MapWidth, exp.MapHeight = 480, 320
	ctrl := New(context.Background(), gw, theme.NewController(store, nil),
		WithExportConfig(exp),
		WithClock(func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }),
	)
	return &fixture{ctrl: ctrl, backend: b, store: store, dir: dir}
}

func (f *fixture) settle(cmd tea.Cmd) {
	testutil.Settle(cmd, func(msg tea.Msg) tea.Cmd {
		next, _ := f.ctrl.Handle(msg)
		return next
	})
}

func TestFilterScenarioCA(t *testing.T) {
	f := newFixture(t)
	f.settle(f.ctrl.Dispatch(SetFilter{Region: "CA"}))

	tiles := f.ctrl.Tiles()
	if tiles.TotalHospitals != "350" || tiles.AverageScore != "15.2" {
		t.Errorf("tiles = %+v, want 350 / 15.2", tiles)
	}
	if text, ok := f.ctrl.Indicator(); !ok || text != "Showing data for: CA" {
		t.Errorf("indicator = %q %v", text, ok)
	}
	testutil.AssertRows(t, f.ctrl.WorstMeasures.Rows(), [][]string{{"Readmission-30d", "1,234", "12.35"}})
	testutil.AssertRows(t, f.ctrl.TopHospitals.Rows(), [][]string{
		{"VALLEY MEDICAL", "FRESNO", "CA", "25.30"},
		{"BAY HOSPITAL", "OAKLAND", "CA", "24.00"},
	})

	donut, ok := f.ctrl.Charts.Live(charts.SlotDonut).(*charts.Donut)
	if !ok {
		t.Fatal("expected a live donut")
	}
	labels, colors := donut.Slices()
	for i, l := range labels {
		if l == string(model.CategoryTooSmall) && colors[i] != theme.ColorFallback {
			t.Errorf("%s color = %s, want fallback", l, colors[i])
		}
	}
	bars := f.ctrl.Charts.Live(charts.SlotVolume).(*charts.VolumeBar)
	if got := bars.Baseline().Plain(); got != "15.2" {
		t.Errorf("baseline = %s", got)
	}

	for _, path := range []string{testutil.PathKPIs, testutil.PathPerformance, testutil.PathVolume, testutil.PathTopHospitals, testutil.PathWorstMeasures} {
		testutil.AssertRequested(t, f.backend, path, "CA")
	}
	if f.ctrl.Refreshing() {
		t.Error("all five fetches settled; refresh should be idle")
	}
}

func TestInitLoadsUnfilteredMapAndDetails(t *testing.T) {
	f := newFixture(t)
	f.settle(f.ctrl.Init())

	if f.ctrl.Filter() != model.National {
		t.Errorf("filter = %q", f.ctrl.Filter())
	}
	if _, ok := f.ctrl.Indicator(); ok {
		t.Error("indicator must be hidden when unfiltered")
	}
	if tiles := f.ctrl.Tiles(); tiles.TotalHospitals != "4,512" || tiles.AverageScore != "16.08" {
		t.Errorf("tiles = %+v", tiles)
	}
	if !f.ctrl.Map.Rendered() {
		t.Fatal("map not rendered")
	}
	if ext := f.ctrl.Map.Extent(); ext.Min != 14 || ext.Max != 17.9 {
		t.Errorf("extent = %+v", ext)
	}
	if un := f.ctrl.Map.Unplaced(); len(un) != 1 || un[0] != "GU" {
		t.Errorf("unplaced = %v", un)
	}
	testutil.AssertRows(t, f.ctrl.StateDetails.Rows(), [][]string{
		{"NY", "160", "912,345", "9.10", "27.00", "17.90"},
		{"TX", "401", "1,203,400", "8.20", "26.00", "16.40"},
		{"CA", "350", "1,500,000", model.Placeholder, "25.30", "15.20"},
	})
	for _, r := range f.backend.Requests() {
		if (r.Path == testutil.PathStateScores || r.Path == testutil.PathStateDetails) && r.Region != "" {
			t.Errorf("page-load dataset %s fetched with region %q", r.Path, r.Region)
		}
	}
}

func TestFilterDoesNotRefetchPageLoad(t *testing.T) {
	f := newFixture(t)
	f.settle(f.ctrl.Init())
	f.backend.Reset()
	f.settle(f.ctrl.Dispatch(SetFilter{Region: "TX"}))
	for _, r := range f.backend.Requests() {
		if r.Path == testutil.PathStateScores || r.Path == testutil.PathStateDetails {
			t.Errorf("filter change refetched %s", r.Path)
		}
	}
	if f.backend.RequestCount() != refreshFetches {
		t.Errorf("requests = %d, want %d", f.backend.RequestCount(), refreshFetches)
	}
}

func TestStaleKPIIsDiscarded(t *testing.T) {
	f := newFixture(t)
	caKPI := testutil.Run(f.ctrl.SetFilter("CA"))
	f.settle(f.ctrl.SetFilter("TX"))

	for _, msg := range caKPI {
		next, handled := f.ctrl.Handle(msg)
		if !handled || next != nil {
			t.Fatalf("stale KPI should be consumed without follow-up (handled=%v)", handled)
		}
	}
	if tiles := f.ctrl.Tiles(); tiles.TotalHospitals != "401" {
		t.Errorf("stale response overwrote tiles: %+v", tiles)
	}
	testutil.AssertRows(t, f.ctrl.WorstMeasures.Rows(), [][]string{{"Pneumonia 30-day", "980", "18.10"}})
}

func TestStaleDependentsAreDiscarded(t *testing.T) {
	f := newFixture(t)
	kpi := testutil.Run(f.ctrl.SetFilter("CA"))
	if len(kpi) != 1 {
		t.Fatalf("expected one KPI message, got %d", len(kpi))
	}
	caDeps, _ := f.ctrl.Handle(kpi[0])
	caMsgs := testutil.Run(caDeps)
	if len(caMsgs) != 4 {
		t.Fatalf("expected four dependent results, got %d", len(caMsgs))
	}

	f.settle(f.ctrl.SetFilter("TX"))
	for _, msg := range caMsgs {
		f.ctrl.Handle(msg)
	}

	testutil.AssertRows(t, f.ctrl.TopHospitals.Rows(), [][]string{{"LONE STAR REGIONAL", "AUSTIN", "TX", "26.00"}})
	labels := f.ctrl.Charts.Live(charts.SlotVolume).(*charts.VolumeBar).Labels()
	if len(labels) != 1 || labels[0] != "Small" {
		t.Errorf("volume tiers = %v, want TX data", labels)
	}
	if f.ctrl.Refreshing() {
		t.Errorf("pending = %d after TX settled", f.ctrl.Pending())
	}
}

func TestKPIFailureStillFansOut(t *testing.T) {
	f := newFixture(t)
	f.backend.FailPath(testutil.PathKPIs, 500)
	f.settle(f.ctrl.SetFilter("CA"))

	if tiles := f.ctrl.Tiles(); tiles != placeholderTiles {
		t.Errorf("tiles = %+v, want placeholders", tiles)
	}
	if f.ctrl.Baseline().Valid() {
		t.Error("baseline should be invalid after KPI failure")
	}
	if f.ctrl.WorstMeasures.Len() != 1 {
		t.Error("dependent fetches must still run")
	}
	var fe *gateway.FetchError
	if err := f.ctrl.Failures()[gateway.DatasetKPIs]; !errors.As(err, &fe) || fe.StatusCode != 500 {
		t.Errorf("failure = %v", err)
	}
	if f.ctrl.Refreshing() {
		t.Error("refresh should settle")
	}
}

func TestDatasetFailureIsIsolated(t *testing.T) {
	f := newFixture(t)
	f.settle(f.ctrl.SetFilter("CA"))
	f.backend.FailPath(testutil.PathVolume, 503)
	f.backend.FailPath(testutil.PathTopHospitals, 500)
	f.settle(f.ctrl.Refresh())

	if f.ctrl.Charts.Live(charts.SlotVolume) != nil {
		t.Error("failed volume fetch must clear the chart")
	}
	if got := f.ctrl.Charts.Placeholder(charts.SlotVolume); got != charts.NoVolumeData {
		t.Errorf("placeholder = %q", got)
	}
	if f.ctrl.TopHospitals.Len() != 0 {
		t.Error("failed table fetch must show an empty table")
	}
	if f.ctrl.Charts.Live(charts.SlotDonut) == nil || f.ctrl.WorstMeasures.Len() != 1 {
		t.Error("other visuals must still render")
	}
	if len(f.ctrl.Failures()) != 2 {
		t.Errorf("failures = %v", f.ctrl.Failures())
	}
}

func TestResetRestoresNational(t *testing.T) {
	f := newFixture(t)
	f.settle(f.ctrl.SetFilter("CA"))
	f.settle(f.ctrl.Dispatch(ResetFilter{}))

	if _, ok := f.ctrl.Indicator(); ok {
		t.Error("reset must hide the indicator")
	}
	if tiles := f.ctrl.Tiles(); tiles.TotalHospitals != "4,512" {
		t.Errorf("tiles = %+v", tiles)
	}
	if f.ctrl.WorstMeasures.Len() != 2 {
		t.Errorf("worst measures = %v", f.ctrl.WorstMeasures.Rows())
	}
}

func TestEmptyRegionShowsEmptyStates(t *testing.T) {
	f := newFixture(t)
	f.settle(f.ctrl.SetFilter("WY"))

	if tiles := f.ctrl.Tiles(); tiles.TotalHospitals != "0" || tiles.AverageScore != model.Placeholder {
		t.Errorf("tiles = %+v", tiles)
	}
	if f.ctrl.Charts.View(charts.SlotDonut, 40) != charts.NoPerformanceData {
		t.Error("donut should show its empty message")
	}
	if f.ctrl.Charts.View(charts.SlotVolume, 40) != charts.NoVolumeData {
		t.Error("volume chart should show its empty message")
	}
	if f.ctrl.TopHospitals.Len() != 0 || f.ctrl.WorstMeasures.Len() != 0 {
		t.Error("tables should be empty")
	}
	if len(f.ctrl.Failures()) != 0 {
		t.Errorf("empty data is not a failure: %v", f.ctrl.Failures())
	}
}

func TestToggleThemeRestylesWithoutFetching(t *testing.T) {
	f := newFixture(t)
	f.settle(f.ctrl.Init())
	before := f.backend.RequestCount()
	donutID := f.ctrl.Charts.Live(charts.SlotDonut).ID()

	if cmd := f.ctrl.Dispatch(ToggleTheme{}); cmd != nil {
		t.Error("theme toggle must not issue commands")
	}

	if f.backend.RequestCount() != before {
		t.Errorf("theme toggle fetched: %d -> %d", before, f.backend.RequestCount())
	}
	dark := theme.PaletteFor(theme.Dark)
	donut := f.ctrl.Charts.Live(charts.SlotDonut).(*charts.Donut)
	if donut.ID() != donutID {
		t.Error("donut was rebuilt")
	}
	if donut.LegendColor() != dark.Text {
		t.Errorf("legend = %s", donut.LegendColor())
	}
	if f.ctrl.Map.Palette().Theme != theme.Dark {
		t.Error("map not restyled")
	}
	if f.store.t != theme.Dark || f.store.saves != 1 {
		t.Errorf("preference not persisted: %+v", f.store)
	}
}

func TestMapSelectionRoutesThroughSetFilter(t *testing.T) {
	f := newFixture(t)
	f.settle(f.ctrl.Init())

	if !f.ctrl.Map.Select("TX") {
		t.Fatal("TX should be selectable")
	}
	f.settle(f.ctrl.Drain())

	if f.ctrl.Filter() != "TX" {
		t.Errorf("filter = %q", f.ctrl.Filter())
	}
	if tiles := f.ctrl.Tiles(); tiles.TotalHospitals != "401" {
		t.Errorf("tiles = %+v", tiles)
	}
	if f.ctrl.Drain() != nil {
		t.Error("queue should be empty after drain")
	}
}

func TestPendingCountdown(t *testing.T) {
	f := newFixture(t)
	kpi := testutil.Run(f.ctrl.SetFilter("CA"))
	if f.ctrl.Pending() != refreshFetches {
		t.Fatalf("pending = %d", f.ctrl.Pending())
	}
	deps, _ := f.ctrl.Handle(kpi[0])
	if f.ctrl.Pending() != refreshFetches-1 {
		t.Errorf("pending after KPI = %d", f.ctrl.Pending())
	}
	for _, msg := range testutil.Run(deps) {
		f.ctrl.Handle(msg)
	}
	if f.ctrl.Pending() != 0 {
		t.Errorf("pending = %d", f.ctrl.Pending())
	}
}

func TestExportPanels(t *testing.T) {
	f := newFixture(t)
	f.settle(f.ctrl.Init())
	f.settle(f.ctrl.SetFilter("CA"))

	path, err := f.ctrl.Export(tables.WorstMeasuresID, "")
	if err != nil {
		t.Fatal(err)
	}
	if path != filepath.Join(f.dir, "worst-measures-table_CA.csv") {
		t.Errorf("path = %s", path)
	}
	file, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()
	_, rows, err := export.ReadCSV(file)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertRows(t, rows, f.ctrl.WorstMeasures.Rows())

	if _, err := f.ctrl.Export("nope", ""); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("err = %v", err)
	}

	paths, err := f.ctrl.ExportAll(export.ExtSVG)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != len(Targets) {
		t.Errorf("exported %d panels: %v", len(paths), paths)
	}
	if _, err := os.Stat(filepath.Join(f.dir, "us-map_CA.svg")); err != nil {
		t.Errorf("map svg missing: %v", err)
	}
}

func TestExportTargetsSkipsEmptyPanels(t *testing.T) {
	f := newFixture(t)
	paths, err := f.ctrl.ExportTargets([]string{string(charts.SlotDonut), tables.TopHospitalsID}, export.ExtPNG)
	if err != nil {
		t.Fatalf("empty panel aborted the export: %v", err)
	}
	want := filepath.Join(f.dir, "top-hospitals-table_national.csv")
	if len(paths) != 1 || paths[0] != want {
		t.Errorf("paths = %v, want [%s]", paths, want)
	}
}

func TestExportFailureOnlySetsStatus(t *testing.T) {
	f := newFixture(t)
	before := f.ctrl.Generation()
	f.ctrl.Dispatch(Export{Target: string(charts.SlotDonut)})
	st := f.ctrl.Status()
	if !errors.Is(st.Err, export.ErrNothingToExport) {
		t.Errorf("status = %+v", st)
	}
	if f.ctrl.Generation() != before || f.backend.RequestCount() != 0 {
		t.Error("export must not refresh")
	}
}

func TestSnapshot(t *testing.T) {
	f := newFixture(t)
	f.settle(f.ctrl.Init())
	f.ctrl.Dispatch(Snapshot{})
	if st := f.ctrl.Status(); st.Err != nil {
		t.Fatalf("snapshot failed: %v", st.Err)
	}
	if _, err := os.Stat(filepath.Join(f.dir, "dashboard_national.sqlite3")); err != nil {
		t.Error(err)
	}
}

func TestRunHeadless(t *testing.T) {
	f := newFixture(t)
	if err := f.ctrl.RunHeadless(context.Background(), "CA"); err != nil {
		t.Fatal(err)
	}
	if tiles := f.ctrl.Tiles(); tiles.TotalHospitals != "350" {
		t.Errorf("tiles = %+v", tiles)
	}
	if !f.ctrl.Map.Rendered() || f.ctrl.StateDetails.Len() != 3 {
		t.Error("page-load datasets missing")
	}
	if got := f.ctrl.Charts.Live(charts.SlotVolume).(*charts.VolumeBar).Baseline().Plain(); got != "15.2" {
		t.Errorf("baseline = %s", got)
	}
	if f.ctrl.Refreshing() {
		t.Error("headless refresh should settle")
	}
}

func TestRunHeadlessCancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := f.ctrl.RunHeadless(ctx, "CA"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestWithRegionScopesFirstRefresh(t *testing.T) {
	b := testutil.NewBackend(t)
	gw, err := gateway.New(config.APIConfig{BaseURL: b.URL(), Timeout: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	ctrl := New(context.Background(), gw, theme.NewController(&memStore{}, nil), WithRegion("TX"))
	testutil.Settle(ctrl.Init(), func(msg tea.Msg) tea.Cmd {
		next, _ := ctrl.Handle(msg)
		return next
	})
	testutil.AssertRequested(t, b, testutil.PathKPIs, "TX")
	testutil.AssertRequested(t, b, testutil.PathStateScores, "")
	if text, _ := ctrl.Indicator(); text != "Showing data for: TX" {
		t.Errorf("indicator = %q", text)
	}
}

func TestReconfigureDropsLatePageLoad(t *testing.T) {
	f := newFixture(t)
	late := testutil.Run(f.ctrl.Init())

	b2 := testutil.NewBackend(t)
	b2.OverrideBody(testutil.PathStateScores, `[{"state":"WA","average_state_score":"12.00"}]`)
	gw2, err := gateway.New(config.APIConfig{BaseURL: b2.URL(), Timeout: 5 * time.Second})
	if err != nil {
		t.Fatal(err)
	}
	f.settle(f.ctrl.Reconfigure(gw2, f.ctrl.ExportConfig()))

	for _, msg := range late {
		if _, ok := msg.(StateScoresMsg); ok {
			f.ctrl.Handle(msg)
		}
	}
	if _, ok := f.ctrl.Map.Summary("WA"); !ok {
		t.Error("reloaded backend's map data was overwritten")
	}
	if _, ok := f.ctrl.Map.Summary("CA"); ok {
		t.Error("late page load from the old backend was applied")
	}
}
