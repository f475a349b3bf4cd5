package dashboard

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vanderheijden86/readmit/pkg/gateway"
	"github.com/vanderheijden86/readmit/pkg/model"
)

// Fetched carries one dataset back into the update loop. Gen is the refresh
// generation that issued the fetch, or for page-load datasets the page-load
// generation. Refreshes never supersede a page load; only a new page load
// (config reload) does.
type Fetched[T any] struct {
	Gen     uint64
	Dataset gateway.Dataset
	Region  model.Region
	Data    T
	Err     error
}

// Result messages, one per dataset.
type (
	KPIMsg           = Fetched[model.MetricRecord]
	PerformanceMsg   = Fetched[[]model.PerformanceCategoryRecord]
	VolumeMsg        = Fetched[[]model.VolumeTierRecord]
	TopHospitalsMsg  = Fetched[[]model.HospitalRankRecord]
	WorstMeasuresMsg = Fetched[[]model.MeasureRecord]
	// StateScoresMsg and StateDetailsMsg share a payload type, so they are
	// distinct named types rather than aliases.
	StateScoresMsg  struct{ Fetched[[]model.StateSummaryRecord] }
	StateDetailsMsg struct{ Fetched[[]model.StateSummaryRecord] }
)

// StatusMsg replaces the status line.
type StatusMsg struct {
	Text string
	Err  error
}

func fetchCmd[T any](ctx context.Context, gen uint64, d gateway.Dataset, region model.Region,
	fn func(context.Context, model.Region) (T, error)) tea.Cmd {
	return func() tea.Msg {
		data, err := fn(ctx, region)
		return Fetched[T]{Gen: gen, Dataset: d, Region: region, Data: data, Err: err}
	}
}

func pageLoadCmd(ctx context.Context, gen uint64, d gateway.Dataset, fn func(context.Context) ([]model.StateSummaryRecord, error),
	wrap func(Fetched[[]model.StateSummaryRecord]) tea.Msg) tea.Cmd {
	return func() tea.Msg {
		data, err := fn(ctx)
		return wrap(Fetched[[]model.StateSummaryRecord]{Gen: gen, Dataset: d, Data: data, Err: err})
	}
}

func wrapScores(f Fetched[[]model.StateSummaryRecord]) tea.Msg  { return StateScoresMsg{f} }
func wrapDetails(f Fetched[[]model.StateSummaryRecord]) tea.Msg { return StateDetailsMsg{f} }
