package dashboard

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vanderheijden86/readmit/pkg/debug"
	"github.com/vanderheijden86/readmit/pkg/gateway"
	"github.com/vanderheijden86/readmit/pkg/model"
	"golang.org/x/sync/errgroup"
)

// RunHeadless performs the page load and one refresh for region without a
// terminal, for non-interactive export. All seven fetches run at once;
// their results are applied on the calling goroutine through the same path
// the TUI uses, KPI first so the volume chart gets its baseline. Dataset
// failures are recorded in Failures, not returned; the error is non-nil
// only when ctx ends first.
func (c *Controller) RunHeadless(ctx context.Context, region model.Region) error {
	defer debug.LogEnterExit("headless refresh " + region.Label())()
	scores, details := c.pageLoads(ctx)
	kpi := c.SetFilter(region)
	gen := c.generation

	cmds := []tea.Cmd{
		kpi,
		fetchCmd(ctx, gen, gateway.DatasetPerformance, region, c.gw.FetchPerformance),
		fetchCmd(ctx, gen, gateway.DatasetVolume, region, c.gw.FetchVolume),
		fetchCmd(ctx, gen, gateway.DatasetTopHospitals, region, c.gw.FetchTopHospitals),
		fetchCmd(ctx, gen, gateway.DatasetWorstMeasures, region, c.gw.FetchWorstMeasures),
		scores,
		details,
	}
	results := make([]tea.Msg, len(cmds))

	g, gctx := errgroup.WithContext(ctx)
	for i, cmd := range cmds {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = cmd()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("headless refresh: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("headless refresh: %w", err)
	}

	for _, msg := range results {
		// The KPI handler's follow-up re-issues the dependents already
		// fetched above, so it is dropped.
		c.Handle(msg)
	}
	return nil
}
