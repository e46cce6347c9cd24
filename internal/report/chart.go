package report

import (
	"context"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/go-echarts/go-echarts/v2/types"

	"github.com/guimove/powerfit/internal/model"
)

// ChartReporter renders an HTML page: per-host utilization and power of the
// best placement, total power per strategy, and the optimizer's convergence.
type ChartReporter struct {
	w io.Writer
}

func (r *ChartReporter) Report(ctx context.Context, recs []model.Recommendation, meta ReportMeta) error {
	if len(recs) == 0 {
		return fmt.Errorf("no placements to chart")
	}

	page := components.NewPage()
	page.PageTitle = "PowerFit"
	page.AddCharts(hostChart(recs[0].Placement))

	if len(recs) > 1 {
		page.AddCharts(strategyChart(recs))
	}
	for _, rec := range recs {
		if len(rec.Placement.History) > 0 {
			page.AddCharts(historyChart(rec.Placement))
		}
	}

	if err := page.Render(r.w); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}

func globalOpts(title, xName, yName string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithInitializationOpts(opts.Initialization{Theme: types.ThemeWesteros}),
		charts.WithXAxisOpts(opts.XAxis{Name: xName}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:      yName,
			SplitLine: &opts.SplitLine{Show: opts.Bool(true)},
		}),
	}
}

func hostChart(p model.Placement) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOpts(fmt.Sprintf("%s: utilization and power per host", p.Strategy), "host", "")...)

	names := make([]string, len(p.Hosts))
	util := make([]opts.BarData, len(p.Hosts))
	power := make([]opts.BarData, len(p.Hosts))
	for i, hr := range p.Hosts {
		names[i] = hr.HostID
		util[i] = opts.BarData{Value: round2(hr.Utilization * 100)}
		power[i] = opts.BarData{Value: round2(hr.PowerWatts)}
	}

	bar.SetXAxis(names).
		AddSeries("Utilization (%)", util).
		AddSeries("Power (W)", power)
	return bar
}

func strategyChart(recs []model.Recommendation) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOpts("Total power by strategy", "strategy", "W")...)

	names := make([]string, len(recs))
	power := make([]opts.BarData, len(recs))
	for i, rec := range recs {
		names[i] = rec.Placement.Strategy
		power[i] = opts.BarData{Value: round2(rec.Placement.TotalPowerWatts)}
	}

	bar.SetXAxis(names).AddSeries("Total power (W)", power)
	return bar
}

func historyChart(p model.Placement) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(globalOpts(fmt.Sprintf("%s: best power per generation", p.Strategy), "generation", "W")...)

	gens := make([]string, len(p.History))
	data := make([]opts.LineData, len(p.History))
	for i, w := range p.History {
		gens[i] = fmt.Sprintf("%d", i)
		data[i] = opts.LineData{Value: round2(w)}
	}

	line.SetXAxis(gens).AddSeries("Best power (W)", data)
	return line
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
