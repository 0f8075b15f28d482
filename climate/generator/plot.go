package generator

import (
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/zappai-go/zappai/climate"
)

// PlotRollout renders an echarts line chart comparing the historical months
// leading into a rollout against the generated rows themselves, one series
// per variable named. It is a diagnostic aid, not part of any trained or
// served path.
func PlotRollout(w io.Writer, historical, rollout []climate.PastClimateRecord, variables []string) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Climate rollout"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", XAxisIndex: []int{0}}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	labels := make([]string, 0, len(historical)+len(rollout))
	for _, r := range historical {
		labels = append(labels, r.YearMonth.String())
	}
	for _, r := range rollout {
		labels = append(labels, r.YearMonth.String())
	}
	line.SetXAxis(labels)

	markLineOpts := []charts.SeriesOpts{
		charts.WithMarkLineNameXAxisItemOpts(opts.MarkLineNameXAxisItem{XAxis: len(historical)}),
		charts.WithMarkLineStyleOpts(opts.MarkLineStyle{
			Symbol:    []string{"none", "none"},
			Label:     &opts.Label{Show: opts.Bool(false)},
			LineStyle: &opts.LineStyle{Color: "black"},
		}),
	}

	for i, v := range variables {
		series := make([]opts.LineData, 0, len(labels))
		for _, r := range historical {
			series = append(series, opts.LineData{Value: r.Variables[v]})
		}
		for _, r := range rollout {
			series = append(series, opts.LineData{Value: r.Variables[v]})
		}
		if i == 0 {
			line.AddSeries(v, series, markLineOpts...)
			continue
		}
		line.AddSeries(v, series)
	}

	return line.Render(w)
}
