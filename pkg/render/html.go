package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/linetrend/pkg/linecount"
)

const (
	dataZoomEndPercent = 100
	htmlChartHeight    = "500px"
	lineColor          = "#5470c6"
	areaOpacity        = 0.15
)

// HTML writes a standalone page with an interactive line chart of series.
// X axis labels are the short commit hashes in series order.
func HTML(w io.Writer, series *linecount.Series, title string) error {
	bounds := series.Bounds()

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     "100%",
			Height:    htmlChartHeight,
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%d commits, peak %d lines", series.Len(), bounds.YMax),
			Left:     "center",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithDataZoomOpts(
			opts.DataZoom{Type: "slider", Start: 0, End: dataZoomEndPercent},
			opts.DataZoom{Type: "inside"},
		),
		charts.WithXAxisOpts(opts.XAxis{Name: "commit"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "lines"}),
	)

	labels := make([]string, series.Len())
	data := make([]opts.LineData, series.Len())

	for i, e := range series.Entries {
		labels[i] = e.Commit.Short()
		data[i] = opts.LineData{Value: e.Lines, Name: e.When.Format("2006-01-02 15:04")}
	}

	line.SetXAxis(labels)
	line.AddSeries("lines", data,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: lineColor}),
		charts.WithLineStyleOpts(opts.LineStyle{Color: lineColor}),
		charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(areaOpacity)}),
	)

	err := line.Render(w)
	if err != nil {
		return fmt.Errorf("render html chart: %w", err)
	}

	return nil
}
