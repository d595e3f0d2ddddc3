// Package render writes a chart as a stacked area HTML page or as JSON.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/okian/chatgraph/internal/domain/types"
)

// Formats accepted by Write.
const (
	FormatHTML = "html"
	FormatJSON = "json"
)

// StdoutPath selects standard output in ToFile.
const StdoutPath = "-"

const (
	areaOpacity = 0.8
	otherColor  = "#b0b0b0"
	fullZoomPct = 100
)

// Line builds the stacked area chart. Series keep their ranking order, so the
// largest contributor sits at the bottom of the stack and Other on top.
func Line(c types.Chart) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: c.Title, Width: "1400px", Height: "800px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    c.Title,
			Subtitle: fmt.Sprintf("%s to %s", c.Start, c.End),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Top: "5px"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider", Start: 0, End: fullZoomPct}, opts.DataZoom{Type: "inside"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Date"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Activity"}),
	)
	line.SetXAxis(c.Days)

	for _, s := range c.Series {
		data := make([]opts.LineData, len(s.Values))
		for i, v := range s.Values {
			data[i] = opts.LineData{Value: v}
		}
		seriesOpts := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{Stack: "total", ShowSymbol: opts.Bool(false)}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Opacity: opts.Float(areaOpacity)}),
		}
		if s.Other {
			seriesOpts = append(seriesOpts, charts.WithItemStyleOpts(opts.ItemStyle{Color: otherColor}))
		}
		line.AddSeries(s.Label, data, seriesOpts...)
	}
	return line
}

// HTML renders c as a self-contained page.
func HTML(w io.Writer, c types.Chart) error {
	if err := Line(c).Render(w); err != nil {
		return fmt.Errorf("%w: html: %w", ErrRender, err)
	}
	return nil
}

// JSON writes c as indented JSON.
func JSON(w io.Writer, c types.Chart) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(c); err != nil {
		return fmt.Errorf("%w: json: %w", ErrRender, err)
	}
	return nil
}

// Write renders c in format.
func Write(w io.Writer, format string, c types.Chart) error {
	switch format {
	case FormatHTML, "":
		return HTML(w, c)
	case FormatJSON:
		return JSON(w, c)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// ToFile renders c into path, or to stdout when path is StdoutPath.
func ToFile(path, format string, c types.Chart) (err error) {
	if path == StdoutPath {
		return Write(os.Stdout, format, c)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRender, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", ErrRender, cerr)
		}
	}()
	return Write(f, format, c)
}
