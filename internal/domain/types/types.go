// Package types contains the output shapes handed to presentation layers.
package types

import (
	"github.com/okian/chatgraph/internal/domain/ranking"
	"github.com/okian/chatgraph/internal/domain/smoothing"
)

// Series is one labelled, day-aligned series.
type Series struct {
	Label  string    `json:"label"`
	Total  float64   `json:"total"`
	Values []float64 `json:"values"`
	Other  bool      `json:"other,omitempty"`
}

// Chart is the full output of a run: Series[i].Values[j] is the smoothed value
// for Days[j]. The Other series is always last.
type Chart struct {
	Title  string   `json:"title,omitempty"`
	Start  string   `json:"start"`
	End    string   `json:"end"`
	Days   []string `json:"days"`
	Series []Series `json:"series"`
}

// NewChart converts a ranking result aligned to w.
func NewChart(title string, w smoothing.Window, res ranking.Result) Chart {
	days := make([]string, w.Len())
	for i := range days {
		days[i] = w.Day(i).String()
	}
	c := Chart{
		Title:  title,
		Start:  w.Start.String(),
		End:    w.End.String(),
		Days:   days,
		Series: make([]Series, 0, len(res.Top)+1),
	}
	for _, e := range res.Top {
		c.Series = append(c.Series, Series{Label: e.Label, Total: e.Total, Values: e.Series})
	}
	c.Series = append(c.Series, Series{
		Label:  res.Other.Label,
		Total:  res.Other.Total,
		Values: res.Other.Series,
		Other:  true,
	})
	return c
}

// Grand returns the sum of all series totals.
func (c Chart) Grand() float64 {
	var total float64
	for _, s := range c.Series {
		total += s.Total
	}
	return total
}
