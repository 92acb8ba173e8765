package viz

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/KaramelBytes/quickeda-cli/internal/result"
	json "github.com/goccy/go-json"
)

// plotlyCDN is the script the generated pages load Plotly from.
const plotlyCDN = "https://cdn.plot.ly/plotly-2.35.2.min.js"

// InteractiveBackend emits standalone HTML pages that draw a Plotly figure
// in the browser, with zoom, hover and pan.
type InteractiveBackend struct {
	ScriptURL string
}

func NewInteractiveBackend() *InteractiveBackend {
	return &InteractiveBackend{ScriptURL: plotlyCDN}
}

func (b *InteractiveBackend) Name() string { return Interactive }

type plotlyTrace struct {
	Type   string `json:"type"`
	Mode   string `json:"mode,omitempty"`
	Name   string `json:"name,omitempty"`
	X      any    `json:"x,omitempty"`
	Y      any    `json:"y,omitempty"`
	NBinsX int    `json:"nbinsx,omitempty"`
}

type plotlyText struct {
	Text string `json:"text"`
}

type plotlyAxis struct {
	Title plotlyText `json:"title"`
}

type plotlyAnnotation struct {
	Text      string  `json:"text"`
	XRef      string  `json:"xref"`
	YRef      string  `json:"yref"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	XAnchor   string  `json:"xanchor"`
	ShowArrow bool    `json:"showarrow"`
	Align     string  `json:"align"`
}

type plotlyLayout struct {
	Title       plotlyText         `json:"title"`
	XAxis       plotlyAxis         `json:"xaxis"`
	YAxis       plotlyAxis         `json:"yaxis"`
	BarMode     string             `json:"barmode,omitempty"`
	Annotations []plotlyAnnotation `json:"annotations,omitempty"`
}

type plotlyFigure struct {
	Data   []plotlyTrace `json:"data"`
	Layout plotlyLayout  `json:"layout"`
}

func (b *InteractiveBackend) Render(kind Kind, data Data, annotations ...result.StatResult) (*Handle, error) {
	if err := validate(kind, data); err != nil {
		return nil, fmt.Errorf("%s backend: %w", Interactive, err)
	}
	fig := plotlyFigure{Layout: plotlyLayout{
		Title: plotlyText{Text: data.Title},
		XAxis: plotlyAxis{Title: plotlyText{Text: data.XLabel}},
		YAxis: plotlyAxis{Title: plotlyText{Text: data.YLabel}},
	}}
	switch kind {
	case Scatter:
		fig.Data = append(fig.Data, plotlyTrace{Type: "scatter", Mode: "markers", Name: "observations", X: jsonFloats(data.X), Y: jsonFloats(data.Y)})
		if data.Fit != nil {
			lo, hi := bounds(data.X)
			fig.Data = append(fig.Data, plotlyTrace{
				Type: "scatter", Mode: "lines", Name: "fit",
				X: jsonFloats([]float64{lo, hi}),
				Y: jsonFloats([]float64{data.Fit.Intercept + data.Fit.Slope*lo, data.Fit.Intercept + data.Fit.Slope*hi}),
			})
		}
	case BarChart:
		for _, s := range data.Series {
			fig.Data = append(fig.Data, plotlyTrace{Type: "bar", Name: s.Name, X: data.Categories, Y: jsonFloats(s.Values)})
		}
		fig.Layout.BarMode = "group"
	case Histogram:
		fig.Data = append(fig.Data, plotlyTrace{Type: "histogram", Name: data.XLabel, X: jsonFloats(data.Values), NBinsX: data.Bins})
		if fig.Layout.YAxis.Title.Text == "" {
			fig.Layout.YAxis.Title.Text = "count"
		}
	}

	h := newHandle(Interactive, kind, data, "text/html", ".html", nil, annotations)
	if len(h.Annotations) > 0 {
		fig.Layout.Annotations = []plotlyAnnotation{{
			Text: strings.Join(h.Annotations, "<br>"), XRef: "paper", YRef: "paper",
			X: 0, Y: 1.12, XAnchor: "left", Align: "left",
		}}
	}
	payload, err := json.Marshal(fig)
	if err != nil {
		return nil, fmt.Errorf("encode figure: %w", err)
	}
	h.Content = []byte(fmt.Sprintf(pageTemplate, html.EscapeString(data.Title), b.ScriptURL, h.ID, h.ID, payload))
	return h, nil
}

// jsonFloats maps non-finite values to null, which JSON cannot carry as numbers.
func jsonFloats(vals []float64) []any {
	out := make([]any, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		out[i] = v
	}
	return out
}

const pageTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<script src="%s"></script>
</head>
<body>
<div id="plot-%s" style="width:100%%;height:560px;"></div>
<script>
(function(){var fig=%[5]s;Plotly.newPlot("plot-%[4]s",fig.data,fig.layout,{responsive:true});})();
</script>
</body>
</html>
`
