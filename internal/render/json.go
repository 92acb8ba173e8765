package render

import (
	"math"

	"github.com/KaramelBytes/quickeda-cli/internal/analysis"
	"github.com/KaramelBytes/quickeda-cli/internal/result"
	"github.com/KaramelBytes/quickeda-cli/internal/utils"
)

// JSON cannot carry NaN or infinities. Non-finite statistics are emitted as
// null with their display form kept in the "display" map.

type summaryDTO struct {
	ID           string        `json:"id"`
	Source       string        `json:"source,omitempty"`
	Rows         int           `json:"rows"`
	Target       string        `json:"target,omitempty"`
	Backend      string        `json:"backend"`
	Schema       []columnDTO   `json:"schema"`
	Univariate   []statDTO     `json:"univariate,omitempty"`
	Bivariate    []statDTO     `json:"bivariate,omitempty"`
	VIF          []statDTO     `json:"vif,omitempty"`
	Stepwise     *selectionDTO `json:"stepwise,omitempty"`
	Model        *modelDTO     `json:"model,omitempty"`
	Plots        []plotDTO     `json:"plots,omitempty"`
	Warnings     []string      `json:"warnings,omitempty"`
	ElapsedMilli int64         `json:"elapsed_ms"`
}

type columnDTO struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Unit    string `json:"unit,omitempty"`
	Missing int    `json:"missing"`
}

type statDTO struct {
	Columns     []string            `json:"columns"`
	Kind        string              `json:"kind"`
	Test        string              `json:"test,omitempty"`
	Marker      string              `json:"marker,omitempty"`
	Reason      string              `json:"reason,omitempty"`
	Values      map[string]*float64 `json:"values,omitempty"`
	Labels      map[string]string   `json:"labels,omitempty"`
	Display     map[string]string   `json:"display,omitempty"`
	Frequencies []frequencyDTO      `json:"frequencies,omitempty"`
	Groups      []groupDTO          `json:"groups,omitempty"`
	Comparisons []comparisonDTO     `json:"comparisons,omitempty"`
}

type frequencyDTO struct {
	Value string  `json:"value"`
	Count int     `json:"count"`
	Share float64 `json:"share"`
	Other bool    `json:"other,omitempty"`
}

type groupDTO struct {
	Name string   `json:"name"`
	N    int      `json:"n"`
	Mean *float64 `json:"mean"`
	Std  *float64 `json:"std"`
}

type comparisonDTO struct {
	A           string   `json:"a"`
	B           string   `json:"b"`
	T           *float64 `json:"t"`
	PValue      *float64 `json:"p_value"`
	Threshold   float64  `json:"threshold"`
	Significant bool     `json:"significant"`
}

type stepDTO struct {
	Index    int      `json:"index"`
	Action   string   `json:"action"`
	Feature  string   `json:"feature,omitempty"`
	Features []string `json:"features"`
	Score    *float64 `json:"score"`
}

type selectionDTO struct {
	Direction string    `json:"direction"`
	Criterion string    `json:"criterion"`
	Features  []string  `json:"features"`
	Excluded  []string  `json:"excluded,omitempty"`
	Rows      int       `json:"rows"`
	History   []stepDTO `json:"history"`
}

type coefficientDTO struct {
	Name     string   `json:"name"`
	Estimate *float64 `json:"estimate"`
	StdErr   *float64 `json:"std_err"`
	T        *float64 `json:"t"`
	PValue   *float64 `json:"p_value"`
}

type modelDTO struct {
	Target       string           `json:"target"`
	Features     []string         `json:"features"`
	N            int              `json:"n"`
	Coefficients []coefficientDTO `json:"coefficients"`
	R2           *float64         `json:"r_squared"`
	AdjR2        *float64         `json:"adj_r_squared"`
	F            *float64         `json:"f_stat"`
	FPValue      *float64         `json:"f_p_value"`
	AIC          *float64         `json:"aic"`
	BIC          *float64         `json:"bic"`
}

type plotDTO struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Kind    string `json:"kind"`
	Backend string `json:"backend"`
	Path    string `json:"path,omitempty"`
}

// JSONReport encodes the summary as indented JSON.
func JSONReport(s *analysis.Summary, opt Options) ([]byte, error) {
	return utils.PrettyJSON(toDTO(s, opt))
}

func toDTO(s *analysis.Summary, opt Options) summaryDTO {
	out := summaryDTO{
		ID:           s.ID,
		Source:       s.Source,
		Rows:         s.Rows,
		Target:       s.Target,
		Backend:      s.Backend,
		Warnings:     s.Warnings,
		ElapsedMilli: s.Elapsed.Milliseconds(),
	}
	for _, c := range s.Schema {
		out.Schema = append(out.Schema, columnDTO{Name: c.Name, Kind: c.Kind.String(), Unit: c.Unit, Missing: c.Missing})
	}
	out.Univariate = statsOf(s.Univariate)
	out.Bivariate = statsOf(s.Bivariate)
	for _, rep := range []*analysis.Report{s.Univariate, s.Bivariate} {
		if rep == nil {
			continue
		}
		for _, h := range rep.Plots() {
			out.Plots = append(out.Plots, plotDTO{
				ID: h.ID, Title: h.Title, Kind: string(h.Kind), Backend: h.Backend, Path: opt.PlotPaths[h.ID],
			})
		}
	}
	if mv := s.Multivariate; mv != nil {
		out.VIF = statsOf(mv.VIF)
		if sel := mv.Selection; sel != nil {
			d := &selectionDTO{
				Direction: sel.Direction, Criterion: sel.Criterion, Features: nonNil(sel.Features),
				Excluded: sel.Excluded, Rows: sel.Rows,
			}
			for _, st := range sel.History {
				d.History = append(d.History, stepDTO{
					Index: st.Index, Action: st.Action, Feature: st.Feature,
					Features: nonNil(st.Features), Score: finite(st.Score),
				})
			}
			out.Stepwise = d
		}
		if m := mv.Model; m != nil {
			d := &modelDTO{
				Target: m.Target, Features: nonNil(m.Features), N: m.N,
				R2: finite(m.R2), AdjR2: finite(m.AdjR2), F: finite(m.F), FPValue: finite(m.FPValue),
				AIC: finite(m.AIC), BIC: finite(m.BIC),
			}
			for _, c := range m.Coefficients {
				d.Coefficients = append(d.Coefficients, coefficientDTO{
					Name: c.Name, Estimate: finite(c.Estimate), StdErr: finite(c.StdErr),
					T: finite(c.T), PValue: finite(c.PValue),
				})
			}
			out.Model = d
		}
	}
	return out
}

func statsOf(rep *analysis.Report) []statDTO {
	if rep == nil {
		return nil
	}
	out := make([]statDTO, 0, rep.Len())
	for _, r := range rep.Results() {
		d := statDTO{
			Columns: r.Columns(),
			Kind:    r.Kind().String(),
			Test:    r.Test(),
			Marker:  string(r.Marker()),
			Reason:  r.Reason(),
		}
		for _, f := range r.Frequencies() {
			d.Frequencies = append(d.Frequencies, frequencyDTO{Value: f.Value, Count: f.Count, Share: f.Share, Other: f.Other})
		}
		for _, name := range r.Names() {
			if v, ok := r.Num(name); ok {
				if d.Values == nil {
					d.Values = map[string]*float64{}
				}
				d.Values[name] = finite(v)
				if d.Values[name] == nil {
					if d.Display == nil {
						d.Display = map[string]string{}
					}
					d.Display[name] = result.FormatNum(v)
				}
				continue
			}
			if v, ok := r.Label(name); ok {
				if d.Labels == nil {
					d.Labels = map[string]string{}
				}
				d.Labels[name] = v
			}
		}
		for _, g := range r.Groups() {
			d.Groups = append(d.Groups, groupDTO{Name: g.Name, N: g.N, Mean: finite(g.Mean), Std: finite(g.Std)})
		}
		for _, c := range r.Comparisons() {
			d.Comparisons = append(d.Comparisons, comparisonDTO{
				A: c.A, B: c.B, T: finite(c.T), PValue: finite(c.PValue),
				Threshold: c.Threshold, Significant: c.Significant,
			})
		}
		out = append(out, d)
	}
	return out
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}
