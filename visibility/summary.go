package visibility

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hupe1980/pointview/field"
)

// FilterDescription describes one active filter.
type FilterDescription struct {
	Ref  field.Ref
	Name string
	Kind string
	Text string
}

func (d FilterDescription) String() string {
	return d.Name + ": " + d.Text
}

// Summary lists the active filters of in in evaluation order.
func Summary(in Input) []FilterDescription {
	var out []FilterDescription

	describe := func(f *field.Field) {
		if !f.IsFiltering() {
			return
		}
		d := FilterDescription{Ref: f.Ref(), Name: f.Key, Kind: f.Kind.String()}
		if f.Kind == field.KindCategory {
			var hidden []string
			for i, v := range f.Categorical.Visible {
				if !v && i < len(f.Categories) {
					hidden = append(hidden, f.Categories[i])
				}
			}
			d.Text = fmt.Sprintf("hiding %s (%d of %d)", strings.Join(hidden, ", "), len(hidden), len(f.Categories))
		} else {
			r := f.Continuous.Filter
			d.Text = fmt.Sprintf("[%s, %s]", formatFloat(r.Min), formatFloat(r.Max))
		}
		out = append(out, d)
	}

	inObs := false
	for _, f := range in.Obs {
		if f == in.Active {
			inObs = true
		}
		describe(f)
	}
	if in.Active != nil && !inObs {
		describe(in.Active)
	}
	if a := in.Active; a != nil && a.OutlierFilterActive() {
		out = append(out, FilterDescription{
			Ref:  a.Ref(),
			Name: a.Key,
			Kind: "outlier",
			Text: "quantile <= " + formatFloat(a.Continuous.OutlierThreshold),
		})
	}
	return out
}

// FormatSummary joins the descriptions into one line. It returns "" when no filter applies.
func FormatSummary(ds []FilterDescription) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = d.String()
	}
	return strings.Join(parts, "; ")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
