package viz

import (
	"errors"
	"fmt"
	"sort"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/stepviz/internal/experiment"
)

var ErrNoSamples = errors.New("viz: no samples to plot")

// Chart plots the response and a flat steady-state reference.
func Chart(report *experiment.Report, width, height int, theme Theme) (string, error) {
	if report == nil || report.Response.Len() < 2 {
		return "", ErrNoSamples
	}
	if width < 2 {
		width = 2
	}
	if height < 2 {
		height = 2
	}

	resp := report.Response
	_, series := Resample(resp.Times, resp.Output, width)
	ref := make([]float64, len(series))
	for i := range ref {
		ref[i] = report.Metrics.SteadyState
	}

	caption := fmt.Sprintf("Step Response of %s System  (t = 0..%.2f s)",
		experiment.SystemTitle(report.Options.System), resp.Times[resp.Len()-1])

	return asciigraph.PlotMany([][]float64{series, ref},
		asciigraph.Height(height),
		asciigraph.Width(width),
		asciigraph.Precision(2),
		asciigraph.Caption(caption),
		asciigraph.SeriesColors(theme.Line, theme.Reference),
	), nil
}

// Resample linearly interpolates values onto n uniformly spaced times
// covering the same span. times must be increasing.
func Resample(times, values []float64, n int) ([]float64, []float64) {
	if len(times) == 0 || n <= 0 || len(times) != len(values) {
		return nil, nil
	}
	if len(times) == 1 || n == 1 {
		return []float64{times[0]}, []float64{values[0]}
	}

	start, end := times[0], times[len(times)-1]
	outT := make([]float64, n)
	outV := make([]float64, n)
	for i := range outT {
		t := start + (end-start)*float64(i)/float64(n-1)
		if i == n-1 {
			t = end
		}
		outT[i] = t

		j := sort.SearchFloat64s(times, t)
		switch {
		case j == 0:
			outV[i] = values[0]
		case j >= len(times):
			outV[i] = values[len(values)-1]
		default:
			t0, t1 := times[j-1], times[j]
			frac := (t - t0) / (t1 - t0)
			outV[i] = values[j-1] + frac*(values[j]-values[j-1])
		}
	}
	return outT, outV
}
