package export

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/stepviz/internal/experiment"
)

const DefaultDPI = 96

// Figure builds the step response plot: the response line, a dashed red
// steady-state line, legend and grid.
func Figure(report *experiment.Report) (*plot.Plot, error) {
	resp := report.Response
	if resp.Len() == 0 {
		return nil, fmt.Errorf("export: empty response")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Step Response of %s System", experiment.SystemTitle(report.Options.System))
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Output"
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, resp.Len())
	for i := range pts {
		pts[i].X = resp.Times[i]
		pts[i].Y = resp.Output[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, err
	}
	line.LineStyle.Width = vg.Points(2)
	line.LineStyle.Color = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}

	ss := report.Metrics.SteadyState
	ref, err := plotter.NewLine(plotter.XYs{
		{X: resp.Times[0], Y: ss},
		{X: resp.Times[resp.Len()-1], Y: ss},
	})
	if err != nil {
		return nil, err
	}
	ref.LineStyle.Color = color.RGBA{R: 0xff, A: 0xff}
	ref.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}

	p.Add(line, ref)
	p.Legend.Add("Step Response", line)
	p.Legend.Add("Steady State", ref)
	p.Legend.Top = true

	return p, nil
}

// WritePNG renders the figure at width by height inches.
func WritePNG(w io.Writer, report *experiment.Report, width, height float64) error {
	p, err := Figure(report)
	if err != nil {
		return err
	}
	if width <= 0 {
		width = 8
	}
	if height <= 0 {
		height = 6
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(width)*vg.Inch, vg.Length(height)*vg.Inch),
		vgimg.UseDPI(DefaultDPI),
	)
	p.Draw(draw.New(c))

	pngc := vgimg.PngCanvas{Canvas: c}
	if _, err := pngc.WriteTo(w); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return nil
}
