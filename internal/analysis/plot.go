package analysis

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"mad-dla/internal/sims/dla"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Plot dimensions for growth curves.
const (
	PlotWidth  = 8 * vg.Inch
	PlotHeight = 6 * vg.Inch
)

// GrowthPoints returns (radius, index) pairs for events with a defined
// point estimate, suitable for log-log axes.
func GrowthPoints(events []dla.StickEvent) plotter.XYs {
	pts := make(plotter.XYs, 0, len(events))
	for _, ev := range events {
		if _, ok := ev.FractalDimension(); !ok {
			continue
		}
		pts = append(pts, plotter.XY{X: ev.ClusterRadius, Y: float64(ev.Index)})
	}
	return pts
}

// GrowthPlot builds a log-log plot of particle index against cluster
// radius. A non-nil fit adds its power law as a line.
func GrowthPlot(title string, events []dla.StickEvent, fit *Fit) (*plot.Plot, error) {
	pts := GrowthPoints(events)
	if len(pts) == 0 {
		return nil, ErrTooFewSamples
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Cluster radius"
	p.Y.Label.Text = "Particles"
	p.X.Scale = plot.LogScale{}
	p.Y.Scale = plot.LogScale{}
	p.X.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, err
	}
	scatter.GlyphStyle.Radius = vg.Points(1.5)
	scatter.GlyphStyle.Color = color.RGBA{R: 30, G: 90, B: 200, A: 255}
	p.Add(scatter)
	p.Legend.Add("stuck particles", scatter)

	if fit != nil {
		lo, hi := radiusRange(pts)
		line, err := plotter.NewLine(plotter.XYs{
			{X: lo, Y: math.Exp(fit.Intercept) * math.Pow(lo, fit.Dimension)},
			{X: hi, Y: math.Exp(fit.Intercept) * math.Pow(hi, fit.Dimension)},
		})
		if err != nil {
			return nil, err
		}
		line.Color = color.RGBA{R: 200, G: 40, B: 40, A: 255}
		line.Width = vg.Points(1)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("D = %.3f", fit.Dimension), line)
	}

	p.Legend.Top = true
	p.Legend.Left = true
	p.Legend.XOffs = 10
	p.Legend.YOffs = -10
	return p, nil
}

// WriteGrowthPlot renders the growth plot to w in the given format
// ("png", "svg", "pdf" or "eps").
func WriteGrowthPlot(w io.Writer, format, title string, events []dla.StickEvent, fit *Fit) error {
	p, err := GrowthPlot(title, events, fit)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(PlotWidth, PlotHeight, format)
	if err != nil {
		return err
	}
	_, err = wt.WriteTo(w)
	return err
}

// SaveGrowthPlot writes the growth plot to file; the format follows the
// file extension.
func SaveGrowthPlot(file, title string, events []dla.StickEvent, fit *Fit) error {
	p, err := GrowthPlot(title, events, fit)
	if err != nil {
		return err
	}
	return p.Save(PlotWidth, PlotHeight, file)
}

func radiusRange(pts plotter.XYs) (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, pt := range pts {
		lo = math.Min(lo, pt.X)
		hi = math.Max(hi, pt.X)
	}
	return lo, hi
}
