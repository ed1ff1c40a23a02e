package sim

import (
	"fmt"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// NewPlot creates new time series plot of a single signal from the three data sources:
// truth:    true signal values
// measure:  measurement values
// filtered: filter values
// Sample k is plotted at time k*dt.
// It returns error if the plot fails to be created. This can be due to either of the following conditions:
// * dt is not positive
// * either of the supplied series is empty or the series differ in length
// * gonum plot fails to be created
func NewPlot(title string, dt float64, truth, measure, filtered []float64) (*plot.Plot, error) {
	if dt <= 0 {
		return nil, fmt.Errorf("invalid sampling period: %f", dt)
	}

	n := len(truth)
	if n == 0 || len(measure) != n || len(filtered) != n {
		return nil, fmt.Errorf("invalid data dimensions: %d, %d, %d", len(truth), len(measure), len(filtered))
	}

	p := plot.New()

	p.Title.Text = title
	p.X.Label.Text = "t"
	p.Y.Label.Text = "value"

	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	// Make a line plotter for true signal
	truthLine, err := plotter.NewLine(makePoints(truth, dt))
	if err != nil {
		return nil, err
	}
	truthLine.LineStyle.Color = color.RGBA{R: 255, B: 128, A: 255}
	truthLine.LineStyle.Width = vg.Points(1)

	p.Add(truthLine)
	p.Legend.Add("truth", truthLine)

	// Make a scatter plotter for measurement data
	measScatter, err := plotter.NewScatter(makePoints(measure, dt))
	if err != nil {
		return nil, err
	}
	measScatter.GlyphStyle.Color = color.RGBA{G: 255, A: 128}
	measScatter.GlyphStyle.Radius = vg.Points(2)

	p.Add(measScatter)
	p.Legend.Add("measurement", measScatter)

	// Make a scatter plotter for filter data
	filterScatter, err := plotter.NewScatter(makePoints(filtered, dt))
	if err != nil {
		return nil, fmt.Errorf("failed to create scatter: %w", err)
	}
	filterScatter.GlyphStyle.Color = color.RGBA{R: 169, G: 169, B: 169, A: 255}
	filterScatter.Shape = draw.CrossGlyph{}
	filterScatter.GlyphStyle.Radius = vg.Points(2)

	p.Add(filterScatter)
	p.Legend.Add("filtered", filterScatter)

	return p, nil
}

func makePoints(vals []float64, dt float64) plotter.XYs {
	pts := make(plotter.XYs, len(vals))
	for i, v := range vals {
		pts[i].X = float64(i) * dt
		pts[i].Y = v
	}

	return pts
}
