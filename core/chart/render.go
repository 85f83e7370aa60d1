// Package chart draws dashboard series as PNG line charts.
package chart

import (
	"fmt"
	"image/color"
	"io"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"incidentdash/core/aggregate"
	"incidentdash/core/dashboard"
	"incidentdash/core/incidents"
)

const (
	DefaultWidthPx  = 640
	DefaultHeightPx = 480
	dpi             = 96
)

var (
	historicalColor = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	predictedColor  = color.RGBA{R: 255, G: 127, B: 14, A: 255}
)

type Options struct {
	WidthPx  int
	HeightPx int
}

func (o Options) size() (vg.Length, vg.Length) {
	w, h := o.WidthPx, o.HeightPx
	if w <= 0 {
		w = DefaultWidthPx
	}
	if h <= 0 {
		h = DefaultHeightPx
	}
	return vg.Length(w) * vg.Inch / dpi, vg.Length(h) * vg.Inch / dpi
}

// Title is the heading shown above the chart.
func Title(data dashboard.ChartData) string {
	q := data.Query
	if data.Projection != nil {
		return fmt.Sprintf("By %s for %s cases, the average %s will be %d",
			incidents.FormatDate(data.Projection.TargetDate), q.Category, q.Field.Title(), data.Projection.Value)
	}
	return fmt.Sprintf("%s cases of type %s by Date", q.Category, q.Field.Title())
}

// Render writes data as a PNG. An empty series still produces a titled plot.
func Render(w io.Writer, data dashboard.ChartData, opts Options) error {
	p, err := build(data)
	if err != nil {
		return err
	}
	width, height := opts.size()
	c := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(dpi))
	p.Draw(draw.New(c))
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(w); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	return nil
}

func build(data dashboard.ChartData) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = Title(data)
	p.X.Label.Text = "Date"
	p.Y.Label.Text = data.Query.Field.Title()
	p.X.Tick.Marker = plot.TimeTicks{Format: incidents.DateLayout}
	p.Add(plotter.NewGrid())
	p.Legend.Top = true

	if len(data.Points) == 0 {
		return p, nil
	}
	history, err := plotter.NewLine(toXYs(data.Points))
	if err != nil {
		return nil, fmt.Errorf("historical line: %w", err)
	}
	history.LineStyle.Color = historicalColor
	history.LineStyle.Width = vg.Points(1.5)
	p.Add(history)
	p.Legend.Add("Historical Data", history)

	if data.Projection == nil {
		return p, nil
	}
	last := data.Points[len(data.Points)-1]
	segment := plotter.XYs{
		{X: unixSeconds(last), Y: last.Value},
		{X: float64(data.Projection.TargetDate.Unix()), Y: float64(data.Projection.Value)},
	}
	predicted, err := plotter.NewLine(segment)
	if err != nil {
		return nil, fmt.Errorf("predicted line: %w", err)
	}
	predicted.LineStyle.Color = predictedColor
	predicted.LineStyle.Width = vg.Points(1.5)
	predicted.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	marker, err := plotter.NewScatter(segment[1:])
	if err != nil {
		return nil, fmt.Errorf("predicted marker: %w", err)
	}
	marker.GlyphStyle.Color = predictedColor
	marker.GlyphStyle.Radius = vg.Points(3)
	marker.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(predicted, marker)
	p.Legend.Add("Predicted Data", predicted)
	return p, nil
}

func toXYs(points []aggregate.Point) plotter.XYs {
	xys := make(plotter.XYs, len(points))
	for i, pt := range points {
		xys[i].X = unixSeconds(pt)
		xys[i].Y = pt.Value
	}
	return xys
}

func unixSeconds(pt aggregate.Point) float64 {
	return float64(pt.Date.Unix())
}
