// Package swarmplot draws the two-group swarm figure for a normalized plate:
// every replicate as a point, the group means with standard error whiskers,
// and a bracket carrying the significance marker of the group comparison.
package swarmplot

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/carbocation/mttscreen/plate"
	"github.com/carbocation/mttscreen/ttest"
	"github.com/carbocation/pfx"
	"github.com/carbocation/runningvariance"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
)

// PlotDir is the subdirectory of Options.Dir that receives the figures.
const PlotDir = "plots"

// Figure geometry, in inches and points.
const (
	FigureWidth  = 3 * vg.Inch
	FigureHeight = 4 * vg.Inch

	markerDiameter = 6.0
	meanHalfWidth  = 0.25
	capWidth       = 0.24

	// Approximate extent of the data area once axes and labels are laid
	// out. Only used to keep swarm markers from touching.
	dataWidthPoints  = 156.0
	dataHeightPoints = 216.0

	previewDPI = 300
)

// Palette holds the fill colors of the untreated and treated groups.
var Palette = [2]color.RGBA{
	{R: 0x77, G: 0x77, B: 0x77, A: 0xff},
	{R: 0xE6, G: 0x4B, B: 0x35, A: 0xff},
}

// Options controls where the figure goes and which side outputs are made.
type Options struct {
	// Dir is the directory under which PlotDir is created. Empty means the
	// working directory.
	Dir string

	// Preview also writes a PNG rendering next to the PDF.
	Preview bool

	// Display, when non-nil, receives a terminal rendering of both groups
	// and the significance marker.
	Display io.Writer
}

// Path returns the location of the PDF written for fileName.
func (o Options) Path(fileName string) string {
	return filepath.Join(o.Dir, PlotDir, fileName+".pdf")
}

// Group summarizes one plotted category.
type Group struct {
	Name   string
	Values []float64
	Mean   float64
	SEM    float64
	N      int
}

// Summarize computes the mean and standard error of the mean over the
// finite values. SEM is 0 when fewer than two values are present.
func Summarize(name string, values []float64) Group {
	rv := runningvariance.NewRunningStat()
	for _, v := range values {
		if !finite(v) {
			continue
		}
		rv.Push(v)
	}

	out := Group{Name: name, Values: values, Mean: math.NaN(), N: int(rv.N)}
	if out.N > 0 {
		out.Mean = rv.Mean()
	}
	if out.N > 1 {
		out.SEM = rv.StandardDeviation() / math.Sqrt(float64(out.N))
	}

	return out
}

// Annotate draws cols of dataset as a swarm plot annotated with the
// significance of result, and saves it as <Dir>/plots/<fileName>.pdf.
func Annotate(dataset *plate.Normalized, cols [2]string, result ttest.Result, yLabel, fileName string, opts Options) error {
	groups := make([]Group, 0, len(cols))
	for _, col := range cols {
		values, err := dataset.Column(col)
		if err != nil {
			return err
		}
		groups = append(groups, Summarize(col, values))
	}

	marker := Significance(result.PValue)

	p, err := newFigure(groups, marker, yLabel)
	if err != nil {
		return pfx.Err(fmt.Errorf("%s: %w", fileName, err))
	}

	if err := os.MkdirAll(filepath.Join(opts.Dir, PlotDir), 0755); err != nil {
		return pfx.Err(err)
	}

	if err := savePDF(p, opts.Path(fileName)); err != nil {
		return err
	}

	if opts.Preview {
		if err := savePNG(p, filepath.Join(opts.Dir, PlotDir, fileName+".png")); err != nil {
			return err
		}
	}

	if opts.Display != nil {
		if err := Display(opts.Display, groups, marker, result.PValue); err != nil {
			return err
		}
	}

	return nil
}

func newFigure(groups []Group, marker, yLabel string) (*plot.Plot, error) {
	// yMax is NaN when no value is finite, for example after normalizing by
	// a zero untreated mean. The figure is then drawn without points or
	// bracket.
	yMax := finiteMax(groups)

	p := plot.New()

	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	p.NominalX(names...)

	// NominalX hides the axis line; keep the bottom spine.
	p.X.Width = vg.Points(0.5)
	p.X.Tick.Label.Font.Size = vg.Points(12)
	p.X.Tick.Label.Rotation = math.Pi * 35 / 180
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YTop

	p.Y.Label.Text = yLabel
	p.Y.Label.TextStyle.Font.Size = vg.Points(14)

	yPerPoint := figureSpan(groups, yMax) / dataHeightPoints
	xPerPoint := 2.0 / dataWidthPoints

	for i, g := range groups {
		offsets := SwarmOffsets(g.Values, yPerPoint, xPerPoint, markerDiameter)

		pts := make(plotter.XYs, 0, len(g.Values))
		for j, v := range g.Values {
			if !finite(v) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(i) + offsets[j], Y: v})
		}
		if len(pts) == 0 {
			continue
		}

		s, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, err
		}
		s.GlyphStyle = draw.GlyphStyle{
			Color:  Palette[i%len(Palette)],
			Radius: vg.Points(markerDiameter / 2),
			Shape:  draw.CircleGlyph{},
		}
		p.Add(s)
	}

	black := draw.LineStyle{Color: color.Black, Width: vg.Points(1)}

	for i, g := range groups {
		if g.N == 0 {
			continue
		}

		bars, err := plotter.NewYErrorBars(struct {
			plotter.XYs
			plotter.YErrors
		}{
			XYs:     plotter.XYs{{X: float64(i), Y: g.Mean}},
			YErrors: plotter.YErrors{{Low: g.SEM, High: g.SEM}},
		})
		if err != nil {
			return nil, err
		}
		bars.LineStyle = black
		bars.CapWidth = vg.Length(capWidth / xPerPoint)
		p.Add(bars)

		mean, err := plotter.NewLine(plotter.XYs{
			{X: float64(i) - meanHalfWidth, Y: g.Mean},
			{X: float64(i) + meanHalfWidth, Y: g.Mean},
		})
		if err != nil {
			return nil, err
		}
		mean.LineStyle = black
		p.Add(mean)
	}

	markerAt := plotter.XY{X: 0.5, Y: 1}

	b := NewBracket(yMax)
	if b.valid() {
		vertices := b.Points()
		pts := make(plotter.XYs, len(vertices))
		for i, v := range vertices {
			pts[i] = plotter.XY{X: v[0], Y: v[1]}
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, err
		}
		line.LineStyle = black
		p.Add(line)

		markerAt = plotter.XY{X: b.MarkerX, Y: b.MarkerY}
	}

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{markerAt},
		Labels: []string{marker},
	})
	if err != nil {
		return nil, err
	}
	labels.TextStyle[0].Font.Size = vg.Points(12)
	labels.TextStyle[0].XAlign = draw.XCenter
	labels.TextStyle[0].YAlign = draw.YBottom
	p.Add(labels)

	p.X.Min, p.X.Max = -0.5, float64(len(groups))-0.5
	if p.Y.Min > 0 {
		p.Y.Min = 0
	}
	if p.Y.Max <= p.Y.Min {
		p.Y.Max = p.Y.Min + 1
	}
	// Headroom for the marker text above its anchor.
	p.Y.Max += 0.08 * (p.Y.Max - p.Y.Min)

	return p, nil
}

// figureSpan estimates the y extent of the finished figure, so that swarm
// spacing can be computed before the axes are final.
func figureSpan(groups []Group, yMax float64) float64 {
	lo, hi := 0.0, 1.25*yMax
	for _, g := range groups {
		for _, v := range g.Values {
			if !finite(v) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}

	if span := hi - lo; span > 0 {
		return span
	}
	return 1
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// finiteMax is the largest plottable value across groups, or NaN if there is
// none. Infinite values arise when the untreated mean corrects to zero.
func finiteMax(groups []Group) float64 {
	out := math.NaN()
	for _, g := range groups {
		for _, v := range g.Values {
			if !finite(v) {
				continue
			}
			if math.IsNaN(out) || v > out {
				out = v
			}
		}
	}
	return out
}

func savePDF(p *plot.Plot, path string) error {
	c := vgpdf.New(FigureWidth, FigureHeight)
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}

	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return pfx.Err(err)
	}

	return f.Close()
}

func savePNG(p *plot.Plot, path string) error {
	c := vgimg.NewWith(vgimg.UseWH(FigureWidth, FigureHeight), vgimg.UseDPI(previewDPI))
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}

	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
		f.Close()
		return pfx.Err(err)
	}

	return f.Close()
}
