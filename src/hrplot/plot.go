// Package hrplot builds Hertzsprung-Russell diagram artifacts from a filtered Gaia table and
// renders them with go-chart.
package hrplot

import (
	"math"

	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/iafilius/ClusterHR/src/gaia"
	"github.com/iafilius/ClusterHR/src/logx"
)

// Fixed presentation of the diagram.
const (
	XLabel      = "BP - RP (Color Index)"
	YLabel      = "G Magnitude"
	TitlePrefix = "HR Diagram for "
	PointSize   = 1.0
	PointAlpha  = 0.5
)

// PointColor is plain blue.
var PointColor = drawing.Color{R: 0, G: 0, B: 255, A: 255}

// Axis ranges used when no star survives filtering.
var (
	defaultXRange = [2]float64{-0.5, 3.5}
	defaultYRange = [2]float64{4, 21}
)

// Point is one plotted star. Source is the row index in the fetched catalog table.
type Point struct {
	X, Y   float64
	Source int
}

// Plot is the renderable HR diagram for one submission.
type Plot struct {
	Cluster string
	Title   string
	XLabel  string
	YLabel  string
	Points  []Point

	PointSize float64
	Alpha     float64
	Color     drawing.Color
	InvertY   bool
	Grid      bool

	XRange [2]float64
	YRange [2]float64

	// Caption is drawn in the lower-left corner when non-empty.
	Caption string
}

// Build creates the diagram for t: x = BP-RP, y = Gmag, brighter stars at the top.
// When either column is missing it logs a diagnostic and returns nil, false. Rows with a
// NaN or infinite coordinate stay in the table but are not plotted. An empty table still
// yields a plot with axes, labels and a default range.
func Build(t *gaia.Table, cluster string) (*Plot, bool) {
	if !t.HasColumn(gaia.ColGmag) || !t.HasColumn(gaia.ColBPRP) {
		logx.Warnf("The required columns are not present in the table.")
		return nil, false
	}
	xs, _ := t.Column(gaia.ColBPRP)
	ys, _ := t.Column(gaia.ColGmag)

	p := &Plot{
		Cluster:   cluster,
		Title:     TitlePrefix + cluster,
		XLabel:    XLabel,
		YLabel:    YLabel,
		PointSize: PointSize,
		Alpha:     PointAlpha,
		Color:     PointColor,
		InvertY:   true,
		Grid:      true,
		Points:    make([]Point, 0, len(xs)),
	}
	minX, maxX := math.MaxFloat64, -math.MaxFloat64
	minY, maxY := math.MaxFloat64, -math.MaxFloat64
	for i := range xs {
		x, y := xs[i], ys[i]
		if !finite(x) || !finite(y) {
			continue
		}
		p.Points = append(p.Points, Point{X: x, Y: y, Source: t.SourceIndex(i)})
		minX, maxX = math.Min(minX, x), math.Max(maxX, x)
		minY, maxY = math.Min(minY, y), math.Max(maxY, y)
	}
	if skipped := len(xs) - len(p.Points); skipped > 0 {
		logx.Debugf("%s: %d rows without BP-RP or Gmag not plotted", cluster, skipped)
	}
	if len(p.Points) == 0 {
		p.XRange, p.YRange = defaultXRange, defaultYRange
		return p, true
	}
	p.XRange[0], p.XRange[1] = niceAxisBounds(minX, maxX)
	p.YRange[0], p.YRange[1] = niceAxisBounds(minY, maxY)
	return p, true
}

// XValues returns the x coordinates in point order.
func (p *Plot) XValues() []float64 {
	out := make([]float64, len(p.Points))
	for i, pt := range p.Points {
		out[i] = pt.X
	}
	return out
}

// YValues returns the y coordinates in point order.
func (p *Plot) YValues() []float64 {
	out := make([]float64, len(p.Points))
	for i, pt := range p.Points {
		out[i] = pt.Y
	}
	return out
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
