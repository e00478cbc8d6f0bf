package hrplot

import (
	"bytes"
	"image/png"
	"math"
	"reflect"
	"testing"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/iafilius/ClusterHR/src/gaia"
)

func filteredTable(t *testing.T, rows ...[2]float64) *gaia.Table {
	t.Helper()
	tb := gaia.NewTable(gaia.ColBPRP, gaia.ColGmag, gaia.ColPlxSNR)
	for i, r := range rows {
		if err := tb.AppendRow(i*2, r[0], r[1], 10); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	return tb
}

func TestBuild_FixedPresentation(t *testing.T) {
	tb := filteredTable(t, [2]float64{0.8, 14.2}, [2]float64{1.2, 16.0}, [2]float64{math.NaN(), 12.0})
	p, ok := Build(tb, "M53")
	if !ok || p == nil {
		t.Fatalf("expected plot")
	}
	if p.Title != "HR Diagram for M53" {
		t.Fatalf("title = %q", p.Title)
	}
	if p.XLabel != "BP - RP (Color Index)" || p.YLabel != "G Magnitude" {
		t.Fatalf("labels = %q / %q", p.XLabel, p.YLabel)
	}
	if p.PointSize != 1 || p.Alpha != 0.5 || p.Color != PointColor || !p.InvertY || !p.Grid {
		t.Fatalf("style = %+v", p)
	}
	want := []Point{{X: 0.8, Y: 14.2, Source: 0}, {X: 1.2, Y: 16.0, Source: 2}}
	if !reflect.DeepEqual(p.Points, want) {
		t.Fatalf("points = %+v", p.Points)
	}
	if p.XRange[0] > 0.8 || p.XRange[1] < 1.2 || p.YRange[0] > 14.2 || p.YRange[1] < 16.0 {
		t.Fatalf("ranges do not cover data: x=%v y=%v", p.XRange, p.YRange)
	}
}

func TestBuild_MissingColumnsNoArtifact(t *testing.T) {
	tb := filteredTable(t, [2]float64{0.8, 14.2})
	tb.DropColumn(gaia.ColGmag)
	p, ok := Build(tb, "M53")
	if ok || p != nil {
		t.Fatalf("expected no artifact without Gmag")
	}

	tb = filteredTable(t, [2]float64{0.8, 14.2})
	tb.DropColumn(gaia.ColBPRP)
	if p, ok := Build(tb, "M53"); ok || p != nil {
		t.Fatalf("expected no artifact without BP-RP")
	}
}

func TestBuild_EmptyTableStillProducesArtifact(t *testing.T) {
	tb := filteredTable(t)
	p, ok := Build(tb, "M45")
	if !ok || p == nil {
		t.Fatalf("expected artifact for empty table")
	}
	if len(p.Points) != 0 {
		t.Fatalf("expected zero points, got %d", len(p.Points))
	}
	if p.XRange != defaultXRange || p.YRange != defaultYRange {
		t.Fatalf("expected default ranges, got %v %v", p.XRange, p.YRange)
	}
	img, err := Render(p, 640, 400)
	if err != nil {
		t.Fatalf("render empty plot: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 640 || b.Dy() != 400 {
		t.Fatalf("image size = %v", b)
	}
}

func TestBuild_IdenticalInputsIdenticalPoints(t *testing.T) {
	a, _ := Build(filteredTable(t, [2]float64{0.1, 9}, [2]float64{2.1, 18}), "NGC 2516")
	b, _ := Build(filteredTable(t, [2]float64{0.1, 9}, [2]float64{2.1, 18}), "NGC 2516")
	if !reflect.DeepEqual(a.Points, b.Points) {
		t.Fatalf("point sets differ")
	}
}

func TestChart_InvertedYAxisAndGrid(t *testing.T) {
	p, _ := Build(filteredTable(t, [2]float64{0.5, 10}, [2]float64{1.5, 18}), "M53")
	ch := p.Chart(800, 500)
	if ch.Title != "HR Diagram for M53" || ch.Width != 800 || ch.Height != 500 {
		t.Fatalf("chart header = %q %dx%d", ch.Title, ch.Width, ch.Height)
	}
	yr, ok := ch.YAxis.Range.(*chart.ContinuousRange)
	if !ok || !yr.Descending {
		t.Fatalf("y axis must be inverted")
	}
	if xr, ok := ch.XAxis.Range.(*chart.ContinuousRange); !ok || xr.Descending {
		t.Fatalf("x axis must not be inverted")
	}
	if ch.XAxis.GridMajorStyle.Hidden || ch.YAxis.GridMajorStyle.Hidden {
		t.Fatalf("grid lines should be visible")
	}
	if len(ch.Series) != 1 || ch.Series[0].GetStyle().DotColor.A != 128 {
		t.Fatalf("expected one blue series with alpha 0.5")
	}
	for _, tk := range ch.YAxis.Ticks {
		if tk.Value < p.YRange[0]-1e-9 || tk.Value > p.YRange[1]+1e-9 {
			t.Fatalf("tick %v outside range %v", tk.Value, p.YRange)
		}
	}

	p.Grid = false
	if ch := p.Chart(800, 500); !ch.XAxis.GridMajorStyle.Hidden {
		t.Fatalf("grid should be hidden when disabled")
	}
}

func TestRenderPNG_WithCaption(t *testing.T) {
	p, _ := Build(filteredTable(t, [2]float64{0.5, 10}, [2]float64{1.5, 18}, [2]float64{0.9, 13}), "M53")
	p.Caption = "kept 3 of 5 stars"
	var buf bytes.Buffer
	if err := RenderPNG(&buf, p, 700, 420); err != nil {
		t.Fatalf("render: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 700 || b.Dy() != 420 {
		t.Fatalf("size = %v", b)
	}
	if _, err := Render(nil, 10, 10); err == nil {
		t.Fatalf("expected error for nil plot")
	}
}

func TestNiceAxisHelpers(t *testing.T) {
	a, b := niceAxisBounds(0.31, 2.87)
	if a > 0.31 || b < 2.87 {
		t.Fatalf("bounds %v..%v do not cover data", a, b)
	}
	a, b = niceAxisBounds(5, 5)
	if !(b > a) {
		t.Fatalf("degenerate span not widened: %v..%v", a, b)
	}
	ticks := niceTicks(4, 21, 8)
	if len(ticks) < 2 {
		t.Fatalf("too few ticks: %v", ticks)
	}
	for i := 1; i < len(ticks); i++ {
		if ticks[i].Value <= ticks[i-1].Value {
			t.Fatalf("ticks not increasing: %v", ticks)
		}
	}
	if niceTicks(0, 1, 1) != nil {
		t.Fatalf("n<2 should yield nil")
	}
	if got := formatTick(0.5, 0.5); got != "0.5" {
		t.Fatalf("formatTick(0.5) = %q", got)
	}
	if got := formatTick(0.75, 0.25); got != "0.75" {
		t.Fatalf("formatTick(0.75) = %q", got)
	}
	if got := formatTick(12, 2); got != "12" {
		t.Fatalf("formatTick(12) = %q", got)
	}
	if got := formatTick(1e-12, 0.25); got != "0" {
		t.Fatalf("formatTick(~0) = %q", got)
	}
}
