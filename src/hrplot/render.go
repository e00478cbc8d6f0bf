package hrplot

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/iafilius/ClusterHR/src/logx"
)

// Default image size, 10:6 like a classic figure.
const (
	DefaultWidth  = 1000
	DefaultHeight = 600
)

var gridStyle = chart.Style{StrokeColor: drawing.Color{R: 200, G: 200, B: 200, A: 255}, StrokeWidth: 1}

// Chart converts the plot into a go-chart definition of the given size.
func (p *Plot) Chart(width, height int) chart.Chart {
	dot := p.Color.WithAlpha(uint8(math.Round(clamp01(p.Alpha) * 255)))
	var series chart.Series
	if len(p.Points) > 0 {
		series = chart.ContinuousSeries{
			Name:    "stars",
			XValues: p.XValues(),
			YValues: p.YValues(),
			Style:   chart.Style{StrokeWidth: chart.Disabled, DotWidth: p.PointSize, DotColor: dot},
		}
	} else {
		// go-chart refuses an empty series; an invisible one keeps axes and labels.
		series = chart.ContinuousSeries{
			Name:    "empty",
			XValues: []float64{p.XRange[0], p.XRange[1]},
			YValues: []float64{p.YRange[0], p.YRange[1]},
			Style:   chart.Style{Hidden: true, StrokeWidth: chart.Disabled, DotWidth: chart.Disabled},
		}
	}

	grid := gridStyle
	if !p.Grid {
		grid = chart.Style{Hidden: true}
	}
	xr := &chart.ContinuousRange{Min: p.XRange[0], Max: p.XRange[1]}
	yr := &chart.ContinuousRange{Min: p.YRange[0], Max: p.YRange[1], Descending: p.InvertY}

	padBottom := 28
	if p.Caption != "" {
		padBottom += 18
	}
	return chart.Chart{
		Title:      p.Title,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 12, Bottom: padBottom}},
		XAxis: chart.XAxis{
			Name:           p.XLabel,
			Range:          xr,
			Ticks:          niceTicks(xr.Min, xr.Max, 8),
			GridMajorStyle: grid,
			GridMinorStyle: grid,
		},
		YAxis: chart.YAxis{
			Name:           p.YLabel,
			Range:          yr,
			Ticks:          niceTicks(yr.Min, yr.Max, 8),
			GridMajorStyle: grid,
			GridMinorStyle: grid,
		},
		Series: []chart.Series{series},
	}
}

// Render draws the plot into an image of the given size.
func Render(p *Plot, width, height int) (image.Image, error) {
	if p == nil {
		return nil, errors.New("render: nil plot")
	}
	if width <= 0 || height <= 0 {
		width, height = DefaultWidth, DefaultHeight
	}
	defer logx.TimeTrack(time.Now(), "render "+p.Title)

	ch := p.Chart(width, height)
	var buf bytes.Buffer
	if err := ch.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	if p.Caption != "" {
		img = drawCaption(img, p.Caption)
	}
	return img, nil
}

// RenderPNG renders the plot and writes it as PNG.
func RenderPNG(w io.Writer, p *Plot, width, height int) error {
	img, err := Render(p, width, height)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}

// Blank returns a flat dark placeholder image, shown before the first plot or after a
// render failure.
func Blank(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.RGBA{R: 18, G: 18, B: 18, A: 255}), image.Point{}, draw.Src)
	return img
}

// drawCaption writes a small caption near the bottom-left corner on a dark band.
func drawCaption(img image.Image, text string) image.Image {
	if img == nil || strings.TrimSpace(text) == "" {
		return img
	}
	b := img.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)
	pad := 6
	face := basicfont.Face7x13
	dr := &font.Drawer{Dst: rgba, Src: image.NewUniform(color.RGBA{R: 255, G: 255, B: 255, A: 255}), Face: face}
	tw := dr.MeasureString(text).Ceil()
	x := b.Min.X + 8
	y := b.Max.Y - 6
	bg := image.NewUniform(color.RGBA{R: 0, G: 0, B: 0, A: 200})
	rect := image.Rect(x-pad, y-face.Metrics().Ascent.Ceil()-pad, x+tw+pad, y+pad/2)
	draw.Draw(rgba, rect, bg, image.Point{}, draw.Over)
	dr.Dot = fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)}
	dr.DrawString(text)
	return rgba
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v) || v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
