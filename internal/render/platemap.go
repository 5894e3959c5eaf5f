// Package render draws plate maps: the well grid of a resolved plate with the
// wells that received scenes highlighted and the stage positions marked.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"math"
	"path/filepath"
	"strings"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/tiff"

	"wellmap/internal/plate"
	"wellmap/internal/wellmap"
	"wellmap/pkg/colorutil"
	"wellmap/pkg/geometry"
)

// Options configures plate map rendering.
type Options struct {
	PixelsPerMM  float64 // Image scale
	Margin       int     // Border around the plate, holds the row/column labels
	WellFraction float64 // Well diameter as a fraction of the pitch
	MarkerRadius int     // Stage position marker radius in pixels
}

// DefaultOptions returns default rendering options.
func DefaultOptions() Options {
	return Options{
		PixelsPerMM:  6,
		Margin:       24,
		WellFraction: 0.8,
		MarkerRadius: 2,
	}
}

// Colors used by PlateMap.
var (
	BackgroundColor = colorutil.White
	OutlineColor    = colorutil.Gray
	EmptyWellColor  = colorutil.LightGray
	UsedWellColor   = colorutil.Teal
	MarkerColor     = colorutil.Magenta
	CentroidColor   = colorutil.Darken(colorutil.Magenta, 0.5)
	LabelColor      = colorutil.Black
)

// Layer is what PlateMap draws.
type Layer struct {
	Spec      *plate.Spec
	Wells     []plate.Well
	Used      map[string]int     // Scene count per well label, e.g. "E7"
	Positions []geometry.Point2D // Stage positions in plate coordinates; their centroid is marked too
}

// LayerFromResult builds the layer for a resolved file.
func LayerFromResult(res *wellmap.Result) Layer {
	used := make(map[string]int)
	for _, w := range res.Mapping {
		used[w.String()]++
	}
	return Layer{
		Spec:      res.Plate,
		Wells:     res.Wells,
		Used:      used,
		Positions: res.Positions.Points(),
	}
}

// canvas maps plate coordinates (µm, origin at plate centre) to pixels.
type canvas struct {
	img    *image.RGBA
	scale  float64 // px per µm
	origin geometry.Point2D
	margin int
}

func (c *canvas) toPixel(p geometry.Point2D) (int, int) {
	q := p.Add(c.origin).Scale(c.scale)
	return int(math.Round(q.X)) + c.margin, int(math.Round(q.Y)) + c.margin
}

// PlateMap renders layer to an RGBA image.
func PlateMap(layer Layer, opts Options) (*image.RGBA, error) {
	if layer.Spec == nil {
		return nil, fmt.Errorf("plate map: no plate spec")
	}
	if opts.PixelsPerMM <= 0 {
		return nil, fmt.Errorf("plate map: scale must be positive")
	}
	spec := layer.Spec
	w := int(math.Ceil(spec.PlateWidthMM*opts.PixelsPerMM)) + 2*opts.Margin
	h := int(math.Ceil(spec.PlateHeightMM*opts.PixelsPerMM)) + 2*opts.Margin

	c := &canvas{
		img:    image.NewRGBA(image.Rect(0, 0, w, h)),
		scale:  opts.PixelsPerMM / 1000,
		origin: spec.Center(),
		margin: opts.Margin,
	}
	draw.Draw(c.img, c.img.Bounds(), image.NewUniform(BackgroundColor), image.Point{}, draw.Src)

	// Plate footprint
	x1, y1 := c.toPixel(spec.Center().Negate())
	x2, y2 := c.toPixel(spec.Center())
	drawRect(c.img, x1, y1, x2, y2, OutlineColor)

	// Used wells are shaded by scene count, the busiest at full UsedWellColor.
	maxUsed := 0
	for _, n := range layer.Used {
		maxUsed = max(maxUsed, n)
	}
	r := int(spec.WellSpacingUM * opts.WellFraction / 2 * c.scale)
	for _, well := range layer.Wells {
		cx, cy := c.toPixel(well.Center)
		if n := layer.Used[well.Label()]; n > 0 {
			fill := colorutil.Blend(BackgroundColor, UsedWellColor, float64(n)/float64(maxUsed))
			fillCircle(c.img, cx, cy, r, fill)
			drawCircle(c.img, cx, cy, r, colorutil.Darken(UsedWellColor, 0.4))
		} else {
			drawCircle(c.img, cx, cy, r, EmptyWellColor)
		}
	}

	for _, p := range layer.Positions {
		px, py := c.toPixel(p)
		fillCircle(c.img, px, py, opts.MarkerRadius, MarkerColor)
	}
	if len(layer.Positions) > 0 {
		px, py := c.toPixel(geometry.Centroid(layer.Positions))
		drawCrosshair(c.img, px, py, 3*opts.MarkerRadius, CentroidColor)
	}

	drawAxisLabels(c, layer.Wells, opts)
	return c.img, nil
}

// drawAxisLabels writes row labels in the left margin and column labels in
// the top margin.
func drawAxisLabels(c *canvas, wells []plate.Well, opts Options) {
	face := basicfont.Face7x13
	d := &font.Drawer{Dst: c.img, Src: image.NewUniform(LabelColor), Face: face}
	ascent := face.Metrics().Ascent.Ceil()

	rows := make(map[string]bool)
	cols := make(map[string]bool)
	for _, well := range wells {
		cx, cy := c.toPixel(well.Center)
		if !rows[well.Row] {
			rows[well.Row] = true
			width := d.MeasureString(well.Row).Ceil()
			d.Dot = fixed.P((opts.Margin-width)/2, cy+ascent/2)
			d.DrawString(well.Row)
		}
		if !cols[well.Col] {
			cols[well.Col] = true
			width := d.MeasureString(well.Col).Ceil()
			d.Dot = fixed.P(cx-width/2, (opts.Margin+ascent)/2)
			d.DrawString(well.Col)
		}
	}
}

// Format is an output image format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatTIFF Format = "tiff"
)

// FormatFromPath picks the format from a file extension; PNG by default.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tif", ".tiff":
		return FormatTIFF
	default:
		return FormatPNG
	}
}

// Encode writes img in the given format.
func Encode(w io.Writer, img image.Image, format Format) error {
	switch format {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatTIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	default:
		return fmt.Errorf("unsupported image format %q", format)
	}
}

// fillCircle fills the disc of radius r around (cx, cy), clipped to the image.
func fillCircle(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	box := image.Rect(cx-r, cy-r, cx+r+1, cy+r+1).Intersect(img.Bounds())
	for y := box.Min.Y; y < box.Max.Y; y++ {
		dy := y - cy
		for x := box.Min.X; x < box.Max.X; x++ {
			if dx := x - cx; dx*dx+dy*dy <= r*r {
				img.SetRGBA(x, y, c)
			}
		}
	}
}

// drawCrosshair marks (cx, cy) with a cross of arm length r.
func drawCrosshair(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	for d := -r; d <= r; d++ {
		img.SetRGBA(cx+d, cy, c)
		img.SetRGBA(cx, cy+d, c)
	}
}

// drawCircle draws a circle outline using Bresenham's algorithm.
func drawCircle(img *image.RGBA, cx, cy, r int, c color.RGBA) {
	set := func(x, y int) {
		if (image.Point{X: x, Y: y}).In(img.Bounds()) {
			img.Set(x, y, c)
		}
	}

	x, y, err := r, 0, 0
	for x >= y {
		set(cx+x, cy+y)
		set(cx+y, cy+x)
		set(cx-y, cy+x)
		set(cx-x, cy+y)
		set(cx-x, cy-y)
		set(cx-y, cy-x)
		set(cx+y, cy-x)
		set(cx+x, cy-y)

		y++
		if err <= 0 {
			err += 2*y + 1
		}
		if err > 0 {
			x--
			err -= 2*x + 1
		}
	}
}

// drawRect draws a rectangle outline.
func drawRect(img *image.RGBA, x1, y1, x2, y2 int, c color.RGBA) {
	for x := x1; x <= x2; x++ {
		img.Set(x, y1, c)
		img.Set(x, y2, c)
	}
	for y := y1; y <= y2; y++ {
		img.Set(x1, y, c)
		img.Set(x2, y, c)
	}
}
