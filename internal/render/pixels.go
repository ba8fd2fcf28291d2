// Package render draws still images of a grown cluster.
package render

import (
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"

	"mad-dla/internal/sims/dla"
)

// DepthPalette shades cells from far (dark) to near (light). Index 0 is the
// background.
var DepthPalette = []color.RGBA{
	{R: 8, G: 8, B: 16, A: 255},
	{R: 20, G: 30, B: 90, A: 255},
	{R: 30, G: 60, B: 140, A: 255},
	{R: 40, G: 100, B: 180, A: 255},
	{R: 60, G: 140, B: 210, A: 255},
	{R: 100, G: 180, B: 230, A: 255},
	{R: 150, G: 210, B: 240, A: 255},
	{R: 210, G: 235, B: 250, A: 255},
	{R: 255, G: 255, B: 255, A: 255},
}

// Projection looks down the z axis at a square window of the lattice,
// centred on the origin, keeping the nearest particle of each column.
type Projection struct {
	width int
	cells []uint8
}

// Project renders positions into a window view cells wide. Each column
// keeps the palette level of its highest particle; z is mapped over
// [-view/2, view/2].
func Project(positions []dla.Position, view float64, palette []color.RGBA) *Projection {
	width := int(math.Ceil(view))
	if width < 1 {
		width = 1
	}
	p := &Projection{width: width, cells: make([]uint8, width*width)}
	levels := len(palette) - 1
	if levels < 1 {
		return p
	}
	half := width / 2
	for _, pos := range positions {
		x, y := pos.X+half, pos.Y+half
		if x < 0 || y < 0 || x >= width || y >= width {
			continue
		}
		level := depthLevel(pos.Z, half, levels)
		idx := (width-1-y)*width + x
		if level > p.cells[idx] {
			p.cells[idx] = level
		}
	}
	return p
}

func depthLevel(z, half, levels int) uint8 {
	if half == 0 {
		return uint8(levels)
	}
	t := float64(z+half) / float64(2*half)
	t = math.Max(0, math.Min(1, t))
	return uint8(1 + int(math.Round(t*float64(levels-1))))
}

// Width returns the side length in cells.
func (p *Projection) Width() int { return p.width }

// Level returns the palette index at (x, y), with (0, 0) the top-left cell.
func (p *Projection) Level(x, y int) uint8 { return p.cells[y*p.width+x] }

// Image converts the projection to RGBA, scaling each cell to a
// scale x scale block.
func (p *Projection) Image(palette []color.RGBA, scale int) *image.RGBA {
	if scale < 1 {
		scale = 1
	}
	base := image.NewRGBA(image.Rect(0, 0, p.width, p.width))
	fillPaletteRGBA(base.Pix, p.cells, palette)
	if scale == 1 {
		return base
	}
	out := image.NewRGBA(image.Rect(0, 0, p.width*scale, p.width*scale))
	for y := 0; y < p.width*scale; y++ {
		for x := 0; x < p.width*scale; x++ {
			out.SetRGBA(x, y, base.RGBAAt(x/scale, y/scale))
		}
	}
	return out
}

// WritePNG encodes the projection as PNG.
func (p *Projection) WritePNG(w io.Writer, palette []color.RGBA, scale int) error {
	return png.Encode(w, p.Image(palette, scale))
}

// SavePNG writes the projection to path, creating parent directories.
func (p *Projection) SavePNG(path string, palette []color.RGBA, scale int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := p.WritePNG(f, palette, scale); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// fillPaletteRGBA converts cell values into RGBA pixels using a palette. When
// the palette is empty the buffer is cleared to transparent black.
func fillPaletteRGBA(buf []byte, cells []uint8, palette []color.RGBA) {
	if len(palette) == 0 {
		clear(buf[:len(cells)*4])
		return
	}

	last := len(palette) - 1
	for i, c := range cells {
		idx := int(c)
		if idx > last {
			idx = last
		}
		base := i * 4
		col := palette[idx]
		buf[base+0] = col.R
		buf[base+1] = col.G
		buf[base+2] = col.B
		buf[base+3] = col.A
	}
}
