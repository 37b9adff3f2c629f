// Package raster draws a preview surface into a bitmap.
package raster

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"

	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/kyaoi/mdedit/internal/preview"
)

const (
	DefaultScale      = 2
	DefaultBackground = "#ffffff"
	DefaultFontSize   = 13.0
	defaultPadding    = 16
)

// replacementGlyphs are tried in order for runes the face cannot draw.
var replacementGlyphs = []rune{'\u25a1', '?'}

var monoFont = sync.OnceValue(func() *opentype.Font {
	f, err := opentype.Parse(gomono.TTF)
	if err != nil {
		panic(fmt.Sprintf("parse go mono: %v", err))
	}
	return f
})

// Options controls a single capture.
type Options struct {
	Background color.Color
	Scale      int
}

// ParseColor parses a #rrggbb colour.
func ParseColor(hex string) (color.Color, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return nil, fmt.Errorf("parse colour %q: %w", hex, err)
	}
	return c, nil
}

// Rasterizer draws surfaces with a monospaced TrueType font. Runes missing
// from Font are drawn as Fallback.
type Rasterizer struct {
	Font       *opentype.Font
	Size       float64
	Foreground color.Color
	Padding    int
	Fallback   rune
}

// New returns a rasterizer drawing dark-grey Go Mono text.
func New() *Rasterizer {
	r := &Rasterizer{
		Font:       monoFont(),
		Size:       DefaultFontSize,
		Foreground: color.RGBA{R: 0x37, G: 0x41, B: 0x51, A: 0xff},
		Padding:    defaultPadding,
	}
	var buf sfnt.Buffer
	for _, g := range replacementGlyphs {
		if r.covers(&buf, g) {
			r.Fallback = g
			break
		}
	}
	return r
}

// Rasterize renders s onto an opaque background and upscales the result by
// opts.Scale.
func (r *Rasterizer) Rasterize(ctx context.Context, s preview.Surface, opts Options) (image.Image, error) {
	bg := opts.Background
	if bg == nil {
		bg = color.White
	}
	scale := opts.Scale
	if scale < 1 {
		scale = 1
	}

	face, err := r.newFace()
	if err != nil {
		return nil, err
	}
	defer face.Close()

	metrics := face.Metrics()
	lineHeight := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()
	advance, _ := face.GlyphAdvance('M')

	var buf sfnt.Buffer
	lines := make([]string, len(s.Lines))
	width := s.Columns * advance.Ceil()
	for i, line := range s.Lines {
		lines[i] = r.visible(&buf, line)
		if w := font.MeasureString(face, lines[i]).Ceil(); w > width {
			width = w
		}
	}
	width += 2 * r.Padding
	height := len(lines)*lineHeight + 2*r.Padding
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("surface has no area (%dx%d)", width, height)
	}

	base := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(base, base.Bounds(), image.NewUniform(opaque(bg)), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  base,
		Src:  image.NewUniform(r.Foreground),
		Face: face,
	}
	for i, line := range lines {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		drawer.Dot = fixed.P(r.Padding, r.Padding+i*lineHeight+ascent)
		drawer.DrawString(line)
	}

	if scale == 1 {
		return base, nil
	}
	scaled := image.NewRGBA(image.Rect(0, 0, width*scale, height*scale))
	draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), base, base.Bounds(), draw.Src, nil)
	return scaled, nil
}

// newFace returns a face for one capture; faces keep internal buffers and
// are not shared between goroutines.
func (r *Rasterizer) newFace() (font.Face, error) {
	size := r.Size
	if size <= 0 {
		size = DefaultFontSize
	}
	face, err := opentype.NewFace(r.Font, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("open font face: %w", err)
	}
	return face, nil
}

// visible expands tabs and swaps runes without a glyph for the fallback.
func (r *Rasterizer) visible(buf *sfnt.Buffer, line string) string {
	line = strings.ReplaceAll(line, "\t", "    ")
	return strings.Map(func(c rune) rune {
		if c == ' ' || r.covers(buf, c) {
			return c
		}
		if r.Fallback == 0 {
			return -1
		}
		return r.Fallback
	}, line)
}

func (r *Rasterizer) covers(buf *sfnt.Buffer, c rune) bool {
	idx, err := r.Font.GlyphIndex(buf, c)
	return err == nil && idx != 0
}

// EncodePNG encodes img as PNG.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func opaque(c color.Color) color.Color {
	r, g, b, _ := c.RGBA()
	return color.RGBA64{R: uint16(r), G: uint16(g), B: uint16(b), A: 0xffff}
}
