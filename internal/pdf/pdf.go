// Package pdf lays a tall bitmap out across A4 portrait pages.
package pdf

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/kyaoi/mdedit/internal/raster"
)

// Page geometry in millimetres. PageHeight is 295, not the 297 of an A4
// sheet.
const (
	ImageWidth = 210.0
	PageHeight = 295.0
)

const imageName = "surface"

// Paginate returns the vertical offset of the image on each page. The first
// page shows the image at 0; further pages are added while the remaining
// height is non-negative, so an image whose height is an exact multiple of
// pageHeight ends with a blank page. strict stops as soon as nothing is left.
func Paginate(imgHeight, pageHeight float64, strict bool) []float64 {
	if pageHeight <= 0 {
		return []float64{0}
	}
	offsets := []float64{0}
	left := imgHeight - pageHeight
	for left >= 0 {
		if strict && left == 0 {
			break
		}
		offsets = append(offsets, left-imgHeight)
		left -= pageHeight
	}
	return offsets
}

// Assembler writes a bitmap into a multi-page PDF.
type Assembler struct {
	Strict bool
}

// Layout reports the scaled image height and per-page offsets for img.
func (a Assembler) Layout(img image.Image) (float64, []float64) {
	b := img.Bounds()
	if b.Dx() == 0 {
		return 0, []float64{0}
	}
	imgHeight := float64(b.Dy()) * ImageWidth / float64(b.Dx())
	return imgHeight, Paginate(imgHeight, PageHeight, a.Strict)
}

// Assemble encodes img and writes the PDF to w.
func (a Assembler) Assemble(img image.Image, w io.Writer) error {
	data, err := raster.EncodePNG(img)
	if err != nil {
		return err
	}
	imgHeight, offsets := a.Layout(img)

	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetAutoPageBreak(false, 0)
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	doc.RegisterImageOptionsReader(imageName, opts, bytes.NewReader(data))

	for _, y := range offsets {
		doc.AddPage()
		doc.ImageOptions(imageName, 0, y, ImageWidth, imgHeight, false, opts, 0, "")
	}
	if err := doc.Error(); err != nil {
		return fmt.Errorf("assemble pdf: %w", err)
	}
	if err := doc.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
