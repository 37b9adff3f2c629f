package pdf

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginate(t *testing.T) {
	tests := []struct {
		name   string
		height float64
		strict bool
		want   []float64
	}{
		{"shorter than a page", 100, false, []float64{0}},
		{"one and a half pages", 442.5, false, []float64{0, -295}},
		{"exact single page adds blank page", 295, false, []float64{0, -295}},
		{"exact double page adds blank page", 590, false, []float64{0, -295, -590}},
		{"strict exact double page", 590, true, []float64{0, -295}},
		{"strict partial page unchanged", 442.5, true, []float64{0, -295}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Paginate(tt.height, PageHeight, tt.strict))
		})
	}
}

func TestPaginateExactMultipleEmitsExtraPage(t *testing.T) {
	for n := 1; n <= 5; n++ {
		got := Paginate(float64(n)*PageHeight, PageHeight, false)
		assert.Len(t, got, n+1, "height %d pages", n)
	}
}

func TestLayoutScalesToPageWidth(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 100, 281))
	h, offsets := Assembler{}.Layout(img)
	assert.InDelta(t, 590.1, h, 0.001)
	assert.Len(t, offsets, 3)
}

func TestAssembleWritesPDF(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 210, 600))
	for y := 0; y < 600; y++ {
		img.Set(10, y, color.Black)
	}

	var buf bytes.Buffer
	require.NoError(t, Assembler{}.Assemble(img, &buf))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	out := buf.Bytes()
	pages := bytes.Count(out, []byte("/Type /Page")) - bytes.Count(out, []byte("/Type /Pages"))
	assert.Equal(t, 3, pages)
}
