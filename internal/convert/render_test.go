package convert

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-feedback/internal/files"
	"resume-feedback/internal/shared/testutil"
)

func isWhite(img image.Image, x, y int) bool {
	r, g, b, _ := img.At(x, y).RGBA()
	return r == 0xffff && g == 0xffff && b == 0xffff
}

func anyInk(img image.Image, rect image.Rectangle) bool {
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if !isWhite(img, x, y) {
				return true
			}
		}
	}
	return false
}

func TestConvertRendersFirstPage(t *testing.T) {
	doc := testutil.PDF(200, 100, []string{"Jane Doe"}, testutil.Box{X: 10, Y: 10, W: 50, H: 5})
	r := NewRenderer(1)

	res := r.Convert(context.Background(), files.File{Name: "Jane Resume.pdf", Data: doc})
	require.Empty(t, res.Error)
	require.NotNil(t, res.File)
	assert.Equal(t, "Jane Resume.png", res.File.Name)
	assert.Equal(t, "image/png", res.File.MimeType)

	img, err := png.Decode(bytes.NewReader(res.File.Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 200, 100), img.Bounds())

	// Box spans y 10..15 in PDF space, 85..90 in image space.
	assert.False(t, isWhite(img, 30, 87), "expected rectangle fill")
	// Baseline at y=76 in PDF space lands at image row 24.
	assert.True(t, anyInk(img, image.Rect(20, 12, 90, 26)), "expected text glyphs")
	assert.True(t, isWhite(img, 195, 50), "expected blank margin")
}

func TestConvertScalesOutput(t *testing.T) {
	doc := testutil.PDF(50, 40, []string{"x"})

	res := NewRenderer(2).Convert(context.Background(), files.File{Name: "a.pdf", Data: doc})
	require.Empty(t, res.Error)

	cfg, err := png.DecodeConfig(bytes.NewReader(res.File.Data))
	require.NoError(t, err)
	assert.Equal(t, 100, cfg.Width)
	assert.Equal(t, 80, cfg.Height)
}

func TestConvertRejectsNonPDF(t *testing.T) {
	res := NewRenderer(1).Convert(context.Background(), files.File{Name: "cv.docx", Data: []byte("PK\x03\x04")})
	assert.Nil(t, res.File)
	assert.Contains(t, res.Error, "not a PDF")
}

func TestConvertMalformedPDF(t *testing.T) {
	res := NewRenderer(1).Convert(context.Background(), files.File{Name: "cv.pdf", Data: []byte("%PDF-1.4\nbroken")})
	assert.Nil(t, res.File)
	assert.NotEmpty(t, res.Error)
}

func TestConvertCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := NewRenderer(1).Convert(ctx, files.File{Name: "cv.pdf", Data: testutil.PDF(10, 10, nil)})
	assert.Nil(t, res.File)
	assert.NotEmpty(t, res.Error)
}

func TestNewRendererDefaultsScale(t *testing.T) {
	assert.Equal(t, DefaultScale, NewRenderer(0).Scale)
	assert.Equal(t, 2.5, NewRenderer(2.5).Scale)
}

func TestGroupRunsJoinsGlyphs(t *testing.T) {
	texts := []pdf.Text{
		{Font: "Helvetica", FontSize: 12, X: 20, Y: 76, S: "H"},
		{Font: "Helvetica", FontSize: 12, X: 20, Y: 76, S: "i"},
		{Font: "Helvetica-Bold", FontSize: 12, X: 20, Y: 60, W: 7, S: "O"},
		{Font: "Helvetica-Bold", FontSize: 12, X: 27, Y: 60, W: 7, S: "K"},
		{Font: "Helvetica", FontSize: 12, X: 100, Y: 60, S: " "},
	}

	runs := groupRuns(texts)
	require.Len(t, runs, 2)
	assert.Equal(t, "Hi", runs[0].text)
	assert.False(t, runs[0].bold)
	assert.Equal(t, "OK", runs[1].text)
	assert.True(t, runs[1].bold)
	assert.Equal(t, 20.0, runs[1].x)
}
