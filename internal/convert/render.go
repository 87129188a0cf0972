// Package convert renders the first page of a PDF to a PNG image.
//
// Layout comes from github.com/ledongthuc/pdf (text runs and filled rectangles);
// glyphs are drawn with the Go fonts through golang.org/x/image. Embedded images
// and vector paths other than rectangles are not drawn.
package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"resume-feedback/internal/files"
	"resume-feedback/internal/shared/util"
)

const (
	// DefaultScale renders 72dpi user space at 288dpi.
	DefaultScale = 4.0
	maxPixels    = 40_000_000
	mimePNG      = "image/png"
)

var (
	errNotPDF  = errors.New("file is not a PDF")
	errNoPages = errors.New("pdf has no pages")

	rectColor = color.Gray{Y: 0xc8}

	regularFont = mustParse(goregular.TTF)
	boldFont    = mustParse(gobold.TTF)
)

func mustParse(ttf []byte) *opentype.Font {
	f, err := opentype.Parse(ttf)
	if err != nil {
		panic(err)
	}
	return f
}

// Result carries either the rendered file or a reason it could not be produced.
type Result struct {
	File  *files.File
	Error string
}

// Renderer converts PDFs to PNG images.
type Renderer struct {
	Scale float64
}

// NewRenderer returns a Renderer with the given scale, or DefaultScale when scale <= 0.
func NewRenderer(scale float64) *Renderer {
	if scale <= 0 {
		scale = DefaultScale
	}
	return &Renderer{Scale: scale}
}

// Convert renders page 1 of f to <basename>.png.
func (r *Renderer) Convert(ctx context.Context, f files.File) Result {
	if err := ctx.Err(); err != nil {
		return Result{Error: err.Error()}
	}
	data, err := r.render(f.Data)
	if err != nil {
		return Result{Error: fmt.Sprintf("convert %s: %v", f.Name, err)}
	}
	return Result{File: &files.File{
		Name:     util.BaseName(f.Name) + ".png",
		MimeType: mimePNG,
		Data:     data,
	}}
}

func (r *Renderer) render(data []byte) (out []byte, err error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, errNotPDF
	}
	// The pdf package panics on malformed content streams.
	defer func() {
		if rec := recover(); rec != nil {
			out, err = nil, fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}
	if reader.NumPage() < 1 {
		return nil, errNoPages
	}
	page := reader.Page(1)
	if page.V.IsNull() {
		return nil, errNoPages
	}

	box := mediaBox(page.V)
	scale := r.Scale
	if scale <= 0 {
		scale = DefaultScale
	}
	width := int(math.Ceil((box.Max.X - box.Min.X) * scale))
	height := int(math.Ceil((box.Max.Y - box.Min.Y) * scale))
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid page size %.0fx%.0f", box.Max.X-box.Min.X, box.Max.Y-box.Min.Y)
	}
	if width*height > maxPixels {
		return nil, fmt.Errorf("page too large at scale %.1f", scale)
	}

	c := &canvas{
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
		origin: box.Min,
		height: box.Max.Y - box.Min.Y,
		scale:  scale,
		faces:  map[faceKey]font.Face{},
	}
	draw.Draw(c.img, c.img.Bounds(), image.White, image.Point{}, draw.Src)
	defer c.close()

	content := page.Content()
	for _, rect := range content.Rect {
		c.fill(rect)
	}
	for _, tr := range groupRuns(content.Text) {
		if err := c.text(tr); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, c.img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// mediaBox walks up the page tree for an inherited MediaBox. US Letter is the fallback.
func mediaBox(v pdf.Value) pdf.Rect {
	for node := v; !node.IsNull(); node = node.Key("Parent") {
		mb := node.Key("MediaBox")
		if mb.Kind() == pdf.Array && mb.Len() == 4 {
			x0, y0 := mb.Index(0).Float64(), mb.Index(1).Float64()
			x1, y1 := mb.Index(2).Float64(), mb.Index(3).Float64()
			return pdf.Rect{
				Min: pdf.Point{X: math.Min(x0, x1), Y: math.Min(y0, y1)},
				Max: pdf.Point{X: math.Max(x0, x1), Y: math.Max(y0, y1)},
			}
		}
	}
	return pdf.Rect{Max: pdf.Point{X: 612, Y: 792}}
}

// run is a sequence of glyphs drawn from one origin with one face.
type run struct {
	x, y float64
	size float64
	bold bool
	text string
}

// groupRuns joins per-glyph text into runs. A glyph continues the current run when it sits on
// the same baseline at the advance the PDF reported for the previous glyph.
func groupRuns(texts []pdf.Text) []run {
	const eps = 0.5
	var (
		out  []run
		cur  strings.Builder
		head run
		next float64
		open bool
	)
	flush := func() {
		if open && strings.TrimSpace(cur.String()) != "" {
			head.text = cur.String()
			out = append(out, head)
		}
		cur.Reset()
		open = false
	}
	for _, t := range texts {
		bold := strings.Contains(strings.ToLower(t.Font), "bold")
		same := open &&
			math.Abs(t.Y-head.y) < eps &&
			math.Abs(t.FontSize-head.size) < eps &&
			bold == head.bold &&
			math.Abs(t.X-next) < eps
		if !same {
			flush()
			head = run{x: t.X, y: t.Y, size: t.FontSize, bold: bold}
			open = true
		}
		cur.WriteString(t.S)
		next = t.X + t.W
	}
	flush()
	return out
}

type faceKey struct {
	size float64
	bold bool
}

type canvas struct {
	img    *image.RGBA
	origin pdf.Point
	height float64
	scale  float64
	faces  map[faceKey]font.Face
}

func (p *canvas) point(x, y float64) (float64, float64) {
	return (x - p.origin.X) * p.scale, (p.height - (y - p.origin.Y)) * p.scale
}

func (p *canvas) fill(r pdf.Rect) {
	x0, y0 := p.point(r.Min.X, r.Min.Y)
	x1, y1 := p.point(r.Max.X, r.Max.Y)
	rect := image.Rect(int(math.Floor(x0)), int(math.Floor(y1)), int(math.Ceil(x1)), int(math.Ceil(y0))).Canon()
	draw.Draw(p.img, rect.Intersect(p.img.Bounds()), image.NewUniform(rectColor), image.Point{}, draw.Src)
}

func (p *canvas) text(r run) error {
	size := r.size
	if size <= 0 {
		size = 10
	}
	face, err := p.face(faceKey{size: size * p.scale, bold: r.bold})
	if err != nil {
		return err
	}
	x, y := p.point(r.x, r.y)
	d := font.Drawer{
		Dst:  p.img,
		Src:  image.Black,
		Face: face,
		Dot:  fixed.P(int(math.Round(x)), int(math.Round(y))),
	}
	d.DrawString(r.text)
	return nil
}

func (p *canvas) face(key faceKey) (font.Face, error) {
	if f, ok := p.faces[key]; ok {
		return f, nil
	}
	src := regularFont
	if key.bold {
		src = boldFont
	}
	f, err := opentype.NewFace(src, &opentype.FaceOptions{Size: key.size, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("font face: %w", err)
	}
	p.faces[key] = f
	return f, nil
}

func (p *canvas) close() {
	for _, f := range p.faces {
		_ = f.Close()
	}
}
