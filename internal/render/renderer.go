package render

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strconv"

	"github.com/park285/connect4-montecarlo-bot/internal/board"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	defaultCellSize = 72
	margin          = 18
	labelHeight     = 22
)

var (
	frameColor      = color.RGBA{30, 78, 178, 255}
	backgroundColor = color.RGBA{22, 26, 38, 255}
	lastMoveColor   = color.NRGBA{R: 255, G: 255, B: 255, A: 200}
	labelColor      = color.NRGBA{R: 204, G: 210, B: 236, A: 255}
)

// Options controls a single render.
type Options struct {
	// LastColumn outlines the top disc of that column. -1 disables it.
	LastColumn int
}

// Renderer draws a Connect-Four board as PNG.
type Renderer struct {
	cellSize int
	width    int
	labels   bool
}

type Option func(*Renderer)

func WithCellSize(px int) Option {
	return func(r *Renderer) {
		if px >= 8 {
			r.cellSize = px
		}
	}
}

// WithWidth scales the output to px wide, keeping the aspect ratio.
func WithWidth(px int) Option {
	return func(r *Renderer) {
		if px > 0 {
			r.width = px
		}
	}
}

func WithLabels(on bool) Option {
	return func(r *Renderer) { r.labels = on }
}

func New(opts ...Option) *Renderer {
	r := &Renderer{cellSize: defaultCellSize, labels: true}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// PNG renders b without highlights.
func (r *Renderer) PNG(b board.Board) ([]byte, error) {
	return r.RenderPNG(context.Background(), b, Options{LastColumn: -1})
}

func (r *Renderer) RenderPNG(ctx context.Context, b board.Board, opts Options) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img, err := r.draw(b, opts)
	if err != nil {
		return nil, err
	}

	var out image.Image = img
	if r.width > 0 && r.width != img.Bounds().Dx() {
		h := img.Bounds().Dy() * r.width / img.Bounds().Dx()
		scaled := image.NewRGBA(image.Rect(0, 0, r.width, h))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), draw.Src, nil)
		out = scaled
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return pngBuf.Bytes(), nil
}

func (r *Renderer) bounds() (w, h int) {
	w = board.Cols*r.cellSize + margin*2
	h = board.Rows*r.cellSize + margin*2
	if r.labels {
		h += labelHeight
	}
	return w, h
}

func (r *Renderer) draw(b board.Board, opts Options) (*image.RGBA, error) {
	w, h := r.bounds()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	frame := image.Rect(margin, margin, margin+board.Cols*r.cellSize, margin+board.Rows*r.cellSize)
	draw.Draw(img, frame, image.NewUniform(frameColor), image.Point{}, draw.Src)

	for row := 0; row < board.Rows; row++ {
		for col := 0; col < board.Cols; col++ {
			disc, err := renderDiscImage(b[row][col], r.cellSize)
			if err != nil {
				return nil, err
			}
			x := margin + col*r.cellSize
			y := margin + row*r.cellSize
			draw.Draw(img, image.Rect(x, y, x+r.cellSize, y+r.cellSize), disc, image.Point{}, draw.Over)
		}
	}

	if h := b.Heights(); opts.LastColumn >= 0 && opts.LastColumn < board.Cols && h[opts.LastColumn] > 0 {
		row := board.Rows - h[opts.LastColumn]
		r.outline(img, row, opts.LastColumn)
	}
	if r.labels {
		r.drawLabels(img)
	}
	return img, nil
}

func (r *Renderer) outline(img *image.RGBA, row, col int) {
	const t = 3
	x0 := margin + col*r.cellSize
	y0 := margin + row*r.cellSize
	x1, y1 := x0+r.cellSize, y0+r.cellSize
	fill := image.NewUniform(lastMoveColor)
	for _, rect := range []image.Rectangle{
		image.Rect(x0, y0, x1, y0+t),
		image.Rect(x0, y1-t, x1, y1),
		image.Rect(x0, y0, x0+t, y1),
		image.Rect(x1-t, y0, x1, y1),
	} {
		draw.Draw(img, rect, fill, image.Point{}, draw.Over)
	}
}

func (r *Renderer) drawLabels(img *image.RGBA) {
	face := basicfont.Face7x13
	baseline := margin + board.Rows*r.cellSize + labelHeight - 6
	d := &font.Drawer{Dst: img, Src: image.NewUniform(labelColor), Face: face}
	for col := 0; col < board.Cols; col++ {
		label := strconv.Itoa(col)
		adv := d.MeasureString(label).Ceil()
		x := margin + col*r.cellSize + (r.cellSize-adv)/2
		d.Dot = fixed.P(x, baseline)
		d.DrawString(label)
	}
}
