package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/park285/connect4-montecarlo-bot/internal/board"
	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
	"golang.org/x/image/draw"
)

const discTemplate = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100 100" width="100" height="100">
<circle cx="50" cy="50" r="42" fill="%s" stroke="%s" stroke-width="6"/>
<circle cx="50" cy="50" r="27" fill="none" stroke="%s" stroke-width="3"/>
</svg>`

type discStyle struct {
	fill, rim, ring string
}

var discStyles = map[board.Cell]discStyle{
	board.Empty:  {fill: "#f4f6fb", rim: "#173a8c", ring: "#f4f6fb"},
	board.PieceA: {fill: "#dc322f", rim: "#8e1b19", ring: "#b52724"},
	board.PieceB: {fill: "#f1c40f", rim: "#a5850a", ring: "#d4ab0b"},
}

type discCacheKey struct {
	cell board.Cell
	size int
}

var (
	discCache   = map[discCacheKey]image.Image{}
	discCacheMu sync.RWMutex
)

func discSVG(cell board.Cell) ([]byte, error) {
	st, ok := discStyles[cell]
	if !ok {
		return nil, fmt.Errorf("no disc style for cell %d", cell)
	}
	return []byte(fmt.Sprintf(discTemplate, st.fill, st.rim, st.ring)), nil
}

func renderDiscImage(cell board.Cell, size int) (image.Image, error) {
	key := discCacheKey{cell: cell, size: size}

	discCacheMu.RLock()
	if img, ok := discCache[key]; ok {
		discCacheMu.RUnlock()
		return img, nil
	}
	discCacheMu.RUnlock()

	data, err := discSVG(cell)
	if err != nil {
		return nil, err
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse disc svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	discCacheMu.Lock()
	discCache[key] = img
	discCacheMu.Unlock()

	return img, nil
}
