package codec

import (
	"bytes"
	"image"
	"image/draw"
	_ "image/jpeg"
	"image/png"
	"io"
)

// MaxThumbnail is the largest edge Thumbnail produces.
const MaxThumbnail = 600

// Thumbnail center crops a picture to a square no larger than size and
// returns it as PNG.
func Thumbnail(r io.Reader, size int) ([]byte, error) {
	src, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}

	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	side := w
	if h < side {
		side = h
	}

	square := image.NewRGBA(image.Rect(0, 0, side, side))
	origin := image.Point{X: b.Min.X + (w-side)/2, Y: b.Min.Y + (h-side)/2}
	draw.Draw(square, square.Bounds(), src, origin, draw.Src)

	if size <= 0 || size > MaxThumbnail {
		size = MaxThumbnail
	}
	if side < size {
		size = side
	}

	dst := square
	if size != side {
		dst = image.NewRGBA(image.Rect(0, 0, size, size))
		// nearest neighbour
		for y := 0; y < size; y++ {
			for x := 0; x < size; x++ {
				dst.Set(x, y, square.At(x*side/size, y*side/size))
			}
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
