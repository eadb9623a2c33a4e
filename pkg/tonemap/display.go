package tonemap

import (
	"fmt"
	"image"
	"image/color"
)

// A DisplayBuffer is the 8-bit output of a render: non-premultiplied RGBA,
// row-major, same dimensions as the LinearImage it came from. Alpha is
// always 0xff.
type DisplayBuffer struct {
	Width  uint32
	Height uint32
	Pix    []uint8

	Factor   float32 // normalization factor the buffer was rendered with
	Exposure float32
}

func newDisplayBuffer(w, h uint32) *DisplayBuffer {
	return &DisplayBuffer{
		Width:  w,
		Height: h,
		Pix:    make([]uint8, uint64(w)*uint64(h)*Channels),
	}
}

func (db *DisplayBuffer) String() string {
	return fmt.Sprintf("DisplayBuffer[%dx%d, factor %.4g, exposure %.2f]", db.Width, db.Height, db.Factor, db.Exposure)
}

// RGBAAt returns the four bytes for pixel (x,y).
func (db *DisplayBuffer) RGBAAt(x, y int) color.NRGBA {
	i := (y*int(db.Width) + x) * Channels
	return color.NRGBA{db.Pix[i], db.Pix[i+1], db.Pix[i+2], db.Pix[i+3]}
}

// NRGBA wraps the buffer as an image.NRGBA without copying, so it can be
// handed to image/png, x/image/draw, gg etc.
func (db *DisplayBuffer) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    db.Pix,
		Stride: int(db.Width) * Channels,
		Rect:   image.Rect(0, 0, int(db.Width), int(db.Height)),
	}
}
