package tonemap

import (
	"fmt"
	"image"
	"image/color"

	"github.com/mdouchement/hdr/hdrcolor"
)

// Channels is the number of float32 samples per pixel in a LinearImage, and
// the number of bytes per pixel in a DisplayBuffer. Order is R, G, B, A.
const Channels = 4

// A LinearImage is a decoded HDR image: linear radiance, row-major, four
// float32 samples per pixel. Values are unbounded and usually
// non-negative. The pipeline never writes to it, so a single LinearImage
// can be rendered from any number of goroutines at once.
//
// LinearImage implements image.Image and mdouchement/hdr's hdr.Image, so
// it can be handed to the tmo operators and the RGBE encoder directly.
type LinearImage struct {
	Width   uint32
	Height  uint32
	Samples []float32
}

// NewLinearImage wraps samples (not copied) after checking that the
// dimensions are non-zero and agree with the sample count.
func NewLinearImage(width, height uint32, samples []float32) (*LinearImage, error) {
	img := &LinearImage{Width: width, Height: height, Samples: samples}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img, nil
}

// Validate reports ErrInvalidParameter for a nil or zero-sized image, or a
// sample slice whose length does not match the dimensions.
func (li *LinearImage) Validate() error {
	if li == nil {
		return fmt.Errorf("%w: nil image", ErrInvalidParameter)
	}
	if li.Width == 0 || li.Height == 0 {
		return fmt.Errorf("%w: zero-dimension image %dx%d", ErrInvalidParameter, li.Width, li.Height)
	}
	if want := li.NumPixels() * Channels; uint64(len(li.Samples)) != want {
		return fmt.Errorf("%w: %dx%d image needs %d samples, has %d",
			ErrInvalidParameter, li.Width, li.Height, want, len(li.Samples))
	}
	return nil
}

func (li *LinearImage) NumPixels() uint64 { return uint64(li.Width) * uint64(li.Height) }

func (li *LinearImage) String() string {
	return fmt.Sprintf("LinearImage[%dx%d]", li.Width, li.Height)
}

// Implement image.Image
func (li *LinearImage) ColorModel() color.Model { return hdrcolor.RGBModel }
func (li *LinearImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, int(li.Width), int(li.Height))
}
func (li *LinearImage) At(x, y int) color.Color { return li.HDRAt(x, y) }

// Implement hdr.Image
func (li *LinearImage) Size() int { return int(li.NumPixels()) }
func (li *LinearImage) HDRAt(x, y int) hdrcolor.Color {
	if !(image.Point{x, y}.In(li.Bounds())) {
		return hdrcolor.RGB{}
	}
	i := (y*int(li.Width) + x) * Channels
	return hdrcolor.RGB{
		R: float64(li.Samples[i]),
		G: float64(li.Samples[i+1]),
		B: float64(li.Samples[i+2]),
	}
}
