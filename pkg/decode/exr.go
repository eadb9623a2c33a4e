package decode

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/mrjoshuak/go-openexr/exr"

	"github.com/abworrall/hdr-gallery/pkg/tonemap"
)

var exrChannels = [tonemap.Channels]string{"R", "G", "B", "A"}

// decodeEXR reads the first part of a scanline EXR file into float
// frame buffers, one per channel, then interleaves them. Channels missing
// from the file are left at their fill value: 0 for colour, 1 for alpha.
func decodeEXR(r io.ReaderAt, size int64) (*tonemap.LinearImage, error) {
	f, err := exr.OpenReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("not a readable OpenEXR file: %w", err)
	}

	dw := f.Header(0).DataWindow()
	if dw.IsEmpty() {
		return nil, errors.New("OpenEXR data window is empty")
	}
	width, height := int(dw.Width()), int(dw.Height())

	reader, err := exr.NewScanlineReader(f)
	if err != nil {
		return nil, fmt.Errorf("OpenEXR scanline reader: %w", err)
	}

	var planes [tonemap.Channels][]byte
	fb := exr.NewFrameBuffer()
	for c, name := range exrChannels {
		planes[c] = make([]byte, width*height*4)
		fb.Set(name, exr.NewSlice(exr.PixelTypeFloat, planes[c], width, height))
	}
	one := math.Float32bits(1)
	for i := 0; i < len(planes[3]); i += 4 {
		binary.LittleEndian.PutUint32(planes[3][i:], one)
	}

	reader.SetFrameBuffer(fb)
	if err := reader.ReadPixels(int(dw.Min.Y), int(dw.Max.Y)); err != nil {
		return nil, fmt.Errorf("OpenEXR pixels: %w", err)
	}

	samples := make([]float32, width*height*tonemap.Channels)
	for p := 0; p < width*height; p++ {
		for c := range planes {
			bits := binary.LittleEndian.Uint32(planes[c][p*4:])
			samples[p*tonemap.Channels+c] = math.Float32frombits(bits)
		}
	}

	return tonemap.NewLinearImage(uint32(width), uint32(height), samples)
}
