// Package decode turns HDR files into tonemap.LinearImages. It sits
// outside the tonemapping pipeline: every failure is reported as a
// *tonemap.DecodeError and nothing is ever partially rendered.
//
// Supported formats, picked by file extension:
//
//	.exr         OpenEXR scanline images (github.com/mrjoshuak/go-openexr)
//	.hdr, .pic   Radiance RGBE (github.com/mdouchement/hdr/codec/rgbe)
//	.pfm         Portable FloatMap (github.com/mdouchement/hdr/codec/pfm)
package decode

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/codec/pfm"
	"github.com/mdouchement/hdr/codec/rgbe"

	"github.com/abworrall/hdr-gallery/pkg/tonemap"
)

var (
	Extensions = []string{".exr", ".hdr", ".pic", ".pfm"}
)

// Supported reports whether the file extension of name is one we decode.
func Supported(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// DecodeFile reads and decodes the file at path.
func DecodeFile(path string) (*tonemap.LinearImage, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, &tonemap.DecodeError{Path: path, Msg: "open failed", Err: err}
	}
	defer f.Close()

	return Decode(path, f)
}

// Decode decodes the contents of r, using name only to choose the format.
func Decode(name string, r io.Reader) (img *tonemap.LinearImage, err error) {
	ext := strings.ToLower(filepath.Ext(name))
	if !Supported(name) {
		return nil, &tonemap.DecodeError{Path: name, Msg: fmt.Sprintf("unsupported file type %q", ext)}
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &tonemap.DecodeError{Path: name, Msg: "read failed", Err: err}
	}
	if len(data) == 0 {
		return nil, &tonemap.DecodeError{Path: name, Msg: "empty file"}
	}

	// Third-party codecs don't all guard against truncated input.
	defer func() {
		if p := recover(); p != nil {
			img = nil
			err = &tonemap.DecodeError{Path: name, Msg: fmt.Sprintf("corrupt %s data: %v", ext, p)}
		}
	}()

	switch ext {
	case ".exr":
		img, err = decodeEXR(bytes.NewReader(data), int64(len(data)))
	case ".pfm":
		img, err = decodeHDR(pfm.Decode(bytes.NewReader(data)))
	default:
		img, err = decodeHDR(rgbe.Decode(bytes.NewReader(data)))
	}

	if err != nil {
		return nil, &tonemap.DecodeError{Path: name, Msg: err.Error(), Err: err}
	}
	return img, nil
}

// decodeHDR copies an mdouchement/hdr image into a LinearImage; these
// formats have no alpha, so every pixel is opaque.
func decodeHDR(m image.Image, err error) (*tonemap.LinearImage, error) {
	if err != nil {
		return nil, err
	}
	hm, ok := m.(hdr.Image)
	if !ok {
		return nil, fmt.Errorf("codec returned %T, not an HDR image", m)
	}

	bounds := hm.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("empty image %s", bounds)
	}

	samples := make([]float32, 0, w*h*tonemap.Channels)
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := hm.HDRAt(x, y).HDRRGBA()
			samples = append(samples, float32(r), float32(g), float32(b), 1)
		}
	}

	return tonemap.NewLinearImage(uint32(w), uint32(h), samples)
}
