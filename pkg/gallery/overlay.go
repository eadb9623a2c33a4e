package gallery

import (
	"image"

	"github.com/fogleman/gg"
	"github.com/lucasb-eyer/go-colorful"
)

const (
	placeholderWidth  = 640
	placeholderHeight = 360
	lineHeight        = 16.0
	textMargin        = 8.0
)

var (
	textColor       = colorful.Color{R: 1, G: 1, B: 1}
	errorColor      = colorful.Hsv(0, 0.75, 1)
	backgroundColor = colorful.Color{R: 0.125, G: 0.125, B: 0.125}
)

// Annotate draws the frame's text lines over its image, on a translucent
// band along the bottom. A failed frame gets a dark placeholder with the
// error written in red.
func Annotate(f Frame) image.Image {
	var dc *gg.Context
	if f.Display != nil {
		dc = gg.NewContextForImage(f.Display.NRGBA())
	} else {
		dc = gg.NewContext(placeholderWidth, placeholderHeight)
		dc.SetColor(backgroundColor)
		dc.Clear()
	}

	lines := f.Lines()
	w, h := float64(dc.Width()), float64(dc.Height())
	band := float64(len(lines))*lineHeight + 2*textMargin

	// Darken the band so text reads on bright slides.
	r, g, b := backgroundColor.RGB255()
	dc.SetRGBA255(int(r), int(g), int(b), 160)
	dc.DrawRectangle(0, h-band, w, band)
	dc.Fill()

	for i, line := range lines {
		dc.SetColor(textColor)
		if f.Err != nil && i == len(lines)-1 {
			dc.SetColor(errorColor)
		}
		y := h - band + textMargin + float64(i)*lineHeight + lineHeight/2
		dc.DrawStringAnchored(line, textMargin, y, 0, 0.5)
	}

	return dc.Image()
}
