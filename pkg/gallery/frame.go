package gallery

import (
	"fmt"
	"time"

	"github.com/abworrall/hdr-gallery/pkg/imagestats"
	"github.com/abworrall/hdr-gallery/pkg/tonemap"
)

// A Frame is one rendered view of the gallery: what a screen would show.
// Exactly one of Display and Err is set.
type Frame struct {
	Index int // zero based
	Count int
	Path  string

	Exposure   float32
	Tonemapper string

	Display    *tonemap.DisplayBuffer
	Stats      imagestats.Stats
	LoadTime   time.Duration // from Show being called to the pixels being ready, decode included
	RenderTime time.Duration

	Err error
}

func (f Frame) String() string {
	if f.Err != nil {
		return fmt.Sprintf("frame[%s, %s, %s]", f.Caption(), f.Path, f.ErrorText())
	}
	return fmt.Sprintf("frame[%s, %s, %s, exposure %.2f, %s, load %ss]",
		f.Caption(), f.Path, f.Resolution(), f.Exposure, f.Tonemapper, f.LoadTimeSeconds())
}

func (f Frame) Caption() string {
	return fmt.Sprintf("Image %d of %d", f.Index+1, f.Count)
}

// Resolution is "W × H" of the rendered image, or "" for a failed frame.
func (f Frame) Resolution() string {
	if f.Display == nil {
		return ""
	}
	return fmt.Sprintf("%d × %d", f.Display.Width, f.Display.Height)
}

// LoadTimeSeconds is the load time in seconds, to two decimal places.
func (f Frame) LoadTimeSeconds() string {
	return fmt.Sprintf("%.2f", f.LoadTime.Seconds())
}

func (f Frame) ErrorText() string {
	if f.Err == nil {
		return ""
	}
	return "Error: " + f.Err.Error()
}

// Lines is the text a viewer shows under the image.
func (f Frame) Lines() []string {
	if f.Err != nil {
		return []string{f.Caption(), f.ErrorText()}
	}
	return []string{
		f.Caption(),
		"Resolution: " + f.Resolution(),
		"Load time: " + f.LoadTimeSeconds() + "s",
	}
}
