package decode

import (
	"fmt"
	"io"
	"os"

	"github.com/mdouchement/hdr/codec/rgbe"

	"github.com/abworrall/hdr-gallery/pkg/tonemap"
)

// EncodeRGBE writes img as a Radiance RGBE file. Alpha is dropped.
func EncodeRGBE(w io.Writer, img *tonemap.LinearImage) error {
	if err := img.Validate(); err != nil {
		return err
	}
	return rgbe.Encode(w, img)
}

// WriteHDR outputs the linear image as a .hdr file, which photoshop and
// most HDR tools can load.
func WriteHDR(filename string, img *tonemap.LinearImage) error {
	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("WriteHDR, open+w '%s': %w", filename, err)
	}
	if err := EncodeRGBE(writer, img); err != nil {
		writer.Close()
		return fmt.Errorf("WriteHDR, encoding RGBE '%s': %w", filename, err)
	}
	return writer.Close()
}
