package gallery

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
)

func WritePNG(img image.Image, filename string) error {
	writer, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("open+w '%s': %w", filename, err)
	}
	if err := png.Encode(writer, img); err != nil {
		writer.Close()
		return fmt.Errorf("png encode '%s': %w", filename, err)
	}
	return writer.Close()
}

func SlideFilename(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("slide-%02d.png", index+1))
}

func StripFilename(dir string, index int) string {
	return filepath.Join(dir, fmt.Sprintf("strip-%02d.png", index+1))
}

// Publish writes a frame as a PNG, annotated if the config asks for it.
// Failed frames are only written when annotating, as a placeholder
// carrying the error text.
func (g *Gallery) Publish(f Frame, filename string) error {
	var img image.Image
	switch {
	case g.Annotate:
		img = Annotate(f)
	case f.Err != nil:
		return f.Err
	default:
		img = f.Display.NRGBA()
	}

	if err := WritePNG(img, filename); err != nil {
		return err
	}
	g.Log.Info().Str("file", filename).Str("caption", f.Caption()).Msg("wrote")
	return nil
}
