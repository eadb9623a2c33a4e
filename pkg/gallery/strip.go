package gallery

import (
	"context"
	"fmt"
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/abworrall/hdr-gallery/pkg/tonemap"
)

const stripGap = 4 // pixels between thumbnails

// PreviewStrip renders the current image once per exposure and lays the
// results out left to right, each scaled to the given height. The renders
// run concurrently and share one normalization factor.
func (g *Gallery) PreviewStrip(ctx context.Context, exposures []float32, height int) (*image.NRGBA, error) {
	if len(exposures) == 0 {
		return nil, fmt.Errorf("preview strip: no exposures: %w", tonemap.ErrInvalidParameter)
	}
	if height <= 0 {
		return nil, fmt.Errorf("preview strip: height %d: %w", height, tonemap.ErrInvalidParameter)
	}

	img, path, err := g.currentImage()
	if err != nil {
		return nil, err
	}
	factor := g.factors.Factor(img)

	// Each render already fans out across rows, so keep the outer level narrow.
	renders := make([]*tonemap.DisplayBuffer, len(exposures))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(2)
	for i, e := range exposures {
		eg.Go(func() error {
			db, err := tonemap.Apply(egCtx, g.Tonemapper, img, factor, e, g.renderOptions()...)
			if err != nil {
				return fmt.Errorf("preview strip exposure %.2f: %w", e, err)
			}
			renders[i] = db
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	width := max(1, int(float64(img.Width)*float64(height)/float64(img.Height)))
	strip := image.NewNRGBA(image.Rect(0, 0, len(renders)*width+(len(renders)-1)*stripGap, height))
	xdraw.Draw(strip, strip.Bounds(), image.NewUniform(color.Black), image.Point{}, xdraw.Src)

	for i, db := range renders {
		x0 := i * (width + stripGap)
		xdraw.CatmullRom.Scale(strip, image.Rect(x0, 0, x0+width, height), db.NRGBA(), db.NRGBA().Bounds(), xdraw.Src, nil)
	}

	g.Log.Debug().Str("path", path).Int("thumbs", len(renders)).Int("height", height).Msg("preview strip")
	return strip, nil
}
