package tonemap

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// The exposure range a viewer is expected to offer. The pipeline itself
// accepts any finite positive exposure.
const (
	MinExposure     float32 = 0.1
	MaxExposure     float32 = 10.0
	DefaultExposure float32 = 1.0
)

// ClampExposure pins e into [MinExposure, MaxExposure]. Non-finite values
// give DefaultExposure.
func ClampExposure(e float32) float32 {
	switch {
	case math.IsNaN(float64(e)) || math.IsInf(float64(e), 0):
		return DefaultExposure
	case e < MinExposure:
		return MinExposure
	case e > MaxExposure:
		return MaxExposure
	}
	return e
}

const defaultChunkRows = 64

type renderConfig struct {
	workers   int
	chunkRows int
}

// A RenderOption tweaks how RenderContext splits up the work. Options never
// change the output bytes.
type RenderOption func(*renderConfig)

// WithWorkers sets how many goroutines quantize rows; <=0 means GOMAXPROCS.
func WithWorkers(n int) RenderOption {
	return func(c *renderConfig) { c.workers = n }
}

// WithChunkRows sets the number of rows per unit of work, which is also the
// granularity at which cancellation is noticed.
func WithChunkRows(n int) RenderOption {
	return func(c *renderConfig) { c.chunkRows = n }
}

// Render tonemaps img at the given exposure, scanning the image for its
// normalization factor first.
func Render(img *LinearImage, exposure float32) (*DisplayBuffer, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if err := checkExposure(exposure); err != nil {
		return nil, err
	}
	return RenderWithFactor(img, NormalizationFactor(img), exposure)
}

// RenderWithFactor tonemaps img using a factor the caller already holds
// (see FactorCache), so an exposure change costs a single pass.
func RenderWithFactor(img *LinearImage, factor, exposure float32) (*DisplayBuffer, error) {
	return RenderContext(context.Background(), img, factor, exposure)
}

// RenderContext is RenderWithFactor, fanned out over row chunks. Each chunk
// checks ctx before it starts; if ctx is done the render fails with
// ctx.Err() and no buffer is returned.
//
//	out[c] = round(clamp(0, 255, in[c] / factor * exposure * 255))   c in R,G,B
//	out[A] = 255
func RenderContext(ctx context.Context, img *LinearImage, factor, exposure float32, opts ...RenderOption) (*DisplayBuffer, error) {
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if err := checkExposure(exposure); err != nil {
		return nil, err
	}
	if err := checkFactor(factor); err != nil {
		return nil, err
	}

	cfg := renderConfig{chunkRows: defaultChunkRows}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.workers <= 0 {
		cfg.workers = runtime.GOMAXPROCS(0)
	}
	if cfg.chunkRows <= 0 {
		cfg.chunkRows = defaultChunkRows
	}

	out := newDisplayBuffer(img.Width, img.Height)
	out.Factor = factor
	out.Exposure = exposure

	height := int(img.Height)
	rowLen := int(img.Width) * Channels

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.workers)
	for y0 := 0; y0 < height; y0 += cfg.chunkRows {
		y1 := min(y0+cfg.chunkRows, height)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			quantizeRows(out.Pix[y0*rowLen:y1*rowLen], img.Samples[y0*rowLen:y1*rowLen], factor, exposure)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

func checkExposure(e float32) error {
	if f := float64(e); math.IsNaN(f) || math.IsInf(f, 0) || f <= 0 {
		return fmt.Errorf("%w: exposure %v, want finite and > 0", ErrInvalidParameter, e)
	}
	return nil
}

func checkFactor(factor float32) error {
	if f := float64(factor); math.IsNaN(f) || math.IsInf(f, 0) || f < 1 {
		return fmt.Errorf("%w: normalization factor %v, want finite and >= 1", ErrInvalidParameter, factor)
	}
	return nil
}

// quantizeRows does the per-sample work; dst and src cover the same pixels.
func quantizeRows(dst []uint8, src []float32, factor, exposure float32) {
	f, e := float64(factor), float64(exposure)
	for i := 0; i+3 < len(src); i += Channels {
		dst[i] = quantize(float64(src[i]) / f * e * 255)
		dst[i+1] = quantize(float64(src[i+1]) / f * e * 255)
		dst[i+2] = quantize(float64(src[i+2]) / f * e * 255)
		dst[i+3] = 0xff
	}
}

// quantize saturates v into [0,255] and rounds half away from zero. NaN
// lands on 0.
func quantize(v float64) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}
