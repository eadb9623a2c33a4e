// Package gallery is the slideshow shell around the tone mapping pipeline:
// which image is current, at what exposure, whether autoplay is running,
// and turning that state into a displayable Frame.
package gallery

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/abworrall/hdr-gallery/pkg/decode"
	"github.com/abworrall/hdr-gallery/pkg/imagestats"
	"github.com/abworrall/hdr-gallery/pkg/tonemap"
)

var ErrNoImages = errors.New("gallery: no images")

// Gallery owns the viewer state. All methods are safe for concurrent use;
// the autoplay loop and a caller changing exposure can share one Gallery.
type Gallery struct {
	Config
	Log zerolog.Logger

	mu       sync.Mutex
	index    int
	exposure float32
	autoplay bool

	current *slide // decoded image for index, nil until first Show
	loads   singleflight.Group
	factors *tonemap.FactorCache

	decodeFile func(path string) (*tonemap.LinearImage, error)
}

// slide is what we keep from decoding the image at one index. Only the
// current slide is retained; navigating away drops it.
type slide struct {
	index    int
	path     string
	img      *tonemap.LinearImage
	stats    imagestats.Stats
	decodeIn time.Duration
	err      error
}

func New(cfg Config, log zerolog.Logger) (*Gallery, error) {
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	if len(cfg.Images) == 0 {
		return nil, ErrNoImages
	}

	return &Gallery{
		Config:     cfg,
		Log:        log,
		exposure:   cfg.Exposure,
		autoplay:   cfg.Autoplay,
		factors:    tonemap.NewFactorCache(),
		decodeFile: decode.DecodeFile,
	}, nil
}

func (g *Gallery) String() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return fmt.Sprintf("gallery[%s, exposure %.2f, tonemapper %s, autoplay %v]",
		g.caption(), g.exposure, g.Tonemapper, g.autoplay)
}

func (g *Gallery) Len() int { return len(g.Images) }

func (g *Gallery) Index() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.index
}

// Caption is the "Image N of M" line, N counting from one.
func (g *Gallery) Caption() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.caption()
}

func (g *Gallery) caption() string {
	return fmt.Sprintf("Image %d of %d", g.index+1, len(g.Images))
}

// Next moves forward one image, wrapping from the last to the first.
func (g *Gallery) Next() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setIndex((g.index + 1) % len(g.Images))
	return g.index
}

// Previous moves back one image, wrapping from the first to the last.
func (g *Gallery) Previous() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.setIndex((g.index - 1 + len(g.Images)) % len(g.Images))
	return g.index
}

// SetIndex jumps to image i; out of range values wrap.
func (g *Gallery) SetIndex(i int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := len(g.Images)
	g.setIndex(((i % n) + n) % n)
	return g.index
}

// caller holds mu
func (g *Gallery) setIndex(i int) {
	if i == g.index {
		return
	}
	g.index = i
	g.current = nil
	g.factors.Reset()
}

func (g *Gallery) Exposure() float32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.exposure
}

// SetExposure clamps e into [MinExposure, MaxExposure] and returns what
// was stored. The next Show re-renders without decoding again.
func (g *Gallery) SetExposure(e float32) float32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.exposure = tonemap.ClampExposure(e)
	return g.exposure
}

func (g *Gallery) Autoplaying() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.autoplay
}

func (g *Gallery) SetAutoplay(on bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.autoplay = on
}

func (g *Gallery) ToggleAutoplay() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.autoplay = !g.autoplay
	return g.autoplay
}

// Show produces the frame for the current state. The current image is
// decoded on first use and kept until navigation moves away from it; a
// failed decode is remembered too, so an exposure change on a broken
// image does not retry. A failing frame carries its error in Frame.Err,
// which is also returned.
func (g *Gallery) Show(ctx context.Context) (Frame, error) {
	start := time.Now()

	s := g.load()
	exposure := g.Exposure()

	f := Frame{
		Index:      s.index,
		Count:      len(g.Images),
		Path:       s.path,
		Exposure:   exposure,
		Tonemapper: g.Tonemapper,
		Stats:      s.stats,
		Err:        s.err,
	}
	if s.err != nil {
		return f, s.err
	}

	factor := g.factors.Factor(s.img)
	renderStart := time.Now()
	db, err := tonemap.Apply(ctx, g.Tonemapper, s.img, factor, exposure, g.renderOptions()...)
	if err != nil {
		f.Err = fmt.Errorf("render %s: %w", s.path, err)
		g.Log.Error().Err(f.Err).Str("path", s.path).Msg("render failed")
		return f, f.Err
	}

	f.Display = db
	f.RenderTime = time.Since(renderStart)
	f.LoadTime = time.Since(start)

	g.Log.Debug().
		Str("path", s.path).
		Float32("exposure", exposure).
		Float32("factor", factor).
		Dur("render", f.RenderTime).
		Msg("rendered")

	return f, nil
}

// load returns the slide for the current index, decoding it if we have not
// already. The decode runs without mu held, and concurrent loads of one
// index share a single decode. If navigation moved on in the meantime the
// slide is still returned, but not kept.
func (g *Gallery) load() *slide {
	g.mu.Lock()
	if s := g.current; s != nil && s.index == g.index {
		g.mu.Unlock()
		return s
	}
	index, caption := g.index, g.caption()
	g.mu.Unlock()

	v, _, _ := g.loads.Do(strconv.Itoa(index), func() (interface{}, error) {
		return g.decodeSlide(index, caption), nil
	})
	s := v.(*slide)

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.index == index {
		g.current = s
	}
	return s
}

func (g *Gallery) decodeSlide(index int, caption string) *slide {
	s := &slide{index: index, path: g.Images[index]}
	start := time.Now()
	s.img, s.err = g.decodeFile(s.path)
	s.decodeIn = time.Since(start)

	if s.err != nil {
		g.Log.Error().Err(s.err).Str("path", s.path).Msg("load failed")
		s.img = nil
		return s
	}

	var err error
	if s.stats, err = imagestats.Compute(s.img); err != nil {
		g.Log.Warn().Err(err).Str("path", s.path).Msg("no stats")
	}

	g.Log.Info().
		Str("path", s.path).
		Str("caption", caption).
		Dur("decode", s.decodeIn).
		Object("stats", s.stats).
		Msg("loaded")
	return s
}

// currentImage is load for callers that only want the pixels.
func (g *Gallery) currentImage() (*tonemap.LinearImage, string, error) {
	s := g.load()
	return s.img, s.path, s.err
}

func (g *Gallery) renderOptions() []tonemap.RenderOption {
	opts := []tonemap.RenderOption{}
	if g.Workers > 0 {
		opts = append(opts, tonemap.WithWorkers(g.Workers))
	}
	if g.ChunkRows > 0 {
		opts = append(opts, tonemap.WithChunkRows(g.ChunkRows))
	}
	return opts
}
