package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/abworrall/hdr-gallery/pkg/decode"
	"github.com/abworrall/hdr-gallery/pkg/gallery"
	"github.com/abworrall/hdr-gallery/pkg/tonemap"
)

var (
	fVerbosity  int
	fConfig     string
	fExposure   float64
	fTonemapper string
	fOutputDir  string
	fAutoplay   bool
	fInterval   time.Duration
	fWorkers    int
	fAnnotate   bool
	fStrip      bool
	fHDROut     bool
)

func init() {
	flag.IntVar(&fVerbosity, "v", 0, "how verbose to get")
	flag.StringVar(&fConfig, "config", "", "path to a gallery yaml config")
	flag.Float64Var(&fExposure, "exposure", 1.0, "exposure multiplier, 0.1 to 10")
	flag.StringVar(&fTonemapper, "tonemapper", tonemap.OperatorExposure, "how to tonemap from HDR to LDR: "+tonemap.ListOperators())
	flag.StringVar(&fOutputDir, "o", ".", "directory to write PNGs into")
	flag.BoolVar(&fAutoplay, "autoplay", false, "cycle through the images until interrupted")
	flag.DurationVar(&fInterval, "interval", time.Second, "autoplay interval")
	flag.IntVar(&fWorkers, "workers", 0, "render goroutines (0 for one per CPU)")
	flag.BoolVar(&fAnnotate, "annotate", false, "draw caption, resolution and load time onto each slide")
	flag.BoolVar(&fStrip, "strip", false, "also write an exposure preview strip per image")
	flag.BoolVar(&fHDROut, "hdrout", false, "re-export each decoded image as Radiance .hdr")
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(gallery.Config{Verbosity: fVerbosity}.LogLevel())

	log.Info().Msg("hdr-gallery starting")
}

func main() {
	cfg := gallery.NewConfig()
	if fConfig != "" {
		c, err := gallery.LoadConfig(fConfig)
		if err != nil {
			log.Fatal().Err(err).Msg("config")
		}
		cfg = c
	}

	cfg, err := gallery.LoadFilesAndDirs(cfg, flag.Args()...)
	if err != nil {
		log.Fatal().Err(err).Msg("loading args")
	}
	applyFlags(&cfg)

	g, err := gallery.New(cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("gallery")
	}
	// the yaml config may have asked for more than -v did
	zerolog.SetGlobalLevel(g.LogLevel())
	if g.Verbosity > 0 {
		log.Debug().Msgf("Final configuration:-\n\n%s\n", g.Config.AsYaml())
	}

	if err := os.MkdirAll(g.OutputDir, 0o755); err != nil {
		log.Fatal().Err(err).Msg("output dir")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if fHDROut {
		exportHDR(g)
	}

	if g.Autoplaying() {
		autoplay(ctx, g)
		return
	}

	if failed := pageThrough(ctx, g); failed > 0 {
		log.Error().Int("failed", failed).Int("images", g.Len()).Msg("done, with errors")
		os.Exit(1)
	}
	log.Info().Int("images", g.Len()).Msg("done")
}

// applyFlags copies the flags that were given explicitly over the config,
// so a yaml file sets the baseline and the command line tweaks it.
func applyFlags(cfg *gallery.Config) {
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "v":
			cfg.Verbosity = fVerbosity
		case "exposure":
			cfg.Exposure = tonemap.ClampExposure(float32(fExposure))
			if cfg.Exposure != float32(fExposure) {
				log.Warn().Float64("asked", fExposure).Float32("using", cfg.Exposure).Msg("exposure clamped")
			}
		case "tonemapper":
			cfg.Tonemapper = fTonemapper
		case "o":
			cfg.OutputDir = fOutputDir
		case "autoplay":
			cfg.Autoplay = fAutoplay
		case "interval":
			cfg.AutoplayInterval = fInterval
		case "workers":
			cfg.Workers = fWorkers
		case "annotate":
			cfg.Annotate = fAnnotate
		case "strip":
			cfg.Strip = fStrip
		}
	})
}

// pageThrough renders every image once, as if someone clicked next through
// the whole gallery, and returns how many frames failed.
func pageThrough(ctx context.Context, g *gallery.Gallery) int {
	failed := 0
	for i := range g.Len() {
		if ctx.Err() != nil {
			return failed + g.Len() - i
		}
		g.SetIndex(i)

		f, err := g.Show(ctx)
		if err != nil {
			failed++
		}
		if err := g.Publish(f, gallery.SlideFilename(g.OutputDir, i)); err != nil && f.Err == nil {
			log.Error().Err(err).Msg("publish")
			failed++
		}
		if err == nil {
			log.Info().Str("caption", f.Caption()).Str("resolution", f.Resolution()).Str("load", f.LoadTimeSeconds()+"s").Msg(f.Path)
		}

		if g.Strip && f.Err == nil {
			strip, err := g.PreviewStrip(ctx, g.StripExposures, g.StripHeight)
			if err == nil {
				err = gallery.WritePNG(strip, gallery.StripFilename(g.OutputDir, i))
			}
			if err != nil {
				log.Error().Err(err).Str("path", f.Path).Msg("preview strip")
			}
		}
	}
	return failed
}

// autoplay keeps current.png up to date with the slideshow until we are
// interrupted.
func autoplay(ctx context.Context, g *gallery.Gallery) {
	current := filepath.Join(g.OutputDir, "current.png")
	publish := func(f gallery.Frame) {
		if err := g.Publish(f, current); err != nil {
			log.Error().Err(err).Str("caption", f.Caption()).Msg("publish")
		}
	}

	f, _ := g.Show(ctx)
	publish(f)

	if err := g.Autoplay(ctx, publish); err != nil && ctx.Err() == nil {
		log.Error().Err(err).Msg("autoplay")
	}
	log.Info().Msg("autoplay stopped")
}

// exportHDR decodes each image and writes it back out as Radiance RGBE, so
// EXR and PFM slides can be opened by tools that only read .hdr.
func exportHDR(g *gallery.Gallery) {
	for _, path := range g.Images {
		img, err := decode.DecodeFile(path)
		if err != nil {
			log.Error().Err(err).Msg("hdrout")
			continue
		}

		base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		out := filepath.Join(g.OutputDir, base+".hdr")
		if filepath.Clean(out) == filepath.Clean(path) {
			out = filepath.Join(g.OutputDir, base+"-rgbe.hdr")
		}
		if err := decode.WriteHDR(out, img); err != nil {
			log.Error().Err(err).Msg("hdrout")
			continue
		}
		log.Info().Str("from", path).Str("to", out).Msg("wrote")
	}
}
