// Package imagestats summarizes the luminance of a LinearImage, for logging
// when an image is loaded. None of it feeds into the pipeline.
package imagestats

import (
	"fmt"
	"math"

	"github.com/codahale/hdrhistogram"
	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/abworrall/hdr-gallery/pkg/tonemap"
)

// Luminances are bucketed at this resolution for the percentile histogram,
// and recorded no higher than histogramMaxLum, where P50/P99 saturate.
const (
	histogramScale  = 1000.0
	histogramMaxLum = 1e12
)

func histogramValue(lum float64) int64 {
	return int64(math.Min(lum, histogramMaxLum) * histogramScale)
}

type Stats struct {
	Width, Height uint32

	MinLum    float64 // luminance (CIE Y) over finite pixels
	MaxLum    float64
	MeanLum   float64
	StdDevLum float64
	P50Lum    float64
	P99Lum    float64

	MaxChannel float32 // brightest finite R/G/B sample, before the 1.0 floor
	NonFinite  int     // samples that are NaN or Inf
	Negative   int     // samples below zero
}

func (s Stats) String() string {
	return fmt.Sprintf("stats[%dx%d, lum{min %.4g, max %.4g, mean %.4g, sd %.4g, p50 %.4g, p99 %.4g}, maxchan %.4g, nonfinite %d, negative %d]",
		s.Width, s.Height, s.MinLum, s.MaxLum, s.MeanLum, s.StdDevLum, s.P50Lum, s.P99Lum, s.MaxChannel, s.NonFinite, s.Negative)
}

// MarshalZerologObject lets Stats go straight into a log event.
func (s Stats) MarshalZerologObject(e *zerolog.Event) {
	e.Uint32("w", s.Width).
		Uint32("h", s.Height).
		Float64("lum_min", s.MinLum).
		Float64("lum_max", s.MaxLum).
		Float64("lum_mean", s.MeanLum).
		Float64("lum_sd", s.StdDevLum).
		Float64("lum_p50", s.P50Lum).
		Float64("lum_p99", s.P99Lum).
		Float32("max_channel", s.MaxChannel).
		Int("nonfinite", s.NonFinite).
		Int("negative", s.Negative)
}

// Luminance is the CIE Y of a linear RGB triple.
func Luminance(r, g, b float64) float64 {
	xyz := hdrcolor.XYZModel.Convert(hdrcolor.RGB{R: r, G: g, B: b})
	_, y, _, _ := xyz.(hdrcolor.Color).HDRXYZA()
	return y
}

// Compute walks the image once for luminances, then hands them to gonum
// for moments and to an HDR histogram for percentiles. Pixels with any
// non-finite sample are left out; negative samples count as zero.
func Compute(img *tonemap.LinearImage) (Stats, error) {
	if err := img.Validate(); err != nil {
		return Stats{}, err
	}

	s := Stats{
		Width:      img.Width,
		Height:     img.Height,
		MaxChannel: tonemap.MaxChannel(img),
		MinLum:     math.Inf(1),
	}

	lums := make([]float64, 0, img.NumPixels())
	for i := 0; i < len(img.Samples); i += tonemap.Channels {
		rgb := [3]float64{}
		finite := true
		for c := 0; c < 3; c++ {
			v := float64(img.Samples[i+c])
			switch {
			case math.IsNaN(v) || math.IsInf(v, 0):
				s.NonFinite++
				finite = false
			case v < 0:
				s.Negative++
			default:
				rgb[c] = v
			}
		}
		if !finite {
			continue
		}

		lum := Luminance(rgb[0], rgb[1], rgb[2])
		s.MinLum = math.Min(s.MinLum, lum)
		s.MaxLum = math.Max(s.MaxLum, lum)
		lums = append(lums, lum)
	}

	if len(lums) == 0 {
		s.MinLum = 0
		return s, nil
	}

	s.MeanLum, s.StdDevLum = stat.MeanStdDev(lums, nil)
	if len(lums) == 1 {
		s.StdDevLum = 0
	}

	hist := hdrhistogram.New(1, max(histogramValue(s.MaxLum)+1, 2), 3)
	for _, lum := range lums {
		if err := hist.RecordValue(histogramValue(lum)); err != nil {
			return s, fmt.Errorf("imagestats: histogram: %w", err)
		}
	}
	s.P50Lum = float64(hist.ValueAtQuantile(50)) / histogramScale
	s.P99Lum = float64(hist.ValueAtQuantile(99)) / histogramScale

	return s, nil
}
