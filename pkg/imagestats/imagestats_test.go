package imagestats

import (
	"bytes"
	"math"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/hdr-gallery/pkg/tonemap"
)

func grey(t *testing.T, levels ...float32) *tonemap.LinearImage {
	t.Helper()
	s := []float32{}
	for _, l := range levels {
		s = append(s, l, l, l, 1)
	}
	img, err := tonemap.NewLinearImage(uint32(len(levels)), 1, s)
	require.NoError(t, err)
	return img
}

func TestLuminance(t *testing.T) {
	assert.InDelta(t, 1.0, Luminance(1, 1, 1), 1e-3)
	assert.InDelta(t, 0.2126, Luminance(1, 0, 0), 2e-3)
	assert.InDelta(t, 0.7152, Luminance(0, 1, 0), 2e-3)
	assert.InDelta(t, 0.0, Luminance(0, 0, 0), 1e-9)
}

func TestCompute(t *testing.T) {
	img := grey(t, 0, 1, 2, 3, 4)

	s, err := Compute(img)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), s.Width)
	assert.Equal(t, uint32(1), s.Height)
	assert.InDelta(t, 0, s.MinLum, 1e-3)
	assert.InDelta(t, 4, s.MaxLum, 1e-2)
	assert.InDelta(t, 2, s.MeanLum, 1e-2)
	assert.InDelta(t, math.Sqrt(2.5), s.StdDevLum, 1e-2)
	assert.InDelta(t, 2, s.P50Lum, 0.05)
	assert.InDelta(t, 4, s.P99Lum, 0.05)
	assert.Equal(t, float32(4), s.MaxChannel)
	assert.Zero(t, s.NonFinite)
	assert.Zero(t, s.Negative)
	assert.Contains(t, s.String(), "5x1")
}

func TestComputeSkipsBadSamples(t *testing.T) {
	img, err := tonemap.NewLinearImage(3, 1, []float32{
		float32(math.NaN()), 1, 1, 1,
		-1, 0.5, 0.5, 1,
		0.5, 0.5, 0.5, 1,
	})
	require.NoError(t, err)

	s, err := Compute(img)
	require.NoError(t, err)
	assert.Equal(t, 1, s.NonFinite)
	assert.Equal(t, 1, s.Negative)
	assert.False(t, math.IsNaN(s.MeanLum))
	assert.Equal(t, float32(1), s.MaxChannel)
}

func TestComputeAllNonFinite(t *testing.T) {
	inf := float32(math.Inf(1))
	img, err := tonemap.NewLinearImage(1, 1, []float32{inf, inf, inf, 1})
	require.NoError(t, err)

	s, err := Compute(img)
	require.NoError(t, err)
	assert.Equal(t, 3, s.NonFinite)
	assert.Zero(t, s.MinLum)
	assert.Zero(t, s.MaxLum)
}

func TestComputeVeryBright(t *testing.T) {
	s, err := Compute(grey(t, 1, 1e20))
	require.NoError(t, err)
	assert.InEpsilon(t, 1e20, s.MaxLum, 1e-2)
	assert.InDelta(t, 1, s.P50Lum, 0.01)
	assert.InEpsilon(t, histogramMaxLum, s.P99Lum, 1e-2, "percentiles saturate")
	assert.Equal(t, float32(1e20), s.MaxChannel)
}

func TestComputeSinglePixel(t *testing.T) {
	s, err := Compute(grey(t, 0.25))
	require.NoError(t, err)
	assert.Zero(t, s.StdDevLum)
	assert.InDelta(t, 0.25, s.MeanLum, 1e-3)
}

func TestComputeInvalid(t *testing.T) {
	_, err := Compute(&tonemap.LinearImage{})
	assert.ErrorIs(t, err, tonemap.ErrInvalidParameter)
}

func TestStatsZerologObject(t *testing.T) {
	s, err := Compute(grey(t, 1, 3))
	require.NoError(t, err)

	var buf bytes.Buffer
	l := zerolog.New(&buf)
	l.Info().Object("stats", s).Msg("loaded")
	assert.Contains(t, buf.String(), `"lum_max":`)
	assert.Contains(t, buf.String(), `"max_channel":3`)
}
