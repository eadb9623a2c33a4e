package tonemap

import (
	"context"
	"testing"

	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperators(t *testing.T) {
	names := Operators()
	require.NotEmpty(t, names)
	assert.Equal(t, OperatorExposure, names[0])
	assert.ElementsMatch(t, []string{"exposure", "drago03", "durand", "fattal02", "icam06", "linear", "reinhard05"}, names)

	for _, name := range names {
		assert.True(t, IsOperator(name), name)
	}
	assert.False(t, IsOperator("sepia"))
}

func TestApplyExposureMatchesRender(t *testing.T) {
	img := gradient(t, 20, 10, 8)
	factor := NormalizationFactor(img)

	want, err := RenderWithFactor(img, factor, 1.5)
	require.NoError(t, err)

	for _, name := range []string{"", OperatorExposure} {
		got, err := Apply(context.Background(), name, img, factor, 1.5)
		require.NoError(t, err)
		assert.Equal(t, want.Pix, got.Pix)
	}
}

func TestApplyTMOOperators(t *testing.T) {
	img := gradient(t, 24, 16, 40)
	factor := NormalizationFactor(img)

	for _, name := range []string{"fattal02", "linear", "reinhard05"} {
		t.Run(name, func(t *testing.T) {
			out, err := Apply(context.Background(), name, img, factor, 1)
			require.NoError(t, err)
			assert.Equal(t, img.Width, out.Width)
			assert.Equal(t, img.Height, out.Height)
			for i := 3; i < len(out.Pix); i += Channels {
				require.Equal(t, uint8(255), out.Pix[i])
			}
		})
	}
}

func TestApplyErrors(t *testing.T) {
	img := solid(t, 2, 2, 1, 1, 1, 1)

	_, err := Apply(context.Background(), "sepia", img, 1, 1)
	assert.ErrorIs(t, err, ErrUnknownOperator)

	_, err = Apply(context.Background(), "linear", img, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	_, err = Apply(context.Background(), "linear", img, 0.5, 1)
	assert.ErrorIs(t, err, ErrInvalidParameter)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out, err := Apply(ctx, "durand", img, 1, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, out)
}

func TestLinearImageIsHDRImage(t *testing.T) {
	img, err := NewLinearImage(2, 1, []float32{1.5, 2, 3, 1, 0, 0.25, 0, 1})
	require.NoError(t, err)

	assert.Equal(t, 2, img.Size())
	assert.Equal(t, hdrcolor.RGB{R: 1.5, G: 2, B: 3}, img.HDRAt(0, 0))
	assert.Equal(t, hdrcolor.RGB{G: 0.25}, img.At(1, 0))
	assert.Equal(t, hdrcolor.RGB{}, img.HDRAt(5, 5), "out of bounds")
}
