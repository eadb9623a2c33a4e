package decode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"image"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mrjoshuak/go-openexr/exr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abworrall/hdr-gallery/pkg/tonemap"
)

func TestSupported(t *testing.T) {
	for _, name := range []string{"a.exr", "B.EXR", "dir/c.hdr", "d.pic", "e.pfm"} {
		assert.True(t, Supported(name), name)
	}
	for _, name := range []string{"a.png", "b", "c.exr.bak", ".yaml"} {
		assert.False(t, Supported(name), name)
	}
}

func TestDecodeRGBERoundTrip(t *testing.T) {
	src, err := tonemap.NewLinearImage(2, 2, []float32{
		2.0, 0.5, 0.25, 1,
		1.0, 1.0, 1.0, 1,
		0, 0, 0, 1,
		8.0, 4.0, 0, 1,
	})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "roundtrip.hdr")
	require.NoError(t, WriteHDR(path, src))

	got, err := DecodeFile(path)
	require.NoError(t, err)
	require.Equal(t, src.Width, got.Width)
	require.Equal(t, src.Height, got.Height)
	for i := range src.Samples {
		assert.InDelta(t, src.Samples[i], got.Samples[i], 0.05*math.Max(1, float64(src.Samples[i])), "sample %d", i)
	}
	assert.Equal(t, float32(8), tonemap.NormalizationFactor(got))
}

func TestDecodePFM(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("PF\n2 1\n-1.0\n")
	for _, v := range []float32{3, 0.5, 0, 0, 1.5, 0.25} {
		require.NoError(t, binary.Write(&buf, binary.LittleEndian, v))
	}

	got, err := Decode("tiny.pfm", &buf)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), got.Width)
	assert.Equal(t, uint32(1), got.Height)
	want := []float32{3, 0.5, 0, 1, 0, 1.5, 0.25, 1}
	for i := range want {
		assert.InDelta(t, want[i], got.Samples[i], 1e-6, "sample %d", i)
	}
}

func TestDecodeEXR(t *testing.T) {
	src := exr.NewRGBAImage(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			src.SetRGBA(x, y, float32(x), float32(y)*2, 0.5, 1)
		}
	}

	path := filepath.Join(t.TempDir(), "gradient.exr")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, exr.Encode(f, src))
	require.NoError(t, f.Close())

	got, err := DecodeFile(path)
	require.NoError(t, err)
	require.Equal(t, uint32(3), got.Width)
	require.Equal(t, uint32(2), got.Height)

	i := (1*3 + 2) * tonemap.Channels // pixel (2,1)
	assert.InDelta(t, 2.0, got.Samples[i], 1e-3)
	assert.InDelta(t, 2.0, got.Samples[i+1], 1e-3)
	assert.InDelta(t, 0.5, got.Samples[i+2], 1e-3)
	assert.InDelta(t, 1.0, got.Samples[i+3], 1e-3)
	assert.Equal(t, float32(2), tonemap.NormalizationFactor(got))
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		msg  string
	}{
		{"photo.png", "\x89PNG", "unsupported file type"},
		{"empty.exr", "", "empty file"},
		{"junk.exr", "definitely not an exr file", ""},
		{"junk.hdr", "#?NOPE\n\n", ""},
		{"junk.pfm", "P7\n1 1\n", ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img, err := Decode(tc.name, strings.NewReader(tc.data))
			require.Error(t, err)
			assert.Nil(t, img)

			var de *tonemap.DecodeError
			require.True(t, errors.As(err, &de), "got %T", err)
			assert.Equal(t, tc.name, de.Path)
			assert.NotEmpty(t, de.Msg)
			assert.Contains(t, de.Msg, tc.msg)
		})
	}
}

func TestDecodeFileMissing(t *testing.T) {
	_, err := DecodeFile(filepath.Join(t.TempDir(), "nope.exr"))
	var de *tonemap.DecodeError
	require.ErrorAs(t, err, &de)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEncodeRGBERejectsInvalidImage(t *testing.T) {
	err := EncodeRGBE(&bytes.Buffer{}, &tonemap.LinearImage{})
	assert.ErrorIs(t, err, tonemap.ErrInvalidParameter)
}
