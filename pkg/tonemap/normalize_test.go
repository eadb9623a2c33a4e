package tonemap

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizationFactor(t *testing.T) {
	tests := []struct {
		name    string
		samples []float32
		want    float32
	}{
		{"all zero", []float32{0, 0, 0, 0}, 1},
		{"below one", []float32{0.5, 0.1, 0.2, 1}, 1},
		{"above one in blue", []float32{0.5, 0.1, 6.25, 1}, 6.25},
		{"alpha is ignored", []float32{0.5, 0.1, 0.2, 99}, 1},
		{"negative only", []float32{-5, -1, -2, 1}, 1},
		{"nan ignored", []float32{float32(math.NaN()), 3, 0, 1}, 3},
		{"inf ignored", []float32{float32(math.Inf(1)), 3, 0, 1}, 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img, err := NewLinearImage(1, 1, tc.samples)
			require.NoError(t, err)
			assert.Equal(t, tc.want, NormalizationFactor(img))
		})
	}
}

func TestMaxChannel(t *testing.T) {
	img, err := NewLinearImage(2, 1, []float32{0.5, 0.25, 0, 7, 0.75, 0, 0, 9})
	require.NoError(t, err)
	assert.Equal(t, float32(0.75), MaxChannel(img))
	assert.Equal(t, float32(0), MaxChannel(nil))
}

func TestFactorCache(t *testing.T) {
	c := NewFactorCache()
	a := solid(t, 4, 4, 3, 0, 0, 1)
	b := solid(t, 4, 4, 0.2, 0, 0, 1)

	assert.Equal(t, float32(3), c.Factor(a))
	assert.Equal(t, float32(3), c.Factor(a))
	hits, misses := c.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 1, misses)

	// A new image replaces the entry.
	assert.Equal(t, float32(1), c.Factor(b))
	assert.Equal(t, float32(3), c.Factor(a))
	hits, misses = c.Stats()
	assert.Equal(t, 1, hits)
	assert.Equal(t, 3, misses)

	c.Reset()
	assert.Equal(t, float32(3), c.Factor(a))
	_, misses = c.Stats()
	assert.Equal(t, 4, misses)
}

func TestFactorCacheConcurrent(t *testing.T) {
	c := NewFactorCache()
	img := gradient(t, 32, 32, 5)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, float32(5), c.Factor(img))
		}()
	}
	wg.Wait()

	hits, misses := c.Stats()
	assert.Equal(t, 16, hits+misses)
	assert.Equal(t, 1, misses)
}
