package tonemap

import (
	"math"
	"sync"
)

// MaxChannel returns the largest finite R, G or B sample in the image, or 0
// when there is none. Alpha is never looked at.
func MaxChannel(img *LinearImage) float32 {
	if img == nil {
		return 0
	}
	m := float32(0)
	s := img.Samples
	for i := 0; i+2 < len(s); i += Channels {
		for _, v := range s[i : i+3] {
			if v > m && !math.IsInf(float64(v), 1) {
				m = v
			}
		}
	}
	return m
}

// NormalizationFactor is the divisor applied to every sample before
// exposure: the brightest R/G/B sample, floored at 1.0 so that images that
// already sit in [0,1] are not brightened. NaN and +Inf samples don't take
// part in the scan.
func NormalizationFactor(img *LinearImage) float32 {
	if m := MaxChannel(img); m > 1 {
		return m
	}
	return 1
}

// A FactorCache remembers the normalization factor for the image currently
// on display, so that exposure-only changes skip the full scan. It holds a
// single entry, keyed by image identity (pointer); looking up any other
// image replaces it.
type FactorCache struct {
	mu     sync.Mutex
	img    *LinearImage
	factor float32
	hits   int
	misses int
}

func NewFactorCache() *FactorCache { return &FactorCache{} }

// Factor returns the cached factor for img, scanning it on a miss.
func (c *FactorCache) Factor(img *LinearImage) float32 {
	c.mu.Lock()
	defer c.mu.Unlock()

	if img != nil && c.img == img {
		c.hits++
		return c.factor
	}

	c.misses++
	c.img = img
	c.factor = NormalizationFactor(img)
	return c.factor
}

// Reset drops the cached entry; call it when a new image is loaded.
func (c *FactorCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.img = nil
	c.factor = 0
}

// Stats returns the hit and miss counts since creation.
func (c *FactorCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
