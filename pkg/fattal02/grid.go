package fattal02

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/fogleman/gg"
)

// Mostly cloned from tmo_fattal02.cpp, part of the PFSTMO package.

// A Grid is a single channel of float64s, row major.
type Grid struct {
	stride int
	values []float64
}

func NewGrid(w, h int) Grid {
	return Grid{
		stride: w,
		values: make([]float64, w*h),
	}
}

func (g *Grid) NewFromThis() Grid       { return NewGrid(g.Dx(), g.Dy()) }
func (g *Grid) Set(x, y int, v float64) { g.values[g.stride*y+x] = v }
func (g *Grid) Get(x, y int) float64    { return g.values[g.stride*y+x] }
func (g *Grid) Dx() int                 { return g.stride }
func (g *Grid) Dy() int                 { return len(g.values) / g.stride }
func (g *Grid) row(y int) []float64     { return g.values[y*g.stride : (y+1)*g.stride] }

func (g *Grid) Fill(v float64) {
	for i := range g.values {
		g.values[i] = v
	}
}

func (g *Grid) Copy() Grid {
	g2 := Grid{stride: g.stride, values: make([]float64, len(g.values))}
	copy(g2.values, g.values)
	return g2
}

// GaussianBlur applies a separable [1 2 1]/4 kernel, clamping at the edges.
func (g *Grid) GaussianBlur() Grid {
	width, height := g.Dx(), g.Dy()
	if width < 2 || height < 2 {
		return g.Copy()
	}

	out := g.NewFromThis()
	t := g.NewFromThis()
	for y := 0; y < height; y++ {
		for x := 1; x < width-1; x++ {
			t.Set(x, y, (2.0*g.Get(x, y)+g.Get(x-1, y)+g.Get(x+1, y))/4.0)
		}
		t.Set(0, y, (3.0*g.Get(0, y)+g.Get(1, y))/4.0)
		t.Set(width-1, y, (3.0*g.Get(width-1, y)+g.Get(width-2, y))/4.0)
	}

	for x := 0; x < width; x++ {
		for y := 1; y < height-1; y++ {
			out.Set(x, y, (2.0*t.Get(x, y)+t.Get(x, y-1)+t.Get(x, y+1))/4.0)
		}
		out.Set(x, 0, (3.0*t.Get(x, 0)+t.Get(x, 1))/4.0)
		out.Set(x, height-1, (3.0*t.Get(x, height-1)+t.Get(x, height-2))/4.0)
	}

	return out
}

// Gradients returns the central difference gradient magnitude at each
// point, scaled for pyramid level depth, and the average magnitude.
func (g *Grid) Gradients(depth int) (Grid, float64) {
	out := g.NewFromThis()
	width, height := g.Dx(), g.Dy()
	divider := math.Pow(2.0, float64(depth)+1)
	sum := 0.0

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			w, e := max(x-1, 0), min(x+1, width-1)
			n, s := max(y-1, 0), min(y+1, height-1)

			// assumes H(-1)=H(0); the fft solver wants H(-1)=H(1), but the
			// difference isn't visible
			gx := (g.Get(w, y) - g.Get(e, y)) / divider
			gy := (g.Get(x, s) - g.Get(x, n)) / divider

			out.Set(x, y, math.Sqrt(gx*gx+gy*gy))
			sum += out.Get(x, y)
		}
	}

	return out, sum / float64(width*height)
}

// DownSample returns a grid half the size in each dimension, each value the
// mean of a 2x2 block.
func (g *Grid) DownSample() Grid {
	width, height := max(g.Dx()/2, 1), max(g.Dy()/2, 1)
	out := NewGrid(width, height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			x1, y1 := min(2*x+1, g.Dx()-1), min(2*y+1, g.Dy()-1)
			p := g.Get(2*x, 2*y) + g.Get(x1, 2*y) + g.Get(2*x, y1) + g.Get(x1, y1)
			out.Set(x, y, p/4.0)
		}
	}

	return out
}

// UpSampleInto fills dst, assumed about twice the size of g, by copying
// each value of g into a 2x2 block.
func (g *Grid) UpSampleInto(dst *Grid) {
	for y := 0; y < dst.Dy(); y++ {
		for x := 0; x < dst.Dx(); x++ {
			dst.Set(x, y, g.Get(min(x/2, g.Dx()-1), min(y/2, g.Dy()-1)))
		}
	}
}

// Percentiles returns the values at the lo and hi fractions of the sorted
// non-zero values.
func (g *Grid) Percentiles(lo, hi float64) (float64, float64) {
	vals := []float64{}
	for _, v := range g.values {
		if v != 0.0 {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0, 0
	}
	sort.Float64s(vals)

	iMin := max(int(lo*float64(len(vals))), 0)
	iMax := min(int(hi*float64(len(vals))), len(vals)-1)
	return vals[iMin], vals[iMax]
}

func (g *Grid) Range() (lo, hi float64) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range g.values {
		lo, hi = math.Min(lo, v), math.Max(hi, v)
	}
	return lo, hi
}

func (g *Grid) String() string {
	lo, hi := g.Range()
	return fmt.Sprintf("grid[%dx%d, vals{%f,%f}]", g.Dx(), g.Dy(), lo, hi)
}

// ToImage renders the grid as gamma corrected greyscale across its own
// range, with the title written in the corner.
func (g *Grid) ToImage(title string) image.Image {
	lo, hi := g.Range()
	span := hi - lo
	if !(span > 0) {
		span = 1
	}

	img := image.NewRGBA64(image.Rect(0, 0, g.Dx(), g.Dy()))
	for y := 0; y < g.Dy(); y++ {
		for x := 0; x < g.Dx(); x++ {
			grey := uint16(gammaExpand((g.Get(x, y)-lo)/span) * 65535.0)
			img.Set(x, y, color.RGBA64{grey, grey, grey, 0xFFFF})
		}
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 0.2, 0.2)
	dc.DrawString(title, 4, 14)
	return dc.Image()
}

// https://www.sjbrown.co.uk/posts/gamma-correct-rendering/ - "linear RGB to sRGB"
func gammaExpand(f float64) float64 {
	if f <= 0.0031308 {
		return 12.92 * f
	}
	return 1.055*math.Pow(f, 1.0/2.4) - 0.055
}
