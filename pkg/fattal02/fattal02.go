// Package fattal02 implements Fattal '02, "Gradient Domain High Dynamic
// Range Compression", as an mdouchement/hdr/tmo.ToneMappingOperator.
//
// Large gradients in log luminance are attenuated across a gaussian
// pyramid, and the result is integrated back by solving a Poisson equation
// in the DCT domain.
package fattal02

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/mdouchement/hdr/tmo"
)

// Fattal02 is a port of the C++ implementation from the PFSTMO package.
type Fattal02 struct {
	// Algo parameters
	DetailLevel int
	Noise       float64
	Alpha       float64
	Beta        float64
	Gamma       float64
	BlackPoint  float64
	WhitePoint  float64
	Saturation  float64

	GammaExpand bool   // sRGB gamma expansion on the output
	DumpDir     string // if set, greyscale PNGs of the intermediate grids go here

	Input  hdr.Image
	Output image.Image

	// Single channel intermediates, all luminance, in the order computed.
	logLuminance Grid    // H, log(lum)
	pyramid      []Grid  // gaussian pyramid of H
	gradients    []Grid  // gradient magnitudes per pyramid level
	avgGrad      []float64
	attenuation  Grid // PHI
	divG         Grid
	u            Grid // solution of laplace(U) = divG
	outputLum    Grid // L = exp(U), renormalized
}

var _ tmo.ToneMappingOperator = (*Fattal02)(nil)

func (f02 *Fattal02) Width() int     { return f02.Input.Bounds().Dx() }
func (f02 *Fattal02) Height() int    { return f02.Input.Bounds().Dy() }
func (f02 *Fattal02) NumLevels() int { return len(f02.pyramid) }

func NewDefaultFattal02(img hdr.Image) *Fattal02 {
	return &Fattal02{
		// The PFSTMO defaults for the FFT solver, see
		// https://www.mankier.com/1/pfstmo_fattal02
		DetailLevel: 3,
		Noise:       0.002,
		Alpha:       1.0,
		Beta:        0.9,
		Gamma:       0.8,
		BlackPoint:  0.1,
		WhitePoint:  0.5,
		Saturation:  0.8,

		Input: img,
	}
}

// Perform implements tmo.ToneMappingOperator.
func (f02 *Fattal02) Perform() image.Image {
	f02.createLogLuminance()

	if f02.Width() < 2 || f02.Height() < 2 {
		// Nothing to integrate over; the log luminance stands in for U.
		f02.u = f02.logLuminance.Copy()
	} else {
		f02.createGaussianPyramid()
		f02.calculateGradients()
		f02.calculateAttenuation()
		f02.calculateDivergence()
		f02.u = SolvePoisson(f02.divG.Copy(), false)
	}
	f02.dump(f02.u, "solved-PDE", "006-solved-PDE.png")

	f02.createExponentiatedLuminance()
	f02.fillOutputImage()
	return f02.Output
}

func (f02 *Fattal02) dump(g Grid, title, filename string) {
	if f02.DumpDir == "" {
		return
	}
	w, err := os.Create(filepath.Join(f02.DumpDir, filename))
	if err != nil {
		return
	}
	defer w.Close()
	_ = png.Encode(w, g.ToImage(title))
}

func luminance(c hdrcolor.Color) float64 {
	_, y, _, _ := hdrcolor.XYZModel.Convert(c).(hdrcolor.Color).HDRXYZA()
	return y
}

func (f02 *Fattal02) createLogLuminance() {
	bounds := f02.Input.Bounds()
	lum := NewGrid(bounds.Dx(), bounds.Dy())

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			lum.Set(x, y, luminance(f02.Input.HDRAt(bounds.Min.X+x, bounds.Min.Y+y)))
		}
	}

	minLum, maxLum := lum.Range()
	span := maxLum - minLum
	if !(span > 0) {
		span = 1
	}

	H := lum.NewFromThis()
	for i, l := range lum.values {
		H.values[i] = math.Log(100.0*(l-minLum)/span + 0.0001) // black = log(0.0001) = -9.2
	}

	f02.dump(lum, "luminance", "001-luminance.png")
	f02.dump(H, "log(luminance)", "001-logLuminance.png")
	f02.logLuminance = H
}

func (f02 *Fattal02) createGaussianPyramid() {
	nLevels := 0
	for minDim := min(f02.Width(), f02.Height()); minDim >= 8; minDim /= 2 {
		nLevels++
	}
	nLevels = max(nLevels, 1)

	pyramid := make([]Grid, nLevels)
	pyramid[0] = f02.logLuminance.Copy()
	for k := 1; k < nLevels; k++ {
		blurred := pyramid[k-1].GaussianBlur()
		pyramid[k] = blurred.DownSample()
		f02.dump(pyramid[k], "", fmt.Sprintf("002-pyramid%02d.png", k))
	}

	f02.pyramid = pyramid
}

func (f02 *Fattal02) calculateGradients() {
	f02.gradients = make([]Grid, f02.NumLevels())
	f02.avgGrad = make([]float64, f02.NumLevels())

	for k := range f02.pyramid {
		f02.gradients[k], f02.avgGrad[k] = f02.pyramid[k].Gradients(k)
		f02.dump(f02.gradients[k], "", fmt.Sprintf("003-gradient%02d.png", k))
	}
}

func (f02 *Fattal02) calculateAttenuation() {
	nLevels := f02.NumLevels()
	phi := make([]Grid, nLevels)

	phi[nLevels-1] = f02.gradients[nLevels-1].NewFromThis()
	phi[nLevels-1].Fill(1.0)

	// walk down from the coarsest level
	for k := nLevels - 1; k >= 0; k-- {
		// only attenuate levels >= DetailLevel, but always the coarsest
		if k >= f02.DetailLevel || k == nLevels-1 {
			a := f02.Alpha * f02.avgGrad[k]
			for y := 0; y < phi[k].Dy(); y++ {
				for x := 0; x < phi[k].Dx(); x++ {
					grad := f02.gradients[k].Get(x, y)
					value := 1.0
					if grad > 1e-4 && a > 0 {
						value = a / (grad + f02.Noise) * math.Pow((grad+f02.Noise)/a, f02.Beta)
					}
					phi[k].Set(x, y, phi[k].Get(x, y)*value)
				}
			}
		}

		if k > 0 {
			up := f02.gradients[k-1].NewFromThis()
			phi[k].UpSampleInto(&up)
			phi[k-1] = up.GaussianBlur()
		}

		f02.dump(phi[k], "", fmt.Sprintf("004-attenuation%02d.png", k))
	}

	f02.attenuation = phi[0]
}

func (f02 *Fattal02) calculateDivergence() {
	width, height := f02.Width(), f02.Height()
	H, PHI := f02.logLuminance, f02.attenuation
	Gx, Gy := H.NewFromThis(), H.NewFromThis()

	// the fft solver assumes U(-1) = U(1) where zero Neumann conditions
	// would have U(-1) = U(0), so the right hand side is assembled to suit
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			yp1, xp1 := y+1, x+1
			if yp1 >= height {
				yp1 = height - 2
			}
			if xp1 >= width {
				xp1 = width - 2
			}

			// forward differences in H, so PHI is taken between the points
			Gx.Set(x, y, (H.Get(xp1, y)-H.Get(x, y))*0.5*(PHI.Get(xp1, y)+PHI.Get(x, y)))
			Gy.Set(x, y, (H.Get(x, yp1)-H.Get(x, y))*0.5*(PHI.Get(x, yp1)+PHI.Get(x, y)))
		}
	}

	divG := H.NewFromThis()
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			val := Gx.Get(x, y) + Gy.Get(x, y)
			if x > 0 {
				val -= Gx.Get(x-1, y)
			} else {
				val += Gx.Get(x, y)
			}
			if y > 0 {
				val -= Gy.Get(x, y-1)
			} else {
				val += Gy.Get(x, y)
			}
			divG.Set(x, y, val)
		}
	}

	f02.dump(divG, "divG", "005-divG.png")
	f02.divG = divG
}

func (f02 *Fattal02) createExponentiatedLuminance() {
	L := f02.u.NewFromThis()
	for i, u := range f02.u.values {
		L.values[i] = math.Exp(f02.Gamma*u) - 1e-4
	}

	// cut the black and white point percentiles, and renormalize
	minLum, maxLum := L.Percentiles(0.01*f02.BlackPoint, 1.0-0.01*f02.WhitePoint)
	span := maxLum - minLum
	if !(span > 0) {
		span = 1
	}
	for i, l := range L.values {
		v := (l - minLum) / span
		if !(v > 0) {
			v = 1e-4
		}
		L.values[i] = v
	}

	f02.dump(L, "exponentiated", "007-exponentiated.png")
	f02.outputLum = L
}

// fillOutputImage rebuilds colour from the new luminance:
// C_out = (C_in / L_before)^s * L_after
func (f02 *Fattal02) fillOutputImage() {
	const epsilon = 1e-4
	bounds := f02.Input.Bounds()
	out := image.NewRGBA64(bounds)

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			in := f02.Input.HDRAt(bounds.Min.X+x, bounds.Min.Y+y)
			r, g, b, _ := in.HDRRGBA()
			before := math.Max(luminance(in), epsilon)
			after := math.Max(f02.outputLum.Get(x, y), epsilon)

			c := [3]float64{}
			for i, v := range [3]float64{r, g, b} {
				c[i] = math.Pow(math.Max(v/before, 0.0), f02.Saturation) * after
				if f02.GammaExpand {
					c[i] = gammaExpand(c[i])
				}
				c[i] = math.Min(math.Max(c[i], 0), 1.0) // else high values wrap around
			}

			out.Set(bounds.Min.X+x, bounds.Min.Y+y, color.RGBA64{
				R: uint16(c[0] * 0xFFFF),
				G: uint16(c[1] * 0xFFFF),
				B: uint16(c[2] * 0xFFFF),
				A: 0xFFFF,
			})
		}
	}

	f02.Output = out
}
