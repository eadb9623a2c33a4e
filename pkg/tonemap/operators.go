package tonemap

import (
	"context"
	"fmt"
	"image"
	"math"
	"sort"

	"github.com/mdouchement/hdr"
	"github.com/mdouchement/hdr/hdrcolor"
	"github.com/mdouchement/hdr/tmo"
	"golang.org/x/image/draw"

	"github.com/abworrall/hdr-gallery/pkg/fattal02"
)

// OperatorExposure is the normalize-then-expose pipeline of RenderContext.
// It is the default, and the only operator whose output is specified
// byte for byte.
const OperatorExposure = "exposure"

// The rest are mdouchement/hdr/tmo operators, plus fattal02. They get the
// normalized, exposure-scaled image as input and pick their own white
// point, so exposure acts on them more like a bias than a gain.
var tmoOperators = map[string]func(hdr.Image) tmo.ToneMappingOperator{
	"drago03":    func(m hdr.Image) tmo.ToneMappingOperator { return tmo.NewDefaultDrago03(m) },
	"durand":     func(m hdr.Image) tmo.ToneMappingOperator { return tmo.NewDefaultDurand(m) },
	"fattal02":   newFattal02,
	"icam06":     func(m hdr.Image) tmo.ToneMappingOperator { return tmo.NewDefaultICam06(m) },
	"linear":     func(m hdr.Image) tmo.ToneMappingOperator { return tmo.NewLinear(m) },
	"reinhard05": func(m hdr.Image) tmo.ToneMappingOperator { return tmo.NewDefaultReinhard05(m) },
}

func newFattal02(m hdr.Image) tmo.ToneMappingOperator {
	op := fattal02.NewDefaultFattal02(m)
	op.GammaExpand = true // comes out too dark otherwise
	return op
}

// Operators lists the names Apply accepts, default first.
func Operators() []string {
	names := []string{}
	for name := range tmoOperators {
		names = append(names, name)
	}
	sort.Strings(names)
	return append([]string{OperatorExposure}, names...)
}

func ListOperators() string { return fmt.Sprintf("%v", Operators()) }

// IsOperator reports whether name is one of Operators().
func IsOperator(name string) bool {
	if name == OperatorExposure {
		return true
	}
	_, exists := tmoOperators[name]
	return exists
}

// Apply tonemaps img with the named operator. The empty name means
// OperatorExposure.
func Apply(ctx context.Context, name string, img *LinearImage, factor, exposure float32, opts ...RenderOption) (*DisplayBuffer, error) {
	if name == "" || name == OperatorExposure {
		return RenderContext(ctx, img, factor, exposure, opts...)
	}

	newOp, exists := tmoOperators[name]
	if !exists {
		return nil, fmt.Errorf("%w %q, want one of %s", ErrUnknownOperator, name, ListOperators())
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	if err := checkExposure(exposure); err != nil {
		return nil, err
	}
	if err := checkFactor(factor); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ldr := newOp(exposed(img, factor, exposure)).Perform()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := newDisplayBuffer(img.Width, img.Height)
	out.Factor = factor
	out.Exposure = exposure
	dst := out.NRGBA()
	draw.Draw(dst, dst.Bounds(), ldr, ldr.Bounds().Min, draw.Src)
	for i := 3; i < len(out.Pix); i += Channels {
		out.Pix[i] = 0xff
	}
	return out, nil
}

// exposed builds the operator input: samples / factor * exposure. NaN and
// negative samples are floored to 0 and +Inf is capped at the factor, since
// the log-domain operators can't cope with them.
func exposed(img *LinearImage, factor, exposure float32) *hdr.RGB {
	m := hdr.NewRGB(img.Bounds())
	f, e := float64(factor), float64(exposure)
	for y := 0; y < int(img.Height); y++ {
		for x := 0; x < int(img.Width); x++ {
			i := (y*int(img.Width) + x) * Channels
			m.SetRGB(x, y, hdrcolor.RGB{
				R: inRange(float64(img.Samples[i]), f) / f * e,
				G: inRange(float64(img.Samples[i+1]), f) / f * e,
				B: inRange(float64(img.Samples[i+2]), f) / f * e,
			})
		}
	}
	return m
}

func inRange(v, hi float64) float64 {
	if !(v > 0) {
		return 0
	}
	return math.Min(v, hi)
}

var _ image.Image = (*LinearImage)(nil)
var _ hdr.Image = (*LinearImage)(nil)
