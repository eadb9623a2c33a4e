package fattal02

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// The Poisson solver from pde_fft.cpp in PFSTMO. The C++ version plans a 2D
// FFTW_REDFT00 transform; that is a DCT-I along each axis, which is what
// gonum's fourier.DCT computes, so we run it over the rows then the columns.

// dct2 returns the unnormalized 2D DCT-I of g. Both dimensions must be at
// least 2.
func dct2(g Grid) Grid {
	width, height := g.Dx(), g.Dy()
	out := g.NewFromThis()

	rows := fourier.NewDCT(width)
	for y := 0; y < height; y++ {
		rows.Transform(out.row(y), g.row(y))
	}

	cols := fourier.NewDCT(height)
	src := make([]float64, height)
	dst := make([]float64, height)
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			src[y] = out.Get(x, y)
		}
		cols.Transform(dst, src)
		for y := 0; y < height; y++ {
			out.Set(x, y, dst[y])
		}
	}

	return out
}

// transformEV2Normal returns T = EVy A EVx^tr. A is modified.
func transformEV2Normal(A Grid) Grid {
	width, height := A.Dx(), A.Dy()

	// the DCT is not exactly the transform we need, scale the input to suit
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			A.Set(x, y, A.Get(x, y)*0.25)
		}
	}
	for x := 1; x < width-1; x++ {
		A.Set(x, 0, A.Get(x, 0)*0.5)
		A.Set(x, height-1, A.Get(x, height-1)*0.5)
	}
	for y := 1; y < height-1; y++ {
		A.Set(0, y, A.Get(0, y)*0.5)
		A.Set(width-1, y, A.Get(width-1, y)*0.5)
	}

	return dct2(A)
}

// transformNormal2EV returns T = EVy^-1 A (EVx^-1)^tr.
func transformNormal2EV(A Grid) Grid {
	width, height := A.Dx(), A.Dy()
	T := dct2(A)

	// and scale the output to get the right transform
	scale := 1.0 / float64((height-1)*(width-1))
	for i := range T.values {
		T.values[i] *= scale
	}
	for x := 0; x < width; x++ {
		T.Set(x, 0, T.Get(x, 0)*0.5)
		T.Set(x, height-1, T.Get(x, height-1)*0.5)
	}
	for y := 0; y < height; y++ {
		T.Set(0, y, T.Get(0, y)*0.5)
		T.Set(width-1, y, T.Get(width-1, y)*0.5)
	}

	return T
}

// lambda returns the eigenvalues of the 1D laplace operator.
func lambda(n int) []float64 {
	v := make([]float64, n)
	for i := range v {
		u := math.Sin(float64(i) / float64(2*(n-1)) * math.Pi)
		v[i] = -4.0 * u * u
	}
	return v
}

// makeCompatibleBoundary shifts the boundary of F so that its integral is
// zero, which the Neumann problem needs for a solution to exist.
func makeCompatibleBoundary(F Grid) {
	width, height := F.Dx(), F.Dy()

	sum := 0.0
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			sum += F.Get(x, y)
		}
	}
	for x := 1; x < width-1; x++ {
		sum += 0.5 * (F.Get(x, 0) + F.Get(x, height-1))
	}
	for y := 1; y < height-1; y++ {
		sum += 0.5 * (F.Get(0, y) + F.Get(width-1, y))
	}
	sum += 0.25 * (F.Get(0, 0) + F.Get(0, height-1) + F.Get(width-1, 0) + F.Get(width-1, height-1))

	add := -1.0 * sum / float64(height+width-3)
	for x := 0; x < width; x++ {
		F.Set(x, 0, F.Get(x, 0)+add)
		F.Set(x, height-1, F.Get(x, height-1)+add)
	}
	for y := 1; y < height-1; y++ {
		F.Set(0, y, F.Get(0, y)+add)
		F.Set(width-1, y, F.Get(width-1, y)+add)
	}
}

// SolvePoisson solves Laplace U = F with Neumann boundary conditions. With
// adjustBound the boundary of F is first modified so that an exact solution
// exists; without it the least error approximation comes back. F may be
// modified. The solution is shifted so its maximum is zero, since callers
// exponentiate it. F must be at least 2x2.
func SolvePoisson(F Grid, adjustBound bool) Grid {
	width, height := F.Dx(), F.Dy()

	if adjustBound {
		makeCompatibleBoundary(F)
	}

	Ftr := transformNormal2EV(F)

	// in eigenvector space the solution is a division
	Utr := Ftr.NewFromThis()
	l1 := lambda(height)
	l2 := lambda(width)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x == 0 && y == 0 {
				continue // any value, it only adds a constant
			}
			Utr.Set(x, y, Ftr.Get(x, y)/(l1[y]+l2[x]))
		}
	}

	U := transformEV2Normal(Utr)

	_, hi := U.Range()
	hi = math.Max(hi, 0)
	for i := range U.values {
		U.values[i] -= hi
	}

	return U
}
