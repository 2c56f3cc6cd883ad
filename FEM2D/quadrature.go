package FEM2D

import (
	"fmt"
	"math"
)

// QuadratureRule integrates over the reference triangle (0,0), (1,0), (0,1), whose area is 1/2
type QuadratureRule struct {
	Degree int
	R, S   []float64
	W      []float64
}

func (qr *QuadratureRule) NumPoints() int { return len(qr.W) }

// NewTriangleQuadrature returns the Dunavant rule of the lowest tabulated degree >= degree
func NewTriangleQuadrature(degree int) (qr *QuadratureRule) {
	qr = &QuadratureRule{}
	addOrbit3 := func(a, w float64) {
		b := 1 - 2*a
		qr.R = append(qr.R, a, b, a)
		qr.S = append(qr.S, a, a, b)
		qr.W = append(qr.W, 0.5*w, 0.5*w, 0.5*w)
	}
	switch {
	case degree <= 1:
		qr.Degree = 1
		qr.R, qr.S, qr.W = []float64{1. / 3}, []float64{1. / 3}, []float64{0.5}
	case degree == 2:
		qr.Degree = 2
		addOrbit3(1./6, 1./3)
	case degree <= 4:
		qr.Degree = 4
		addOrbit3(0.445948490915965, 0.223381589678011)
		addOrbit3(0.091576213509771, 0.109951743655322)
	case degree == 5:
		qr.Degree = 5
		qr.R, qr.S, qr.W = []float64{1. / 3}, []float64{1. / 3}, []float64{0.5 * 0.225}
		addOrbit3(0.470142064105115, 0.132394152788506)
		addOrbit3(0.101286507323456, 0.125939180544827)
	default:
		panic(fmt.Errorf("no triangle quadrature tabulated for degree %d", degree))
	}
	return
}

// LineQuadrature integrates over the unit interval [0,1]
type LineQuadrature struct {
	T, W []float64
}

// NewLineQuadrature returns Gauss-Legendre points, exact for polynomials of degree 2*n-1
func NewLineQuadrature(n int) (lq *LineQuadrature) {
	lq = &LineQuadrature{}
	switch n {
	case 1:
		lq.T, lq.W = []float64{0.5}, []float64{1}
	case 2:
		d := 0.5 / math.Sqrt(3)
		lq.T, lq.W = []float64{0.5 - d, 0.5 + d}, []float64{0.5, 0.5}
	case 3:
		d := 0.5 * math.Sqrt(0.6)
		lq.T, lq.W = []float64{0.5 - d, 0.5, 0.5 + d}, []float64{5. / 18, 8. / 18, 5. / 18}
	case 4:
		var (
			x = [2]float64{0.3399810435848563, 0.8611363115940526}
			w = [2]float64{0.6521451548625461, 0.3478548451374538}
		)
		lq.T = []float64{0.5 * (1 - x[1]), 0.5 * (1 - x[0]), 0.5 * (1 + x[0]), 0.5 * (1 + x[1])}
		lq.W = []float64{0.5 * w[1], 0.5 * w[0], 0.5 * w[0], 0.5 * w[1]}
	default:
		panic(fmt.Errorf("no line quadrature tabulated for %d points", n))
	}
	return
}
