package FEM2D

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLagrangeBasis(t *testing.T) {
	for _, order := range []int{1, 2} {
		var (
			lb     = NewLagrangeBasis(order)
			phi    = make([]float64, lb.Np)
			dr, ds = make([]float64, lb.Np), make([]float64, lb.Np)
		)
		// Kronecker property at the nodes
		for j := 0; j < lb.Np; j++ {
			lb.Eval(lb.RNodes[j], lb.SNodes[j], phi)
			for i := 0; i < lb.Np; i++ {
				want := 0.
				if i == j {
					want = 1
				}
				assert.InDelta(t, want, phi[i], 1.e-14)
			}
		}
		// Partition of unity and zero gradient sum at an interior point
		lb.Eval(0.2, 0.3, phi)
		lb.Grad(0.2, 0.3, dr, ds)
		var sum, sumR, sumS float64
		for i := 0; i < lb.Np; i++ {
			sum += phi[i]
			sumR += dr[i]
			sumS += ds[i]
		}
		assert.InDelta(t, 1., sum, 1.e-14)
		assert.InDelta(t, 0., sumR, 1.e-14)
		assert.InDelta(t, 0., sumS, 1.e-14)
		// Gradients against central differences
		h := 1.e-6
		pp, pm := make([]float64, lb.Np), make([]float64, lb.Np)
		lb.Eval(0.2+h, 0.3, pp)
		lb.Eval(0.2-h, 0.3, pm)
		for i := 0; i < lb.Np; i++ {
			assert.InDelta(t, (pp[i]-pm[i])/(2*h), dr[i], 1.e-8)
		}
	}
	assert.Panics(t, func() { NewLagrangeBasis(3) })
}

func TestQuadrature(t *testing.T) {
	// Integral of r^a s^b over the reference triangle is a! b! / (a+b+2)!
	fact := func(n int) float64 {
		f := 1.
		for i := 2; i <= n; i++ {
			f *= float64(i)
		}
		return f
	}
	for _, degree := range []int{1, 2, 4, 5} {
		qr := NewTriangleQuadrature(degree)
		for a := 0; a <= degree; a++ {
			for b := 0; a+b <= degree; b++ {
				var sum float64
				for q := 0; q < qr.NumPoints(); q++ {
					sum += qr.W[q] * math.Pow(qr.R[q], float64(a)) * math.Pow(qr.S[q], float64(b))
				}
				assert.InDelta(t, fact(a)*fact(b)/fact(a+b+2), sum, 1.e-12, "degree %d, a=%d, b=%d", degree, a, b)
			}
		}
	}
	for n := 1; n <= 4; n++ {
		lq := NewLineQuadrature(n)
		for p := 0; p < 2*n; p++ {
			var sum float64
			for i := range lq.T {
				sum += lq.W[i] * math.Pow(lq.T[i], float64(p))
			}
			assert.InDelta(t, 1./float64(p+1), sum, 1.e-13)
		}
	}
}

func TestFunctionSpace(t *testing.T) {
	tmesh := NewRectangleMesh(2, 1, 2, 1)
	{
		fs := NewFunctionSpace(tmesh, 1)
		assert.Equal(t, 6, fs.NumNodes)
		assert.Equal(t, 3, fs.Np())
		assert.Equal(t, []int{0, 3}, fs.BoundaryNodes(RectangleLeft))
	}
	{
		fs := NewFunctionSpace(tmesh, 2)
		assert.Equal(t, 15, fs.NumNodes)
		assert.Equal(t, 6, fs.Np())
		// Left side has its two vertices and one face node
		assert.Equal(t, 3, len(fs.BoundaryNodes(RectangleLeft)))
		for _, n := range fs.BoundaryNodes(RectangleLeft) {
			assert.InDelta(t, 0., fs.NodeX[n], 1.e-14)
		}
		// Element areas sum to the domain area
		var area float64
		for k := 0; k < fs.NumElements(); k++ {
			for q := 0; q < fs.NumQuadPoints(); q++ {
				area += fs.WeightAt(k, q)
			}
		}
		assert.InDelta(t, 2., area, 1.e-13)
	}
}

func TestFields(t *testing.T) {
	var (
		tmesh = NewRectangleMesh(3, 2, 3, 2)
		fs    = NewFunctionSpace(tmesh, 2)
		dx    = make([]float64, fs.Np())
		dy    = make([]float64, fs.Np())
	)
	// Quadratics are reproduced exactly by P2
	f := Interpolate(fs, func(x, y float64) float64 { return x*x + 2*x*y - y })
	for k := 0; k < fs.NumElements(); k++ {
		for q := 0; q < fs.NumQuadPoints(); q++ {
			x, y := fs.PointAt(k, q)
			assert.InDelta(t, x*x+2*x*y-y, f.ValueAt(k, q), 1.e-12)
			gx, gy := f.GradAt(k, q, dx, dy)
			assert.InDelta(t, 2*x+2*y, gx, 1.e-12)
			assert.InDelta(t, 2*x-1, gy, 1.e-12)
		}
	}
	one := ConstantField(fs, 1)
	assert.InDelta(t, 6., one.Integrate(), 1.e-12)
	assert.InDelta(t, math.Sqrt(6.), one.Norm(), 1.e-12)

	u := InterpolateVector(fs, func(x, y float64) (float64, float64) { return 2 * x, -y })
	G := u.GradAt(1, 0, dx, dy)
	assert.InDeltaSlice(t, []float64{2, 0, 0, -1}, []float64{G[0][0], G[0][1], G[1][0], G[1][1]}, 1.e-12)
	assert.InDelta(t, 2*fs.NodeX[4], u.Component(0).Data[4], 1.e-14)

	w := u.Add(u).AXPY(-1, u).Scale(2)
	assert.InDeltaSlice(t, u.Scale(2).Data, w.Data, 1.e-14)

	d := NewDualVectorField(fs)
	d.Data[0], d.Data[3] = 3, 4
	assert.InDelta(t, 5., d.Norm(), 1.e-14)
	assert.InDelta(t, 3*u.Data[0]+4*u.Data[3], d.Apply(u), 1.e-14)

	other := NewFunctionSpace(tmesh, 1)
	assert.Panics(t, func() { f.Add(ConstantField(other, 1)) })
}
