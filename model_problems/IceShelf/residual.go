package IceShelf

import (
	"math"

	"github.com/notargets/goice/FEM2D"
	"github.com/notargets/goice/utils"
)

/*
Glen's flow law in depth averaged form. With the strain rate e = sym(grad u), the
membrane stress is h 2 nu (e + tr(e) I) where

	2 nu = B(T) e_eff^(1/n - 1),   e_eff^2 = (e:e + tr(e)^2) / 2

The effective strain rate is held at StrainRateMin from below so that both the viscosity
and its derivative stay finite at rest.
*/

// viscousState is the constitutive state at one quadrature point
type viscousState struct {
	strain  [3]float64 // (exx, eyy, exy)
	rate    float64    // effective strain rate after regularization
	clamped bool
	coef    float64 // h B e_eff^(1/n-1)
	coef2   float64 // h B (q/2) e_eff^(q-2), zero when clamped
}

func (is *IceShelf) viscousStateAt(hq, B float64, G [2][2]float64) (vs viscousState) {
	var (
		q   = 1/GlenN - 1
		exy = 0.5 * (G[0][1] + G[1][0])
	)
	vs.strain = [3]float64{G[0][0], G[1][1], exy}
	vs.rate = math.Sqrt(0.5 * strainInner(vs.strain, vs.strain))
	if !(vs.rate >= is.StrainRateMin) {
		vs.rate = is.StrainRateMin
		vs.clamped = true
	}
	vs.coef = hq * B * math.Pow(vs.rate, q)
	if !vs.clamped {
		vs.coef2 = hq * B * 0.5 * q * math.Pow(vs.rate, q-2)
	}
	return
}

// Residual assembles F(phi) = int h 2 nu (e(u) + tr(e(u)) I) : e(phi) dx - tau(phi).
// Entries at constrained degrees of freedom are zero.
func (is *IceShelf) Residual(h, T *FEM2D.Field, u *FEM2D.VectorField,
	tau *FEM2D.DualVectorField) (r *FEM2D.DualVectorField, err error) {
	if err = is.checkSpace([]string{"thickness", "temperature", "velocity", "driving stress"},
		h.Space(), T.Space(), u.Space(), tau.Space()); err != nil {
		return
	}
	fs := is.Space
	r = FEM2D.NewDualVectorField(fs)
	r.Data = is.assembleVector(2*fs.NumNodes, func(k int, buf []float64, sc *elementScratch) {
		nodes := fs.ElementNodes[k]
		for q := 0; q < fs.NumQuadPoints(); q++ {
			var (
				w  = fs.WeightAt(k, q)
				G  = u.GradAt(k, q, sc.dx, sc.dy)
				vs = is.viscousStateAt(h.ValueAt(k, q), Rigidity(T.ValueAt(k, q)), G)
			)
			sc.testStrains()
			for i, n := range nodes {
				buf[2*n] += w * vs.coef * strainInner(vs.strain, sc.strain[2*i])
				buf[2*n+1] += w * vs.coef * strainInner(vs.strain, sc.strain[2*i+1])
			}
		}
	})
	for i := range r.Data {
		r.Data[i] -= tau.Data[i]
	}
	is.constraints.zeroRows(r.Data)
	return
}

// Tangent assembles the Jacobian of the residual with respect to velocity at u.
// It is symmetric, constrained rows and columns hold the identity.
func (is *IceShelf) Tangent(h, T *FEM2D.Field, u *FEM2D.VectorField) (K utils.CSR, err error) {
	if err = is.checkSpace([]string{"thickness", "temperature", "velocity"},
		h.Space(), T.Space(), u.Space()); err != nil {
		return
	}
	var (
		fs = is.Space
		n2 = 2 * fs.Np()
	)
	K = is.assembleTangent(func(k int, sc *elementScratch) {
		for q := 0; q < fs.NumQuadPoints(); q++ {
			var (
				w  = fs.WeightAt(k, q)
				G  = u.GradAt(k, q, sc.dx, sc.dy)
				vs = is.viscousStateAt(h.ValueAt(k, q), Rigidity(T.ValueAt(k, q)), G)
			)
			sc.testStrains()
			for a := 0; a < n2; a++ {
				ea := sc.strain[a]
				sa := strainInner(vs.strain, ea)
				for b := a; b < n2; b++ {
					eb := sc.strain[b]
					val := w * vs.coef * strainInner(eb, ea)
					if !vs.clamped {
						val += w * vs.coef2 * sa * strainInner(vs.strain, eb)
					}
					sc.Ke[a*n2+b] += val
					if b != a {
						sc.Ke[b*n2+a] += val
					}
				}
			}
		}
	})
	return
}
