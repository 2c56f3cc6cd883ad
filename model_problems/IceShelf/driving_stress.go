package IceShelf

import (
	"github.com/notargets/goice/FEM2D"
)

/*
DrivingStress assembles the gravitational forcing of a floating shelf whose surface is
s = (1 - rho_I/rho_W) h,

	tau(phi) = -int rho_I g h grad(s) . phi dx

plus, on ice front boundaries, the net hydrostatic push of the ocean on the terminal cliff

	int_front 1/2 rho_I g (1 - rho_I/rho_W) h^2 n . phi ds
*/
func (is *IceShelf) DrivingStress(h *FEM2D.Field) (tau *FEM2D.DualVectorField, err error) {
	if err = is.checkSpace([]string{"thickness"}, h.Space()); err != nil {
		return
	}
	var (
		fs   = is.Space
		beta = Buoyancy()
	)
	tau = FEM2D.NewDualVectorField(fs)
	tau.Data = is.assembleVector(2*fs.NumNodes, func(k int, buf []float64, sc *elementScratch) {
		nodes := fs.ElementNodes[k]
		for q := 0; q < fs.NumQuadPoints(); q++ {
			var (
				hq     = h.ValueAt(k, q)
				hx, hy = h.GradAt(k, q, sc.dx, sc.dy)
				c      = -RhoIce * Gravity * hq * beta * fs.WeightAt(k, q)
				phi    = fs.Phi[q]
				fx, fy = c * hx, c * hy
			)
			for i, n := range nodes {
				buf[2*n] += fx * phi[i]
				buf[2*n+1] += fy * phi[i]
			}
		}
	})
	is.addIceFrontStress(h, tau.Data)
	return
}

func (is *IceShelf) addIceFrontStress(h *FEM2D.Field, data []float64) {
	if len(is.BCs.IceFrontIDs) == 0 {
		return
	}
	var (
		fs    = is.Space
		np    = fs.Np()
		phi   = make([]float64, np)
		coeff = 0.5 * RhoIce * Gravity * Buoyancy()
	)
	for _, be := range fs.Mesh.BoundaryEdges() {
		if !contains(is.BCs.IceFrontIDs, be.Tag) {
			continue
		}
		var (
			length, n = fs.Mesh.FaceGeometry(be.K, be.Face)
			nodes     = fs.ElementNodes[be.K]
		)
		for iq, t := range fs.EdgeQuad.T {
			r, s := FEM2D.FacePoint(be.Face, t)
			fs.Basis.Eval(r, s, phi)
			var hq float64
			for i, node := range nodes {
				hq += phi[i] * h.Data[node]
			}
			c := coeff * hq * hq * length * fs.EdgeQuad.W[iq]
			for i, node := range nodes {
				data[2*node] += c * n[0] * phi[i]
				data[2*node+1] += c * n[1] * phi[i]
			}
		}
	}
}
