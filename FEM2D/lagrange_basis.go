package FEM2D

import "fmt"

/*
	Lagrange basis on the reference triangle, barycentric coordinates
		L0 = 1-r-s, L1 = r, L2 = s
	Nodes are ordered vertices first, then the midpoints of faces (0,1), (1,2), (2,0)
*/
type LagrangeBasis struct {
	Order  int
	Np     int
	RNodes []float64
	SNodes []float64
}

func NewLagrangeBasis(order int) (lb *LagrangeBasis) {
	switch order {
	case 1:
		lb = &LagrangeBasis{
			Order: 1, Np: 3,
			RNodes: []float64{0, 1, 0},
			SNodes: []float64{0, 0, 1},
		}
	case 2:
		lb = &LagrangeBasis{
			Order: 2, Np: 6,
			RNodes: []float64{0, 1, 0, 0.5, 0.5, 0},
			SNodes: []float64{0, 0, 1, 0, 0.5, 0.5},
		}
	default:
		panic(fmt.Errorf("polynomial order %d not supported, use 1 or 2", order))
	}
	return
}

func barycentric(r, s float64) [3]float64 { return [3]float64{1 - r - s, r, s} }

// Barycentric gradients in (r,s)
var dL = [3][2]float64{{-1, -1}, {1, 0}, {0, 1}}

// face endpoints in barycentric index
var faceVerts = [3][2]int{{0, 1}, {1, 2}, {2, 0}}

func (lb *LagrangeBasis) Eval(r, s float64, phi []float64) {
	L := barycentric(r, s)
	switch lb.Order {
	case 1:
		copy(phi, L[:])
	case 2:
		for i := 0; i < 3; i++ {
			phi[i] = L[i] * (2*L[i] - 1)
		}
		for f, fv := range faceVerts {
			phi[3+f] = 4 * L[fv[0]] * L[fv[1]]
		}
	}
}

func (lb *LagrangeBasis) Grad(r, s float64, dr, ds []float64) {
	L := barycentric(r, s)
	switch lb.Order {
	case 1:
		for i := 0; i < 3; i++ {
			dr[i], ds[i] = dL[i][0], dL[i][1]
		}
	case 2:
		for i := 0; i < 3; i++ {
			c := 4*L[i] - 1
			dr[i], ds[i] = c*dL[i][0], c*dL[i][1]
		}
		for f, fv := range faceVerts {
			a, b := fv[0], fv[1]
			dr[3+f] = 4 * (dL[a][0]*L[b] + L[a]*dL[b][0])
			ds[3+f] = 4 * (dL[a][1]*L[b] + L[a]*dL[b][1])
		}
	}
}

// FacePoint maps t in [0,1] along a face to reference coordinates, following the face direction
func FacePoint(face int, t float64) (r, s float64) {
	switch face {
	case 0:
		r, s = t, 0
	case 1:
		r, s = 1-t, t
	case 2:
		r, s = 0, 1-t
	default:
		panic(fmt.Errorf("face %d out of range", face))
	}
	return
}
