package FEM2D

import (
	"fmt"
)

// ElementGeometry holds the affine map x = x0 + J (r,s) of one triangle
type ElementGeometry struct {
	DetJ   float64
	Rx, Ry float64 // dr/dx, dr/dy
	Sx, Sy float64 // ds/dx, ds/dy
}

/*
FunctionSpace is the continuous Lagrange space of one polynomial order on one
triangulation. It is immutable after construction and shared by every field built on it.
Vertex nodes are numbered first with the vertex index, P2 face nodes follow in edge
number order.
*/
type FunctionSpace struct {
	Mesh         *Triangulation
	Order        int
	Basis        *LagrangeBasis
	Quad         *QuadratureRule
	EdgeQuad     *LineQuadrature
	NumNodes     int
	NodeX, NodeY []float64
	ElementNodes [][]int // K x Np
	Geometry     []ElementGeometry
	// Basis values and reference gradients at quadrature points, [q][i]
	Phi, DPhiDr, DPhiDs [][]float64
	edgeNode            map[EdgeNumber]int
}

func NewFunctionSpace(tmesh *Triangulation, order int) (fs *FunctionSpace) {
	var (
		lb = NewLagrangeBasis(order)
		Nv = tmesh.NumVertices()
		K  = tmesh.NumTriangles()
	)
	fs = &FunctionSpace{
		Mesh:         tmesh,
		Order:        order,
		Basis:        lb,
		Quad:         NewTriangleQuadrature(2*order + 1),
		EdgeQuad:     NewLineQuadrature(order + 2),
		NumNodes:     Nv,
		ElementNodes: make([][]int, K),
		Geometry:     make([]ElementGeometry, K),
	}
	if order == 2 {
		fs.edgeNode = make(map[EdgeNumber]int, len(tmesh.Edges))
		for _, en := range tmesh.SortedEdges() {
			fs.edgeNode[en] = fs.NumNodes
			fs.NumNodes++
		}
	}
	fs.NodeX, fs.NodeY = make([]float64, fs.NumNodes), make([]float64, fs.NumNodes)
	copy(fs.NodeX, tmesh.VX)
	copy(fs.NodeY, tmesh.VY)
	for en, n := range fs.edgeNode {
		v := en.GetVertices()
		fs.NodeX[n] = 0.5 * (tmesh.VX[v[0]] + tmesh.VX[v[1]])
		fs.NodeY[n] = 0.5 * (tmesh.VY[v[0]] + tmesh.VY[v[1]])
	}
	for k, tri := range tmesh.EToV {
		nodes := make([]int, lb.Np)
		copy(nodes, tri[:])
		if order == 2 {
			for f, fv := range faceVerts {
				nodes[3+f] = fs.edgeNode[NewEdgeNumber([2]int{tri[fv[0]], tri[fv[1]]})]
			}
		}
		fs.ElementNodes[k] = nodes
		fs.Geometry[k] = newElementGeometry(tmesh, tri)
	}
	Nq := fs.Quad.NumPoints()
	fs.Phi = make([][]float64, Nq)
	fs.DPhiDr = make([][]float64, Nq)
	fs.DPhiDs = make([][]float64, Nq)
	for q := 0; q < Nq; q++ {
		fs.Phi[q] = make([]float64, lb.Np)
		fs.DPhiDr[q] = make([]float64, lb.Np)
		fs.DPhiDs[q] = make([]float64, lb.Np)
		lb.Eval(fs.Quad.R[q], fs.Quad.S[q], fs.Phi[q])
		lb.Grad(fs.Quad.R[q], fs.Quad.S[q], fs.DPhiDr[q], fs.DPhiDs[q])
	}
	return
}

func newElementGeometry(tmesh *Triangulation, tri [3]int) (eg ElementGeometry) {
	var (
		x0, y0 = tmesh.VX[tri[0]], tmesh.VY[tri[0]]
		xr, yr = tmesh.VX[tri[1]] - x0, tmesh.VY[tri[1]] - y0
		xs, ys = tmesh.VX[tri[2]] - x0, tmesh.VY[tri[2]] - y0
	)
	eg.DetJ = xr*ys - xs*yr
	if eg.DetJ <= 0 {
		panic(fmt.Errorf("non positive jacobian %v", eg.DetJ))
	}
	eg.Rx, eg.Ry = ys/eg.DetJ, -xs/eg.DetJ
	eg.Sx, eg.Sy = -yr/eg.DetJ, xr/eg.DetJ
	return
}

func (fs *FunctionSpace) Np() int           { return fs.Basis.Np }
func (fs *FunctionSpace) NumElements() int  { return len(fs.ElementNodes) }
func (fs *FunctionSpace) NumQuadPoints() int { return fs.Quad.NumPoints() }

// WeightAt is the physical quadrature weight of point q in element k
func (fs *FunctionSpace) WeightAt(k, q int) float64 {
	return fs.Quad.W[q] * fs.Geometry[k].DetJ
}

// GradientsAt fills the physical basis gradients at quadrature point q of element k
func (fs *FunctionSpace) GradientsAt(k, q int, dx, dy []float64) {
	g := fs.Geometry[k]
	for i := 0; i < fs.Basis.Np; i++ {
		dr, ds := fs.DPhiDr[q][i], fs.DPhiDs[q][i]
		dx[i] = dr*g.Rx + ds*g.Sx
		dy[i] = dr*g.Ry + ds*g.Sy
	}
}

// PointAt returns the physical coordinates of quadrature point q in element k
func (fs *FunctionSpace) PointAt(k, q int) (x, y float64) {
	tri := fs.Mesh.EToV[k]
	L := barycentric(fs.Quad.R[q], fs.Quad.S[q])
	for i := 0; i < 3; i++ {
		x += L[i] * fs.Mesh.VX[tri[i]]
		y += L[i] * fs.Mesh.VY[tri[i]]
	}
	return
}

// FaceNodes lists the nodes of element k lying on a face, with their basis indices
func (fs *FunctionSpace) FaceNodes(k, face int) (local []int) {
	local = []int{faceVerts[face][0], faceVerts[face][1]}
	if fs.Order == 2 {
		local = append(local, 3+face)
	}
	return
}

// BoundaryNodes returns the sorted set of nodes on boundary edges whose tag is in ids
func (fs *FunctionSpace) BoundaryNodes(ids ...int) (nodes []int) {
	var (
		want = make(map[int]bool, len(ids))
		seen = make(map[int]bool)
	)
	for _, id := range ids {
		want[id] = true
	}
	for _, be := range fs.Mesh.BoundaryEdges() {
		if !want[be.Tag] {
			continue
		}
		for _, i := range fs.FaceNodes(be.K, be.Face) {
			seen[fs.ElementNodes[be.K][i]] = true
		}
	}
	nodes = make([]int, 0, len(seen))
	for n := range fs.NodeX {
		if seen[n] {
			nodes = append(nodes, n)
		}
	}
	return
}

func (fs *FunctionSpace) Print() {
	fmt.Printf("P%d Lagrange space: %d elements, %d nodes, %d quadrature points per element\n",
		fs.Order, fs.NumElements(), fs.NumNodes, fs.NumQuadPoints())
}
