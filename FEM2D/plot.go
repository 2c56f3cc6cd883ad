package FEM2D

import (
	"image/color"

	"github.com/notargets/goice/utils"
)

// MeshLines draws every edge, boundary edges in a separate color
func (tmesh *Triangulation) MeshLines(ls utils.LineSet, interior, boundary color.RGBA) {
	for _, en := range tmesh.SortedEdges() {
		var (
			v   = en.GetVertices()
			col = interior
		)
		if tmesh.Edges[en].IsBoundary() {
			col = boundary
		}
		ls.AddLine(tmesh.VX[v[0]], tmesh.VY[v[0]], tmesh.VX[v[1]], tmesh.VY[v[1]], col)
	}
}

// VectorLines draws u at each vertex as a segment whose longest instance has length scale
func (u *VectorField) VectorLines(ls utils.LineSet, scale float64, col color.RGBA) {
	var (
		tmesh = u.space.Mesh
		mag   = u.Magnitude()
		uMax  float64
	)
	for n := 0; n < tmesh.NumVertices(); n++ {
		uMax = max(uMax, mag.Data[n])
	}
	if uMax == 0 {
		return
	}
	for n := 0; n < tmesh.NumVertices(); n++ {
		x, y := tmesh.VX[n], tmesh.VY[n]
		ls.AddLine(x, y, x+scale*u.Data[2*n]/uMax, y+scale*u.Data[2*n+1]/uMax, col)
	}
}
