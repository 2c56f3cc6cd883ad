package FEM2D

import "fmt"

// Boundary tags assigned by NewRectangleMesh
const (
	RectangleLeft   = 1 // x = 0
	RectangleRight  = 2 // x = Lx
	RectangleBottom = 3 // y = 0
	RectangleTop    = 4 // y = Ly
)

// NewRectangleMesh splits each of Nx x Ny cells of [0,Lx]x[0,Ly] into two triangles
func NewRectangleMesh(Lx, Ly float64, Nx, Ny int) (tmesh *Triangulation) {
	if Nx < 1 || Ny < 1 || Lx <= 0 || Ly <= 0 {
		panic(fmt.Errorf("invalid rectangle: Lx = %v, Ly = %v, Nx = %d, Ny = %d", Lx, Ly, Nx, Ny))
	}
	var (
		Nv     = (Nx + 1) * (Ny + 1)
		VX, VY = make([]float64, Nv), make([]float64, Nv)
		EToV   = make([][3]int, 0, 2*Nx*Ny)
		tags   = make(map[EdgeNumber]int)
		vid    = func(i, j int) int { return i + j*(Nx+1) }
	)
	for j := 0; j <= Ny; j++ {
		for i := 0; i <= Nx; i++ {
			VX[vid(i, j)] = Lx * float64(i) / float64(Nx)
			VY[vid(i, j)] = Ly * float64(j) / float64(Ny)
		}
	}
	for j := 0; j < Ny; j++ {
		for i := 0; i < Nx; i++ {
			v00, v10, v11, v01 := vid(i, j), vid(i+1, j), vid(i+1, j+1), vid(i, j+1)
			EToV = append(EToV, [3]int{v00, v10, v11}, [3]int{v00, v11, v01})
		}
	}
	for j := 0; j < Ny; j++ {
		tags[NewEdgeNumber([2]int{vid(0, j), vid(0, j+1)})] = RectangleLeft
		tags[NewEdgeNumber([2]int{vid(Nx, j), vid(Nx, j+1)})] = RectangleRight
	}
	for i := 0; i < Nx; i++ {
		tags[NewEdgeNumber([2]int{vid(i, 0), vid(i+1, 0)})] = RectangleBottom
		tags[NewEdgeNumber([2]int{vid(i, Ny), vid(i+1, Ny)})] = RectangleTop
	}
	tmesh = NewTriangulation(VX, VY, EToV, tags)
	tmesh.BoundaryNames[RectangleLeft] = "left"
	tmesh.BoundaryNames[RectangleRight] = "right"
	tmesh.BoundaryNames[RectangleBottom] = "bottom"
	tmesh.BoundaryNames[RectangleTop] = "top"
	return
}
