package FEM2D

import (
	"fmt"
	"io"
	"strings"
)

// ReadGambit2d reads a Gambit neutral file of triangles. Boundary groups are tagged
// 1..NBSETS in file order and their lower case names are kept in BoundaryNames.
func ReadGambit2d(filename string, verbose bool) (tmesh *Triangulation) {
	return openMesh(filename, "Gambit", verbose, func(r io.Reader) *Triangulation {
		return ReadGambit2dFrom(r, verbose)
	})
}

func ReadGambit2dFrom(r io.Reader, verbose bool) (tmesh *Triangulation) {
	ms := newMeshScanner(r, "gambit")
	var Nv, K, Nmats, Nbcs, Nsd, d int
	ms.skip(6)
	ms.scan("%d %d %d %d %d %d", &Nv, &K, &Nmats, &Nbcs, &Nsd, &d)
	if Nsd != 2 {
		ms.fail("space dimensions not 2, have %d", Nsd)
	}
	ms.skip(2)

	VX, VY := make([]float64, Nv), make([]float64, Nv)
	for i := 0; i < Nv; i++ {
		var (
			ind  int
			x, y float64
		)
		ms.scan("%d %g %g", &ind, &x, &y)
		if ind < 1 || ind > Nv {
			ms.fail("vertex index %d out of range", ind)
		}
		VX[ind-1], VY[ind-1] = x, y
	}
	ms.skip(2)

	EToV := make([][3]int, K)
	for i := 0; i < K; i++ {
		var ind, typ, nv, v1, v2, v3 int
		ms.scan("%d %d %d %d %d %d", &ind, &typ, &nv, &v1, &v2, &v3)
		if ind < 1 || ind > K || nv != 3 {
			ms.fail("element %d with %d vertices is not a triangle in range", ind, nv)
		}
		EToV[ind-1] = [3]int{v1 - 1, v2 - 1, v3 - 1}
	}
	ms.skip(2)

	// Element groups: header, title, flags, the element list ten per line
	for i := 0; i < Nmats; i++ {
		var group, nel int
		ms.scan("GROUP: %d ELEMENTS: %d", &group, &nel)
		ms.skip(2 + (nel+9)/10 + 2)
	}

	tags := make(map[EdgeNumber]int)
	names := make(map[int]string, Nbcs)
	for i := 0; i < Nbcs; i++ {
		if i != 0 {
			ms.skip(1)
		}
		var (
			name      string
			itype, nf int
			tag       = i + 1
		)
		ms.scan("%s %d %d", &name, &itype, &nf)
		names[tag] = strings.ToLower(name)
		for f := 0; f < nf; f++ {
			var k, typ, face int
			ms.scan("%d %d %d", &k, &typ, &face)
			if k < 1 || k > K || face < 1 || face > 3 {
				ms.fail("boundary face (%d, %d) out of range", k, face)
			}
			tri := EToV[k-1]
			tags[NewEdgeNumber([2]int{tri[face-1], tri[face%3]})] = tag
		}
		ms.skip(1)
	}

	tmesh = NewTriangulation(VX, VY, EToV, tags)
	for id, name := range names {
		tmesh.BoundaryNames[id] = name
	}
	if verbose {
		fmt.Printf("Nv = %d, K = %d, Nmats = %d, Nbcs = %d\n", Nv, K, Nmats, Nbcs)
		tmesh.Print()
	}
	return
}
