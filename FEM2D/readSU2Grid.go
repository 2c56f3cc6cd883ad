package FEM2D

import (
	"fmt"
	"io"
	"strings"
)

// SU2 element type codes, https://su2code.github.io/docs_v7/Mesh-File/
const (
	su2Line     = 3
	su2Triangle = 5
)

// ReadSU2 reads a two dimensional SU2 mesh of triangles. Markers are tagged 1..NMARK in
// file order and their lower case labels are kept in BoundaryNames.
func ReadSU2(filename string, verbose bool) (tmesh *Triangulation) {
	return openMesh(filename, "SU2", verbose, func(r io.Reader) *Triangulation {
		return ReadSU2From(r, verbose)
	})
}

func ReadSU2From(r io.Reader, verbose bool) (tmesh *Triangulation) {
	ms := newMeshScanner(r, "su2")
	if dim := ms.keywordInt("NDIME"); dim != 2 {
		ms.fail("space dimensions not 2, have %d", dim)
	}

	EToV := make([][3]int, ms.keywordInt("NELEM"))
	for k := range EToV {
		var typ, v1, v2, v3 int
		ms.scan("%d %d %d %d", &typ, &v1, &v2, &v3)
		if typ != su2Triangle {
			ms.fail("element type %d is not a triangle", typ)
		}
		EToV[k] = [3]int{v1, v2, v3}
	}

	Nv := ms.keywordInt("NPOIN")
	VX, VY := make([]float64, Nv), make([]float64, Nv)
	for i := 0; i < Nv; i++ {
		ms.scan("%g %g", &VX[i], &VY[i])
	}

	var (
		nMark = ms.keywordInt("NMARK")
		tags  = make(map[EdgeNumber]int)
		names = make(map[int]string, nMark)
	)
	for n := 0; n < nMark; n++ {
		var (
			label = strings.ToLower(ms.keyword("MARKER_TAG"))
			tag   = n + 1
		)
		for _, prev := range names {
			if prev == label {
				ms.fail("duplicate boundary marker [%s]", label)
			}
		}
		names[tag] = label
		for i, nEdges := 0, ms.keywordInt("MARKER_ELEMS"); i < nEdges; i++ {
			var typ, v1, v2 int
			ms.scan("%d %d %d", &typ, &v1, &v2)
			if typ != su2Line {
				ms.fail("marker element type %d is not a line", typ)
			}
			tags[NewEdgeNumber([2]int{v1, v2})] = tag
		}
	}
	if verbose {
		fmt.Printf("Nv = %d, K = %d, markers = %v\n", Nv, len(EToV), names)
	}
	tmesh = NewTriangulation(VX, VY, EToV, tags)
	for id, name := range names {
		tmesh.BoundaryNames[id] = name
	}
	return
}
