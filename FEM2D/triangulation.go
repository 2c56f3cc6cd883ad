package FEM2D

import (
	"fmt"
	"math"
	"sort"
)

// Triangulation holds straight sided triangles with counter-clockwise vertex order.
// Boundary edges carry an integer tag, zero when untagged.
type Triangulation struct {
	VX, VY        []float64
	EToV          [][3]int             // K x 3 mapping of vertices to triangles
	Edges         map[EdgeNumber]*Edge // key packs the two vertices of each edge
	BoundaryNames map[int]string       // optional names for boundary tags
	sortedEdges   []EdgeNumber
}

type Edge struct {
	NumConnectedTris       uint8     // Either 1 or 2
	ConnectedTris          [2]uint32 // Index numbers of triangles connected to this edge
	ConnectedTriEdgeNumber [2]uint8  // Local face number within the connected tri, one of 0, 1 or 2
	Tag                    int
}

func (e *Edge) IsBoundary() bool { return e.NumConnectedTris == 1 }

// BoundaryEdge is one boundary face as seen from its only triangle
type BoundaryEdge struct {
	Number EdgeNumber
	K      int // Triangle index
	Face   int // Local face, 0: v0->v1, 1: v1->v2, 2: v2->v0
	Tag    int
}

// NewTriangulation reorders clockwise triangles and builds the edge map.
// tags assigns boundary tags to edges, missing entries are left at zero.
func NewTriangulation(VX, VY []float64, EToV [][3]int, tags map[EdgeNumber]int) (tmesh *Triangulation) {
	if len(VX) != len(VY) {
		panic(fmt.Errorf("vertex coordinate lengths differ: %d and %d", len(VX), len(VY)))
	}
	tmesh = &Triangulation{
		VX:            VX,
		VY:            VY,
		EToV:          make([][3]int, len(EToV)),
		Edges:         make(map[EdgeNumber]*Edge),
		BoundaryNames: make(map[int]string),
	}
	scale2 := tmesh.scale2()
	for k, tri := range EToV {
		for _, v := range tri {
			if v < 0 || v >= len(VX) {
				panic(fmt.Errorf("triangle %d references vertex %d, mesh has %d vertices", k, v, len(VX)))
			}
		}
		area := tmesh.signedArea(tri)
		switch {
		case math.Abs(area) < 1.e-14*scale2:
			panic(fmt.Errorf("triangle %d is degenerate", k))
		case area < 0:
			tri[1], tri[2] = tri[2], tri[1]
		}
		tmesh.EToV[k] = tri
		tmesh.newEdge([2]int{tri[0], tri[1]}, k, 0)
		tmesh.newEdge([2]int{tri[1], tri[2]}, k, 1)
		tmesh.newEdge([2]int{tri[2], tri[0]}, k, 2)
	}
	for en, tag := range tags {
		if e, ok := tmesh.Edges[en]; ok && e.IsBoundary() {
			e.Tag = tag
		}
	}
	tmesh.sortedEdges = make([]EdgeNumber, 0, len(tmesh.Edges))
	for en := range tmesh.Edges {
		tmesh.sortedEdges = append(tmesh.sortedEdges, en)
	}
	sort.Slice(tmesh.sortedEdges, func(i, j int) bool {
		return tmesh.sortedEdges[i] < tmesh.sortedEdges[j]
	})
	return
}

func (tmesh *Triangulation) newEdge(verts [2]int, k, face int) {
	en := NewEdgeNumber(verts)
	e, ok := tmesh.Edges[en]
	if !ok {
		e = &Edge{}
		tmesh.Edges[en] = e
	} else if e.NumConnectedTris > 1 {
		panic("incorrect edge construction, more than two connected triangles")
	}
	e.ConnectedTris[e.NumConnectedTris] = uint32(k)
	e.ConnectedTriEdgeNumber[e.NumConnectedTris] = uint8(face)
	e.NumConnectedTris++
}

func (tmesh *Triangulation) signedArea(tri [3]int) float64 {
	var (
		x0, y0 = tmesh.VX[tri[0]], tmesh.VY[tri[0]]
		x1, y1 = tmesh.VX[tri[1]], tmesh.VY[tri[1]]
		x2, y2 = tmesh.VX[tri[2]], tmesh.VY[tri[2]]
	)
	return 0.5 * ((x1-x0)*(y2-y0) - (x2-x0)*(y1-y0))
}

func (tmesh *Triangulation) scale2() (s float64) {
	xMin, xMax, yMin, yMax := tmesh.BoundingBox()
	s = math.Max(xMax-xMin, yMax-yMin)
	return s * s
}

func (tmesh *Triangulation) NumVertices() int  { return len(tmesh.VX) }
func (tmesh *Triangulation) NumTriangles() int { return len(tmesh.EToV) }

// SortedEdges returns all edge numbers in ascending order
func (tmesh *Triangulation) SortedEdges() []EdgeNumber { return tmesh.sortedEdges }

func (tmesh *Triangulation) BoundingBox() (xMin, xMax, yMin, yMax float64) {
	xMin, xMax = math.Inf(1), math.Inf(-1)
	yMin, yMax = math.Inf(1), math.Inf(-1)
	for i := range tmesh.VX {
		xMin, xMax = math.Min(xMin, tmesh.VX[i]), math.Max(xMax, tmesh.VX[i])
		yMin, yMax = math.Min(yMin, tmesh.VY[i]), math.Max(yMax, tmesh.VY[i])
	}
	return
}

// BoundaryEdges lists boundary faces in edge number order
func (tmesh *Triangulation) BoundaryEdges() (bes []BoundaryEdge) {
	for _, en := range tmesh.sortedEdges {
		e := tmesh.Edges[en]
		if !e.IsBoundary() {
			continue
		}
		bes = append(bes, BoundaryEdge{
			Number: en,
			K:      int(e.ConnectedTris[0]),
			Face:   int(e.ConnectedTriEdgeNumber[0]),
			Tag:    e.Tag,
		})
	}
	return
}

// FaceVertices returns the face endpoints in the triangle's counter-clockwise order
func (tmesh *Triangulation) FaceVertices(k, face int) (v [2]int) {
	tri := tmesh.EToV[k]
	v[0], v[1] = tri[face], tri[(face+1)%3]
	return
}

// FaceGeometry returns the length and the unit outward normal of a triangle face
func (tmesh *Triangulation) FaceGeometry(k, face int) (length float64, normal [2]float64) {
	var (
		v      = tmesh.FaceVertices(k, face)
		dx, dy = tmesh.VX[v[1]] - tmesh.VX[v[0]], tmesh.VY[v[1]] - tmesh.VY[v[0]]
	)
	length = math.Sqrt(dx*dx + dy*dy)
	normal = [2]float64{dy / length, -dx / length}
	return
}

func (tmesh *Triangulation) Print() {
	var (
		nb   int
		tags = make(map[int]int)
	)
	for _, be := range tmesh.BoundaryEdges() {
		nb++
		tags[be.Tag]++
	}
	xMin, xMax, yMin, yMax := tmesh.BoundingBox()
	fmt.Printf("Vertices = %d, Triangles = %d, Edges = %d, Boundary Edges = %d\n",
		tmesh.NumVertices(), tmesh.NumTriangles(), len(tmesh.Edges), nb)
	fmt.Printf("Bounding Box:\nXMin/XMax = %8.3f, %8.3f\nYMin/YMax = %8.3f, %8.3f\n",
		xMin, xMax, yMin, yMax)
	keys := make([]int, 0, len(tags))
	for tag := range tags {
		keys = append(keys, tag)
	}
	sort.Ints(keys)
	for _, tag := range keys {
		fmt.Printf("Boundary %d (%s): %d edges\n", tag, tmesh.BoundaryNames[tag], tags[tag])
	}
}

type EdgeNumber uint64

func NewEdgeNumber(verts [2]int) (packed EdgeNumber) {
	// Packs two vertex indices into the two halves of a uint64, smallest index low
	var (
		limit = math.MaxUint32
	)
	for _, vert := range verts {
		if vert < 0 || vert > limit {
			panic(fmt.Errorf("unable to pack two ints into a uint64, have %d and %d as inputs",
				verts[0], verts[1]))
		}
	}
	var i1, i2 int
	if verts[0] < verts[1] {
		i1, i2 = verts[0], verts[1]
	} else {
		i1, i2 = verts[1], verts[0]
	}
	packed = EdgeNumber(i1 + i2<<32)
	return
}

func (en EdgeNumber) GetVertices() (verts [2]int) {
	var (
		enTmp EdgeNumber
	)
	enTmp = en >> 32
	verts[1] = int(enTmp)
	verts[0] = int(en - enTmp*(1<<32))
	return
}
