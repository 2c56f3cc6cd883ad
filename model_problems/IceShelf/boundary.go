package IceShelf

import (
	"fmt"
	"math"

	"github.com/notargets/goice/FEM2D"
	"github.com/notargets/goice/types"
)

/*
BoundaryConditions name mesh boundary tags by role.
  - Dirichlet: both velocity components are held at the values of the initial guess
  - SideWall: the component along the dominant direction of the face normal is held
    at the initial guess, which should carry zero normal velocity there
  - IceFront: the hydrostatic pressure of the ocean acts on the face
Untagged boundaries and unlisted tags are traction free.
*/
type BoundaryConditions struct {
	DirichletIDs []int `json:"dirichlet_ids,omitempty"`
	SideWallIDs  []int `json:"side_wall_ids,omitempty"`
	IceFrontIDs  []int `json:"ice_front_ids,omitempty"`
}

// BoundaryConditionsFromNames assigns roles from the boundary names carried by a mesh
func BoundaryConditionsFromNames(names map[int]string) (bcs BoundaryConditions) {
	ids := types.BoundaryIDsByFlag(names)
	bcs.DirichletIDs = ids[types.BC_Dirichlet]
	bcs.SideWallIDs = ids[types.BC_SideWall]
	bcs.IceFrontIDs = ids[types.BC_IceFront]
	return
}

func (bcs BoundaryConditions) Print() {
	fmt.Printf("Boundary ids: %s = %v, %s = %v, %s = %v\n",
		types.BC_Dirichlet, bcs.DirichletIDs,
		types.BC_SideWall, bcs.SideWallIDs,
		types.BC_IceFront, bcs.IceFrontIDs)
}

func contains(ids []int, tag int) bool {
	for _, id := range ids {
		if id == tag {
			return true
		}
	}
	return false
}

// sideWallAlignment is the largest normal component across the held direction for which
// a side wall counts as axis aligned
const sideWallAlignment = 1.e-6

// constraints is the set of eliminated vector degrees of freedom, dof = 2*node+component.
// Every constrained dof keeps the value it has in the initial guess.
type constraints struct {
	fixed []bool
	dofs  []int

	// side wall faces whose normal is not along x or y, and the largest normal
	// component left free on them
	slanted     int
	maxSlant    float64
	slantedTags []int
}

func newConstraints(fs *FEM2D.FunctionSpace, bcs BoundaryConditions) (c *constraints) {
	c = &constraints{fixed: make([]bool, 2*fs.NumNodes)}
	for _, be := range fs.Mesh.BoundaryEdges() {
		var comps []int
		switch {
		case contains(bcs.DirichletIDs, be.Tag):
			comps = []int{0, 1}
		case contains(bcs.SideWallIDs, be.Tag):
			_, n := fs.Mesh.FaceGeometry(be.K, be.Face)
			nx, ny := math.Abs(n[0]), math.Abs(n[1])
			if nx >= ny {
				comps = []int{0}
			} else {
				comps = []int{1}
			}
			if slant := math.Min(nx, ny); slant > sideWallAlignment {
				c.slanted++
				c.maxSlant = math.Max(c.maxSlant, slant)
				if !contains(c.slantedTags, be.Tag) {
					c.slantedTags = append(c.slantedTags, be.Tag)
				}
			}
		default:
			continue
		}
		for _, i := range fs.FaceNodes(be.K, be.Face) {
			node := fs.ElementNodes[be.K][i]
			for _, comp := range comps {
				c.fixed[2*node+comp] = true
			}
		}
	}
	for dof, fixed := range c.fixed {
		if fixed {
			c.dofs = append(c.dofs, dof)
		}
	}
	return
}

// zeroRows clears constrained entries of an assembled functional
func (c *constraints) zeroRows(data []float64) {
	for _, dof := range c.dofs {
		data[dof] = 0
	}
}

// ConstrainedDOFs lists the eliminated vector degrees of freedom in ascending order
func (is *IceShelf) ConstrainedDOFs() []int {
	return append([]int(nil), is.constraints.dofs...)
}
