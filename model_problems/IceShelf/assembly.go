package IceShelf

import (
	"gonum.org/v1/gonum/floats"

	"github.com/notargets/goice/FEM2D"
	"github.com/notargets/goice/utils"
)

// elementScratch is per goroutine storage for one element's integration
type elementScratch struct {
	dx, dy []float64
	strain [][3]float64 // (exx, eyy, exy) of each vector test function, index 2*i+c
	Ke     []float64    // element matrix, row major 2Np x 2Np
}

func newElementScratch(fs *FEM2D.FunctionSpace) *elementScratch {
	np := fs.Np()
	return &elementScratch{
		dx:     make([]float64, np),
		dy:     make([]float64, np),
		strain: make([][3]float64, 2*np),
		Ke:     make([]float64, 4*np*np),
	}
}

// testStrains fills the strain rates of the vector basis functions phi_i e_c from the
// physical gradients already in sc.dx, sc.dy
func (sc *elementScratch) testStrains() {
	for i := range sc.dx {
		sc.strain[2*i] = [3]float64{sc.dx[i], 0, 0.5 * sc.dy[i]}
		sc.strain[2*i+1] = [3]float64{0, sc.dy[i], 0.5 * sc.dx[i]}
	}
}

// strainInner is S(a):b with S(a) = a + tr(a) I, for symmetric tensors stored as (xx, yy, xy)
func strainInner(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + 2*a[2]*b[2] + (a[0]+a[1])*(b[0]+b[1])
}

// assembleVector integrates over all elements in parallel. Each partition sums into its
// own buffer and the buffers are merged in partition order.
func (is *IceShelf) assembleVector(n int, kernel func(k int, buf []float64, sc *elementScratch)) (out []float64) {
	var (
		pm   = is.partitions()
		bufs = make([][]float64, pm.ParallelDegree)
	)
	pm.Run(func(bn, kMin, kMax int) {
		var (
			buf = make([]float64, n)
			sc  = newElementScratch(is.Space)
		)
		for k := kMin; k < kMax; k++ {
			kernel(k, buf, sc)
		}
		bufs[bn] = buf
	})
	out = make([]float64, n)
	for _, buf := range bufs {
		if buf != nil {
			floats.Add(out, buf)
		}
	}
	return
}

type triplet struct {
	i, j int
	v    float64
}

// assembleTangent integrates the element matrices in parallel and scatters them serially
// in element order, so the tangent is bitwise reproducible for any parallel degree.
// Rows and columns of constrained dofs are replaced by the identity.
func (is *IceShelf) assembleTangent(kernel func(k int, sc *elementScratch)) (K utils.CSR) {
	var (
		fs      = is.Space
		np      = fs.Np()
		pm      = is.partitions()
		parts   = make([][]triplet, pm.ParallelDegree)
		fixed   = is.constraints.fixed
		N       = 2 * fs.NumNodes
		dofsOfK = func(k int, dofs []int) {
			for i, node := range fs.ElementNodes[k] {
				dofs[2*i], dofs[2*i+1] = 2*node, 2*node+1
			}
		}
	)
	pm.Run(func(bn, kMin, kMax int) {
		var (
			sc   = newElementScratch(fs)
			dofs = make([]int, 2*np)
			list = make([]triplet, 0, (kMax-kMin)*4*np*np)
		)
		for k := kMin; k < kMax; k++ {
			for i := range sc.Ke {
				sc.Ke[i] = 0
			}
			kernel(k, sc)
			dofsOfK(k, dofs)
			for a, I := range dofs {
				if fixed[I] {
					continue
				}
				for b, J := range dofs {
					if fixed[J] {
						continue
					}
					list = append(list, triplet{I, J, sc.Ke[a*2*np+b]})
				}
			}
		}
		parts[bn] = list
	})
	var nnz int
	for _, list := range parts {
		nnz += len(list)
	}
	A := utils.NewCOO(N, N, nnz+len(is.constraints.dofs))
	for _, list := range parts {
		for _, t := range list {
			A.Accumulate(t.i, t.j, t.v)
		}
	}
	for _, dof := range is.constraints.dofs {
		A.Accumulate(dof, dof, 1)
	}
	K = A.SetReadOnly("tangent").ToCSR()
	return
}
