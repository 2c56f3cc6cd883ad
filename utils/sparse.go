package utils

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/james-bowman/sparse/blas"
	"gonum.org/v1/gonum/mat"
)

// COO is the assembly-time sparse format. Entries are kept in insertion order and
// duplicates are summed in that order on conversion, so equal insertion sequences give
// bitwise equal matrices.
type COO struct {
	nr, nc   int
	rows     []int
	cols     []int
	data     []float64
	readOnly bool
	name     string
}

func NewCOO(nr, nc int, capacity ...int) (R *COO) {
	var cp int
	if len(capacity) != 0 {
		cp = capacity[0]
	}
	R = &COO{
		nr:   nr,
		nc:   nc,
		rows: make([]int, 0, cp),
		cols: make([]int, 0, cp),
		data: make([]float64, 0, cp),
		name: "unnamed - hint: pass a variable name to SetReadOnly()",
	}
	return
}

func (m *COO) Dims() (r, c int) { return m.nr, m.nc }

func (m *COO) SetReadOnly(name ...string) *COO {
	if len(name) != 0 {
		m.name = name[0]
	}
	m.readOnly = true
	return m
}

// Accumulate adds val to the (i,j) entry
func (m *COO) Accumulate(i, j int, val float64) {
	m.checkWritable()
	if i < 0 || i >= m.nr || j < 0 || j >= m.nc {
		panic(fmt.Errorf("index (%d,%d) out of range for %dx%d matrix \"%s\"", i, j, m.nr, m.nc, m.name))
	}
	m.rows = append(m.rows, i)
	m.cols = append(m.cols, j)
	m.data = append(m.data, val)
}

func (m *COO) checkWritable() {
	if m.readOnly {
		err := fmt.Errorf("attempt to write to a read only matrix named: \"%v\"", m.name)
		panic(err)
	}
}

func (m *COO) ToCSR() CSR {
	return CSR{
		M:    sparse.NewCOO(m.nr, m.nc, m.rows, m.cols, m.data).ToCSR(),
		name: m.name,
	}
}

// CSR is the solve-time format. It is never modified after conversion.
type CSR struct {
	M    *sparse.CSR
	name string
}

func (m CSR) Dims() (r, c int)              { return m.M.Dims() }
func (m CSR) At(i, j int) float64           { return m.M.At(i, j) }
func (m CSR) RawMatrix() *blas.SparseMatrix { return m.M.RawMatrix() }
func (m CSR) NNZ() int                      { return m.M.NNZ() }
func (m CSR) Name() string                  { return m.name }
func (m CSR) ToDense() *mat.Dense           { return m.M.ToDense() }

// MulVecTo overwrites dst with M*x, or M^T*x when trans is true
func (m CSR) MulVecTo(dst []float64, trans bool, x []float64) {
	nr, nc := m.Dims()
	if trans {
		nr, nc = nc, nr
	}
	if len(x) != nc || len(dst) != nr {
		panic(fmt.Errorf("dimension mismatch: matrix \"%s\" %dx%d, trans = %v, len(x) = %d, len(dst) = %d",
			m.Name(), nr, nc, trans, len(x), len(dst)))
	}
	for i := range dst {
		dst[i] = 0
	}
	m.M.MulVecTo(dst, trans, x)
}

func (m CSR) MulVec(x []float64, trans ...bool) (y []float64) {
	var (
		tr     = len(trans) != 0 && trans[0]
		nr, nc = m.Dims()
	)
	if tr {
		nr = nc
	}
	y = make([]float64, nr)
	m.MulVecTo(y, tr, x)
	return
}

func (m CSR) Diagonal() (d []float64) {
	nr, nc := m.Dims()
	d = make([]float64, min(nr, nc))
	for i := range d {
		d[i] = m.M.At(i, i)
	}
	return
}

func (m CSR) IsSymmetric(tol float64) (sym bool) {
	nr, nc := m.Dims()
	if nr != nc {
		return false
	}
	sym = true
	m.M.DoNonZero(func(i, j int, v float64) {
		if d := v - m.M.At(j, i); d > tol || d < -tol {
			sym = false
		}
	})
	return
}
