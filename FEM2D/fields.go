package FEM2D

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

/*
Primal fields hold nodal coefficients of the Lagrange basis. Dual fields hold the values
of a linear functional on each basis function, they are produced by assembly and are
never interpolated. The two kinds are distinct types so that one cannot stand in for the
other.
*/

type Field struct {
	space *FunctionSpace
	Data  []float64
}

type VectorField struct {
	space *FunctionSpace
	Data  []float64 // interleaved, entry 2*node+component
}

type DualField struct {
	space *FunctionSpace
	Data  []float64
}

type DualVectorField struct {
	space *FunctionSpace
	Data  []float64 // interleaved, entry 2*node+component
}

func NewField(fs *FunctionSpace) *Field {
	return &Field{space: fs, Data: make([]float64, fs.NumNodes)}
}

func NewVectorField(fs *FunctionSpace) *VectorField {
	return &VectorField{space: fs, Data: make([]float64, 2*fs.NumNodes)}
}

func NewDualField(fs *FunctionSpace) *DualField {
	return &DualField{space: fs, Data: make([]float64, fs.NumNodes)}
}

func NewDualVectorField(fs *FunctionSpace) *DualVectorField {
	return &DualVectorField{space: fs, Data: make([]float64, 2*fs.NumNodes)}
}

// Interpolate evaluates f at every node
func Interpolate(fs *FunctionSpace, f func(x, y float64) float64) (F *Field) {
	F = NewField(fs)
	for n := range F.Data {
		F.Data[n] = f(fs.NodeX[n], fs.NodeY[n])
	}
	return
}

func InterpolateVector(fs *FunctionSpace, f func(x, y float64) (u, v float64)) (U *VectorField) {
	U = NewVectorField(fs)
	for n := 0; n < fs.NumNodes; n++ {
		U.Data[2*n], U.Data[2*n+1] = f(fs.NodeX[n], fs.NodeY[n])
	}
	return
}

func ConstantField(fs *FunctionSpace, val float64) *Field {
	return Interpolate(fs, func(x, y float64) float64 { return val })
}

func checkSpaces(a, b *FunctionSpace) {
	if a != b {
		panic(fmt.Errorf("fields belong to different function spaces"))
	}
}

func (f *Field) Space() *FunctionSpace { return f.space }

func (f *Field) Copy() *Field {
	return &Field{space: f.space, Data: append([]float64(nil), f.Data...)}
}

func (f *Field) Add(g *Field) *Field {
	checkSpaces(f.space, g.space)
	R := f.Copy()
	floats.Add(R.Data, g.Data)
	return R
}

func (f *Field) Scale(a float64) *Field {
	R := f.Copy()
	floats.Scale(a, R.Data)
	return R
}

// AXPY returns f + a*g
func (f *Field) AXPY(a float64, g *Field) *Field {
	checkSpaces(f.space, g.space)
	R := f.Copy()
	floats.AddScaled(R.Data, a, g.Data)
	return R
}

// ValueAt evaluates the field at quadrature point q of element k
func (f *Field) ValueAt(k, q int) (val float64) {
	var (
		nodes = f.space.ElementNodes[k]
		phi   = f.space.Phi[q]
	)
	for i, n := range nodes {
		val += phi[i] * f.Data[n]
	}
	return
}

func (f *Field) GradAt(k, q int, dx, dy []float64) (gx, gy float64) {
	f.space.GradientsAt(k, q, dx, dy)
	for i, n := range f.space.ElementNodes[k] {
		gx += dx[i] * f.Data[n]
		gy += dy[i] * f.Data[n]
	}
	return
}

// Integrate returns the integral of the field over the domain
func (f *Field) Integrate() (sum float64) {
	fs := f.space
	for k := 0; k < fs.NumElements(); k++ {
		for q := 0; q < fs.NumQuadPoints(); q++ {
			sum += fs.WeightAt(k, q) * f.ValueAt(k, q)
		}
	}
	return
}

// Norm is the L2 norm over the domain
func (f *Field) Norm() float64 {
	fs := f.space
	var sum float64
	for k := 0; k < fs.NumElements(); k++ {
		for q := 0; q < fs.NumQuadPoints(); q++ {
			v := f.ValueAt(k, q)
			sum += fs.WeightAt(k, q) * v * v
		}
	}
	return math.Sqrt(sum)
}

func (f *Field) MinMax() (fMin, fMax float64) {
	return floats.Min(f.Data), floats.Max(f.Data)
}

func (u *VectorField) Space() *FunctionSpace { return u.space }

func (u *VectorField) Copy() *VectorField {
	return &VectorField{space: u.space, Data: append([]float64(nil), u.Data...)}
}

func (u *VectorField) Add(v *VectorField) *VectorField {
	checkSpaces(u.space, v.space)
	R := u.Copy()
	floats.Add(R.Data, v.Data)
	return R
}

func (u *VectorField) Scale(a float64) *VectorField {
	R := u.Copy()
	floats.Scale(a, R.Data)
	return R
}

func (u *VectorField) AXPY(a float64, v *VectorField) *VectorField {
	checkSpaces(u.space, v.space)
	R := u.Copy()
	floats.AddScaled(R.Data, a, v.Data)
	return R
}

func (u *VectorField) Component(c int) (F *Field) {
	F = NewField(u.space)
	for n := range F.Data {
		F.Data[n] = u.Data[2*n+c]
	}
	return
}

func (u *VectorField) ValueAt(k, q int) (val [2]float64) {
	var (
		nodes = u.space.ElementNodes[k]
		phi   = u.space.Phi[q]
	)
	for i, n := range nodes {
		val[0] += phi[i] * u.Data[2*n]
		val[1] += phi[i] * u.Data[2*n+1]
	}
	return
}

// GradAt returns G[i][j] = du_i/dx_j at quadrature point q of element k
func (u *VectorField) GradAt(k, q int, dx, dy []float64) (G [2][2]float64) {
	u.space.GradientsAt(k, q, dx, dy)
	for i, n := range u.space.ElementNodes[k] {
		for c := 0; c < 2; c++ {
			G[c][0] += dx[i] * u.Data[2*n+c]
			G[c][1] += dy[i] * u.Data[2*n+c]
		}
	}
	return
}

func (u *VectorField) Norm() float64 {
	fs := u.space
	var sum float64
	for k := 0; k < fs.NumElements(); k++ {
		for q := 0; q < fs.NumQuadPoints(); q++ {
			v := u.ValueAt(k, q)
			sum += fs.WeightAt(k, q) * (v[0]*v[0] + v[1]*v[1])
		}
	}
	return math.Sqrt(sum)
}

// Magnitude interpolates |u| at the nodes
func (u *VectorField) Magnitude() (F *Field) {
	F = NewField(u.space)
	for n := range F.Data {
		F.Data[n] = math.Hypot(u.Data[2*n], u.Data[2*n+1])
	}
	return
}

func (f *DualField) Space() *FunctionSpace { return f.space }

func (f *DualField) Copy() *DualField {
	return &DualField{space: f.space, Data: append([]float64(nil), f.Data...)}
}

func (f *DualField) Add(g *DualField) *DualField {
	checkSpaces(f.space, g.space)
	R := f.Copy()
	floats.Add(R.Data, g.Data)
	return R
}

func (f *DualField) Scale(a float64) *DualField {
	R := f.Copy()
	floats.Scale(a, R.Data)
	return R
}

// Norm is the Euclidean norm of the coefficient vector
func (f *DualField) Norm() float64 { return floats.Norm(f.Data, 2) }

// Apply pairs the functional with a primal field
func (f *DualField) Apply(g *Field) float64 {
	checkSpaces(f.space, g.space)
	return floats.Dot(f.Data, g.Data)
}

func (f *DualVectorField) Space() *FunctionSpace { return f.space }

func (f *DualVectorField) Copy() *DualVectorField {
	return &DualVectorField{space: f.space, Data: append([]float64(nil), f.Data...)}
}

func (f *DualVectorField) Add(g *DualVectorField) *DualVectorField {
	checkSpaces(f.space, g.space)
	R := f.Copy()
	floats.Add(R.Data, g.Data)
	return R
}

func (f *DualVectorField) Scale(a float64) *DualVectorField {
	R := f.Copy()
	floats.Scale(a, R.Data)
	return R
}

func (f *DualVectorField) AXPY(a float64, g *DualVectorField) *DualVectorField {
	checkSpaces(f.space, g.space)
	R := f.Copy()
	floats.AddScaled(R.Data, a, g.Data)
	return R
}

// Norm is the Euclidean norm of the coefficient vector
func (f *DualVectorField) Norm() float64 { return floats.Norm(f.Data, 2) }

func (f *DualVectorField) Apply(u *VectorField) float64 {
	checkSpaces(f.space, u.space)
	return floats.Dot(f.Data, u.Data)
}
