package InputParameters

import (
	"fmt"
	"math"
	"os"

	"github.com/Knetic/govaluate"
	"github.com/ghodss/yaml"
)

// Parameters obtained from the YAML input deck
type InputParameters struct {
	Title           string             `json:"Title"`
	PolynomialOrder int                `json:"PolynomialOrder"`
	MeshFile        string             `json:"MeshFile,omitempty"` // Gambit neutral file, overrides Mesh
	Mesh            RectangleMesh      `json:"Mesh"`
	Tolerance       float64            `json:"Tolerance"`
	MaxIterations   int                `json:"MaxIterations"`
	StrainRateMin   float64            `json:"StrainRateMin"`
	LinearSolver    string             `json:"LinearSolver"`
	ParallelDegree  int                `json:"ParallelDegree"`
	BCs             *BoundaryIDs       `json:"BCs,omitempty"` // nil selects roles from mesh boundary names
	Thickness       Expression         `json:"Thickness"`
	Temperature     Expression         `json:"Temperature"`
	Velocity        VectorExpr         `json:"Velocity"`
	Inverse         *InverseParameters `json:"Inverse,omitempty"`
}

type RectangleMesh struct {
	Lx, Ly float64
	Nx, Ny int
}

type BoundaryIDs struct {
	Dirichlet []int `json:"Dirichlet"`
	SideWall  []int `json:"SideWall"`
	IceFront  []int `json:"IceFront"`
}

type VectorExpr struct {
	X Expression `json:"X"`
	Y Expression `json:"Y"`
}

// InverseParameters configure the synthetic twin inversion
type InverseParameters struct {
	TrueTemperature  Expression `json:"TrueTemperature"`
	PriorTemperature Expression `json:"PriorTemperature"`
	Sigma            float64    `json:"Sigma"`
	Alpha            float64    `json:"Alpha"`
	MaxIterations    int        `json:"MaxIterations"`
}

func NewInputParameters() *InputParameters {
	return &InputParameters{
		PolynomialOrder: 1,
		Mesh:            RectangleMesh{Lx: 20000, Ly: 4000, Nx: 10, Ny: 2},
		Tolerance:       1.e-6,
		MaxIterations:   20,
		StrainRateMin:   1.e-5,
		LinearSolver:    "cg",
		Velocity:        VectorExpr{X: "0", Y: "0"},
	}
}

func ReadFile(fileName string) (ip *InputParameters, err error) {
	var data []byte
	if data, err = os.ReadFile(fileName); err != nil {
		return
	}
	ip = NewInputParameters()
	if err = ip.Parse(data); err != nil {
		return nil, fmt.Errorf("%s: %w", fileName, err)
	}
	return
}

func (ip *InputParameters) Parse(data []byte) (err error) {
	if err = yaml.Unmarshal(data, ip); err != nil {
		return
	}
	return ip.Validate()
}

func (ip *InputParameters) Validate() error {
	switch {
	case ip.PolynomialOrder != 1 && ip.PolynomialOrder != 2:
		return fmt.Errorf("polynomial order must be 1 or 2, have %d", ip.PolynomialOrder)
	case ip.MeshFile == "" && !(ip.Mesh.Lx > 0 && ip.Mesh.Ly > 0 && ip.Mesh.Nx > 0 && ip.Mesh.Ny > 0):
		return fmt.Errorf("mesh dimensions must be positive, have %+v", ip.Mesh)
	case !(ip.Tolerance > 0):
		return fmt.Errorf("tolerance must be positive, have %v", ip.Tolerance)
	case ip.MaxIterations < 1:
		return fmt.Errorf("max iterations must be at least 1, have %d", ip.MaxIterations)
	case !(ip.StrainRateMin > 0):
		return fmt.Errorf("strain rate minimum must be positive, have %v", ip.StrainRateMin)
	}
	exprs := map[string]Expression{
		"Thickness": ip.Thickness, "Temperature": ip.Temperature,
		"Velocity.X": ip.Velocity.X, "Velocity.Y": ip.Velocity.Y,
	}
	if ip.Inverse != nil {
		exprs["Inverse.TrueTemperature"] = ip.Inverse.TrueTemperature
		exprs["Inverse.PriorTemperature"] = ip.Inverse.PriorTemperature
	}
	for name, e := range exprs {
		if _, err := e.Compile(); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	return nil
}

func (ip *InputParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", ip.Title)
	fmt.Printf("[%d]\t\t\t\t= Polynomial Order\n", ip.PolynomialOrder)
	if ip.MeshFile != "" {
		fmt.Printf("[%s]\t\t= Mesh File\n", ip.MeshFile)
	} else {
		fmt.Printf("%g x %g, %d x %d\t= Rectangle Mesh\n", ip.Mesh.Lx, ip.Mesh.Ly, ip.Mesh.Nx, ip.Mesh.Ny)
	}
	fmt.Printf("%8.3e\t\t= Tolerance\n", ip.Tolerance)
	fmt.Printf("[%d]\t\t\t\t= Max Iterations\n", ip.MaxIterations)
	fmt.Printf("%8.3e\t\t= Strain Rate Min\n", ip.StrainRateMin)
	fmt.Printf("[%s]\t\t\t\t= Linear Solver\n", ip.LinearSolver)
	if ip.BCs != nil {
		fmt.Printf("BCs = %+v\n", *ip.BCs)
	}
	fmt.Printf("h(x,y) = %s\n", ip.Thickness)
	fmt.Printf("T(x,y) = %s\n", ip.Temperature)
	fmt.Printf("u0(x,y) = (%s, %s)\n", ip.Velocity.X, ip.Velocity.Y)
	if inv := ip.Inverse; inv != nil {
		fmt.Printf("Inverse: T_true = %s, T_prior = %s, sigma = %g, alpha = %g\n",
			inv.TrueTemperature, inv.PriorTemperature, inv.Sigma, inv.Alpha)
	}
}

// Expression is an arithmetic expression in the coordinates x and y, such as "500 - 100*x/20000"
type Expression string

var functions = map[string]govaluate.ExpressionFunction{
	"exp":  unary("exp", math.Exp),
	"sqrt": unary("sqrt", math.Sqrt),
	"sin":  unary("sin", math.Sin),
	"cos":  unary("cos", math.Cos),
	"abs":  unary("abs", math.Abs),
	"pow": func(args ...interface{}) (interface{}, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("got %d arguments for function 'pow', but needs 2", len(args))
		}
		a, aok := args[0].(float64)
		b, bok := args[1].(float64)
		if !aok || !bok {
			return nil, fmt.Errorf("pow: arguments must be numbers")
		}
		return math.Pow(a, b), nil
	},
}

func unary(name string, f func(float64) float64) govaluate.ExpressionFunction {
	return func(args ...interface{}) (interface{}, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("got %d arguments for function '%s', but needs 1", len(args), name)
		}
		a, ok := args[0].(float64)
		if !ok {
			return nil, fmt.Errorf("%s: argument must be a number", name)
		}
		return f(a), nil
	}
}

// CompiledExpression evaluates an Expression at a point
type CompiledExpression struct {
	expr *govaluate.EvaluableExpression
}

func (e Expression) Compile() (ce *CompiledExpression, err error) {
	if e == "" {
		return nil, fmt.Errorf("empty expression")
	}
	var expr *govaluate.EvaluableExpression
	if expr, err = govaluate.NewEvaluableExpressionWithFunctions(string(e), functions); err != nil {
		return
	}
	for _, v := range expr.Vars() {
		if v != "x" && v != "y" {
			return nil, fmt.Errorf("unknown variable %q in %q", v, e)
		}
	}
	return &CompiledExpression{expr: expr}, nil
}

func (ce *CompiledExpression) Eval(x, y float64) (val float64, err error) {
	var res interface{}
	if res, err = ce.expr.Evaluate(map[string]interface{}{"x": x, "y": y}); err != nil {
		return
	}
	var ok bool
	if val, ok = res.(float64); !ok {
		return 0, fmt.Errorf("expression %q is not numeric", ce.expr.String())
	}
	return
}

// Func adapts the expression to a coordinate function, evaluation errors panic
func (ce *CompiledExpression) Func() func(x, y float64) float64 {
	return func(x, y float64) float64 {
		val, err := ce.Eval(x, y)
		if err != nil {
			panic(err)
		}
		return val
	}
}
