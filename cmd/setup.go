/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/notargets/goice/FEM2D"
	"github.com/notargets/goice/InputParameters"
	"github.com/notargets/goice/history"
	"github.com/notargets/goice/linsolve"
	"github.com/notargets/goice/model_problems/IceShelf"
	"github.com/notargets/goice/utils"
)

const exampleDeck = `
########################################
Title: "Confined ramp shelf"
PolynomialOrder: 2
Mesh: {Lx: 20000, Ly: 4000, Nx: 10, Ny: 2} # or MeshFile: shelf.neu / shelf.su2
BCs: {Dirichlet: [1], SideWall: [3, 4], IceFront: [2]}
Thickness: "500 - 100*x/20000"
Temperature: "254.15"
Velocity: {X: "100 + 0.005*x", Y: "0"}
Inverse: # used by invert
  TrueTemperature: "256 + 2*sin(3.14159*x/20000)"
  PriorTemperature: "254"
  Sigma: 1
  Alpha: 100
########################################
`

// problemSetup holds the discretization and input fields built from a deck
type problemSetup struct {
	ip   *InputParameters.InputParameters
	fs   *FEM2D.FunctionSpace
	bcs  IceShelf.BoundaryConditions
	h, T *FEM2D.Field
	u0   *FEM2D.VectorField
}

func readInput(inputFile string) (ip *InputParameters.InputParameters, err error) {
	if len(inputFile) == 0 {
		fmt.Printf("Example File:%s\n", exampleDeck)
		return nil, fmt.Errorf("must supply an input parameters file (-I, --inputConditionsFile) in YAML format")
	}
	return InputParameters.ReadFile(inputFile)
}

func newProblemSetup(ip *InputParameters.InputParameters, meshFile string) (ps *problemSetup, err error) {
	var tmesh *FEM2D.Triangulation
	if len(meshFile) == 0 {
		meshFile = ip.MeshFile
	}
	switch {
	case strings.EqualFold(filepath.Ext(meshFile), ".su2"):
		tmesh = FEM2D.ReadSU2(meshFile, false)
	case len(meshFile) != 0:
		tmesh = FEM2D.ReadGambit2d(meshFile, false)
	default:
		tmesh = FEM2D.NewRectangleMesh(ip.Mesh.Lx, ip.Mesh.Ly, ip.Mesh.Nx, ip.Mesh.Ny)
	}
	ps = &problemSetup{
		ip: ip,
		fs: FEM2D.NewFunctionSpace(tmesh, ip.PolynomialOrder),
	}
	if ip.BCs != nil {
		ps.bcs = IceShelf.BoundaryConditions{
			DirichletIDs: ip.BCs.Dirichlet,
			SideWallIDs:  ip.BCs.SideWall,
			IceFrontIDs:  ip.BCs.IceFront,
		}
	} else {
		ps.bcs = IceShelf.BoundaryConditionsFromNames(tmesh.BoundaryNames)
	}
	if len(ps.bcs.DirichletIDs) == 0 {
		return nil, fmt.Errorf("no inflow (Dirichlet) boundary, the velocity is undetermined")
	}
	if ps.h, err = ps.field("Thickness", ip.Thickness); err != nil {
		return nil, err
	}
	if ps.T, err = ps.field("Temperature", ip.Temperature); err != nil {
		return nil, err
	}
	var ux, uy *FEM2D.Field
	if ux, err = ps.field("Velocity.X", ip.Velocity.X); err != nil {
		return nil, err
	}
	if uy, err = ps.field("Velocity.Y", ip.Velocity.Y); err != nil {
		return nil, err
	}
	ps.u0 = FEM2D.NewVectorField(ps.fs)
	for n := range ux.Data {
		ps.u0.Data[2*n], ps.u0.Data[2*n+1] = ux.Data[n], uy.Data[n]
	}
	return
}

// field evaluates an expression at every node of the function space
func (ps *problemSetup) field(name string, e InputParameters.Expression) (f *FEM2D.Field, err error) {
	var ce *InputParameters.CompiledExpression
	if ce, err = e.Compile(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	f = FEM2D.NewField(ps.fs)
	for n := range f.Data {
		if f.Data[n], err = ce.Eval(ps.fs.NodeX[n], ps.fs.NodeY[n]); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}
	if !utils.AllFinite(f.Data) {
		return nil, fmt.Errorf("%s: %q is not finite at every node", name, e)
	}
	return
}

func (ps *problemSetup) iceShelfOptions() (opts []IceShelf.Option, err error) {
	var solver linsolve.Solver
	if solver, err = linsolve.ByName(ps.ip.LinearSolver); err != nil {
		return
	}
	opts = []IceShelf.Option{
		IceShelf.WithTolerance(ps.ip.Tolerance),
		IceShelf.WithMaxIterations(ps.ip.MaxIterations),
		IceShelf.WithStrainRateMin(ps.ip.StrainRateMin),
		IceShelf.WithParallelDegree(ps.ip.ParallelDegree),
		IceShelf.WithLinearSolver(solver),
		IceShelf.WithBoundaryConditions(ps.bcs),
		IceShelf.WithLogger(logrus.StandardLogger()),
	}
	return
}

func (ps *problemSetup) run(command string) history.Run {
	return history.Run{
		Title:         ps.ip.Title,
		Command:       command,
		Order:         ps.ip.PolynomialOrder,
		Tolerance:     ps.ip.Tolerance,
		MaxIterations: ps.ip.MaxIterations,
	}
}

// recordRun stores r in the history database when one is configured
func recordRun(r history.Run, start time.Time, err error) {
	path := viper.GetString("history")
	if len(path) == 0 {
		return
	}
	r.Converged, r.Elapsed = err == nil, time.Since(start)
	if err != nil {
		r.Error = err.Error()
	}
	store, oerr := history.Open(path)
	if oerr != nil {
		logrus.WithError(oerr).Warn("unable to open history")
		return
	}
	defer store.Close()
	if r, oerr = store.Record(r); oerr != nil {
		logrus.WithError(oerr).Warn("unable to record run")
		return
	}
	logrus.WithField("id", r.ID).Debug("run recorded")
}
