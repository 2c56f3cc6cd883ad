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
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ghodss/yaml"
	"github.com/spf13/cobra"

	"github.com/notargets/goice/FEM2D"
	"github.com/notargets/goice/model_problems/IceShelf"
	"github.com/notargets/goice/utils"
)

type DiagnosticRun struct {
	InputFile  string
	MeshFile   string
	OutputFile string
	Graph      bool
	Perf       bool
}

// DiagnosticCmd represents the diagnostic command
var DiagnosticCmd = &cobra.Command{
	Use:   "diagnostic",
	Short: "Solve for the ice shelf velocity given thickness and temperature",
	Long: `Solve for the ice shelf velocity given thickness and temperature, starting from the
initial velocity of the input deck, which also supplies the boundary values`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		dr := &DiagnosticRun{}
		dr.InputFile, _ = cmd.Flags().GetString("inputConditionsFile")
		dr.MeshFile, _ = cmd.Flags().GetString("gridFile")
		dr.OutputFile, _ = cmd.Flags().GetString("output")
		dr.Graph, _ = cmd.Flags().GetBool("graph")
		dr.Perf, _ = cmd.Flags().GetBool("perf")
		_, err = RunDiagnostic(dr)
		return
	},
}

func init() {
	rootCmd.AddCommand(DiagnosticCmd)
	DiagnosticCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters like:\n\t- Thickness, Temperature\n\t- BCs")
	DiagnosticCmd.Flags().StringP("gridFile", "F", "", "Grid file to read in Gambit (.neu) or SU2 (.su2) format, overrides the deck mesh")
	DiagnosticCmd.Flags().StringP("output", "o", "", "write the velocity to this YAML file")
	DiagnosticCmd.Flags().BoolP("graph", "g", false, "display the mesh and velocity when done")
	DiagnosticCmd.Flags().Bool("perf", false, "count CPU instructions spent in the solve")
}

func RunDiagnostic(dr *DiagnosticRun) (nr *IceShelf.NewtonResult, err error) {
	var (
		start = time.Now()
		ps    *problemSetup
		opts  []IceShelf.Option
	)
	ip, err := readInput(dr.InputFile)
	if err != nil {
		return
	}
	ip.Print()
	if ps, err = newProblemSetup(ip, dr.MeshFile); err != nil {
		return
	}
	if opts, err = ps.iceShelfOptions(); err != nil {
		return
	}
	is := IceShelf.NewIceShelf(ps.fs, opts...)
	is.Print()
	solve := func() (err error) {
		nr, err = is.NewtonSolve(ps.h, ps.T, ps.u0)
		return
	}
	if dr.Perf {
		err = countInstructions(solve)
	} else {
		err = solve()
	}
	r := ps.run("diagnostic")
	var nce *IceShelf.NonConvergenceError
	switch {
	case err == nil:
		r.Iterations, r.ResidualNorms = nr.Iterations, nr.NormHistory
	case errors.As(err, &nce):
		r.Iterations, r.ResidualNorms = nce.Iterations, []float64{nce.InitialNorm, nce.ResidualNorm}
	}
	recordRun(r, start, err)
	if err != nil {
		return nil, err
	}
	speed := nr.Velocity.Magnitude()
	sMin, sMax := speed.MinMax()
	fmt.Printf("Converged in %d iterations, residual %8.3e (initial %8.3e), %v\n",
		nr.Iterations, nr.ResidualNorm, nr.InitialNorm, nr.Elapsed)
	fmt.Printf("Speed range [%8.3f, %8.3f] m/a, BLAS: %s\n", sMin, sMax, utils.BLASImplementation)
	fmt.Println(utils.GetMemUsage())
	if len(dr.OutputFile) != 0 {
		if err = writeVelocity(dr.OutputFile, ip.Title, nr.Velocity); err != nil {
			return nil, err
		}
	}
	if dr.Graph {
		plotVelocity(nr.Velocity)
	}
	return
}

type velocityOutput struct {
	Title string    `json:"Title"`
	Order int       `json:"PolynomialOrder"`
	X     []float64 `json:"X"`
	Y     []float64 `json:"Y"`
	U     []float64 `json:"U"`
	V     []float64 `json:"V"`
}

func writeVelocity(fileName, title string, u *FEM2D.VectorField) (err error) {
	fs := u.Space()
	out := velocityOutput{
		Title: title,
		Order: fs.Order,
		X:     fs.NodeX,
		Y:     fs.NodeY,
		U:     u.Component(0).Data,
		V:     u.Component(1).Data,
	}
	var data []byte
	if data, err = yaml.Marshal(out); err != nil {
		return
	}
	return os.WriteFile(fileName, data, 0644)
}

// plotVelocity blocks while the chart window is open
func plotVelocity(u *FEM2D.VectorField) {
	var (
		ls    = make(utils.LineSet)
		tmesh = u.Space().Mesh
	)
	xMin, xMax, yMin, yMax := tmesh.BoundingBox()
	tmesh.MeshLines(ls, utils.GetColor(utils.Blue), utils.GetColor(utils.White))
	u.VectorLines(ls, 0.05*max(xMax-xMin, yMax-yMin), utils.GetColor(utils.Red))
	utils.PlotLines(ls)
}
