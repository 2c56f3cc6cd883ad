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
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/optimize"

	"github.com/notargets/goice/FEM2D"
	"github.com/notargets/goice/inverse"
	"github.com/notargets/goice/model_problems/DepthAveraged"
	"github.com/notargets/goice/model_problems/IceShelf"
)

type InvertRun struct {
	InputFile string
	MeshFile  string
}

// InvertCmd represents the invert command
var InvertCmd = &cobra.Command{
	Use:   "invert",
	Short: "Recover the ice temperature from velocity with a synthetic twin experiment",
	Long: `Computes the velocity at the deck's true temperature, then estimates the temperature
from that velocity starting from the prior temperature, using adjoint gradients and L-BFGS`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		ir := &InvertRun{}
		ir.InputFile, _ = cmd.Flags().GetString("inputConditionsFile")
		ir.MeshFile, _ = cmd.Flags().GetString("gridFile")
		_, err = RunInvert(ir)
		return
	},
}

func init() {
	rootCmd.AddCommand(InvertCmd)
	InvertCmd.Flags().StringP("inputConditionsFile", "I", "", "YAML file for input parameters, including an Inverse section")
	InvertCmd.Flags().StringP("gridFile", "F", "", "Grid file to read in Gambit (.neu) or SU2 (.su2) format, overrides the deck mesh")
}

func RunInvert(ir *InvertRun) (res *inverse.Result, err error) {
	var (
		start         = time.Now()
		ps            *problemSetup
		opts          []IceShelf.Option
		Ttrue, Tprior *FEM2D.Field
	)
	ip, err := readInput(ir.InputFile)
	if err != nil {
		return
	}
	ip.Print()
	if ip.Inverse == nil {
		return nil, fmt.Errorf("input deck %s has no Inverse section", ir.InputFile)
	}
	if ps, err = newProblemSetup(ip, ir.MeshFile); err != nil {
		return
	}
	if opts, err = ps.iceShelfOptions(); err != nil {
		return
	}
	if Ttrue, err = ps.field("Inverse.TrueTemperature", ip.Inverse.TrueTemperature); err != nil {
		return
	}
	if Tprior, err = ps.field("Inverse.PriorTemperature", ip.Inverse.PriorTemperature); err != nil {
		return
	}
	model := DepthAveraged.NewModel("ice_shelf", IceShelf.NewIceShelf(ps.fs, opts...))
	us, err := model.DiagnosticSolveBatch(context.Background(), []DepthAveraged.State{
		{Thickness: ps.h, Temperature: Ttrue, Velocity: ps.u0},
		{Thickness: ps.h, Temperature: Tprior, Velocity: ps.u0},
	})
	if err != nil {
		return
	}
	p := &inverse.Problem{
		Model:     model,
		Thickness: ps.h,
		Velocity0: ps.u0,
		Observed:  us[0],
		Sigma:     ip.Inverse.Sigma,
		Alpha:     ip.Inverse.Alpha,
		Log:       logrus.StandardLogger(),
	}
	settings := &optimize.Settings{MajorIterations: ip.Inverse.MaxIterations}
	res, err = p.Solve(Tprior, settings)
	r := ps.run("invert")
	if res != nil {
		r.Iterations = res.Iterations
	}
	recordRun(r, start, err)
	if res == nil {
		return
	}
	fmt.Printf("Status %v after %d iterations and %d forward solves, %v\n",
		res.Status, res.Iterations, res.Evaluations, res.Elapsed)
	fmt.Printf("Misfit %8.3e -> %8.3e, regularization %8.3e\n",
		p.Misfit(us[1]), res.Misfit, res.Regularization)
	fmt.Printf("Temperature error (L2) %8.3e -> %8.3e K m\n",
		Tprior.AXPY(-1, Ttrue).Norm(), res.Temperature.AXPY(-1, Ttrue).Norm())
	return
}
