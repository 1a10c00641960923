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
	"io/ioutil"
	"os"

	"github.com/spf13/cobra"

	"github.com/microvasc/gohemo/InputParameters"
	"github.com/microvasc/gohemo/sim"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Coupled flow and hematocrit solver on a vessel network embedded in tissue",
	Long: `Reads a network mesh and a YAML parameter file, reconstructs the
vessel topology, and iterates the coupled flow / compliance / viscosity /
hematocrit fixed point to convergence, writing VTK fields and residual
history to the output directory`,
	Run: func(cmd *cobra.Command, args []string) {
		var (
			err error
		)
		inputFile, err := cmd.Flags().GetString("inputFile")
		if err != nil {
			panic(err)
		}
		ip := processRunInput(inputFile)
		RunCoupled(ip)
	},
}

func processRunInput(inputFile string) (ip *InputParameters.InputParameters) {
	var (
		err error
	)
	if len(inputFile) == 0 {
		err = fmt.Errorf("must supply an input parameters file (-I, --inputFile) in YAML format")
		fmt.Printf("error: %s\n", err.Error())
		exampleFile := `
########################################
Title: "Y bifurcation"
MeshFile: network.pts
NonDimensional: true
MaxIterations: 100
Alpha: 1.
EpsSol: 1.e-6
EpsMass: 1.e-6
EpsH: 1.e-6
ViscosityModel: vivo  # Can be "vitro" or "const"
LinearLymphatics: true
Theta: 1.
HStart: 0.45
Kt: 1.
Kv: 1.
Q: 1.
QLF: 0.
Radius: 0.05
########################################
`
		fmt.Printf("Example File:%s\n", exampleFile)
		os.Exit(1)
	}
	var data []byte
	if data, err = ioutil.ReadFile(inputFile); err != nil {
		panic(err)
	}
	ip = &InputParameters.InputParameters{}
	if err = ip.Parse(data); err != nil {
		panic(err)
	}
	ip.Defaults()
	return
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().StringP("inputFile", "I", "", "YAML file for input parameters like:\n\t- MeshFile\n\t- MaxIterations\n\t- ViscosityModel")
}

func RunCoupled(ip *InputParameters.InputParameters) {
	ip.Print()
	p, err := sim.NewProblem(ip)
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	res, err := p.Run()
	if err != nil {
		fmt.Printf("error: %s\n", err.Error())
		os.Exit(1)
	}
	if !res.Converged {
		fmt.Printf("stopped after %d iterations without convergence\n", res.Iterations)
	}
}
