// console command - interactive G-code front end
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"buddy-go-migration/pkg/gcode"
	"buddy-go-migration/pkg/tune"
)

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Read tuning G-code commands (M958, M959) from standard input",
	Long: `Runs a G-code console on standard input. Supported commands:

  M958 X<dir> Y<dir> F<Hz> A<mm/s^2> N<cycles> [C] [K]
      excite one frequency and measure the response
  M959 X<dir> Y<dir> F<Hz> G<Hz> H<Hz> A<mm/s^2> N<cycles> [K] [M]
      sweep, fit an input shaper and commit it

Errors are reported per line; the console keeps running.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := buildRig()
		if err != nil {
			return err
		}
		defer r.stop()

		sweep := tune.Params{
			StartFrequency: r.cfg.Sweep.StartFrequency,
			EndFrequency:   r.cfg.Sweep.EndFrequency,
			FrequencyStep:  r.cfg.Sweep.FrequencyStep,
			Acceleration:   r.cfg.Sweep.Acceleration,
			Cycles:         r.cfg.Sweep.Cycles,
		}
		executor := gcode.NewExecutor(r.tuner, sweep, r.logger)

		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if err := executor.Execute(scanner.Text()); err != nil {
				fmt.Fprintf(os.Stderr, "!! %v\n", err)
				continue
			}
			fmt.Println("ok")
		}
		return scanner.Err()
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
