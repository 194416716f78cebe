// tune command - frequency sweep, shaper fit and commit
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"github.com/spf13/cobra"

	"buddy-go-migration/pkg/tune"
)

var (
	tuneStart        float64
	tuneEnd          float64
	tuneStep         float64
	tuneAcceleration float64
	tuneCycles       uint32
	tuneKlipper      bool
	tuneSubtract     bool
)

var tuneCmd = &cobra.Command{
	Use:   "tune",
	Short: "Sweep the frequency range and commit the best input shaper",
	Long: `Sweeps the configured frequency range while measuring the response,
then selects and commits an input shaper. The default algorithm picks
a ZV shaper at the resonant peak; --klipper fits all shaper families
against the measured power spectrum density, and --subtract
additionally removes the excitation bias before fitting.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags, err := axisFlags(axisX, axisY)
		if err != nil {
			return err
		}
		r, err := buildRig()
		if err != nil {
			return err
		}
		defer r.stop()

		params := tune.Params{
			StartFrequency: tuneStart,
			EndFrequency:   tuneEnd,
			FrequencyStep:  tuneStep,
			Acceleration:   tuneAcceleration,
			Cycles:         tuneCycles,
		}
		if !cmd.Flags().Changed("start") {
			params.StartFrequency = r.cfg.Sweep.StartFrequency
		}
		if !cmd.Flags().Changed("end") {
			params.EndFrequency = r.cfg.Sweep.EndFrequency
		}
		if !cmd.Flags().Changed("step") {
			params.FrequencyStep = r.cfg.Sweep.FrequencyStep
		}
		if !cmd.Flags().Changed("acceleration") {
			params.Acceleration = r.cfg.Sweep.Acceleration
		}
		if !cmd.Flags().Changed("cycles") {
			params.Cycles = r.cfg.Sweep.Cycles
		}

		if tuneKlipper || tuneSubtract {
			err = r.tuner.SpectrumTune(tuneSubtract, flags, params)
		} else {
			err = r.tuner.NaiveZVTune(flags, params)
		}
		if err != nil {
			return err
		}
		r.reportShaper()
		return nil
	},
}

func init() {
	tuneCmd.Flags().Float64VarP(&tuneStart, "start", "f", 5,
		"sweep start frequency in Hz")
	tuneCmd.Flags().Float64VarP(&tuneEnd, "end", "g", 150,
		"sweep end frequency in Hz")
	tuneCmd.Flags().Float64VarP(&tuneStep, "step", "s", 1,
		"sweep frequency step in Hz")
	tuneCmd.Flags().Float64VarP(&tuneAcceleration, "acceleration", "a", 2.5,
		"excitation acceleration in m/s^2")
	tuneCmd.Flags().Uint32VarP(&tuneCycles, "cycles", "n", 50,
		"number of excitation periods of active measurement per frequency")
	tuneCmd.Flags().BoolVarP(&tuneKlipper, "klipper", "k", false,
		"fit all shaper families against the power spectrum density")
	tuneCmd.Flags().BoolVarP(&tuneSubtract, "subtract", "m", false,
		"subtract the excitation bias before fitting (implies --klipper)")
}
