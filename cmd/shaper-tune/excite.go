// excite command - one-shot harmonic excitation with measurement
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"github.com/spf13/cobra"
)

var (
	exciteFrequency    float64
	exciteAcceleration float64
	exciteCycles       uint32
	exciteCalibrate    bool
	exciteKlipper      bool
)

var exciteCmd = &cobra.Command{
	Use:   "excite",
	Short: "Excite harmonic vibration at one frequency and measure the response",
	Long: `Vibrates the selected motors at a single frequency for the given
number of periods and reports the demodulated response per axis.
Without an accelerometer the excitation still runs, which is useful
for finding resonances by ear.`,
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

		_, err = r.tuner.ExciteMeasure(flags, exciteKlipper,
			exciteFrequency, exciteAcceleration, exciteCycles, exciteCalibrate)
		return err
	},
}

func init() {
	exciteCmd.Flags().Float64VarP(&exciteFrequency, "frequency", "f", 35,
		"excitation frequency in Hz")
	exciteCmd.Flags().Float64VarP(&exciteAcceleration, "acceleration", "a", 2.5,
		"excitation acceleration in m/s^2")
	exciteCmd.Flags().Uint32VarP(&exciteCycles, "cycles", "n", 50,
		"number of excitation periods of active measurement")
	exciteCmd.Flags().BoolVarP(&exciteCalibrate, "calibrate", "c", false,
		"calibrate the accelerometer sample rate first")
	exciteCmd.Flags().BoolVarP(&exciteKlipper, "klipper", "k", false,
		"klipper compatible CSV report")
}
