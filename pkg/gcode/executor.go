// Package gcode provides the G-code console front end of the
// resonance tuning host. It parses Marlin-style command lines and
// dispatches the tuning commands:
//
//	M958 - excite harmonic vibration at one frequency and measure
//	M959 - sweep, fit an input shaper and commit it
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package gcode

import (
	"regexp"
	"strconv"
	"strings"

	"buddy-go-migration/pkg/errors"
	"buddy-go-migration/pkg/log"
	"buddy-go-migration/pkg/pool"
	"buddy-go-migration/pkg/stepqueue"
	"buddy-go-migration/pkg/tune"
)

// Executor dispatches tuning G-code commands.
type Executor struct {
	tuner  *tune.Tuner
	sweep  tune.Params
	logger *log.Logger
}

// NewExecutor creates an executor. sweep supplies the defaults used
// when a command omits its range parameters.
func NewExecutor(tuner *tune.Tuner, sweep tune.Params, logger *log.Logger) *Executor {
	if logger == nil {
		logger = log.Default()
	}
	return &Executor{
		tuner:  tuner,
		sweep:  sweep,
		logger: logger.Component("gcode"),
	}
}

// Execute parses and runs one G-code line. Empty lines and comments
// are silently accepted.
func (e *Executor) Execute(line string) error {
	name, args, err := parseLine(line)
	if name == "" || err != nil {
		return err
	}
	defer pool.PutArgsMap(args)

	e.logger.Debug("executing", "command", name)

	switch name {
	case "M958":
		return e.executeExcite(name, args)
	case "M959":
		return e.executeTune(name, args)
	default:
		return errors.GCodeUnknownCommandError(name)
	}
}

// executeExcite handles M958: X/Y motor selection, F frequency,
// A acceleration in mm/s^2, N cycles, C sample rate calibration,
// K klipper compatible report.
func (e *Executor) executeExcite(name string, args map[string]string) error {
	flags, err := axisFlags(name, args)
	if err != nil {
		return err
	}
	frequency, err := floatArg(name, args, "F", 35)
	if err != nil {
		return err
	}
	acceleration, err := accelerationArg(name, args)
	if err != nil {
		return err
	}
	cycles, err := cyclesArg(name, args)
	if err != nil {
		return err
	}
	_, calibrate := args["C"]
	_, klipperMode := args["K"]

	_, err = e.tuner.ExciteMeasure(flags, klipperMode, frequency, acceleration, cycles, calibrate)
	return err
}

// executeTune handles M959: X/Y motor selection, F/G/H sweep range
// and step, A acceleration, N cycles, K klipper algorithm, M modified
// klipper algorithm (excitation subtracted).
func (e *Executor) executeTune(name string, args map[string]string) error {
	flags, err := axisFlags(name, args)
	if err != nil {
		return err
	}

	params := e.sweep
	if params.FrequencyStep == 0 {
		params = tune.DefaultParams()
	}
	if params.StartFrequency, err = floatArg(name, args, "F", params.StartFrequency); err != nil {
		return err
	}
	if params.EndFrequency, err = floatArg(name, args, "G", params.EndFrequency); err != nil {
		return err
	}
	if params.FrequencyStep, err = floatArg(name, args, "H", params.FrequencyStep); err != nil {
		return err
	}
	if params.Acceleration, err = accelerationArg(name, args); err != nil {
		return err
	}
	if params.Cycles, err = cyclesArg(name, args); err != nil {
		return err
	}

	_, klipper := args["K"]
	_, subtract := args["M"]
	if klipper {
		return e.tuner.SpectrumTune(subtract, flags, params)
	}
	return e.tuner.NaiveZVTune(flags, params)
}

// axisFlags builds the step event flags from the X and Y parameters.
// The parameter value is the initial direction, 1 or -1; a bare
// letter means 1. With neither letter present the X motor is
// selected, matching the firmware handlers.
func axisFlags(command string, args map[string]string) (stepqueue.StepEventFlags, error) {
	var flags stepqueue.StepEventFlags
	if v, ok := args["X"]; ok {
		dir, err := directionValue(command, "X", v)
		if err != nil {
			return 0, err
		}
		flags |= stepqueue.FlagStepX
		if dir < 0 {
			flags |= stepqueue.FlagDirX
		}
	}
	if v, ok := args["Y"]; ok {
		dir, err := directionValue(command, "Y", v)
		if err != nil {
			return 0, err
		}
		flags |= stepqueue.FlagStepY
		if dir < 0 {
			flags |= stepqueue.FlagDirY
		}
	}
	if flags&stepqueue.FlagAxisMask == 0 {
		flags |= stepqueue.FlagStepX
	}
	return flags, nil
}

func directionValue(command, param, value string) (int, error) {
	if value == "" {
		return 1, nil
	}
	dir, err := strconv.Atoi(value)
	if err != nil || (dir != 1 && dir != -1) {
		return 0, errors.GCodeInvalidParameterError(command, param, value, "want 1 or -1")
	}
	return dir, nil
}

// floatArg returns the absolute value of a float parameter, or the
// default when absent.
func floatArg(command string, args map[string]string, param string, def float64) (float64, error) {
	v, ok := args[param]
	if !ok || v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.GCodeInvalidParameterError(command, param, v, "not a number")
	}
	if f < 0 {
		f = -f
	}
	return f, nil
}

// accelerationArg reads A in mm/s^2 and converts to m/s^2, defaulting
// to 2.5 m/s^2.
func accelerationArg(command string, args map[string]string) (float64, error) {
	v, ok := args["A"]
	if !ok || v == "" {
		return 2.5, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.GCodeInvalidParameterError(command, "A", v, "not a number")
	}
	if f < 0 {
		f = -f
	}
	return f * 0.001, nil
}

func cyclesArg(command string, args map[string]string) (uint32, error) {
	v, ok := args["N"]
	if !ok || v == "" {
		return 50, nil
	}
	n, err := strconv.ParseUint(v, 10, 32)
	if err != nil || n == 0 {
		return 0, errors.GCodeInvalidParameterError(command, "N", v, "want a positive integer")
	}
	return uint32(n), nil
}

var reParenComment = regexp.MustCompile(`\([^)]*\)`)

// parseLine splits a G-code line into the command name and its
// letter-keyed parameters. The returned map comes from the argument
// pool; the caller returns it with pool.PutArgsMap. An empty name
// means the line held no command.
func parseLine(line string) (string, map[string]string, error) {
	ln := strings.TrimSpace(line)
	if idx := strings.IndexByte(ln, ';'); idx >= 0 {
		ln = strings.TrimSpace(ln[:idx])
	}
	ln = strings.TrimSpace(reParenComment.ReplaceAllString(ln, " "))
	if ln == "" {
		return "", nil, nil
	}

	fields := pool.GetStringSlice()
	defer pool.PutStringSlice(fields)
	*fields = append(*fields, strings.Fields(ln)...)

	name := strings.ToUpper((*fields)[0])
	if len(name) < 2 || (name[0] != 'M' && name[0] != 'G') {
		return "", nil, errors.GCodeParseError(line, "missing command word")
	}

	args := pool.GetArgsMap()
	for _, f := range (*fields)[1:] {
		letter := strings.ToUpper(f[:1])
		args[letter] = f[1:]
	}
	return name, args, nil
}
