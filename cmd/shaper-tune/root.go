// Root command and shared tuner rig construction
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"buddy-go-migration/pkg/accelerometer"
	"buddy-go-migration/pkg/config"
	"buddy-go-migration/pkg/inputshaper"
	"buddy-go-migration/pkg/kinematics"
	"buddy-go-migration/pkg/log"
	"buddy-go-migration/pkg/measure"
	"buddy-go-migration/pkg/reactor"
	"buddy-go-migration/pkg/shaperfit"
	"buddy-go-migration/pkg/stepqueue"
	"buddy-go-migration/pkg/telemetry"
	"buddy-go-migration/pkg/tune"
)

var (
	configFile string
	logLevel   string
	axisX      int
	axisY      int
)

var rootCmd = &cobra.Command{
	Use:   "shaper-tune",
	Short: "Resonance tuning host for input shaper calibration",
	Long: `shaper-tune excites the printer structure with harmonic step
sequences, measures the response with an accelerometer and fits an
input shaper filter to the measured resonance spectrum.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (defaults plus SHAPERTUNE_* environment when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"log level (debug, info, warn, error); overrides the config file")
	rootCmd.PersistentFlags().IntVarP(&axisX, "x", "x", 0,
		"vibrate with X motor, starting in direction 1 or -1")
	rootCmd.PersistentFlags().IntVarP(&axisY, "y", "y", 0,
		"vibrate with Y motor, starting in direction 1 or -1")

	rootCmd.AddCommand(exciteCmd)
	rootCmd.AddCommand(tuneCmd)
}

// axisFlags converts the X/Y direction flags to step event flags.
// Direction -1 sets the motor's initial direction bit.
func axisFlags(x, y int) (stepqueue.StepEventFlags, error) {
	var flags stepqueue.StepEventFlags
	switch x {
	case 0:
	case 1:
		flags |= stepqueue.FlagStepX
	case -1:
		flags |= stepqueue.FlagStepX | stepqueue.FlagDirX
	default:
		return 0, fmt.Errorf("invalid X direction %d, want 1 or -1", x)
	}
	switch y {
	case 0:
	case 1:
		flags |= stepqueue.FlagStepY
	case -1:
		flags |= stepqueue.FlagStepY | stepqueue.FlagDirY
	default:
		return 0, fmt.Errorf("invalid Y direction %d, want 1 or -1", y)
	}
	if flags&stepqueue.FlagAxisMask == 0 {
		return 0, fmt.Errorf("select at least one motor with --x or --y")
	}
	return flags, nil
}

// rig bundles everything a tuning command needs, plus its teardown.
type rig struct {
	cfg    *config.Config
	tuner  *tune.Tuner
	shaper *inputshaper.Config
	logger *log.Logger
	stop   func()
}

func buildSensor(cfg *config.Config) (accelerometer.Accelerometer, error) {
	switch cfg.Sensor.Type {
	case "none":
		return accelerometer.None{}, nil
	case "sim":
		rate := 1.0 / measure.DefaultSamplePeriod
		return accelerometer.NewSimulated(cfg.Sensor.SimFrequency, cfg.Sensor.SimDampingRatio, rate), nil
	case "adxl345":
		return accelerometer.NewADXL345(cfg.Sensor.I2CBus, cfg.Sensor.I2CAddr)
	case "stream":
		return accelerometer.NewStream(cfg.Sensor.Device, cfg.Sensor.BaudRate, 0)
	default:
		return nil, fmt.Errorf("unknown sensor type %q", cfg.Sensor.Type)
	}
}

func buildRecorder(cfg *config.Config, logger *log.Logger) (*telemetry.Recorder, error) {
	var sinks []telemetry.Sink
	if cfg.Telemetry.LogMetrics {
		sinks = append(sinks, telemetry.NewLogSink(logger))
	}
	if cfg.Telemetry.MQTTBroker != "" {
		sink, err := telemetry.NewMQTTSink(cfg.Telemetry.MQTTBroker,
			cfg.Telemetry.MQTTClient, cfg.Telemetry.MQTTTopic)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, sink)
	}
	if cfg.Telemetry.WSListen != "" {
		sinks = append(sinks, telemetry.NewWSSink(cfg.Telemetry.WSListen, logger))
	}
	if len(sinks) == 0 {
		return nil, nil
	}
	interval := time.Duration(cfg.Telemetry.IntervalMS) * time.Millisecond
	return telemetry.NewRecorder(interval, logger, sinks...), nil
}

// buildRig loads the configuration and wires the measurement session.
func buildRig() (*rig, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if logLevel == "" {
		logLevel = cfg.LogLevel
	}
	logger := log.New(os.Stderr, log.ParseLevel(logLevel))

	kind, err := kinematics.ParseKind(cfg.Kinematics.Kind)
	if err != nil {
		return nil, err
	}
	geometry := kinematics.Geometry{
		Kind:              kind,
		StepsPerMM:        cfg.Kinematics.StepsPerMM,
		DefaultMicrosteps: cfg.Kinematics.DefaultMicrosteps,
		Microsteps:        cfg.Kinematics.Microsteps,
	}

	sensor, err := buildSensor(cfg)
	if err != nil {
		return nil, err
	}
	recorder, err := buildRecorder(cfg, logger)
	if err != nil {
		sensor.Close()
		return nil, err
	}

	queue := stepqueue.NewQueue(cfg.Stepper.QueueSize)
	drainCtx, cancelDrain := context.WithCancel(context.Background())
	go stepqueue.RunDrainer(drainCtx, queue, cfg.Stepper.TicksPerSecond)

	idler := reactor.NewIdler()
	idler.Relax = 100 * time.Microsecond

	session := measure.NewSession(queue, sensor, idler, recorder, logger, cfg.Stepper.TicksPerSecond)
	shaper := inputshaper.NewConfig()
	fitter := shaperfit.NewFitter(logger)
	fitter.SetYield(idler.Yield)
	tuner := tune.NewTuner(session, geometry, shaper, fitter, logger, os.Stdout)

	return &rig{
		cfg:    cfg,
		tuner:  tuner,
		shaper: shaper,
		logger: logger,
		stop: func() {
			cancelDrain()
			if recorder != nil {
				recorder.Close()
			}
			if err := sensor.Close(); err != nil {
				logger.Warn("sensor close failed", "error", err)
			}
		},
	}, nil
}

// reportShaper prints the committed configuration of both axes.
func (r *rig) reportShaper() {
	for _, axis := range []struct {
		name string
		cfg  inputshaper.AxisConfig
	}{
		{"X", r.shaper.AxisX()},
		{"Y", r.shaper.AxisY()},
	} {
		if !axis.cfg.Enabled {
			continue
		}
		r.logger.Info("axis shaper active",
			"axis", axis.name,
			"type", axis.cfg.Type.String(),
			"frequency", axis.cfg.Frequency,
			"damping_ratio", axis.cfg.DampingRatio,
			"vibration_reduction", axis.cfg.VibrationReduction)
	}
}
