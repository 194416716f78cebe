// Tuner configuration
//
// Loads the host-side tuner settings from an optional YAML file,
// environment variables (SHAPERTUNE_*) and built-in defaults.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"buddy-go-migration/pkg/errors"
)

// Sweep holds the frequency sweep parameters.
type Sweep struct {
	StartFrequency float64 `mapstructure:"start_frequency"`
	EndFrequency   float64 `mapstructure:"end_frequency"`
	FrequencyStep  float64 `mapstructure:"frequency_step"`
	Acceleration   float64 `mapstructure:"acceleration"`
	Cycles         uint32  `mapstructure:"cycles"`
}

// Sensor selects and parameterizes the accelerometer backend.
type Sensor struct {
	// Type is one of none, sim, adxl345, stream.
	Type string `mapstructure:"type"`

	// I2CBus and I2CAddr locate an adxl345 sensor.
	I2CBus  string `mapstructure:"i2c_bus"`
	I2CAddr uint16 `mapstructure:"i2c_addr"`

	// Device and BaudRate locate a stream sensor.
	Device   string `mapstructure:"device"`
	BaudRate int    `mapstructure:"baud_rate"`

	// SimFrequency and SimDampingRatio parameterize the simulated
	// resonant structure.
	SimFrequency    float64 `mapstructure:"sim_frequency"`
	SimDampingRatio float64 `mapstructure:"sim_damping_ratio"`
}

// Kinematics holds the machine geometry.
type Kinematics struct {
	Kind              string  `mapstructure:"kind"`
	StepsPerMM        float64 `mapstructure:"steps_per_mm"`
	DefaultMicrosteps int     `mapstructure:"default_microsteps"`
	Microsteps        int     `mapstructure:"microsteps"`
}

// Stepper holds the step generation parameters.
type Stepper struct {
	QueueSize      int     `mapstructure:"queue_size"`
	TicksPerSecond float64 `mapstructure:"ticks_per_second"`
}

// Telemetry holds the optional metric sink endpoints. Empty endpoints
// disable the corresponding sink.
type Telemetry struct {
	IntervalMS int    `mapstructure:"interval_ms"`
	MQTTBroker string `mapstructure:"mqtt_broker"`
	MQTTClient string `mapstructure:"mqtt_client"`
	MQTTTopic  string `mapstructure:"mqtt_topic"`
	WSListen   string `mapstructure:"ws_listen"`
	LogMetrics bool   `mapstructure:"log_metrics"`
}

// Config is the full tuner configuration.
type Config struct {
	LogLevel   string     `mapstructure:"log_level"`
	Sweep      Sweep      `mapstructure:"sweep"`
	Sensor     Sensor     `mapstructure:"sensor"`
	Kinematics Kinematics `mapstructure:"kinematics"`
	Stepper    Stepper    `mapstructure:"stepper"`
	Telemetry  Telemetry  `mapstructure:"telemetry"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("sweep.start_frequency", 5.0)
	v.SetDefault("sweep.end_frequency", 150.0)
	v.SetDefault("sweep.frequency_step", 1.0)
	v.SetDefault("sweep.acceleration", 2.5)
	v.SetDefault("sweep.cycles", 50)

	v.SetDefault("sensor.type", "sim")
	v.SetDefault("sensor.i2c_bus", "")
	v.SetDefault("sensor.i2c_addr", 0x53)
	v.SetDefault("sensor.device", "/dev/ttyACM0")
	v.SetDefault("sensor.baud_rate", 115200)
	v.SetDefault("sensor.sim_frequency", 50.0)
	v.SetDefault("sensor.sim_damping_ratio", 0.1)

	v.SetDefault("kinematics.kind", "corexy")
	v.SetDefault("kinematics.steps_per_mm", 100.0)
	v.SetDefault("kinematics.default_microsteps", 16)
	v.SetDefault("kinematics.microsteps", 128)

	v.SetDefault("stepper.queue_size", 256)
	v.SetDefault("stepper.ticks_per_second", 1000000.0)

	v.SetDefault("telemetry.interval_ms", 100)
	v.SetDefault("telemetry.mqtt_broker", "")
	v.SetDefault("telemetry.mqtt_client", "shaper-tune")
	v.SetDefault("telemetry.mqtt_topic", "shaper-tune/metrics")
	v.SetDefault("telemetry.ws_listen", "")
	v.SetDefault("telemetry.log_metrics", false)
}

// Load reads the configuration from path. An empty path loads
// defaults and environment only; a missing explicit file is an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("SHAPERTUNE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, errors.ErrConfigOption, fmt.Sprintf("read %s", path))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigOption, "unmarshal")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the tuner cannot run with.
func (c *Config) Validate() error {
	if c.Sweep.FrequencyStep <= 0 {
		return errors.New(errors.ErrConfigValidation,
			fmt.Sprintf("frequency step must be positive, got %v", c.Sweep.FrequencyStep))
	}
	if c.Sweep.StartFrequency <= 0 || c.Sweep.EndFrequency < c.Sweep.StartFrequency {
		return errors.New(errors.ErrConfigValidation,
			fmt.Sprintf("invalid sweep range %v..%v", c.Sweep.StartFrequency, c.Sweep.EndFrequency))
	}
	if c.Sweep.Acceleration <= 0 {
		return errors.New(errors.ErrConfigValidation,
			fmt.Sprintf("acceleration must be positive, got %v", c.Sweep.Acceleration))
	}
	if c.Sweep.Cycles == 0 {
		return errors.New(errors.ErrConfigValidation, "cycles must be positive")
	}
	switch c.Sensor.Type {
	case "none", "sim", "adxl345", "stream":
	default:
		return errors.New(errors.ErrConfigValidation,
			fmt.Sprintf("unknown sensor type %q", c.Sensor.Type))
	}
	if c.Stepper.QueueSize < 1 {
		return errors.New(errors.ErrConfigValidation,
			fmt.Sprintf("queue size must be positive, got %d", c.Stepper.QueueSize))
	}
	if c.Stepper.TicksPerSecond <= 0 {
		return errors.New(errors.ErrConfigValidation,
			fmt.Sprintf("ticks per second must be positive, got %v", c.Stepper.TicksPerSecond))
	}
	if c.Kinematics.StepsPerMM <= 0 || c.Kinematics.DefaultMicrosteps <= 0 || c.Kinematics.Microsteps <= 0 {
		return errors.New(errors.ErrConfigValidation,
			fmt.Sprintf("invalid kinematics %+v", c.Kinematics))
	}
	return nil
}
