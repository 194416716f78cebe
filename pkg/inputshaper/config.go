// Active input shaper configuration
//
// Holds the process-wide filter configuration the tuner commits once
// a winning shaper has been selected. Committing here is the only
// state mutation visible outside the tuning core.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package inputshaper

import "sync"

// AxisConfig is the active filter setting of one logical axis.
type AxisConfig struct {
	Enabled            bool
	DampingRatio       float64
	Frequency          float64
	VibrationReduction float64
	Type               Type
}

// Config is the motion-filter configuration collaborator.
type Config struct {
	mu sync.Mutex
	x  AxisConfig
	y  AxisConfig
}

// NewConfig creates an empty configuration with shaping disabled on
// both axes.
func NewConfig() *Config {
	return &Config{}
}

// Set commits the filter configuration for the selected axes.
func (c *Config) Set(affectsX, affectsY bool, dampingRatio, frequency, vibrationReduction float64, typ Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cfg := AxisConfig{
		Enabled:            true,
		DampingRatio:       dampingRatio,
		Frequency:          frequency,
		VibrationReduction: vibrationReduction,
		Type:               typ,
	}
	if affectsX {
		c.x = cfg
	}
	if affectsY {
		c.y = cfg
	}
}

// AxisX returns the active X axis setting.
func (c *Config) AxisX() AxisConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.x
}

// AxisY returns the active Y axis setting.
func (c *Config) AxisY() AxisConfig {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.y
}
