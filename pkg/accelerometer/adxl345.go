// ADXL345 accelerometer driver over I2C
//
// Minimal driver for the tuner's sampling needs: 3200 Hz data rate,
// full resolution at +/-16 g, FIFO in stream mode drained one sample
// per poll.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package accelerometer

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// ADXL345 register addresses.
const (
	adxlRegDevID      = 0x00
	adxlRegBWRate     = 0x2C
	adxlRegPowerCtl   = 0x2D
	adxlRegDataFormat = 0x31
	adxlRegDataX0     = 0x32
	adxlRegFIFOCtl    = 0x38
	adxlRegFIFOStatus = 0x39
)

const (
	adxlDevID        = 0xE5
	adxlRate3200Hz   = 0x0F
	adxlMeasureMode  = 0x08
	adxlFullRes16G   = 0x0B
	adxlFIFOStream   = 0x80
	adxlFIFOCountMsk = 0x3F
)

// DefaultI2CAddr is the ADXL345 address with the SDO pin low.
const DefaultI2CAddr = 0x53

// lsbToMS2 converts a full-resolution LSB (3.9 mg) to m/s^2.
const lsbToMS2 = 0.0039 * 9.80665

// ADXL345 reads acceleration samples from the chip's FIFO.
type ADXL345 struct {
	bus i2c.BusCloser
	dev i2c.Dev
}

// NewADXL345 opens the I2C bus, probes the device ID and configures
// the chip for continuous high-rate sampling.
func NewADXL345(busName string, addr uint16) (*ADXL345, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("accelerometer: host init: %w", err)
	}
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("accelerometer: open i2c bus %q: %w", busName, err)
	}
	a := &ADXL345{bus: bus, dev: i2c.Dev{Bus: bus, Addr: addr}}

	var id [1]byte
	if err := a.dev.Tx([]byte{adxlRegDevID}, id[:]); err != nil {
		bus.Close()
		return nil, fmt.Errorf("accelerometer: read device id: %w", err)
	}
	if id[0] != adxlDevID {
		bus.Close()
		return nil, fmt.Errorf("accelerometer: unexpected device id %#x", id[0])
	}

	setup := [][2]byte{
		{adxlRegBWRate, adxlRate3200Hz},
		{adxlRegDataFormat, adxlFullRes16G},
		{adxlRegFIFOCtl, adxlFIFOStream},
		{adxlRegPowerCtl, adxlMeasureMode},
	}
	for _, rv := range setup {
		if err := a.dev.Tx(rv[:], nil); err != nil {
			bus.Close()
			return nil, fmt.Errorf("accelerometer: write register %#x: %w", rv[0], err)
		}
	}
	return a, nil
}

// Present reports true.
func (a *ADXL345) Present() bool { return true }

// GetSample drains one sample from the FIFO, if available.
func (a *ADXL345) GetSample() (Sample, bool) {
	var status [1]byte
	if err := a.dev.Tx([]byte{adxlRegFIFOStatus}, status[:]); err != nil {
		return Sample{}, false
	}
	if status[0]&adxlFIFOCountMsk == 0 {
		return Sample{}, false
	}

	var raw [6]byte
	if err := a.dev.Tx([]byte{adxlRegDataX0}, raw[:]); err != nil {
		return Sample{}, false
	}
	x := int16(uint16(raw[0]) | uint16(raw[1])<<8)
	y := int16(uint16(raw[2]) | uint16(raw[3])<<8)
	z := int16(uint16(raw[4]) | uint16(raw[5])<<8)
	return Sample{
		X: float64(x) * lsbToMS2,
		Y: float64(y) * lsbToMS2,
		Z: float64(z) * lsbToMS2,
	}, true
}

// Clear drains whatever the FIFO currently holds.
func (a *ADXL345) Clear() {
	// The FIFO is 32 entries deep; one bounded pass empties it.
	for i := 0; i < 33; i++ {
		if _, ok := a.GetSample(); !ok {
			return
		}
	}
}

// Close powers the chip down and releases the bus.
func (a *ADXL345) Close() error {
	if err := a.dev.Tx([]byte{adxlRegPowerCtl, 0x00}, nil); err != nil {
		a.bus.Close()
		return fmt.Errorf("accelerometer: power down: %w", err)
	}
	return a.bus.Close()
}
