// Serial sample stream
//
// Reads the binary acceleration stream the printer board emits while
// tuning: framed little-endian int16 triplets at a fixed sample rate.
// A background pump keeps the port drained; GetSample stays
// non-blocking for the measurement loop.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package accelerometer

import (
	"fmt"
	"sync"

	"buddy-go-migration/pkg/serial"
)

// Stream frame layout: sync byte, three int16 little-endian axis
// values, XOR checksum of the six payload bytes.
const (
	streamSync      = 0xA5
	streamFrameSize = 8
)

// Stream is an Accelerometer fed by a serial sample stream.
type Stream struct {
	port  *serial.Port
	scale float64

	mu      sync.Mutex
	samples chan Sample
	done    chan struct{}
	wg      sync.WaitGroup
}

// NewStream opens the device and starts the background pump. scale
// converts one LSB to m/s^2; zero selects the ADXL345 full-resolution
// scale.
func NewStream(device string, baud int, scale float64) (*Stream, error) {
	port, err := serial.Open(serial.Config{Device: device, BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("accelerometer: %w", err)
	}
	if scale == 0 {
		scale = lsbToMS2
	}
	s := &Stream{
		port:    port,
		scale:   scale,
		samples: make(chan Sample, 4096),
		done:    make(chan struct{}),
	}
	s.wg.Add(1)
	go s.pump()
	return s, nil
}

// pump reads frames off the port and buffers decoded samples.
func (s *Stream) pump() {
	defer s.wg.Done()
	var frame [streamFrameSize]byte
	fill := 0
	buf := make([]byte, 512)

	for {
		select {
		case <-s.done:
			return
		default:
		}

		n, err := s.port.Read(buf)
		if err != nil {
			return
		}
		for _, b := range buf[:n] {
			if fill == 0 && b != streamSync {
				continue // resync
			}
			frame[fill] = b
			fill++
			if fill < streamFrameSize {
				continue
			}
			fill = 0

			sum := byte(0)
			for _, pb := range frame[1:7] {
				sum ^= pb
			}
			if sum != frame[7] {
				continue
			}

			smp := Sample{
				X: float64(int16(uint16(frame[1])|uint16(frame[2])<<8)) * s.scale,
				Y: float64(int16(uint16(frame[3])|uint16(frame[4])<<8)) * s.scale,
				Z: float64(int16(uint16(frame[5])|uint16(frame[6])<<8)) * s.scale,
			}
			select {
			case s.samples <- smp:
			default:
				// Buffer full: drop the oldest to keep the stream
				// current rather than stale.
				select {
				case <-s.samples:
				default:
				}
				select {
				case s.samples <- smp:
				default:
				}
			}
		}
	}
}

// Present reports true.
func (s *Stream) Present() bool { return true }

// GetSample returns the next buffered sample, if any.
func (s *Stream) GetSample() (Sample, bool) {
	select {
	case smp := <-s.samples:
		return smp, true
	default:
		return Sample{}, false
	}
}

// Clear discards the buffered backlog and pending port input.
func (s *Stream) Clear() {
	for {
		select {
		case <-s.samples:
		default:
			s.port.Flush()
			return
		}
	}
}

// Close stops the pump and closes the port.
func (s *Stream) Close() error {
	s.mu.Lock()
	select {
	case <-s.done:
	default:
		close(s.done)
	}
	s.mu.Unlock()
	err := s.port.Close()
	s.wg.Wait()
	return err
}
