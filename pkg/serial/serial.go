// Package serial provides the raw serial port used to stream
// accelerometer samples from the printer board.
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package serial

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// ErrClosed is returned by operations on a closed port.
var ErrClosed = errors.New("serial: port closed")

// Config holds serial port configuration.
type Config struct {
	// Device path, e.g. /dev/ttyACM0.
	Device string

	// BaudRate of the link (default 115200).
	BaudRate int
}

// Port is an open raw-mode serial port.
type Port struct {
	fd     int
	device string
	closed bool
}

// Open opens the device in 8N1 raw mode at the configured baud rate.
func Open(cfg Config) (*Port, error) {
	if cfg.Device == "" {
		return nil, errors.New("serial: device path required")
	}
	if cfg.BaudRate == 0 {
		cfg.BaudRate = 115200
	}

	fd, err := unix.Open(cfg.Device, unix.O_RDWR|unix.O_NOCTTY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", cfg.Device, err)
	}

	termios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("serial: get termios: %w", err)
	}

	// Raw 8N1: no input/output processing, no echo, no signals.
	termios.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON | unix.IXOFF | unix.IXANY
	termios.Oflag &^= unix.OPOST
	termios.Cflag &^= unix.CSIZE | unix.PARENB | unix.PARODD | unix.CSTOPB
	termios.Cflag |= unix.CS8 | unix.CREAD | unix.CLOCAL
	termios.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN

	speed, err := baudRateToSpeed(cfg.BaudRate)
	if err != nil {
		unix.Close(fd)
		return nil, err
	}
	setSpeed(termios, speed)

	// Non-blocking reads: the sample pump polls.
	termios.Cc[unix.VMIN] = 0
	termios.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, ioctlSetTermios, termios); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("serial: set termios: %w", err)
	}

	return &Port{fd: fd, device: cfg.Device}, nil
}

// Read reads available bytes without blocking indefinitely; it
// returns 0 when no data is pending.
func (p *Port) Read(buf []byte) (int, error) {
	if p.closed {
		return 0, ErrClosed
	}
	n, err := unix.Read(p.fd, buf)
	if err != nil {
		if errors.Is(err, unix.EAGAIN) {
			return 0, nil
		}
		return 0, fmt.Errorf("serial: read %s: %w", p.device, err)
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}

// Flush discards pending input.
func (p *Port) Flush() error {
	if p.closed {
		return ErrClosed
	}
	return flushInput(p.fd)
}

// Device returns the device path.
func (p *Port) Device() string { return p.device }

// Close closes the port.
func (p *Port) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return unix.Close(p.fd)
}

// baudRateToSpeed maps a numeric baud rate to the termios constant.
func baudRateToSpeed(baud int) (uint32, error) {
	switch baud {
	case 9600:
		return unix.B9600, nil
	case 19200:
		return unix.B19200, nil
	case 38400:
		return unix.B38400, nil
	case 57600:
		return unix.B57600, nil
	case 115200:
		return unix.B115200, nil
	case 230400:
		return unix.B230400, nil
	default:
		return 0, fmt.Errorf("serial: unsupported baud rate %d", baud)
	}
}
