//go:build linux

package serial

import "golang.org/x/sys/unix"

// Platform-specific ioctl constants for Linux
const (
	ioctlGetTermios = unix.TCGETS
	ioctlSetTermios = unix.TCSETS
)

// setSpeed sets the baud rate on the termios struct for Linux.
func setSpeed(termios *unix.Termios, speed uint32) {
	termios.Ispeed = speed
	termios.Ospeed = speed
}

// flushInput discards unread input bytes.
func flushInput(fd int) error {
	return unix.IoctlSetInt(fd, unix.TCFLSH, unix.TCIFLUSH)
}
