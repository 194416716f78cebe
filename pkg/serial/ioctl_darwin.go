//go:build darwin

package serial

import "golang.org/x/sys/unix"

// Platform-specific ioctl constants for macOS
const (
	ioctlGetTermios = unix.TIOCGETA
	ioctlSetTermios = unix.TIOCSETA
)

// setSpeed sets the baud rate on the termios struct for macOS.
func setSpeed(termios *unix.Termios, speed uint32) {
	termios.Ispeed = uint64(speed)
	termios.Ospeed = uint64(speed)
}

// flushInput discards unread input bytes.
func flushInput(fd int) error {
	flag := unix.FREAD
	return unix.IoctlSetPointerInt(fd, unix.TIOCFLUSH, flag)
}
