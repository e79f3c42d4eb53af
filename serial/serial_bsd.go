//go:build darwin || dragonfly || freebsd || netbsd || openbsd

package serial

import (
	"unsafe"

	"github.com/ansel1/merry"
	"golang.org/x/sys/unix"
)

const ioctlReadTermios = unix.TIOCGETA
const ioctlWriteTermios = unix.TIOCSETA

func (p *Port) flush() error {
	const FREAD = 0x01
	const FWRITE = 0x02
	com := int(FREAD | FWRITE)
	_, _, e := unix.Syscall(unix.SYS_IOCTL,
		p.f.Fd(),
		unix.TIOCFLUSH,
		uintptr(unsafe.Pointer(&com)))
	if e != 0 {
		return e
	}
	return nil
}

// On the BSDs speed_t holds the baud rate itself.
var baudRates = map[int]bool{
	9600:   true,
	19200:  true,
	38400:  true,
	57600:  true,
	115200: true,
	230400: true,
}

func setSpeed[T ~int32 | ~uint32 | ~uint64](dst *T, baudrate int) {
	*dst = T(baudrate)
}

func (t *termios) SetBaudrate(baudrate int) error {
	if !baudRates[baudrate] {
		return merry.Wrap(ErrInvalidParam).Appendf("baud rate %d", baudrate)
	}
	setSpeed(&t.Ispeed, baudrate)
	setSpeed(&t.Ospeed, baudrate)
	return nil
}
