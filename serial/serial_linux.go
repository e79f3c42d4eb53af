//go:build linux

package serial

import (
	"github.com/ansel1/merry"
	"golang.org/x/sys/unix"
)

const ioctlReadTermios = unix.TCGETS
const ioctlWriteTermios = unix.TCSETS

var baudRates = map[int]uint32{
	9600:    unix.B9600,
	19200:   unix.B19200,
	38400:   unix.B38400,
	57600:   unix.B57600,
	115200:  unix.B115200,
	230400:  unix.B230400,
	460800:  unix.B460800,
	921600:  unix.B921600,
	1000000: unix.B1000000,
}

func (p *Port) flush() error {
	_, _, e := unix.Syscall(unix.SYS_IOCTL,
		p.f.Fd(),
		unix.TCFLSH,
		unix.TCIOFLUSH)
	if e != 0 {
		return e
	}
	return nil
}

func (t *termios) SetBaudrate(baudrate int) error {
	cbaud, ok := baudRates[baudrate]
	if !ok {
		return merry.Wrap(ErrInvalidParam).Appendf("baud rate %d", baudrate)
	}
	t.Cflag &^= unix.CBAUD | unix.CBAUDEX
	t.Cflag |= cbaud
	t.Ispeed = cbaud
	t.Ospeed = cbaud
	return nil
}
