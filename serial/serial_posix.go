//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package serial

import (
	"os"
	"runtime"
	"sync"
	"syscall"
	"time"

	"github.com/ansel1/merry"
	"golang.org/x/sys/unix"
)

type Port struct {
	f         *os.File
	rl        sync.Mutex
	wl        sync.Mutex
	baudrate  int
	timeout   time.Duration
	interbyte time.Duration
}

func Open(name string, c *Config) (p *Port, err error) {
	// Open the serial port.
	f, err := os.OpenFile(name, syscall.O_RDWR|syscall.O_NOCTTY|syscall.O_NONBLOCK, 0666)
	if err != nil {
		return nil, merry.Wrap(err).Appendf("open %s", name)
	}
	defer func() {
		if err != nil {
			f.Close()
		}
	}()

	p = &Port{f: f}

	// Remove O_NONBLOCK flag after the port is open.
	err = p.setFlag(0)
	if err != nil {
		return nil, err
	}

	cfg := withDefaults(c)
	t, err := buildTermios(&cfg)
	if err != nil {
		return nil, err
	}
	err = p.setTermios(t)
	if err != nil {
		return nil, err
	}

	p.baudrate = cfg.BaudRate
	p.timeout = DefaultTimeout

	// Clear buffers.
	p.Flush()

	runtime.SetFinalizer(p, (*Port).Close)
	return p, nil
}

func (p *Port) Close() error {
	if p == nil || p.f == nil {
		return nil
	}

	err := p.f.Close()
	if err != nil {
		return err
	}

	p.f = nil
	runtime.SetFinalizer(p, nil)
	return nil
}

// Read waits up to the read timeout for the first byte, then keeps reading
// while more bytes arrive within the inter-byte timeout.
func (p *Port) Read(buf []byte) (int, error) {
	if p == nil || p.f == nil {
		return 0, ErrInvalid
	}
	p.rl.Lock()
	defer p.rl.Unlock()

	if len(buf) == 0 {
		return 0, nil
	}

	ready, err := p.wait(p.timeout)
	if err != nil {
		return 0, err
	}
	if !ready {
		return 0, ErrTimeout
	}
	n, err := p.f.Read(buf)
	if n == 0 || err != nil {
		return n, err
	}

	gap := interByteTimeout(p.interbyte, p.baudrate)
	for n < len(buf) {
		ready, err := p.wait(gap)
		if err != nil || !ready {
			return n, err
		}
		delta, err := p.f.Read(buf[n:])
		n += delta
		if delta == 0 || err != nil {
			return n, err
		}
	}
	return n, nil
}

// wait blocks until the port is readable or d elapses. A negative d
// blocks indefinitely.
func (p *Port) wait(d time.Duration) (bool, error) {
	ms := -1
	if d >= 0 {
		ms = int((d + time.Millisecond - 1) / time.Millisecond)
	}
	fds := []unix.PollFd{{Fd: int32(p.f.Fd()), Events: unix.POLLIN}}
	for {
		n, err := unix.Poll(fds, ms)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return false, err
		}
		return n > 0 && fds[0].Revents&unix.POLLIN != 0, nil
	}
}

func (p *Port) Write(buf []byte) (int, error) {
	if p == nil || p.f == nil {
		return 0, ErrInvalid
	}
	p.wl.Lock()
	defer p.wl.Unlock()

	return p.f.Write(buf)
}

// Flush discards data written to the port but not transmitted,
// or data received but not read.
func (p *Port) Flush() error {
	if p == nil || p.f == nil {
		return nil
	}
	return p.flush()
}

// Timeout returns the first-byte read timeout.
func (p *Port) Timeout() time.Duration {
	p.rl.Lock()
	defer p.rl.Unlock()
	return p.timeout
}

// SetTimeout sets how long Read waits for the first byte. Use BlockForever
// to wait without limit.
func (p *Port) SetTimeout(d time.Duration) error {
	if p == nil || p.f == nil {
		return ErrInvalid
	}
	if err := validateTimeout(d); err != nil {
		return err
	}
	p.rl.Lock()
	defer p.rl.Unlock()
	p.timeout = d
	return nil
}

// SetInterByteTimeout sets the gap allowed between bytes of one Read.
// Zero derives it from the baud rate.
func (p *Port) SetInterByteTimeout(d time.Duration) error {
	if p == nil || p.f == nil {
		return ErrInvalid
	}
	if d < 0 {
		return merry.Wrap(ErrInvalidParam).Appendf("inter-byte timeout %v", d)
	}
	p.rl.Lock()
	defer p.rl.Unlock()
	p.interbyte = d
	return nil
}

const (
	termios_POSIX_VDISABLE = 0xff
	termios_CCTS_OFLOW     = 0x00010000
	termios_CRTS_IFLOW     = 0x00020000
	termios_CDTR_IFLOW     = 0x00040000
	termios_CDSR_OFLOW     = 0x00080000
	termios_CMSPAR         = 0x40000000
)

type termios unix.Termios

func (p *Port) getTermios() (*termios, error) {
	t, err := unix.IoctlGetTermios(int(p.f.Fd()), ioctlReadTermios)
	if err != nil {
		return nil, err
	}
	return (*termios)(t), nil
}

func (p *Port) setTermios(t *termios) error {
	return unix.IoctlSetTermios(int(p.f.Fd()), ioctlWriteTermios, (*unix.Termios)(t))
}

// setFlag performs a fcntl syscall for F_SETFL to set the file status flags.
func (p *Port) setFlag(flag int) error {
	_, err := unix.FcntlInt(p.f.Fd(), unix.F_SETFL, flag)
	return err
}

// buildTermios returns raw-mode settings for c. Reads never block in the
// kernel (VMIN=0, VTIME=0); Read enforces its timeouts with poll.
func buildTermios(c *Config) (*termios, error) {
	t := &termios{}
	for i := 0; i < len(t.Cc); i++ {
		t.Cc[i] = termios_POSIX_VDISABLE
	}
	t.Cc[unix.VMIN] = 0
	t.Cc[unix.VTIME] = 0
	t.Cflag |= unix.CREAD | unix.CLOCAL
	err := t.SetBaudrate(c.BaudRate)
	if err != nil {
		return nil, err
	}
	err = t.SetDataBits(c.DataBits)
	if err != nil {
		return nil, err
	}
	err = t.SetParity(c.Parity)
	if err != nil {
		return nil, err
	}
	err = t.SetStopBits(c.StopBits)
	if err != nil {
		return nil, err
	}
	err = t.SetFlowControl(c.FlowControl)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (t *termios) SetDataBits(databits int) error {
	switch databits {
	case 5:
		t.Cflag = t.Cflag&^unix.CSIZE | unix.CS5
	case 6:
		t.Cflag = t.Cflag&^unix.CSIZE | unix.CS6
	case 7:
		t.Cflag = t.Cflag&^unix.CSIZE | unix.CS7
	case 8:
		t.Cflag = t.Cflag&^unix.CSIZE | unix.CS8
	default:
		return merry.Wrap(ErrInvalidParam).Appendf("data bits %d", databits)
	}
	return nil
}

func (t *termios) SetParity(parity Parity) error {
	switch parity {
	case ParityNone:
		t.Cflag &^= unix.PARENB
	case ParityOdd:
		t.Cflag |= unix.PARENB
		t.Cflag &^= termios_CMSPAR
		t.Cflag |= unix.PARODD
	case ParityEven:
		t.Cflag |= unix.PARENB
		t.Cflag &^= termios_CMSPAR
		t.Cflag &^= unix.PARODD
	case ParityMark:
		t.Cflag |= unix.PARENB
		t.Cflag |= termios_CMSPAR
		t.Cflag |= unix.PARODD
	case ParitySpace:
		t.Cflag |= unix.PARENB
		t.Cflag |= termios_CMSPAR
		t.Cflag &^= unix.PARODD
	default:
		return merry.Wrap(ErrInvalidParam).Appendf("parity %d", parity)
	}
	return nil
}

func (t *termios) SetStopBits(stopbits StopBits) error {
	switch stopbits {
	case StopBitsOne:
		t.Cflag &^= unix.CSTOPB
	case StopBitsOnePointFive:
		return ErrNotSupported
	case StopBitsTwo:
		t.Cflag |= unix.CSTOPB
	default:
		return merry.Wrap(ErrInvalidParam).Appendf("stop bits %d", stopbits)
	}
	return nil
}

func (t *termios) SetFlowControl(flowcontrol FlowControl) error {
	if flowcontrol&FlowControlRtsCts != 0 {
		t.Cflag |= termios_CRTS_IFLOW | termios_CCTS_OFLOW
	} else {
		t.Cflag &^= termios_CRTS_IFLOW | termios_CCTS_OFLOW
	}

	if flowcontrol&FlowControlDtrDsr != 0 {
		t.Cflag |= termios_CDTR_IFLOW | termios_CDSR_OFLOW
	} else {
		t.Cflag &^= termios_CDTR_IFLOW | termios_CDSR_OFLOW
	}

	t.Cc[unix.VSTART] = xON
	t.Cc[unix.VSTOP] = xOFF
	if flowcontrol&FlowControlXonXoff != 0 {
		t.Iflag |= unix.IXON | unix.IXOFF
	} else {
		t.Iflag &^= unix.IXON | unix.IXOFF
	}

	return nil
}
