// Package serial provides the serial port used to talk to the dev-kit.
package serial

import (
	"time"

	"github.com/ansel1/merry"
)

type Parity int
type StopBits int
type FlowControl int

// Parity checking.
const (
	ParityNone Parity = iota
	ParityOdd
	ParityEven
	ParityMark
	ParitySpace
)

// Number of stop bits.
const (
	StopBitsOne StopBits = iota
	StopBitsOnePointFive
	StopBitsTwo
)

func (p Parity) String() string {
	switch p {
	case ParityNone:
		return "none"
	case ParityOdd:
		return "odd"
	case ParityEven:
		return "even"
	case ParityMark:
		return "mark"
	case ParitySpace:
		return "space"
	}
	return ""
}

func (s StopBits) String() string {
	switch s {
	case StopBitsOne:
		return "1"
	case StopBitsOnePointFive:
		return "1.5"
	case StopBitsTwo:
		return "2"
	}
	return ""
}

// Flow control used during transfering.
//
// The dev-kit does not use flow control; the other modes are kept for
// adapters that require them.
const (
	FlowControlNone    FlowControl = 0         // No flow control. (Default)
	FlowControlXonXoff FlowControl = 1 << iota // Software (XON/XOFF) flow control.
	FlowControlRtsCts                          // Hardware (RTS/CTS) flow control.
	FlowControlDtrDsr                          // Hardware (DTR/DSR) flow control.
)

// Default XON/XOFF character.
const (
	xON  = 17
	xOFF = 19
)

type Config struct {
	BaudRate    int         // Baud rate. (Default: 115200)
	DataBits    int         // Number of data bits. Range: 5-8. (Default: 8)
	Parity      Parity      // Parity checking.
	StopBits    StopBits    // Number of stop bits.
	FlowControl FlowControl // Flow control mechanism.
}

var defaultConfig = Config{
	BaudRate:    115200,
	DataBits:    8,
	Parity:      ParityNone,
	StopBits:    StopBitsOne,
	FlowControl: FlowControlNone,
}

// withDefaults returns a copy of c with zero fields filled in.
func withDefaults(c *Config) Config {
	if c == nil {
		return defaultConfig
	}
	out := *c
	if out.BaudRate == 0 {
		out.BaudRate = defaultConfig.BaudRate
	}
	if out.DataBits == 0 {
		out.DataBits = defaultConfig.DataBits
	}
	return out
}

const (
	// DefaultTimeout is the first-byte read timeout of a freshly opened port.
	DefaultTimeout = 2 * time.Second

	// BlockForever disables the read timeout.
	BlockForever time.Duration = -1
)

var (
	ErrTimeout      = merry.New("I/O operation timeout")
	ErrInvalid      = merry.New("invalid port")
	ErrInvalidName  = merry.New("invalid name")
	ErrInvalidParam = merry.New("invalid parameter")
	ErrNotSupported = merry.New("not supported by OS or implementation")
)

// interByteTimeout returns the wait between chunks of one read: the
// configured value, or one and a half character times at the baud rate.
func interByteTimeout(configured time.Duration, baudrate int) time.Duration {
	if configured > 0 {
		return configured
	}
	charTime := time.Duration(float64(time.Second) * 10 / float64(baudrate))
	d := charTime * 3 / 2
	if d < time.Millisecond {
		d = time.Millisecond
	}
	return d
}

func validateTimeout(d time.Duration) error {
	if d < BlockForever {
		return merry.Wrap(ErrInvalidParam).Appendf("timeout %v", d)
	}
	return nil
}
