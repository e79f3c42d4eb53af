package serial

// https://msdn.microsoft.com/en-us/library/ff802693.aspx

import (
	"regexp"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"github.com/ansel1/merry"
	"golang.org/x/sys/windows"
)

var (
	modkernel32 = windows.NewLazyDLL("kernel32.dll")

	procSetCommState        = modkernel32.NewProc("SetCommState")
	procSetupComm           = modkernel32.NewProc("SetupComm")
	procSetCommTimeouts     = modkernel32.NewProc("SetCommTimeouts")
	procGetOverlappedResult = modkernel32.NewProc("GetOverlappedResult")
	procPurgeComm           = modkernel32.NewProc("PurgeComm")
)

type Port struct {
	name      string
	h         windows.Handle
	rl        sync.Mutex
	wl        sync.Mutex
	baudrate  int
	timeout   time.Duration
	interbyte time.Duration
}

// Flags for PurgeComm.
const (
	purgeTxAbort = 1 << 0
	purgeRxAbort = 1 << 1
	purgeTxClear = 1 << 2
	purgeRxClear = 1 << 3
)

var portNamePattern = regexp.MustCompile(`^[A-Za-z]+[0-9]+$`)
var shortPortPattern = regexp.MustCompile(`^COM[1-9]$`)

// formatPortName formats the port name to prepare it for CreateFile call.
func formatPortName(name string) string {
	if shortPortPattern.MatchString(name) {
		return name
	}
	return `\\.\` + name
}

func Open(name string, c *Config) (p *Port, err error) {
	if !portNamePattern.MatchString(name) {
		return nil, merry.Wrap(ErrInvalidName).Appendf("%q", name)
	}

	namePtr, err := windows.UTF16PtrFromString(formatPortName(name))
	if err != nil {
		return nil, err
	}

	h, err := windows.CreateFile(namePtr,
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0,
		nil,
		windows.OPEN_EXISTING,
		windows.FILE_ATTRIBUTE_NORMAL|windows.FILE_FLAG_OVERLAPPED,
		0)
	if err != nil {
		return nil, merry.Wrap(err).Appendf("open %s", name)
	}
	if h == windows.InvalidHandle {
		return nil, merry.Wrap(ErrInvalidName).Appendf("%q", name)
	}
	defer func() {
		if err != nil {
			windows.CloseHandle(h)
		}
	}()

	p = &Port{
		name: name,
		h:    h,
	}

	cfg := withDefaults(c)
	dcb, err := buildDCB(&cfg)
	if err != nil {
		return nil, err
	}
	err = p.setCommState(dcb)
	if err != nil {
		return nil, err
	}

	// Set internal buffer size.
	err = p.setupComm(4096, 4096)
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
	if p == nil || p.h == windows.InvalidHandle {
		return nil
	}

	windows.CloseHandle(p.h)
	p.h = windows.InvalidHandle

	runtime.SetFinalizer(p, nil)
	return nil
}

func (p *Port) overlappedRead(buf []byte) (int, error) {
	var overlapped windows.Overlapped
	var err error
	overlapped.HEvent, err = windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		return 0, err
	}
	defer windows.CloseHandle(overlapped.HEvent)

	var n uint32
	err = windows.ReadFile(p.h, buf, &n, &overlapped)
	if err == nil {
		return int(n), nil
	}
	if err != windows.ERROR_IO_PENDING {
		return int(n), err
	}
	r, _, err := procGetOverlappedResult.Call(uintptr(p.h),
		uintptr(unsafe.Pointer(&overlapped)),
		uintptr(unsafe.Pointer(&n)), 1)
	if r == 0 {
		return int(n), err
	}
	return int(n), nil
}

// Read waits up to the read timeout for the first byte, then keeps reading
// while more bytes arrive within the inter-byte timeout.
func (p *Port) Read(buf []byte) (int, error) {
	if p == nil || p.h == windows.InvalidHandle {
		return 0, ErrInvalid
	}
	p.rl.Lock()
	defer p.rl.Unlock()

	if len(buf) == 0 {
		return 0, nil
	}

	err := p.setCommTimeouts(p.timeout, 0)
	if err != nil {
		return 0, err
	}
	n, err := p.overlappedRead(buf[0:1])
	if n == 0 {
		if err != nil {
			return 0, err
		}
		return 0, ErrTimeout
	}

	// The interval timeout of the OS only starts after the first byte,
	// so the remaining bytes are read non-blocking with our own gap.
	err = p.setCommTimeouts(0, -1)
	if err != nil {
		return n, err
	}

	gap := interByteTimeout(p.interbyte, p.baudrate)
	for n < len(buf) {
		time.Sleep(gap)
		delta, err := p.overlappedRead(buf[n:])
		n += delta
		if delta == 0 || err != nil {
			return n, err
		}
	}

	return n, nil
}

func (p *Port) Write(buf []byte) (int, error) {
	if p == nil || p.h == windows.InvalidHandle {
		return 0, ErrInvalid
	}
	p.wl.Lock()
	defer p.wl.Unlock()

	var overlapped windows.Overlapped
	var err error
	overlapped.HEvent, err = windows.CreateEvent(nil, 1, 0, nil)
	if err != nil {
		return 0, err
	}
	defer windows.CloseHandle(overlapped.HEvent)

	var n uint32
	err = windows.WriteFile(p.h, buf, &n, &overlapped)
	if err == nil {
		return int(n), err
	}
	if err != windows.ERROR_IO_PENDING {
		return int(n), err
	}
	r, _, err := procGetOverlappedResult.Call(uintptr(p.h),
		uintptr(unsafe.Pointer(&overlapped)),
		uintptr(unsafe.Pointer(&n)), 1)
	if r == 0 {
		return int(n), err
	}
	return int(n), nil
}

// Flush discards data written to the port but not transmitted,
// or data received but not read.
func (p *Port) Flush() error {
	if p == nil || p.h == windows.InvalidHandle {
		return ErrInvalid
	}

	r, _, err := procPurgeComm.Call(uintptr(p.h),
		purgeTxAbort|purgeRxAbort|purgeTxClear|purgeRxClear)
	if r == 0 {
		return err
	}
	return nil
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
	if p == nil || p.h == windows.InvalidHandle {
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
	if p == nil || p.h == windows.InvalidHandle {
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

// setupComm sets up the recommended size of the device's internal input/output buffer, in bytes.
func (p *Port) setupComm(in, out uint32) error {
	r, _, err := procSetupComm.Call(uintptr(p.h), uintptr(in), uintptr(out))
	if r == 0 {
		return err
	}
	return nil
}

// Bits for Flags in winDCB.
const (
	fBinary              = 1 << 0
	fParity              = 1 << 1
	fOutxCtsFlow         = 1 << 2
	fOutxDsrFlow         = 1 << 3
	fDtrControlHandshake = 0x02 << 4
	fOutX                = 1 << 8
	fInX                 = 1 << 9
	fRtsControlHandshake = 0x02 << 12
)

type winDCB struct {
	DCBlength uint32
	BaudRate  uint32
	Flags     uint32
	reserved  uint16
	XonLim    uint16
	XoffLim   uint16
	ByteSize  uint8
	Parity    uint8
	StopBits  uint8
	XonChar   byte
	XoffChar  byte
	ErrorChar byte
	EofChar   byte
	EvtChar   byte
	reserved1 uint16
}

type commTimeouts struct {
	ReadIntervalTimeout         uint32
	ReadTotalTimeoutMultiplier  uint32
	ReadTotalTimeoutConstant    uint32
	WriteTotalTimeoutMultiplier uint32
	WriteTotalTimeoutConstant   uint32
}

// total=0 or interval=-1 for non-blocking read
// total>0, interval=0 for total timeout only
// total<0 blocks until a byte arrives
func (p *Port) setCommTimeouts(total, interval time.Duration) error {
	var timeouts commTimeouts
	switch {
	case interval < 0 || total == 0:
		timeouts.ReadIntervalTimeout = 1<<32 - 1
	case total < 0:
		// all zero: wait indefinitely
	default:
		timeouts.ReadIntervalTimeout = uint32(interval / time.Millisecond)
		timeouts.ReadTotalTimeoutConstant = uint32((total + time.Millisecond - 1) / time.Millisecond)
	}
	r, _, err := procSetCommTimeouts.Call(uintptr(p.h), uintptr(unsafe.Pointer(&timeouts)))
	if r == 0 {
		return err
	}
	return nil
}

// setCommState sets the DCB structure which defines the control settings for a serial device.
func (p *Port) setCommState(dcb *winDCB) error {
	r, _, err := procSetCommState.Call(uintptr(p.h), uintptr(unsafe.Pointer(dcb)))
	if r == 0 {
		return err
	}
	return nil
}

func buildDCB(c *Config) (*winDCB, error) {
	dcb := &winDCB{}
	dcb.DCBlength = uint32(unsafe.Sizeof(*dcb))
	dcb.Flags |= fBinary

	dcb.BaudRate = uint32(c.BaudRate)
	dcb.ByteSize = uint8(c.DataBits)
	err := dcb.SetParity(c.Parity)
	if err != nil {
		return nil, err
	}
	err = dcb.SetStopBits(c.StopBits)
	if err != nil {
		return nil, err
	}
	dcb.SetFlowControl(c.FlowControl)
	return dcb, nil
}

func (dcb *winDCB) SetParity(parity Parity) error {
	switch parity {
	case ParityNone:
		dcb.Parity = 0
		dcb.Flags &^= fParity
	case ParityOdd:
		dcb.Parity = 1
		dcb.Flags |= fParity
	case ParityEven:
		dcb.Parity = 2
		dcb.Flags |= fParity
	case ParityMark:
		dcb.Parity = 3
		dcb.Flags |= fParity
	case ParitySpace:
		dcb.Parity = 4
		dcb.Flags |= fParity
	default:
		return merry.Wrap(ErrInvalidParam).Appendf("parity %d", parity)
	}
	return nil
}

func (dcb *winDCB) SetStopBits(stopbits StopBits) error {
	switch stopbits {
	case StopBitsOne:
		dcb.StopBits = 0
	case StopBitsOnePointFive:
		dcb.StopBits = 1
	case StopBitsTwo:
		dcb.StopBits = 2
	default:
		return merry.Wrap(ErrInvalidParam).Appendf("stop bits %d", stopbits)
	}
	return nil
}

func (dcb *winDCB) SetFlowControl(flowcontrol FlowControl) {
	if flowcontrol&FlowControlRtsCts != 0 {
		dcb.Flags |= fRtsControlHandshake | fOutxCtsFlow
	} else {
		dcb.Flags &^= fRtsControlHandshake | fOutxCtsFlow
	}

	if flowcontrol&FlowControlDtrDsr != 0 {
		dcb.Flags |= fDtrControlHandshake | fOutxDsrFlow
	} else {
		dcb.Flags &^= fDtrControlHandshake | fOutxDsrFlow
	}

	dcb.XonChar = xON
	dcb.XoffChar = xOFF
	if flowcontrol&FlowControlXonXoff != 0 {
		dcb.Flags |= fInX | fOutX
	} else {
		dcb.Flags &^= fInX | fOutX
	}
}
