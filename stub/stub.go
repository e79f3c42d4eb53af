// Package stub simulates a dev-kit in memory. It behaves like the firmware
// for valid and invalid parameters and records every command, so
// applications and tests can run without hardware.
package stub

import (
	"sync"
	"time"

	"github.com/Andeling/microspec/protocol"
)

// Device is a simulated dev-kit. It satisfies microspec.Driver.
type Device struct {
	mu sync.Mutex

	open      bool
	timeout   time.Duration
	bridgeLED uint8
	sensorLED [2]uint8
	binning   uint8
	gain      uint8
	rowBitmap uint8
	cycles    uint16

	drop            int
	calls           []protocol.Command
	captureTimeouts []time.Duration
}

// New returns an open device in its power-on state: LEDs green, binning
// on, gain 1x, all rows, 1ms exposure and a 2s timeout.
func New() *Device {
	return &Device{
		open:      true,
		timeout:   2 * time.Second,
		bridgeLED: protocol.LEDGreen,
		sensorLED: [2]uint8{protocol.LEDGreen, protocol.LEDGreen},
		binning:   protocol.BinningOn,
		gain:      protocol.Gain1x,
		rowBitmap: protocol.RowsDefault,
		cycles:    50,
	}
}

// DropReplies makes the next n commands go unanswered, as if the reply
// was lost on the link.
func (d *Device) DropReplies(n int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.drop = n
}

// Calls returns the commands received so far, including dropped ones.
func (d *Device) Calls() []protocol.Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]protocol.Command(nil), d.calls...)
}

// CaptureTimeouts returns the timeout in effect at each CaptureFrame.
func (d *Device) CaptureTimeouts() []time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Duration(nil), d.captureTimeouts...)
}

// Cycles returns the stored exposure time.
func (d *Device) Cycles() uint16 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cycles
}

func (d *Device) IsOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.open
}

func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.open = false
	return nil
}

func (d *Device) Timeout() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.timeout
}

func (d *Device) SetTimeout(t time.Duration) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.timeout = t
	return nil
}

// receive logs cmd and reports whether the device answers it. The caller
// holds d.mu.
func (d *Device) receive(cmd protocol.Command) error {
	if !d.open {
		return protocol.ErrClosed
	}
	d.calls = append(d.calls, cmd)
	if d.drop > 0 {
		d.drop--
		return protocol.ErrTimeout
	}
	return nil
}

func status(ok bool) uint8 {
	if ok {
		return protocol.StatusOK
	}
	return protocol.StatusError
}

func validLED(setting uint8) bool {
	return setting == protocol.LEDOff || setting == protocol.LEDGreen || setting == protocol.LEDRed
}

func (d *Device) GetBridgeLED(ledNum uint8) (*protocol.BridgeLED, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.receive(protocol.CmdGetBridgeLED); err != nil {
		return nil, err
	}
	if ledNum != 0 {
		return &protocol.BridgeLED{Status: protocol.StatusError}, nil
	}
	return &protocol.BridgeLED{Status: protocol.StatusOK, LEDSetting: d.bridgeLED}, nil
}

func (d *Device) SetBridgeLED(ledNum, setting uint8) (*protocol.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.receive(protocol.CmdSetBridgeLED); err != nil {
		return nil, err
	}
	ok := ledNum == 0 && validLED(setting)
	if ok {
		d.bridgeLED = setting
	}
	return &protocol.Status{Status: status(ok)}, nil
}

func (d *Device) GetSensorLED(ledNum uint8) (*protocol.SensorLED, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.receive(protocol.CmdGetSensorLED); err != nil {
		return nil, err
	}
	switch ledNum {
	case 0:
		// LED0 lights while the sensor is busy, which it never is while
		// answering.
		return &protocol.SensorLED{Status: protocol.StatusOK, LEDSetting: protocol.LEDOff}, nil
	case 1:
		return &protocol.SensorLED{Status: protocol.StatusOK, LEDSetting: d.sensorLED[1]}, nil
	}
	return &protocol.SensorLED{Status: protocol.StatusError}, nil
}

func (d *Device) SetSensorLED(ledNum, setting uint8) (*protocol.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.receive(protocol.CmdSetSensorLED); err != nil {
		return nil, err
	}
	ok := int(ledNum) < len(d.sensorLED) && validLED(setting)
	if ok {
		d.sensorLED[ledNum] = setting
	}
	return &protocol.Status{Status: status(ok)}, nil
}

func (d *Device) GetSensorConfig() (*protocol.SensorConfig, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.receive(protocol.CmdGetSensorConfig); err != nil {
		return nil, err
	}
	return &protocol.SensorConfig{
		Status:    protocol.StatusOK,
		Binning:   d.binning,
		Gain:      d.gain,
		RowBitmap: d.rowBitmap,
	}, nil
}

func (d *Device) SetSensorConfig(binning, gain, rowBitmap uint8) (*protocol.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.receive(protocol.CmdSetSensorConfig); err != nil {
		return nil, err
	}
	ok := binning <= protocol.BinningOn &&
		(gain == protocol.Gain1x || gain == protocol.Gain2_5x || gain == protocol.Gain4x || gain == protocol.Gain5x) &&
		rowBitmap&^protocol.RowsDefault == 0
	if ok {
		d.binning, d.gain, d.rowBitmap = binning, gain, rowBitmap
	}
	return &protocol.Status{Status: status(ok)}, nil
}

func (d *Device) GetExposure() (*protocol.Exposure, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.receive(protocol.CmdGetExposure); err != nil {
		return nil, err
	}
	return &protocol.Exposure{Status: protocol.StatusOK, Cycles: d.cycles}, nil
}

func (d *Device) SetExposure(cycles uint16) (*protocol.Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.receive(protocol.CmdSetExposure); err != nil {
		return nil, err
	}
	ok := cycles >= protocol.MinCycles && cycles <= protocol.MaxCycles
	if ok {
		d.cycles = cycles
	}
	return &protocol.Status{Status: status(ok)}, nil
}

// CaptureFrame returns a frame whose pixel i counts i times the exposure
// in cycles, saturating at 65535. The reply comes after the exposure, so
// a timeout shorter than the exposure gets no reply.
func (d *Device) CaptureFrame() (*protocol.Frame, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.captureTimeouts = append(d.captureTimeouts, d.timeout)
	if err := d.receive(protocol.CmdCaptureFrame); err != nil {
		return nil, err
	}
	exposure := time.Duration(d.cycles) * 20 * time.Microsecond
	if d.timeout >= 0 && d.timeout < exposure {
		return nil, protocol.ErrTimeout
	}
	n := protocol.PixelsUnbinned
	if d.binning == protocol.BinningOn {
		n = protocol.PixelsBinned
	}
	pixels := make([]uint16, n)
	for i := range pixels {
		v := uint32(i) * uint32(d.cycles)
		if v > 0xFFFF {
			v = 0xFFFF
		}
		pixels[i] = uint16(v)
	}
	return &protocol.Frame{Status: protocol.StatusOK, NumPixels: uint16(n), Pixels: pixels}, nil
}
