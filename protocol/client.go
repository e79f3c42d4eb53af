// Package protocol speaks the dev-kit's serial command protocol.
//
// A request is a command byte followed by its parameters. The Bridge
// board answers every request with a status byte; commands for the
// sensor board continue with the sensor's own status and, when that is
// OK, the command's fields.
package protocol

import (
	"encoding/hex"
	"io"
	"log/slog"
	"time"

	"github.com/ansel1/merry"
)

var ErrClosed = merry.New("connection closed")

// Port is the byte link to the dev-kit. *serial.Port satisfies it.
type Port interface {
	io.ReadWriteCloser
	Flush() error
	Timeout() time.Duration
	SetTimeout(d time.Duration) error
}

// Client sends one command at a time and decodes the reply. A reply that
// never arrives yields a nil record and ErrTimeout.
type Client struct {
	port Port
	log  *slog.Logger
	open bool
}

func NewClient(port Port, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{port: port, log: logger, open: true}
}

func (c *Client) IsOpen() bool { return c.open }

func (c *Client) Close() error {
	if !c.open {
		return nil
	}
	c.open = false
	return c.port.Close()
}

// Timeout is how long a reply may take to start arriving.
func (c *Client) Timeout() time.Duration { return c.port.Timeout() }

func (c *Client) SetTimeout(d time.Duration) error { return c.port.SetTimeout(d) }

// send discards stale input, writes one request and returns the decoder
// for its reply.
func (c *Client) send(cmd Command, params ...byte) (*reader, error) {
	if !c.open {
		return nil, merry.Wrap(ErrClosed).Appendf("send %s", cmd)
	}
	if err := c.port.Flush(); err != nil {
		return nil, merry.Wrap(err).Appendf("flush before %s", cmd)
	}
	req := encode(cmd, params...)
	if _, err := c.port.Write(req); err != nil {
		return nil, merry.Wrap(err).Appendf("write %s", cmd)
	}
	c.log.Debug("request sent", "command", cmd.String(), "bytes", hex.EncodeToString(req))
	return &reader{r: c.port, cmd: cmd}, nil
}

func (c *Client) done(d *reader, err error) error {
	if err != nil {
		if merry.Is(err, ErrTimeout) {
			c.log.Debug("no reply", "command", d.cmd.String(), "timeout", c.port.Timeout())
		}
		return err
	}
	c.log.Debug("reply received", "command", d.cmd.String(), "bytes", d.got)
	return nil
}

func (c *Client) GetBridgeLED(ledNum uint8) (*BridgeLED, error) {
	d, err := c.send(CmdGetBridgeLED, ledNum)
	if err != nil {
		return nil, err
	}
	var rec BridgeLED
	_, rec.Status, err = d.statuses()
	if err == nil && rec.Status == StatusOK {
		rec.LEDSetting, err = d.readByte()
	}
	if err := c.done(d, err); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) SetBridgeLED(ledNum, setting uint8) (*Status, error) {
	return c.status(CmdSetBridgeLED, ledNum, setting)
}

func (c *Client) GetSensorLED(ledNum uint8) (*SensorLED, error) {
	d, err := c.send(CmdGetSensorLED, ledNum)
	if err != nil {
		return nil, err
	}
	var rec SensorLED
	rec.Bridge, rec.Status, err = d.statuses()
	if err == nil && rec.Status == StatusOK {
		rec.LEDSetting, err = d.readByte()
	}
	if err := c.done(d, err); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) SetSensorLED(ledNum, setting uint8) (*Status, error) {
	return c.status(CmdSetSensorLED, ledNum, setting)
}

func (c *Client) GetSensorConfig() (*SensorConfig, error) {
	d, err := c.send(CmdGetSensorConfig)
	if err != nil {
		return nil, err
	}
	var rec SensorConfig
	rec.Bridge, rec.Status, err = d.statuses()
	if err == nil && rec.Status == StatusOK {
		var b [3]byte
		if err = d.full(b[:]); err == nil {
			rec.Binning, rec.Gain, rec.RowBitmap = b[0], b[1], b[2]
		}
	}
	if err := c.done(d, err); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) SetSensorConfig(binning, gain, rowBitmap uint8) (*Status, error) {
	return c.status(CmdSetSensorConfig, binning, gain, rowBitmap)
}

func (c *Client) GetExposure() (*Exposure, error) {
	d, err := c.send(CmdGetExposure)
	if err != nil {
		return nil, err
	}
	var rec Exposure
	rec.Bridge, rec.Status, err = d.statuses()
	if err == nil && rec.Status == StatusOK {
		rec.Cycles, err = d.readUint16()
	}
	if err := c.done(d, err); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (c *Client) SetExposure(cycles uint16) (*Status, error) {
	return c.status(CmdSetExposure, u16(cycles)...)
}

// CaptureFrame exposes the sensor and reads the frame back. The reply only
// starts after the exposure, so the timeout must cover it.
func (c *Client) CaptureFrame() (*Frame, error) {
	d, err := c.send(CmdCaptureFrame)
	if err != nil {
		return nil, err
	}
	var rec Frame
	rec.Bridge, rec.Status, err = d.statuses()
	if err == nil && rec.Status == StatusOK {
		rec.NumPixels, rec.Pixels, err = d.pixels()
	}
	if err := c.done(d, err); err != nil {
		return nil, err
	}
	return &rec, nil
}

// status runs a command whose reply is status bytes only.
func (c *Client) status(cmd Command, params ...byte) (*Status, error) {
	d, err := c.send(cmd, params...)
	if err != nil {
		return nil, err
	}
	var rec Status
	rec.Bridge, rec.Status, err = d.statuses()
	if err := c.done(d, err); err != nil {
		return nil, err
	}
	return &rec, nil
}
