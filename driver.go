package microspec

import (
	"time"

	"github.com/Andeling/microspec/protocol"
)

// Driver sends dev-kit commands and returns the decoded numeric replies.
// When a reply does not arrive within Timeout, a method returns a nil
// record and an error matching ErrTimeout. *protocol.Client is the serial
// implementation; package stub simulates a dev-kit in memory.
type Driver interface {
	GetBridgeLED(ledNum uint8) (*protocol.BridgeLED, error)
	SetBridgeLED(ledNum, setting uint8) (*protocol.Status, error)
	GetSensorLED(ledNum uint8) (*protocol.SensorLED, error)
	SetSensorLED(ledNum, setting uint8) (*protocol.Status, error)
	GetSensorConfig() (*protocol.SensorConfig, error)
	SetSensorConfig(binning, gain, rowBitmap uint8) (*protocol.Status, error)
	GetExposure() (*protocol.Exposure, error)
	SetExposure(cycles uint16) (*protocol.Status, error)
	CaptureFrame() (*protocol.Frame, error)

	Timeout() time.Duration
	SetTimeout(d time.Duration) error
	IsOpen() bool
	Close() error
}

var _ Driver = (*protocol.Client)(nil)
