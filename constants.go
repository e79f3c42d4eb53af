package microspec

import (
	"fmt"
	"time"

	"github.com/Andeling/microspec/protocol"
)

// Status is the outcome reported in every reply.
type Status uint8

// LEDState is the color of an indicator LED.
type LEDState uint8

// Binning selects the pixel pitch of the sensor.
type Binning uint8

// Gain is the analog voltage gain applied to the pixels.
type Gain uint8

// RowBitmap selects which of the five pixel rows are used; bit 0 is row 1.
type RowBitmap uint8

// Status codes. StatusTimeout never appears on the wire: CaptureFrame
// reports it when the dev-kit did not answer within the timeout.
const (
	StatusOK      Status = protocol.StatusOK
	StatusError   Status = protocol.StatusError
	StatusTimeout Status = 0xFF
)

// LED states.
const (
	LEDOff   LEDState = protocol.LEDOff
	LEDGreen LEDState = protocol.LEDGreen
	LEDRed   LEDState = protocol.LEDRed
)

// Binning.
//
// With binning off there are 784 pixels at 7.8µm pitch, the first 14
// optically black. With binning on there are 392 pixels at 15.6µm pitch,
// the first 7 optically black. Binning on is the default.
const (
	BinningOff Binning = protocol.BinningOff
	BinningOn  Binning = protocol.BinningOn
)

// Gain. 1x is the default.
const (
	Gain1x   Gain = protocol.Gain1x
	Gain2_5x Gain = protocol.Gain2_5x
	Gain4x   Gain = protocol.Gain4x
	Gain5x   Gain = protocol.Gain5x
)

// AllRows uses all five rows, making the pixels 312.5µm tall. It is the
// default. Only the low five bits of a RowBitmap are valid.
const AllRows RowBitmap = protocol.RowsDefault

// Exposure limits. The firmware stores exposure time as a 16-bit count of
// 20µs cycles.
const (
	MinCycles     = protocol.MinCycles
	MaxCycles     = protocol.MaxCycles
	CycleDuration = 20 * time.Microsecond
)

// Exposure limits in milliseconds.
var (
	MinMs = ToMs(MinCycles)
	MaxMs = ToMs(MaxCycles)
)

// LED indices. The Bridge has one LED; the sensor board has two, and
// LED0 is its busy indicator.
const (
	BridgeLED0 uint8 = 0
	SensorLED0 uint8 = 0
	SensorLED1 uint8 = 1
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "OK"
	case StatusError:
		return "ERROR"
	case StatusTimeout:
		return "TIMEOUT"
	}
	return ""
}

func (l LEDState) String() string {
	switch l {
	case LEDOff:
		return "OFF"
	case LEDGreen:
		return "GREEN"
	case LEDRed:
		return "RED"
	}
	return ""
}

func (b Binning) String() string {
	switch b {
	case BinningOff:
		return "BINNING_OFF"
	case BinningOn:
		return "BINNING_ON"
	}
	return ""
}

func (g Gain) String() string {
	switch g {
	case Gain1x:
		return "GAIN1X"
	case Gain2_5x:
		return "GAIN2_5X"
	case Gain4x:
		return "GAIN4X"
	case Gain5x:
		return "GAIN5X"
	}
	return ""
}

// String names AllRows and prints any other selection as its bitmap.
func (r RowBitmap) String() string {
	if r == AllRows {
		return "ALL_ROWS"
	}
	return fmt.Sprintf("0x%02X", uint8(r))
}
