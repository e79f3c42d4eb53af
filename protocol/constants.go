package protocol

// Command is the first byte of every request.
type Command byte

// Dev-kit commands. The byte values are the keys of the firmware's
// command table.
const (
	CmdGetBridgeLED    Command = 0x01
	CmdSetBridgeLED    Command = 0x02
	CmdGetSensorLED    Command = 0x03
	CmdSetSensorLED    Command = 0x04
	CmdGetSensorConfig Command = 0x07
	CmdSetSensorConfig Command = 0x08
	CmdGetExposure     Command = 0x09
	CmdSetExposure     Command = 0x0A
	CmdCaptureFrame    Command = 0x0B
)

func (c Command) String() string {
	switch c {
	case CmdGetBridgeLED:
		return "GetBridgeLED"
	case CmdSetBridgeLED:
		return "SetBridgeLED"
	case CmdGetSensorLED:
		return "GetSensorLED"
	case CmdSetSensorLED:
		return "SetSensorLED"
	case CmdGetSensorConfig:
		return "GetSensorConfig"
	case CmdSetSensorConfig:
		return "SetSensorConfig"
	case CmdGetExposure:
		return "GetExposure"
	case CmdSetExposure:
		return "SetExposure"
	case CmdCaptureFrame:
		return "CaptureFrame"
	}
	return ""
}

// toSensor reports whether the Bridge forwards c to the sensor board,
// in which case the reply carries a second, sensor-side status byte.
func (c Command) toSensor() bool {
	return c != CmdGetBridgeLED && c != CmdSetBridgeLED
}

// Wire codes shared by the firmware and the host.
const (
	StatusOK    = 0x00
	StatusError = 0x01

	LEDOff   = 0x00
	LEDGreen = 0x01
	LEDRed   = 0x02

	BinningOff = 0x00
	BinningOn  = 0x01

	Gain1x   = 0x01
	Gain2_5x = 0x25
	Gain4x   = 0x04
	Gain5x   = 0x05

	RowsDefault = 0x1F
)

// Exposure limits hard-coded in the firmware, in cycles of 20µs.
const (
	MinCycles = 1
	MaxCycles = 65500
)

// Pixel counts of a frame, by binning.
const (
	PixelsBinned   = 392
	PixelsUnbinned = 784
)
