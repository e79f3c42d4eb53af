package protocol

// Decoded replies. Bridge is the status byte the Bridge board sends
// before forwarding a sensor reply; Status is the status of the command
// itself.

type BridgeLED struct {
	Status     uint8
	LEDSetting uint8
}

type SensorLED struct {
	Bridge     uint8
	Status     uint8
	LEDSetting uint8
}

type Status struct {
	Bridge uint8
	Status uint8
}

type SensorConfig struct {
	Bridge    uint8
	Status    uint8
	Binning   uint8
	Gain      uint8
	RowBitmap uint8
}

type Exposure struct {
	Bridge uint8
	Status uint8
	Cycles uint16
}

type Frame struct {
	Bridge    uint8
	Status    uint8
	NumPixels uint16
	Pixels    []uint16
}
