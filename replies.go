package microspec

import (
	"fmt"

	"github.com/Andeling/microspec/protocol"
)

// Replies hide the serial bookkeeping of the protocol records (the Bridge
// status byte, raw lengths) and carry typed codes whose String methods give
// the constant names. If Status is not StatusOK the other fields are not
// valid.

// BridgeLEDReply is the reply to GetBridgeLED.
type BridgeLEDReply struct {
	Status     Status
	LEDSetting LEDState
}

// SensorLEDReply is the reply to GetSensorLED.
type SensorLEDReply struct {
	Status     Status
	LEDSetting LEDState
}

// StatusReply is the reply to every command that only reports a status.
type StatusReply struct {
	Command string
	Status  Status
}

// SensorConfigReply is the reply to GetSensorConfig.
type SensorConfigReply struct {
	Status    Status
	Binning   Binning
	Gain      Gain
	RowBitmap RowBitmap
}

// ExposureReply is the reply to GetExposure, in both units.
type ExposureReply struct {
	Status Status
	Ms     float64
	Cycles int
}

// FrameReply is the reply to CaptureFrame. Frame maps the 1-based pixel
// number to its count. When Status is not StatusOK the reply is empty:
// NumPixels is 0 and Pixels and Frame have no entries.
type FrameReply struct {
	Status    Status
	NumPixels int
	Pixels    []uint16
	Frame     map[int]uint16
}

func (r BridgeLEDReply) String() string {
	return fmt.Sprintf("GetBridgeLED(status=%v, led_setting=%v)", r.Status, r.LEDSetting)
}

func (r SensorLEDReply) String() string {
	return fmt.Sprintf("GetSensorLED(status=%v, led_setting=%v)", r.Status, r.LEDSetting)
}

func (r StatusReply) String() string {
	return fmt.Sprintf("%s(status=%v)", r.Command, r.Status)
}

func (r SensorConfigReply) String() string {
	return fmt.Sprintf("GetSensorConfig(status=%v, binning=%v, gain=%v, row_bitmap=%v)",
		r.Status, r.Binning, r.Gain, r.RowBitmap)
}

func (r ExposureReply) String() string {
	return fmt.Sprintf("GetExposure(status=%v, ms=%g, cycles=%d)", r.Status, r.Ms, r.Cycles)
}

func (r FrameReply) String() string {
	return fmt.Sprintf("CaptureFrame(status=%v, num_pixels=%d)", r.Status, r.NumPixels)
}

func bridgeLEDReply(rec *protocol.BridgeLED) *BridgeLEDReply {
	return &BridgeLEDReply{
		Status:     Status(rec.Status),
		LEDSetting: LEDState(rec.LEDSetting),
	}
}

func sensorLEDReply(rec *protocol.SensorLED) *SensorLEDReply {
	return &SensorLEDReply{
		Status:     Status(rec.Status),
		LEDSetting: LEDState(rec.LEDSetting),
	}
}

func statusReply(cmd protocol.Command, rec *protocol.Status) *StatusReply {
	return &StatusReply{Command: cmd.String(), Status: Status(rec.Status)}
}

func sensorConfigReply(rec *protocol.SensorConfig) *SensorConfigReply {
	return &SensorConfigReply{
		Status:    Status(rec.Status),
		Binning:   Binning(rec.Binning),
		Gain:      Gain(rec.Gain),
		RowBitmap: RowBitmap(rec.RowBitmap),
	}
}

func exposureReply(rec *protocol.Exposure) *ExposureReply {
	return &ExposureReply{
		Status: Status(rec.Status),
		Ms:     ToMs(int(rec.Cycles)),
		Cycles: int(rec.Cycles),
	}
}

func frameReply(rec *protocol.Frame) *FrameReply {
	if rec.Status != protocol.StatusOK {
		return emptyFrame(Status(rec.Status))
	}
	r := &FrameReply{
		Status:    StatusOK,
		NumPixels: len(rec.Pixels),
		Pixels:    rec.Pixels,
		Frame:     make(map[int]uint16, len(rec.Pixels)),
	}
	for i, v := range rec.Pixels {
		r.Frame[i+1] = v
	}
	return r
}

func emptyFrame(status Status) *FrameReply {
	return &FrameReply{
		Status: status,
		Pixels: []uint16{},
		Frame:  map[int]uint16{},
	}
}
