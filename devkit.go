// Package microspec is the API for the Chromation spectrometer dev-kit.
//
// A Devkit wraps the dev-kit's serial command protocol with default
// parameter values, named constants, typed replies and exposure time
// conversion between milliseconds and the firmware's 20µs cycles:
//
//	kit, err := microspec.Open(nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer kit.Close()
//	kit.SetExposure(microspec.Milliseconds(5))
//	frame, err := kit.CaptureFrame()
package microspec

import (
	"log/slog"
	"time"

	"github.com/ansel1/merry"

	"github.com/Andeling/microspec/protocol"
	"github.com/Andeling/microspec/serial"
)

// Devkit is a session with one dev-kit. It issues one command at a time
// and is not safe for concurrent use.
type Devkit struct {
	drv       Driver
	log       *slog.Logger
	onWarning WarningHandler

	// Last exposure time read from or written to the dev-kit.
	exposureMs     float64
	exposureCycles int
}

// Option configures a Devkit.
type Option func(*Devkit)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(k *Devkit) { k.log = l }
}

// WithWarningHandler receives advisories such as *TimeoutWarning.
func WithWarningHandler(h WarningHandler) Option {
	return func(k *Devkit) { k.onWarning = h }
}

// New starts a session on drv and reads the current exposure time.
func New(drv Driver, opts ...Option) (*Devkit, error) {
	k := &Devkit{drv: drv, log: slog.Default()}
	for _, opt := range opts {
		opt(k)
	}
	if _, err := k.GetExposure(); err != nil {
		return nil, merry.Prepend(err, "read exposure")
	}
	return k, nil
}

// Open opens the serial port named in cfg and starts a session. A nil cfg
// uses DefaultConfig.
func Open(cfg *Config, opts ...Option) (*Devkit, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	port, err := serial.Open(cfg.Port, &serial.Config{BaudRate: cfg.BaudRate})
	if err != nil {
		return nil, err
	}
	if err := port.SetTimeout(cfg.Timeout); err != nil {
		port.Close()
		return nil, err
	}
	logger := cfg.logger()
	opts = append([]Option{WithLogger(logger)}, opts...)
	k, err := New(protocol.NewClient(port, logger), opts...)
	if err != nil {
		port.Close()
		return nil, err
	}
	logger.Info("dev-kit opened", "port", cfg.Port, "baud", cfg.BaudRate, "timeout", cfg.Timeout)
	return k, nil
}

// Close ends the session and closes the connection.
func (k *Devkit) Close() error { return k.drv.Close() }

// IsOpen reports whether the connection is open.
func (k *Devkit) IsOpen() bool { return k.drv.IsOpen() }

// Timeout is how long a command waits for the dev-kit to reply.
func (k *Devkit) Timeout() time.Duration { return k.drv.Timeout() }

// SetTimeout sets how long a command waits for the dev-kit to reply.
func (k *Devkit) SetTimeout(d time.Duration) error { return k.drv.SetTimeout(d) }

// ExposureMs is the last known exposure time in milliseconds.
func (k *Devkit) ExposureMs() float64 { return k.exposureMs }

// ExposureCycles is the last known exposure time in cycles.
func (k *Devkit) ExposureCycles() int { return k.exposureCycles }

func (k *Devkit) exposure() time.Duration {
	return time.Duration(k.exposureCycles) * CycleDuration
}

func (k *Devkit) setExposureCache(cycles int) {
	k.exposureCycles = cycles
	k.exposureMs = ToMs(cycles)
}

// optionalLED returns the single optional LED index, or def.
func optionalLED(cmd protocol.Command, def uint8, ledNum []uint8) (uint8, error) {
	switch len(ledNum) {
	case 0:
		return def, nil
	case 1:
		return ledNum[0], nil
	}
	return 0, merry.Wrap(ErrTooManyParams).Appendf("%s takes at most one LED index, got %d", cmd, len(ledNum))
}

// GetBridgeLED reads the Bridge LED. LED0, the only Bridge LED, is the
// default.
func (k *Devkit) GetBridgeLED(ledNum ...uint8) (*BridgeLEDReply, error) {
	n, err := optionalLED(protocol.CmdGetBridgeLED, BridgeLED0, ledNum)
	if err != nil {
		return nil, err
	}
	rec, err := k.drv.GetBridgeLED(n)
	if err != nil {
		return nil, err
	}
	return bridgeLEDReply(rec), nil
}

// SetBridgeLED sets the Bridge LED. LED0 is the default.
func (k *Devkit) SetBridgeLED(setting LEDState, ledNum ...uint8) (*StatusReply, error) {
	n, err := optionalLED(protocol.CmdSetBridgeLED, BridgeLED0, ledNum)
	if err != nil {
		return nil, err
	}
	rec, err := k.drv.SetBridgeLED(n, uint8(setting))
	if err != nil {
		return nil, err
	}
	return statusReply(protocol.CmdSetBridgeLED, rec), nil
}

// GetSensorLED reads sensor LED0 or LED1. LED0 indicates the sensor is
// busy, so it always reads LEDOff.
func (k *Devkit) GetSensorLED(ledNum uint8) (*SensorLEDReply, error) {
	rec, err := k.drv.GetSensorLED(ledNum)
	if err != nil {
		return nil, err
	}
	return sensorLEDReply(rec), nil
}

// SetSensorLED sets sensor LED0 or LED1.
func (k *Devkit) SetSensorLED(setting LEDState, ledNum uint8) (*StatusReply, error) {
	rec, err := k.drv.SetSensorLED(ledNum, uint8(setting))
	if err != nil {
		return nil, err
	}
	return statusReply(protocol.CmdSetSensorLED, rec), nil
}

// GetSensorConfig reads the binning, gain and row selection.
func (k *Devkit) GetSensorConfig() (*SensorConfigReply, error) {
	rec, err := k.drv.GetSensorConfig()
	if err != nil {
		return nil, err
	}
	return sensorConfigReply(rec), nil
}

// SensorConfig is the pixel configuration written by SetSensorConfig.
type SensorConfig struct {
	Binning   Binning
	Gain      Gain
	RowBitmap RowBitmap
}

// DefaultSensorConfig is the recommended configuration.
var DefaultSensorConfig = SensorConfig{
	Binning:   BinningOn,
	Gain:      Gain1x,
	RowBitmap: AllRows,
}

// SensorConfigOption overrides one field of DefaultSensorConfig.
type SensorConfigOption func(*SensorConfig)

func WithBinning(b Binning) SensorConfigOption {
	return func(c *SensorConfig) { c.Binning = b }
}

func WithGain(g Gain) SensorConfigOption {
	return func(c *SensorConfig) { c.Gain = g }
}

func WithRowBitmap(r RowBitmap) SensorConfigOption {
	return func(c *SensorConfig) { c.RowBitmap = r }
}

// SetSensorConfig writes the pixel configuration. Fields without an option
// take their DefaultSensorConfig value, so SetSensorConfig() restores the
// defaults. Invalid values come back as StatusError from the dev-kit.
func (k *Devkit) SetSensorConfig(opts ...SensorConfigOption) (*StatusReply, error) {
	cfg := DefaultSensorConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	rec, err := k.drv.SetSensorConfig(uint8(cfg.Binning), uint8(cfg.Gain), uint8(cfg.RowBitmap))
	if err != nil {
		return nil, err
	}
	return statusReply(protocol.CmdSetSensorConfig, rec), nil
}

// SetExposure sets the exposure time, given either as Milliseconds or as
// Cycles. Times outside [MinCycles, MaxCycles] are clamped to the limit.
func (k *Devkit) SetExposure(t ExposureTime) (*StatusReply, error) {
	if t == nil {
		return nil, merry.Wrap(ErrMissingParam).Appendf("SetExposure needs Milliseconds or Cycles")
	}
	cycles := t.cycles()
	rec, err := k.drv.SetExposure(cycles)
	if err != nil {
		return nil, err
	}
	if rec.Status == protocol.StatusOK {
		k.setExposureCache(int(cycles))
	}
	return statusReply(protocol.CmdSetExposure, rec), nil
}

// GetExposure reads the exposure time.
func (k *Devkit) GetExposure() (*ExposureReply, error) {
	rec, err := k.drv.GetExposure()
	if err != nil {
		return nil, err
	}
	if rec.Status == protocol.StatusOK {
		k.setExposureCache(int(rec.Cycles))
	}
	return exposureReply(rec), nil
}
