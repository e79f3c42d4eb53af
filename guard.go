package microspec

import (
	"time"

	"github.com/ansel1/merry"

	"github.com/Andeling/microspec/protocol"
)

// captureMargin is added to the exposure time when the timeout has to be
// raised for a capture.
const captureMargin = time.Second

// CaptureFrame exposes the sensor and returns the frame.
//
// The dev-kit only starts replying once the exposure is over. If the
// timeout is shorter than the cached exposure time, it is raised to the
// exposure plus one second for this call and restored afterwards.
//
// A capture that gets no reply is not an error: CaptureFrame reports a
// *TimeoutWarning and returns an empty reply with StatusTimeout.
func (k *Devkit) CaptureFrame() (*FrameReply, error) {
	active := k.timeoutFor(k.exposure())
	var rec *protocol.Frame
	err := k.withTimeout(active, func() (err error) {
		rec, err = k.drv.CaptureFrame()
		return err
	})
	if merry.Is(err, ErrTimeout) {
		k.warn(&TimeoutWarning{Command: protocol.CmdCaptureFrame.String(), Timeout: active})
		return emptyFrame(StatusTimeout), nil
	}
	if err != nil {
		return nil, err
	}
	return frameReply(rec), nil
}

// withTimeout runs fn with the driver timeout set to active. The previous
// timeout is restored on every return path.
func (k *Devkit) withTimeout(active time.Duration, fn func() error) (err error) {
	old := k.drv.Timeout()
	if active != old {
		if err := k.drv.SetTimeout(active); err != nil {
			return merry.Wrap(err).Appendf("raise timeout to %v", active)
		}
		k.log.Debug("timeout raised for capture", "timeout", old, "active", active)
		defer func() {
			if rerr := k.drv.SetTimeout(old); rerr != nil && err == nil {
				err = merry.Wrap(rerr).Appendf("restore timeout %v", old)
			}
		}()
	}
	return fn()
}

// timeoutFor returns the timeout a command taking at least min should run
// with: the configured one, or min plus a margin when that is too short.
// A negative timeout waits forever and is never too short.
func (k *Devkit) timeoutFor(min time.Duration) time.Duration {
	current := k.drv.Timeout()
	if current >= 0 && current < min {
		return min + captureMargin
	}
	return current
}
