package microspec

import (
	"fmt"
	"time"
)

// TimeoutWarning reports a command that got no reply within the timeout.
// It is advisory: the command still returns a well-formed reply.
type TimeoutWarning struct {
	Command string
	Timeout time.Duration
}

func (w *TimeoutWarning) Error() string {
	return fmt.Sprintf("%s timed out after %v: likely transient; retry, "+
		"and if persistent, increase the timeout or check the USB/serial link",
		w.Command, w.Timeout)
}

// WarningHandler receives advisories such as *TimeoutWarning. It must not
// block; it runs before the command returns.
type WarningHandler func(w error)

func (k *Devkit) warn(w *TimeoutWarning) {
	k.log.Warn("no reply from dev-kit",
		"command", w.Command,
		"timeout", w.Timeout,
		"hint", "retry; if persistent, increase the timeout or check the link")
	if k.onWarning != nil {
		k.onWarning(w)
	}
}
