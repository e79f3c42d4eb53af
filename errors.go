package microspec

import (
	"github.com/ansel1/merry"

	"github.com/Andeling/microspec/protocol"
)

// Errors returned before any I/O when a call breaks its parameter contract.
var (
	ErrMissingParam  = merry.New("missing parameter")
	ErrTooManyParams = merry.New("too many parameters")
	ErrInvalidConfig = merry.New("invalid config")
)

// Errors from the driver, re-exported.
var (
	ErrTimeout = protocol.ErrTimeout
	ErrClosed  = protocol.ErrClosed
)
