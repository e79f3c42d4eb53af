package protocol

import (
	"github.com/ansel1/merry"

	"github.com/Andeling/microspec/serial"
)

var (
	// ErrTimeout means the dev-kit sent nothing within the read timeout.
	ErrTimeout      = serial.ErrTimeout
	ErrShortReply   = merry.New("reply ended early")
	ErrFrameTooLong = merry.New("frame longer than the sensor")
)
