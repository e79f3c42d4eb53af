package protocol

import (
	"encoding/binary"
	"io"

	"github.com/ansel1/merry"
)

// encode builds a request: the command byte followed by its parameters.
// Multi-byte parameters are big-endian.
func encode(cmd Command, params ...byte) []byte {
	req := make([]byte, 0, 1+len(params))
	req = append(req, byte(cmd))
	return append(req, params...)
}

func u16(v uint16) []byte {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return b[:]
}

// reader decodes one reply. It tells a device that never answered
// (ErrTimeout) from one that stopped mid-reply (ErrShortReply).
type reader struct {
	r   io.Reader
	cmd Command
	got int
}

func (d *reader) full(buf []byte) error {
	for n := 0; n < len(buf); {
		m, err := d.r.Read(buf[n:])
		n += m
		d.got += m
		if err != nil && err != io.EOF && !merry.Is(err, ErrTimeout) {
			return merry.Wrap(err).Appendf("read %s reply", d.cmd)
		}
		if m > 0 {
			continue
		}
		if d.got == 0 {
			return ErrTimeout
		}
		return merry.Wrap(ErrShortReply).Appendf("%s: got %d bytes", d.cmd, d.got)
	}
	return nil
}

func (d *reader) readByte() (uint8, error) {
	var b [1]byte
	if err := d.full(b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *reader) readUint16() (uint16, error) {
	var b [2]byte
	if err := d.full(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

// statuses reads the Bridge status and, when the Bridge forwarded the
// command, the sensor status. A Bridge error ends the reply, so its
// status stands in for the sensor's.
func (d *reader) statuses() (bridge, status uint8, err error) {
	bridge, err = d.readByte()
	if err != nil {
		return 0, 0, err
	}
	if !d.cmd.toSensor() || bridge != StatusOK {
		return bridge, bridge, nil
	}
	status, err = d.readByte()
	return bridge, status, err
}

func (d *reader) pixels() (uint16, []uint16, error) {
	n, err := d.readUint16()
	if err != nil {
		return 0, nil, err
	}
	if n > PixelsUnbinned {
		return 0, nil, merry.Wrap(ErrFrameTooLong).Appendf("%d pixels", n)
	}
	raw := make([]byte, 2*int(n))
	if err := d.full(raw); err != nil {
		return 0, nil, err
	}
	pixels := make([]uint16, n)
	for i := range pixels {
		pixels[i] = binary.BigEndian.Uint16(raw[2*i:])
	}
	return n, pixels, nil
}
