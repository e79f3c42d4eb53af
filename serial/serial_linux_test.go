package serial

import (
	"testing"

	"github.com/ansel1/merry"
	"golang.org/x/sys/unix"
)

func TestBuildTermios(t *testing.T) {
	c := withDefaults(nil)
	tio, err := buildTermios(&c)
	if err != nil {
		t.Fatal(err)
	}
	if tio.Cc[unix.VMIN] != 0 || tio.Cc[unix.VTIME] != 0 {
		t.Errorf("VMIN=%d VTIME=%d, want non-blocking", tio.Cc[unix.VMIN], tio.Cc[unix.VTIME])
	}
	if tio.Cflag&unix.CSIZE != unix.CS8 || tio.Cflag&unix.PARENB != 0 || tio.Cflag&unix.CSTOPB != 0 {
		t.Errorf("Cflag = %#x, want 8N1", tio.Cflag)
	}
	if tio.Ispeed != unix.B115200 || tio.Cflag&unix.CBAUD != unix.B115200 {
		t.Errorf("speed = %#x", tio.Ispeed)
	}
	if tio.Cflag&(unix.CREAD|unix.CLOCAL) != unix.CREAD|unix.CLOCAL {
		t.Errorf("receiver not enabled: %#x", tio.Cflag)
	}
}

func TestBuildTermiosRejects(t *testing.T) {
	tests := []struct {
		name string
		c    Config
		want error
	}{
		{"baud", Config{BaudRate: 12345, DataBits: 8}, ErrInvalidParam},
		{"data bits", Config{BaudRate: 9600, DataBits: 9}, ErrInvalidParam},
		{"stop bits", Config{BaudRate: 9600, DataBits: 8, StopBits: StopBitsOnePointFive}, ErrNotSupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := buildTermios(&tt.c); !merry.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}
