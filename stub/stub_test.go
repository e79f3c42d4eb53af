package stub

import (
	"testing"
	"time"

	"github.com/ansel1/merry"

	"github.com/Andeling/microspec/protocol"
)

func TestCaptureNeedsExposureTime(t *testing.T) {
	d := New()
	if _, err := d.SetExposure(50000); err != nil {
		t.Fatal(err)
	}
	d.SetTimeout(500 * time.Millisecond)
	if _, err := d.CaptureFrame(); !merry.Is(err, protocol.ErrTimeout) {
		t.Errorf("err = %v, want ErrTimeout", err)
	}
	d.SetTimeout(time.Second)
	f, err := d.CaptureFrame()
	if err != nil {
		t.Fatal(err)
	}
	if f.NumPixels != protocol.PixelsBinned || f.Pixels[f.NumPixels-1] != 0xFFFF {
		t.Errorf("frame = %d pixels, last %d", f.NumPixels, f.Pixels[f.NumPixels-1])
	}
	if got := d.CaptureTimeouts(); len(got) != 2 || got[0] != 500*time.Millisecond || got[1] != time.Second {
		t.Errorf("capture timeouts = %v", got)
	}
}

func TestDropReplies(t *testing.T) {
	d := New()
	d.DropReplies(2)
	for i := 0; i < 2; i++ {
		if _, err := d.GetExposure(); !merry.Is(err, protocol.ErrTimeout) {
			t.Fatalf("reply %d: err = %v", i, err)
		}
	}
	e, err := d.GetExposure()
	if err != nil || e.Cycles != 50 {
		t.Errorf("GetExposure = %+v, %v", e, err)
	}
	if n := len(d.Calls()); n != 3 {
		t.Errorf("%d calls, want 3", n)
	}
}

func TestRejectsOutOfRangeExposure(t *testing.T) {
	d := New()
	for _, c := range []uint16{0, protocol.MaxCycles + 1} {
		s, err := d.SetExposure(c)
		if err != nil || s.Status != protocol.StatusError {
			t.Errorf("SetExposure(%d) = %+v, %v", c, s, err)
		}
	}
	if d.Cycles() != 50 {
		t.Errorf("cycles = %d", d.Cycles())
	}
}

func TestClosed(t *testing.T) {
	d := New()
	d.Close()
	if _, err := d.GetBridgeLED(0); !merry.Is(err, protocol.ErrClosed) {
		t.Errorf("err = %v", err)
	}
	if d.IsOpen() || len(d.Calls()) != 0 {
		t.Error("closed device took a command")
	}
}
