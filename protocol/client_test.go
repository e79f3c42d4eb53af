package protocol

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ansel1/merry"
)

// fakePort replays a canned reply and records what was written.
type fakePort struct {
	tx      bytes.Buffer
	rx      bytes.Buffer
	timeout time.Duration
	flushes int
	closed  bool
}

func (p *fakePort) Read(b []byte) (int, error)  { return p.rx.Read(b) }
func (p *fakePort) Write(b []byte) (int, error) { return p.tx.Write(b) }
func (p *fakePort) Flush() error                { p.flushes++; return nil }
func (p *fakePort) Timeout() time.Duration      { return p.timeout }
func (p *fakePort) Close() error                { p.closed = true; return nil }

func (p *fakePort) SetTimeout(d time.Duration) error {
	p.timeout = d
	return nil
}

func newTestClient(reply ...byte) (*Client, *fakePort) {
	port := &fakePort{timeout: time.Second}
	port.rx.Write(reply)
	return NewClient(port, slog.New(slog.NewTextHandler(io.Discard, nil))), port
}

func TestRequestEncoding(t *testing.T) {
	tests := []struct {
		name string
		call func(c *Client) error
		want []byte
	}{
		{"GetBridgeLED", func(c *Client) error { _, err := c.GetBridgeLED(0); return err }, []byte{0x01, 0x00}},
		{"SetBridgeLED", func(c *Client) error { _, err := c.SetBridgeLED(0, LEDRed); return err }, []byte{0x02, 0x00, 0x02}},
		{"GetSensorLED", func(c *Client) error { _, err := c.GetSensorLED(1); return err }, []byte{0x03, 0x01}},
		{"SetSensorLED", func(c *Client) error { _, err := c.SetSensorLED(1, LEDGreen); return err }, []byte{0x04, 0x01, 0x01}},
		{"GetSensorConfig", func(c *Client) error { _, err := c.GetSensorConfig(); return err }, []byte{0x07}},
		{"SetSensorConfig", func(c *Client) error {
			_, err := c.SetSensorConfig(BinningOn, Gain2_5x, RowsDefault)
			return err
		}, []byte{0x08, 0x01, 0x25, 0x1F}},
		{"GetExposure", func(c *Client) error { _, err := c.GetExposure(); return err }, []byte{0x09}},
		{"SetExposure", func(c *Client) error { _, err := c.SetExposure(65500); return err }, []byte{0x0A, 0xFF, 0xDC}},
		{"CaptureFrame", func(c *Client) error { _, err := c.CaptureFrame(); return err }, []byte{0x0B}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// An ERROR from the Bridge is a complete reply for every command.
			c, port := newTestClient(StatusError)
			if err := tt.call(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(port.tx.Bytes(), tt.want) {
				t.Errorf("request = % x, want % x", port.tx.Bytes(), tt.want)
			}
			if port.flushes != 1 {
				t.Errorf("flushes = %d, want 1", port.flushes)
			}
		})
	}
}

func TestGetBridgeLED(t *testing.T) {
	c, _ := newTestClient(StatusOK, LEDGreen)
	rec, err := c.GetBridgeLED(0)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Status != StatusOK || rec.LEDSetting != LEDGreen {
		t.Errorf("got %+v", rec)
	}
}

func TestSensorReplyCarriesTwoStatuses(t *testing.T) {
	c, _ := newTestClient(StatusOK, StatusError)
	rec, err := c.GetSensorLED(2)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Bridge != StatusOK || rec.Status != StatusError {
		t.Errorf("got %+v", rec)
	}
}

func TestGetSensorConfig(t *testing.T) {
	c, _ := newTestClient(StatusOK, StatusOK, BinningOn, Gain4x, 0x07)
	rec, err := c.GetSensorConfig()
	if err != nil {
		t.Fatal(err)
	}
	want := SensorConfig{Bridge: StatusOK, Status: StatusOK, Binning: BinningOn, Gain: Gain4x, RowBitmap: 0x07}
	if *rec != want {
		t.Errorf("got %+v, want %+v", *rec, want)
	}
}

func TestGetExposure(t *testing.T) {
	c, _ := newTestClient(StatusOK, StatusOK, 0x00, 0xFA)
	rec, err := c.GetExposure()
	if err != nil {
		t.Fatal(err)
	}
	if rec.Cycles != 250 {
		t.Errorf("cycles = %d, want 250", rec.Cycles)
	}
}

func TestCaptureFrame(t *testing.T) {
	c, _ := newTestClient(StatusOK, StatusOK, 0x00, 0x03, 0x00, 0x01, 0x01, 0x00, 0xFF, 0xFF)
	rec, err := c.CaptureFrame()
	if err != nil {
		t.Fatal(err)
	}
	if rec.NumPixels != 3 {
		t.Fatalf("num pixels = %d, want 3", rec.NumPixels)
	}
	want := []uint16{1, 256, 65535}
	for i, v := range want {
		if rec.Pixels[i] != v {
			t.Errorf("pixel %d = %d, want %d", i, rec.Pixels[i], v)
		}
	}
}

func TestCaptureFrameRejectsOversizedFrame(t *testing.T) {
	c, _ := newTestClient(StatusOK, StatusOK, 0x04, 0x00)
	if _, err := c.CaptureFrame(); !merry.Is(err, ErrFrameTooLong) {
		t.Errorf("err = %v, want ErrFrameTooLong", err)
	}
}

func TestNoReplyIsTimeout(t *testing.T) {
	c, _ := newTestClient()
	rec, err := c.CaptureFrame()
	if !merry.Is(err, ErrTimeout) {
		t.Fatalf("err = %v, want ErrTimeout", err)
	}
	if rec != nil {
		t.Errorf("record = %+v, want nil", rec)
	}
}

func TestTruncatedReplyIsShort(t *testing.T) {
	c, _ := newTestClient(StatusOK, StatusOK, 0x00, 0x02, 0x00)
	_, err := c.CaptureFrame()
	if !merry.Is(err, ErrShortReply) {
		t.Fatalf("err = %v, want ErrShortReply", err)
	}
	if merry.Is(err, ErrTimeout) {
		t.Error("a partial reply must not read as a timeout")
	}
}

func TestClosedClient(t *testing.T) {
	c, port := newTestClient(StatusOK)
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}
	if !port.closed || c.IsOpen() {
		t.Fatal("close did not reach the port")
	}
	if _, err := c.GetExposure(); !merry.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
	if port.tx.Len() != 0 {
		t.Error("closed client wrote to the port")
	}
}

func TestTimeoutPassesThrough(t *testing.T) {
	c, port := newTestClient()
	if err := c.SetTimeout(3 * time.Second); err != nil {
		t.Fatal(err)
	}
	if port.timeout != 3*time.Second || c.Timeout() != 3*time.Second {
		t.Errorf("timeout = %v", c.Timeout())
	}
}
