package serial

import (
	"testing"
	"time"

	"github.com/ansel1/merry"
)

func TestWithDefaults(t *testing.T) {
	if got := withDefaults(nil); got != defaultConfig {
		t.Errorf("withDefaults(nil) = %+v", got)
	}
	got := withDefaults(&Config{BaudRate: 9600, Parity: ParityEven})
	want := Config{BaudRate: 9600, DataBits: 8, Parity: ParityEven}
	if got != want {
		t.Errorf("withDefaults = %+v, want %+v", got, want)
	}
}

func TestInterByteTimeout(t *testing.T) {
	tests := []struct {
		configured time.Duration
		baud       int
		want       time.Duration
	}{
		{5 * time.Millisecond, 115200, 5 * time.Millisecond},
		{0, 115200, time.Millisecond},
		{0, 9600, 1562499 * time.Nanosecond},
	}
	for _, tt := range tests {
		if got := interByteTimeout(tt.configured, tt.baud); got != tt.want {
			t.Errorf("interByteTimeout(%v, %d) = %v, want %v", tt.configured, tt.baud, got, tt.want)
		}
	}
}

func TestValidateTimeout(t *testing.T) {
	for _, d := range []time.Duration{BlockForever, 0, DefaultTimeout} {
		if err := validateTimeout(d); err != nil {
			t.Errorf("validateTimeout(%v) = %v", d, err)
		}
	}
	if err := validateTimeout(-2); !merry.Is(err, ErrInvalidParam) {
		t.Errorf("validateTimeout(-2) = %v", err)
	}
}

func TestStrings(t *testing.T) {
	if ParityEven.String() != "even" || StopBitsOnePointFive.String() != "1.5" || Parity(9).String() != "" {
		t.Error("unexpected names")
	}
}
