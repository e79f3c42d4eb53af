package microspec

import (
	"fmt"
	"testing"
)

func TestConstantCodes(t *testing.T) {
	tests := []struct {
		value fmt.Stringer
		code  uint8
		name  string
	}{
		{StatusOK, 0, "OK"},
		{StatusError, 1, "ERROR"},
		{LEDOff, 0, "OFF"},
		{LEDGreen, 1, "GREEN"},
		{LEDRed, 2, "RED"},
		{BinningOff, 0, "BINNING_OFF"},
		{BinningOn, 1, "BINNING_ON"},
		{Gain1x, 0x01, "GAIN1X"},
		{Gain2_5x, 0x25, "GAIN2_5X"},
		{Gain4x, 0x04, "GAIN4X"},
		{Gain5x, 0x05, "GAIN5X"},
		{AllRows, 0x1F, "ALL_ROWS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.value.String(); got != tt.name {
				t.Errorf("String() = %q, want %q", got, tt.name)
			}
			if got := fmt.Sprintf("%d", tt.value); got != fmt.Sprint(tt.code) {
				t.Errorf("code = %s, want %d", got, tt.code)
			}
		})
	}
}

func TestUnknownCodesHaveNoName(t *testing.T) {
	for _, s := range []fmt.Stringer{Status(7), LEDState(3), Binning(2), Gain(2)} {
		if got := s.String(); got != "" {
			t.Errorf("%T(%d).String() = %q, want empty", s, s, got)
		}
	}
}

func TestRowBitmapString(t *testing.T) {
	if got := RowBitmap(0x07).String(); got != "0x07" {
		t.Errorf("got %q", got)
	}
	if got := RowBitmap(0).String(); got != "0x00" {
		t.Errorf("got %q", got)
	}
}

func TestExposureLimits(t *testing.T) {
	if MinMs != 0.02 || MaxMs != 1310.0 {
		t.Errorf("limits = [%v, %v] ms", MinMs, MaxMs)
	}
	if d := MaxCycles * CycleDuration; d.Milliseconds() != 1310 {
		t.Errorf("max exposure = %v", d)
	}
}
