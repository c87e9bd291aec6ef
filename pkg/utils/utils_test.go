package utils

import "testing"

func TestAlignTo(t *testing.T) {
	tests := []struct {
		val, align, want uint64
	}{
		{0, 8, 0},
		{1, 8, 8},
		{8, 8, 8},
		{9, 8, 16},
		{17, 1, 17},
		{5, 0, 5},
		{4097, 4096, 8192},
	}
	for _, tt := range tests {
		if got := AlignTo(tt.val, tt.align); got != tt.want {
			t.Errorf("AlignTo(%d, %d) = %d, want %d",
				tt.val, tt.align, got, tt.want)
		}
	}
}

func TestWriteRead(t *testing.T) {
	buf := make([]byte, 8)
	Write[uint32](buf, 0xdeadbeef)

	var val uint32
	Read[uint32](buf, &val)
	if val != 0xdeadbeef {
		t.Errorf("roundtrip got %#x", val)
	}
	if buf[0] != 0xef {
		t.Errorf("expected little-endian layout, got % x", buf[:4])
	}
}
