package quant

import "testing"

func TestPrice4_String(t *testing.T) {
	tests := []struct {
		raw      uint32
		expected string
	}{
		{1500000, "150.0000"},
		{1, "0.0001"},
		{0, "0.0000"},
		{10000, "1.0000"},
		{2999900, "299.9900"},
	}

	for _, tt := range tests {
		got := Price4(tt.raw).String()
		if got != tt.expected {
			t.Errorf("Price4(%d).String() = %s; want %s", tt.raw, got, tt.expected)
		}
	}
}

func TestPrice8_String(t *testing.T) {
	tests := []struct {
		raw      uint64
		expected string
	}{
		{100000000, "1.00000000"},
		{1, "0.00000001"},
		{0, "0.00000000"},
		{1234567890123, "12345.67890123"},
	}

	for _, tt := range tests {
		got := Price8(tt.raw).String()
		if got != tt.expected {
			t.Errorf("Price8(%d).String() = %s; want %s", tt.raw, got, tt.expected)
		}
	}
}

func TestMid(t *testing.T) {
	tests := []struct {
		bid, ask, mid uint32
	}{
		{1000000, 1010000, 1005000},
		{1, 2, 1}, // rounds down to the tick grid
		{0, 0, 0},
	}

	for _, tt := range tests {
		got := Mid(Price4(tt.bid), Price4(tt.ask))
		if got != Price4(tt.mid) {
			t.Errorf("Mid(%d, %d) = %d; want %d", tt.bid, tt.ask, got, tt.mid)
		}
	}
}
