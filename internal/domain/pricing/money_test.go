package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatINR(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "₹0.00"},
		{"3.8", "₹3.80"},
		{"999.999", "₹1,000.00"},
		{"1234", "₹1,234.00"},
		{"12345.5", "₹12,345.50"},
		{"123456.5", "₹1,23,456.50"},
		{"1234567.891", "₹12,34,567.89"},
		{"-2500", "-₹2,500.00"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatINR(dec(tt.in)))
		})
	}
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(380), ToMinorUnits(dec("3.80")))
	assert.Equal(t, int64(1000), ToMinorUnits(dec("9.995")))
	assert.Equal(t, int64(1234), ToMinorUnits(dec("12.344")))
	assert.True(t, dec("12.34").Equal(FromMinorUnits(1234)))
	assert.Equal(t, "10.01", RoundMoney(dec("10.005")).String())
}
