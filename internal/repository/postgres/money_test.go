package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericStringToCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"2000.00", 200000},
		{"2000.0000", 200000},
		{"0.01", 1},
		{"0", 0},
		{"19.99", 1999},
		{"-5.50", -550},
		{" 1000.00 ", 100000},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := numericStringToCents(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNumericStringToCents_Invalid(t *testing.T) {
	for _, in := range []string{"", "  ", "abc", "12.3.4"} {
		_, err := numericStringToCents(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestCentsToNumericString(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{200000, "2000.00"},
		{1, "0.01"},
		{0, "0.00"},
		{1999, "19.99"},
		{-550, "-5.50"},
		{100, "1.00"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, centsToNumericString(tt.in))
	}
}

func TestMoneyRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 100, 12345, 200000, -42} {
		got, err := numericStringToCents(centsToNumericString(cents))
		require.NoError(t, err)
		assert.Equal(t, cents, got)
	}
}
