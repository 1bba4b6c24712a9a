package money

import (
	"errors"
	"testing"
)

func TestParseCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
		err  error
	}{
		{"12.50", 1250, nil},
		{"1", 100, nil},
		{"0.01", 1, nil},
		{"1000", 100000, nil},
		{" 7.5 ", 750, nil},
		{"1.500", 150, nil}, // trailing zero beyond two places is fine
		{"0", 0, ErrInvalidAmount},
		{"-3", 0, ErrInvalidAmount},
		{"abc", 0, ErrInvalidAmount},
		{"", 0, ErrInvalidAmount},
		{"1.005", 0, ErrTooPrecise},
		{"0.001", 0, ErrTooPrecise},
	}
	for _, tc := range cases {
		got, err := ParseCents(tc.in)
		if tc.err != nil {
			if !errors.Is(err, tc.err) {
				t.Errorf("ParseCents(%q): expected %v, got %v", tc.in, tc.err, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseCents(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseCents(%q): got %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestFormatCents(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{1250, "12.50"},
		{1, "0.01"},
		{0, "0.00"},
		{100000, "1000.00"},
		{105, "1.05"},
	}
	for _, tc := range cases {
		if got := FormatCents(tc.in); got != tc.want {
			t.Errorf("FormatCents(%d): got %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseFormatRoundTrip(t *testing.T) {
	for _, cents := range []int64{1, 99, 100, 1250, 100000} {
		got, err := ParseCents(FormatCents(cents))
		if err != nil {
			t.Fatalf("round trip %d: %v", cents, err)
		}
		if got != cents {
			t.Errorf("round trip: got %d, want %d", got, cents)
		}
	}
}
