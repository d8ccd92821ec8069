package utils

import (
	"math"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		duration time.Duration
		expected string
	}{
		{0, "0:00"},
		{-time.Second, "0:00"},
		{59 * time.Second, "0:59"},
		{60 * time.Second, "1:00"},
		{1500 * time.Millisecond, "0:02"},
		{61*time.Minute + 1*time.Second, "1:01:01"},
		{25*time.Hour + 45*time.Minute + 30*time.Second, "25:45:30"},
	}

	for _, test := range tests {
		result := FormatDuration(test.duration)
		if result != test.expected {
			t.Errorf("FormatDuration(%v) = %s; expected %s", test.duration, result, test.expected)
		}
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		seconds  float64
		expected string
	}{
		{0, "0:00"},
		{212.4, "3:32"},
		{3661, "1:01:01"},
		{math.NaN(), "0:00"},
		{math.Inf(1), "0:00"},
	}

	for _, test := range tests {
		result := FormatSeconds(test.seconds)
		if result != test.expected {
			t.Errorf("FormatSeconds(%v) = %s; expected %s", test.seconds, result, test.expected)
		}
	}
}

func TestFormatFileSize(t *testing.T) {
	tests := []struct {
		bytes    int64
		expected string
	}{
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}

	for _, test := range tests {
		result := FormatFileSize(test.bytes)
		if result != test.expected {
			t.Errorf("FormatFileSize(%d) = %s; expected %s", test.bytes, result, test.expected)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		width    int
		expected string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is a very long string", 10, "this is a…"},
		{"multi\nline  title", 20, "multi line title"},
		{"Квантовые сны", 6, "Квант…"},
		{"anything", 0, ""},
	}

	for _, test := range tests {
		result := Truncate(test.input, test.width)
		if result != test.expected {
			t.Errorf("Truncate(%q, %d) = %q; expected %q", test.input, test.width, result, test.expected)
		}
	}
}
