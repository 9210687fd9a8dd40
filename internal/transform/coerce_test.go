package transform

import (
	"testing"
	"time"
)

func TestCoerceDate(t *testing.T) {
	want := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{name: "iso", input: "2024-03-05", want: want, ok: true},
		{name: "us slash", input: "3/5/2024", want: want, ok: true},
		{name: "compact", input: "20240305", want: want, ok: true},
		{name: "rfc3339 time truncated", input: "2024-03-05T14:30:00Z", want: want, ok: true},
		{name: "whitespace", input: "  2024-03-05  ", want: want, ok: true},
		{name: "garbage", input: "someday", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := coerceDate(tt.input)
			if ok != tt.ok {
				t.Fatalf("coerceDate(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("coerceDate(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestCoerceInt(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int64
		ok    bool
	}{
		{name: "plain", input: "3", want: 3, ok: true},
		{name: "whole decimal", input: "3.0", want: 3, ok: true},
		{name: "thousands", input: "1,200", want: 1200, ok: true},
		{name: "negative", input: "-2", want: -2, ok: true},
		{name: "fractional", input: "3.5", ok: false},
		{name: "words", input: "three", ok: false},
		{name: "empty", input: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := coerceInt(tt.input)
			if ok != tt.ok {
				t.Fatalf("coerceInt(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("coerceInt(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestCoerceFloat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		ok    bool
	}{
		{name: "plain", input: "999.99", want: 999.99, ok: true},
		{name: "dollar sign", input: "$1,299.50", want: 1299.50, ok: true},
		{name: "euro sign", input: "€50.00", want: 50.00, ok: true},
		{name: "scientific", input: "1.5e2", want: 150, ok: true},
		{name: "garbage", input: "cheap", ok: false},
		{name: "empty", input: "", ok: false},
		{name: "trailing junk", input: "12abc", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := coerceFloat(tt.input)
			if ok != tt.ok {
				t.Fatalf("coerceFloat(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("coerceFloat(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestClamp(t *testing.T) {
	if got := clamp(1.5, 0, 1); got != 1 {
		t.Errorf("clamp(1.5) = %v, want 1", got)
	}
	if got := clamp(-0.2, 0, 1); got != 0 {
		t.Errorf("clamp(-0.2) = %v, want 0", got)
	}
	if got := clamp(0.25, 0, 1); got != 0.25 {
		t.Errorf("clamp(0.25) = %v, want 0.25", got)
	}
}
