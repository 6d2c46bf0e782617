package format

import (
	"testing"
	"time"
)

func TestDuration(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{name: "zero", d: 0, want: "00:00"},
		{name: "seconds only", d: 45 * time.Second, want: "00:45"},
		{name: "minutes and seconds", d: 3*time.Minute + 7*time.Second, want: "03:07"},
		{name: "exactly one hour", d: time.Hour, want: "01:00:00"},
		{name: "hours minutes seconds", d: 2*time.Hour + 30*time.Minute + 5*time.Second, want: "02:30:05"},
		{name: "sub-second truncated", d: 59*time.Second + 900*time.Millisecond, want: "00:59"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Duration(tt.d); got != tt.want {
				t.Errorf("Duration(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestFFmpegTime(t *testing.T) {
	tests := []struct {
		name string
		d    time.Duration
		want string
	}{
		{name: "zero", d: 0, want: "00:00:00.000"},
		{name: "milliseconds", d: 1500 * time.Millisecond, want: "00:00:01.500"},
		{name: "minutes", d: 3*time.Minute + 36*time.Second, want: "00:03:36.000"},
		{name: "hours", d: time.Hour + 2*time.Minute + 3*time.Second + 450*time.Millisecond, want: "01:02:03.450"},
		{name: "chunk boundary", d: 216 * time.Second, want: "00:03:36.000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FFmpegTime(tt.d); got != tt.want {
				t.Errorf("FFmpegTime(%v) = %q, want %q", tt.d, got, tt.want)
			}
		})
	}
}

func TestSize(t *testing.T) {
	tests := []struct {
		name  string
		bytes int64
		want  string
	}{
		{name: "bytes", bytes: 512, want: "512 bytes"},
		{name: "exactly one KB", bytes: 1024, want: "1 KB"},
		{name: "kilobytes", bytes: 300 * 1024, want: "300 KB"},
		{name: "exactly one MB", bytes: 1024 * 1024, want: "1 MB"},
		{name: "megabytes truncated", bytes: 52428800, want: "50 MB"},
		{name: "zero", bytes: 0, want: "0 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Size(tt.bytes); got != tt.want {
				t.Errorf("Size(%d) = %q, want %q", tt.bytes, got, tt.want)
			}
		})
	}
}
