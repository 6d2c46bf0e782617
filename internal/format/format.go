package format

import (
	"fmt"
	"time"
)

// Duration formats a duration as HH:MM:SS or MM:SS.
func Duration(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}

// FFmpegTime formats a duration as HH:MM:SS.mmm for ffmpeg -ss/-to arguments.
// Millisecond precision keeps adjacent chunk boundaries from overlapping.
func FFmpegTime(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := d.Seconds() - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}

// Size formats a size in bytes for human display.
// Uses MB for sizes >= 1MB, KB otherwise.
func Size(bytes int64) string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	if bytes >= mb {
		return fmt.Sprintf("%d MB", bytes/mb)
	}
	if bytes >= kb {
		return fmt.Sprintf("%d KB", bytes/kb)
	}
	return fmt.Sprintf("%d bytes", bytes)
}
