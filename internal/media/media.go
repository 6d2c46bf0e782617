// Package media models media files and their division into bounded-size
// chunks for upload, and exports those chunks with ffmpeg.
package media

import (
	"fmt"
	"time"

	"github.com/whispera-app/whispera/internal/format"
)

// Default splitting parameters.
const (
	// MaxUploadSize is the ceiling for direct upload without splitting.
	// The OpenAI transcription API rejects files over 25MB.
	MaxUploadSize = 25 * 1024 * 1024

	// MaxChunkSize is the target ceiling for an exported chunk.
	// 20MB leaves margin under the upload limit for encoding variance.
	MaxChunkSize = 20 * 1024 * 1024

	// SafetyFactor shrinks the estimated chunk duration so that actual
	// encoded sizes land under MaxChunkSize despite bitrate variance.
	SafetyFactor = 0.9

	// BitrateHigh is the preferred bitrate for exported chunks.
	BitrateHigh = "128k"

	// BitrateLow is the retry bitrate when a chunk exceeds MaxChunkSize.
	BitrateLow = "64k"
)

// File is a read-only view of a media file the caller owns.
type File struct {
	Path     string        // Filesystem path; must exist.
	Size     int64         // Size in bytes.
	Duration time.Duration // Total duration, derived by probing.
}

// Chunk is a bounded-duration slice of a source file, exported as an
// independent file. Owned exclusively by the pipeline for its lifetime.
type Chunk struct {
	Index   int           // One-based, contiguous.
	Start   time.Duration // Start timestamp in the source.
	End     time.Duration // End timestamp in the source; Start < End <= total.
	Path    string        // Temporary file holding the exported range.
	Bitrate string        // Bitrate the chunk was last exported at.
}

// Duration returns the length of this chunk.
func (c Chunk) Duration() time.Duration {
	return c.End - c.Start
}

// String returns a human-readable representation for logging.
func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d: %s-%s",
		c.Index,
		format.Duration(c.Start),
		format.Duration(c.End))
}

// SplitPlan describes how a file is divided into chunks. Derived
// deterministically from file size, duration, and a byte ceiling.
type SplitPlan struct {
	ChunkCount    int           // Number of chunks, >= 1.
	ChunkDuration time.Duration // Target duration per chunk.
	MaxChunkSize  int64         // Byte ceiling each exported chunk should respect.
}

// Range returns the time range of the 1-based chunk index.
// Ranges tile [0, total) with no gaps or overlaps; the last range is
// clamped to total.
func (p SplitPlan) Range(index int, total time.Duration) (start, end time.Duration) {
	start = time.Duration(index-1) * p.ChunkDuration
	end = min(time.Duration(index)*p.ChunkDuration, total)
	return start, end
}

// ComputePlan derives a SplitPlan from file size and duration.
//
// The target chunk duration is (maxChunkSize / averageBytesPerMs) * safety,
// floored to whole milliseconds. The result is an estimate: encoded chunk
// size depends on bitrate and content, so the plan over-provisions via the
// safety factor and the exporter verifies sizes after the fact.
//
// A zero duration falls back to two equal halves, as does a computed chunk
// duration of zero.
func ComputePlan(size int64, duration time.Duration, maxChunkSize int64, safety float64) SplitPlan {
	durMs := duration.Milliseconds()
	if durMs <= 0 {
		return SplitPlan{
			ChunkCount:    2,
			ChunkDuration: duration / 2,
			MaxChunkSize:  maxChunkSize,
		}
	}

	bytesPerMs := float64(size) / float64(durMs)
	chunkMs := int64(float64(maxChunkSize) / bytesPerMs * safety)
	if chunkMs <= 0 {
		chunkMs = durMs / 2
	}
	if chunkMs <= 0 {
		chunkMs = durMs
	}

	count := int((durMs + chunkMs - 1) / chunkMs) // ceiling division
	if count < 1 {
		count = 1
	}

	return SplitPlan{
		ChunkCount:    count,
		ChunkDuration: time.Duration(chunkMs) * time.Millisecond,
		MaxChunkSize:  maxChunkSize,
	}
}
