package media

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/whispera-app/whispera/internal/ffmpeg"
	"github.com/whispera-app/whispera/internal/format"
)

// tempDirPrefix names the temp directory holding exported chunks.
const tempDirPrefix = "whispera-"

// Splitter exports plan-sized chunks of a source file with ffmpeg.
// Chunks are exported strictly sequentially in index order; a chunk that
// comes out over the byte ceiling is re-exported once at the low bitrate
// and then accepted as-is.
type Splitter struct {
	ffmpegPath  string
	bitrateHigh string
	bitrateLow  string

	// Injectable dependencies (defaults to OS implementations).
	cmd     commandRunner
	tempDir tempDirCreator
	files   fileRemover
	statter fileStatter
	log     *zap.Logger
}

// SplitterOption configures a Splitter.
type SplitterOption func(*Splitter)

// WithBitrates sets the high and low export bitrates.
func WithBitrates(high, low string) SplitterOption {
	return func(s *Splitter) {
		s.bitrateHigh = high
		s.bitrateLow = low
	}
}

// WithCommandRunner sets the command runner for the Splitter.
func WithCommandRunner(r commandRunner) SplitterOption {
	return func(s *Splitter) { s.cmd = r }
}

// WithTempDirCreator sets the temp directory creator for the Splitter.
func WithTempDirCreator(t tempDirCreator) SplitterOption {
	return func(s *Splitter) { s.tempDir = t }
}

// WithFileRemover sets the file remover for the Splitter.
func WithFileRemover(f fileRemover) SplitterOption {
	return func(s *Splitter) { s.files = f }
}

// WithFileStatter sets the file statter for the Splitter.
func WithFileStatter(st fileStatter) SplitterOption {
	return func(s *Splitter) { s.statter = st }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) SplitterOption {
	return func(s *Splitter) { s.log = log }
}

// NewSplitter creates a Splitter bound to a resolved ffmpeg location.
func NewSplitter(ffmpegPath string, opts ...SplitterOption) (*Splitter, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ffmpeg.ErrNotFound)
	}

	s := &Splitter{
		ffmpegPath:  ffmpegPath,
		bitrateHigh: BitrateHigh,
		bitrateLow:  BitrateLow,
		cmd:         osCommandRunner{},
		tempDir:     osTempDirCreator{},
		files:       osFileRemover{},
		statter:     osFileStatter{},
		log:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Split exports every chunk of the plan from mediaPath into a fresh temp
// directory. On any export failure, chunks written so far are removed and
// the error is returned; the caller owns cleanup of a successful result
// (see Cleanup).
func (s *Splitter) Split(ctx context.Context, mediaPath string, plan SplitPlan, total time.Duration) ([]Chunk, error) {
	tempDir, err := s.tempDir.MkdirTemp("", tempDirPrefix+"*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	chunks := make([]Chunk, 0, plan.ChunkCount)
	for i := 1; i <= plan.ChunkCount; i++ {
		start, end := plan.Range(i, total)
		chunkPath := filepath.Join(tempDir, fmt.Sprintf("chunk_%03d.mp3", i))

		chunk, err := s.exportChunk(ctx, mediaPath, chunkPath, i, start, end, plan.MaxChunkSize)
		if err != nil {
			_ = s.files.RemoveAll(tempDir) // best-effort cleanup; original error takes precedence
			return nil, err
		}
		chunks = append(chunks, chunk)
	}

	return chunks, nil
}

// exportChunk carves [start, end) from the source at the high bitrate,
// then re-exports once at the low bitrate if the result is over the ceiling.
func (s *Splitter) exportChunk(ctx context.Context, mediaPath, chunkPath string, index int, start, end time.Duration, maxSize int64) (Chunk, error) {
	chunk := Chunk{
		Index:   index,
		Start:   start,
		End:     end,
		Path:    chunkPath,
		Bitrate: s.bitrateHigh,
	}

	if err := s.runExport(ctx, mediaPath, chunkPath, start, end, s.bitrateHigh); err != nil {
		return Chunk{}, err
	}

	size, err := s.chunkSize(chunkPath)
	if err != nil {
		return Chunk{}, err
	}

	if size > maxSize {
		s.log.Debug("chunk over size ceiling, re-exporting at low bitrate",
			zap.String("chunk", chunk.String()),
			zap.Int64("size", size),
			zap.Int64("max", maxSize))
		if err := s.runExport(ctx, mediaPath, chunkPath, start, end, s.bitrateLow); err != nil {
			return Chunk{}, err
		}
		chunk.Bitrate = s.bitrateLow
		// No further retries; the low-bitrate result is accepted as-is.
	}

	s.log.Debug("exported chunk", zap.String("chunk", chunk.String()),
		zap.Duration("length", chunk.Duration()),
		zap.String("bitrate", chunk.Bitrate))
	return chunk, nil
}

// runExport extracts a time range from mediaPath to chunkPath as mp3 audio.
func (s *Splitter) runExport(ctx context.Context, mediaPath, chunkPath string, start, end time.Duration, bitrate string) error {
	args := []string{
		"-y",
		"-i", mediaPath,
		"-ss", format.FFmpegTime(start),
		"-to", format.FFmpegTime(end),
		"-vn",
		"-c:a", "libmp3lame",
		"-b:a", bitrate,
		chunkPath,
	}

	output, err := s.cmd.CombinedOutput(ctx, s.ffmpegPath, args)
	if err != nil {
		return fmt.Errorf("%w: failed to export chunk %s: %v\nOutput: %s",
			ErrSplitFailed, chunkPath, err, string(output))
	}
	return nil
}

// chunkSize re-reads the exported file's size from disk.
func (s *Splitter) chunkSize(chunkPath string) (int64, error) {
	info, err := s.statter.Stat(chunkPath)
	if err != nil {
		return 0, fmt.Errorf("%w: exported chunk missing: %v", ErrSplitFailed, err)
	}
	return info.Size(), nil
}

// Cleanup removes all chunk files and their parent temp directory.
// Best effort: errors are returned for logging but chunks may already be gone.
func Cleanup(chunks []Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	// All chunks live in the same temp directory.
	tempDir := filepath.Dir(chunks[0].Path)

	// Safety check: don't delete arbitrary directories.
	if !strings.Contains(filepath.Base(tempDir), tempDirPrefix) {
		for _, chunk := range chunks {
			_ = os.Remove(chunk.Path) // best-effort cleanup; files may already be gone
		}
		return nil
	}

	return os.RemoveAll(tempDir)
}
