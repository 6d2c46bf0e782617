// Package pipeline orchestrates chunked transcription: size gating, split
// planning, sequential chunk export and transcription, ordered reassembly,
// and guaranteed temp cleanup.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/whispera-app/whispera/internal/ffmpeg"
	"github.com/whispera-app/whispera/internal/format"
	"github.com/whispera-app/whispera/internal/media"
	"github.com/whispera-app/whispera/internal/transcribe"
)

// supportedExtensions lists input formats accepted by the transcription API.
var supportedExtensions = map[string]bool{
	".mp3":  true,
	".mp4":  true,
	".mpeg": true,
	".mpga": true,
	".m4a":  true,
	".wav":  true,
	".webm": true,
}

// SupportedExtensionsList returns a sorted, comma-separated list for
// error messages and help text.
func SupportedExtensionsList() string {
	exts := make([]string, 0, len(supportedExtensions))
	for ext := range supportedExtensions {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return strings.Join(exts, ", ")
}

// Progress checkpoint messages.
const (
	MsgProcessing   = "Processing file..."
	MsgSplitting    = "File is large, splitting into chunks..."
	MsgTranscribing = "Transcribing audio..."
	MsgCombining    = "Combining transcriptions..."
	MsgComplete     = "Complete!"
)

// chunkSeparator joins per-chunk transcripts in the combined result.
const chunkSeparator = "\n\n"

// Locator resolves the ffmpeg binary.
type Locator interface {
	Locate(ctx context.Context) ffmpeg.Location
}

// DurationProber reads a media file's total duration.
type DurationProber interface {
	Duration(ctx context.Context, mediaPath string) (time.Duration, error)
}

// Splitter exports the chunks of a split plan.
type Splitter interface {
	Split(ctx context.Context, mediaPath string, plan media.SplitPlan, total time.Duration) ([]media.Chunk, error)
}

// ProberFactory builds a DurationProber for a resolved ffmpeg location.
type ProberFactory func(ffmpegPath string) (DurationProber, error)

// SplitterFactory builds a Splitter for a resolved ffmpeg location.
type SplitterFactory func(ffmpegPath string) (Splitter, error)

// Pipeline runs one transcription end to end. A single invocation runs on
// one worker goroutine; concurrent invocations are not supported (the
// locator's PATH side effect is process-wide).
type Pipeline struct {
	transcriber transcribe.Transcriber
	locator     Locator
	newProber   ProberFactory
	newSplitter SplitterFactory

	maxUploadSize int64
	maxChunkSize  int64
	safetyFactor  float64

	progress Func
	statter  fileStatter
	goos     string
	log      *zap.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithProgress sets the progress callback.
func WithProgress(fn Func) Option {
	return func(p *Pipeline) { p.progress = fn }
}

// WithLocator sets the ffmpeg locator.
func WithLocator(l Locator) Option {
	return func(p *Pipeline) { p.locator = l }
}

// WithProberFactory sets the duration prober factory.
func WithProberFactory(f ProberFactory) Option {
	return func(p *Pipeline) { p.newProber = f }
}

// WithSplitterFactory sets the splitter factory.
func WithSplitterFactory(f SplitterFactory) Option {
	return func(p *Pipeline) { p.newSplitter = f }
}

// WithLimits sets the direct-upload and chunk byte ceilings.
func WithLimits(maxUpload, maxChunk int64) Option {
	return func(p *Pipeline) {
		if maxUpload > 0 {
			p.maxUploadSize = maxUpload
		}
		if maxChunk > 0 {
			p.maxChunkSize = maxChunk
		}
	}
}

// WithFileStatter sets the file statter implementation.
func WithFileStatter(s fileStatter) Option {
	return func(p *Pipeline) { p.statter = s }
}

// WithPlatform sets the target OS for remediation messages.
func WithPlatform(goos string) Option {
	return func(p *Pipeline) { p.goos = goos }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Pipeline) { p.log = log }
}

// New creates a Pipeline around a transcriber with production defaults.
func New(t transcribe.Transcriber, opts ...Option) *Pipeline {
	p := &Pipeline{
		transcriber:   t,
		locator:       ffmpeg.NewLocator(),
		maxUploadSize: media.MaxUploadSize,
		maxChunkSize:  media.MaxChunkSize,
		safetyFactor:  media.SafetyFactor,
		statter:       osFileStatter{},
		goos:          runtime.GOOS,
		log:           zap.NewNop(),
	}
	p.newProber = func(ffmpegPath string) (DurationProber, error) {
		return ffmpeg.NewProber(ffmpegPath, ffmpeg.WithProberLogger(p.log))
	}
	p.newSplitter = func(ffmpegPath string) (Splitter, error) {
		return media.NewSplitter(ffmpegPath, media.WithLogger(p.log))
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// report emits a progress checkpoint if a callback is set.
func (p *Pipeline) report(message string, percent int) {
	if p.progress != nil {
		p.progress(Progress{Message: message, Percent: percent})
	}
}

// Process transcribes the file at path and returns the combined text.
//
// Files at or under the direct-upload ceiling are sent in a single request.
// Larger files are split per the computed plan, transcribed chunk by chunk
// in index order, and joined with a blank line between chunks. The first
// chunk failure aborts the whole operation; no partial transcript is
// returned. Temporary chunk files are removed on every exit path.
func (p *Pipeline) Process(ctx context.Context, path string) (string, error) {
	p.report(MsgProcessing, 10)

	file, err := p.validate(path)
	if err != nil {
		return "", err
	}

	// Size gate: small files skip splitting entirely.
	if file.Size <= p.maxUploadSize {
		p.log.Debug("file under direct-upload ceiling, transcribing whole",
			zap.String("file", file.Path),
			zap.String("size", format.Size(file.Size)))
		p.report(MsgTranscribing, 30)
		text, err := p.transcriber.Transcribe(ctx, file.Path)
		if err != nil {
			return "", err
		}
		p.report(MsgComplete, 100)
		return text, nil
	}

	return p.processChunked(ctx, file)
}

// validate checks the preconditions and captures the file's size.
func (p *Pipeline) validate(path string) (media.File, error) {
	if path == "" {
		return media.File{}, ErrNoFile
	}

	info, err := p.statter.Stat(path)
	if err != nil {
		return media.File{}, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if !supportedExtensions[ext] {
		return media.File{}, fmt.Errorf("%w: %q (supported: %s)",
			ErrUnsupportedFormat, ext, SupportedExtensionsList())
	}

	return media.File{Path: path, Size: info.Size()}, nil
}

// processChunked handles files over the direct-upload ceiling.
func (p *Pipeline) processChunked(ctx context.Context, file media.File) (string, error) {
	p.report(MsgSplitting, 10)

	loc := p.locator.Locate(ctx)
	if !loc.Available {
		return "", fmt.Errorf("%w\n\n%s", ErrToolUnavailable, ffmpeg.InstallInstructions(p.goos))
	}

	prober, err := p.newProber(loc.Path)
	if err != nil {
		return "", err
	}
	file.Duration, err = prober.Duration(ctx, file.Path)
	if err != nil {
		return "", fmt.Errorf("failed to probe media duration: %w", err)
	}

	plan := media.ComputePlan(file.Size, file.Duration, p.maxChunkSize, p.safetyFactor)
	p.log.Info("split plan computed",
		zap.String("file", file.Path),
		zap.String("size", format.Size(file.Size)),
		zap.Duration("duration", file.Duration),
		zap.Int("chunks", plan.ChunkCount),
		zap.Duration("chunkDuration", plan.ChunkDuration))

	splitter, err := p.newSplitter(loc.Path)
	if err != nil {
		return "", err
	}
	chunks, err := splitter.Split(ctx, file.Path, plan, file.Duration)
	if err != nil {
		return "", err
	}

	// Remove every chunk and the temp directory on all exit paths.
	// Cleanup failures never mask the primary result.
	defer func() {
		if cleanupErr := media.Cleanup(chunks); cleanupErr != nil {
			p.log.Debug("chunk cleanup failed", zap.Error(cleanupErr))
		}
	}()

	texts := make([]string, 0, len(chunks))
	for i, chunk := range chunks {
		percent := 20 + (i*70)/len(chunks)
		p.report(fmt.Sprintf("Transcribing chunk %d of %d...", chunk.Index, len(chunks)), percent)

		text, err := p.transcriber.Transcribe(ctx, chunk.Path)
		if err != nil {
			// Abort the whole operation; earlier chunk texts are discarded.
			return "", fmt.Errorf("%s: %w", chunk, err)
		}
		texts = append(texts, text)
	}

	p.report(MsgCombining, 95)
	combined := strings.Join(texts, chunkSeparator)

	p.report(MsgComplete, 100)
	return combined, nil
}
