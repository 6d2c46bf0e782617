package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// Prober reads media durations using ffprobe, falling back to parsing
// ffmpeg's own stderr when ffprobe is unavailable.
type Prober struct {
	ffmpegPath string
	cmd        commandRunner
	files      fileStatter
	log        *zap.Logger
}

// ProberOption configures a Prober.
type ProberOption func(*Prober)

// WithProberCommandRunner sets the command runner for the Prober.
func WithProberCommandRunner(r commandRunner) ProberOption {
	return func(p *Prober) { p.cmd = r }
}

// WithProberFileStatter sets the file statter for the Prober.
func WithProberFileStatter(s fileStatter) ProberOption {
	return func(p *Prober) { p.files = s }
}

// WithProberLogger sets the logger.
func WithProberLogger(log *zap.Logger) ProberOption {
	return func(p *Prober) { p.log = log }
}

// NewProber creates a Prober bound to a resolved ffmpeg location.
func NewProber(ffmpegPath string, opts ...ProberOption) (*Prober, error) {
	if ffmpegPath == "" {
		return nil, fmt.Errorf("ffmpegPath cannot be empty: %w", ErrNotFound)
	}

	p := &Prober{
		ffmpegPath: ffmpegPath,
		cmd:        osCommandRunner{},
		files:      osFileStatter{},
		log:        zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// ffprobePath derives the ffprobe invocation from the ffmpeg location:
// a sibling binary when ffmpeg was resolved to a real path and the sibling
// exists, otherwise the bare name (the locator put the directory on PATH).
func (p *Prober) ffprobePath() string {
	if p.ffmpegPath == binaryName {
		return probeBinaryName
	}

	name := probeBinaryName
	if filepath.Ext(p.ffmpegPath) == binaryExtWindows {
		name += binaryExtWindows
	}
	sibling := filepath.Join(filepath.Dir(p.ffmpegPath), name)
	if _, err := p.files.Stat(sibling); err == nil {
		return sibling
	}
	return probeBinaryName
}

// Duration returns the duration of a media file.
func (p *Prober) Duration(ctx context.Context, mediaPath string) (time.Duration, error) {
	if d, err := p.durationFFprobe(ctx, mediaPath); err == nil {
		return d, nil
	} else {
		p.log.Debug("ffprobe duration probe failed, falling back to ffmpeg",
			zap.String("file", mediaPath), zap.Error(err))
	}
	return p.durationFFmpeg(ctx, mediaPath)
}

// ffprobeFormat is the subset of ffprobe's JSON output we read.
type ffprobeFormat struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// durationFFprobe asks ffprobe for the container duration in JSON form.
func (p *Prober) durationFFprobe(ctx context.Context, mediaPath string) (time.Duration, error) {
	args := []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		mediaPath,
	}
	output, err := p.cmd.CombinedOutput(ctx, p.ffprobePath(), args)
	if err != nil {
		return 0, fmt.Errorf("ffprobe failed: %w", err)
	}

	var result ffprobeFormat
	if err := json.Unmarshal(output, &result); err != nil {
		return 0, fmt.Errorf("failed to parse ffprobe JSON output: %w", err)
	}
	if result.Format.Duration == "" {
		return 0, fmt.Errorf("duration not available in format metadata")
	}

	seconds, err := strconv.ParseFloat(result.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", result.Format.Duration, err)
	}
	return time.Duration(seconds * float64(time.Second)), nil
}

// durationFFmpeg extracts the duration from ffmpeg's diagnostic output.
// The -i flag with a null sink prints file info including duration.
func (p *Prober) durationFFmpeg(ctx context.Context, mediaPath string) (time.Duration, error) {
	args := []string{
		"-i", mediaPath,
		"-f", "null", "-",
	}
	output, err := p.cmd.CombinedOutput(ctx, p.ffmpegPath, args)
	if err != nil {
		// FFmpeg returns non-zero even when it successfully reads file info,
		// so we try to parse the output anyway.
		if len(output) == 0 {
			return 0, err
		}
	}

	return ParseDurationOutput(string(output))
}

// ParseDurationOutput extracts duration from FFmpeg stderr.
// Looks for: "Duration: HH:MM:SS.ms" or "time=HH:MM:SS.ms"
func ParseDurationOutput(output string) (time.Duration, error) {
	// Pattern: Duration: 00:05:23.45
	durationRe := regexp.MustCompile(`Duration:\s*(\d+):(\d+):(\d+)\.(\d+)`)
	if matches := durationRe.FindStringSubmatch(output); matches != nil {
		return parseTimeComponents(matches[1], matches[2], matches[3], matches[4])
	}

	// Fallback pattern: time=00:05:23.45 (from progress output)
	timeRe := regexp.MustCompile(`time=(\d+):(\d+):(\d+)\.(\d+)`)
	// Find all matches and use the last one (final time).
	allMatches := timeRe.FindAllStringSubmatch(output, -1)
	if len(allMatches) > 0 {
		matches := allMatches[len(allMatches)-1]
		return parseTimeComponents(matches[1], matches[2], matches[3], matches[4])
	}

	return 0, fmt.Errorf("could not parse duration from ffmpeg output")
}

// parseTimeComponents converts HH:MM:SS.ms strings to Duration.
func parseTimeComponents(hours, minutes, seconds, fractional string) (time.Duration, error) {
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	s, _ := strconv.Atoi(seconds)

	// Normalize fractional part to milliseconds.
	// Input may be 1-6+ digits (e.g., ".4", ".45", ".456", ".456789").
	frac, _ := strconv.Atoi(fractional)
	ms := frac
	switch n := len(fractional); {
	case n == 1:
		ms = frac * 100
	case n == 2:
		ms = frac * 10
	case n == 3:
		// Already milliseconds.
	case n > 3:
		// Truncate excess precision by dividing.
		for i := n; i > 3; i-- {
			ms /= 10
		}
	}

	return time.Duration(h)*time.Hour +
		time.Duration(m)*time.Minute +
		time.Duration(s)*time.Second +
		time.Duration(ms)*time.Millisecond, nil
}
