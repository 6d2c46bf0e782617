// Package ffmpeg locates the external ffmpeg binary and probes media files
// with it. Location never fails hard: callers receive an availability flag
// and decide how to surface the missing tool.
package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// binaryName is the base name of the ffmpeg binary.
	binaryName = "ffmpeg"

	// probeBinaryName is the sibling tool used for media metadata.
	probeBinaryName = "ffprobe"

	// binaryExtWindows is the file extension for Windows executables.
	binaryExtWindows = ".exe"

	// toolSubdir is the conventional subdirectory holding a bundled ffmpeg.
	toolSubdir = "ffmpeg"

	// versionProbeTimeout bounds the last-resort "ffmpeg -version" check.
	versionProbeTimeout = 5 * time.Second
)

// Location is the result of resolving the ffmpeg binary.
// Path is an absolute path, or the bare command name when ffmpeg answered a
// direct version probe without being found on disk.
type Location struct {
	Available bool
	Path      string
}

// Locator finds the ffmpeg binary across the supported install layouts.
//
// On success the resolved directory is prepended to the process PATH so that
// subsequent subprocess invocations of ffmpeg and its sibling ffprobe resolve
// by bare name. The mutation is idempotent and documented here as the
// locator's one side effect; results are otherwise pure functions of the
// filesystem state at call time.
type Locator struct {
	hint  string
	goos  string
	env   envProvider
	files fileStatter
	cmd   commandRunner
	log   *zap.Logger
}

// LocatorOption configures a Locator.
type LocatorOption func(*Locator)

// WithHint sets a user-supplied directory or file path to check first.
func WithHint(hint string) LocatorOption {
	return func(l *Locator) { l.hint = hint }
}

// WithPlatform sets the target OS (for testing cross-platform behavior).
func WithPlatform(goos string) LocatorOption {
	return func(l *Locator) { l.goos = goos }
}

// WithEnvProvider sets the environment provider implementation.
func WithEnvProvider(e envProvider) LocatorOption {
	return func(l *Locator) { l.env = e }
}

// WithFileStatter sets the file statter implementation.
func WithFileStatter(s fileStatter) LocatorOption {
	return func(l *Locator) { l.files = s }
}

// WithCommandRunner sets the command runner implementation.
func WithCommandRunner(r commandRunner) LocatorOption {
	return func(l *Locator) { l.cmd = r }
}

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) LocatorOption {
	return func(l *Locator) { l.log = log }
}

// NewLocator creates a Locator with the given options.
// Uses production defaults if no options are provided.
func NewLocator(opts ...LocatorOption) *Locator {
	l := &Locator{
		goos:  runtime.GOOS,
		env:   osEnvProvider{},
		files: osFileStatter{},
		cmd:   osCommandRunner{},
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// exeName returns the platform-specific ffmpeg binary name.
func (l *Locator) exeName() string {
	if l.goos == "windows" {
		return binaryName + binaryExtWindows
	}
	return binaryName
}

// Locate resolves the ffmpeg binary. Resolution order, first match wins:
//
//  1. User-supplied hint: a directory is searched for the binary, a file
//     is used directly.
//  2. System PATH.
//  3. The running executable's directory, then its ffmpeg/ subdirectory.
//  4. The application root (working directory), then its ffmpeg/ subdirectory.
//  5. A direct "ffmpeg -version" invocation with a short timeout; a zero
//     exit code means the bare name works even though no file was found.
//
// Never returns an error: an exhausted search yields Available=false.
func (l *Locator) Locate(ctx context.Context) Location {
	// 1. User-supplied hint.
	if hint := strings.TrimSpace(l.hint); hint != "" {
		if loc, ok := l.checkHint(hint); ok {
			return loc
		}
	}

	// 2. System PATH.
	if path, err := l.env.LookPath(binaryName); err == nil {
		l.log.Debug("ffmpeg found on PATH", zap.String("path", path))
		return l.found(path)
	}

	// 3. Directory of the running executable (installed layout).
	if exe, err := l.env.Executable(); err == nil {
		if loc, ok := l.checkDir(filepath.Dir(exe)); ok {
			return loc
		}
	}

	// 4. Application root (development layout).
	if root, err := l.env.Getwd(); err == nil {
		if loc, ok := l.checkDir(root); ok {
			return loc
		}
	}

	// 5. Last resort: see if the bare name runs anyway.
	if l.versionProbe(ctx) {
		l.log.Debug("ffmpeg answered version probe by bare name")
		return Location{Available: true, Path: binaryName}
	}

	l.log.Warn("ffmpeg not found in any of the checked locations")
	return Location{}
}

// checkHint resolves a user-supplied directory or file path.
func (l *Locator) checkHint(hint string) (Location, bool) {
	hint = filepath.Clean(hint)
	l.log.Debug("checking ffmpeg hint", zap.String("hint", hint))

	info, err := l.files.Stat(hint)
	if err != nil {
		l.log.Debug("ffmpeg hint does not exist", zap.String("hint", hint))
		return Location{}, false
	}

	if info.IsDir() {
		exe := filepath.Join(hint, l.exeName())
		if _, err := l.files.Stat(exe); err == nil {
			return l.found(exe), true
		}
		l.log.Debug("ffmpeg hint is a directory without the binary",
			zap.String("hint", hint))
		return Location{}, false
	}

	return l.found(hint), true
}

// checkDir looks for the binary in dir and in dir's ffmpeg/ subdirectory.
func (l *Locator) checkDir(dir string) (Location, bool) {
	exe := filepath.Join(dir, l.exeName())
	if info, err := l.files.Stat(exe); err == nil && !info.IsDir() {
		l.log.Debug("ffmpeg found in directory", zap.String("path", exe))
		return l.found(exe), true
	}

	exe = filepath.Join(dir, toolSubdir, l.exeName())
	if info, err := l.files.Stat(exe); err == nil && !info.IsDir() {
		l.log.Debug("ffmpeg found in tool subdirectory", zap.String("path", exe))
		return l.found(exe), true
	}

	return Location{}, false
}

// versionProbe runs "ffmpeg -version" with a short timeout.
func (l *Locator) versionProbe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, versionProbeTimeout)
	defer cancel()

	_, err := l.cmd.CombinedOutput(ctx, binaryName, []string{"-version"})
	return err == nil
}

// found normalizes a resolved path and prepends its directory to PATH.
func (l *Locator) found(path string) Location {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	path = filepath.Clean(path)
	l.prependPath(filepath.Dir(path))
	return Location{Available: true, Path: path}
}

// prependPath puts dir at the front of the process PATH so child processes
// resolve ffmpeg and ffprobe by bare name. Skipped when already present.
func (l *Locator) prependPath(dir string) {
	current := l.env.Getenv("PATH")
	for _, entry := range strings.Split(current, string(os.PathListSeparator)) {
		if entry == dir {
			return
		}
	}
	if err := l.env.Setenv("PATH", dir+string(os.PathListSeparator)+current); err != nil {
		l.log.Debug("failed to prepend ffmpeg directory to PATH", zap.Error(err))
	}
}

// InstallInstructions returns platform-specific remediation text for a
// missing ffmpeg binary.
func InstallInstructions(goos string) string {
	switch goos {
	case "darwin":
		return `ffmpeg is required to split large files.

To install it:
  brew install ffmpeg

Or download from https://ffmpeg.org/download.html and either add it to PATH
or place the binary next to this application. Then run again.`
	case "linux":
		return `ffmpeg is required to split large files.

To install it:
  Ubuntu/Debian: sudo apt install ffmpeg
  Fedora:        sudo dnf install ffmpeg
  Arch:          sudo pacman -S ffmpeg

Or download from https://ffmpeg.org/download.html and either add it to PATH
or place the binary next to this application. Then run again.`
	case "windows":
		return `ffmpeg is required to split large files.

To install it:
  winget install ffmpeg
  or: choco install ffmpeg

Or download from https://ffmpeg.org/download.html, extract it, and either
add it to PATH or place ffmpeg.exe next to this application. Then run again.`
	default:
		return `ffmpeg is required to split large files.
Download it from https://ffmpeg.org/download.html and either add it to PATH
or place the binary next to this application. Then run again.`
	}
}
