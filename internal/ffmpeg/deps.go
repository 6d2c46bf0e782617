package ffmpeg

import (
	"context"
	"os"
	"os/exec"
)

// ---------------------------------------------------------------------------
// Interfaces - local to this package, following Go idiom
// ---------------------------------------------------------------------------

// envProvider abstracts environment and process-layout lookups.
type envProvider interface {
	Getenv(key string) string
	Setenv(key, value string) error
	LookPath(file string) (string, error)
	Executable() (string, error)
	Getwd() (string, error)
}

// fileStatter retrieves file information.
type fileStatter interface {
	Stat(name string) (os.FileInfo, error)
}

// commandRunner executes external commands and returns their combined output.
type commandRunner interface {
	CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error)
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to standard library
// ---------------------------------------------------------------------------

// Compile-time interface verification.
var (
	_ envProvider   = osEnvProvider{}
	_ fileStatter   = osFileStatter{}
	_ commandRunner = osCommandRunner{}
)

// osEnvProvider implements envProvider using os and exec packages.
type osEnvProvider struct{}

func (osEnvProvider) Getenv(key string) string {
	return os.Getenv(key)
}

func (osEnvProvider) Setenv(key, value string) error {
	return os.Setenv(key, value)
}

func (osEnvProvider) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (osEnvProvider) Executable() (string, error) {
	return os.Executable()
}

func (osEnvProvider) Getwd() (string, error) {
	return os.Getwd()
}

// osFileStatter implements fileStatter using os.Stat.
type osFileStatter struct{}

func (osFileStatter) Stat(name string) (os.FileInfo, error) {
	return os.Stat(name)
}

// osCommandRunner implements commandRunner using exec.CommandContext.
type osCommandRunner struct{}

func (osCommandRunner) CombinedOutput(ctx context.Context, name string, args []string) ([]byte, error) {
	// #nosec G204 -- name and args are controlled by this package, not user input
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}
