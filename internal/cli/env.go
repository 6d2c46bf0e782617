package cli

import (
	"context"
	"io"
	"os"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/whispera-app/whispera/internal/logging"
	"github.com/whispera-app/whispera/internal/pipeline"
	"github.com/whispera-app/whispera/internal/transcribe"
)

// Env holds injectable dependencies for CLI commands.
// This is the central injection point for testing CLI commands in isolation.
//
// All fields have sensible defaults via DefaultEnv(). Tests can override
// specific fields using the With* options or by creating a custom Env.
type Env struct {
	// I/O and environment
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string

	// NewLogger builds the application logger for a command invocation.
	NewLogger func(verbose bool) (*zap.Logger, error)

	// Factories for domain objects
	TranscriberFactory TranscriberFactory
	PipelineFactory    PipelineFactory
}

// Processor runs one transcription end to end.
// *pipeline.Pipeline implements this.
type Processor interface {
	Process(ctx context.Context, path string) (string, error)
}

// TranscriberFactory creates transcribers for audio-to-text conversion.
type TranscriberFactory interface {
	NewTranscriber(apiKey, model string) transcribe.Transcriber
}

// PipelineFactory creates transcription pipelines.
type PipelineFactory interface {
	NewPipeline(t transcribe.Transcriber, opts ...pipeline.Option) Processor
}

// EnvOption configures an Env.
type EnvOption func(*Env)

// WithStdout sets the stdout writer.
func WithStdout(w io.Writer) EnvOption {
	return func(e *Env) { e.Stdout = w }
}

// WithStderr sets the stderr writer.
func WithStderr(w io.Writer) EnvOption {
	return func(e *Env) { e.Stderr = w }
}

// WithGetenv sets the environment variable getter.
func WithGetenv(fn func(string) string) EnvOption {
	return func(e *Env) { e.Getenv = fn }
}

// WithNewLogger sets the logger factory.
func WithNewLogger(fn func(verbose bool) (*zap.Logger, error)) EnvOption {
	return func(e *Env) { e.NewLogger = fn }
}

// WithTranscriberFactory sets the transcriber factory.
func WithTranscriberFactory(f TranscriberFactory) EnvOption {
	return func(e *Env) { e.TranscriberFactory = f }
}

// WithPipelineFactory sets the pipeline factory.
func WithPipelineFactory(f PipelineFactory) EnvOption {
	return func(e *Env) { e.PipelineFactory = f }
}

// DefaultEnv returns an Env with production defaults.
func DefaultEnv() *Env {
	return &Env{
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Getenv: os.Getenv,
		NewLogger: func(verbose bool) (*zap.Logger, error) {
			return logging.New(logging.Options{Verbose: verbose})
		},
		TranscriberFactory: &defaultTranscriberFactory{},
		PipelineFactory:    &defaultPipelineFactory{},
	}
}

// NewEnv creates an Env with the given options applied to defaults.
func NewEnv(opts ...EnvOption) *Env {
	env := DefaultEnv()
	for _, opt := range opts {
		opt(env)
	}
	return env
}

// ---------------------------------------------------------------------------
// Default implementations - delegate to real packages
// ---------------------------------------------------------------------------

// defaultTranscriberFactory implements TranscriberFactory using OpenAI.
type defaultTranscriberFactory struct{}

func (defaultTranscriberFactory) NewTranscriber(apiKey, model string) transcribe.Transcriber {
	client := openai.NewClient(apiKey)
	return transcribe.NewOpenAITranscriber(client, transcribe.WithModel(model))
}

// defaultPipelineFactory implements PipelineFactory using the pipeline package.
type defaultPipelineFactory struct{}

func (defaultPipelineFactory) NewPipeline(t transcribe.Transcriber, opts ...pipeline.Option) Processor {
	return pipeline.New(t, opts...)
}

// Compile-time interface verification.
var (
	_ TranscriberFactory = (*defaultTranscriberFactory)(nil)
	_ PipelineFactory    = (*defaultPipelineFactory)(nil)
	_ Processor          = (*pipeline.Pipeline)(nil)
)
