package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/whispera-app/whispera/internal/apierr"
	"github.com/whispera-app/whispera/internal/config"
	"github.com/whispera-app/whispera/internal/pipeline"
	"github.com/whispera-app/whispera/internal/transcribe"
)

// stubTranscriber satisfies transcribe.Transcriber; the fake processor
// below never calls it.
type stubTranscriber struct{}

func (stubTranscriber) Transcribe(context.Context, string) (string, error) {
	return "", nil
}

// fakeTranscriberFactory records the credentials it was handed.
type fakeTranscriberFactory struct {
	apiKey string
	model  string
}

func (f *fakeTranscriberFactory) NewTranscriber(apiKey, model string) transcribe.Transcriber {
	f.apiKey = apiKey
	f.model = model
	return stubTranscriber{}
}

// fakeProcessor returns a canned transcription result.
type fakeProcessor struct {
	text  string
	err   error
	paths []string
}

func (f *fakeProcessor) Process(_ context.Context, path string) (string, error) {
	f.paths = append(f.paths, path)
	return f.text, f.err
}

// fakePipelineFactory hands out a fixed processor.
type fakePipelineFactory struct {
	proc *fakeProcessor
	opts []pipeline.Option
}

func (f *fakePipelineFactory) NewPipeline(_ transcribe.Transcriber, opts ...pipeline.Option) Processor {
	f.opts = opts
	return f.proc
}

// testEnv builds an Env wired to buffers and fakes.
func testEnv(proc *fakeProcessor, envVars map[string]string) (*Env, *fakeTranscriberFactory, *bytes.Buffer, *bytes.Buffer) {
	tf := &fakeTranscriberFactory{}
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	env := NewEnv(
		WithStdout(stdout),
		WithStderr(stderr),
		WithGetenv(func(key string) string { return envVars[key] }),
		WithNewLogger(func(bool) (*zap.Logger, error) { return zap.NewNop(), nil }),
		WithTranscriberFactory(tf),
		WithPipelineFactory(&fakePipelineFactory{proc: proc}),
	)
	return env, tf, stdout, stderr
}

func runCommand(t *testing.T, env *Env, args ...string) error {
	t.Helper()
	cmd := TranscribeCmd(env)
	cmd.SetArgs(args)
	cmd.SetOut(env.Stdout.(*bytes.Buffer))
	cmd.SetErr(env.Stderr.(*bytes.Buffer))
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd.Execute()
}

func TestTranscribeWritesToStdout(t *testing.T) {
	t.Setenv(config.EnvSettingsDir, t.TempDir())
	proc := &fakeProcessor{text: "the transcript"}
	env, tf, stdout, _ := testEnv(proc, nil)

	err := runCommand(t, env, "/media/talk.mp3", "--api-key", "sk-flag", "--no-progress")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if got := stdout.String(); got != "the transcript\n" {
		t.Errorf("stdout = %q, want the transcript", got)
	}
	if tf.apiKey != "sk-flag" {
		t.Errorf("api key = %q, want sk-flag", tf.apiKey)
	}
	if tf.model != transcribe.ModelWhisper1 {
		t.Errorf("model = %q, want the default %q", tf.model, transcribe.ModelWhisper1)
	}
	if len(proc.paths) != 1 || proc.paths[0] != "/media/talk.mp3" {
		t.Errorf("processed %v, want the input path once", proc.paths)
	}
}

func TestTranscribeModelFlag(t *testing.T) {
	t.Setenv(config.EnvSettingsDir, t.TempDir())
	proc := &fakeProcessor{text: "ok"}
	env, tf, _, _ := testEnv(proc, nil)

	err := runCommand(t, env, "/media/talk.mp3",
		"--api-key", "sk-flag", "--model", "gpt-4o-transcribe", "--no-progress")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if tf.model != "gpt-4o-transcribe" {
		t.Errorf("model = %q, want gpt-4o-transcribe", tf.model)
	}
}

func TestTranscribeAPIKeyPrecedence(t *testing.T) {
	t.Setenv(config.EnvSettingsDir, t.TempDir())
	if err := config.Save(config.KeyAPIKey, "sk-settings"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		flag    []string
		envVars map[string]string
		want    string
	}{
		{
			name: "flag wins over environment and settings",
			flag: []string{"--api-key", "sk-flag"},
			envVars: map[string]string{
				config.KeyAPIKey: "sk-env",
			},
			want: "sk-flag",
		},
		{
			name: "environment wins over settings",
			envVars: map[string]string{
				config.KeyAPIKey: "sk-env",
			},
			want: "sk-env",
		},
		{
			name: "settings file as last resort",
			want: "sk-settings",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			proc := &fakeProcessor{text: "ok"}
			env, tf, _, _ := testEnv(proc, tt.envVars)

			args := append([]string{"/media/talk.mp3", "--no-progress"}, tt.flag...)
			if err := runCommand(t, env, args...); err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if tf.apiKey != tt.want {
				t.Errorf("api key = %q, want %q", tf.apiKey, tt.want)
			}
		})
	}
}

func TestTranscribeAPIKeyMissing(t *testing.T) {
	t.Setenv(config.EnvSettingsDir, t.TempDir())
	proc := &fakeProcessor{text: "never reached"}
	env, _, _, _ := testEnv(proc, nil)

	err := runCommand(t, env, "/media/talk.mp3", "--no-progress")
	if !errors.Is(err, ErrAPIKeyMissing) {
		t.Fatalf("Execute error = %v, want ErrAPIKeyMissing", err)
	}
	if !strings.Contains(err.Error(), "whispera config set api-key") {
		t.Errorf("error lacks remediation hint: %v", err)
	}
	if len(proc.paths) != 0 {
		t.Errorf("pipeline ran without an API key")
	}
}

func TestTranscribeWritesOutputFile(t *testing.T) {
	t.Setenv(config.EnvSettingsDir, t.TempDir())
	proc := &fakeProcessor{text: "saved transcript"}
	env, _, stdout, stderr := testEnv(proc, nil)

	out := filepath.Join(t.TempDir(), "result.txt")
	err := runCommand(t, env, "/media/talk.mp3",
		"--api-key", "sk-flag", "-o", out, "--no-progress")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	data, err := os.ReadFile(out) // #nosec G304 -- test-owned path
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "saved transcript" {
		t.Errorf("output file = %q", data)
	}
	if strings.Contains(stdout.String(), "saved transcript") {
		t.Errorf("transcript echoed to stdout despite -o")
	}
	if !strings.Contains(stderr.String(), "Done: "+out) {
		t.Errorf("stderr = %q, want completion notice", stderr.String())
	}
}

func TestTranscribeRefusesExistingOutput(t *testing.T) {
	t.Setenv(config.EnvSettingsDir, t.TempDir())
	proc := &fakeProcessor{text: "new text"}
	env, _, _, _ := testEnv(proc, nil)

	out := filepath.Join(t.TempDir(), "result.txt")
	if err := os.WriteFile(out, []byte("precious"), 0o600); err != nil {
		t.Fatal(err)
	}

	err := runCommand(t, env, "/media/talk.mp3",
		"--api-key", "sk-flag", "-o", out, "--no-progress")
	if !errors.Is(err, ErrOutputExists) {
		t.Fatalf("Execute error = %v, want ErrOutputExists", err)
	}

	data, _ := os.ReadFile(out) // #nosec G304 -- test-owned path
	if string(data) != "precious" {
		t.Errorf("existing output was overwritten: %q", data)
	}
}

func TestTranscribeProcessErrorPropagates(t *testing.T) {
	t.Setenv(config.EnvSettingsDir, t.TempDir())
	proc := &fakeProcessor{err: apierr.ErrAuthFailed}
	env, _, stdout, _ := testEnv(proc, nil)

	err := runCommand(t, env, "/media/talk.mp3", "--api-key", "sk-bad", "--no-progress")
	if !errors.Is(err, apierr.ErrAuthFailed) {
		t.Fatalf("Execute error = %v, want ErrAuthFailed", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want nothing on failure", stdout.String())
	}
}

func TestTranscribeRequiresExactlyOneArg(t *testing.T) {
	t.Setenv(config.EnvSettingsDir, t.TempDir())
	env, _, _, _ := testEnv(&fakeProcessor{}, nil)

	if err := runCommand(t, env); err == nil {
		t.Error("Execute succeeded with no arguments")
	}
	if err := runCommand(t, env, "a.mp3", "b.mp3"); err == nil {
		t.Error("Execute succeeded with two arguments")
	}
}
