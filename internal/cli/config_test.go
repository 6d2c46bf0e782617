package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/whispera-app/whispera/internal/config"
)

func runConfigCommand(t *testing.T, env *Env, args ...string) error {
	t.Helper()
	cmd := ConfigCmd(env)
	cmd.SetArgs(args)
	cmd.SetOut(env.Stdout.(*bytes.Buffer))
	cmd.SetErr(env.Stderr.(*bytes.Buffer))
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	return cmd.Execute()
}

func newConfigEnv() (*Env, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	env := NewEnv(
		WithStdout(stdout),
		WithStderr(stderr),
		WithGetenv(func(string) string { return "" }),
	)
	return env, stdout, stderr
}

func TestConfigSetAndGet(t *testing.T) {
	t.Setenv(config.EnvSettingsDir, t.TempDir())
	env, stdout, stderr := newConfigEnv()

	if err := runConfigCommand(t, env, "set", "api-key", "sk-test1234567890"); err != nil {
		t.Fatalf("config set: %v", err)
	}
	if !strings.Contains(stderr.String(), "Set api-key = sk-test...") {
		t.Errorf("set confirmation = %q, want masked value", stderr.String())
	}

	if err := runConfigCommand(t, env, "get", "api-key"); err != nil {
		t.Fatalf("config get: %v", err)
	}
	if got := stdout.String(); got != "sk-test...\n" {
		t.Errorf("config get output = %q, want masked key", got)
	}

	// The stored value is the real one.
	stored, err := config.Get(config.KeyAPIKey)
	if err != nil {
		t.Fatal(err)
	}
	if stored != "sk-test1234567890" {
		t.Errorf("stored value = %q, want the full key", stored)
	}
}

func TestConfigGetFallsBackToEnvironment(t *testing.T) {
	t.Setenv(config.EnvSettingsDir, t.TempDir())
	stdout := &bytes.Buffer{}
	env := NewEnv(
		WithStdout(stdout),
		WithStderr(&bytes.Buffer{}),
		WithGetenv(func(key string) string {
			if key == config.KeyAPIKey {
				return "sk-envkey123"
			}
			return ""
		}),
	)

	if err := runConfigCommand(t, env, "get", "api-key"); err != nil {
		t.Fatalf("config get: %v", err)
	}
	if got := stdout.String(); got != "sk-envk...\n" {
		t.Errorf("config get output = %q, want masked env value", got)
	}
}

func TestConfigUnknownKey(t *testing.T) {
	t.Setenv(config.EnvSettingsDir, t.TempDir())
	env, _, _ := newConfigEnv()

	if err := runConfigCommand(t, env, "set", "nope", "value"); err == nil {
		t.Error("config set accepted an unknown key")
	}
	if err := runConfigCommand(t, env, "get", "nope"); err == nil {
		t.Error("config get accepted an unknown key")
	}
}

func TestConfigListEmpty(t *testing.T) {
	t.Setenv(config.EnvSettingsDir, t.TempDir())
	env, stdout, _ := newConfigEnv()

	if err := runConfigCommand(t, env, "list"); err != nil {
		t.Fatalf("config list: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "No settings set.") {
		t.Errorf("list output = %q, want empty notice", out)
	}
	if !strings.Contains(out, "api-key") {
		t.Errorf("list output = %q, want available keys", out)
	}
}

func TestConfigListMasksSecrets(t *testing.T) {
	t.Setenv(config.EnvSettingsDir, t.TempDir())
	if err := config.Save(config.KeyAPIKey, "sk-verysecret123"); err != nil {
		t.Fatal(err)
	}
	env, stdout, _ := newConfigEnv()

	if err := runConfigCommand(t, env, "list"); err != nil {
		t.Fatalf("config list: %v", err)
	}
	out := stdout.String()
	if strings.Contains(out, "sk-verysecret123") {
		t.Errorf("list leaked the full secret: %q", out)
	}
	if !strings.Contains(out, "OPENAI_API_KEY=sk-very...") {
		t.Errorf("list output = %q, want masked entry", out)
	}
}

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "sk-abcdef123456", want: "sk-abcd..."},
		{in: "sk-ab", want: "sk-..."},
		{in: "plainvalue", want: "plainvalue"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		if got := maskSecret(tt.in); got != tt.want {
			t.Errorf("maskSecret(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
