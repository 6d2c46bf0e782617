// Package config manages the flat KEY=VALUE settings file stored next to
// the application binary. The file doubles as a .env file: godotenv loads
// it into the process environment at startup, and explicit saves from the
// config command write it back.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Settings keys.
const (
	// KeyAPIKey is the OpenAI API credential.
	KeyAPIKey = "OPENAI_API_KEY"
)

// FileName is the settings file name, kept as .env so godotenv picks it up.
const FileName = ".env"

// EnvSettingsDir overrides the settings directory (used by tests).
const EnvSettingsDir = "WHISPERA_SETTINGS_DIR"

// dir returns the directory holding the settings file.
// Precedence: WHISPERA_SETTINGS_DIR, the running executable's directory,
// the current working directory.
func dir() (string, error) {
	if d := os.Getenv(EnvSettingsDir); d != "" {
		return d, nil
	}

	exe, err := os.Executable()
	if err == nil {
		return filepath.Dir(exe), nil
	}

	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("cannot determine settings directory: %w", err)
	}
	return wd, nil
}

// Path returns the full path to the settings file.
func Path() (string, error) {
	d, err := dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(d, FileName), nil
}

// Load reads the settings file into a map.
// Returns an empty map if the file doesn't exist (not an error).
func Load() (map[string]string, error) {
	p, err := Path()
	if err != nil {
		return nil, err
	}

	data, err := parseFile(p)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	return data, nil
}

// parseFile reads a key=value settings file.
// Format: one key=value per line, # comments, empty lines ignored.
func parseFile(p string) (map[string]string, error) {
	f, err := os.Open(p) // #nosec G304 -- settings path is constructed internally
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data := make(map[string]string)
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments.
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		// Parse key=value, splitting on the first = only.
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue // Tolerate malformed lines; the file is user-editable.
		}
		data[strings.TrimSpace(parts[0])] = strings.TrimSpace(parts[1])
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read settings: %w", err)
	}

	return data, nil
}

// Save writes a single key=value to the settings file, preserving other
// key=value pairs but discarding comments. Only called on explicit user save.
func Save(key, value string) error {
	p, err := Path()
	if err != nil {
		return err
	}

	existing, err := parseFile(p)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	if existing == nil {
		existing = make(map[string]string)
	}
	existing[key] = value

	return writeFile(p, existing)
}

// writeFile writes the settings map to a file.
func writeFile(p string, data map[string]string) error {
	// #nosec G302 G304 -- settings file with standard permissions
	f, err := os.OpenFile(p, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("cannot write settings file: %w", err)
	}
	defer func() { _ = f.Close() }()

	for key, value := range data {
		if _, err := fmt.Fprintf(f, "%s=%s\n", key, value); err != nil {
			return fmt.Errorf("failed to write settings: %w", err)
		}
	}

	return nil
}

// Get reads a single value from the settings file.
// Returns empty string if the key doesn't exist.
func Get(key string) (string, error) {
	data, err := Load()
	if err != nil {
		return "", err
	}
	return data[key], nil
}
