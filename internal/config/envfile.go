package config

import (
	"os"
	"path/filepath"
	"strings"
)

// loadEnvFiles populates the environment from .env.local and .env, checked
// beside the working directory and the binary. It only runs when
// DATABASE_URL is absent, so a fully-configured deployment never touches
// the filesystem. Variables already set always win.
func loadEnvFiles() {
	seen := make(map[string]bool)
	for _, dir := range envFileDirs() {
		if dir == "" || seen[dir] {
			continue
		}
		seen[dir] = true
		for _, name := range []string{".env.local", ".env"} {
			if data, err := os.ReadFile(filepath.Join(dir, name)); err == nil {
				applyEnvFile(data)
			}
		}
	}
}

func envFileDirs() []string {
	var dirs []string
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	return dirs
}

// applyEnvFile sets KEY=VALUE lines into the environment. Blank lines,
// comments, and lines without "=" are skipped; values may carry one layer
// of single or double quotes. Keys that are already set are left alone.
func applyEnvFile(data []byte) {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)
		if key == "" || os.Getenv(key) != "" {
			continue
		}
		_ = os.Setenv(key, value)
	}
}
