package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// secretsDir is where container orchestrators mount secrets.
var secretsDir = "/run/secrets"

// lookupSecret reads key from the environment, falls back to the file named
// by key_FILE, and as a third check reads secretsDir/key.
// Empty values count as unset.
func lookupSecret(logger *slog.Logger, key string) (string, bool) {
	if value := os.Getenv(key); value != "" {
		return value, true
	}

	if filePath := os.Getenv(key + "_FILE"); filePath != "" {
		if value, ok := readSecretFile(logger, filePath); ok {
			return value, true
		}
	}

	if path := filepath.Join(secretsDir, key); fileExists(path) {
		if value, ok := readSecretFile(logger, path); ok {
			return value, true
		}
	}

	return "", false
}

func readSecretFile(logger *slog.Logger, path string) (string, bool) {
	content, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("failed to read secret file", slog.String("path", path), slog.Any("error", err))
		return "", false
	}

	value := strings.TrimSpace(string(content))

	return value, value != ""
}

// fileExists checks if a file exists and is not a directory.
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}

	return !info.IsDir()
}
