package config

import (
	"fmt"
	"os"
	"strings"
)

// getEnv retrieves a DODDNS_-prefixed environment variable value.
func getEnv(key string) string {
	return os.Getenv(EnvPrefix + key)
}

// readSecretFile reads a secret from path (Docker secrets pattern).
// The contents are trimmed of leading/trailing whitespace.
func readSecretFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading secret file: %w", err)
	}
	return strings.TrimSpace(string(content)), nil
}

// getEnvOrFile retrieves a value from either KEY or the file named by KEY_FILE.
// If both are set, the file takes precedence. found reports whether either
// variable was set.
func getEnvOrFile(key string) (value string, found bool, err error) {
	if filePath := getEnv(key + "_FILE"); filePath != "" {
		v, err := readSecretFile(filePath)
		if err != nil {
			return "", true, fmt.Errorf("%s%s_FILE: %w", EnvPrefix, key, err)
		}
		return v, true, nil
	}

	v, ok := os.LookupEnv(EnvPrefix + key)
	return v, ok && v != "", nil
}

// parseBool parses a boolean string, returning defaultValue on parse failure.
// Accepts: true/false, 1/0, yes/no, on/off (case-insensitive).
func parseBool(s string, defaultValue bool) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "true", "1", "yes", "on":
		return true
	case "false", "0", "no", "off":
		return false
	default:
		return defaultValue
	}
}

// splitList splits a comma- or whitespace-separated list, dropping empty items.
func splitList(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
}
