package config

import (
	"os"
	"strings"
)

// loadEnvFiles reads KEY=VALUE pairs from the given files for local
// development. Missing files are skipped and variables already present
// in the environment are never overridden.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			line = strings.TrimPrefix(line, "export ")
			key, val, ok := strings.Cut(line, "=")
			if !ok {
				continue
			}
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			if _, exists := os.LookupEnv(key); exists {
				continue
			}
			val = strings.Trim(strings.TrimSpace(val), `"`)
			os.Setenv(key, val)
		}
	}
}
