package file

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/behole/scribble/internal/logger"
)

// LoadEnv loads .env from the working directory and then from configDir.
// Variables already set in the process environment are never overwritten,
// so the working directory wins over configDir. Missing files are ignored.
func LoadEnv(configDir string) []string {
	candidates := []string{".env"}
	if configDir != "" {
		candidates = append(candidates, filepath.Join(configDir, ".env"))
	}

	var loaded []string
	for _, path := range candidates {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			logger.Warn("ignoring %s: %v", path, err)
			continue
		}
		logger.Debug("loaded environment from %s", path)
		loaded = append(loaded, path)
	}
	return loaded
}
