package config

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
)

// envFiles are tried in order. Variables already set in the process win.
var envFiles = []string{".env", ".env.local"}

func loadEnvFiles() {
	for _, name := range envFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("Failed to load env file", "file", name, "error", err)
			continue
		}
		slog.Debug("Loaded environment variables", "file", name)
	}
}
