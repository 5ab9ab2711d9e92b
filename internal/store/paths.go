package store

import (
	"os"
	"path/filepath"
)

// DatabaseFile is the fixed file name of the notification database.
const DatabaseFile = "notifications.db"

// DataDir returns the per-user data directory for hyprbar.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "hyprbar")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "hyprbar")
	}
	return filepath.Join(home, ".local", "share", "hyprbar")
}

// DBPath returns the default notification database path.
func DBPath() string {
	return filepath.Join(DataDir(), DatabaseFile)
}
