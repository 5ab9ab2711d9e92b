package hyprland

import (
	"errors"
	"os"
	"path/filepath"
)

const (
	eventSocket   = ".socket2.sock"
	requestSocket = ".socket.sock"
)

// ErrNoInstance is returned when HYPRLAND_INSTANCE_SIGNATURE is not set.
var ErrNoInstance = errors.New("HYPRLAND_INSTANCE_SIGNATURE is not set")

// SocketDir returns the directory holding the compositor sockets.
// Hyprland 0.40+ uses $XDG_RUNTIME_DIR/hypr, older versions /tmp/hypr.
func SocketDir() (string, error) {
	sig := os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")
	if sig == "" {
		return "", ErrNoInstance
	}

	if runtime := os.Getenv("XDG_RUNTIME_DIR"); runtime != "" {
		dir := filepath.Join(runtime, "hypr", sig)
		if _, err := os.Stat(dir); err == nil {
			return dir, nil
		}
	}
	return filepath.Join(os.TempDir(), "hypr", sig), nil
}

// EventSocketPath returns the path of the event stream socket.
func EventSocketPath() (string, error) {
	dir, err := SocketDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, eventSocket), nil
}

// RequestSocketPath returns the path of the request socket.
func RequestSocketPath() (string, error) {
	dir, err := SocketDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, requestSocket), nil
}
