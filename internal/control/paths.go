package control

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/npratt/walletshell/internal/config"
)

// Info tells CLI commands where a running shell can be reached, regardless
// of which directory they run from.
type Info struct {
	SocketPath string    `json:"socket_path"`
	PIDPath    string    `json:"pid_path"`
	LogPath    string    `json:"log_path"`
	StartTime  time.Time `json:"start_time"`
	PID        int       `json:"pid"`
	Version    string    `json:"version,omitempty"`
}

const (
	stateDir = ".walletshell"
	infoFile = "instance.json"
)

// projectMarkers are directories that mark a shell's working root.
var projectMarkers = []string{stateDir, ".git"}

// ResolvePaths makes relative paths absolute against basePath, or the
// working directory when basePath is empty.
func ResolvePaths(paths config.PathsConfig, basePath string) (config.PathsConfig, error) {
	if basePath == "" {
		var err error
		basePath, err = os.Getwd()
		if err != nil {
			return paths, fmt.Errorf("get working directory: %w", err)
		}
	}

	resolve := func(p string) string {
		if filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(basePath, p)
	}

	return config.PathsConfig{
		Log:    resolve(paths.Log),
		Socket: resolve(paths.Socket),
		PID:    resolve(paths.PID),
	}, nil
}

// FindRoot walks up from startDir looking for a .walletshell or .git
// directory and returns the directory holding it, or startDir.
func FindRoot(startDir string) string {
	if startDir == "" {
		var err error
		startDir, err = os.Getwd()
		if err != nil {
			return "."
		}
	}

	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return startDir
	}

	dir := absDir
	for {
		for _, marker := range projectMarkers {
			if info, err := os.Stat(filepath.Join(dir, marker)); err == nil && info.IsDir() {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return absDir
		}
		dir = parent
	}
}

// InfoPath returns the location of instance.json under root.
func InfoPath(root string) string {
	return filepath.Join(root, stateDir, infoFile)
}

// FindInfo looks for instance.json under the root containing startDir.
func FindInfo(startDir string) (*Info, error) {
	path := InfoPath(FindRoot(startDir))
	info, err := ReadInfo(path)
	if err != nil {
		return nil, fmt.Errorf("instance info not found (checked %s)", path)
	}
	return info, nil
}

// WriteInfo writes connection info to path.
func WriteInfo(path string, info *Info) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal instance info: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write instance info: %w", err)
	}
	return nil
}

// ReadInfo reads connection info from path.
func ReadInfo(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read instance info: %w", err)
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("unmarshal instance info: %w", err)
	}
	return &info, nil
}

// RemoveInfo removes instance.json.
func RemoveInfo(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove instance info: %w", err)
	}
	return nil
}
