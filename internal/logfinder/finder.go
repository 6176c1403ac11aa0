// Package logfinder locates the Valheim dedicated server log.
package logfinder

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// EnvLogFile is the environment variable name for specifying the log file.
const EnvLogFile = "VHNOTIFY_LOGFILE"

// Sentinel errors.
var (
	ErrLogFileNotFound = errors.New("log file not found")
	ErrNoLogFiles      = errors.New("no log files found")
)

// DefaultLogFiles returns candidate server logs in priority order: a log
// next to the working directory, then the LinuxGSM console log.
func DefaultLogFiles() []string {
	candidates := []string{"valheim_server.log"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, "log", "console", "vhserver-console.log"))
	}
	return candidates
}

// FindLogFile returns the server log to follow.
//
// Priority:
//  1. explicit (if non-empty)
//  2. VHNOTIFY_LOGFILE environment variable
//  3. Auto-detect from DefaultLogFiles()
//
// A directory resolves to its most recently modified *.log file.
// Returns ErrLogFileNotFound if nothing usable is found.
func FindLogFile(explicit string) (string, error) {
	// 1. Check explicit
	if explicit != "" {
		if resolved := resolveLogFile(explicit); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: %s", ErrLogFileNotFound, explicit)
	}

	// 2. Check environment variable
	if env := os.Getenv(EnvLogFile); env != "" {
		if resolved := resolveLogFile(env); resolved != "" {
			return resolved, nil
		}
		return "", fmt.Errorf("%w: %s environment variable points to %s", ErrLogFileNotFound, EnvLogFile, env)
	}

	// 3. Auto-detect
	for _, path := range DefaultLogFiles() {
		if resolved := resolveLogFile(path); resolved != "" {
			return resolved, nil
		}
	}

	return "", ErrLogFileNotFound
}

// logCandidate holds a log file path and its cached modification time.
// This avoids race conditions where files are deleted between stat and sort.
type logCandidate struct {
	path    string
	modTime int64
}

// FindLatestLogFile returns the most recently modified *.log file in dir.
//
// Returns ErrNoLogFiles if no log files are found.
func FindLatestLogFile(dir string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*.log"))
	if err != nil {
		return "", fmt.Errorf("globbing log files: %w", err)
	}

	// Stat files once and cache results to avoid race conditions
	candidates := make([]logCandidate, 0, len(matches))
	for _, m := range matches {
		info, err := os.Lstat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		candidates = append(candidates, logCandidate{
			path:    m,
			modTime: info.ModTime().UnixNano(),
		})
	}

	if len(candidates) == 0 {
		return "", ErrNoLogFiles
	}

	// Sort by cached modification time (newest first)
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].modTime > candidates[j].modTime
	})

	return candidates[0].path, nil
}

// resolveLogFile resolves symlinks and returns a readable regular file for
// path, or "" if there is none.
func resolveLogFile(path string) string {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return ""
	}
	info, err := os.Stat(resolved)
	if err != nil {
		return ""
	}
	if info.IsDir() {
		latest, err := FindLatestLogFile(resolved)
		if err != nil {
			return ""
		}
		return latest
	}
	if !info.Mode().IsRegular() {
		return ""
	}
	return resolved
}
