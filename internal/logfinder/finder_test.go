package logfinder

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFindLatestLogFile(t *testing.T) {
	// Create temp directory
	dir := t.TempDir()

	// Create test log files with different modification times
	files := []string{
		"valheim_2024-01-01.log",
		"valheim_2024-01-02.log",
		"valheim_2024-01-03.log",
	}

	for i, name := range files {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("test"), 0644); err != nil {
			t.Fatal(err)
		}
		// Set modification time (oldest first)
		modTime := time.Now().Add(time.Duration(i) * time.Hour)
		if err := os.Chtimes(path, modTime, modTime); err != nil {
			t.Fatal(err)
		}
	}
	// Non-log files are ignored
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := FindLatestLogFile(dir)
	if err != nil {
		t.Fatalf("FindLatestLogFile() error = %v", err)
	}

	want := files[len(files)-1]
	if filepath.Base(got) != want {
		t.Errorf("FindLatestLogFile() = %v, want %v", filepath.Base(got), want)
	}
}

func TestFindLatestLogFile_NoFiles(t *testing.T) {
	dir := t.TempDir()

	_, err := FindLatestLogFile(dir)
	if !errors.Is(err, ErrNoLogFiles) {
		t.Errorf("FindLatestLogFile() error = %v, want %v", err, ErrNoLogFiles)
	}
}

func TestFindLogFile_Explicit(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "server.log")
	if err := os.WriteFile(logFile, []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}
	want, _ := filepath.EvalSymlinks(logFile)

	got, err := FindLogFile(logFile)
	if err != nil {
		t.Fatalf("FindLogFile() error = %v", err)
	}
	if got != want {
		t.Errorf("FindLogFile() = %v, want %v", got, want)
	}
}

func TestFindLogFile_ExplicitDirectory(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "console.log")
	if err := os.WriteFile(logFile, []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}

	got, err := FindLogFile(dir)
	if err != nil {
		t.Fatalf("FindLogFile() error = %v", err)
	}
	if filepath.Base(got) != "console.log" {
		t.Errorf("FindLogFile() = %v, want console.log", got)
	}
}

func TestFindLogFile_ExplicitMissing(t *testing.T) {
	_, err := FindLogFile(filepath.Join(t.TempDir(), "missing.log"))
	if !errors.Is(err, ErrLogFileNotFound) {
		t.Errorf("FindLogFile() error = %v, want %v", err, ErrLogFileNotFound)
	}
}

func TestFindLogFile_EnvVar(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "env.log")
	if err := os.WriteFile(logFile, []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}
	want, _ := filepath.EvalSymlinks(logFile)
	t.Setenv(EnvLogFile, logFile)

	got, err := FindLogFile("")
	if err != nil {
		t.Fatalf("FindLogFile() error = %v", err)
	}
	if got != want {
		t.Errorf("FindLogFile() = %v, want %v", got, want)
	}
}

func TestFindLogFile_EnvVarInvalid(t *testing.T) {
	t.Setenv(EnvLogFile, filepath.Join(t.TempDir(), "nope.log"))

	_, err := FindLogFile("")
	if !errors.Is(err, ErrLogFileNotFound) {
		t.Errorf("FindLogFile() error = %v, want %v", err, ErrLogFileNotFound)
	}
}

func TestFindLogFile_ExplicitOverridesEnv(t *testing.T) {
	dir := t.TempDir()
	explicit := filepath.Join(dir, "explicit.log")
	if err := os.WriteFile(explicit, []byte("test"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvLogFile, filepath.Join(dir, "nope.log"))

	got, err := FindLogFile(explicit)
	if err != nil {
		t.Fatalf("FindLogFile() error = %v", err)
	}
	if filepath.Base(got) != "explicit.log" {
		t.Errorf("FindLogFile() = %v, want explicit.log", got)
	}
}

func TestDefaultLogFiles(t *testing.T) {
	files := DefaultLogFiles()
	if len(files) == 0 || files[0] != "valheim_server.log" {
		t.Errorf("DefaultLogFiles() = %v", files)
	}
}
