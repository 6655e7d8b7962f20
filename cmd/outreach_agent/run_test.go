package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunCommand_MissingResume(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "run", "--role", "backend engineer")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "--resume is required")
}

func TestRunCommand_MissingRoles(t *testing.T) {
	binaryPath := getBinaryPath(t)

	tmpDir := t.TempDir()
	resumeFile := filepath.Join(tmpDir, "resume.txt")
	_ = os.WriteFile(resumeFile, []byte("Backend engineer, eight years of Go."), 0644)

	cmd := exec.Command(binaryPath, "run", "--resume", resumeFile)
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "at least one --role is required")
}

func TestRunCommand_MissingDatabaseURL(t *testing.T) {
	binaryPath := getBinaryPath(t)

	tmpDir := t.TempDir()
	resumeFile := filepath.Join(tmpDir, "resume.txt")
	_ = os.WriteFile(resumeFile, []byte("Backend engineer, eight years of Go."), 0644)

	cmd := exec.Command(binaryPath, "run",
		"--resume", resumeFile,
		"--role", "backend engineer")

	// Filter out DATABASE_URL so the command cannot pick it up
	var env []string
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, "DATABASE_URL=") {
			env = append(env, e)
		}
	}
	cmd.Env = env

	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "DATABASE_URL environment variable or --db-url flag is required")
}

func TestStatusCommand_InvalidID(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "status", "not-a-uuid", "--db-url", "postgres://localhost/ignored")
	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "invalid workflow id")
}

func TestServeCommand_MissingDatabaseURL(t *testing.T) {
	binaryPath := getBinaryPath(t)

	cmd := exec.Command(binaryPath, "serve")

	var env []string
	for _, e := range os.Environ() {
		if !strings.HasPrefix(e, "DATABASE_URL=") {
			env = append(env, e)
		}
	}
	cmd.Env = env

	output, err := cmd.CombinedOutput()

	assert.Error(t, err)
	assert.Contains(t, string(output), "DATABASE_URL environment variable is required")
}
