//go:build e2e && unix

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileOption is a function that configures file creation
type FileOption func(*fileOptions)

type fileOptions struct {
	size    int
	content string
}

// WithSize fills the file with n bytes
func WithSize(n int) FileOption {
	return func(opts *fileOptions) {
		opts.size = n
	}
}

// WithContent writes content into the file
func WithContent(content string) FileOption {
	return func(opts *fileOptions) {
		opts.content = content
	}
}

// CreateTestWorkspace creates a temporary directory the browser scans
func (tf *TUITestFramework) CreateTestWorkspace() (string, error) {
	tmpDir := tf.t.TempDir()
	tf.workspace = tmpDir
	return tmpDir, nil
}

// CreateTestFile creates a file below the workspace, creating parent directories
func (tf *TUITestFramework) CreateTestFile(rel string, options ...FileOption) (string, error) {
	if tf.workspace == "" {
		return "", fmt.Errorf("workspace not created")
	}
	opts := &fileOptions{}
	for _, opt := range options {
		opt(opts)
	}

	path := filepath.Join(tf.workspace, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	content := opts.content
	if opts.size > len(content) {
		content += strings.Repeat("x", opts.size-len(content))
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// CreateTestTree creates a small source tree:
// src/{a,b,c}.go, docs/{guide,readme}.md and notes.txt at the top
func (tf *TUITestFramework) CreateTestTree() (string, error) {
	workspace, err := tf.CreateTestWorkspace()
	if err != nil {
		return "", err
	}
	files := map[string]int{
		"src/a.go":       10,
		"src/b.go":       2000,
		"src/c.go":       30,
		"docs/guide.md":  40,
		"docs/readme.md": 50,
		"notes.txt":      5,
	}
	for rel, size := range files {
		if _, err := tf.CreateTestFile(rel, WithSize(size)); err != nil {
			return "", err
		}
	}
	return workspace, nil
}

// WriteConfig writes .filegrip.toml into the workspace
func (tf *TUITestFramework) WriteConfig(content string) error {
	if tf.workspace == "" {
		return fmt.Errorf("workspace not created")
	}
	return os.WriteFile(filepath.Join(tf.workspace, ".filegrip.toml"), []byte(content), 0644)
}
