// Package adapter contains filesystem, configuration and report adapters
// for the archdna CLI.
package adapter

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	m "github.com/mouse-blink/archdna/internal/model"
)

// skipDirs are directory names never worth descending into: build output,
// VCS metadata and package caches.
var skipDirs = map[string]struct{}{
	"bin":          {},
	"obj":          {},
	".git":         {},
	"node_modules": {},
	"packages":     {},
}

// SourceFSAdapter abstracts source discovery and reading so the workflow can
// be tested without touching the disk.
type SourceFSAdapter interface {
	// Discover walks root and returns every C# source file that survives
	// the skip list, the project's .gitignore and the exclude patterns.
	Discover(root m.Path, excludes []string) ([]m.Path, error)

	// ReadFile loads a source file as text with any UTF-8 BOM removed.
	ReadFile(path m.Path) (string, error)
}

// LocalSourceFSAdapter is the disk-backed implementation.
type LocalSourceFSAdapter struct{}

// NewLocalSourceFSAdapter constructs a LocalSourceFSAdapter ready to be
// wired into the workflow.
func NewLocalSourceFSAdapter() *LocalSourceFSAdapter {
	return &LocalSourceFSAdapter{}
}

// Discover walks the project tree rooted at root. Symlinks are not followed.
// A .gitignore at the root is honored when present; exclude patterns are
// regular expressions matched against the path relative to root.
func (a *LocalSourceFSAdapter) Discover(root m.Path, excludes []string) ([]m.Path, error) {
	info, err := os.Stat(string(root))
	if err != nil {
		return nil, fmt.Errorf("project path error: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project path %s is not a directory", root)
	}

	excludeRes := make([]*regexp.Regexp, 0, len(excludes))
	for _, pattern := range excludes {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		excludeRes = append(excludeRes, re)
	}

	// Best effort: a missing or unreadable .gitignore means nothing is
	// ignored.
	ignorer, _ := gitignore.CompileIgnoreFile(filepath.Join(string(root), ".gitignore"))

	var files []m.Path
	err = filepath.Walk(string(root), func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := filepath.Rel(string(root), path)
		if relErr != nil {
			return relErr
		}

		if info.IsDir() {
			if _, skip := skipDirs[filepath.Base(path)]; skip && rel != "." {
				return filepath.SkipDir
			}
			if ignorer != nil && rel != "." && ignorer.MatchesPath(rel) {
				return filepath.SkipDir
			}
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".cs") {
			return nil
		}
		if ignorer != nil && ignorer.MatchesPath(rel) {
			return nil
		}
		for _, re := range excludeRes {
			if re.MatchString(rel) {
				return nil
			}
		}

		files = append(files, m.Path(path))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk project tree: %w", err)
	}

	return files, nil
}

// ReadFile loads file contents from disk, stripping a leading UTF-8 BOM.
func (a *LocalSourceFSAdapter) ReadFile(path m.Path) (string, error) {
	data, err := os.ReadFile(string(path))
	if err != nil {
		return "", err
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}
