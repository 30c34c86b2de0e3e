package discovery

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"filegrip/internal/catalog"
	"filegrip/internal/eventbus"
)

// DefaultMaxDepth limits how deep a scan descends below each root
const DefaultMaxDepth = 8

// Annotation names attached to every scanned file
const (
	AnnotationTop  = "top"       // first directory below the scan root, "." for files in the root
	AnnotationDir  = "dir"       // directory relative to the scan root
	AnnotationExt  = "ext"       // lower-case extension without the dot
	AnnotationSize = "sizeclass" // coarse size class
)

var skipDirs = map[string]bool{
	"node_modules": true, "vendor": true, "dist": true, "build": true,
	"target": true, "__pycache__": true, "venv": true,
}

// Scanner walks directory trees and turns regular files into catalog files
type Scanner struct {
	bus      eventbus.EventBus
	maxDepth int

	mu       sync.Mutex
	scanning bool
}

// NewScanner creates a scanner. A non-positive depth uses DefaultMaxDepth.
func NewScanner(bus eventbus.EventBus, maxDepth int) *Scanner {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	return &Scanner{bus: bus, maxDepth: maxDepth}
}

// Scan walks every root and returns the files found. Unreadable entries are
// logged and skipped; only a cancelled context aborts the scan.
func (s *Scanner) Scan(ctx context.Context, roots []string) ([]catalog.File, error) {
	s.mu.Lock()
	if s.scanning {
		s.mu.Unlock()
		return nil, fmt.Errorf("scan already in progress")
	}
	s.scanning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.scanning = false
		s.mu.Unlock()
	}()

	if s.bus != nil {
		s.bus.Publish(eventbus.ScanStartedEvent{Roots: roots})
	}

	var files []catalog.File
	for _, root := range roots {
		found, err := s.scanDirectory(ctx, root)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}

	if s.bus != nil {
		s.bus.Publish(eventbus.ScanCompletedEvent{Files: len(files)})
	}
	return files, nil
}

func (s *Scanner) scanDirectory(ctx context.Context, root string) ([]catalog.File, error) {
	var files []catalog.File

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			log.Printf("Error walking path %s: %v", path, err)
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return nil
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || skipDirs[name] {
				return fs.SkipDir
			}
			if strings.Count(rel, string(filepath.Separator)) >= s.maxDepth {
				return fs.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() || strings.HasPrefix(d.Name(), ".") {
			return nil
		}
		info, infoErr := d.Info()
		if infoErr != nil {
			log.Printf("Error reading %s: %v", path, infoErr)
			return nil
		}

		files = append(files, catalog.File{
			Name:        d.Name(),
			Path:        path,
			Size:        info.Size(),
			Annotations: Annotate(rel, info.Size()),
		})
		return nil
	})

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		log.Printf("Error scanning directory %s: %v", root, err)
		if s.bus != nil {
			s.bus.Publish(eventbus.ErrorEvent{
				Message: fmt.Sprintf("Failed to scan %s", root),
				Err:     err,
			})
		}
	}
	return files, nil
}

// Annotate derives the hierarchy annotations of a file from its path
// relative to the scan root
func Annotate(rel string, size int64) map[string]string {
	rel = filepath.ToSlash(rel)
	dir := filepath.ToSlash(filepath.Dir(rel))

	top := "."
	if first, _, ok := strings.Cut(rel, "/"); ok {
		top = first
	}

	annotations := map[string]string{
		AnnotationTop:  top,
		AnnotationDir:  dir,
		AnnotationSize: SizeClass(size),
	}
	if ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(rel)), "."); ext != "" {
		annotations[AnnotationExt] = ext
	}
	return annotations
}

// SizeClass buckets a byte size into a short label
func SizeClass(size int64) string {
	switch {
	case size == 0:
		return "empty"
	case size < 16<<10:
		return "small"
	case size < 1<<20:
		return "medium"
	case size < 100<<20:
		return "large"
	default:
		return "huge"
	}
}
