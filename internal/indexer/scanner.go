package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SourceExt is the extension of corpus source documents.
const SourceExt = ".txt"

// ScannedFile represents a source document found during scanning.
type ScannedFile struct {
	RelPath string // Relative path from the data root, forward slashes (e.g., "branch-a/customers.txt")
	AbsPath string // Absolute file path
}

// Scan returns the source documents under root in lexical order. A root that
// names a single file yields that file. Hidden directories are skipped.
func Scan(ctx context.Context, root string) ([]ScannedFile, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access data path %s: %w", root, err)
	}
	if !info.IsDir() {
		abs, err := filepath.Abs(root)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", root, err)
		}
		return []ScannedFile{{RelPath: filepath.Base(root), AbsPath: abs}}, nil
	}

	var scannedFiles []ScannedFile
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if info.IsDir() {
			if path != root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.EqualFold(filepath.Ext(path), SourceExt) {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}

		absPath, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", path, err)
		}

		scannedFiles = append(scannedFiles, ScannedFile{
			RelPath: filepath.ToSlash(relPath),
			AbsPath: absPath,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	return scannedFiles, nil
}
