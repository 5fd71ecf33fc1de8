package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// discoveredFile is one candidate operation definition on disk
type discoveredFile struct {
	FilePath string
	Content  []byte
}

// discoverPaths walks the configured directories and returns every YAML file
func discoverPaths(paths []string) ([]discoveredFile, error) {
	var files []discoveredFile

	for _, root := range paths {
		info, err := os.Stat(root)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog path %s: %w", root, err)
		}

		if !info.IsDir() {
			content, readErr := os.ReadFile(root) //nolint:gosec // Operator-provided catalog path
			if readErr != nil {
				return nil, fmt.Errorf("failed to read %s: %w", root, readErr)
			}
			files = append(files, discoveredFile{FilePath: root, Content: content})
			continue
		}

		walkErr := filepath.Walk(root, func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fi.IsDir() {
				return nil
			}

			ext := strings.ToLower(filepath.Ext(path))
			if ext != ".yaml" && ext != ".yml" {
				return nil
			}

			content, readErr := os.ReadFile(path) //nolint:gosec // Operator-provided catalog path
			if readErr != nil {
				return fmt.Errorf("failed to read %s: %w", path, readErr)
			}

			files = append(files, discoveredFile{FilePath: path, Content: content})

			return nil
		})
		if walkErr != nil {
			return nil, walkErr
		}
	}

	return files, nil
}
