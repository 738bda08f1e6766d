package document

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ReadPath parses a single document file, or every document file under a directory
// (in lexical path order) merged into one document.
func ReadPath(path string) (*Document, []string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, err
	}
	if !info.IsDir() {
		doc, err := ParseFile(path)
		if err != nil {
			return nil, nil, err
		}
		return doc, []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if _, ok := Extensions[strings.ToLower(filepath.Ext(d.Name()))]; ok {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walking %s: %w", path, err)
	}
	sort.Strings(files)

	docs := make([]*Document, 0, len(files))
	for _, f := range files {
		doc, err := ParseFile(f)
		if err != nil {
			return nil, nil, err
		}
		docs = append(docs, doc)
	}
	return Merge(docs...), files, nil
}
