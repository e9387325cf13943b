package dataset

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DiscoverCSV returns path itself when it is a file, or every .csv file beneath
// it in lexical order when it is a directory.
func DiscoverCSV(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("discover dataset: %w", err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries := make([]string, 0)
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(d.Name()), ".csv") {
			entries = append(entries, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover dataset: %w", err)
	}
	sort.Strings(entries)
	return entries, nil
}
