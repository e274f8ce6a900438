package models

import (
	"path/filepath"
	"strings"
)

// FileRecord is one filesystem entry discovered by the crawler.
// It is consumed once by the indexer and not retained afterwards.
type FileRecord struct {
	AbsolutePath string // Absolute path of the entry, OS separators
	IsDirectory  bool   // True when the entry is a directory
	Extension    string // Extension including the leading dot; empty for directories
}

// NewFileRecord builds a FileRecord for path. Directories never carry an extension.
func NewFileRecord(path string, isDir bool) FileRecord {
	rec := FileRecord{
		AbsolutePath: path,
		IsDirectory:  isDir,
	}
	if !isDir {
		_, rec.Extension = SplitName(filepath.Base(path))
	}
	return rec
}

// Name returns the entry's base name with original casing.
func (r FileRecord) Name() string {
	return filepath.Base(r.AbsolutePath)
}

// SplitName splits a base name into stem and extension.
// A leading dot does not start an extension, so ".bashrc" has stem ".bashrc"
// and no extension, while "archive.tar.gz" splits into "archive.tar" and ".gz".
func SplitName(name string) (stem, ext string) {
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 || name == ".." {
		return name, ""
	}
	return name[:idx], name[idx:]
}
