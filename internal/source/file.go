package source

import (
	"io"
	"os"
)

// File reads the snapshot from the local filesystem.
type File struct {
	Path string
}

func NewFile(path string) *File {
	return &File{Path: path}
}

func (f *File) Open() (io.ReadCloser, error) {
	// os.Open already wraps fs.ErrNotExist for missing paths.
	return os.Open(f.Path)
}

func (f *File) String() string {
	return f.Path
}
