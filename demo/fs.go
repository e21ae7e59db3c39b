package demo

import (
	"io"

	"github.com/spf13/afero"
)

// File is the output stream a Store writes to. It must support seeking back to
// patch the metadata region.
type File interface {
	io.Writer
	io.Seeker
	io.Closer
}

// FileSystem is the directory and file capability a Store needs.
type FileSystem interface {
	Exists(path string) (bool, error)
	CreateDirectory(path string) error
	CreateFile(path string) (File, error)
}

// AferoFS adapts an afero.Fs to FileSystem.
type AferoFS struct {
	Fs afero.Fs
}

// NewFileSystem wraps fs. A nil fs means the operating system filesystem.
func NewFileSystem(fs afero.Fs) *AferoFS {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &AferoFS{Fs: fs}
}

func (a *AferoFS) Exists(path string) (bool, error) {
	return afero.Exists(a.Fs, path)
}

func (a *AferoFS) CreateDirectory(path string) error {
	ok, err := afero.DirExists(a.Fs, path)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	return a.Fs.MkdirAll(path, 0o755)
}

func (a *AferoFS) CreateFile(path string) (File, error) {
	return a.Fs.Create(path)
}
