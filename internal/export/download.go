package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// FileDownloader saves exports into a directory. An existing file is never
// overwritten; a numbered suffix is added instead, the way browsers do.
type FileDownloader struct {
	fs  afero.Fs
	dir string
}

// NewFileDownloader saves into dir on fs.
func NewFileDownloader(fs afero.Fs, dir string) *FileDownloader {
	if dir == "" {
		dir = "."
	}
	return &FileDownloader{fs: fs, dir: dir}
}

// Download writes data under name and returns the path written.
func (d *FileDownloader) Download(name string, data []byte) (string, error) {
	if err := d.fs.MkdirAll(d.dir, 0o755); err != nil {
		return "", err
	}
	path, err := d.freePath(name)
	if err != nil {
		return "", err
	}
	if err := afero.WriteFile(d.fs, path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (d *FileDownloader) freePath(name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := filepath.Join(d.dir, name)
	for i := 1; ; i++ {
		exists, err := afero.Exists(d.fs, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = filepath.Join(d.dir, fmt.Sprintf("%s (%d)%s", stem, i, ext))
	}
}

// Notifier surfaces the outcome of an export to the user.
type Notifier interface {
	Success(message string)
	Failure(message string)
}

// WriterNotifier prints notifications as lines.
type WriterNotifier struct {
	W io.Writer
}

func (n WriterNotifier) Success(message string) {
	fmt.Fprintln(n.W, message)
}

func (n WriterNotifier) Failure(message string) {
	fmt.Fprintln(n.W, "error:", message)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Failure(string) {}
