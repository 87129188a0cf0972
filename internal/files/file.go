package files

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

// MaxFileBytes caps a single in-memory file.
const MaxFileBytes = 10 << 20

// ErrTooLarge is returned when a file exceeds MaxFileBytes.
var ErrTooLarge = errors.New("file exceeds size limit")

// File is an in-memory document handed between workflow steps.
type File struct {
	Name     string
	MimeType string
	Data     []byte
}

// Reader returns a fresh reader over the file contents.
func (f File) Reader() io.Reader {
	return bytes.NewReader(f.Data)
}

// FromMultipart reads an uploaded form file.
func FromMultipart(fh *multipart.FileHeader) (File, error) {
	if fh.Size > MaxFileBytes {
		return File{}, ErrTooLarge
	}
	src, err := fh.Open()
	if err != nil {
		return File{}, fmt.Errorf("open form file: %w", err)
	}
	defer src.Close()
	return read(fh.Filename, src)
}

// FromPath reads a file from the local filesystem.
func FromPath(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer f.Close()
	return read(filepath.Base(path), f)
}

func read(name string, r io.Reader) (File, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxFileBytes+1))
	if err != nil {
		return File{}, fmt.Errorf("read file %s: %w", name, err)
	}
	if len(data) > MaxFileBytes {
		return File{}, ErrTooLarge
	}
	return File{Name: name, MimeType: http.DetectContentType(data), Data: data}, nil
}
