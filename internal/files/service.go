package files

import (
	"context"
	"errors"
	"fmt"

	"resume-feedback/internal/shared/storage/object"
	"resume-feedback/internal/shared/telemetry"
)

// ErrNoFiles is returned when Upload is called without files.
var ErrNoFiles = errors.New("no files to upload")

// Uploaded describes a stored file. Path is the key used to read it back.
type Uploaded struct {
	Path     string `json:"path"`
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
}

// Service uploads files into an object store.
type Service struct {
	store object.ObjectStore
}

// NewService constructs a Service over store.
func NewService(store object.ObjectStore) *Service {
	return &Service{store: store}
}

// Upload stores the first of files and returns where it landed.
func (s *Service) Upload(ctx context.Context, files ...File) (*Uploaded, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}
	f := files[0]

	obj, err := s.store.Save(ctx, f.Name, f.Reader())
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", f.Name, err)
	}

	telemetry.Info("files.uploaded", map[string]any{
		"path":       obj.Key,
		"size_bytes": obj.SizeBytes,
		"mime_type":  obj.MimeType,
	})
	return &Uploaded{
		Path:     obj.Key,
		Name:     f.Name,
		Size:     obj.SizeBytes,
		MimeType: obj.MimeType,
	}, nil
}
