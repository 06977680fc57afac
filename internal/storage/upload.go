package storage

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// StoredFile describes an upload written to storage
type StoredFile struct {
	Path        string
	URL         string
	FileName    string
	ContentType string
}

// MediaError reports an upload whose content does not match the declared kind
type MediaError struct {
	Message string
}

func (e *MediaError) Error() string {
	return e.Message
}

// SaveUpload sniffs the content of an uploaded file, checks it is of kind
// ("image" or "video") and within maxBytes, and stores it under dir with a
// generated name
func SaveUpload(ctx context.Context, st Storage, header *multipart.FileHeader, kind, dir string, maxBytes int64) (*StoredFile, error) {
	if maxBytes > 0 && header.Size > maxBytes {
		return nil, &MediaError{Message: fmt.Sprintf("file exceeds the maximum size of %d MB", maxBytes>>20)}
	}

	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	mime, err := mimetype.DetectReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to detect content type: %w", err)
	}
	if !strings.HasPrefix(mime.String(), kind+"/") {
		return nil, &MediaError{Message: fmt.Sprintf("file must be a %s, got %s", kind, mime.String())}
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind upload: %w", err)
	}

	key := path.Join(dir, uuid.NewString()+mime.Extension())
	if err := st.Save(ctx, key, file, mime.String()); err != nil {
		return nil, err
	}

	return &StoredFile{
		Path:        key,
		URL:         st.URL(key),
		FileName:    header.Filename,
		ContentType: mime.String(),
	}, nil
}
