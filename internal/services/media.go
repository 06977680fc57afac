package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/url"
	"strings"

	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/franciscosanchezn/testigo-api/internal/models"
	"github.com/franciscosanchezn/testigo-api/internal/storage"
)

// uploadDir is the storage prefix of testimonial media
const uploadDir = "testimonials"

// MediaInput is the optional attachment of a testimonial. An empty Type
// or "none" means a text only testimonial.
type MediaInput struct {
	Type        models.MediaType
	File        *multipart.FileHeader
	URL         string
	Description string
}

func (m MediaInput) kind() models.MediaType {
	if m.Type == "" {
		return models.MediaNone
	}
	return models.MediaType(strings.ToLower(string(m.Type)))
}

// validate adds field errors for the attachment. For image and video
// exactly one of file or URL must be given, and the error is keyed by the
// media kind so the client can point at the right input.
func (m MediaInput) validate(fields map[string]string) {
	kind := m.kind()
	switch kind {
	case models.MediaNone:
		if m.File != nil || strings.TrimSpace(m.URL) != "" {
			fields["contentType"] = "must be image or video when media is attached"
		}
		return
	case models.MediaImage, models.MediaVideo:
	default:
		fields["contentType"] = "must be one of none, image, video"
		return
	}

	hasFile := m.File != nil
	hasURL := strings.TrimSpace(m.URL) != ""
	switch {
	case !hasFile && !hasURL:
		fields[string(kind)] = fmt.Sprintf("an uploaded file or a URL is required for %s testimonials", kind)
	case hasFile && hasURL:
		fields[string(kind)] = "provide either an uploaded file or a URL, not both"
	case hasURL && !validMediaURL(m.URL):
		fields["mediaUrl"] = "must be an absolute http or https URL"
	}
	if strings.TrimSpace(m.Description) == "" {
		fields["mediaDescription"] = fmt.Sprintf("a description is required for %s testimonials", kind)
	}
}

func validMediaURL(raw string) bool {
	u, err := url.ParseRequestURI(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// store writes the uploaded file, if any, and returns the multimedia row to
// insert. The row has no testimonial id yet.
func (m MediaInput) store(ctx context.Context, st storage.Storage, maxBytes int64) (*models.Multimedia, error) {
	kind := m.kind()
	if kind == models.MediaNone {
		return nil, nil
	}

	media := &models.Multimedia{
		Type:        kind,
		Description: strings.TrimSpace(m.Description),
	}
	if m.File == nil {
		media.URL = strings.TrimSpace(m.URL)
		return media, nil
	}

	stored, err := storage.SaveUpload(ctx, st, m.File, string(kind), uploadDir, maxBytes)
	if err != nil {
		var mediaErr *storage.MediaError
		if errors.As(err, &mediaErr) {
			return nil, apperrors.InvalidField(string(kind), mediaErr.Message)
		}
		return nil, apperrors.Internal("store upload", err)
	}
	media.URL = stored.URL
	media.StoragePath = stored.Path
	media.FileName = stored.FileName
	return media, nil
}
