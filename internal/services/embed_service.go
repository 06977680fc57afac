package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"

	"github.com/franciscosanchezn/testigo-api/internal/apperrors"
	"github.com/franciscosanchezn/testigo-api/internal/models"
	"gorm.io/gorm"
)

const (
	oEmbedVersion  = "1.0"
	providerName   = "TestiGo"
	defaultWidth   = 600
	defaultHeight  = 400
	maxEmbedWidth  = 1200
	maxEmbedHeight = 1200
)

var embedTemplates = template.Must(template.New("card").Parse(`<blockquote class="testigo-embed" data-testimonial-id="{{.ID}}" style="font-family:system-ui,sans-serif;max-width:{{.Width}}px;border:1px solid #e5e7eb;border-radius:12px;padding:16px;margin:0;background:#fff">
{{- if .Media}}
{{- if eq .Media.Type "image"}}
<img src="{{.Media.URL}}" alt="{{.Media.Description}}" style="max-width:100%;border-radius:8px">
{{- else}}
<video src="{{.Media.URL}}" controls style="max-width:100%;border-radius:8px" title="{{.Media.Description}}"></video>
{{- end}}
{{- end}}
{{- if .Title}}
<h3 style="margin:12px 0 8px">{{.Title}}</h3>
{{- end}}
<p style="margin:8px 0">{{.Content}}</p>
<footer style="color:#6b7280">{{.Author}}{{if .Position}}, {{.Position}}{{end}} &middot; {{.Company}}</footer>
</blockquote>`))

var previewTemplate = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html lang="es">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<link rel="alternate" type="application/json+oembed" href="{{.OEmbedURL}}" title="{{.Title}}">
</head>
<body style="margin:0;padding:16px;background:#f9fafb">
{{.Card}}
</body>
</html>`))

// scriptTemplate inserts the card right before the script tag that loaded it
const scriptTemplate = `(function () {
  var html = %s;
  var current = document.currentScript;
  var container = document.createElement("div");
  container.className = "testigo-embed-container";
  container.innerHTML = html;
  if (current && current.parentNode) {
    current.parentNode.insertBefore(container, current);
  } else {
    document.body.appendChild(container);
  }
})();
`

// EmbedBundle collects every way of embedding one testimonial
type EmbedBundle struct {
	TestimonialID string              `json:"testimonialId"`
	HTML          string              `json:"html"`
	Script        string              `json:"script"`
	Iframe        string              `json:"iframe"`
	PreviewURL    string              `json:"previewUrl"`
	OEmbedURL     string              `json:"oembedUrl"`
	Testimonial   *models.Testimonial `json:"testimonial"`
}

// OEmbed is an oEmbed 1.0 "rich" response
type OEmbed struct {
	Type         string `json:"type"`
	Version      string `json:"version"`
	HTML         string `json:"html"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ProviderName string `json:"provider_name"`
	ProviderURL  string `json:"provider_url"`
}

// EmbedService renders approved testimonials for third party pages.
// Every call except OEmbed counts one embed.
type EmbedService interface {
	Bundle(ctx context.Context, id string) (*EmbedBundle, error)
	Code(ctx context.Context, id string) (string, error)
	Preview(ctx context.Context, id string) (string, error)
	Script(ctx context.Context, id string) (string, error)
	OEmbed(ctx context.Context, id string, maxWidth, maxHeight int) (*OEmbed, error)
}

type embedService struct {
	db      *gorm.DB
	baseURL string // server root, e.g. http://localhost:8080
}

func NewEmbedService(db *gorm.DB, publicBaseURL string) EmbedService {
	return &embedService{db: db, baseURL: strings.TrimRight(publicBaseURL, "/")}
}

type cardData struct {
	ID       string
	Title    string
	Content  string
	Author   string
	Position string
	Company  string
	Media    *models.Multimedia
	Width    int
}

func (s *embedService) apiURL(format string, args ...interface{}) string {
	return s.baseURL + "/api/v1" + fmt.Sprintf(format, args...)
}

func (s *embedService) load(ctx context.Context, id string, count bool) (*models.Testimonial, error) {
	var testimonial models.Testimonial
	err := withDetails(s.db.WithContext(ctx)).Scopes(approved).Where("testimonials.id = ?", id).First(&testimonial).Error
	if err != nil {
		return nil, dbError(err, fmt.Sprintf("testimonial %s not found", id))
	}
	if count {
		if err := countEngagement(s.db.WithContext(ctx), id, "embeds"); err != nil {
			return nil, err
		}
	}
	return &testimonial, nil
}

func renderCard(t *models.Testimonial, width int) (string, error) {
	var buf bytes.Buffer
	err := embedTemplates.Execute(&buf, cardData{
		ID:       t.ID,
		Title:    t.Title,
		Content:  t.Content,
		Author:   t.Author,
		Position: t.Position,
		Company:  t.Company,
		Media:    t.Multimedia,
		Width:    width,
	})
	if err != nil {
		return "", apperrors.Internal("render embed", err)
	}
	return buf.String(), nil
}

func (s *embedService) scriptTag(id string) string {
	return fmt.Sprintf(`<script src="%s" async></script>`, s.apiURL("/public/embed/%s.js", id))
}

func (s *embedService) iframe(id string, width, height int) string {
	return fmt.Sprintf(`<iframe src="%s" width="%d" height="%d" frameborder="0" style="border:0" title="testimonial"></iframe>`,
		s.apiURL("/public/embeds/%s/preview", id), width, height)
}

func (s *embedService) Bundle(ctx context.Context, id string) (*EmbedBundle, error) {
	testimonial, err := s.load(ctx, id, true)
	if err != nil {
		return nil, err
	}
	card, err := renderCard(testimonial, defaultWidth)
	if err != nil {
		return nil, err
	}
	return &EmbedBundle{
		TestimonialID: id,
		HTML:          card,
		Script:        s.scriptTag(id),
		Iframe:        s.iframe(id, defaultWidth, defaultHeight),
		PreviewURL:    s.apiURL("/public/embeds/%s/preview", id),
		OEmbedURL:     s.apiURL("/public/embeds/%s/oembed", id),
		Testimonial:   testimonial,
	}, nil
}

func (s *embedService) Code(ctx context.Context, id string) (string, error) {
	testimonial, err := s.load(ctx, id, true)
	if err != nil {
		return "", err
	}
	return renderCard(testimonial, defaultWidth)
}

func (s *embedService) Preview(ctx context.Context, id string) (string, error) {
	testimonial, err := s.load(ctx, id, true)
	if err != nil {
		return "", err
	}
	card, err := renderCard(testimonial, defaultWidth)
	if err != nil {
		return "", err
	}

	title := testimonial.Title
	if title == "" {
		title = fmt.Sprintf("%s - %s", testimonial.Author, testimonial.Company)
	}
	var buf bytes.Buffer
	err = previewTemplate.Execute(&buf, map[string]interface{}{
		"Title":     title,
		"OEmbedURL": s.apiURL("/public/embeds/%s/oembed", id),
		"Card":      template.HTML(card),
	})
	if err != nil {
		return "", apperrors.Internal("render preview", err)
	}
	return buf.String(), nil
}

func (s *embedService) Script(ctx context.Context, id string) (string, error) {
	testimonial, err := s.load(ctx, id, true)
	if err != nil {
		return "", err
	}
	card, err := renderCard(testimonial, defaultWidth)
	if err != nil {
		return "", err
	}

	// json.Marshal escapes <, > and & so the literal cannot close the script
	literal, err := json.Marshal(card)
	if err != nil {
		return "", apperrors.Internal("encode embed", err)
	}
	return fmt.Sprintf(scriptTemplate, literal), nil
}

func (s *embedService) OEmbed(ctx context.Context, id string, maxWidth, maxHeight int) (*OEmbed, error) {
	testimonial, err := s.load(ctx, id, false)
	if err != nil {
		return nil, err
	}

	width, height := defaultWidth, defaultHeight
	if maxWidth > 0 && maxWidth < width {
		width = maxWidth
	}
	if maxHeight > 0 && maxHeight < height {
		height = maxHeight
	}
	if width > maxEmbedWidth {
		width = maxEmbedWidth
	}
	if height > maxEmbedHeight {
		height = maxEmbedHeight
	}

	title := testimonial.Title
	if title == "" {
		title = fmt.Sprintf("Testimonial by %s", testimonial.Author)
	}
	return &OEmbed{
		Type:         "rich",
		Version:      oEmbedVersion,
		HTML:         s.iframe(id, width, height),
		Width:        width,
		Height:       height,
		Title:        title,
		AuthorName:   testimonial.Author,
		ProviderName: providerName,
		ProviderURL:  s.baseURL,
	}, nil
}
