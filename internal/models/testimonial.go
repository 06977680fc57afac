package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Status is the moderation state of a testimonial
type Status string

const (
	StatusPending  Status = "pending"
	StatusInReview Status = "in_review"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInReview, StatusApproved, StatusRejected:
		return true
	}
	return false
}

var transitions = map[Status][]Status{
	StatusPending:  {StatusInReview, StatusApproved, StatusRejected},
	StatusInReview: {StatusApproved, StatusRejected},
}

// CanTransitionTo reports whether a moderator may move a testimonial from s to next.
// Approved and rejected are terminal.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// MediaType is the kind of attachment a testimonial carries
type MediaType string

const (
	MediaNone  MediaType = "none"
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// Testimonial is a user-submitted story moderated before public display
type Testimonial struct {
	ID         string      `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title      string      `gorm:"size:200" json:"title"`
	Author     string      `gorm:"size:120;not null" json:"author"`
	Company    string      `gorm:"size:120;not null" json:"company"`
	Position   string      `gorm:"size:120" json:"position"`
	Content    string      `gorm:"type:text;not null" json:"content"`
	CategoryID string      `gorm:"type:varchar(36);index;not null" json:"categoryId"`
	Category   *Category   `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Tags       []Tag       `gorm:"many2many:testimonial_tags;" json:"tags"`
	Status     Status      `gorm:"type:varchar(20);index;not null;default:'pending'" json:"status"`
	OwnerID    string      `gorm:"type:varchar(36);index;not null" json:"ownerId"`
	Multimedia *Multimedia `gorm:"foreignKey:TestimonialID" json:"multimedia,omitempty"`
	Engagement *Engagement `gorm:"foreignKey:TestimonialID" json:"engagement,omitempty"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

func (t *Testimonial) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	return nil
}

// Multimedia is the single optional attachment of a testimonial.
// URL is either an external link or the public URL of an uploaded file;
// StoragePath is set only for uploads.
type Multimedia struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	TestimonialID string    `gorm:"type:varchar(36);uniqueIndex;not null" json:"testimonialId"`
	Type          MediaType `gorm:"type:varchar(10);not null" json:"type"`
	URL           string    `gorm:"size:1024;not null" json:"url"`
	StoragePath   string    `gorm:"size:512" json:"-"`
	FileName      string    `gorm:"size:255" json:"fileName,omitempty"`
	Description   string    `gorm:"size:500" json:"description"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (Multimedia) TableName() string {
	return "multimedia"
}

func (m *Multimedia) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// Engagement holds the public counters of a testimonial
type Engagement struct {
	TestimonialID string    `gorm:"type:varchar(36);primaryKey" json:"-"`
	Views         int64     `gorm:"not null;default:0" json:"views"`
	Embeds        int64     `gorm:"not null;default:0" json:"embeds"`
	UpdatedAt     time.Time `json:"lastUpdated"`
}

func (Engagement) TableName() string {
	return "engagements"
}
