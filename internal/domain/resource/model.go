package resource

import (
	"time"

	"github.com/google/uuid"
)

// Resource categories mirror the wellness areas officers browse by.
var ValidCategories = map[string]bool{
	"mental-health": true,
	"fitness":       true,
	"nutrition":     true,
	"family":        true,
	"financial":     true,
	"general":       true,
}

// Resource types describe the attached material.
var ValidTypes = map[string]bool{
	"article": true,
	"video":   true,
	"audio":   true,
	"guide":   true,
}

// Resource is a wellness material with an optional file attachment held in
// the blob store.
type Resource struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Title       string    `json:"title" db:"title"`
	Description *string   `json:"description" db:"description"`
	Category    string    `json:"category" db:"category"`
	Type        string    `json:"type" db:"type"`
	FileName    *string   `json:"file_name" db:"file_name"`
	FileURL     *string   `json:"file_url" db:"file_url"`
	BlobID      *string   `json:"blob_id" db:"blob_id"`
	Tags        []string  `json:"tags" db:"tags"`
	CreatedBy   uuid.UUID `json:"created_by" db:"created_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
