package resource

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/jssolutionshub/welltrack/internal/platform/blobstore"
)

var ErrNotFound = errors.New("resource not found")

type Service struct {
	resources Repository
	blobs     blobstore.BlobStore
}

func NewService(resources Repository, blobs blobstore.BlobStore) *Service {
	return &Service{resources: resources, blobs: blobs}
}

// Upload describes an incoming file attachment.
type Upload struct {
	FileName    string
	ContentType string
	Content     io.Reader
}

func validateResource(r *Resource) error {
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if !ValidCategories[r.Category] {
		return fmt.Errorf("invalid category %q", r.Category)
	}
	if r.Type == "" {
		r.Type = "article"
	}
	if !ValidTypes[r.Type] {
		return fmt.Errorf("invalid type %q", r.Type)
	}
	return nil
}

// Create persists a resource, storing its file attachment first when one is
// supplied. A failed insert cleans up the just-stored blob.
func (s *Service) Create(ctx context.Context, r *Resource, file *Upload) error {
	if err := validateResource(r); err != nil {
		return err
	}

	if file != nil {
		if err := s.attach(ctx, r, file); err != nil {
			return err
		}
	}

	if err := s.resources.Create(ctx, r); err != nil {
		if r.BlobID != nil {
			_ = s.blobs.Delete(ctx, *r.BlobID)
		}
		return err
	}
	return nil
}

// Update edits resource fields and optionally replaces the attachment. The
// previous blob is deleted only after the new one is stored and the row
// updated.
func (s *Service) Update(ctx context.Context, r *Resource, file *Upload) error {
	if err := validateResource(r); err != nil {
		return err
	}

	existing, err := s.resources.GetByID(ctx, r.ID)
	if err != nil {
		return err
	}
	r.BlobID = existing.BlobID
	r.FileName = existing.FileName
	r.FileURL = existing.FileURL
	r.CreatedBy = existing.CreatedBy
	r.CreatedAt = existing.CreatedAt

	var oldBlob *string
	if file != nil {
		oldBlob = existing.BlobID
		if err := s.attach(ctx, r, file); err != nil {
			return err
		}
	}

	if err := s.resources.Update(ctx, r); err != nil {
		if file != nil && r.BlobID != nil {
			_ = s.blobs.Delete(ctx, *r.BlobID)
		}
		return err
	}

	if oldBlob != nil {
		_ = s.blobs.Delete(ctx, *oldBlob)
	}
	return nil
}

func (s *Service) attach(ctx context.Context, r *Resource, file *Upload) error {
	meta, err := s.blobs.Upload(ctx, blobstore.BlobMetadata{
		FileName:    file.FileName,
		ContentType: file.ContentType,
		CreatedBy:   r.CreatedBy.String(),
	}, file.Content)
	if err != nil {
		return err
	}
	url := "/api/v1/resources/files/" + meta.ID
	r.BlobID = &meta.ID
	r.FileName = &meta.FileName
	r.FileURL = &url
	return nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Resource, error) {
	return s.resources.GetByID(ctx, id)
}

// Delete removes the resource row and its blob, if any. A missing blob is not
// an error; the row is authoritative.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	r, err := s.resources.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.resources.Delete(ctx, id); err != nil {
		return err
	}
	if r.BlobID != nil {
		_ = s.blobs.Delete(ctx, *r.BlobID)
	}
	return nil
}

func (s *Service) List(ctx context.Context, category string, limit, offset int) ([]*Resource, int, error) {
	if category != "" && !ValidCategories[category] {
		return nil, 0, fmt.Errorf("invalid category %q", category)
	}
	return s.resources.List(ctx, category, limit, offset)
}

// OpenFile streams a stored attachment by blob id.
func (s *Service) OpenFile(ctx context.Context, blobID string) (io.ReadCloser, *blobstore.BlobMetadata, error) {
	return s.blobs.Download(ctx, blobID)
}
