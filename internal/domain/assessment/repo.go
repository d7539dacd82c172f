package assessment

import (
	"context"

	"github.com/google/uuid"
)

type TemplateRepository interface {
	Create(ctx context.Context, t *Template) error
	GetByID(ctx context.Context, id uuid.UUID) (*Template, error)
	Update(ctx context.Context, t *Template) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Template, int, error)
}

type ResponseRepository interface {
	Create(ctx context.Context, r *Response) error
	GetByID(ctx context.Context, id uuid.UUID) (*Response, error)
	ListByOfficer(ctx context.Context, officerID uuid.UUID, limit, offset int) ([]*Response, int, error)
	List(ctx context.Context, limit, offset int) ([]*Response, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Analytics(ctx context.Context) (*Analytics, error)
}
