package assessment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrTemplateNotFound = errors.New("assessment template not found")
	ErrResponseNotFound = errors.New("assessment response not found")
	ErrTemplateInactive = errors.New("assessment template is not active")
)

type Service struct {
	templates TemplateRepository
	responses ResponseRepository
}

func NewService(templates TemplateRepository, responses ResponseRepository) *Service {
	return &Service{templates: templates, responses: responses}
}

// -- Templates --

func (s *Service) CreateTemplate(ctx context.Context, t *Template) error {
	if err := validateTemplate(t); err != nil {
		return err
	}
	t.Active = true
	return s.templates.Create(ctx, t)
}

// UpdateTemplate replaces a template's content. When active is nil the
// current activation flag is kept.
func (s *Service) UpdateTemplate(ctx context.Context, t *Template, active *bool) error {
	if err := validateTemplate(t); err != nil {
		return err
	}
	if active != nil {
		t.Active = *active
	} else {
		existing, err := s.templates.GetByID(ctx, t.ID)
		if err != nil {
			return err
		}
		t.Active = existing.Active
	}
	return s.templates.Update(ctx, t)
}

func validateTemplate(t *Template) error {
	if t.Title == "" {
		return fmt.Errorf("title is required")
	}
	// Never persist a template no submission could be scored against.
	if len(t.Questions) == 0 {
		return fmt.Errorf("template must contain at least one question")
	}
	for i, q := range t.Questions {
		if q.Text == "" {
			return fmt.Errorf("question %d: text is required", i)
		}
		if !ValidCategories[q.Category] {
			return fmt.Errorf("question %d: invalid category %q", i, q.Category)
		}
	}
	return nil
}

func (s *Service) GetTemplate(ctx context.Context, id uuid.UUID) (*Template, error) {
	return s.templates.GetByID(ctx, id)
}

func (s *Service) DeleteTemplate(ctx context.Context, id uuid.UUID) error {
	return s.templates.Delete(ctx, id)
}

func (s *Service) ListTemplates(ctx context.Context, activeOnly bool, limit, offset int) ([]*Template, int, error) {
	return s.templates.List(ctx, activeOnly, limit, offset)
}

// -- Responses --

// SubmittedAnswer is a single raw answer in a submission.
type SubmittedAnswer struct {
	QuestionID uuid.UUID `json:"question_id"`
	Score      int       `json:"score"`
}

// Submit validates a submission against its template, computes the normalized
// score and stress level server-side, and persists the response. Any
// client-supplied score totals are ignored.
func (s *Service) Submit(ctx context.Context, officerID, templateID uuid.UUID, answers []SubmittedAnswer, notes *string) (*Response, error) {
	if len(answers) == 0 {
		return nil, ErrNoAnswers
	}

	t, err := s.templates.GetByID(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !t.Active {
		return nil, ErrTemplateInactive
	}

	known := make(map[uuid.UUID]bool, len(t.Questions))
	for _, q := range t.Questions {
		known[q.ID] = true
	}

	scores := make([]int, len(answers))
	seen := make(map[uuid.UUID]bool, len(answers))
	for i, a := range answers {
		if !known[a.QuestionID] {
			return nil, fmt.Errorf("answer %d: question %s not in template", i, a.QuestionID)
		}
		if seen[a.QuestionID] {
			return nil, fmt.Errorf("answer %d: duplicate answer for question %s", i, a.QuestionID)
		}
		seen[a.QuestionID] = true
		scores[i] = a.Score
	}
	if len(answers) != len(t.Questions) {
		return nil, fmt.Errorf("expected %d answers, got %d", len(t.Questions), len(answers))
	}

	total, err := Score(scores)
	if err != nil {
		return nil, err
	}

	resp := &Response{
		TemplateID:  templateID,
		OfficerID:   officerID,
		TotalScore:  total,
		StressLevel: Classify(total),
		Notes:       notes,
	}
	for _, a := range answers {
		resp.Answers = append(resp.Answers, Answer{QuestionID: a.QuestionID, Score: a.Score})
	}

	if err := s.responses.Create(ctx, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (s *Service) GetResponse(ctx context.Context, id uuid.UUID) (*Response, error) {
	return s.responses.GetByID(ctx, id)
}

func (s *Service) DeleteResponse(ctx context.Context, id uuid.UUID) error {
	return s.responses.Delete(ctx, id)
}

func (s *Service) ListResponsesByOfficer(ctx context.Context, officerID uuid.UUID, limit, offset int) ([]*Response, int, error) {
	return s.responses.ListByOfficer(ctx, officerID, limit, offset)
}

func (s *Service) ListResponses(ctx context.Context, limit, offset int) ([]*Response, int, error) {
	return s.responses.List(ctx, limit, offset)
}

func (s *Service) Analytics(ctx context.Context) (*Analytics, error) {
	return s.responses.Analytics(ctx)
}
