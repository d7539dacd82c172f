package assessment

import (
	"time"

	"github.com/google/uuid"
)

// Question categories group related prompts in a template.
var ValidCategories = map[string]bool{
	"workload":    true,
	"support":     true,
	"wellbeing":   true,
	"environment": true,
}

// Template maps to the assessment_template table.
type Template struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Title       string     `db:"title" json:"title"`
	Description *string    `db:"description" json:"description,omitempty"`
	Active      bool       `db:"active" json:"active"`
	CreatedBy   uuid.UUID  `db:"created_by" json:"created_by"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
	Questions   []Question `json:"questions"`
}

// MaxScore is the highest raw total the template's questions can produce.
func (t *Template) MaxScore() int {
	return len(t.Questions) * MaxAnswerScore
}

// Question maps to the assessment_question table.
type Question struct {
	ID         uuid.UUID `db:"id" json:"id"`
	TemplateID uuid.UUID `db:"template_id" json:"template_id"`
	Text       string    `db:"text" json:"text"`
	Category   string    `db:"category" json:"category"`
	Position   int       `db:"position" json:"position"`
}

// Response maps to the assessment_response table. TotalScore is the
// normalized 0-100 value computed server-side on submission.
type Response struct {
	ID          uuid.UUID `db:"id" json:"id"`
	TemplateID  uuid.UUID `db:"template_id" json:"template_id"`
	OfficerID   uuid.UUID `db:"officer_id" json:"officer_id"`
	TotalScore  int       `db:"total_score" json:"total_score"`
	StressLevel string    `db:"stress_level" json:"stress_level"`
	Notes       *string   `db:"notes" json:"notes,omitempty"`
	SubmittedAt time.Time `db:"submitted_at" json:"submitted_at"`
	Answers     []Answer  `json:"answers"`
}

// Answer maps to the assessment_answer table.
type Answer struct {
	ID         uuid.UUID `db:"id" json:"id"`
	ResponseID uuid.UUID `db:"response_id" json:"response_id"`
	QuestionID uuid.UUID `db:"question_id" json:"question_id"`
	Score      int       `db:"score" json:"score"`
}

// Analytics summarizes assessment activity for the admin dashboard.
type Analytics struct {
	TotalResponses    int            `json:"total_responses"`
	AverageScore      float64        `json:"average_score"`
	LevelDistribution map[string]int `json:"level_distribution"`
	ResponsesByMonth  map[string]int `json:"responses_by_month"`
}
