package assessment

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// =========== Template Repository ===========

type templateRepoPG struct{ pool *pgxpool.Pool }

func NewTemplateRepoPG(pool *pgxpool.Pool) TemplateRepository { return &templateRepoPG{pool: pool} }

const templateCols = `id, title, description, active, created_by, created_at, updated_at`

func scanTemplate(row pgx.Row) (*Template, error) {
	var t Template
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Active, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTemplateNotFound
	}
	return &t, err
}

func (r *templateRepoPG) Create(ctx context.Context, t *Template) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	t.ID = uuid.New()
	if _, err := tx.Exec(ctx, `
		INSERT INTO assessment_template (id, title, description, active, created_by)
		VALUES ($1,$2,$3,$4,$5)`,
		t.ID, t.Title, t.Description, t.Active, t.CreatedBy); err != nil {
		return err
	}

	for i := range t.Questions {
		q := &t.Questions[i]
		q.ID = uuid.New()
		q.TemplateID = t.ID
		q.Position = i
		if _, err := tx.Exec(ctx, `
			INSERT INTO assessment_question (id, template_id, text, category, position)
			VALUES ($1,$2,$3,$4,$5)`,
			q.ID, q.TemplateID, q.Text, q.Category, q.Position); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *templateRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Template, error) {
	t, err := scanTemplate(r.pool.QueryRow(ctx, `SELECT `+templateCols+` FROM assessment_template WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadQuestions(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (r *templateRepoPG) loadQuestions(ctx context.Context, t *Template) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, template_id, text, category, position
		FROM assessment_question WHERE template_id = $1 ORDER BY position`, t.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var q Question
		if err := rows.Scan(&q.ID, &q.TemplateID, &q.Text, &q.Category, &q.Position); err != nil {
			return err
		}
		t.Questions = append(t.Questions, q)
	}
	return rows.Err()
}

// Update replaces the template's metadata and its full question set.
func (r *templateRepoPG) Update(ctx context.Context, t *Template) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE assessment_template SET title=$2, description=$3, active=$4, updated_at=NOW()
		WHERE id = $1`,
		t.ID, t.Title, t.Description, t.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM assessment_question WHERE template_id = $1`, t.ID); err != nil {
		return err
	}
	for i := range t.Questions {
		q := &t.Questions[i]
		q.ID = uuid.New()
		q.TemplateID = t.ID
		q.Position = i
		if _, err := tx.Exec(ctx, `
			INSERT INTO assessment_question (id, template_id, text, category, position)
			VALUES ($1,$2,$3,$4,$5)`,
			q.ID, q.TemplateID, q.Text, q.Category, q.Position); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *templateRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM assessment_template WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}

func (r *templateRepoPG) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Template, int, error) {
	where := ``
	if activeOnly {
		where = ` WHERE active`
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM assessment_template`+where).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+templateCols+` FROM assessment_template`+where+
		` ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Template
	for rows.Next() {
		t, err := scanTemplate(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	for _, t := range items {
		if err := r.loadQuestions(ctx, t); err != nil {
			return nil, 0, err
		}
	}
	return items, total, nil
}

// =========== Response Repository ===========

type responseRepoPG struct{ pool *pgxpool.Pool }

func NewResponseRepoPG(pool *pgxpool.Pool) ResponseRepository { return &responseRepoPG{pool: pool} }

const responseCols = `id, template_id, officer_id, total_score, stress_level, notes, submitted_at`

func scanResponse(row pgx.Row) (*Response, error) {
	var resp Response
	err := row.Scan(&resp.ID, &resp.TemplateID, &resp.OfficerID, &resp.TotalScore, &resp.StressLevel, &resp.Notes, &resp.SubmittedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrResponseNotFound
	}
	return &resp, err
}

func (r *responseRepoPG) Create(ctx context.Context, resp *Response) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	resp.ID = uuid.New()
	if _, err := tx.Exec(ctx, `
		INSERT INTO assessment_response (id, template_id, officer_id, total_score, stress_level, notes)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		resp.ID, resp.TemplateID, resp.OfficerID, resp.TotalScore, resp.StressLevel, resp.Notes); err != nil {
		return err
	}

	for i := range resp.Answers {
		a := &resp.Answers[i]
		a.ID = uuid.New()
		a.ResponseID = resp.ID
		if _, err := tx.Exec(ctx, `
			INSERT INTO assessment_answer (id, response_id, question_id, score)
			VALUES ($1,$2,$3,$4)`,
			a.ID, a.ResponseID, a.QuestionID, a.Score); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *responseRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Response, error) {
	resp, err := scanResponse(r.pool.QueryRow(ctx, `SELECT `+responseCols+` FROM assessment_response WHERE id = $1`, id))
	if err != nil {
		return nil, err
	}
	if err := r.loadAnswers(ctx, resp); err != nil {
		return nil, err
	}
	return resp, nil
}

func (r *responseRepoPG) loadAnswers(ctx context.Context, resp *Response) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, response_id, question_id, score
		FROM assessment_answer WHERE response_id = $1`, resp.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var a Answer
		if err := rows.Scan(&a.ID, &a.ResponseID, &a.QuestionID, &a.Score); err != nil {
			return err
		}
		resp.Answers = append(resp.Answers, a)
	}
	return rows.Err()
}

func (r *responseRepoPG) ListByOfficer(ctx context.Context, officerID uuid.UUID, limit, offset int) ([]*Response, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM assessment_response WHERE officer_id = $1`, officerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+responseCols+` FROM assessment_response
		WHERE officer_id = $1 ORDER BY submitted_at DESC LIMIT $2 OFFSET $3`, officerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Response
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, resp)
	}
	return items, total, rows.Err()
}

func (r *responseRepoPG) List(ctx context.Context, limit, offset int) ([]*Response, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM assessment_response`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `SELECT `+responseCols+` FROM assessment_response
		ORDER BY submitted_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Response
	for rows.Next() {
		resp, err := scanResponse(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, resp)
	}
	return items, total, rows.Err()
}

func (r *responseRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	// Answer rows go with the response via ON DELETE CASCADE.
	tag, err := r.pool.Exec(ctx, `DELETE FROM assessment_response WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrResponseNotFound
	}
	return nil
}

// Analytics aggregates response data in SQL rather than loading every row.
func (r *responseRepoPG) Analytics(ctx context.Context) (*Analytics, error) {
	a := &Analytics{
		LevelDistribution: make(map[string]int),
		ResponsesByMonth:  make(map[string]int),
	}

	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COALESCE(AVG(total_score), 0)
		FROM assessment_response`).Scan(&a.TotalResponses, &a.AverageScore); err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT stress_level, COUNT(*) FROM assessment_response GROUP BY stress_level`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var level string
		var count int
		if err := rows.Scan(&level, &count); err != nil {
			return nil, err
		}
		a.LevelDistribution[level] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	monthRows, err := r.pool.Query(ctx, `
		SELECT TO_CHAR(DATE_TRUNC('month', submitted_at), 'YYYY-MM') AS month, COUNT(*)
		FROM assessment_response GROUP BY month ORDER BY month`)
	if err != nil {
		return nil, err
	}
	defer monthRows.Close()
	for monthRows.Next() {
		var month string
		var count int
		if err := monthRows.Scan(&month, &count); err != nil {
			return nil, err
		}
		a.ResponsesByMonth[month] = count
	}
	return a, monthRows.Err()
}
