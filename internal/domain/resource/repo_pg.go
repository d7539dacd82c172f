package resource

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

const resourceCols = `id, title, description, category, type, file_name, file_url,
	blob_id, tags, created_by, created_at, updated_at`

func scanResource(row pgx.Row) (*Resource, error) {
	var r Resource
	err := row.Scan(&r.ID, &r.Title, &r.Description, &r.Category, &r.Type, &r.FileName,
		&r.FileURL, &r.BlobID, &r.Tags, &r.CreatedBy, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return &r, err
}

func (r *repoPG) Create(ctx context.Context, res *Resource) error {
	res.ID = uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO resource (id, title, description, category, type, file_name, file_url,
			blob_id, tags, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
		res.ID, res.Title, res.Description, res.Category, res.Type, res.FileName,
		res.FileURL, res.BlobID, res.Tags, res.CreatedBy)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Resource, error) {
	return scanResource(r.pool.QueryRow(ctx,
		`SELECT `+resourceCols+` FROM resource WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, res *Resource) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE resource SET title=$2, description=$3, category=$4, type=$5, file_name=$6,
			file_url=$7, blob_id=$8, tags=$9, updated_at=NOW()
		WHERE id = $1`,
		res.ID, res.Title, res.Description, res.Category, res.Type, res.FileName,
		res.FileURL, res.BlobID, res.Tags)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM resource WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, category string, limit, offset int) ([]*Resource, int, error) {
	query := `SELECT ` + resourceCols + ` FROM resource WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM resource WHERE 1=1`
	var args []interface{}
	idx := 1

	if category != "" {
		clause := fmt.Sprintf(` AND category = $%d`, idx)
		query += clause
		countQuery += clause
		args = append(args, category)
		idx++
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Resource
	for rows.Next() {
		res, err := scanResource(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, res)
	}
	return items, total, rows.Err()
}
