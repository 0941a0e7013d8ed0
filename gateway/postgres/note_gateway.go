package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taskify/backend/domain"
	"github.com/taskify/backend/gateway"
)

type noteGateway struct {
	pool *pgxpool.Pool
}

// NewNoteGateway returns a Postgres-backed implementation of NoteGateway.
func NewNoteGateway(pool *pgxpool.Pool) gateway.NoteGateway {
	return &noteGateway{pool: pool}
}

func (g *noteGateway) FetchAll(ctx context.Context) ([]domain.Note, error) {
	const query = `
	SELECT id, title, content, created_at, updated_at
	FROM notes
	ORDER BY created_at DESC
	`
	rows, err := g.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notes []domain.Note
	for rows.Next() {
		var n domain.Note
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

func (g *noteGateway) Create(ctx context.Context, note domain.Note) error {
	if note.ID == "" {
		return domain.ErrInvalidPayload
	}
	const query = `
	INSERT INTO notes (id, title, content, created_at, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	`
	_, err := g.pool.Exec(ctx, query, note.ID, note.Title, note.Content, note.CreatedAt, note.UpdatedAt)
	return err
}

func (g *noteGateway) Update(ctx context.Context, note domain.Note) error {
	const query = `
	UPDATE notes
	SET title = $2, content = $3, updated_at = $4
	WHERE id = $1
	RETURNING id
	`
	var id string
	if err := g.pool.QueryRow(ctx, query, note.ID, note.Title, note.Content, note.UpdatedAt).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrNoteNotFound
		}
		return err
	}
	return nil
}

func (g *noteGateway) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM notes WHERE id = $1`
	tag, err := g.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNoteNotFound
	}
	return nil
}
