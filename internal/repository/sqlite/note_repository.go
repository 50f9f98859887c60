package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"notes-api/internal/domain"
	"notes-api/internal/repository"
)

const selectNote = `
SELECT n.id, n.content, n.important, n.owner_id, n.created_at, n.updated_at, u.username, u.name
FROM notes n
LEFT JOIN users u ON u.id = n.owner_id`

type NoteRepository struct {
	db *sql.DB
}

func NewNoteRepository(db *sql.DB) repository.NoteRepository {
	return &NoteRepository{db: db}
}

func (r *NoteRepository) Create(ctx context.Context, note *domain.Note) error {
	now := time.Now().UTC()
	note.ID = domain.NewID()
	note.CreatedAt = now
	note.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
INSERT INTO notes (id, content, important, owner_id, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?)`,
		note.ID,
		note.Content,
		note.Important,
		note.OwnerID,
		note.CreatedAt,
		note.UpdatedAt,
	)
	if err != nil {
		note.ID = ""
		if strings.Contains(strings.ToLower(err.Error()), "foreign key") {
			return fmt.Errorf("insert note for owner %s: %w", note.OwnerID, repository.ErrNotFound)
		}
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

func (r *NoteRepository) Get(ctx context.Context, id string) (*domain.Note, error) {
	row := r.db.QueryRowContext(ctx, selectNote+`
WHERE n.id = ?`,
		id,
	)
	return scanNote(row)
}

func (r *NoteRepository) List(ctx context.Context, filter domain.NoteFilter) ([]domain.Note, error) {
	var (
		where []string
		args  []any
	)
	if filter.Important != nil {
		where = append(where, "n.important = ?")
		args = append(args, *filter.Important)
	}
	if filter.OwnerID != "" {
		where = append(where, "n.owner_id = ?")
		args = append(args, filter.OwnerID)
	}

	query := selectNote
	if len(where) > 0 {
		query += "\nWHERE " + strings.Join(where, " AND ")
	}
	query += "\nORDER BY n.id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := []domain.Note{}
	for rows.Next() {
		note, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		notes = append(notes, *note)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}
	return notes, nil
}

func (r *NoteRepository) Update(ctx context.Context, note *domain.Note) error {
	note.UpdatedAt = time.Now().UTC()

	res, err := r.db.ExecContext(ctx, `
UPDATE notes
SET content = ?, important = ?, updated_at = ?
WHERE id = ?`,
		note.Content,
		note.Important,
		note.UpdatedAt,
		note.ID,
	)
	if err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update note rows affected: %w", err)
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *NoteRepository) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete note rows affected: %w", err)
	}
	return affected > 0, nil
}

func scanNote(row interface {
	Scan(dest ...any) error
}) (*domain.Note, error) {
	var (
		note     domain.Note
		username sql.NullString
		name     sql.NullString
	)
	if err := row.Scan(
		&note.ID,
		&note.Content,
		&note.Important,
		&note.OwnerID,
		&note.CreatedAt,
		&note.UpdatedAt,
		&username,
		&name,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan note: %w", err)
	}
	if username.Valid {
		note.Owner = &domain.UserRef{
			ID:       note.OwnerID,
			Username: username.String,
			Name:     name.String,
		}
	}
	return &note, nil
}
