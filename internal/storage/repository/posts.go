package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pyrmontaction/membership-backend/internal/models"
)

// CreatePost сохраняет новую запись блога в статусе pending.
func (s *Storage) CreatePost(ctx context.Context, post models.Post) (int, error) {
	const op = "storage.CreatePost"

	var id int
	query := `INSERT INTO posts (title, content, author_email, status)
			  VALUES ($1, $2, $3, $4)
			  RETURNING id;`
	if err := s.DB.QueryRowContext(ctx, query,
		post.Title, post.Content, nullString(post.AuthorEmail),
		models.PostStatusPending).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// GetPost возвращает запись блога по идентификатору.
func (s *Storage) GetPost(ctx context.Context, id int) (*models.Post, error) {
	const op = "storage.GetPost"

	query := `SELECT id, title, content, author_email, status, created_at, updated_at
			  FROM posts
			  WHERE id = $1`
	p := &models.Post{}
	var authorEmail sql.NullString
	row := s.DB.QueryRowContext(ctx, query, id)
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &authorEmail, &p.Status,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if authorEmail.Valid {
		p.AuthorEmail = authorEmail.String
	}
	return p, nil
}

// ListPostsByStatus возвращает записи блога в заданном статусе,
// от новых к старым.
func (s *Storage) ListPostsByStatus(ctx context.Context, status string) ([]*models.Post, error) {
	const op = "storage.ListPostsByStatus"

	query := `SELECT id, title, content, author_email, status, created_at, updated_at
			  FROM posts
			  WHERE status = $1
			  ORDER BY created_at DESC`
	rows, err := s.DB.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Post
	for rows.Next() {
		p := &models.Post{}
		var authorEmail sql.NullString
		if err = rows.Scan(&p.ID, &p.Title, &p.Content, &authorEmail, &p.Status,
			&p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if authorEmail.Valid {
			p.AuthorEmail = authorEmail.String
		}
		result = append(result, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdatePost обновляет заголовок и содержимое записи.
func (s *Storage) UpdatePost(ctx context.Context, id int, title, content string) error {
	const op = "storage.UpdatePost"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE posts SET title = $1, content = $2, updated_at = now() WHERE id = $3`,
		title, content, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireRowsAffected(res, op)
}

// UpdatePostStatus переводит запись в новый статус модерации.
func (s *Storage) UpdatePostStatus(ctx context.Context, id int, status string) error {
	const op = "storage.UpdatePostStatus"

	res, err := s.DB.ExecContext(ctx,
		`UPDATE posts SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireRowsAffected(res, op)
}

// DeletePost удаляет запись блога.
func (s *Storage) DeletePost(ctx context.Context, id int) error {
	const op = "storage.DeletePost"

	res, err := s.DB.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return requireRowsAffected(res, op)
}
