// Package post содержит логику публикаций блога сообщества: создание,
// премодерацию и выдачу одобренных материалов.
package post

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/pyrmontaction/membership-backend/internal/lib/sl"
	"github.com/pyrmontaction/membership-backend/internal/models"
)

// ErrInvalidStatus вердикт модерации не входит в допустимый набор.
var ErrInvalidStatus = errors.New("invalid post status")

const approvedCacheKey = "posts:approved"

// Repository описывает контракт хранилища публикаций.
type Repository interface {
	CreatePost(ctx context.Context, post models.Post) (int, error)
	GetPost(ctx context.Context, id int) (*models.Post, error)
	ListPostsByStatus(ctx context.Context, status string) ([]*models.Post, error)
	UpdatePost(ctx context.Context, id int, title, content string) error
	UpdatePostStatus(ctx context.Context, id int, status string) error
	DeletePost(ctx context.Context, id int) error
}

// Cache описывает контракт кэша списков публикаций.
type Cache interface {
	Get(key string, result any) (bool, error)
	Set(key string, value any, expiration time.Duration) error
	Invalidate(key string) error
}

// Service реализует операции над публикациями.
type Service struct {
	repo  Repository
	cache Cache
	log   *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, cache Cache, log *slog.Logger) *Service {
	return &Service{repo: repo, cache: cache, log: log}
}

// Create сохраняет новую публикацию. Любая публикация попадает в очередь
// модерации со статусом pending независимо от роли автора.
func (s *Service) Create(ctx context.Context, authorEmail, title, content string) (int, error) {
	const op = "post.Create"

	id, err := s.repo.CreatePost(ctx, models.Post{
		AuthorEmail: authorEmail,
		Title:       title,
		Content:     content,
		Status:      models.PostStatusPending,
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return id, nil
}

// Get возвращает публикацию по идентификатору.
func (s *Service) Get(ctx context.Context, id int) (*models.Post, error) {
	return s.repo.GetPost(ctx, id)
}

// ListApproved возвращает одобренные публикации. Список кэшируется,
// кэш сбрасывается при любом изменении публикаций.
func (s *Service) ListApproved(ctx context.Context) ([]*models.Post, error) {
	const op = "post.ListApproved"

	var posts []*models.Post
	if found, err := s.cache.Get(approvedCacheKey, &posts); err != nil {
		s.log.Error("posts cache read failed", sl.Err(err))
	} else if found {
		return posts, nil
	}

	posts, err := s.repo.ListPostsByStatus(ctx, models.PostStatusApproved)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(approvedCacheKey, posts, 5*time.Minute); err != nil {
		s.log.Error("posts cache write failed", sl.Err(err))
	}
	return posts, nil
}

// ListPending возвращает очередь модерации.
func (s *Service) ListPending(ctx context.Context) ([]*models.Post, error) {
	return s.repo.ListPostsByStatus(ctx, models.PostStatusPending)
}

// Moderate выставляет публикации вердикт модерации: approved или rejected.
func (s *Service) Moderate(ctx context.Context, id int, status string) error {
	const op = "post.Moderate"

	if status != models.PostStatusApproved && status != models.PostStatusRejected {
		return fmt.Errorf("%s: %w", op, ErrInvalidStatus)
	}
	if err := s.repo.UpdatePostStatus(ctx, id, status); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateApprovedCache()
	return nil
}

// Update меняет заголовок и текст публикации и возвращает её на модерацию.
func (s *Service) Update(ctx context.Context, id int, title, content string) error {
	const op = "post.Update"

	if err := s.repo.UpdatePost(ctx, id, title, content); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.repo.UpdatePostStatus(ctx, id, models.PostStatusPending); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateApprovedCache()
	return nil
}

// Delete удаляет публикацию.
func (s *Service) Delete(ctx context.Context, id int) error {
	const op = "post.Delete"

	if err := s.repo.DeletePost(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.invalidateApprovedCache()
	return nil
}

func (s *Service) invalidateApprovedCache() {
	if err := s.cache.Invalidate(approvedCacheKey); err != nil {
		s.log.Error("failed to invalidate posts cache", sl.Err(err))
	}
}
