package models

import "time"

// Статусы публикации в блоге.
const (
	PostStatusPending  = "pending"
	PostStatusApproved = "approved"
	PostStatusRejected = "rejected"
)

// Post представляет запись блога. Новые записи попадают в статус pending
// и становятся публичными только после одобрения редактором или администратором.
type Post struct {
	ID          int
	Title       string
	Content     string
	AuthorEmail string // Почта автора, пустая для анонимных записей
	Status      string // pending, approved или rejected
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
