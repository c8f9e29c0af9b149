package repository

import "errors"

// Ошибки хранилища, на которые опирается бизнес-логика.
var (
	// ErrNotFound запись отсутствует либо уже истекла.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail почта уже занята постоянным пользователем
	// или живой регистрационной сессией.
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrAlreadyProcessed платеж уже находится в терминальном статусе.
	ErrAlreadyProcessed = errors.New("payment already processed")
)
