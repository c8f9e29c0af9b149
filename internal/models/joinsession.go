package models

import "time"

// JoinSession представляет временную запись о намерении вступить в ассоциацию.
// Создается при отправке формы регистрации и живет до оплаты либо до
// истечения срока ExpiresAt. Пароль хранится только в виде bcrypt-хэша.
//
// Запись считается отсутствующей для всех читателей, как только ExpiresAt
// прошел, независимо от того, удалена ли она физически.
type JoinSession struct {
	UID            string    // Уникальный идентификатор сессии
	Email          string    // Электронная почта кандидата
	PasswordHash   string    // Хэш пароля, введенного в форме
	FirstName      string
	LastName       string
	MobilePhone    string
	AreaOfInterest string
	StreetName     string
	City           string
	State          string
	Postcode       string
	CheckoutID     string    // Идентификатор checkout-сессии провайдера, пустой до создания оплаты
	ExpiresAt      time.Time // Момент истечения записи, всегда заполнен
}
