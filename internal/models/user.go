// Package models содержит доменную модель пользователя системы,
// включающую данные учётной записи, хэш пароля и профиль участника.
// Структуры используются в бизнес-логике и при работе с хранилищем.
package models

import "time"

// Роли пользователей. Набор фиксированный, хранится как текстовое поле
// с CHECK-ограничением в базе данных.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleMember = "member"
)

// User представляет постоянную учётную запись участника ассоциации.
type User struct {
	UID              string     // Уникальный идентификатор пользователя
	Email            string     // Электронная почта (уникальная, в нижнем регистре)
	PasswordHash     string     // Хэш пароля пользователя
	FirstName        string     // Имя
	LastName         string     // Фамилия
	MobilePhone      string     // Мобильный телефон
	AreaOfInterest   string     // Сфера интересов участника
	StreetName       string     // Улица
	City             string     // Город
	State            string     // Штат
	Postcode         string     // Почтовый индекс
	StripeCustomerID string     // Идентификатор клиента у платежного провайдера, может быть пустым
	MemberExpiryDate *time.Time // Дата истечения членства, nil — не оплачено
	Role             string     // Роль пользователя: admin, editor или member
}

// Profile содержит общие поля профиля, которые заполняются при регистрации
// и редактируются в личном кабинете.
type Profile struct {
	Email          string
	FirstName      string
	LastName       string
	MobilePhone    string
	AreaOfInterest string
	StreetName     string
	City           string
	State          string
	Postcode       string
}

// MembershipStatus возвращает "active", если членство оплачено и не истекло,
// иначе "expired".
func (u *User) MembershipStatus(now time.Time) string {
	if u.MemberExpiryDate != nil && u.MemberExpiryDate.After(now) {
		return "active"
	}
	return "expired"
}
