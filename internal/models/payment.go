package models

import "time"

// Статусы платежа. Из терминальных статусов (paid, failed) возврата назад нет.
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// Payment представляет корреляционную запись об оплате членского взноса.
// Создается вместе с checkout-сессией провайдера со статусом pending,
// переходит в paid либо failed только по проверенному webhook-уведомлению.
type Payment struct {
	ID          int
	Email       string     // Почта плательщика
	AmountCents int        // Сумма в центах
	Currency    string     // Валюта, например "aud"
	CheckoutID  string     // Идентификатор checkout-сессии провайдера, уникальный
	Status      string     // pending, paid или failed
	PaidAt      *time.Time // Момент подтверждения оплаты
	ExpiresAt   *time.Time // Момент истечения оплаченного периода членства
}
