package paymentprovider

// CreateCheckoutParams содержит параметры создания checkout-сессии.
// Заполняется либо CustomerEmail (первичная регистрация), либо CustomerID
// (продление с существующим клиентом провайдера).
type CreateCheckoutParams struct {
	CustomerEmail      string            // почта плательщика
	CustomerID         string            // идентификатор клиента у провайдера
	AmountCents        int               // сумма в центах
	Currency           string            // валюта, например "aud"
	ProductName        string            // название позиции в чеке
	ProductDescription string            // описание позиции
	SuccessURL         string            // возврат браузера при успехе
	CancelURL          string            // возврат браузера при отмене
	Metadata           map[string]string // корреляционные данные: type, join_session_id, user_uid
}

// CheckoutSession представляет checkout-сессию провайдера.
type CheckoutSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`            // адрес страницы оплаты
	Status        string            `json:"status"`         // open, complete, expired
	PaymentStatus string            `json:"payment_status"` // paid, unpaid
	Customer      string            `json:"customer"`       // идентификатор клиента, если был передан
	CustomerEmail string            `json:"customer_email"`
	Metadata      map[string]string `json:"metadata"`
}

// Customer представляет клиента у провайдера.
type Customer struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Типы webhook-событий, которые обрабатывает система.
const (
	EventCheckoutCompleted = "checkout.session.completed"
	EventCheckoutExpired   = "checkout.session.expired"
)

// Event представляет проверенное webhook-событие провайдера.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object CheckoutSession `json:"object"`
	} `json:"data"`
}
