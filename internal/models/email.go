package models

// EmailTask представляет задание на отправку письма, публикуемое в очередь
// и обрабатываемое сервисом рассылки.
type EmailTask struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
