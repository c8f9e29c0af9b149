package smtp

import "io"

// Client описывает минимальный контракт SMTP-клиента, необходимый для
// отправки письма. Выделен в интерфейс ради тестируемости сервиса рассылки.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}
