// Package sender обрабатывает задания на отправку писем из очереди
// и доставляет их через SMTP.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pyrmontaction/membership-backend/internal/lib/sl"
	"github.com/pyrmontaction/membership-backend/internal/lib/smtp"
	"github.com/pyrmontaction/membership-backend/internal/models"
)

// Transport описывает контракт SMTP транспорта.
type Transport interface {
	Connect() (smtp.Client, error)
	GetSMTPUser() string
}

// Service читает задания из очереди и отправляет письма.
type Service struct {
	transport Transport
	log       *slog.Logger
}

// New создает новый экземпляр Service.
func New(transport Transport, log *slog.Logger) *Service {
	return &Service{transport: transport, log: log}
}

// HandleEmailTask разбирает задание из очереди и отправляет письмо.
// Сообщение с битым JSON подтверждается без повтора, ошибка SMTP
// возвращает сообщение в очередь.
func (s *Service) HandleEmailTask(body []byte) error {
	const op = "sender.HandleEmailTask"

	var task models.EmailTask
	if err := json.Unmarshal(body, &task); err != nil {
		s.log.Error("failed to unmarshal email task, dropping", sl.Err(err))
		return nil
	}

	if err := s.sendEmail(task.To, task.Subject, task.Body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *Service) sendEmail(to, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", sl.Err(err))
		return err
	}
	if err := client.Rcpt(to); err != nil {
		s.log.Error("failed to set RCPT TO", slog.String("recipient", to), sl.Err(err))
		return err
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent", slog.String("to", to), slog.String("subject", subject))
	return nil
}
