package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"

	"github.com/pyrmontaction/membership-backend/internal/models"
)

// EmailNotifier публикует задания на отправку писем в очередь уведомлений.
type EmailNotifier struct {
	ch *amqp.Channel
}

// NewEmailNotifier создает новый экземпляр EmailNotifier.
func NewEmailNotifier(ch *amqp.Channel) *EmailNotifier {
	return &EmailNotifier{ch: ch}
}

// EnqueueEmail отправляет задание в очередь писем.
func (n *EmailNotifier) EnqueueEmail(task models.EmailTask) error {
	const op = "rabbitmq.EnqueueEmail"

	if err := PublishMessage(n.ch, NotificationExchange, EmailRoutingKey, task); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
