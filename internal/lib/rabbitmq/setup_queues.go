package rabbitmq

// QueueConfig описывает очередь и ключ маршрутизации в exchange "notifications".
type QueueConfig struct {
	QueueName  string
	RoutingKey string
}

// NotificationExchange exchange для всех исходящих уведомлений.
const NotificationExchange = "notifications"

// Очередь исходящих писем.
const (
	EmailQueue      = "notification.email"
	EmailRoutingKey = "email"
)

// GetNotificationQueues возвращает список очередей, которые должны
// существовать до старта издателей и потребителей.
func GetNotificationQueues() []QueueConfig {
	return []QueueConfig{
		{QueueName: EmailQueue, RoutingKey: EmailRoutingKey},
	}
}
