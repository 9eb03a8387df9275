package notifier

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/firehall-dev/duty-roster/backend/internal/config"
	"github.com/firehall-dev/duty-roster/backend/internal/domain"
)

const QueueName = "notification_queue"

// Publisher serializes notification messages onto the queue that
// cmd/notify consumes.
type Publisher struct {
	cfg     *config.Config
	channel *amqp.Channel
}

func NewPublisher(cfg *config.Config, channel *amqp.Channel) *Publisher {
	return &Publisher{cfg: cfg, channel: channel}
}

func (p *Publisher) Publish(msg *domain.NotificationMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(p.cfg.RabbitMQ.PublishTimeout)*time.Second)
	defer cancel()

	return p.channel.PublishWithContext(
		ctx,
		"",
		QueueName,
		true,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

// NotifyUser routes a message to the user's preferred channel. Users
// without a linked telegram chat fall back to email.
func (p *Publisher) NotifyUser(user *domain.User, msgType string, data any) error {
	msg := &domain.NotificationMessage{
		Type:    msgType,
		Channel: domain.NotifyByEmail,
		To:      user.Email,
		Data:    data,
	}
	if user.NotifyChannel == domain.NotifyByTelegram && user.TelegramChatID != nil {
		msg.Channel = domain.NotifyByTelegram
		msg.TelegramChatID = *user.TelegramChatID
	}

	return p.Publish(msg)
}
