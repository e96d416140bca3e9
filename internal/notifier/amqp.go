package notifier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/ignatzorin/flytster-backend/internal/models"
)

// Имя очереди, которую слушает воркер доставки.
const outboundQueue = "notifications.outbound"

// AMQPNotifier публикует уведомления в RabbitMQ. Очередь durable,
// сообщения персистентные: уведомление переживает перезапуск брокера.
// Соединение открывается на публикацию — поток уведомлений здесь
// небольшой, держать постоянный канал незачем.
type AMQPNotifier struct {
	url string
}

// NewAMQPNotifier создаёт издатель уведомлений.
func NewAMQPNotifier(url string) *AMQPNotifier {
	return &AMQPNotifier{url: url}
}

func (n *AMQPNotifier) publish(ctx context.Context, msg Message) error {
	conn, err := amqp.Dial(n.url)
	if err != nil {
		return fmt.Errorf("notifier: dial %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("notifier: channel %w", err)
	}
	defer func() { _ = ch.Close() }()

	// Объявление идемпотентно.
	if _, err := ch.QueueDeclare(outboundQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("notifier: queue declare %w", err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("notifier: marshal %w", err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", outboundQueue, false, false, pub); err != nil {
		return fmt.Errorf("notifier: publish %w", err)
	}
	return nil
}

// SendWelcome отправляет приветственное письмо.
func (n *AMQPNotifier) SendWelcome(ctx context.Context, user *models.User) error {
	return n.publish(ctx, Message{
		Channel:   ChannelEmail,
		Recipient: user.Email,
		Template:  TemplateWelcome,
		Params: map[string]string{
			"first_name": user.FirstName,
		},
	})
}

// SendEmailVerification отправляет письмо с токеном подтверждения на
// подтверждаемый адрес, а не на текущий email пользователя.
func (n *AMQPNotifier) SendEmailVerification(ctx context.Context, user *models.User, token *models.EmailToken) error {
	return n.publish(ctx, Message{
		Channel:   ChannelEmail,
		Recipient: token.PendingEmail,
		Template:  TemplateEmailVerification,
		Params: map[string]string{
			"first_name": user.FirstName,
			"token":      token.Value,
		},
	})
}

// SendPhoneVerification отправляет SMS-код на подтверждаемый номер.
func (n *AMQPNotifier) SendPhoneVerification(ctx context.Context, token *models.PhoneToken) error {
	return n.publish(ctx, Message{
		Channel:   ChannelSMS,
		Recipient: token.PendingPhone,
		Template:  TemplatePhoneVerification,
		Params: map[string]string{
			"token": token.Value,
		},
	})
}

// SendPasswordReset отправляет письмо с токеном сброса пароля.
func (n *AMQPNotifier) SendPasswordReset(ctx context.Context, user *models.User, token *models.PasswordToken) error {
	return n.publish(ctx, Message{
		Channel:   ChannelEmail,
		Recipient: user.Email,
		Template:  TemplatePasswordReset,
		Params: map[string]string{
			"first_name": user.FirstName,
			"token":      token.Value,
		},
	})
}
