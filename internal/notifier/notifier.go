// Package notifier отправляет пользовательские уведомления: письма
// подтверждения, SMS-коды, ссылки сброса пароля. Доставкой занимается
// отдельный воркер; бэкенд лишь публикует сообщения в очередь.
package notifier

import (
	"context"

	"github.com/ignatzorin/flytster-backend/internal/models"
)

// Каналы доставки.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Шаблоны уведомлений, известные воркеру доставки.
const (
	TemplateWelcome           = "welcome"
	TemplateEmailVerification = "email_verification"
	TemplatePhoneVerification = "phone_verification"
	TemplatePasswordReset     = "password_reset"
)

// Message — единица работы для воркера доставки.
type Message struct {
	Channel   string            `json:"channel"`
	Recipient string            `json:"recipient"`
	Template  string            `json:"template"`
	Params    map[string]string `json:"params,omitempty"`
}

// Notifier публикует уведомления. Ошибки доставки не должны ронять
// основной запрос: вызывающая сторона отправляет уведомления асинхронно.
type Notifier interface {
	SendWelcome(ctx context.Context, user *models.User) error
	SendEmailVerification(ctx context.Context, user *models.User, token *models.EmailToken) error
	SendPhoneVerification(ctx context.Context, token *models.PhoneToken) error
	SendPasswordReset(ctx context.Context, user *models.User, token *models.PasswordToken) error
}
