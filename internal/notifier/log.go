package notifier

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/flytster-backend/internal/logger"
	"github.com/ignatzorin/flytster-backend/internal/models"
)

// LogNotifier пишет уведомления в лог вместо очереди. Используется в
// development-окружении, когда брокер не поднят; токены видны в логе,
// и сценарии подтверждения можно пройти руками.
type LogNotifier struct {
	log *logrus.Entry
}

// NewLogNotifier создаёт лог-издатель уведомлений.
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.Component("notifier")}
}

func (n *LogNotifier) send(msg Message) error {
	n.log.WithFields(logrus.Fields{
		"channel":   msg.Channel,
		"recipient": msg.Recipient,
		"template":  msg.Template,
		"params":    msg.Params,
	}).Info("Уведомление (заглушка)")
	return nil
}

func (n *LogNotifier) SendWelcome(_ context.Context, user *models.User) error {
	return n.send(Message{
		Channel:   ChannelEmail,
		Recipient: user.Email,
		Template:  TemplateWelcome,
		Params:    map[string]string{"first_name": user.FirstName},
	})
}

func (n *LogNotifier) SendEmailVerification(_ context.Context, user *models.User, token *models.EmailToken) error {
	return n.send(Message{
		Channel:   ChannelEmail,
		Recipient: token.PendingEmail,
		Template:  TemplateEmailVerification,
		Params:    map[string]string{"first_name": user.FirstName, "token": token.Value},
	})
}

func (n *LogNotifier) SendPhoneVerification(_ context.Context, token *models.PhoneToken) error {
	return n.send(Message{
		Channel:   ChannelSMS,
		Recipient: token.PendingPhone,
		Template:  TemplatePhoneVerification,
		Params:    map[string]string{"token": token.Value},
	})
}

func (n *LogNotifier) SendPasswordReset(_ context.Context, user *models.User, token *models.PasswordToken) error {
	return n.send(Message{
		Channel:   ChannelEmail,
		Recipient: user.Email,
		Template:  TemplatePasswordReset,
		Params:    map[string]string{"first_name": user.FirstName, "token": token.Value},
	})
}
