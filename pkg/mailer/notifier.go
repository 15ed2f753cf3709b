package mailer

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Notifier delivers a single message to one recipient.
type Notifier interface {
	Send(ctx context.Context, to, subject, body string) error
}

// Publisher puts a JSON payload on a queue. helpers.RabbitPublisher satisfies it.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueNotifier hands messages to the email worker. A publish failure is the delivery failure.
type QueueNotifier struct {
	pub Publisher
}

func NewQueueNotifier(pub Publisher) *QueueNotifier {
	return &QueueNotifier{pub: pub}
}

func (q *QueueNotifier) Send(ctx context.Context, to, subject, body string) error {
	return q.pub.PublishJSON(ctx, EmailJob{To: to, Subject: subject, Text: body})
}

// LogNotifier records that a message would have been sent. Used when MAIL_SEND_ENABLED is false.
// The body is never logged because it can carry a reset token.
type LogNotifier struct {
	Logger *logrus.Logger
}

func (n LogNotifier) Send(ctx context.Context, to, subject, body string) error {
	if n.Logger != nil {
		n.Logger.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("mail sending disabled, message dropped")
	}
	return nil
}

var (
	_ Notifier = (*QueueNotifier)(nil)
	_ Notifier = LogNotifier{}
)
