package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/samber/oops"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tourguide-auth/pkg/mailer/templates"
)

// ErrMalformedJob marks a queued message that can never be delivered.
var ErrMalformedJob = errors.New("malformed email job")

// MessageSender sends a fully rendered message. *Mailgun satisfies it.
type MessageSender interface {
	SendMessage(ctx context.Context, to, subject, text, html string) error
}

// JobHandler renders and sends the EmailJobs published by QueueNotifier.
type JobHandler struct {
	Sender  MessageSender
	Logger  *logrus.Logger
	Timeout time.Duration
}

func NewJobHandler(sender MessageSender, logger *logrus.Logger) *JobHandler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &JobHandler{Sender: sender, Logger: logger, Timeout: 15 * time.Second}
}

// Handle processes one queue message. requeue is true only for failures worth retrying;
// malformed or unrenderable jobs are dropped.
func (h *JobHandler) Handle(ctx context.Context, body []byte) (requeue bool, err error) {
	var job EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return false, oops.Code("EMAIL_JOB_DECODE_FAILED").Wrap(errors.Join(ErrMalformedJob, err))
	}
	if !job.hasRecipient() {
		return false, oops.Code("EMAIL_JOB_INVALID").Wrapf(ErrMalformedJob, "missing recipient")
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, t, ht, rerr := templates.Render(job.Template, job.templateData())
		if rerr != nil {
			return false, oops.Code("EMAIL_JOB_RENDER_FAILED").With("template", job.Template).Wrap(errors.Join(ErrMalformedJob, rerr))
		}
		subject, text, html = s, t, ht
	}
	if subject == "" || (text == "" && html == "") {
		return false, oops.Code("EMAIL_JOB_INVALID").Wrapf(ErrMalformedJob, "subject and a body are required")
	}

	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := h.Sender.SendMessage(c, job.To, subject, text, html); err != nil {
		return true, oops.Code("EMAIL_SEND_FAILED").Wrap(err)
	}
	h.Logger.WithFields(logrus.Fields{"to": job.To, "subject": subject}).Info("email sent")
	return false, nil
}
