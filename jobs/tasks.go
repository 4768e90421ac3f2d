package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/companyprofile/internal/company"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeSendEmail is the task type for sending transactional emails.
	TaskTypeSendEmail = "mail:send"
)

// SendEmailPayload describes the information required to send an email.
type SendEmailPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// NewSendEmailTask constructs an Asynq task.
func NewSendEmailTask(payload SendEmailPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeSendEmail, data, asynq.MaxRetry(5), asynq.Timeout(30*time.Second)), nil
}

// ChangeEmail renders the notification email for a company change.
func ChangeEmail(notice company.ChangeNotice) SendEmailPayload {
	var subject, what string
	switch notice.Kind {
	case company.ChangePassword:
		subject = "Your company password was changed"
		what = "The password for your company profile was changed"
	default:
		subject = "Your company profile was updated"
		what = "The details of your company profile were updated"
	}
	name := notice.LegalName
	if name == "" {
		name = "your company"
	}
	body := fmt.Sprintf("Hello %s,\n\n%s on %s.\n\nIf you did not make this change, please review your profile.\n",
		name, what, notice.At.UTC().Format("02 Jan 2006 15:04 MST"))
	return SendEmailPayload{To: notice.Email, Subject: subject, Body: body}
}

// Mailer delivers a single email.
type Mailer interface {
	Send(ctx context.Context, msg SendEmailPayload) error
}

// NewSendEmailHandler returns the TaskTypeSendEmail handler backed by mailer.
func NewSendEmailHandler(mailer Mailer, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload SendEmailPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("decode email payload: %v: %w", err, asynq.SkipRetry)
		}
		if payload.To == "" {
			return fmt.Errorf("email without recipient: %w", asynq.SkipRetry)
		}
		if err := mailer.Send(ctx, payload); err != nil {
			return err
		}
		if logger != nil {
			logger.Info("email sent", slog.String("subject", payload.Subject))
		}
		return nil
	}
}
