// Package worker runs the background email dispatcher: it drains the Redis
// email queue, delivers over SMTP, and records every attempt in email_logs.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/dojohub/backend/internal/emaillogs"
	"github.com/dojohub/backend/internal/mailer"
	"github.com/dojohub/backend/internal/models"
	"github.com/dojohub/backend/pkg/queue"
)

// EmailProcessor delivers queued email jobs.
type EmailProcessor struct {
	mailer *mailer.Mailer
	logs   *emaillogs.Repository
	queue  *queue.Queue
	logger *zap.Logger
}

// NewEmailProcessor creates an email job processor.
func NewEmailProcessor(m *mailer.Mailer, logs *emaillogs.Repository, q *queue.Queue, logger *zap.Logger) *EmailProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmailProcessor{mailer: m, logs: logs, queue: q, logger: logger}
}

// Process executes one email job and records the outcome.
func (p *EmailProcessor) Process(ctx context.Context, job *queue.Job) error {
	var payload queue.EmailPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}

	body := payload.Merge["body"]
	if body == "" {
		body = mailer.RenderBody(payload.Merge)
	}

	sendErr := p.mailer.Send(payload.RecipientEmail, payload.Subject, body)

	el := &models.EmailLog{
		SessionID:      payload.SessionID,
		MeetingID:      payload.MeetingID,
		EmailType:      payload.EmailType,
		RecipientEmail: payload.RecipientEmail,
		Subject:        payload.Subject,
		BodyText:       body,
		Status:         models.EmailLogStatusSent,
	}
	if sendErr != nil {
		el.Status = models.EmailLogStatusFailed
		el.ErrorMessage = sendErr.Error()
	} else {
		now := time.Now().UTC()
		el.SentAt = &now
	}
	if err := p.logs.Create(ctx, el); err != nil {
		p.logger.Error("email log write failed", zap.Error(err), zap.String("job_id", job.ID))
	}

	if sendErr != nil {
		return fmt.Errorf("send email: %w", sendErr)
	}
	p.logger.Info("email sent",
		zap.String("job_id", job.ID),
		zap.String("email_type", payload.EmailType),
		zap.String("recipient", payload.RecipientEmail),
	)
	return nil
}

// Run starts the worker loop: dequeue, process, retry on error.
func (p *EmailProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("email worker stopping")
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Warn("dequeue error", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		if job == nil {
			continue
		}

		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("email job failed", zap.Error(err), zap.String("job_id", job.ID))
			if err := p.queue.Retry(ctx, job); err != nil {
				p.logger.Error("retry failed", zap.Error(err), zap.String("job_id", job.ID))
			}
		}
	}
}
