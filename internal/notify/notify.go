// Package notify is the outbound-notification boundary. The ledger and the
// donations handler hand it a templated message; the queue-backed dispatcher
// pushes it to Redis so delivery happens in the worker, outside any request
// or transaction.
package notify

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dojohub/backend/config"
	"github.com/dojohub/backend/pkg/queue"
)

// Message is one templated email to one recipient.
type Message struct {
	Recipient string
	Subject   string
	Template  string
	Merge     map[string]string

	// Optional event linkage recorded on the email log.
	SessionID *uuid.UUID
	MeetingID *uuid.UUID
}

// Notifier delivers a message. DeliveryError stays on this side of the
// boundary: callers log it and move on.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// QueueDispatcher enqueues messages as email jobs for the worker.
type QueueDispatcher struct {
	queue  *queue.Queue
	site   config.SiteConfig
	logger *zap.Logger
}

// NewQueueDispatcher creates a dispatcher backed by the Redis job queue.
func NewQueueDispatcher(q *queue.Queue, site config.SiteConfig, logger *zap.Logger) *QueueDispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueDispatcher{queue: q, site: site, logger: logger}
}

// Send enriches the merge data with the global variables every template gets
// and enqueues the job.
func (d *QueueDispatcher) Send(ctx context.Context, msg Message) error {
	merge := make(map[string]string, len(msg.Merge)+3)
	for k, v := range msg.Merge {
		merge[k] = v
	}
	merge["company"] = d.site.Company
	merge["site_url"] = d.site.URL
	merge["current_year"] = strconv.Itoa(time.Now().Year())

	return d.queue.EnqueueEmail(ctx, queue.EmailPayload{
		EmailType:      msg.Template,
		RecipientEmail: msg.Recipient,
		Subject:        msg.Subject,
		Merge:          merge,
		SessionID:      msg.SessionID,
		MeetingID:      msg.MeetingID,
	})
}
