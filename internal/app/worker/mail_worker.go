package worker

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"account_service/internal/app/service"

	"github.com/redis/go-redis/v9"
)

// Sender delivers one mail.
type Sender interface {
	Send(ctx context.Context, mail service.Mail) error
}

// listPopper is the subset of redis.Cmdable used by MailWorker.
type listPopper interface {
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// MailWorker drains the mail queue filled by service.RedisNotifier.
type MailWorker struct {
	rdb     listPopper
	queue   string
	sender  Sender
	logger  *slog.Logger
	timeout time.Duration
	backoff time.Duration
}

func NewMailWorker(rdb listPopper, queue string, sender Sender, logger *slog.Logger) *MailWorker {
	return &MailWorker{
		rdb:     rdb,
		queue:   queue,
		sender:  sender,
		logger:  logger,
		timeout: 5 * time.Second,
		backoff: 5 * time.Second,
	}
}

// Start blocks until ctx is cancelled.
func (w *MailWorker) Start(ctx context.Context) {
	w.logger.Info("mail worker started", "queue", w.queue)
	for {
		if ctx.Err() != nil {
			w.logger.Info("mail worker stopping")
			return
		}

		// BRPop returns [queueName, value]. A finite timeout keeps the loop responsive to ctx.
		res, err := w.rdb.BRPop(ctx, w.timeout, w.queue).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			w.logger.Error("failed to pop from mail queue", "queue", w.queue, "error", err)
			w.sleep(ctx, w.backoff)
			continue
		}
		if len(res) < 2 || res[1] == "" {
			w.logger.Warn("mail queue returned an empty payload")
			continue
		}

		w.handle(ctx, res[1])
	}
}

func (w *MailWorker) handle(ctx context.Context, payload string) {
	var mail service.Mail
	if err := json.Unmarshal([]byte(payload), &mail); err != nil {
		w.logger.Error("dropping malformed mail payload", "error", err)
		return
	}
	if err := w.sender.Send(ctx, mail); err != nil {
		w.logger.Error("failed to send mail", "kind", mail.Kind, "error", err)
		return
	}
}

// sleep waits for d or until ctx ends.
func (w *MailWorker) sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// LogSender stands in for an SMTP or provider client: it records the delivery
// without the token or link.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, mail service.Mail) error {
	s.logger.InfoContext(ctx, "mail delivered", "kind", mail.Kind, "to", mail.To)
	return nil
}
