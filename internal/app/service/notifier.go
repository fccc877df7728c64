package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

type MailKind string

const (
	MailVerification  MailKind = "verification"
	MailPasswordReset MailKind = "password_reset"
)

// Mail is the payload pushed to the mail queue.
type Mail struct {
	Kind  MailKind `json:"kind"`
	To    string   `json:"to"`
	Name  string   `json:"name"`
	Token string   `json:"token"`
	URL   string   `json:"url"`
}

// Notifier hands outbound mail to the delivery pipeline.
type Notifier interface {
	Enqueue(ctx context.Context, mail Mail) error
}

// listPusher is the subset of redis.Cmdable used by RedisNotifier.
type listPusher interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
}

// RedisNotifier pushes JSON encoded mail onto a Redis list drained by the mail worker.
type RedisNotifier struct {
	rdb   listPusher
	queue string
}

func NewRedisNotifier(rdb listPusher, queue string) *RedisNotifier {
	return &RedisNotifier{rdb: rdb, queue: queue}
}

func (n *RedisNotifier) Enqueue(ctx context.Context, mail Mail) error {
	payload, err := json.Marshal(mail)
	if err != nil {
		return fmt.Errorf("failed to marshal %s mail: %w", mail.Kind, err)
	}

	if err := n.rdb.LPush(ctx, n.queue, payload).Err(); err != nil {
		return oops.Code("MAIL_ENQUEUE_FAILED").
			With("queue", n.queue).
			With("kind", string(mail.Kind)).
			Wrap(err)
	}
	return nil
}
