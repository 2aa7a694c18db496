package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const presenceKeyPrefix = "chat_presence:"

// Presence answers "is this participant visible in this conversation right
// now" for delivery decisions. The registry already knows about sessions on
// this process; a shared presence store extends the answer across processes.
type Presence interface {
	MarkOnline(ctx context.Context, appointmentID, userID int64) error
	MarkOffline(ctx context.Context, appointmentID, userID int64) error
	IsOnline(ctx context.Context, appointmentID, userID int64) (bool, error)
}

// RedisPresence records conversation presence as TTL-bound redis keys, so a
// crashed process's sessions age out instead of appearing online forever.
// A nil *RedisPresence is a valid no-op: MarkOnline/MarkOffline succeed and
// IsOnline reports false, which falls back to registry-local knowledge.
type RedisPresence struct {
	redis  *redis.Client
	tracer trace.Tracer
	ttl    time.Duration
}

func NewRedisPresence(redisClient *redis.Client, ttl time.Duration) *RedisPresence {
	if redisClient == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 90 * time.Second
	}
	return &RedisPresence{
		redis:  redisClient,
		tracer: otel.Tracer("medibook.internal.chat.presence"),
		ttl:    ttl,
	}
}

func (p *RedisPresence) MarkOnline(ctx context.Context, appointmentID, userID int64) error {
	if p == nil || p.redis == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := p.tracer.Start(ctx, "chat.presence.mark_online")
	defer span.End()

	if err := p.redis.Set(ctx, presenceKey(appointmentID, userID), "1", p.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: mark presence online: %w", err)
	}
	return nil
}

func (p *RedisPresence) MarkOffline(ctx context.Context, appointmentID, userID int64) error {
	if p == nil || p.redis == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := p.tracer.Start(ctx, "chat.presence.mark_offline")
	defer span.End()

	if err := p.redis.Del(ctx, presenceKey(appointmentID, userID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("chat: mark presence offline: %w", err)
	}
	return nil
}

func (p *RedisPresence) IsOnline(ctx context.Context, appointmentID, userID int64) (bool, error) {
	if p == nil || p.redis == nil {
		return false, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := p.tracer.Start(ctx, "chat.presence.is_online")
	defer span.End()

	n, err := p.redis.Exists(ctx, presenceKey(appointmentID, userID)).Result()
	if err != nil {
		span.RecordError(err)
		return false, fmt.Errorf("chat: check presence: %w", err)
	}
	return n > 0, nil
}

func presenceKey(appointmentID, userID int64) string {
	return fmt.Sprintf("%s%d:%d", presenceKeyPrefix, appointmentID, userID)
}
