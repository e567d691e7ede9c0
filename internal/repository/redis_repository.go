package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"lifeline/backend/internal/model"

	"github.com/redis/go-redis/v9"
)

// maxTxRetries bounds optimistic-lock retries for WATCH transactions.
const maxTxRetries = 3

type redisRepository struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisRepository stores conversations as hashes indexed by a recency
// sorted set and transcripts as per-conversation sorted sets scored by the
// message timestamp in microseconds. All keys start with prefix.
func NewRedisRepository(rdb *redis.Client, prefix string) Repository {
	return &redisRepository{rdb: rdb, prefix: prefix}
}

// Key Generation Helpers
func (r *redisRepository) conversationsKey() string { return r.prefix + "conversations" }
func (r *redisRepository) conversationKey(id string) string {
	return fmt.Sprintf("%sconversation:%s", r.prefix, id)
}
func (r *redisRepository) messagesKey(conversationID string) string {
	return fmt.Sprintf("%sconversation:%s:messages", r.prefix, conversationID)
}
func (r *redisRepository) messageKey(id string) string {
	return fmt.Sprintf("%smessage:%s", r.prefix, id)
}

// --- Conversation Operations ---

func (r *redisRepository) SaveConversation(ctx context.Context, conv *model.Conversation) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.conversationKey(conv.ID), conversationToHash(conv))
		pipe.ZAdd(ctx, r.conversationsKey(), redis.Z{Score: score(conv.UpdatedAt), Member: conv.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("could not save conversation: %w", err)
	}
	return nil
}

func (r *redisRepository) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	fields, err := r.rdb.HGetAll(ctx, r.conversationKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("could not get conversation: %w", err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return conversationFromHash(fields)
}

func (r *redisRepository) ListConversations(ctx context.Context) ([]model.Conversation, error) {
	ids, err := r.rdb.ZRevRange(ctx, r.conversationsKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("could not list conversations: %w", err)
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, r.conversationKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not load conversations: %w", err)
	}

	conversations := make([]model.Conversation, 0, len(ids))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		conv, err := conversationFromHash(fields)
		if err != nil {
			return nil, err
		}
		conversations = append(conversations, *conv)
	}
	return conversations, nil
}

func (r *redisRepository) TouchConversation(ctx context.Context, id string, title *string, at time.Time) error {
	key := r.conversationKey(id)
	return r.watch(ctx, func(tx *redis.Tx) error {
		if err := requireExists(ctx, tx, key); err != nil {
			return err
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, "updated_at", at.UnixMicro())
			if title != nil {
				pipe.HSet(ctx, key, "title", *title)
			}
			pipe.ZAdd(ctx, r.conversationsKey(), redis.Z{Score: score(at), Member: id})
			return nil
		})
		return err
	}, key)
}

// DeleteConversation removes the transcript and the conversation in one
// MULTI/EXEC block.
func (r *redisRepository) DeleteConversation(ctx context.Context, id string) error {
	key := r.conversationKey(id)
	msgsKey := r.messagesKey(id)
	existed := false

	err := r.watch(ctx, func(tx *redis.Tx) error {
		n, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		existed = n > 0

		msgIDs, err := tx.ZRange(ctx, msgsKey, 0, -1).Result()
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(msgIDs) > 0 {
				pipe.Del(ctx, r.messageKeys(msgIDs)...)
			}
			pipe.Del(ctx, msgsKey, key)
			pipe.ZRem(ctx, r.conversationsKey(), id)
			return nil
		})
		return err
	}, key, msgsKey)
	if err != nil {
		return fmt.Errorf("could not delete conversation: %w", err)
	}
	if !existed {
		return ErrNotFound
	}
	return nil
}

// --- Message Operations ---

func (r *redisRepository) AddMessage(ctx context.Context, msg *model.Message) error {
	key := r.conversationKey(msg.ConversationID)
	return r.watch(ctx, func(tx *redis.Tx) error {
		if err := requireExists(ctx, tx, key); err != nil {
			return err
		}
		_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, r.messageKey(msg.ID), messageToHash(msg))
			pipe.ZAdd(ctx, r.messagesKey(msg.ConversationID), redis.Z{Score: score(msg.Timestamp), Member: msg.ID})
			pipe.HSet(ctx, key, "updated_at", msg.Timestamp.UnixMicro())
			pipe.ZAdd(ctx, r.conversationsKey(), redis.Z{Score: score(msg.Timestamp), Member: msg.ConversationID})
			return nil
		})
		return err
	}, key)
}

func (r *redisRepository) GetMessages(ctx context.Context, conversationID string) ([]model.Message, error) {
	msgIDs, err := r.rdb.ZRange(ctx, r.messagesKey(conversationID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("could not get message ids: %w", err)
	}
	if len(msgIDs) == 0 {
		return []model.Message{}, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(msgIDs))
	_, err = r.rdb.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range msgIDs {
			cmds[i] = pipe.HGetAll(ctx, r.messageKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("could not load messages: %w", err)
	}

	messages := make([]model.Message, 0, len(msgIDs))
	for _, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			continue
		}
		msg, err := messageFromHash(fields)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	return messages, nil
}

// DeleteAll removes every key under the repository prefix.
func (r *redisRepository) DeleteAll(ctx context.Context) error {
	keys, err := r.scan(ctx, r.prefix+"*")
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("could not delete keys: %w", err)
	}
	return nil
}

// DeleteOrphanedMessages walks every transcript set and drops the ones whose
// conversation hash no longer exists.
func (r *redisRepository) DeleteOrphanedMessages(ctx context.Context) (int, error) {
	setKeys, err := r.scan(ctx, r.prefix+"conversation:*:messages")
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, setKey := range setKeys {
		id := setKey[len(r.prefix+"conversation:") : len(setKey)-len(":messages")]
		n, err := r.rdb.Exists(ctx, r.conversationKey(id)).Result()
		if err != nil {
			return removed, fmt.Errorf("could not check conversation: %w", err)
		}
		if n > 0 {
			continue
		}

		msgIDs, err := r.rdb.ZRange(ctx, setKey, 0, -1).Result()
		if err != nil {
			return removed, fmt.Errorf("could not get orphaned message ids: %w", err)
		}
		_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if len(msgIDs) > 0 {
				pipe.Del(ctx, r.messageKeys(msgIDs)...)
			}
			pipe.Del(ctx, setKey)
			return nil
		})
		if err != nil {
			return removed, fmt.Errorf("could not delete orphaned messages: %w", err)
		}
		removed += len(msgIDs)
	}
	return removed, nil
}

// --- Helper Functions ---

// watch runs fn under WATCH on keys, retrying when another client touched
// them before EXEC.
func (r *redisRepository) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	var err error
	for i := 0; i < maxTxRetries; i++ {
		err = r.rdb.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}
	return err
}

func (r *redisRepository) scan(ctx context.Context, pattern string) ([]string, error) {
	var keys []string
	iter := r.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("could not scan keys: %w", err)
	}
	return keys, nil
}

func (r *redisRepository) messageKeys(ids []string) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = r.messageKey(id)
	}
	return keys
}

func requireExists(ctx context.Context, tx *redis.Tx, key string) error {
	n, err := tx.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// score keeps microsecond precision; current unix microseconds fit in a
// float64 mantissa exactly.
func score(t time.Time) float64 { return float64(t.UnixMicro()) }

func conversationToHash(conv *model.Conversation) map[string]any {
	return map[string]any{
		"id":         conv.ID,
		"title":      conv.Title,
		"created_at": conv.CreatedAt.UnixMicro(),
		"updated_at": conv.UpdatedAt.UnixMicro(),
	}
}

func conversationFromHash(fields map[string]string) (*model.Conversation, error) {
	created, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid created_at for conversation %q: %w", fields["id"], err)
	}
	updated, err := strconv.ParseInt(fields["updated_at"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid updated_at for conversation %q: %w", fields["id"], err)
	}
	return &model.Conversation{
		ID:        fields["id"],
		Title:     fields["title"],
		CreatedAt: time.UnixMicro(created).UTC(),
		UpdatedAt: time.UnixMicro(updated).UTC(),
	}, nil
}

func messageToHash(msg *model.Message) map[string]any {
	return map[string]any{
		"id":              msg.ID,
		"conversation_id": msg.ConversationID,
		"role":            string(msg.Role),
		"content":         msg.Content,
		"timestamp":       msg.Timestamp.UnixMicro(),
	}
}

func messageFromHash(fields map[string]string) (*model.Message, error) {
	ts, err := strconv.ParseInt(fields["timestamp"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp for message %q: %w", fields["id"], err)
	}
	return &model.Message{
		ID:             fields["id"],
		ConversationID: fields["conversation_id"],
		Role:           model.Role(fields["role"]),
		Content:        fields["content"],
		Timestamp:      time.UnixMicro(ts).UTC(),
	}, nil
}
