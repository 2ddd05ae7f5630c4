package source

import (
	"chatapp-client/internal/models"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Redis keeps channel history in one sorted set per channel, scored by the createdAt
// of each message in unix milliseconds.
type Redis struct {
	client *redis.Client
	userID string
	now    func() time.Time
	sugar  *zap.SugaredLogger
}

func NewRedis(sugar *zap.SugaredLogger, client *redis.Client, userID string) *Redis {
	return &Redis{
		client: client,
		userID: userID,
		now:    time.Now,
		sugar:  sugar,
	}
}

func channelMessagesKey(channelID string) string {
	return fmt.Sprintf("channel:%s:messages", channelID)
}

// maxScore is the upper bound of a history page. Scores are whole milliseconds, so the
// cursor's own millisecond is included and olderThan drops what is not strictly older.
func maxScore(before *time.Time) string {
	if before == nil {
		return "+inf"
	}
	return fmt.Sprintf("%d", before.UnixMilli())
}

func olderThan(messages []models.Message, before *time.Time) []models.Message {
	if before == nil {
		return messages
	}
	older := messages[:0]
	for _, msg := range messages {
		if msg.CreatedAt.Before(*before) {
			older = append(older, msg)
		}
	}
	return older
}

func (r *Redis) AddMessage(ctx context.Context, msg models.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return r.client.ZAdd(ctx, channelMessagesKey(msg.ChannelID), redis.Z{
		Score:  float64(msg.CreatedAt.UnixMilli()),
		Member: string(data),
	}).Err()
}

func (r *Redis) FetchMessages(ctx context.Context, channelID string, before *time.Time, limit int) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	messages := make([]models.Message, 0, limit)
	// the cursor's millisecond can hold messages that are not older, keep reading past them
	for offset := int64(0); len(messages) < limit; {
		results, err := r.client.ZRevRangeByScore(ctx, channelMessagesKey(channelID), &redis.ZRangeBy{
			Min:    "-inf",
			Max:    maxScore(before),
			Offset: offset,
			Count:  int64(limit),
		}).Result()
		if err != nil {
			return nil, err
		}
		offset += int64(len(results))

		page := make([]models.Message, 0, len(results))
		for _, data := range results {
			var msg models.Message
			if err := json.Unmarshal([]byte(data), &msg); err != nil {
				r.sugar.Warnf("Skipping unreadable message in channel [%s]: %v", channelID, err)
				continue
			}
			page = append(page, msg)
		}
		messages = append(messages, olderThan(page, before)...)

		if len(results) < limit {
			break
		}
	}

	if len(messages) > limit {
		messages = messages[:limit]
	}
	return messages, nil
}

func (r *Redis) SendMessage(ctx context.Context, channelID string, content string) (models.Message, error) {
	msg := models.Message{
		ID:               uuid.NewString(),
		ChannelID:        channelID,
		SenderID:         r.userID,
		Content:          content,
		EncryptedContent: content,
		Nonce:            uuid.NewString(),
		CreatedAt:        r.now().UTC(),
		Attachments:      []models.Attachment{},
	}

	err := r.AddMessage(ctx, msg)
	if err != nil {
		return models.Message{}, err
	}

	return msg, nil
}
