package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"plant-shop/internal/catalog/domain/model"
	"plant-shop/internal/catalog/domain/repository"
	"plant-shop/internal/shared/logger"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cast"
)

var _ repository.ChangeLog = (*RedisChangeLog)(nil)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// StreamPrefix namespaces the per-collection change streams.
const StreamPrefix = "plantshop:changes:"

const (
	replayBatchSize = 1000
	scanBatchSize   = 100
)

// RedisChangeLog stores change events in one Redis stream per collection.
// Stream entry ids double as resume tokens.
type RedisChangeLog struct {
	client *redis.Client
	maxLen int64
	logger logger.Logger
}

// NewRedisChangeLog creates a change log that keeps roughly maxLen entries per collection.
func NewRedisChangeLog(client *redis.Client, maxLen int64, log logger.Logger) *RedisChangeLog {
	return &RedisChangeLog{
		client: client,
		maxLen: maxLen,
		logger: log.WithComponent("redis-change-log"),
	}
}

// StreamKey returns the stream name for a collection.
func StreamKey(collection string) string {
	return StreamPrefix + collection
}

// Append writes the event and returns its stream id.
func (r *RedisChangeLog) Append(ctx context.Context, event *model.ChangeEvent) (string, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return "", fmt.Errorf("encode event data: %w", err)
	}

	id, err := r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: StreamKey(event.Collection),
		MaxLen: r.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"type":       string(event.Type),
			"collection": event.Collection,
			"documentId": event.DocumentID,
			"data":       data,
			"timestamp":  event.Timestamp.UnixNano(),
		},
	}).Result()
	if err != nil {
		r.logger.Errorf("Failed to append %s event for %s/%s: %v", event.Type, event.Collection, event.DocumentID, err)
		return "", err
	}

	r.logger.Debugf("Appended %s event %s to %s", event.Type, id, StreamKey(event.Collection))
	return id, nil
}

// Since returns events strictly after resumeToken, oldest first.
func (r *RedisChangeLog) Since(ctx context.Context, collection, resumeToken string) ([]*model.ChangeEvent, error) {
	start := "-"
	if resumeToken != "" {
		start = "(" + resumeToken
	}

	msgs, err := r.client.XRangeN(ctx, StreamKey(collection), start, "+", replayBatchSize).Result()
	if err != nil {
		if err == redis.Nil {
			return []*model.ChangeEvent{}, nil
		}
		return nil, fmt.Errorf("read %s: %w", StreamKey(collection), err)
	}

	events := make([]*model.ChangeEvent, 0, len(msgs))
	for _, msg := range msgs {
		event, err := parseMessage(msg)
		if err != nil {
			r.logger.Warnf("Skipping malformed change entry %s: %v", msg.ID, err)
			continue
		}
		events = append(events, event)
	}
	return events, nil
}

// Trim caps every change stream at maxLen entries and returns the number removed.
func (r *RedisChangeLog) Trim(ctx context.Context) (int64, error) {
	var (
		cursor  uint64
		removed int64
	)
	for {
		keys, next, err := r.client.Scan(ctx, cursor, StreamPrefix+"*", scanBatchSize).Result()
		if err != nil {
			return removed, fmt.Errorf("scan change streams: %w", err)
		}
		for _, key := range keys {
			n, err := r.client.XTrimMaxLen(ctx, key, r.maxLen).Result()
			if err != nil {
				r.logger.Warnf("Failed to trim %s: %v", key, err)
				continue
			}
			removed += n
		}
		if next == 0 {
			break
		}
		cursor = next
	}

	if removed > 0 {
		r.logger.Infof("Trimmed %d change entries", removed)
	}
	return removed, nil
}

func parseMessage(msg redis.XMessage) (*model.ChangeEvent, error) {
	changeType := cast.ToString(msg.Values["type"])
	if changeType == "" {
		return nil, fmt.Errorf("missing type")
	}

	event := &model.ChangeEvent{
		Type:        model.ChangeType(changeType),
		Collection:  cast.ToString(msg.Values["collection"]),
		DocumentID:  cast.ToString(msg.Values["documentId"]),
		Timestamp:   time.Unix(0, cast.ToInt64(msg.Values["timestamp"])).UTC(),
		ResumeToken: msg.ID,
	}

	if raw := cast.ToString(msg.Values["data"]); raw != "" && raw != "null" {
		data := make(map[string]interface{})
		if err := json.Unmarshal([]byte(raw), &data); err != nil {
			return nil, fmt.Errorf("decode data: %w", err)
		}
		event.Data = data
	}
	if strings.TrimSpace(event.Collection) == "" {
		return nil, fmt.Errorf("missing collection")
	}
	return event, nil
}
