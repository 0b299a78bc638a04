package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"nids-alert-engine/internal/model"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	rulesKey         = "nids:alert_rules"
	alertsByIDKey    = "nids:alerts:byid"
	alertTimelineKey = "nids:alerts:timeline"
	historyKeyPrefix = "nids:alerts:history:"
)

// RedisStore persists rules, alerts and history in Redis. Alerts live in a
// hash keyed by id plus a timeline ZSET scored by unix time for range
// queries.
type RedisStore struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(addr, password string, db int, logger *logrus.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, logger: logger}, nil
}

func (s *RedisStore) LoadEnabledRules(ctx context.Context) ([]model.AlertRule, error) {
	data, err := s.client.HGetAll(ctx, rulesKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	rules := make([]model.AlertRule, 0, len(data))
	for id, raw := range data {
		var rule model.AlertRule
		if err := json.Unmarshal([]byte(raw), &rule); err != nil {
			s.logger.Warnf("Skipping malformed rule %s: %v", id, err)
			continue
		}
		if rule.Enabled {
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

func (s *RedisStore) InsertRule(ctx context.Context, rule model.AlertRule) error {
	data, err := json.Marshal(rule)
	if err != nil {
		return fmt.Errorf("failed to marshal rule %s: %w", rule.ID, err)
	}
	if err := s.client.HSet(ctx, rulesKey, rule.ID, string(data)).Err(); err != nil {
		return fmt.Errorf("failed to store rule %s: %w", rule.ID, err)
	}
	return nil
}

func (s *RedisStore) UpdateRule(ctx context.Context, rule model.AlertRule) error {
	exists, err := s.client.HExists(ctx, rulesKey, rule.ID).Result()
	if err != nil {
		return fmt.Errorf("failed to check rule %s: %w", rule.ID, err)
	}
	if !exists {
		return ErrNotFound
	}
	return s.InsertRule(ctx, rule)
}

func (s *RedisStore) DeleteRule(ctx context.Context, id string) error {
	removed, err := s.client.HDel(ctx, rulesKey, id).Result()
	if err != nil {
		return fmt.Errorf("failed to delete rule %s: %w", id, err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) InsertAlert(ctx context.Context, alert model.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert %s: %w", alert.ID, err)
	}

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, alertsByIDKey, alert.ID, string(data))
	pipe.ZAdd(ctx, alertTimelineKey, redis.Z{
		Score:  float64(alert.Timestamp.Unix()),
		Member: alert.ID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to store alert %s: %w", alert.ID, err)
	}
	return nil
}

func (s *RedisStore) GetAlert(ctx context.Context, id string) (*model.Alert, error) {
	raw, err := s.client.HGet(ctx, alertsByIDKey, id).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert %s: %w", id, err)
	}

	var alert model.Alert
	if err := json.Unmarshal([]byte(raw), &alert); err != nil {
		return nil, fmt.Errorf("failed to unmarshal alert %s: %w", id, err)
	}
	return &alert, nil
}

func (s *RedisStore) ListAlerts(ctx context.Context, q AlertQuery) ([]model.Alert, int64, error) {
	normalizeQuery(&q)

	min, max := "-inf", "+inf"
	if !q.StartDate.IsZero() {
		min = strconv.FormatInt(q.StartDate.Unix(), 10)
	}
	if !q.EndDate.IsZero() {
		max = strconv.FormatInt(q.EndDate.Unix(), 10)
	}

	ids, err := s.client.ZRevRangeByScore(ctx, alertTimelineKey, &redis.ZRangeBy{
		Min: min,
		Max: max,
	}).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query alert timeline: %w", err)
	}
	if len(ids) == 0 {
		return []model.Alert{}, 0, nil
	}

	raws, err := s.client.HMGet(ctx, alertsByIDKey, ids...).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch alerts: %w", err)
	}

	filtered := make([]model.Alert, 0, len(raws))
	for _, raw := range raws {
		str, ok := raw.(string)
		if !ok {
			continue
		}
		var alert model.Alert
		if err := json.Unmarshal([]byte(str), &alert); err != nil {
			continue
		}
		if matchesQuery(&alert, &q) {
			filtered = append(filtered, alert)
		}
	}

	total := int64(len(filtered))
	start := (q.Page - 1) * q.PerPage
	if start >= len(filtered) {
		return []model.Alert{}, total, nil
	}
	end := start + q.PerPage
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end], total, nil
}

func (s *RedisStore) AcknowledgeAlert(ctx context.Context, id, user string, at time.Time) error {
	return s.mutateAlert(ctx, id, func(a *model.Alert) {
		a.Acknowledged = true
		a.AcknowledgedBy = user
		a.AcknowledgedAt = &at
	})
}

func (s *RedisStore) ResolveAlert(ctx context.Context, id, user string, at time.Time) error {
	return s.mutateAlert(ctx, id, func(a *model.Alert) {
		a.Resolved = true
		a.ResolvedBy = user
		a.ResolvedAt = &at
	})
}

func (s *RedisStore) mutateAlert(ctx context.Context, id string, mutate func(*model.Alert)) error {
	alert, err := s.GetAlert(ctx, id)
	if err != nil {
		return err
	}
	mutate(alert)

	data, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("failed to marshal alert %s: %w", id, err)
	}
	if err := s.client.HSet(ctx, alertsByIDKey, id, string(data)).Err(); err != nil {
		return fmt.Errorf("failed to update alert %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) AppendHistory(ctx context.Context, entry model.AlertHistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}
	key := historyKeyPrefix + entry.AlertID
	if err := s.client.RPush(ctx, key, string(data)).Err(); err != nil {
		return fmt.Errorf("failed to append history for %s: %w", entry.AlertID, err)
	}
	return nil
}

func (s *RedisStore) GetHistory(ctx context.Context, alertID string) ([]model.AlertHistoryEntry, error) {
	raws, err := s.client.LRange(ctx, historyKeyPrefix+alertID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history for %s: %w", alertID, err)
	}

	entries := make([]model.AlertHistoryEntry, 0, len(raws))
	for _, raw := range raws {
		var entry model.AlertHistoryEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
