package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/CLillis357/VigilantIE/internal/domain"
	"github.com/CLillis357/VigilantIE/pkg/e"
)

const positionsKey = "positions"

// PositionStore keeps the last known position of every user in one hash.
type PositionStore struct {
	client *redis.Client
	key    string
}

func NewPositionStore(client *redis.Client) *PositionStore {
	return &PositionStore{client: client, key: positionsKey}
}

// Get reports ok=false when the user has never sent a position.
func (s *PositionStore) Get(ctx context.Context, userID string) (domain.UserPosition, bool, error) {
	var pos domain.UserPosition

	raw, err := s.client.HGet(ctx, s.key, userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return pos, false, nil
		}
		return pos, false, err
	}
	if err := json.Unmarshal(raw, &pos); err != nil {
		return pos, false, err
	}
	return pos, true, nil
}

func (s *PositionStore) Set(ctx context.Context, userID string, pos domain.UserPosition) error {
	if userID == "" {
		return fmt.Errorf("redis.PositionStore.Set: %w", e.ErrInvalidInput)
	}
	b, err := json.Marshal(pos)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, s.key, userID, b).Err()
}

func (s *PositionStore) All(ctx context.Context) (map[string]domain.UserPosition, error) {
	raw, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, err
	}

	out := make(map[string]domain.UserPosition, len(raw))
	for userID, v := range raw {
		var pos domain.UserPosition
		if err := json.Unmarshal([]byte(v), &pos); err != nil {
			return nil, fmt.Errorf("position of %s: %w", userID, err)
		}
		out[userID] = pos
	}
	return out, nil
}
