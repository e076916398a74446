package redis

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/CLillis357/VigilantIE/internal/alert"
)

const triggersKey = "alerts:trigger"

// TriggerStore persists the per-user edge-trigger state so restarts do not re-fire.
type TriggerStore struct {
	client *redis.Client
	key    string
}

func NewTriggerStore(client *redis.Client) *TriggerStore {
	return &TriggerStore{client: client, key: triggersKey}
}

func (s *TriggerStore) Get(ctx context.Context, userID string) (alert.State, error) {
	var st alert.State

	raw, err := s.client.HGet(ctx, s.key, userID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return st, nil
		}
		return st, err
	}
	if err := json.Unmarshal(raw, &st); err != nil {
		return st, err
	}
	return st, nil
}

func (s *TriggerStore) Set(ctx context.Context, userID string, st alert.State) error {
	b, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return s.client.HSet(ctx, s.key, userID, b).Err()
}
