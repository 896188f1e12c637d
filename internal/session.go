package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Sessions stores issued tokens in Redis so logout actually revokes them.
type Sessions struct {
	rdb *redis.Client
}

type SessionData struct {
	PlayerID  int       `json:"player_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func NewSessions(addr, password string) *Sessions {
	return &Sessions{rdb: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})}
}

func sessionKey(token string) string {
	return fmt.Sprintf("session:%s", token)
}

func (s *Sessions) Set(ctx context.Context, token string, data *SessionData, ttl time.Duration) error {
	b, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(token), b, ttl).Err()
}

func (s *Sessions) Exists(ctx context.Context, token string) (bool, error) {
	n, err := s.rdb.Exists(ctx, sessionKey(token)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Sessions) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, sessionKey(token)).Err()
}
