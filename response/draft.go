package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrNoDraft = errors.New("no draft saved")

// DraftStore keeps work-in-progress submissions. Drafts are not validated.
type DraftStore interface {
	Save(ctx context.Context, sub *Submission) error
	Load(ctx context.Context, ceremonyID, userID uint) (*Submission, error)
	Delete(ctx context.Context, ceremonyID, userID uint) error
}

// RedisDraftStore stores drafts as JSON values that expire after ttl.
type RedisDraftStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisDraftStore(rdb *redis.Client, ttl time.Duration) *RedisDraftStore {
	return &RedisDraftStore{rdb: rdb, ttl: ttl}
}

func draftKey(ceremonyID, userID uint) string {
	return fmt.Sprintf("draft:%d:%d", ceremonyID, userID)
}

func (s *RedisDraftStore) Save(ctx context.Context, sub *Submission) error {
	data, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}
	if err := s.rdb.Set(ctx, draftKey(sub.CeremonyID, sub.UserID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

func (s *RedisDraftStore) Load(ctx context.Context, ceremonyID, userID uint) (*Submission, error) {
	data, err := s.rdb.Get(ctx, draftKey(ceremonyID, userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoDraft
	}
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	var sub Submission
	if err := json.Unmarshal(data, &sub); err != nil {
		return nil, fmt.Errorf("decode draft: %w", err)
	}
	sub.UserID = userID
	return &sub, nil
}

func (s *RedisDraftStore) Delete(ctx context.Context, ceremonyID, userID uint) error {
	if err := s.rdb.Del(ctx, draftKey(ceremonyID, userID)).Err(); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}
