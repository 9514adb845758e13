// Package snapshot keeps the latest risk-score snapshot per challenge
// in Redis so dashboards read current risk without touching the
// aggregates.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/fundedlabs/propcore/internal/domain"
)

// Config holds the Redis connection settings.
type Config struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Store writes risk-score snapshots keyed by challenge ID.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewStore connects to Redis. A zero TTL keeps snapshots forever.
func NewStore(cfg Config, logger *zap.Logger) *Store {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Store{client: client, ttl: cfg.TTL, logger: logger}
}

func scoreKey(challengeID string) string {
	return "propcore:risk_score:" + challengeID
}

// Publish stores the most recent RiskScoreCalculated event of the
// batch; other event types pass through untouched.
func (s *Store) Publish(ctx context.Context, events []domain.Event) error {
	for _, e := range events {
		score, ok := e.(domain.RiskScoreCalculated)
		if !ok {
			continue
		}
		value, err := json.Marshal(score)
		if err != nil {
			return fmt.Errorf("snapshot: marshal score for %s: %w", score.ChallengeID, err)
		}
		if err := s.client.Set(ctx, scoreKey(score.ChallengeID.String()), value, s.ttl).Err(); err != nil {
			return fmt.Errorf("snapshot: store score for %s: %w", score.ChallengeID, err)
		}
	}
	return nil
}

// Latest reads the stored score snapshot for a challenge; the bool is
// false when none exists.
func (s *Store) Latest(ctx context.Context, challengeID string) (domain.RiskScoreCalculated, bool, error) {
	raw, err := s.client.Get(ctx, scoreKey(challengeID)).Bytes()
	if err == redis.Nil {
		return domain.RiskScoreCalculated{}, false, nil
	}
	if err != nil {
		return domain.RiskScoreCalculated{}, false, fmt.Errorf("snapshot: load score for %s: %w", challengeID, err)
	}
	var score domain.RiskScoreCalculated
	if err := json.Unmarshal(raw, &score); err != nil {
		return domain.RiskScoreCalculated{}, false, fmt.Errorf("snapshot: decode score for %s: %w", challengeID, err)
	}
	return score, true, nil
}

// Close releases the Redis connection.
func (s *Store) Close() error { return s.client.Close() }
