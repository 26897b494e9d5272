// Package prefs caches per-user UI preferences in Redis. The cache fronts
// the user_prefs table so contractor switches survive restarts without a
// round trip on the hot path.
package prefs

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/stavlog/stavlog-backend/internal/remote"
)

const (
	lastContractorKeyPrefix = "prefs:contractor:" // prefs:contractor:{user_id} -> contractor_id
	filterYearKeyPrefix     = "prefs:year:"       // prefs:year:{user_id} -> year
	prefsTTL                = 30 * 24 * time.Hour
	prefsTable              = "user_prefs"
)

var ErrNotSet = errors.New("preference not set")

// Store reads through Redis and writes through to the user_prefs table so
// the next full load sees the same values.
type Store struct {
	client *redis.Client
	source *remote.Client
}

func NewStore(client *redis.Client, source *remote.Client) *Store {
	return &Store{client: client, source: source}
}

// LastContractor returns the contractor the user last worked under, or
// ErrNotSet when nothing has ever been recorded.
func (s *Store) LastContractor(ctx context.Context, userID string) (string, error) {
	val, err := s.client.Get(ctx, s.contractorKey(userID)).Result()
	if err == nil {
		return val, nil
	}
	if !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("failed to read last contractor: %w", err)
	}

	rec, err := s.fetchRow(ctx, userID)
	if err != nil {
		return "", err
	}
	id := rec.String("last_contractor_id")
	if id == "" {
		return "", ErrNotSet
	}
	s.client.Set(ctx, s.contractorKey(userID), id, prefsTTL)
	return id, nil
}

// SetLastContractor persists the selection in both Redis and the table.
func (s *Store) SetLastContractor(ctx context.Context, userID, contractorID string) error {
	if err := s.client.Set(ctx, s.contractorKey(userID), contractorID, prefsTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache last contractor: %w", err)
	}
	return s.upsertRow(ctx, userID, remote.Record{
		"user_id":            userID,
		"last_contractor_id": contractorID,
	})
}

// FilterYear returns the saved invoice filter year, or ErrNotSet.
func (s *Store) FilterYear(ctx context.Context, userID string) (int, error) {
	val, err := s.client.Get(ctx, s.yearKey(userID)).Result()
	if err == nil {
		year, convErr := strconv.Atoi(val)
		if convErr == nil {
			return year, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return 0, fmt.Errorf("failed to read filter year: %w", err)
	}

	rec, err := s.fetchRow(ctx, userID)
	if err != nil {
		return 0, err
	}
	year := rec.Int("filter_year")
	if year == 0 {
		return 0, ErrNotSet
	}
	s.client.Set(ctx, s.yearKey(userID), strconv.Itoa(year), prefsTTL)
	return year, nil
}

func (s *Store) SetFilterYear(ctx context.Context, userID string, year int) error {
	if err := s.client.Set(ctx, s.yearKey(userID), strconv.Itoa(year), prefsTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache filter year: %w", err)
	}
	return s.upsertRow(ctx, userID, remote.Record{
		"user_id":     userID,
		"filter_year": year,
	})
}

func (s *Store) fetchRow(ctx context.Context, userID string) (remote.Record, error) {
	recs, err := s.source.Select(ctx, prefsTable,
		remote.NewQuery().Eq("user_id", userID).WithLimit(1))
	if err != nil {
		return nil, fmt.Errorf("failed to load preferences: %w", err)
	}
	if len(recs) == 0 {
		return nil, ErrNotSet
	}
	return recs[0], nil
}

func (s *Store) upsertRow(ctx context.Context, userID string, rec remote.Record) error {
	if _, err := s.source.Upsert(ctx, prefsTable, rec, "user_id"); err != nil {
		return fmt.Errorf("failed to persist preferences: %w", err)
	}
	return nil
}

func (s *Store) contractorKey(userID string) string {
	return lastContractorKeyPrefix + userID
}

func (s *Store) yearKey(userID string) string {
	return filterYearKeyPrefix + userID
}
