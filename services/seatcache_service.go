package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"event-checkout/internal/services/ticketing"
	"event-checkout/models"
	"event-checkout/monitoring"
)

// SeatCacheService mirrors backend seat statuses in Redis so seat clicks
// can be validated without a round trip per click. The cache is refreshed
// when a show is activated and, optionally, on a fixed auto-reload
// interval; whichever sync finishes last wins.
type SeatCacheService struct {
	Redis  *redis.Client
	client *ticketing.Client
	ttl    time.Duration
}

func NewSeatCacheService(redisClient *redis.Client, client *ticketing.Client, ttl time.Duration) *SeatCacheService {
	return &SeatCacheService{
		Redis:  redisClient,
		client: client,
		ttl:    ttl,
	}
}

// SyncShowSeats pulls the current statuses for one show and overwrites the
// cache. Stale in-flight polls are harmless: the latest successful response
// always overwrites.
func (s *SeatCacheService) SyncShowSeats(ctx context.Context, eventID, showID string) error {
	seats, err := s.client.GetShowSeats(ctx, eventID, showID)
	if err != nil {
		return fmt.Errorf("syncShowSeats: %w", err)
	}

	for _, seat := range seats {
		seatKey := fmt.Sprintf("seat:%s:%s", showID, seat.ID)
		s.Redis.HSet(ctx, seatKey,
			"status", seat.Status,
			"synced_at", time.Now().Unix(),
		)
		s.Redis.Expire(ctx, seatKey, s.ttl)
	}

	monitoring.TrackSeatSync(showID, len(seats))
	return nil
}

// GetSeatStatuses answers from the cache only. A seat with no cache entry
// is reported available; the backend rechecks everything at submission.
func (s *SeatCacheService) GetSeatStatuses(ctx context.Context, showID string, seatIDs []string) (map[string]string, error) {
	statuses := make(map[string]string)

	for _, seatID := range seatIDs {
		seatKey := fmt.Sprintf("seat:%s:%s", showID, seatID)
		st, err := s.Redis.HGet(ctx, seatKey, "status").Result()

		if err == redis.Nil {
			statuses[seatID] = models.SeatAvailable
		} else if err != nil {
			return nil, err
		} else {
			statuses[seatID] = st
		}
	}

	return statuses, nil
}

// AutoReload re-syncs one show on a fixed interval until the context is
// cancelled. Started when the UI's auto-reload toggle is turned on and
// stopped by cancelling the returned context on toggle-off or teardown.
func (s *SeatCacheService) AutoReload(ctx context.Context, eventID, showID string, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.SyncShowSeats(ctx, eventID, showID); err != nil {
				// No retry beyond the next tick; failures only surface
				// as a stale view.
				log.Printf("seat auto-reload failed for show %s: %v", showID, err)
			}
		}
	}
}
