package server

import (
	"context"
	"log"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"

	"github.com/mohammad-safakhou/wayfarer/internal/chat"
)

// Sweeper runs the session retention sweep out of band. It wakes hourly,
// checks whether the configured cron schedule is due since the last sweep and
// purges sessions idle longer than Days. With Redis available a SetNX lock
// keeps a single replica sweeping.
type Sweeper struct {
	Store chat.ConversationStore
	Rdb   *redis.Client
	Days  int
	Cron  string
	Stop  chan struct{}

	lastSweep time.Time
	logger    *log.Logger
}

func (s *Sweeper) Start() {
	if s.logger == nil {
		s.logger = log.New(log.Writer(), "[SWEEP] ", log.LstdFlags)
	}
	ticker := time.NewTicker(1 * time.Hour)
	go func() {
		for {
			select {
			case <-s.Stop:
				ticker.Stop()
				return
			case <-ticker.C:
				s.tick(time.Now())
			}
		}
	}()
}

func (s *Sweeper) tick(now time.Time) {
	if !s.due(now) {
		return
	}
	ctx := context.Background()
	if s.Rdb != nil {
		ok, _ := s.Rdb.SetNX(ctx, "sweep:lock", "1", 10*time.Minute).Result()
		if !ok {
			return
		}
		defer s.Rdb.Del(ctx, "sweep:lock")
	}

	cutoff := now.AddDate(0, 0, -s.Days)
	n, err := s.Store.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		s.logger.Printf("purge failed: %v", err)
		return
	}
	s.lastSweep = now
	if n > 0 {
		s.logger.Printf("purged %d sessions idle since %s", n, cutoff.Format(time.RFC3339))
	}
}

// due reports whether the cron schedule has fired since the last sweep.
func (s *Sweeper) due(now time.Time) bool {
	expr, err := cronexpr.Parse(s.Cron)
	if err != nil {
		s.logger.Printf("bad retention cron %q: %v", s.Cron, err)
		return false
	}
	if s.lastSweep.IsZero() {
		return true
	}
	next := expr.Next(s.lastSweep)
	return !next.IsZero() && !next.After(now)
}
