package worker

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/classpoint/cbt-backend/internal/config"
)

const ReaperInterval = 5 * time.Minute

// ReaperWorker sweeps stale per-student active-passcode pointers out of the
// cache. Snapshot keys expire on their own TTLs; the pointer can outlive a
// revocation performed while Redis was unreachable, which this loop fixes.
type ReaperWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewReaperWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ReaperWorker {
	return &ReaperWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "reaper_worker").Logger(),
	}
}

func (w *ReaperWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ReaperWorker started")

	ticker := time.NewTicker(ReaperInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested")
			return
		case <-ticker.C:
			w.sweep(ctx)
		}
	}
}

// sweep walks the active-pointer keyspace and drops any pointer whose code
// is no longer live in the durable store.
func (w *ReaperWorker) sweep(ctx context.Context) {
	var cursor uint64
	var removed int

	for {
		keys, next, err := w.rdb.Scan(ctx, cursor, "passcode:student:*", 100).Result()
		if err != nil {
			w.log.Error().Err(err).Msg("Scan failed")
			return
		}

		for _, key := range keys {
			code, err := w.rdb.Get(ctx, key).Result()
			if err != nil {
				continue
			}

			var live bool
			err = w.pool.QueryRow(ctx,
				`SELECT EXISTS (
					SELECT 1 FROM passcodes
					WHERE code = $1 AND is_used = FALSE AND expires_at > NOW()
				)`, code).Scan(&live)
			if err != nil {
				w.log.Error().Err(err).Msg("Liveness check failed")
				continue
			}

			if !live {
				if err := w.rdb.Del(ctx, key, config.CacheKey.PasscodeKey(code)).Err(); err == nil {
					removed++
				}
			}
		}

		cursor = next
		if cursor == 0 {
			break
		}
	}

	if removed > 0 {
		w.log.Info().Int("removed", removed).Msg("Stale passcode pointers reaped")
	}
}
