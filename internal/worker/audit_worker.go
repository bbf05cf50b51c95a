package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/classpoint/cbt-backend/internal/config"
	"github.com/classpoint/cbt-backend/internal/model"
)

const (
	AuditBatchSize    = 50
	AuditBatchTimeout = 2 * time.Second
	AuditPollTimeout  = 1 * time.Second
)

// AuditWorker drains the passcode event queue and batch-persists the audit
// trail. Events are append-only; nothing here ever deletes a row.
type AuditWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewAuditWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *AuditWorker {
	return &AuditWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "audit_worker").Logger(),
	}
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *AuditWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AuditWorker started")

	batch := make([]*model.PasscodeEvent, 0, AuditBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= AuditBatchSize || time.Since(lastFlush) >= AuditBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, AuditPollTimeout, config.WorkerKey.PasscodeEventsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var e model.PasscodeEvent
			if err := json.Unmarshal([]byte(item[1]), &e); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &e)
		}
	}
}

// ----------------------------------------------------------------
// Batch insert wrapper
// ----------------------------------------------------------------

func (w *AuditWorker) flushSafe(ctx context.Context, batch []*model.PasscodeEvent) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkInsertEvents(ctx, batch); err != nil {
		w.log.Warn().Err(err).Msg("bulk event insert failed, using fallback")

		for _, e := range batch {
			if err := w.persistSingle(ctx, e); err != nil {
				w.log.Error().Err(err).Msg("persistSingle failed, requeueing")
				raw, _ := json.Marshal(e)
				w.rdb.RPush(ctx, config.WorkerKey.PasscodeEventsQueue, raw)
			}
		}
	}
}

// ----------------------------------------------------------------
// BULK PostgreSQL INSERT using UNNEST
// ----------------------------------------------------------------

func (w *AuditWorker) bulkInsertEvents(ctx context.Context, batch []*model.PasscodeEvent) error {
	n := len(batch)

	types := make([]string, 0, n)
	codes := make([]string, 0, n)
	students := make([]int, 0, n)
	actors := make([]int, 0, n)
	occurredAts := make([]time.Time, 0, n)

	for _, e := range batch {
		types = append(types, string(e.Type))
		codes = append(codes, e.Code)
		students = append(students, e.StudentID)
		actors = append(actors, e.ActorID)
		occurredAts = append(occurredAts, e.OccurredAt)
	}

	query := `
		INSERT INTO passcode_events (event_type, code, student_id, actor_id, occurred_at)
		SELECT u.event_type, u.code, u.student_id, u.actor_id, u.occurred_at
		FROM UNNEST(
			$1::text[],
			$2::text[],
			$3::int[],
			$4::int[],
			$5::timestamptz[]
		) AS u (event_type, code, student_id, actor_id, occurred_at)
	`

	_, err := w.pool.Exec(ctx, query, types, codes, students, actors, occurredAts)
	return err
}

// ----------------------------------------------------------------
// FALLBACK single insert
// ----------------------------------------------------------------

func (w *AuditWorker) persistSingle(ctx context.Context, e *model.PasscodeEvent) error {
	_, err := w.pool.Exec(ctx,
		`INSERT INTO passcode_events (event_type, code, student_id, actor_id, occurred_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		string(e.Type), e.Code, e.StudentID, e.ActorID, e.OccurredAt,
	)
	return err
}
