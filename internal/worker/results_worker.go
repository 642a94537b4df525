package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/quizgate/quizgate-backend/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	ResultBatchSize    = 50
	ResultBatchTimeout = 2 * time.Second
	ResultPollTimeout  = 1 * time.Second
)

// ResultsWorker consumes persist_results_queue and bulk-inserts completed
// quiz results into PostgreSQL.
type ResultsWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewResultsWorker creates a new ResultsWorker.
func NewResultsWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ResultsWorker {
	return &ResultsWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "results_worker").Logger(),
	}
}

type resultPayload struct {
	StudentID     int    `json:"student_id"`
	Category      string `json:"category"`
	Score         int    `json:"score"`
	QuestionCount int    `json:"question_count"`
	Answered      int    `json:"answered"`
	Trigger       string `json:"trigger"`
	StartedAt     string `json:"started_at"`
	FinishedAt    string `json:"finished_at"`
}

// Start begins the worker loop with batching. Call in a goroutine.
func (w *ResultsWorker) Start(ctx context.Context) {
	w.log.Info().Msg("ResultsWorker started")

	batch := make([]*resultPayload, 0, ResultBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= ResultBatchSize || time.Since(lastFlush) >= ResultBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Flushing remaining batch...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			w.flushSafe(shutdownCtx, batch)
			cancel()
			return

		default:
			item, err := w.rdb.BLPop(ctx, ResultPollTimeout, config.WorkerKey.PersistResultsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var p resultPayload
			if err := json.Unmarshal([]byte(item[1]), &p); err != nil {
				w.log.Error().Err(err).Str("data", item[1]).Msg("Discarding malformed JSON")
				continue
			}

			batch = append(batch, &p)
		}
	}
}

// flushSafe attempts bulk insert, then row-by-row fallback with requeue.
func (w *ResultsWorker) flushSafe(ctx context.Context, batch []*resultPayload) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
		return
	}

	// Persisted results supersede the autosave buffers in Redis.
	w.bulkClearAutosavedAnswers(ctx, batch)
}

// bulkInsert writes the whole batch in one statement using UNNEST arrays.
func (w *ResultsWorker) bulkInsert(ctx context.Context, batch []*resultPayload) error {
	n := len(batch)

	ids := make([]uuid.UUID, 0, n)
	students := make([]int, 0, n)
	categories := make([]string, 0, n)
	scores := make([]int, 0, n)
	counts := make([]int, 0, n)
	answered := make([]int, 0, n)
	triggers := make([]string, 0, n)
	startedAts := make([]time.Time, 0, n)
	finishedAts := make([]time.Time, 0, n)

	for _, p := range batch {
		started, err := time.Parse(time.RFC3339, p.StartedAt)
		if err != nil {
			return err
		}
		finished, err := time.Parse(time.RFC3339, p.FinishedAt)
		if err != nil {
			return err
		}
		ids = append(ids, uuid.New())
		students = append(students, p.StudentID)
		categories = append(categories, p.Category)
		scores = append(scores, p.Score)
		counts = append(counts, p.QuestionCount)
		answered = append(answered, p.Answered)
		triggers = append(triggers, p.Trigger)
		startedAts = append(startedAts, started)
		finishedAts = append(finishedAts, finished)
	}

	query := `
		INSERT INTO quiz_results
			(id, student_id, category, score, question_count, answered, trigger, started_at, finished_at)
		SELECT * FROM UNNEST(
			$1::uuid[],
			$2::int[],
			$3::text[],
			$4::int[],
			$5::int[],
			$6::int[],
			$7::text[],
			$8::timestamptz[],
			$9::timestamptz[]
		)
	`

	_, err := w.pool.Exec(ctx, query, ids, students, categories, scores, counts, answered, triggers, startedAts, finishedAts)
	return err
}

func (w *ResultsWorker) fallbackInsert(ctx context.Context, batch []*resultPayload) {
	requeueList := make([]*resultPayload, 0)

	for _, p := range batch {
		if err := w.persistSingle(ctx, p); err != nil {
			w.log.Error().Err(err).Int("student_id", p.StudentID).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, p)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *ResultsWorker) persistSingle(ctx context.Context, p *resultPayload) error {
	started, err := time.Parse(time.RFC3339, p.StartedAt)
	if err != nil {
		return err
	}
	finished, err := time.Parse(time.RFC3339, p.FinishedAt)
	if err != nil {
		return err
	}

	_, err = w.pool.Exec(ctx,
		`INSERT INTO quiz_results
			(id, student_id, category, score, question_count, answered, trigger, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		uuid.New(), p.StudentID, p.Category, p.Score, p.QuestionCount, p.Answered, p.Trigger, started, finished,
	)
	return err
}

func (w *ResultsWorker) requeue(ctx context.Context, items []*resultPayload) {
	pipe := w.rdb.Pipeline()
	for _, p := range items {
		data, _ := json.Marshal(p)
		pipe.RPush(ctx, config.WorkerKey.PersistResultsQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue items to Redis. Data loss occurred.")
		return
	}

	w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
	// Avoid thrashing if the database is down hard.
	time.Sleep(2 * time.Second)
}

func (w *ResultsWorker) bulkClearAutosavedAnswers(ctx context.Context, batch []*resultPayload) {
	pipe := w.rdb.Pipeline()
	for _, p := range batch {
		pipe.Del(ctx, config.CacheKey.StudentAnswersKey(p.StudentID))
		pipe.Del(ctx, config.CacheKey.StudentActiveCategoryKey(p.StudentID))
	}
	_, _ = pipe.Exec(ctx)
}
