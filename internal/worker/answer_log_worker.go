package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/boqueria/training-api/internal/config"
	"github.com/boqueria/training-api/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	AnswerLogBatchSize    = 50
	AnswerLogBatchTimeout = 2 * time.Second
	AnswerLogPollTimeout  = 1 * time.Second
)

// AnswerLogWorker drains the answer log queue into the answer_logs table.
type AnswerLogWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

func NewAnswerLogWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *AnswerLogWorker {
	return &AnswerLogWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "answer_log_worker").Logger(),
	}
}

func (w *AnswerLogWorker) Start(ctx context.Context) {
	w.log.Info().Msg("AnswerLogWorker started")

	batch := make([]*model.AnswerLog, 0, AnswerLogBatchSize)
	lastFlush := time.Now()

	for {
		if len(batch) > 0 &&
			(len(batch) >= AnswerLogBatchSize || time.Since(lastFlush) >= AnswerLogBatchTimeout) {

			w.flushSafe(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Int("pending", len(batch)).Msg("Shutdown requested. Flushing remaining batch...")
			w.flushSafe(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, AnswerLogPollTimeout, config.WorkerKey.PersistAnswerLogsQueue).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			p, err := decodeAnswerLog([]byte(item[1]))
			if err != nil {
				w.log.Error().Err(err).Msg("Invalid answer log payload")
				continue
			}

			batch = append(batch, p)
		}
	}
}

func (w *AnswerLogWorker) flushSafe(ctx context.Context, batch []*model.AnswerLog) {
	if len(batch) == 0 {
		return
	}

	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("size", len(batch)).Msg("bulk answer log insert failed, using fallback")

		for _, p := range batch {
			if err := w.persistSingle(ctx, p); err != nil {
				w.log.Error().Err(err).Str("id", p.ID).Msg("persistSingle failed, requeueing")
				raw, _ := json.Marshal(p)
				w.rdb.RPush(ctx, config.WorkerKey.PersistAnswerLogsQueue, raw)
			}
		}
	}
}

// decodeAnswerLog parses one queue item. Entries queued without an id get
// one here so a retried insert stays idempotent.
func decodeAnswerLog(raw []byte) (*model.AnswerLog, error) {
	var p model.AnswerLog
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	if p.AnsweredAt.IsZero() {
		p.AnsweredAt = time.Now()
	}
	return &p, nil
}

// answerLogColumns splits a batch into the column arrays used by UNNEST.
type answerLogColumns struct {
	ids        []uuid.UUID
	users      []string
	levels     []string
	questions  []string
	answers    []string
	correct    []bool
	answeredAt []time.Time
}

func columnsOf(batch []*model.AnswerLog) (*answerLogColumns, error) {
	n := len(batch)
	cols := &answerLogColumns{
		ids:        make([]uuid.UUID, 0, n),
		users:      make([]string, 0, n),
		levels:     make([]string, 0, n),
		questions:  make([]string, 0, n),
		answers:    make([]string, 0, n),
		correct:    make([]bool, 0, n),
		answeredAt: make([]time.Time, 0, n),
	}

	for _, p := range batch {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			return nil, err
		}
		cols.ids = append(cols.ids, id)
		cols.users = append(cols.users, p.UserName)
		cols.levels = append(cols.levels, p.Level)
		cols.questions = append(cols.questions, p.QuestionID)
		cols.answers = append(cols.answers, p.UserAnswer)
		cols.correct = append(cols.correct, p.IsCorrect)
		cols.answeredAt = append(cols.answeredAt, p.AnsweredAt)
	}
	return cols, nil
}

func (w *AnswerLogWorker) bulkInsert(ctx context.Context, batch []*model.AnswerLog) error {
	cols, err := columnsOf(batch)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO answer_logs (id, user_name, level, question_id, user_answer, is_correct, answered_at)
		SELECT u.id, u.user_name, u.level, u.question_id, u.user_answer, u.is_correct, u.answered_at
		FROM UNNEST(
			$1::uuid[],
			$2::text[],
			$3::text[],
			$4::text[],
			$5::text[],
			$6::boolean[],
			$7::timestamptz[]
		) AS u (id, user_name, level, question_id, user_answer, is_correct, answered_at)
		ON CONFLICT (id) DO NOTHING
	`

	_, err = w.pool.Exec(ctx, query,
		cols.ids, cols.users, cols.levels, cols.questions, cols.answers, cols.correct, cols.answeredAt,
	)
	return err
}

func (w *AnswerLogWorker) persistSingle(ctx context.Context, p *model.AnswerLog) error {
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return err
	}

	_, err = w.pool.Exec(ctx,
		`INSERT INTO answer_logs (id, user_name, level, question_id, user_answer, is_correct, answered_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (id) DO NOTHING`,
		id, p.UserName, p.Level, p.QuestionID, p.UserAnswer, p.IsCorrect, p.AnsweredAt,
	)

	return err
}
