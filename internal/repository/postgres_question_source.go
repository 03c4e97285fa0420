package repository

import (
	"context"
	"fmt"

	"github.com/boqueria/training-api/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var questionColumns = []string{
	"level", "row_num",
	"category1", "category2", "question_id", "question_type", "content",
	"answer1", "answer2", "answer3", "answer4", "dummy1", "dummy2",
	"auto_dummy", "auto_dummy_exception", "explanation", "conversation_example",
}

// PostgresQuestionSource reads levels from the questions table.
type PostgresQuestionSource struct {
	pool *pgxpool.Pool
}

// NewPostgresQuestionSource creates a new PostgresQuestionSource.
func NewPostgresQuestionSource(pool *pgxpool.Pool) *PostgresQuestionSource {
	return &PostgresQuestionSource{pool: pool}
}

// FetchRows retrieves all rows of a level ordered by their sheet position.
// A level without any row is reported as not found.
func (r *PostgresQuestionSource) FetchRows(ctx context.Context, level string) ([]model.QuestionRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT category1, category2, question_id, question_type, content,
		        answer1, answer2, answer3, answer4, dummy1, dummy2,
		        auto_dummy, auto_dummy_exception, explanation, conversation_example
		 FROM questions WHERE level = $1
		 ORDER BY row_num`, level,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: query questions: %w", ErrSourceUnavailable, err)
	}
	defer rows.Close()

	var out []model.QuestionRow
	for rows.Next() {
		var q model.QuestionRow
		if err := rows.Scan(
			&q.Category1, &q.Category2, &q.ID, &q.Type, &q.Content,
			&q.Answers[0], &q.Answers[1], &q.Answers[2], &q.Answers[3],
			&q.Dummies[0], &q.Dummies[1],
			&q.AutoDummy, &q.AutoDummyException, &q.Explanation, &q.ConversationExample,
		); err != nil {
			return nil, fmt.Errorf("%w: scan question: %w", ErrSourceUnavailable, err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSourceUnavailable, err)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("%w: level %q", ErrLevelNotFound, level)
	}
	return out, nil
}

// ReplaceLevel atomically replaces every row of a level.
func (r *PostgresQuestionSource) ReplaceLevel(ctx context.Context, level string, questions []model.QuestionRow) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE level = $1`, level); err != nil {
		return 0, fmt.Errorf("delete level: %w", err)
	}

	data := make([][]any, len(questions))
	for i, q := range questions {
		data[i] = []any{
			level, i + 1,
			q.Category1, q.Category2, q.ID, q.Type, q.Content,
			q.Answers[0], q.Answers[1], q.Answers[2], q.Answers[3],
			q.Dummies[0], q.Dummies[1],
			q.AutoDummy, q.AutoDummyException, q.Explanation, q.ConversationExample,
		}
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"questions"}, questionColumns, pgx.CopyFromRows(data))
	if err != nil {
		return 0, fmt.Errorf("copy questions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}
