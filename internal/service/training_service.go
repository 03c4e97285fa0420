package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/boqueria/training-api/internal/config"
	"github.com/boqueria/training-api/internal/model"
	"github.com/boqueria/training-api/internal/quiz"
	"github.com/boqueria/training-api/internal/repository"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

// AnswerLogPusher receives every graded answer. Optional.
type AnswerLogPusher interface {
	Push(ctx context.Context, entry model.AnswerLog) error
}

// StartOptions are the inputs of Start. Only UserName is required.
type StartOptions struct {
	UserName        string
	Level           string
	StartCategory1  string
	StartQuestionID string
}

// StartResult describes the level a session was (re)started on.
type StartResult struct {
	Level         string
	QuestionCount int
}

// NextResult is one of NextQuestion, LevelAdvance or AllDone.
type NextResult interface {
	isNextResult()
}

// NextQuestion carries the question now at the session's current position.
type NextQuestion struct {
	Level        string
	Question     model.Question
	ProgressRate int
}

// LevelAdvance is returned when a level's order is exhausted and the
// session moved on to NextLevel. ProgressRate refers to the finished level.
type LevelAdvance struct {
	CompletedLevel string
	NextLevel      string
	ProgressRate   int
}

// AllDone is returned once the last level of the progression is exhausted.
type AllDone struct {
	CompletedLevels []string
	ProgressRate    int
}

func (NextQuestion) isNextResult() {}
func (LevelAdvance) isNextResult() {}
func (AllDone) isNextResult()      {}

// AnswerResult is the outcome of grading one answer.
type AnswerResult struct {
	IsCorrect      bool
	CorrectAnswers []string
	Explanation    string
	ProgressRate   int
}

// TrainingService drives the per-user training session: start, next,
// answer and reset. Every transition works on the caller's copy of the
// session and only saves it on success, so a failed call leaves the stored
// session as it was.
type TrainingService struct {
	store   repository.SessionStore
	source  repository.QuestionSource
	levels  []config.Level
	answers AnswerLogPusher
	shuffle quiz.Shuffler
	now     func() time.Time
	log     zerolog.Logger
}

// NewTrainingService creates a new TrainingService. answers may be nil.
func NewTrainingService(
	store repository.SessionStore,
	source repository.QuestionSource,
	levels []config.Level,
	answers AnswerLogPusher,
	log zerolog.Logger,
) *TrainingService {
	return &TrainingService{
		store:   store,
		source:  source,
		levels:  levels,
		answers: answers,
		shuffle: quiz.RandomShuffle,
		now:     time.Now,
		log:     log.With().Str("component", "training_service").Logger(),
	}
}

// Start (re)builds the user's session on a level. Levels completed in an
// earlier session of the same user are kept.
func (s *TrainingService) Start(ctx context.Context, opts StartOptions) (*StartResult, error) {
	level, err := s.resolveLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	if inv, ok := s.source.(repository.CacheInvalidator); ok {
		if err := inv.Invalidate(ctx, level); err != nil {
			s.log.Warn().Err(err).Str("level", level).Msg("Failed to invalidate row cache")
		}
	}

	order, err := s.buildOrder(ctx, level)
	if err != nil {
		return nil, err
	}
	if len(order) == 0 {
		return nil, &LevelError{Err: ErrNoQuestionsForLevel, Level: level}
	}

	index := -1
	switch {
	case opts.StartQuestionID != "":
		i := quiz.IndexOfQuestion(order, opts.StartQuestionID)
		if i < 0 {
			return nil, &LevelError{Err: ErrQuestionNotFound, Level: level, Item: opts.StartQuestionID}
		}
		index = i - 1
	case opts.StartCategory1 != "":
		i := quiz.IndexOfCategory1(order, opts.StartCategory1)
		if i < 0 {
			return nil, &LevelError{Err: ErrCategoryNotFound, Level: level, Item: opts.StartCategory1}
		}
		index = i - 1
	}

	var completed []string
	prev, err := s.store.Get(ctx, opts.UserName)
	switch {
	case err == nil:
		completed = prev.CompletedLevels
	case !errors.Is(err, repository.ErrSessionNotFound):
		return nil, fmt.Errorf("load session: %w", err)
	}

	now := s.now()
	sess := &model.Session{
		UserName:        opts.UserName,
		Level:           level,
		Order:           order,
		CurrentIndex:    index,
		CompletedLevels: completed,
		StartedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	s.log.Info().
		Str("user", opts.UserName).
		Str("level", level).
		Int("questions", len(order)).
		Int("start_index", index+1).
		Msg("Training started")

	return &StartResult{Level: level, QuestionCount: len(order)}, nil
}

// Next advances the session by one question, or across a level boundary
// when the current level is exhausted.
func (s *TrainingService) Next(ctx context.Context, userName string) (NextResult, error) {
	sess, err := s.loadSession(ctx, userName)
	if err != nil {
		return nil, err
	}

	if sess.Finished {
		return AllDone{CompletedLevels: sess.CompletedLevels, ProgressRate: 100}, nil
	}

	sess.CurrentIndex++
	if entry, ok := sess.Current(); ok {
		row, err := s.rowFor(ctx, sess.Level, entry)
		if err != nil {
			return nil, err
		}
		sess.ProgressRate = quiz.ProgressRate(sess.CurrentIndex, len(sess.Order))
		if err := s.save(ctx, sess); err != nil {
			return nil, err
		}
		return NextQuestion{
			Level:        sess.Level,
			Question:     quiz.ShapeWith(row, s.shuffle),
			ProgressRate: sess.ProgressRate,
		}, nil
	}

	return s.advanceLevel(ctx, sess)
}

// advanceLevel marks the current level completed and moves to the next
// level in the progression that has at least one question.
func (s *TrainingService) advanceLevel(ctx context.Context, sess *model.Session) (NextResult, error) {
	finished := sess.Level
	sess.MarkCompleted(finished)

	for next := s.levelAfter(finished); next != ""; next = s.levelAfter(next) {
		order, err := s.buildOrder(ctx, next)
		switch {
		case errors.Is(err, ErrLevelNotFound):
			s.log.Warn().Str("level", next).Msg("Skipping level missing from the question source")
			sess.MarkCompleted(next)
			continue
		case err != nil:
			return nil, err
		case len(order) == 0:
			s.log.Warn().Str("level", next).Msg("Skipping level without questions")
			sess.MarkCompleted(next)
			continue
		}

		sess.Level = next
		sess.Order = order
		// The following Next yields the first question of the new level.
		sess.CurrentIndex = -1
		sess.ProgressRate = 0
		if err := s.save(ctx, sess); err != nil {
			return nil, err
		}

		s.log.Info().
			Str("user", sess.UserName).
			Str("completed", finished).
			Str("next", next).
			Msg("Level completed")
		return LevelAdvance{CompletedLevel: finished, NextLevel: next, ProgressRate: 100}, nil
	}

	sess.Finished = true
	sess.CurrentIndex = len(sess.Order)
	sess.ProgressRate = 100
	if err := s.save(ctx, sess); err != nil {
		return nil, err
	}

	s.log.Info().Str("user", sess.UserName).Msg("All levels completed")
	return AllDone{CompletedLevels: sess.CompletedLevels, ProgressRate: 100}, nil
}

// Answer grades text against the question at the session's current
// position. It never moves the session; only the answer counters change.
func (s *TrainingService) Answer(ctx context.Context, userName, questionID, text string) (*AnswerResult, error) {
	sess, err := s.loadSession(ctx, userName)
	if err != nil {
		return nil, err
	}

	entry, ok := sess.Current()
	if !ok || sess.Finished {
		return nil, &StaleQuestionError{Given: questionID}
	}
	if entry.QuestionID != questionID {
		return nil, &StaleQuestionError{Expected: entry.QuestionID, Given: questionID}
	}

	row, err := s.rowFor(ctx, sess.Level, entry)
	if err != nil {
		return nil, err
	}
	q := quiz.ShapeWith(row, s.shuffle)
	correct := quiz.Grade(text, q.CorrectAnswers)

	if err := s.store.AddAnswer(ctx, userName, correct); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrNoActiveSession
		}
		return nil, fmt.Errorf("record answer: %w", err)
	}

	if s.answers != nil {
		logEntry := model.AnswerLog{
			UserName:   userName,
			Level:      sess.Level,
			QuestionID: questionID,
			UserAnswer: text,
			IsCorrect:  correct,
			AnsweredAt: s.now(),
		}
		if err := s.answers.Push(ctx, logEntry); err != nil {
			s.log.Warn().Err(err).Str("user", userName).Msg("Failed to queue answer log")
		}
	}

	return &AnswerResult{
		IsCorrect:      correct,
		CorrectAnswers: q.CorrectAnswers,
		Explanation:    q.Explanation,
		ProgressRate:   sess.ProgressRate,
	}, nil
}

// Reset discards the user's session. Resetting a missing session succeeds.
// The returned flag reports whether a session existed.
func (s *TrainingService) Reset(ctx context.Context, userName string) (bool, error) {
	_, err := s.store.Get(ctx, userName)
	existed := err == nil
	if err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
		s.log.Warn().Err(err).Str("user", userName).Msg("Session lookup failed before reset")
	}

	if err := s.store.Delete(ctx, userName); err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return existed, nil
}

// Categories lists the levels of the progression. For review only the
// completed levels and the current one are returned.
func (s *TrainingService) Categories(ctx context.Context, userName string, purpose model.CategoryPurpose) ([]config.Level, error) {
	if purpose != model.PurposeReview {
		return append([]config.Level{}, s.levels...), nil
	}

	sess, err := s.store.Get(ctx, userName)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return []config.Level{}, nil
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	return lo.Filter(s.levels, func(l config.Level, _ int) bool {
		return sess.HasCompleted(l.ID) || l.ID == sess.Level
	}), nil
}

func (s *TrainingService) resolveLevel(level string) (string, error) {
	if level == "" {
		if len(s.levels) == 0 {
			return "", &LevelError{Err: ErrLevelNotFound}
		}
		return s.levels[0].ID, nil
	}
	for _, l := range s.levels {
		if l.ID == level {
			return level, nil
		}
	}
	return "", &LevelError{Err: ErrLevelNotFound, Level: level}
}

// levelAfter returns the level following id in the progression, or "".
func (s *TrainingService) levelAfter(id string) string {
	for i, l := range s.levels {
		if l.ID == id && i+1 < len(s.levels) {
			return s.levels[i+1].ID
		}
	}
	return ""
}

func (s *TrainingService) loadSession(ctx context.Context, userName string) (*model.Session, error) {
	sess, err := s.store.Get(ctx, userName)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrNoActiveSession
		}
		return nil, fmt.Errorf("load session: %w", err)
	}
	if len(sess.Order) == 0 {
		return nil, ErrNoActiveSession
	}
	return sess, nil
}

func (s *TrainingService) save(ctx context.Context, sess *model.Session) error {
	sess.UpdatedAt = s.now()
	if err := s.store.Save(ctx, sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *TrainingService) fetchRows(ctx context.Context, level string) ([]model.QuestionRow, error) {
	rows, err := s.source.FetchRows(ctx, level)
	if err != nil {
		return nil, sourceError(level, err)
	}
	return rows, nil
}

func (s *TrainingService) buildOrder(ctx context.Context, level string) ([]model.OrderEntry, error) {
	rows, err := s.fetchRows(ctx, level)
	if err != nil {
		return nil, err
	}
	return quiz.BuildOrderWith(rows, s.shuffle), nil
}

// rowFor resolves an order entry against a fresh fetch of the level. The
// recorded row index is tried first; if the sheet was edited since the order
// was built the row is looked up by id.
func (s *TrainingService) rowFor(ctx context.Context, level string, entry model.OrderEntry) (model.QuestionRow, error) {
	rows, err := s.fetchRows(ctx, level)
	if err != nil {
		return model.QuestionRow{}, err
	}
	if entry.RowIndex >= 0 && entry.RowIndex < len(rows) && strings.TrimSpace(rows[entry.RowIndex].ID) == entry.QuestionID {
		return rows[entry.RowIndex], nil
	}
	for _, r := range rows {
		if strings.TrimSpace(r.ID) == entry.QuestionID {
			return r, nil
		}
	}
	return model.QuestionRow{}, &LevelError{Err: ErrQuestionNotFound, Level: level, Item: entry.QuestionID}
}
