package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/boqueria/training-api/internal/config"
	"github.com/boqueria/training-api/internal/model"
	"github.com/boqueria/training-api/internal/repository"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu          sync.Mutex
	levels      map[string][]model.QuestionRow
	err         error
	calls       int
	invalidated []string
}

func (f *fakeSource) FetchRows(_ context.Context, level string) ([]model.QuestionRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	rows, ok := f.levels[level]
	if !ok {
		return nil, repository.ErrLevelNotFound
	}
	return rows, nil
}

func (f *fakeSource) Invalidate(_ context.Context, level string) error {
	f.invalidated = append(f.invalidated, level)
	return nil
}

type fakeAnswerLog struct {
	entries []model.AnswerLog
	err     error
}

func (f *fakeAnswerLog) Push(_ context.Context, e model.AnswerLog) error {
	f.entries = append(f.entries, e)
	return f.err
}

func qrow(c1, c2, id string, answers ...string) model.QuestionRow {
	r := model.QuestionRow{Category1: c1, Category2: c2, ID: id, Content: "content " + id, Explanation: "explain " + id}
	copy(r.Answers[:], answers)
	return r
}

func keepOrder(int, func(i, j int)) {}

func newTestService(t *testing.T, src *fakeSource, levels ...string) (*TrainingService, *repository.MemorySessionStore) {
	t.Helper()
	var lv []config.Level
	for _, l := range levels {
		lv = append(lv, config.Level{ID: l, Name: l})
	}
	store := repository.NewMemorySessionStore()
	svc := NewTrainingService(store, src, lv, nil, zerolog.New(io.Discard))
	svc.shuffle = keepOrder
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return svc, store
}

func twoLevelSource() *fakeSource {
	return &fakeSource{levels: map[string][]model.QuestionRow{
		"A": {qrow("c", "x", "a1", "Paris"), qrow("c", "x", "a2", "Tokyo", "東京")},
		"B": {qrow("c", "x", "b1", "Rome")},
	}}
}

func TestTrainingFlow_AcrossLevels(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, twoLevelSource(), "A", "B")

	res, err := svc.Start(ctx, StartOptions{UserName: "u1"})
	require.NoError(t, err)
	assert.Equal(t, "A", res.Level)
	assert.Equal(t, 2, res.QuestionCount)

	r1, err := svc.Next(ctx, "u1")
	require.NoError(t, err)
	q1 := r1.(NextQuestion)
	assert.Equal(t, "a1", q1.Question.ID)
	assert.Equal(t, 50, q1.ProgressRate)

	r2, err := svc.Next(ctx, "u1")
	require.NoError(t, err)
	q2 := r2.(NextQuestion)
	assert.Equal(t, "a2", q2.Question.ID)
	assert.Equal(t, 100, q2.ProgressRate)

	r3, err := svc.Next(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, LevelAdvance{CompletedLevel: "A", NextLevel: "B", ProgressRate: 100}, r3)

	r4, err := svc.Next(ctx, "u1")
	require.NoError(t, err)
	q4 := r4.(NextQuestion)
	assert.Equal(t, "b1", q4.Question.ID)
	assert.Equal(t, "B", q4.Level)
	assert.Equal(t, 100, q4.ProgressRate)

	r5, err := svc.Next(ctx, "u1")
	require.NoError(t, err)
	done := r5.(AllDone)
	assert.Equal(t, 100, done.ProgressRate)
	assert.Equal(t, []string{"A", "B"}, done.CompletedLevels)

	// Terminal: further calls do not re-advance.
	r6, err := svc.Next(ctx, "u1")
	require.NoError(t, err)
	assert.IsType(t, AllDone{}, r6)
}

func TestStart_ExplicitLevel(t *testing.T) {
	src := twoLevelSource()
	svc, store := newTestService(t, src, "A", "B")

	res, err := svc.Start(context.Background(), StartOptions{UserName: "u1", Level: "B"})
	require.NoError(t, err)
	assert.Equal(t, "B", res.Level)
	assert.Equal(t, []string{"B"}, src.invalidated)

	sess, err := store.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, -1, sess.CurrentIndex)
	assert.Equal(t, "B", sess.Level)
}

func TestStart_UnknownLevel(t *testing.T) {
	svc, store := newTestService(t, twoLevelSource(), "A", "B")

	_, err := svc.Start(context.Background(), StartOptions{UserName: "u1", Level: "Z"})

	var le *LevelError
	require.ErrorAs(t, err, &le)
	assert.ErrorIs(t, err, ErrLevelNotFound)
	assert.Equal(t, "Z", le.Level)

	_, err = store.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func TestStart_ConfiguredLevelMissingFromSource(t *testing.T) {
	svc, _ := newTestService(t, twoLevelSource(), "A", "C")

	_, err := svc.Start(context.Background(), StartOptions{UserName: "u1", Level: "C"})

	assert.ErrorIs(t, err, ErrLevelNotFound)
}

func TestStart_NoQuestions(t *testing.T) {
	src := &fakeSource{levels: map[string][]model.QuestionRow{
		"A": {qrow("", "x", "a1"), qrow("c", "x", "")},
	}}
	svc, _ := newTestService(t, src, "A")

	_, err := svc.Start(context.Background(), StartOptions{UserName: "u1"})

	var le *LevelError
	require.ErrorAs(t, err, &le)
	assert.ErrorIs(t, err, ErrNoQuestionsForLevel)
	assert.Equal(t, "A", le.Level)
}

func TestStart_SourceUnavailable(t *testing.T) {
	src := twoLevelSource()
	src.err = errors.New("dial tcp: connection refused")
	svc, _ := newTestService(t, src, "A")

	_, err := svc.Start(context.Background(), StartOptions{UserName: "u1"})

	assert.ErrorIs(t, err, ErrSourceUnavailable)
}

func TestStart_KeepsCompletedLevels(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, twoLevelSource(), "A", "B")

	_, err := svc.Start(ctx, StartOptions{UserName: "u1"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := svc.Next(ctx, "u1")
		require.NoError(t, err)
	}

	_, err = svc.Start(ctx, StartOptions{UserName: "u1", Level: "A"})
	require.NoError(t, err)

	sess, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, sess.CompletedLevels)
	assert.Equal(t, "A", sess.Level)
	assert.Equal(t, -1, sess.CurrentIndex)
	assert.False(t, sess.Finished)
}

func TestStart_FromQuestionID(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, twoLevelSource(), "A", "B")

	_, err := svc.Start(ctx, StartOptions{UserName: "u1", StartQuestionID: "a2"})
	require.NoError(t, err)

	r, err := svc.Next(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a2", r.(NextQuestion).Question.ID)

	_, err = svc.Start(ctx, StartOptions{UserName: "u1", StartQuestionID: "zz"})
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestStart_FromCategory1(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{levels: map[string][]model.QuestionRow{
		"A": {qrow("greet", "x", "g1"), qrow("order", "y", "o1"), qrow("order", "y", "o2")},
	}}
	svc, _ := newTestService(t, src, "A")

	_, err := svc.Start(ctx, StartOptions{UserName: "u1", StartCategory1: "order"})
	require.NoError(t, err)

	r, err := svc.Next(ctx, "u1")
	require.NoError(t, err)
	q := r.(NextQuestion)
	assert.Equal(t, "o1", q.Question.ID)
	assert.Equal(t, 66, q.ProgressRate)

	_, err = svc.Start(ctx, StartOptions{UserName: "u1", StartCategory1: "nope"})
	assert.ErrorIs(t, err, ErrCategoryNotFound)
}

func TestNext_NoSession(t *testing.T) {
	svc, _ := newTestService(t, twoLevelSource(), "A")

	_, err := svc.Next(context.Background(), "ghost")

	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestNext_FailureLeavesSessionUntouched(t *testing.T) {
	ctx := context.Background()
	src := twoLevelSource()
	svc, store := newTestService(t, src, "A", "B")

	_, err := svc.Start(ctx, StartOptions{UserName: "u1"})
	require.NoError(t, err)

	src.err = repository.ErrSourceUnavailable
	_, err = svc.Next(ctx, "u1")
	require.ErrorIs(t, err, ErrSourceUnavailable)

	sess, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, -1, sess.CurrentIndex)

	src.err = nil
	r, err := svc.Next(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a1", r.(NextQuestion).Question.ID)
}

func TestNext_SkipsEmptyLevel(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{levels: map[string][]model.QuestionRow{
		"A": {qrow("c", "x", "a1")},
		"B": {},
		"C": {qrow("c", "x", "c1")},
	}}
	svc, store := newTestService(t, src, "A", "B", "C")

	_, err := svc.Start(ctx, StartOptions{UserName: "u1"})
	require.NoError(t, err)
	_, err = svc.Next(ctx, "u1")
	require.NoError(t, err)

	r, err := svc.Next(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, LevelAdvance{CompletedLevel: "A", NextLevel: "C", ProgressRate: 100}, r)

	sess, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, sess.CompletedLevels)
}

func TestNext_SkipsLevelMissingFromSource(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{levels: map[string][]model.QuestionRow{
		"A": {qrow("c", "x", "a1")},
		"C": {qrow("c", "x", "c1")},
	}}
	svc, store := newTestService(t, src, "A", "B", "C")

	_, err := svc.Start(ctx, StartOptions{UserName: "u1"})
	require.NoError(t, err)
	_, err = svc.Next(ctx, "u1")
	require.NoError(t, err)

	r, err := svc.Next(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, LevelAdvance{CompletedLevel: "A", NextLevel: "C", ProgressRate: 100}, r)

	r, err = svc.Next(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "c1", r.(NextQuestion).Question.ID)

	r, err = svc.Next(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, AllDone{CompletedLevels: []string{"A", "B", "C"}, ProgressRate: 100}, r)

	sess, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, sess.Finished)
}

func TestNext_LastLevelsMissingEndsTraining(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{levels: map[string][]model.QuestionRow{
		"A": {qrow("c", "x", "a1")},
	}}
	svc, _ := newTestService(t, src, "A", "B", "C")

	_, err := svc.Start(ctx, StartOptions{UserName: "u1"})
	require.NoError(t, err)
	_, err = svc.Next(ctx, "u1")
	require.NoError(t, err)

	r, err := svc.Next(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, AllDone{CompletedLevels: []string{"A", "B", "C"}, ProgressRate: 100}, r)
}

func TestNext_SourceDownDuringAdvance(t *testing.T) {
	ctx := context.Background()
	src := twoLevelSource()
	svc, store := newTestService(t, src, "A", "B")

	_, err := svc.Start(ctx, StartOptions{UserName: "u1"})
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = svc.Next(ctx, "u1")
		require.NoError(t, err)
	}

	src.err = repository.ErrSourceUnavailable
	_, err = svc.Next(ctx, "u1")
	require.ErrorIs(t, err, ErrSourceUnavailable)

	sess, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "A", sess.Level)
	assert.Empty(t, sess.CompletedLevels)
}

func TestNext_RowMovedInSheet(t *testing.T) {
	ctx := context.Background()
	src := twoLevelSource()
	svc, _ := newTestService(t, src, "A")

	_, err := svc.Start(ctx, StartOptions{UserName: "u1"})
	require.NoError(t, err)

	src.levels["A"] = []model.QuestionRow{qrow("c", "x", "new"), qrow("c", "x", "a1"), qrow("c", "x", "a2")}
	r, err := svc.Next(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "a1", r.(NextQuestion).Question.ID)

	src.levels["A"] = []model.QuestionRow{qrow("c", "x", "new")}
	_, err = svc.Next(ctx, "u1")
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestAnswer_GradesCurrentQuestion(t *testing.T) {
	ctx := context.Background()
	src := twoLevelSource()
	svc, store := newTestService(t, src, "A", "B")
	answers := &fakeAnswerLog{}
	svc.answers = answers

	_, err := svc.Start(ctx, StartOptions{UserName: "u1"})
	require.NoError(t, err)
	_, err = svc.Next(ctx, "u1")
	require.NoError(t, err)
	_, err = svc.Next(ctx, "u1")
	require.NoError(t, err)

	res, err := svc.Answer(ctx, "u1", "a2", "  東京 ")
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
	assert.Equal(t, []string{"Tokyo", "東京"}, res.CorrectAnswers)
	assert.Equal(t, "explain a2", res.Explanation)
	assert.Equal(t, 100, res.ProgressRate)

	res, err = svc.Answer(ctx, "u1", "a2", "Kyoto")
	require.NoError(t, err)
	assert.False(t, res.IsCorrect)

	sess, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, sess.CurrentIndex)
	assert.Equal(t, 2, sess.AnsweredCount)
	assert.Equal(t, 1, sess.CorrectCount)

	require.Len(t, answers.entries, 2)
	assert.Equal(t, "a2", answers.entries[0].QuestionID)
	assert.True(t, answers.entries[0].IsCorrect)
	assert.Equal(t, "A", answers.entries[1].Level)
}

type saveCountingStore struct {
	*repository.MemorySessionStore
	saves int
}

func (s *saveCountingStore) Save(ctx context.Context, sess *model.Session) error {
	s.saves++
	return s.MemorySessionStore.Save(ctx, sess)
}

func TestAnswer_DoesNotWriteSession(t *testing.T) {
	ctx := context.Background()
	store := &saveCountingStore{MemorySessionStore: repository.NewMemorySessionStore()}
	svc := NewTrainingService(store, twoLevelSource(), []config.Level{{ID: "A", Name: "A"}}, nil, zerolog.New(io.Discard))
	svc.shuffle = keepOrder

	_, err := svc.Start(ctx, StartOptions{UserName: "u1"})
	require.NoError(t, err)
	_, err = svc.Next(ctx, "u1")
	require.NoError(t, err)
	saves := store.saves

	_, err = svc.Answer(ctx, "u1", "a1", "Paris")
	require.NoError(t, err)
	assert.Equal(t, saves, store.saves)

	// A Next that loaded the session before the answer was recorded must
	// not roll the counters back.
	stale, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	stale.AnsweredCount = 0
	require.NoError(t, store.Save(ctx, stale))

	sess, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, sess.AnsweredCount)
	assert.Equal(t, 1, sess.CorrectCount)
}

func TestAnswer_StaleQuestion(t *testing.T) {
	ctx := context.Background()
	svc, store := newTestService(t, twoLevelSource(), "A")

	_, err := svc.Start(ctx, StartOptions{UserName: "u1"})
	require.NoError(t, err)

	// Nothing shown yet.
	_, err = svc.Answer(ctx, "u1", "a1", "Paris")
	var se *StaleQuestionError
	require.ErrorAs(t, err, &se)
	assert.Empty(t, se.Expected)

	_, err = svc.Next(ctx, "u1")
	require.NoError(t, err)

	_, err = svc.Answer(ctx, "u1", "a2", "Tokyo")
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, ErrStaleQuestion)
	assert.Equal(t, "a1", se.Expected)
	assert.Equal(t, "a2", se.Given)

	before, err := store.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, before.AnsweredCount)

	res, err := svc.Answer(ctx, "u1", "a1", "paris")
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
}

func TestAnswer_NoSession(t *testing.T) {
	svc, _ := newTestService(t, twoLevelSource(), "A")

	_, err := svc.Answer(context.Background(), "ghost", "a1", "x")

	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestAnswer_AfterAllDone(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, twoLevelSource(), "B")

	_, err := svc.Start(ctx, StartOptions{UserName: "u1"})
	require.NoError(t, err)
	_, err = svc.Next(ctx, "u1")
	require.NoError(t, err)
	_, err = svc.Next(ctx, "u1")
	require.NoError(t, err)

	_, err = svc.Answer(ctx, "u1", "b1", "Rome")
	assert.ErrorIs(t, err, ErrStaleQuestion)
}

func TestAnswer_LogFailureDoesNotFail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, twoLevelSource(), "A")
	svc.answers = &fakeAnswerLog{err: errors.New("redis down")}

	_, err := svc.Start(ctx, StartOptions{UserName: "u1"})
	require.NoError(t, err)
	_, err = svc.Next(ctx, "u1")
	require.NoError(t, err)

	res, err := svc.Answer(ctx, "u1", "a1", "Paris")
	require.NoError(t, err)
	assert.True(t, res.IsCorrect)
}

func TestReset_Idempotent(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, twoLevelSource(), "A")

	existed, err := svc.Reset(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = svc.Start(ctx, StartOptions{UserName: "u1"})
	require.NoError(t, err)

	existed, err = svc.Reset(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = svc.Reset(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, existed)

	_, err = svc.Next(ctx, "u1")
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestCategories(t *testing.T) {
	ctx := context.Background()
	src := twoLevelSource()
	src.levels["C"] = []model.QuestionRow{qrow("c", "x", "c1")}
	svc, _ := newTestService(t, src, "A", "B", "C")

	all, err := svc.Categories(ctx, "u1", model.PurposeTraining)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	review, err := svc.Categories(ctx, "u1", model.PurposeReview)
	require.NoError(t, err)
	assert.Empty(t, review)

	_, err = svc.Start(ctx, StartOptions{UserName: "u1"})
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := svc.Next(ctx, "u1")
		require.NoError(t, err)
	}

	review, err = svc.Categories(ctx, "u1", model.PurposeReview)
	require.NoError(t, err)
	assert.Equal(t, []config.Level{{ID: "A", Name: "A"}, {ID: "B", Name: "B"}}, review)
}

func TestSessionsAreIsolatedPerStore(t *testing.T) {
	ctx := context.Background()
	svc1, _ := newTestService(t, twoLevelSource(), "A")
	svc2, _ := newTestService(t, twoLevelSource(), "A")

	_, err := svc1.Start(ctx, StartOptions{UserName: "u1"})
	require.NoError(t, err)

	_, err = svc2.Next(ctx, "u1")
	assert.ErrorIs(t, err, ErrNoActiveSession)
}
