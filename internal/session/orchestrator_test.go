package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/caseprep/practice-service/internal/models"
)

// ===== TEST DOUBLES =====

type mockAsker struct {
	mock.Mock

	// optional gate for in-flight tests: Ask signals entered once, then
	// blocks until released
	block     chan struct{}
	entered   chan struct{}
	enterOnce sync.Once
}

func (m *mockAsker) Ask(ctx context.Context, question string, caseMeta models.CaseMetadata) (*Answer, error) {
	if m.entered != nil {
		m.enterOnce.Do(func() { close(m.entered) })
	}
	if m.block != nil {
		<-m.block
	}
	args := m.Called(ctx, question, caseMeta)
	if answer := args.Get(0); answer != nil {
		return answer.(*Answer), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockScorer struct {
	mock.Mock
}

func (m *mockScorer) Score(ctx context.Context, turns []models.Turn, frameworkText string, elapsedSeconds int) (*models.ScoreReport, error) {
	args := m.Called(ctx, turns, frameworkText, elapsedSeconds)
	if report := args.Get(0); report != nil {
		return report.(*models.ScoreReport), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) StartCase(ctx context.Context, meta models.CaseMetadata, studentID string) (string, error) {
	args := m.Called(ctx, meta, studentID)
	return args.String(0), args.Error(1)
}

func (m *mockRecorder) RecordTurn(ctx context.Context, sessionID string, turn models.Turn) error {
	return m.Called(ctx, sessionID, turn).Error(0)
}

func (m *mockRecorder) RecordFramework(ctx context.Context, sessionID string, text string) error {
	return m.Called(ctx, sessionID, text).Error(0)
}

func (m *mockRecorder) RecordCompletion(ctx context.Context, sessionID string, elapsedSeconds int, score *models.ScoreReport) error {
	return m.Called(ctx, sessionID, elapsedSeconds, score).Error(0)
}

// fakeClock advances only when told to.
type fakeClock struct {
	mu  sync.Mutex
	now int64
}

func (c *fakeClock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(seconds int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now += seconds
}

// ===== FIXTURES =====

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testMeta() models.CaseMetadata {
	return models.CaseMetadata{
		CaseID:   "case-001",
		Title:    "Declining profitability at a retailer",
		Industry: "retail",
	}
}

func goodAnswer() *Answer {
	return &Answer{
		Text: "Revenue has been flat while costs rose 12%.",
		Feedback: models.TurnFeedback{
			Rating:    models.RatingSatisfactory,
			Relevance: "on topic",
		},
	}
}

type fixture struct {
	asker    *mockAsker
	scorer   *mockScorer
	recorder *mockRecorder
	clock    *fakeClock
	orch     *Orchestrator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		asker:    &mockAsker{},
		scorer:   &mockScorer{},
		recorder: &mockRecorder{},
		clock:    &fakeClock{now: 1000},
	}
	f.orch = NewOrchestrator(f.asker, f.scorer, f.recorder, f.clock, testLogger())
	return f
}

func (f *fixture) start(t *testing.T) {
	t.Helper()
	f.recorder.On("StartCase", mock.Anything, mock.Anything, "student-1").Return("sess-1", nil).Once()
	_, err := f.orch.Start(context.Background(), testMeta(), "student-1")
	require.NoError(t, err)
}

func (f *fixture) submitTurns(t *testing.T, n int) {
	t.Helper()
	f.asker.On("Ask", mock.Anything, mock.Anything, mock.Anything).Return(goodAnswer(), nil).Times(n)
	f.recorder.On("RecordTurn", mock.Anything, "sess-1", mock.Anything).Return(nil).Times(n)
	for i := 0; i < n; i++ {
		_, err := f.orch.SubmitQuestion(context.Background(), fmt.Sprintf("question %d", i+1))
		require.NoError(t, err)
	}
}

// ===== START / RESET =====

func TestStart_RequiresCase(t *testing.T) {
	f := newFixture(t)
	_, err := f.orch.Start(context.Background(), models.CaseMetadata{}, "student-1")
	assert.ErrorIs(t, err, ErrNoActiveCase)
}

func TestStart_RecorderFailureFallsBackToLocalID(t *testing.T) {
	f := newFixture(t)
	f.recorder.On("StartCase", mock.Anything, mock.Anything, "student-1").
		Return("", errors.New("db down")).Once()

	sessionID, err := f.orch.Start(context.Background(), testMeta(), "student-1")
	require.NoError(t, err)
	assert.Contains(t, sessionID, "local-case-001")
	assert.Equal(t, models.SessionActive, f.orch.Status())
}

func TestReset_ClearsEverything(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.submitTurns(t, 1)

	f.orch.Reset()

	assert.Empty(t, f.orch.SessionID())
	assert.Empty(t, f.orch.Turns())
	assert.Equal(t, 0, f.orch.ElapsedSeconds())

	_, err := f.orch.SubmitQuestion(context.Background(), "anyone there?")
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

// ===== QUESTION TURNS =====

func TestSubmitQuestion_AppendsNumberedTurns(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.submitTurns(t, 3)

	turns := f.orch.Turns()
	require.Len(t, turns, 3)
	for i, turn := range turns {
		assert.Equal(t, i+1, turn.QuestionNumber)
		assert.Equal(t, fmt.Sprintf("question %d", i+1), turn.UserQuestion)
	}
	assert.Equal(t, MaxTurns-3, f.orch.TurnsRemaining())
}

func TestSubmitQuestion_RejectsEmptyText(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	_, err := f.orch.SubmitQuestion(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestSubmitQuestion_TurnCap(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.submitTurns(t, MaxTurns)

	assert.Equal(t, 0, f.orch.TurnsRemaining())
	_, err := f.orch.SubmitQuestion(context.Background(), "one more")
	assert.ErrorIs(t, err, ErrMaxTurnsReached)
	assert.Len(t, f.orch.Turns(), MaxTurns)
}

func TestSubmitQuestion_AIFailureLeavesNoTurn(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.asker.On("Ask", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("timeout")).Once()

	_, err := f.orch.SubmitQuestion(context.Background(), "what about costs?")
	assert.ErrorIs(t, err, ErrAIRequestFailed)
	assert.Empty(t, f.orch.Turns())
}

func TestSubmitQuestion_BlankAnswerRejected(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.asker.On("Ask", mock.Anything, mock.Anything, mock.Anything).
		Return(&Answer{Text: "   "}, nil).Once()

	_, err := f.orch.SubmitQuestion(context.Background(), "what about costs?")
	assert.ErrorIs(t, err, ErrEmptyResponse)
	assert.Empty(t, f.orch.Turns())
}

func TestSubmitQuestion_RecorderFailureKeepsLocalTurn(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.asker.On("Ask", mock.Anything, mock.Anything, mock.Anything).Return(goodAnswer(), nil).Once()
	f.recorder.On("RecordTurn", mock.Anything, "sess-1", mock.Anything).
		Return(errors.New("db down")).Once()

	turn, err := f.orch.SubmitQuestion(context.Background(), "what drives revenue?")
	require.NoError(t, err)
	assert.Equal(t, 1, turn.QuestionNumber)
	assert.Len(t, f.orch.Turns(), 1)
}

func TestSubmitQuestion_SingleInFlight(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	f.asker.block = make(chan struct{})
	f.asker.entered = make(chan struct{})
	f.asker.On("Ask", mock.Anything, mock.Anything, mock.Anything).Return(goodAnswer(), nil).Once()
	f.recorder.On("RecordTurn", mock.Anything, "sess-1", mock.Anything).Return(nil).Once()

	firstDone := make(chan error, 1)
	go func() {
		_, err := f.orch.SubmitQuestion(context.Background(), "first question")
		firstDone <- err
	}()

	// The in-flight slot is claimed before the asker is called.
	<-f.asker.entered

	_, err := f.orch.SubmitQuestion(context.Background(), "second question")
	assert.ErrorIs(t, err, ErrSubmissionInFlight)

	close(f.asker.block)
	require.NoError(t, <-firstDone)
	assert.Len(t, f.orch.Turns(), 1)
}

func TestSubmitQuestion_StaleResponseDiscardedAfterReset(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	f.asker.block = make(chan struct{})
	f.asker.entered = make(chan struct{})
	f.asker.On("Ask", mock.Anything, mock.Anything, mock.Anything).Return(goodAnswer(), nil).Once()

	done := make(chan error, 1)
	go func() {
		_, err := f.orch.SubmitQuestion(context.Background(), "slow question")
		done <- err
	}()

	<-f.asker.entered
	f.orch.Reset()
	close(f.asker.block)

	err := <-done
	assert.ErrorIs(t, err, ErrNoActiveSession)
	assert.Empty(t, f.orch.Turns())
}

// ===== FRAMEWORK =====

func TestSubmitFramework_GatedOnMinimumTurns(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.submitTurns(t, MinTurnsForFramework-1)

	assert.False(t, f.orch.CanSubmitFramework())
	err := f.orch.SubmitFramework(context.Background(), "profitability tree")
	assert.ErrorIs(t, err, ErrInsufficientTurns)
}

func TestSubmitFramework_MovesStatusForward(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.submitTurns(t, MinTurnsForFramework)

	require.True(t, f.orch.CanSubmitFramework())
	f.recorder.On("RecordFramework", mock.Anything, "sess-1", "profitability tree").Return(nil).Once()

	require.NoError(t, f.orch.SubmitFramework(context.Background(), "profitability tree"))
	assert.Equal(t, models.SessionFrameworkSubmitted, f.orch.Status())
	assert.Equal(t, "profitability tree", f.orch.FrameworkText())

	// Forward-only: no second framework submission.
	err := f.orch.SubmitFramework(context.Background(), "another framework")
	assert.ErrorIs(t, err, ErrNoActiveSession)

	// No further questions once the framework is in.
	_, err = f.orch.SubmitQuestion(context.Background(), "late question")
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestSubmitFramework_RejectsEmptyText(t *testing.T) {
	f := newFixture(t)
	f.start(t)
	f.submitTurns(t, MinTurnsForFramework)

	err := f.orch.SubmitFramework(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrEmptyFramework)
}

// ===== COMPLETION =====

func completeFixture(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t)
	f.start(t)
	f.submitTurns(t, 2)
	f.recorder.On("RecordFramework", mock.Anything, "sess-1", mock.Anything).Return(nil).Once()
	require.NoError(t, f.orch.SubmitFramework(context.Background(), "profitability tree"))
	return f
}

func TestComplete_RequiresFramework(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	_, err := f.orch.Complete(context.Background())
	assert.ErrorIs(t, err, ErrFrameworkNotSubmitted)
}

func TestComplete_FreezesElapsedAndScores(t *testing.T) {
	f := completeFixture(t)
	f.clock.Advance(300)

	external := &models.ScoreReport{Overall: 88, Structure: 90}
	f.scorer.On("Score", mock.Anything, mock.Anything, "profitability tree", 300).
		Return(external, nil).Once()
	f.recorder.On("RecordCompletion", mock.Anything, "sess-1", 300, external).Return(nil).Once()

	report, err := f.orch.Complete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 88, report.Overall)
	assert.False(t, report.HeuristicFallback)
	assert.Equal(t, models.SessionCompleted, f.orch.Status())

	// Elapsed is frozen at completion time.
	f.clock.Advance(600)
	assert.Equal(t, 300, f.orch.ElapsedSeconds())
}

func TestComplete_ScorerFailureFallsBackToHeuristic(t *testing.T) {
	f := completeFixture(t)

	f.scorer.On("Score", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("scorer down")).Once()
	f.recorder.On("RecordCompletion", mock.Anything, "sess-1", mock.Anything, mock.Anything).Return(nil).Once()

	report, err := f.orch.Complete(context.Background())
	require.NoError(t, err)
	assert.True(t, report.HeuristicFallback)
	assert.Greater(t, report.Overall, 0)
}

func TestComplete_TerminalStateRejectsSecondCompletion(t *testing.T) {
	f := completeFixture(t)
	f.scorer.On("Score", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&models.ScoreReport{Overall: 70}, nil).Once()
	f.recorder.On("RecordCompletion", mock.Anything, "sess-1", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := f.orch.Complete(context.Background())
	require.NoError(t, err)

	_, err = f.orch.Complete(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

// ===== ELAPSED TIME =====

func TestElapsedSeconds_GrowsWhileActive(t *testing.T) {
	f := newFixture(t)
	f.start(t)

	assert.Equal(t, 0, f.orch.ElapsedSeconds())
	f.clock.Advance(120)
	assert.Equal(t, 120, f.orch.ElapsedSeconds())
}
