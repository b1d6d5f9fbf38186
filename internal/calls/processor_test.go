package calls

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voicedesk/voicedesk/internal/llm"
	"github.com/voicedesk/voicedesk/internal/observability"
)

// memoryRepository implements Repository with upsert-by-callID semantics
type memoryRepository struct {
	mu      sync.Mutex
	records map[string]*Record
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{records: make(map[string]*Record)}
}

func (r *memoryRepository) UpsertStarted(ctx context.Context, callID, callerNumber string, startedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.records[callID]; ok {
		if existing.Status == StatusCompleted {
			return nil
		}
		existing.StartedAt = startedAt
		if callerNumber != "" {
			existing.CallerNumber = callerNumber
		}
		return nil
	}

	r.records[callID] = &Record{
		CallID:       callID,
		CallerNumber: callerNumber,
		Status:       StatusInProgress,
		StartedAt:    startedAt,
	}
	return nil
}

func (r *memoryRepository) UpsertCompleted(ctx context.Context, record *Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.records[record.CallID]; ok && existing.Status == StatusCompleted {
		return nil
	}

	clone := *record
	r.records[record.CallID] = &clone
	return nil
}

func (r *memoryRepository) Get(ctx context.Context, callID string) (*Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	record, ok := r.records[callID]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *record
	return &clone, nil
}

func (r *memoryRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// fakeCompletions returns a canned summary or error
type fakeCompletions struct {
	summary string
	err     error
	calls   int
}

func (f *fakeCompletions) Complete(ctx context.Context, messages []llm.Message) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.summary, nil
}

// fakeNotifier records dispatched records
type fakeNotifier struct {
	mu       sync.Mutex
	notified []*Record
}

func (f *fakeNotifier) Notify(ctx context.Context, record *Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, record)
}

func newTestProcessor(repo Repository, completions llm.Provider, notifier Notifier) *Processor {
	p := NewProcessor(repo, completions, notifier, observability.NewNoopLogger())
	// Make notification dispatch synchronous for assertions
	p.notifyAsync = func(record *Record) {
		p.notifier.Notify(context.Background(), record)
	}
	return p
}

func TestCallLifecycle(t *testing.T) {
	repo := newMemoryRepository()
	notifier := &fakeNotifier{}
	processor := newTestProcessor(repo, &fakeCompletions{summary: "Caller asked about billing."}, notifier)
	ctx := context.Background()

	startedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	endedAt := startedAt.Add(95 * time.Second)

	require.NoError(t, processor.HandleEvent(ctx, Event{
		Type: EventCallStarted,
		Call: CallPayload{ID: "call-1", CallerNumber: "+15551234567", StartedAt: &startedAt},
	}))

	record, err := repo.Get(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, StatusInProgress, record.Status)

	require.NoError(t, processor.HandleEvent(ctx, Event{
		Type: EventCallEnded,
		Call: CallPayload{ID: "call-1", EndedAt: &endedAt, Transcript: "user: hello\nassistant: hi"},
	}))

	// Exactly one record, transitioned to completed with derived fields
	assert.Equal(t, 1, repo.count())
	record, err = repo.Get(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, record.Status)
	require.NotNil(t, record.DurationSeconds)
	assert.Equal(t, int64(95), *record.DurationSeconds)
	require.NotNil(t, record.Summary)
	assert.Equal(t, "Caller asked about billing.", *record.Summary)

	require.Len(t, notifier.notified, 1)
	assert.Equal(t, "call-1", notifier.notified[0].CallID)
}

func TestDuplicateCallStartedIsIdempotent(t *testing.T) {
	repo := newMemoryRepository()
	processor := newTestProcessor(repo, &fakeCompletions{}, &fakeNotifier{})
	ctx := context.Background()

	event := Event{Type: EventCallStarted, Call: CallPayload{ID: "call-1", CallerNumber: "+15550000000"}}
	require.NoError(t, processor.HandleEvent(ctx, event))
	require.NoError(t, processor.HandleEvent(ctx, event))

	assert.Equal(t, 1, repo.count())
}

func TestCallEndedWithoutStarted(t *testing.T) {
	repo := newMemoryRepository()
	processor := newTestProcessor(repo, &fakeCompletions{summary: "short call"}, &fakeNotifier{})
	ctx := context.Background()

	startedAt := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	endedAt := startedAt.Add(30 * time.Second)

	// call-started was never delivered; the ended path creates the record
	require.NoError(t, processor.HandleEvent(ctx, Event{
		Type: EventCallEnded,
		Call: CallPayload{ID: "call-orphan", StartedAt: &startedAt, EndedAt: &endedAt, Transcript: "hi"},
	}))

	record, err := repo.Get(ctx, "call-orphan")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, record.Status)
	require.NotNil(t, record.DurationSeconds)
	assert.Equal(t, int64(30), *record.DurationSeconds)
}

func TestDurationNullWhenTimestampMissing(t *testing.T) {
	repo := newMemoryRepository()
	processor := newTestProcessor(repo, &fakeCompletions{}, &fakeNotifier{})
	ctx := context.Background()

	require.NoError(t, processor.HandleEvent(ctx, Event{
		Type: EventCallEnded,
		Call: CallPayload{ID: "call-noend"},
	}))

	record, err := repo.Get(ctx, "call-noend")
	require.NoError(t, err)
	assert.Nil(t, record.DurationSeconds)
	assert.Nil(t, record.EndedAt)
}

func TestTranscriptReconstructedFromMessages(t *testing.T) {
	repo := newMemoryRepository()
	processor := newTestProcessor(repo, &fakeCompletions{summary: "s"}, &fakeNotifier{})
	ctx := context.Background()

	require.NoError(t, processor.HandleEvent(ctx, Event{
		Type: EventCallEnded,
		Call: CallPayload{
			ID: "call-msgs",
			Messages: []TranscriptEntry{
				{Role: "assistant", Message: "How can I help?"},
				{Role: "user", Message: "What are your hours?"},
			},
		},
	}))

	record, err := repo.Get(ctx, "call-msgs")
	require.NoError(t, err)
	require.NotNil(t, record.Transcript)
	assert.Equal(t, "assistant: How can I help?\nuser: What are your hours?", *record.Transcript)
}

func TestSummaryFailureDoesNotFailRecord(t *testing.T) {
	repo := newMemoryRepository()
	processor := newTestProcessor(repo, &fakeCompletions{err: errors.New("provider down")}, &fakeNotifier{})
	ctx := context.Background()

	require.NoError(t, processor.HandleEvent(ctx, Event{
		Type: EventCallEnded,
		Call: CallPayload{ID: "call-1", Transcript: "user: hello"},
	}))

	record, err := repo.Get(ctx, "call-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, record.Status)
	assert.Nil(t, record.Summary)
}

func TestEmptyTranscriptSkipsSummarization(t *testing.T) {
	repo := newMemoryRepository()
	completions := &fakeCompletions{summary: "never used"}
	processor := newTestProcessor(repo, completions, &fakeNotifier{})
	ctx := context.Background()

	require.NoError(t, processor.HandleEvent(ctx, Event{
		Type: EventCallEnded,
		Call: CallPayload{ID: "call-silent"},
	}))

	assert.Zero(t, completions.calls)
}

func TestUnrecognizedEventIgnored(t *testing.T) {
	repo := newMemoryRepository()
	processor := newTestProcessor(repo, &fakeCompletions{}, &fakeNotifier{})

	err := processor.HandleEvent(context.Background(), Event{
		Type: "speech-update",
		Call: CallPayload{ID: "call-1"},
	})

	assert.NoError(t, err)
	assert.Zero(t, repo.count())
}

func TestEventWithoutCallID(t *testing.T) {
	processor := newTestProcessor(newMemoryRepository(), &fakeCompletions{}, &fakeNotifier{})
	err := processor.HandleEvent(context.Background(), Event{Type: EventCallStarted})
	assert.Error(t, err)
}
