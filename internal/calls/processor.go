package calls

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/voicedesk/voicedesk/internal/llm"
	"github.com/voicedesk/voicedesk/internal/observability"
)

// summaryPrompt instructs the completion provider to condense a transcript
const summaryPrompt = "Summarize the following phone call transcript in 2-3 sentences. " +
	"Mention who called, what they wanted, and how the call ended."

// summaryTimeout bounds the best-effort summarization call
const summaryTimeout = 30 * time.Second

// Notifier delivers completed-call notifications. Implementations never
// return an error to the processor.
type Notifier interface {
	Notify(ctx context.Context, record *Record)
}

// Processor validates, deduplicates, and durably records call lifecycle
// events. Summarization and notification are best-effort side effects;
// their failure never fails the record.
type Processor struct {
	repo        Repository
	completions llm.Provider
	notifier    Notifier
	logger      observability.Logger

	// notifyAsync dispatches the notifier without blocking event handling;
	// replaced in tests to make the dispatch synchronous
	notifyAsync func(record *Record)
}

// NewProcessor creates a new call event processor
func NewProcessor(repo Repository, completions llm.Provider, notifier Notifier, logger observability.Logger) *Processor {
	p := &Processor{
		repo:        repo,
		completions: completions,
		notifier:    notifier,
		logger:      logger,
	}
	p.notifyAsync = func(record *Record) {
		// Detached from the event context: the webhook response has long
		// since been written and must not wait for delivery
		go p.notifier.Notify(context.Background(), record)
	}
	return p
}

// HandleEvent dispatches a call lifecycle event to the state machine.
// Unrecognized event types are logged and ignored.
func (p *Processor) HandleEvent(ctx context.Context, event Event) error {
	ctx, span := observability.StartSpan(ctx, "calls.handle_event")
	defer span.End()
	span.SetAttributes(
		observability.CallIDAttributeKey.String(event.Call.ID),
		observability.CallEventAttributeKey.String(event.Type),
	)

	if event.Call.ID == "" {
		return errors.New("event has no call id")
	}

	switch event.Type {
	case EventCallStarted:
		return p.handleCallStarted(ctx, event)
	case EventCallEnded:
		return p.handleCallEnded(ctx, event)
	default:
		p.logger.Info("Ignoring unrecognized call event type", map[string]interface{}{
			"type":    event.Type,
			"call_id": event.Call.ID,
		})
		return nil
	}
}

// handleCallStarted upserts an in-progress record
func (p *Processor) handleCallStarted(ctx context.Context, event Event) error {
	startedAt := time.Now().UTC()
	if event.Call.StartedAt != nil {
		startedAt = *event.Call.StartedAt
	}

	if err := p.repo.UpsertStarted(ctx, event.Call.ID, event.Call.CallerNumber, startedAt); err != nil {
		p.logger.Error("Failed to record call start", map[string]interface{}{
			"call_id": event.Call.ID,
			"error":   err.Error(),
		})
		return err
	}

	p.logger.Info("Call started", map[string]interface{}{
		"call_id": event.Call.ID,
		"caller":  event.Call.CallerNumber,
	})
	return nil
}

// handleCallEnded derives the final record fields and completes the record
func (p *Processor) handleCallEnded(ctx context.Context, event Event) error {
	record := &Record{
		CallID:       event.Call.ID,
		CallerNumber: event.Call.CallerNumber,
		Status:       StatusCompleted,
		EndedAt:      event.Call.EndedAt,
	}

	// call-started may have been missed entirely; fall back to any stored
	// record for the start time, else the event's own start time
	startedAt := event.Call.StartedAt
	if existing, err := p.repo.Get(ctx, event.Call.ID); err == nil && !existing.StartedAt.IsZero() {
		startedAt = &existing.StartedAt
	} else if err != nil && !errors.Is(err, ErrNotFound) {
		p.logger.Error("Failed to load existing call record", map[string]interface{}{
			"call_id": event.Call.ID,
			"error":   err.Error(),
		})
	}

	if startedAt != nil {
		record.StartedAt = *startedAt
	} else {
		record.StartedAt = time.Now().UTC()
	}

	if startedAt != nil && event.Call.EndedAt != nil {
		duration := int64(event.Call.EndedAt.Sub(*startedAt).Seconds())
		if duration < 0 {
			duration = 0
		}
		record.DurationSeconds = &duration
	}

	if event.Call.RecordingURL != "" {
		url := event.Call.RecordingURL
		record.RecordingURL = &url
	}

	if transcript := extractTranscript(event.Call); transcript != "" {
		record.Transcript = &transcript

		// Best effort: a summarization failure leaves Summary null and the
		// record still completes
		if summary := p.summarize(ctx, transcript); summary != "" {
			record.Summary = &summary
		}
	}

	if err := p.repo.UpsertCompleted(ctx, record); err != nil {
		p.logger.Error("Failed to record call completion", map[string]interface{}{
			"call_id": event.Call.ID,
			"error":   err.Error(),
		})
		return err
	}

	p.logger.Info("Call completed", map[string]interface{}{
		"call_id":     event.Call.ID,
		"has_summary": record.Summary != nil,
	})

	p.notifyAsync(record)
	return nil
}

// summarize produces a short summary of the transcript, or "" on failure
func (p *Processor) summarize(ctx context.Context, transcript string) string {
	ctx, cancel := context.WithTimeout(ctx, summaryTimeout)
	defer cancel()

	summary, err := p.completions.Complete(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: summaryPrompt},
		{Role: llm.RoleUser, Content: transcript},
	})
	if err != nil {
		p.logger.Error("Call summarization failed, continuing without summary", map[string]interface{}{
			"error": err.Error(),
		})
		return ""
	}

	return strings.TrimSpace(summary)
}

// extractTranscript prefers the provider's assembled transcript, falling
// back to joining the ordered per-turn messages
func extractTranscript(call CallPayload) string {
	if strings.TrimSpace(call.Transcript) != "" {
		return strings.TrimSpace(call.Transcript)
	}

	lines := make([]string, 0, len(call.Messages))
	for _, entry := range call.Messages {
		if strings.TrimSpace(entry.Message) == "" {
			continue
		}
		lines = append(lines, entry.Role+": "+entry.Message)
	}

	return strings.Join(lines, "\n")
}
