// Package calls records telephony call lifecycle events. Events arrive via
// webhook, possibly duplicated or out of order; all persistence goes
// through upsert keyed by the external call ID so concurrent duplicate
// delivery is safe.
package calls

import "time"

// Status is the lifecycle state of a call record
type Status string

// Call statuses. A record never leaves completed.
const (
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Event types delivered by the telephony provider
const (
	EventCallStarted = "call-started"
	EventCallEnded   = "call-ended"
)

// TranscriptEntry is one turn of the call transcript
type TranscriptEntry struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// CallPayload carries the call fields of a webhook event
type CallPayload struct {
	ID           string            `json:"id"`
	CallerNumber string            `json:"callerNumber"`
	StartedAt    *time.Time        `json:"startedAt,omitempty"`
	EndedAt      *time.Time        `json:"endedAt,omitempty"`
	Transcript   string            `json:"transcript,omitempty"`
	RecordingURL string            `json:"recordingUrl,omitempty"`
	Messages     []TranscriptEntry `json:"messages,omitempty"`
}

// Event is a single call lifecycle webhook event
type Event struct {
	Type string      `json:"type"`
	Call CallPayload `json:"call"`
}

// Record is the durable call record. CallID is the natural key for
// idempotent upserts.
type Record struct {
	CallID          string     `db:"call_id" json:"call_id"`
	CallerNumber    string     `db:"caller_number" json:"caller_number"`
	Status          Status     `db:"status" json:"status"`
	StartedAt       time.Time  `db:"started_at" json:"started_at"`
	EndedAt         *time.Time `db:"ended_at" json:"ended_at,omitempty"`
	DurationSeconds *int64     `db:"duration_seconds" json:"duration_seconds,omitempty"`
	RecordingURL    *string    `db:"recording_url" json:"recording_url,omitempty"`
	Transcript      *string    `db:"transcript" json:"transcript,omitempty"`
	Summary         *string    `db:"summary" json:"summary,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
}
