// Package notifications delivers completed-call notifications over email
// and SMS. Channels are attempted independently; one failing never stops
// the other, and the dispatcher never surfaces an error to its caller.
package notifications

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/voicedesk/voicedesk/internal/calls"
	"github.com/voicedesk/voicedesk/internal/observability"
)

// Config holds notification destinations. Empty destinations disable the
// corresponding channel.
type Config struct {
	EmailFrom string `mapstructure:"email_from"`
	EmailTo   string `mapstructure:"email_to"`
	SMSTo     string `mapstructure:"sms_to"`
	AWSRegion string `mapstructure:"aws_region"`
}

// EmailSender delivers a single email
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender delivers a single SMS
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// Dispatcher fans a completed call record out to the configured channels
type Dispatcher struct {
	config Config
	email  EmailSender
	sms    SMSSender
	logger observability.Logger
}

// NewDispatcher creates a new notification dispatcher
func NewDispatcher(config Config, email EmailSender, sms SMSSender, logger observability.Logger) *Dispatcher {
	return &Dispatcher{
		config: config,
		email:  email,
		sms:    sms,
		logger: logger,
	}
}

// Notify attempts email and SMS delivery concurrently. A channel with no
// configured destination is skipped with a log line. Per-channel outcomes
// are aggregated for logging only; Notify never returns an error.
func (d *Dispatcher) Notify(ctx context.Context, record *calls.Record) {
	var wg sync.WaitGroup
	var emailErr, smsErr error
	emailAttempted, smsAttempted := false, false

	if d.config.EmailTo == "" || d.email == nil {
		d.logger.Info("Email notification skipped: no destination configured", map[string]interface{}{
			"call_id": record.CallID,
		})
	} else {
		emailAttempted = true
		wg.Add(1)
		go func() {
			defer wg.Done()
			emailErr = d.email.SendEmail(ctx, d.config.EmailTo, emailSubject(record), messageBody(record))
		}()
	}

	if d.config.SMSTo == "" || d.sms == nil {
		d.logger.Info("SMS notification skipped: no destination configured", map[string]interface{}{
			"call_id": record.CallID,
		})
	} else {
		smsAttempted = true
		wg.Add(1)
		go func() {
			defer wg.Done()
			smsErr = d.sms.SendSMS(ctx, d.config.SMSTo, messageBody(record))
		}()
	}

	wg.Wait()

	fields := map[string]interface{}{
		"call_id":         record.CallID,
		"email_attempted": emailAttempted,
		"sms_attempted":   smsAttempted,
	}
	if emailErr != nil {
		fields["email_error"] = emailErr.Error()
	}
	if smsErr != nil {
		fields["sms_error"] = smsErr.Error()
	}

	if emailErr != nil || smsErr != nil {
		d.logger.Error("Call notification finished with channel failures", fields)
		return
	}
	d.logger.Info("Call notification dispatched", fields)
}

// emailSubject builds the notification subject line
func emailSubject(record *calls.Record) string {
	caller := record.CallerNumber
	if caller == "" {
		caller = "unknown caller"
	}
	return fmt.Sprintf("Call completed: %s", caller)
}

// messageBody builds the human-readable notification text shared by both
// channels
func messageBody(record *calls.Record) string {
	var b strings.Builder

	caller := record.CallerNumber
	if caller == "" {
		caller = "an unknown number"
	}
	fmt.Fprintf(&b, "Call from %s has completed.\n", caller)

	if record.DurationSeconds != nil {
		fmt.Fprintf(&b, "Duration: %s.\n", (time.Duration(*record.DurationSeconds) * time.Second).String())
	}

	if record.Summary != nil && *record.Summary != "" {
		fmt.Fprintf(&b, "\nSummary: %s\n", *record.Summary)
	}

	if record.RecordingURL != nil && *record.RecordingURL != "" {
		fmt.Fprintf(&b, "\nRecording: %s\n", *record.RecordingURL)
	}

	return b.String()
}
