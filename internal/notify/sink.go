// Package notify carries outbound messages from the repository layer to the
// chat front end. Delivery is best-effort everywhere: a failed notification
// must never fail the state transition that triggered it, so callers log sink
// errors and move on.
package notify

import (
	"context"
	"log"
)

// Sink accepts a message addressed to a user's external chat identity.
type Sink interface {
	Notify(ctx context.Context, externalUserID int64, message string) error
}

// LogSink writes notifications to the process log. It is the default sink in
// development and in tests that do not care about delivery.
type LogSink struct{}

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) Notify(_ context.Context, externalUserID int64, message string) error {
	log.Printf("notify user %d: %s", externalUserID, message)
	return nil
}

// CaptureSink records notifications in memory; tests use it to assert who was
// notified without a broker.
type CaptureSink struct {
	Sent []CapturedMessage
}

type CapturedMessage struct {
	ExternalUserID int64
	Message        string
}

func NewCaptureSink() *CaptureSink {
	return &CaptureSink{}
}

func (s *CaptureSink) Notify(_ context.Context, externalUserID int64, message string) error {
	s.Sent = append(s.Sent, CapturedMessage{ExternalUserID: externalUserID, Message: message})
	return nil
}

func (s *CaptureSink) Reset() {
	s.Sent = nil
}
