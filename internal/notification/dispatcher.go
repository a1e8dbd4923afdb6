package notification

import "context"

// Message is a pre-rendered notification. Body may contain a setup link and
// must never be logged.
type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

//go:generate mockgen -destination=../mocks/mock_dispatcher.go -package=mocks consultant-access/internal/notification Dispatcher,Publisher

// Dispatcher delivers a message over some transport.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) error
}
