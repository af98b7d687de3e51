package main

import (
	"errors"
	"strings"
	"sync"
	"time"
)

// Severity qualifies a notification.
type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityInfo    Severity = "info"
	SeverityError   Severity = "error"
)

// DefaultNotificationTTL is how long a notification stays visible when not dismissed.
const DefaultNotificationTTL = 6 * time.Second

// fallbackErrorMessage is shown when an error carries no text at all.
const fallbackErrorMessage = "An error occurred."

// Notification is the transient message shown after an operation.
type Notification struct {
	Resource  string    `json:"resource"`
	Message   string    `json:"message"`
	Severity  Severity  `json:"severity"`
	RaisedAt  time.Time `json:"raisedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// NormalizeError turns any error into a displayable error notification.
// The message is taken, in order, from the server validation messages,
// the server message field, then the raw error text.
func NormalizeError(err error) Notification {
	n := Notification{Severity: SeverityError, Message: fallbackErrorMessage}
	if err == nil {
		return n
	}

	var cerr *ClientError
	if errors.As(err, &cerr) {
		switch {
		case len(cerr.Messages) > 0:
			n.Message = strings.Join(cerr.Messages, "; ")
		case cerr.Message != "":
			n.Message = cerr.Message
		case cerr.Err != nil:
			n.Message = cerr.Err.Error()
		default:
			n.Message = cerr.Error()
		}
		return n
	}

	if msg := err.Error(); msg != "" {
		n.Message = msg
	}
	return n
}

// Presenter holds the current notification of one page. Each raised
// notification replaces the previous one and is forwarded to publish.
type Presenter struct {
	mu       sync.Mutex
	clock    Clocker
	ttl      time.Duration
	resource string
	current  *Notification
	publish  func(Notification)
}

// NewPresenter provides a presenter whose notifications expire after ttl.
// publish may be nil.
func NewPresenter(clock Clocker, ttl time.Duration, resource string, publish func(Notification)) *Presenter {
	if ttl <= 0 {
		ttl = DefaultNotificationTTL
	}
	return &Presenter{clock: clock, ttl: ttl, resource: resource, publish: publish}
}

// Success raises a success notification.
func (p *Presenter) Success(message string) Notification {
	return p.raise(Notification{Message: message, Severity: SeveritySuccess})
}

// Error raises the normalized form of err.
func (p *Presenter) Error(err error) Notification {
	return p.raise(NormalizeError(err))
}

func (p *Presenter) raise(n Notification) Notification {
	now := p.clock.Now()
	n.Resource = p.resource
	n.RaisedAt = now
	n.ExpiresAt = now.Add(p.ttl)

	p.mu.Lock()
	p.current = &n
	p.mu.Unlock()

	if p.publish != nil {
		p.publish(n)
	}
	return n
}

// Current returns the visible notification or nil once it expired.
func (p *Presenter) Current() *Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return nil
	}
	if !p.clock.Now().Before(p.current.ExpiresAt) {
		p.current = nil
		return nil
	}
	n := *p.current
	return &n
}

// Dismiss clears the notification.
func (p *Presenter) Dismiss() {
	p.mu.Lock()
	p.current = nil
	p.mu.Unlock()
}
