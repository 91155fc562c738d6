// Package events publishes content lifecycle notifications, in the shape of
// CMS webhooks, to a message broker.
package events

//go:generate mockgen -source=events.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/storefront/internal/logging"
)

// Event names, also used as routing keys.
const (
	EntryCreate        = "entry.create"
	MediaCreate        = "media.create"
	UserForgotPassword = "user.forgot-password"
	UserPasswordReset  = "user.password-reset"
	UserProfileUpdate  = "user.update"
)

// Event is the message body: {event, model, entry, createdAt}.
type Event struct {
	Name      string    `json:"event"`
	Model     string    `json:"model"`
	Entry     any       `json:"entry"`
	CreatedAt time.Time `json:"createdAt"`
}

// New stamps an event with the current time.
func New(name, model string, entry any) Event {
	return Event{Name: name, Model: model, Entry: entry, CreatedAt: time.Now().UTC()}
}

func (e Event) encode() ([]byte, error) {
	return json.Marshal(e)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NopPublisher drops events; used when no broker is configured.
type NopPublisher struct {
	logger logging.Logger
}

func NewNopPublisher(logger logging.Logger) *NopPublisher {
	return &NopPublisher{logger: logger}
}

func (p *NopPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.Debug(ctx, "event dropped, no broker configured", "event", event.Name, "model", event.Model)
	return nil
}

func (p *NopPublisher) Close() error { return nil }
