package models

import (
	"strings"
	"time"

	appErrors "github.com/noah-isme/academic-records-api/pkg/errors"
)

// DomainEvent is a fact raised by an entity and collected until the owning unit of work commits.
type DomainEvent interface {
	EventName() string
	OccurredOn() time.Time
}

// Entity is implemented by every persisted record managed through a repository.
type Entity interface {
	ID() string
	AssignID(id string)
	PendingEvents() []DomainEvent
	ClearEvents()
}

// BaseEntity carries the identifier and pending events shared by all entities.
// Entities embed it instead of inheriting a common base type.
type BaseEntity struct {
	id     string
	events []DomainEvent
}

// ID returns the identifier, empty until assigned by the caller or on first commit.
func (b *BaseEntity) ID() string {
	return b.id
}

// AssignID sets the identifier. Replacing an existing identifier is a no-op;
// an empty id clears it so a failed commit can undo its assignment.
func (b *BaseEntity) AssignID(id string) {
	if b.id != "" && id != "" {
		return
	}
	b.id = id
}

// Raise appends an event to the pending list.
func (b *BaseEntity) Raise(event DomainEvent) {
	b.events = append(b.events, event)
}

// PendingEvents returns a copy of the events raised since the last clear.
func (b *BaseEntity) PendingEvents() []DomainEvent {
	if len(b.events) == 0 {
		return nil
	}
	out := make([]DomainEvent, len(b.events))
	copy(out, b.events)
	return out
}

// ClearEvents drops all pending events.
func (b *BaseEntity) ClearEvents() {
	b.events = nil
}

func requireText(field, value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", appErrors.InvalidArgument(field, "must not be empty")
	}
	return trimmed, nil
}

func normalizeEmail(value string) (string, error) {
	trimmed, err := requireText("email", value)
	if err != nil {
		return "", err
	}
	return strings.ToLower(trimmed), nil
}
