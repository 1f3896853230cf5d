package service

import "github.com/google/uuid"

// Actor identifies who performs a write, for audit columns and broadcasts.
type Actor struct {
	ID    string
	Name  string
	Email string
}

// SystemActor is used by operator tooling that runs without a login.
var SystemActor = Actor{ID: "system", Name: "System"}

// UserID is nil for actors that are not users, such as SystemActor.
func (a Actor) UserID() *uuid.UUID {
	id, err := uuid.Parse(a.ID)
	if err != nil {
		return nil
	}
	return &id
}

// EventPublisher receives live events after a write commits.
type EventPublisher interface {
	Publish(event any)
}
