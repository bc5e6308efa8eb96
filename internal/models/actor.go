package models

import "errors"

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("not found")

type ActorRole string

const (
	RoleCitizen ActorRole = "citizen"
	RoleOfficer ActorRole = "officer"
	RoleAdmin   ActorRole = "admin"
)

// Actor identifies who triggered a change. Authentication happens before
// the engine sees it; the engine only records it.
type Actor struct {
	ID   string    `json:"id"`
	Role ActorRole `json:"role"`
	Unit string    `json:"unit,omitempty"`
}

// Ref returns the actor id for an update entry; the zero Actor is the
// system.
func (a Actor) Ref() *string {
	if a.ID == "" {
		return nil
	}
	id := a.ID
	return &id
}
