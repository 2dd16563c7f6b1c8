package crm

import (
	"errors"
	"fmt"
	"time"

	"evictioncrm/pkg/domain"
)

// Env carries the impure inputs a reducer may need so that reducers stay pure.
// Every reducer of a single dispatch observes the same Now.
type Env struct {
	Now   time.Time
	NewID func() string
}

// Patch is the partial snapshot a reducer returns. A nil field leaves the
// corresponding key untouched; reducers only ever set the keys they own.
type Patch struct {
	Owners        []domain.PropertyOwner
	Tenants       []domain.Tenant
	Properties    []domain.Property
	Cases         []domain.Case
	Documents     []domain.Document
	Notes         []domain.Note
	Reminders     []domain.Reminder
	CaseDocuments map[string][]string
	CaseReminders map[string][]string
	CaseNotes     map[string][]string

	// Changes records what the patch did, in reducer order.
	Changes []domain.Change
	// Reject is set when the action cannot be applied; the whole dispatch is
	// then discarded.
	Reject error
}

// Empty reports whether the patch neither changes state nor rejects.
func (p Patch) Empty() bool {
	return p.Owners == nil && p.Tenants == nil && p.Properties == nil &&
		p.Cases == nil && p.Documents == nil && p.Notes == nil && p.Reminders == nil &&
		p.CaseDocuments == nil && p.CaseReminders == nil && p.CaseNotes == nil &&
		len(p.Changes) == 0 && p.Reject == nil
}

// merge folds other into p; keys set in other win.
func (p Patch) merge(other Patch) Patch {
	if other.Owners != nil {
		p.Owners = other.Owners
	}
	if other.Tenants != nil {
		p.Tenants = other.Tenants
	}
	if other.Properties != nil {
		p.Properties = other.Properties
	}
	if other.Cases != nil {
		p.Cases = other.Cases
	}
	if other.Documents != nil {
		p.Documents = other.Documents
	}
	if other.Notes != nil {
		p.Notes = other.Notes
	}
	if other.Reminders != nil {
		p.Reminders = other.Reminders
	}
	if other.CaseDocuments != nil {
		p.CaseDocuments = other.CaseDocuments
	}
	if other.CaseReminders != nil {
		p.CaseReminders = other.CaseReminders
	}
	if other.CaseNotes != nil {
		p.CaseNotes = other.CaseNotes
	}
	if len(other.Changes) > 0 {
		p.Changes = append(p.Changes, other.Changes...)
	}
	if p.Reject == nil {
		p.Reject = other.Reject
	}
	return p
}

// apply returns a new snapshot with the patch's keys replaced.
func (s State) apply(p Patch) State {
	merged := Patch{
		Owners:        s.Owners,
		Tenants:       s.Tenants,
		Properties:    s.Properties,
		Cases:         s.Cases,
		Documents:     s.Documents,
		Notes:         s.Notes,
		Reminders:     s.Reminders,
		CaseDocuments: s.CaseDocuments,
		CaseReminders: s.CaseReminders,
		CaseNotes:     s.CaseNotes,
	}.merge(p)
	return State{
		Owners:        merged.Owners,
		Tenants:       merged.Tenants,
		Properties:    merged.Properties,
		Cases:         merged.Cases,
		Documents:     merged.Documents,
		Notes:         merged.Notes,
		Reminders:     merged.Reminders,
		CaseDocuments: merged.CaseDocuments,
		CaseReminders: merged.CaseReminders,
		CaseNotes:     merged.CaseNotes,
	}
}

// ErrNotFound reports an action naming an id that is not in the snapshot.
type ErrNotFound struct {
	Entity domain.EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %q not found", e.Entity, e.ID)
}

// IsNotFound reports whether err wraps ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}

// ErrTerminalStage rejects advancing a case that is already closed.
var ErrTerminalStage = errors.New("crm: case is already at its final stage")

// ErrNoStore is raised when a Store is used without being built by NewStore.
var ErrNoStore = errors.New("crm: store used outside of NewStore")

func notFound(entity domain.EntityType, id string) Patch {
	return Patch{Reject: ErrNotFound{Entity: entity, ID: id}}
}

func created(entity domain.EntityType, after any) []domain.Change {
	return []domain.Change{{Entity: entity, Action: domain.ActionCreate, After: after}}
}

func updated(entity domain.EntityType, before, after any) []domain.Change {
	return []domain.Change{{Entity: entity, Action: domain.ActionUpdate, Before: before, After: after}}
}
