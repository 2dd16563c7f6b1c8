package crm

import (
	"context"

	"evictioncrm/pkg/domain"
)

// Bound action functions. Each validates its input, builds the action with the
// matching creator, dispatches it and returns the affected record.

// AddOwner creates an owner.
func (s *Store) AddOwner(ctx context.Context, owner domain.PropertyOwner) (domain.PropertyOwner, error) {
	if err := owner.Validate(); err != nil {
		return domain.PropertyOwner{}, err
	}
	return dispatchFor[domain.PropertyOwner](ctx, s, AddOwner(owner), domain.EntityOwner)
}

// UpdateOwner replaces an owner by id.
func (s *Store) UpdateOwner(ctx context.Context, owner domain.PropertyOwner) (domain.PropertyOwner, error) {
	if err := owner.Validate(); err != nil {
		return domain.PropertyOwner{}, err
	}
	return dispatchFor[domain.PropertyOwner](ctx, s, UpdateOwner(owner), domain.EntityOwner)
}

// AddTenant creates a tenant.
func (s *Store) AddTenant(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	if err := tenant.Validate(); err != nil {
		return domain.Tenant{}, err
	}
	return dispatchFor[domain.Tenant](ctx, s, AddTenant(tenant), domain.EntityTenant)
}

// UpdateTenant replaces a tenant by id.
func (s *Store) UpdateTenant(ctx context.Context, tenant domain.Tenant) (domain.Tenant, error) {
	if err := tenant.Validate(); err != nil {
		return domain.Tenant{}, err
	}
	return dispatchFor[domain.Tenant](ctx, s, UpdateTenant(tenant), domain.EntityTenant)
}

// AddProperty creates a property.
func (s *Store) AddProperty(ctx context.Context, property domain.Property) (domain.Property, error) {
	if err := property.Validate(); err != nil {
		return domain.Property{}, err
	}
	return dispatchFor[domain.Property](ctx, s, AddProperty(property), domain.EntityProperty)
}

// UpdateProperty replaces a property by id.
func (s *Store) UpdateProperty(ctx context.Context, property domain.Property) (domain.Property, error) {
	if err := property.Validate(); err != nil {
		return domain.Property{}, err
	}
	return dispatchFor[domain.Property](ctx, s, UpdateProperty(property), domain.EntityProperty)
}

// AddCase opens a case and returns it with its (empty) child views.
func (s *Store) AddCase(ctx context.Context, c domain.Case) (domain.Case, error) {
	if err := c.Validate(); err != nil {
		return domain.Case{}, err
	}
	return s.dispatchCase(ctx, AddCase(c))
}

// UpdateCase replaces a case by id and refreshes UpdatedAt.
func (s *Store) UpdateCase(ctx context.Context, c domain.Case) (domain.Case, error) {
	if err := c.Validate(); err != nil {
		return domain.Case{}, err
	}
	return s.dispatchCase(ctx, UpdateCase(c))
}

// UpdateCaseStage sets a case's stage. Stages outside 1..9 are rejected.
func (s *Store) UpdateCaseStage(ctx context.Context, caseID string, stage domain.CaseStage) (domain.Case, error) {
	return s.dispatchCase(ctx, UpdateCaseStage(caseID, stage))
}

// AdvanceCaseStage moves a case exactly one stage forward. The next stage is
// resolved against the committed snapshot under the write lock, so concurrent
// advances each take one step. Closed cases yield ErrTerminalStage.
func (s *Store) AdvanceCaseStage(ctx context.Context, caseID string) (domain.Case, error) {
	return s.dispatchCase(ctx, AdvanceCaseStage(caseID))
}

// AddDocument stores a document, linking it to its case when CaseID resolves.
func (s *Store) AddDocument(ctx context.Context, doc domain.Document) (domain.Document, error) {
	if err := doc.Validate(); err != nil {
		return domain.Document{}, err
	}
	return dispatchFor[domain.Document](ctx, s, AddDocument(doc), domain.EntityDocument)
}

// UpdateDocument replaces a document's editable fields.
func (s *Store) UpdateDocument(ctx context.Context, doc domain.Document) (domain.Document, error) {
	if err := doc.Validate(); err != nil {
		return domain.Document{}, err
	}
	return dispatchFor[domain.Document](ctx, s, UpdateDocument(doc), domain.EntityDocument)
}

// DeleteDocument tombstones a document. Deleting twice is a no-op.
func (s *Store) DeleteDocument(ctx context.Context, id string) (domain.Document, error) {
	doc, err := dispatchFor[domain.Document](ctx, s, DeleteDocument(id), domain.EntityDocument)
	if err != nil {
		return domain.Document{}, err
	}
	if doc.ID == "" {
		doc, _ = s.FindDocument(id)
	}
	return doc, nil
}

// AddNote stores a note, linking it to its case when CaseID resolves.
func (s *Store) AddNote(ctx context.Context, note domain.Note) (domain.Note, error) {
	if err := note.Validate(); err != nil {
		return domain.Note{}, err
	}
	return dispatchFor[domain.Note](ctx, s, AddNote(note), domain.EntityNote)
}

// AddReminder stores a reminder, linking it to its case when CaseID resolves.
func (s *Store) AddReminder(ctx context.Context, reminder domain.Reminder) (domain.Reminder, error) {
	if err := reminder.ValidateNew(); err != nil {
		return domain.Reminder{}, err
	}
	return dispatchFor[domain.Reminder](ctx, s, AddReminder(reminder), domain.EntityReminder)
}

// UpdateReminder replaces a reminder's editable fields.
func (s *Store) UpdateReminder(ctx context.Context, reminder domain.Reminder) (domain.Reminder, error) {
	if err := reminder.Validate(); err != nil {
		return domain.Reminder{}, err
	}
	return dispatchFor[domain.Reminder](ctx, s, UpdateReminder(reminder), domain.EntityReminder)
}

// CompleteReminder marks a reminder completed. Completing twice is a no-op.
func (s *Store) CompleteReminder(ctx context.Context, id string) (domain.Reminder, error) {
	reminder, _, err := s.CompleteReminderOnce(ctx, id)
	return reminder, err
}

// CompleteReminderOnce is CompleteReminder that also reports whether this
// call was the one that flipped the reminder to completed.
func (s *Store) CompleteReminderOnce(ctx context.Context, id string) (domain.Reminder, bool, error) {
	reminder, err := dispatchFor[domain.Reminder](ctx, s, CompleteReminder(id), domain.EntityReminder)
	if err != nil {
		return domain.Reminder{}, false, err
	}
	if reminder.ID != "" {
		return reminder, true, nil
	}
	reminder, _ = s.FindReminder(id)
	return reminder, false, nil
}

func (s *Store) dispatchCase(ctx context.Context, action Action) (domain.Case, error) {
	c, err := dispatchFor[domain.Case](ctx, s, action, domain.EntityCase)
	if err != nil {
		return domain.Case{}, err
	}
	decorated, _ := s.FindCase(c.ID)
	return decorated, nil
}

// dispatchFor dispatches action and returns the After value of the first
// change recorded for entity. The zero value is returned for no-op dispatches.
func dispatchFor[T any](ctx context.Context, s *Store, action Action, entity domain.EntityType) (T, error) {
	var zero T
	patch, err := s.Dispatch(ctx, action)
	if err != nil {
		return zero, err
	}
	for _, change := range patch.Changes {
		if change.Entity != entity {
			continue
		}
		if v, ok := change.After.(T); ok {
			return v, nil
		}
	}
	return zero, nil
}
