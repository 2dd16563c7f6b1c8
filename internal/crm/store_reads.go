package crm

import (
	"slices"

	"evictioncrm/pkg/domain"
)

// Owners lists owners in insertion order.
func (s *Store) Owners() []domain.PropertyOwner {
	var out []domain.PropertyOwner
	s.view(func(st *State) {
		out = make([]domain.PropertyOwner, len(st.Owners))
		for i, o := range st.Owners {
			out[i] = cloneOwner(o)
		}
	})
	return out
}

// Tenants lists tenants in insertion order.
func (s *Store) Tenants() []domain.Tenant {
	var out []domain.Tenant
	s.view(func(st *State) {
		out = make([]domain.Tenant, len(st.Tenants))
		for i, t := range st.Tenants {
			out[i] = cloneTenant(t)
		}
	})
	return out
}

// Properties lists properties in insertion order.
func (s *Store) Properties() []domain.Property {
	var out []domain.Property
	s.view(func(st *State) {
		out = make([]domain.Property, len(st.Properties))
		for i, p := range st.Properties {
			out[i] = cloneProperty(p)
		}
	})
	return out
}

// Cases lists cases with their documents, reminders and notes joined in.
func (s *Store) Cases() []domain.Case {
	var out []domain.Case
	s.view(func(st *State) { out = st.listCases() })
	return out
}

// Documents lists every document, tombstoned ones included.
func (s *Store) Documents() []domain.Document {
	var out []domain.Document
	s.view(func(st *State) { out = slices.Clone(st.Documents) })
	return out
}

// Notes lists every note.
func (s *Store) Notes() []domain.Note {
	var out []domain.Note
	s.view(func(st *State) { out = slices.Clone(st.Notes) })
	return out
}

// Reminders lists every reminder.
func (s *Store) Reminders() []domain.Reminder {
	var out []domain.Reminder
	s.view(func(st *State) { out = slices.Clone(st.Reminders) })
	return out
}

func (s *Store) FindOwner(id string) (owner domain.PropertyOwner, ok bool) {
	s.view(func(st *State) { owner, ok = st.findOwner(id) })
	return
}

func (s *Store) FindTenant(id string) (tenant domain.Tenant, ok bool) {
	s.view(func(st *State) { tenant, ok = st.findTenant(id) })
	return
}

func (s *Store) FindProperty(id string) (property domain.Property, ok bool) {
	s.view(func(st *State) { property, ok = st.findProperty(id) })
	return
}

// FindCase returns the decorated case.
func (s *Store) FindCase(id string) (c domain.Case, ok bool) {
	s.view(func(st *State) { c, ok = st.findCase(id) })
	return
}

func (s *Store) FindDocument(id string) (doc domain.Document, ok bool) {
	s.view(func(st *State) { doc, ok = st.findDocument(id) })
	return
}

func (s *Store) FindNote(id string) (note domain.Note, ok bool) {
	s.view(func(st *State) { note, ok = st.findNote(id) })
	return
}

func (s *Store) FindReminder(id string) (reminder domain.Reminder, ok bool) {
	s.view(func(st *State) { reminder, ok = st.findReminder(id) })
	return
}
