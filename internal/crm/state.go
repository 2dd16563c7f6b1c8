// Package crm implements the reducer-driven case store: the normalized state
// snapshot, the actions that mutate it, one reducer per entity collection and
// the Store that serialises dispatches and exposes bound action functions.
package crm

import (
	"maps"
	"slices"

	"evictioncrm/pkg/domain"
)

// State is the complete in-memory snapshot. Collections keep insertion order.
//
// Cases are stored without their embedded children; the Case*Index maps hold
// the ordered child ids per case and are joined back on read.
type State struct {
	Owners        []domain.PropertyOwner `json:"owners"`
	Tenants       []domain.Tenant        `json:"tenants"`
	Properties    []domain.Property      `json:"properties"`
	Cases         []domain.Case          `json:"cases"`
	Documents     []domain.Document      `json:"documents"`
	Notes         []domain.Note          `json:"notes"`
	Reminders     []domain.Reminder      `json:"reminders"`
	CaseDocuments map[string][]string    `json:"case_documents"`
	CaseReminders map[string][]string    `json:"case_reminders"`
	CaseNotes     map[string][]string    `json:"case_notes"`
}

// NewState returns an empty snapshot with initialised indexes.
func NewState() State {
	return State{
		Owners:        []domain.PropertyOwner{},
		Tenants:       []domain.Tenant{},
		Properties:    []domain.Property{},
		Cases:         []domain.Case{},
		Documents:     []domain.Document{},
		Notes:         []domain.Note{},
		Reminders:     []domain.Reminder{},
		CaseDocuments: map[string][]string{},
		CaseReminders: map[string][]string{},
		CaseNotes:     map[string][]string{},
	}
}

// clone deep-copies the snapshot and fills nil collections.
func (s State) clone() State {
	out := State{
		Owners:        make([]domain.PropertyOwner, len(s.Owners)),
		Tenants:       make([]domain.Tenant, len(s.Tenants)),
		Properties:    make([]domain.Property, len(s.Properties)),
		Cases:         make([]domain.Case, len(s.Cases)),
		Documents:     slices.Clone(s.Documents),
		Notes:         slices.Clone(s.Notes),
		Reminders:     slices.Clone(s.Reminders),
		CaseDocuments: cloneIndex(s.CaseDocuments),
		CaseReminders: cloneIndex(s.CaseReminders),
		CaseNotes:     cloneIndex(s.CaseNotes),
	}
	for i, o := range s.Owners {
		out.Owners[i] = cloneOwner(o)
	}
	for i, t := range s.Tenants {
		out.Tenants[i] = cloneTenant(t)
	}
	for i, p := range s.Properties {
		out.Properties[i] = cloneProperty(p)
	}
	for i, c := range s.Cases {
		out.Cases[i] = stripCase(c)
	}
	if out.Documents == nil {
		out.Documents = []domain.Document{}
	}
	if out.Notes == nil {
		out.Notes = []domain.Note{}
	}
	if out.Reminders == nil {
		out.Reminders = []domain.Reminder{}
	}
	return out
}

func cloneIndex(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		out[k] = slices.Clone(v)
	}
	return out
}

func appendToIndex(in map[string][]string, key, id string) map[string][]string {
	out := maps.Clone(in)
	if out == nil {
		out = make(map[string][]string, 1)
	}
	out[key] = appendCopy(in[key], id)
	return out
}

func cloneNotes(in []domain.Note) []domain.Note {
	if in == nil {
		return []domain.Note{}
	}
	return slices.Clone(in)
}

func cloneOwner(o domain.PropertyOwner) domain.PropertyOwner {
	o.Notes = cloneNotes(o.Notes)
	return o
}

func cloneTenant(t domain.Tenant) domain.Tenant {
	t.Notes = cloneNotes(t.Notes)
	if t.LeaseStartDate != nil {
		d := *t.LeaseStartDate
		t.LeaseStartDate = &d
	}
	return t
}

func cloneProperty(p domain.Property) domain.Property {
	p.Notes = cloneNotes(p.Notes)
	return p
}

func cloneIntake(in domain.CaseIntake) domain.CaseIntake {
	if in.PastEvictions != nil {
		v := *in.PastEvictions
		in.PastEvictions = &v
	}
	if in.LegalNoticeServed != nil {
		v := *in.LegalNoticeServed
		in.LegalNoticeServed = &v
	}
	return in
}

// stripCase drops the read-side child views before a case is stored.
func stripCase(c domain.Case) domain.Case {
	c.Documents = nil
	c.Reminders = nil
	c.Notes = nil
	c.Intake = cloneIntake(c.Intake)
	return c
}

func indexOf[T any](items []T, id string, key func(T) string) int {
	for i, item := range items {
		if key(item) == id {
			return i
		}
	}
	return -1
}

func appendCopy[T any](items []T, v T) []T {
	out := make([]T, len(items), len(items)+1)
	copy(out, items)
	return append(out, v)
}

func replaceAt[T any](items []T, i int, v T) []T {
	out := slices.Clone(items)
	out[i] = v
	return out
}

func ownerID(o domain.PropertyOwner) string { return o.ID }
func tenantID(t domain.Tenant) string { return t.ID }
func propertyID(p domain.Property) string { return p.ID }
func caseID(c domain.Case) string { return c.ID }
func documentID(d domain.Document) string { return d.ID }
func noteID(n domain.Note) string { return n.ID }
func reminderID(r domain.Reminder) string { return r.ID }

func (s State) findOwner(id string) (domain.PropertyOwner, bool) {
	if i := indexOf(s.Owners, id, ownerID); i >= 0 {
		return cloneOwner(s.Owners[i]), true
	}
	return domain.PropertyOwner{}, false
}

func (s State) findTenant(id string) (domain.Tenant, bool) {
	if i := indexOf(s.Tenants, id, tenantID); i >= 0 {
		return cloneTenant(s.Tenants[i]), true
	}
	return domain.Tenant{}, false
}

func (s State) findProperty(id string) (domain.Property, bool) {
	if i := indexOf(s.Properties, id, propertyID); i >= 0 {
		return cloneProperty(s.Properties[i]), true
	}
	return domain.Property{}, false
}

func (s State) hasCase(id string) bool {
	return id != "" && indexOf(s.Cases, id, caseID) >= 0
}

func (s State) findDocument(id string) (domain.Document, bool) {
	if i := indexOf(s.Documents, id, documentID); i >= 0 {
		return s.Documents[i], true
	}
	return domain.Document{}, false
}

func (s State) findNote(id string) (domain.Note, bool) {
	if i := indexOf(s.Notes, id, noteID); i >= 0 {
		return s.Notes[i], true
	}
	return domain.Note{}, false
}

func (s State) findReminder(id string) (domain.Reminder, bool) {
	if i := indexOf(s.Reminders, id, reminderID); i >= 0 {
		return s.Reminders[i], true
	}
	return domain.Reminder{}, false
}

// joiner resolves case child ids against lookup tables built once per read.
type joiner struct {
	state     *State
	documents map[string]domain.Document
	reminders map[string]domain.Reminder
	notes     map[string]domain.Note
}

func newJoiner(state *State) joiner {
	j := joiner{
		state:     state,
		documents: make(map[string]domain.Document, len(state.Documents)),
		reminders: make(map[string]domain.Reminder, len(state.Reminders)),
		notes:     make(map[string]domain.Note, len(state.Notes)),
	}
	for _, d := range state.Documents {
		j.documents[d.ID] = d
	}
	for _, r := range state.Reminders {
		j.reminders[r.ID] = r
	}
	for _, n := range state.Notes {
		j.notes[n.ID] = n
	}
	return j
}

func (j joiner) decorate(c domain.Case) domain.Case {
	c = stripCase(c)
	c.Documents = resolve(j.state.CaseDocuments[c.ID], j.documents)
	c.Reminders = resolve(j.state.CaseReminders[c.ID], j.reminders)
	c.Notes = resolve(j.state.CaseNotes[c.ID], j.notes)
	return c
}

func resolve[T any](ids []string, table map[string]T) []T {
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if v, ok := table[id]; ok {
			out = append(out, v)
		}
	}
	return out
}

func (s State) findCase(id string) (domain.Case, bool) {
	i := indexOf(s.Cases, id, caseID)
	if i < 0 {
		return domain.Case{}, false
	}
	return newJoiner(&s).decorate(s.Cases[i]), true
}

func (s State) listCases() []domain.Case {
	j := newJoiner(&s)
	out := make([]domain.Case, len(s.Cases))
	for i, c := range s.Cases {
		out[i] = j.decorate(c)
	}
	return out
}

// ruleView adapts a snapshot to domain.RuleView.
type ruleView struct {
	state *State
}

func (v ruleView) ListCases() []domain.Case { return v.state.listCases() }

func (v ruleView) FindCase(id string) (domain.Case, bool) { return v.state.findCase(id) }

func (v ruleView) FindOwner(id string) (domain.PropertyOwner, bool) { return v.state.findOwner(id) }

func (v ruleView) FindTenant(id string) (domain.Tenant, bool) { return v.state.findTenant(id) }

func (v ruleView) FindProperty(id string) (domain.Property, bool) { return v.state.findProperty(id) }

func (v ruleView) FindDocument(id string) (domain.Document, bool) { return v.state.findDocument(id) }

func (v ruleView) FindReminder(id string) (domain.Reminder, bool) { return v.state.findReminder(id) }
