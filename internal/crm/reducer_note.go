package crm

import "evictioncrm/pkg/domain"

// ReduceNotes owns Notes and CaseNotes.
func ReduceNotes(st State, action Action, env Env) Patch {
	a, ok := action.(AddNoteAction)
	if !ok {
		return Patch{}
	}
	note := a.Note
	note.ID = env.NewID()
	note.CreatedAt = env.Now
	p := Patch{
		Notes:   appendCopy(st.Notes, note),
		Changes: created(domain.EntityNote, note),
	}
	if st.hasCase(note.CaseID) {
		p.CaseNotes = appendToIndex(st.CaseNotes, note.CaseID, note.ID)
	}
	return p
}
