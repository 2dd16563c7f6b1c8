package crm

import "evictioncrm/pkg/domain"

// ReduceDocuments owns Documents and CaseDocuments.
//
// Deletion is a tombstone and is one-way: updates keep the stored state, upload
// time and case link.
func ReduceDocuments(st State, action Action, env Env) Patch {
	switch a := action.(type) {
	case AddDocumentAction:
		doc := a.Document
		doc.ID = env.NewID()
		doc.UploadedAt = env.Now
		doc.State = domain.DocumentActive
		p := Patch{
			Documents: appendCopy(st.Documents, doc),
			Changes:   created(domain.EntityDocument, doc),
		}
		if st.hasCase(doc.CaseID) {
			p.CaseDocuments = appendToIndex(st.CaseDocuments, doc.CaseID, doc.ID)
		}
		return p
	case UpdateDocumentAction:
		i := indexOf(st.Documents, a.Document.ID, documentID)
		if i < 0 {
			return notFound(domain.EntityDocument, a.Document.ID)
		}
		before := st.Documents[i]
		doc := a.Document
		doc.UploadedAt = before.UploadedAt
		doc.CaseID = before.CaseID
		doc.State = before.State
		return Patch{
			Documents: replaceAt(st.Documents, i, doc),
			Changes:   updated(domain.EntityDocument, before, doc),
		}
	case DeleteDocumentAction:
		i := indexOf(st.Documents, a.ID, documentID)
		if i < 0 {
			return notFound(domain.EntityDocument, a.ID)
		}
		before := st.Documents[i]
		if before.Deleted() {
			return Patch{}
		}
		doc := before
		doc.State = domain.DocumentDeleted
		return Patch{
			Documents: replaceAt(st.Documents, i, doc),
			Changes:   []domain.Change{{Entity: domain.EntityDocument, Action: domain.ActionDelete, Before: before, After: doc}},
		}
	}
	return Patch{}
}
