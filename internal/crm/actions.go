package crm

import "evictioncrm/pkg/domain"

// ActionKind names a dispatchable mutation.
type ActionKind string

// Supported action kinds.
const (
	KindAddOwner         ActionKind = "ADD_OWNER"
	KindUpdateOwner      ActionKind = "UPDATE_OWNER"
	KindAddTenant        ActionKind = "ADD_TENANT"
	KindUpdateTenant     ActionKind = "UPDATE_TENANT"
	KindAddProperty      ActionKind = "ADD_PROPERTY"
	KindUpdateProperty   ActionKind = "UPDATE_PROPERTY"
	KindAddCase          ActionKind = "ADD_CASE"
	KindUpdateCase       ActionKind = "UPDATE_CASE"
	KindUpdateCaseStage  ActionKind = "UPDATE_CASE_STAGE"
	KindAdvanceCaseStage ActionKind = "ADVANCE_CASE_STAGE"
	KindAddDocument      ActionKind = "ADD_DOCUMENT"
	KindUpdateDocument   ActionKind = "UPDATE_DOCUMENT"
	KindDeleteDocument   ActionKind = "DELETE_DOCUMENT"
	KindAddNote          ActionKind = "ADD_NOTE"
	KindAddReminder      ActionKind = "ADD_REMINDER"
	KindUpdateReminder   ActionKind = "UPDATE_REMINDER"
	KindCompleteReminder ActionKind = "COMPLETE_REMINDER"
)

// Action is a tagged mutation request consumed by the reducers.
type Action interface {
	Kind() ActionKind
}

// AddOwnerAction creates an owner; ID and CreatedAt are assigned by the reducer.
type AddOwnerAction struct{ Owner domain.PropertyOwner }

// UpdateOwnerAction replaces the owner with the same ID.
type UpdateOwnerAction struct{ Owner domain.PropertyOwner }

// AddTenantAction creates a tenant.
type AddTenantAction struct{ Tenant domain.Tenant }

// UpdateTenantAction replaces the tenant with the same ID.
type UpdateTenantAction struct{ Tenant domain.Tenant }

// AddPropertyAction creates a property.
type AddPropertyAction struct{ Property domain.Property }

// UpdatePropertyAction replaces the property with the same ID.
type UpdatePropertyAction struct{ Property domain.Property }

// AddCaseAction opens a case. A zero Stage defaults to StageNewLead.
type AddCaseAction struct{ Case domain.Case }

// UpdateCaseAction replaces the case with the same ID and refreshes UpdatedAt.
type UpdateCaseAction struct{ Case domain.Case }

// UpdateCaseStageAction moves a case to Stage.
type UpdateCaseStageAction struct {
	CaseID string
	Stage  domain.CaseStage
}

// AdvanceCaseStageAction moves a case one stage past the stage it holds at
// dispatch time.
type AdvanceCaseStageAction struct{ CaseID string }

// AddDocumentAction stores a document and links it to its case when CaseID resolves.
type AddDocumentAction struct{ Document domain.Document }

// UpdateDocumentAction replaces the document with the same ID.
type UpdateDocumentAction struct{ Document domain.Document }

// DeleteDocumentAction tombstones a document.
type DeleteDocumentAction struct{ ID string }

// AddNoteAction stores a note and links it to its case when CaseID resolves.
type AddNoteAction struct{ Note domain.Note }

// AddReminderAction stores a reminder and links it to its case when CaseID resolves.
type AddReminderAction struct{ Reminder domain.Reminder }

// UpdateReminderAction replaces the reminder with the same ID.
type UpdateReminderAction struct{ Reminder domain.Reminder }

// CompleteReminderAction marks a reminder completed.
type CompleteReminderAction struct{ ID string }

func (AddOwnerAction) Kind() ActionKind { return KindAddOwner }
func (UpdateOwnerAction) Kind() ActionKind { return KindUpdateOwner }
func (AddTenantAction) Kind() ActionKind { return KindAddTenant }
func (UpdateTenantAction) Kind() ActionKind { return KindUpdateTenant }
func (AddPropertyAction) Kind() ActionKind { return KindAddProperty }
func (UpdatePropertyAction) Kind() ActionKind { return KindUpdateProperty }
func (AddCaseAction) Kind() ActionKind { return KindAddCase }
func (UpdateCaseAction) Kind() ActionKind { return KindUpdateCase }
func (UpdateCaseStageAction) Kind() ActionKind { return KindUpdateCaseStage }
func (AdvanceCaseStageAction) Kind() ActionKind { return KindAdvanceCaseStage }
func (AddDocumentAction) Kind() ActionKind { return KindAddDocument }
func (UpdateDocumentAction) Kind() ActionKind { return KindUpdateDocument }
func (DeleteDocumentAction) Kind() ActionKind { return KindDeleteDocument }
func (AddNoteAction) Kind() ActionKind { return KindAddNote }
func (AddReminderAction) Kind() ActionKind { return KindAddReminder }
func (UpdateReminderAction) Kind() ActionKind { return KindUpdateReminder }
func (CompleteReminderAction) Kind() ActionKind { return KindCompleteReminder }

// Action creators.

func AddOwner(owner domain.PropertyOwner) Action { return AddOwnerAction{Owner: owner} }

func UpdateOwner(owner domain.PropertyOwner) Action { return UpdateOwnerAction{Owner: owner} }

func AddTenant(tenant domain.Tenant) Action { return AddTenantAction{Tenant: tenant} }

func UpdateTenant(tenant domain.Tenant) Action { return UpdateTenantAction{Tenant: tenant} }

func AddProperty(property domain.Property) Action { return AddPropertyAction{Property: property} }

func UpdateProperty(property domain.Property) Action {
	return UpdatePropertyAction{Property: property}
}

func AddCase(c domain.Case) Action { return AddCaseAction{Case: c} }

func UpdateCase(c domain.Case) Action { return UpdateCaseAction{Case: c} }

func UpdateCaseStage(caseID string, stage domain.CaseStage) Action {
	return UpdateCaseStageAction{CaseID: caseID, Stage: stage}
}

func AdvanceCaseStage(caseID string) Action { return AdvanceCaseStageAction{CaseID: caseID} }

func AddDocument(doc domain.Document) Action { return AddDocumentAction{Document: doc} }

func UpdateDocument(doc domain.Document) Action { return UpdateDocumentAction{Document: doc} }

func DeleteDocument(id string) Action { return DeleteDocumentAction{ID: id} }

func AddNote(note domain.Note) Action { return AddNoteAction{Note: note} }

func AddReminder(reminder domain.Reminder) Action { return AddReminderAction{Reminder: reminder} }

func UpdateReminder(reminder domain.Reminder) Action {
	return UpdateReminderAction{Reminder: reminder}
}

func CompleteReminder(id string) Action { return CompleteReminderAction{ID: id} }
