// Package domain defines the core entities, value types, and rule evaluation
// primitives used by evictioncrm.
package domain

import "time"

// EntityType identifies the type of record held in the case store.
type EntityType string

// Supported entity type identifiers used in Change records and snapshot buckets.
const (
	// EntityOwner identifies a property owner record.
	EntityOwner EntityType = "owner"
	// EntityTenant identifies a tenant record.
	EntityTenant EntityType = "tenant"
	// EntityProperty identifies a rental property record.
	EntityProperty EntityType = "property"
	// EntityCase identifies an eviction case record.
	EntityCase EntityType = "case"
	// EntityDocument identifies a document record.
	EntityDocument EntityType = "document"
	// EntityNote identifies a free-text note.
	EntityNote EntityType = "note"
	// EntityReminder identifies a dated reminder.
	EntityReminder EntityType = "reminder"
)

// CommunicationPreference is how an owner prefers to be contacted.
type CommunicationPreference string

const (
	CommunicationEmail CommunicationPreference = "email"
	CommunicationPhone CommunicationPreference = "phone"
	CommunicationText  CommunicationPreference = "text"
	CommunicationMail  CommunicationPreference = "mail"
)

// Valid reports whether the preference is a recognised value.
func (p CommunicationPreference) Valid() bool {
	switch p {
	case CommunicationEmail, CommunicationPhone, CommunicationText, CommunicationMail:
		return true
	}
	return false
}

// EvictionReason enumerates why an owner is seeking eviction.
type EvictionReason string

const (
	ReasonNonPayment           EvictionReason = "non_payment"
	ReasonLeaseViolation       EvictionReason = "lease_violation"
	ReasonIllegalActivity      EvictionReason = "illegal_activity"
	ReasonPropertyDamage       EvictionReason = "property_damage"
	ReasonUnauthorizedOccupant EvictionReason = "unauthorized_occupant"
	ReasonOther                EvictionReason = "other"
)

// Valid reports whether the reason is a recognised value.
func (r EvictionReason) Valid() bool {
	switch r {
	case ReasonNonPayment, ReasonLeaseViolation, ReasonIllegalActivity,
		ReasonPropertyDamage, ReasonUnauthorizedOccupant, ReasonOther:
		return true
	}
	return false
}

// UrgencyLevel captures how soon the owner wants the case acted on.
type UrgencyLevel string

const (
	UrgencyASAP      UrgencyLevel = "asap"
	UrgencyUrgent    UrgencyLevel = "urgent"
	UrgencyNormal    UrgencyLevel = "normal"
	Urgency30Days    UrgencyLevel = "30_days"
	Urgency60Days    UrgencyLevel = "60_days"
	Urgency90Days    UrgencyLevel = "90_days"
	UrgencyNotUrgent UrgencyLevel = "not_urgent"
)

// Valid reports whether the urgency is a recognised value.
func (u UrgencyLevel) Valid() bool {
	switch u {
	case UrgencyASAP, UrgencyUrgent, UrgencyNormal, Urgency30Days,
		Urgency60Days, Urgency90Days, UrgencyNotUrgent:
		return true
	}
	return false
}

// LeadSource records how a case reached the business.
type LeadSource string

const (
	SourceWebsiteForm LeadSource = "website_form"
	SourcePhoneCall   LeadSource = "phone_call"
	SourceReferral    LeadSource = "referral"
	SourceAdCampaign  LeadSource = "ad_campaign"
	SourceOther       LeadSource = "other"
)

// LeadSources lists every lead source in display order.
var LeadSources = []LeadSource{SourceWebsiteForm, SourcePhoneCall, SourceReferral, SourceAdCampaign, SourceOther}

// Valid reports whether the source is a recognised value.
func (s LeadSource) Valid() bool {
	for _, known := range LeadSources {
		if s == known {
			return true
		}
	}
	return false
}

// DocumentType classifies an attached document.
type DocumentType string

const (
	DocumentLease          DocumentType = "lease"
	DocumentNotice         DocumentType = "notice"
	DocumentCourtFiling    DocumentType = "court_filing"
	DocumentCorrespondence DocumentType = "correspondence"
	DocumentOther          DocumentType = "other"
)

// Valid reports whether the document type is a recognised value.
func (t DocumentType) Valid() bool {
	switch t {
	case DocumentLease, DocumentNotice, DocumentCourtFiling, DocumentCorrespondence, DocumentOther:
		return true
	}
	return false
}

// SignatureStatus tracks e-signature progress on a document.
type SignatureStatus string

const (
	SignatureUnsigned SignatureStatus = "unsigned"
	SignaturePending  SignatureStatus = "pending"
	SignatureSigned   SignatureStatus = "signed"
)

// Valid reports whether the status is empty or a recognised value.
func (s SignatureStatus) Valid() bool {
	switch s {
	case "", SignatureUnsigned, SignaturePending, SignatureSigned:
		return true
	}
	return false
}

// NotificationType is the channel used when a reminder fires.
type NotificationType string

const (
	NotifyEmail NotificationType = "email"
	NotifySMS   NotificationType = "sms"
	NotifyInApp NotificationType = "in_app"
)

// Valid reports whether the channel is a recognised value.
func (n NotificationType) Valid() bool {
	switch n {
	case NotifyEmail, NotifySMS, NotifyInApp:
		return true
	}
	return false
}

// DocumentState is the tombstone state of a document. Deleted is terminal.
type DocumentState string

const (
	// DocumentActive is the state of every newly added document.
	DocumentActive DocumentState = "active"
	// DocumentDeleted marks a soft-deleted document that remains in the collection.
	DocumentDeleted DocumentState = "deleted"
)

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and logging.
const (
	// SeverityBlock rejects the dispatch.
	SeverityBlock Severity = "block"
	// SeverityWarn logs a warning but allows commit.
	SeverityWarn Severity = "warn"
	SeverityLog  Severity = "log"
)

// Note is a timestamped free-text remark.
type Note struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
	CaseID    string    `json:"case_id,omitempty"`
}

// PropertyOwner is a landlord client of the business.
type PropertyOwner struct {
	ID                      string                  `json:"id"`
	Name                    string                  `json:"name"`
	Phone                   string                  `json:"phone"`
	Email                   string                  `json:"email"`
	Address                 string                  `json:"address,omitempty"`
	CommunicationPreference CommunicationPreference `json:"communication_preference"`
	Notes                   []Note                  `json:"notes"`
	CreatedAt               time.Time               `json:"created_at"`
}

// Tenant is the occupant an eviction case is brought against.
type Tenant struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Phone          string     `json:"phone,omitempty"`
	Email          string     `json:"email,omitempty"`
	LeaseStartDate *time.Time `json:"lease_start_date,omitempty"`
	Notes          []Note     `json:"notes"`
}

// Property is a rental unit. OwnerID is a weak reference and is not checked.
type Property struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Unit    string `json:"unit,omitempty"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zip_code"`
	OwnerID string `json:"owner_id"`
	Notes   []Note `json:"notes"`
}

// CaseIntake carries the optional answers collected by the extended intake form.
type CaseIntake struct {
	AdditionalTenants     string `json:"additional_tenants,omitempty"`
	RentOwed              string `json:"rent_owed,omitempty"`
	PastEvictions         *bool  `json:"past_evictions,omitempty"`
	LegalNoticeServed     *bool  `json:"legal_notice_served,omitempty"`
	LegalNoticeDateServed string `json:"legal_notice_date_served,omitempty"`
	PreferredDate         string `json:"preferred_date,omitempty"`
	PreferredTime         string `json:"preferred_time,omitempty"`
	Signature             string `json:"signature,omitempty"`
}

// Case is one eviction engagement linking an owner, a tenant and a property.
//
// Documents, Reminders and Notes are read-side views joined from the case
// index; values supplied on writes are ignored.
type Case struct {
	ID              string         `json:"id"`
	PropertyID      string         `json:"property_id"`
	PropertyOwnerID string         `json:"property_owner_id"`
	TenantID        string         `json:"tenant_id"`
	EvictionReason  EvictionReason `json:"eviction_reason"`
	UrgencyLevel    UrgencyLevel   `json:"urgency_level"`
	Stage           CaseStage      `json:"stage"`
	Description     string         `json:"description,omitempty"`
	LeadSource      LeadSource     `json:"lead_source"`
	Intake          CaseIntake     `json:"intake"`
	Documents       []Document     `json:"documents"`
	Reminders       []Reminder     `json:"reminders"`
	Notes           []Note         `json:"notes"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// Document is an uploaded or referenced file.
type Document struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Type            DocumentType    `json:"type"`
	URL             string          `json:"url"`
	UploadedAt      time.Time       `json:"uploaded_at"`
	SignatureStatus SignatureStatus `json:"signature_status,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	CaseID          string          `json:"case_id,omitempty"`
	State           DocumentState   `json:"state"`
}

// Deleted reports whether the document carries the tombstone.
func (d Document) Deleted() bool { return d.State == DocumentDeleted }

// Reminder is a dated follow-up attached to a case.
type Reminder struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description,omitempty"`
	DueDate          time.Time        `json:"due_date"`
	Completed        bool             `json:"completed"`
	CaseID           string           `json:"case_id"`
	AssignedTo       string           `json:"assigned_to,omitempty"`
	NotificationType NotificationType `json:"notification_type"`
}

// Change describes a mutation applied to an entity during a dispatch.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate the supported mutations.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
	// ActionDelete indicates an entity was tombstoned.
	ActionDelete Action = "delete"
)

// Violation reports a failed rule evaluation.
type Violation struct {
	Rule     string     `json:"rule"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	Entity   EntityType `json:"entity"`
	EntityID string     `json:"entity_id,omitempty"`
}

// Result aggregates violations from the rules engine.
type Result struct {
	Violations []Violation
}

// Merge appends violations from another result.
func (r *Result) Merge(other Result) {
	if len(other.Violations) == 0 {
		return
	}
	r.Violations = append(r.Violations, other.Violations...)
}

// HasBlocking returns true if the result contains blocking violations.
func (r Result) HasBlocking() bool {
	for _, v := range r.Violations {
		if v.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// RuleViolationError is returned when blocking violations are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	for _, v := range e.Result.Violations {
		if v.Severity == SeverityBlock && v.Message != "" {
			return "dispatch blocked by rules: " + v.Message
		}
	}
	return "dispatch blocked by rules"
}
