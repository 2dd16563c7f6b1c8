package domain

import (
	"errors"
	"strings"
)

// ValidationError reports a caller-supplied field that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{Field: field, Message: "is required"}
	}
	return nil
}

func invalid(field string) error {
	return ValidationError{Field: field, Message: "has an unrecognised value"}
}

// Validate checks the fields a caller must supply when adding or updating an owner.
func (o PropertyOwner) Validate() error {
	if err := required("name", o.Name); err != nil {
		return err
	}
	if err := required("phone", o.Phone); err != nil {
		return err
	}
	if err := required("email", o.Email); err != nil {
		return err
	}
	if !o.CommunicationPreference.Valid() {
		return invalid("communication_preference")
	}
	return nil
}

// Validate checks the fields a caller must supply for a tenant.
func (t Tenant) Validate() error {
	return required("name", t.Name)
}

// Validate checks the fields a caller must supply for a property.
func (p Property) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"address", p.Address},
		{"city", p.City},
		{"state", p.State},
		{"zip_code", p.ZipCode},
		{"owner_id", p.OwnerID},
	} {
		if err := required(f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the references and enumerations of a case.
func (c Case) Validate() error {
	for _, f := range []struct{ name, value string }{
		{"property_id", c.PropertyID},
		{"property_owner_id", c.PropertyOwnerID},
		{"tenant_id", c.TenantID},
	} {
		if err := required(f.name, f.value); err != nil {
			return err
		}
	}
	if !c.EvictionReason.Valid() {
		return invalid("eviction_reason")
	}
	if !c.UrgencyLevel.Valid() {
		return invalid("urgency_level")
	}
	if !c.LeadSource.Valid() {
		return invalid("lead_source")
	}
	if c.Stage != 0 && !c.Stage.Valid() {
		return ValidationError{Field: "stage", Message: "must be between 1 and 9"}
	}
	return nil
}

// Validate checks a document's name and enumerations.
func (d Document) Validate() error {
	if err := required("name", d.Name); err != nil {
		return err
	}
	if !d.Type.Valid() {
		return invalid("type")
	}
	if !d.SignatureStatus.Valid() {
		return invalid("signature_status")
	}
	return nil
}

// Validate checks a note has content.
func (n Note) Validate() error {
	return required("content", n.Content)
}

// ValidateNew checks a reminder about to be created. Unlike updates, a new
// reminder must name its case.
func (r Reminder) ValidateNew() error {
	if err := required("case_id", r.CaseID); err != nil {
		return err
	}
	return r.Validate()
}

// Validate checks the editable fields. The case link is fixed at creation.
func (r Reminder) Validate() error {
	if err := required("title", r.Title); err != nil {
		return err
	}
	if r.DueDate.IsZero() {
		return ValidationError{Field: "due_date", Message: "is required"}
	}
	if !r.NotificationType.Valid() {
		return invalid("notification_type")
	}
	return nil
}
