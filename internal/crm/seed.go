package crm

import (
	"time"

	"evictioncrm/pkg/domain"
)

const day = 24 * time.Hour

// Seed returns the demo snapshot: three owners, tenants and properties, three
// cases wiring one of each, and one document, reminder and note per case.
// Timestamps are relative to now so the dashboard windows stay populated.
func Seed(now time.Time) State {
	monthsAgo := func(m int) time.Time { return now.AddDate(0, -m, 0) }
	lease := func(y int, m time.Month, d int) *time.Time {
		t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		return &t
	}

	st := NewState()
	st.Owners = []domain.PropertyOwner{
		{ID: "owner1", Name: "John Smith", Phone: "555-123-4567", Email: "john.smith@example.com",
			Address: "123 Property Lane, Cityville, ST 12345", CommunicationPreference: domain.CommunicationEmail,
			Notes: []domain.Note{}, CreatedAt: monthsAgo(3)},
		{ID: "owner2", Name: "Maria Rodriguez", Phone: "555-987-6543", Email: "maria.r@example.com",
			Address: "456 Landlord Ave, Propertyburg, ST 67890", CommunicationPreference: domain.CommunicationPhone,
			Notes: []domain.Note{}, CreatedAt: monthsAgo(5)},
		{ID: "owner3", Name: "Robert Johnson", Phone: "555-456-7890", Email: "robert.j@example.com",
			CommunicationPreference: domain.CommunicationText, Notes: []domain.Note{}, CreatedAt: monthsAgo(2)},
	}
	st.Tenants = []domain.Tenant{
		{ID: "tenant1", Name: "Alice Williams", Phone: "555-222-3333", Email: "alice.w@example.com",
			LeaseStartDate: lease(2022, time.April, 15), Notes: []domain.Note{}},
		{ID: "tenant2", Name: "Michael Brown", Phone: "555-444-5555", Email: "michael.b@example.com",
			LeaseStartDate: lease(2021, time.September, 1), Notes: []domain.Note{}},
		{ID: "tenant3", Name: "Sarah Davis", Phone: "555-666-7777", Email: "sarah.d@example.com",
			LeaseStartDate: lease(2022, time.November, 1), Notes: []domain.Note{}},
	}
	st.Properties = []domain.Property{
		{ID: "property1", Address: "123 Rental St", Unit: "Apt 4B", City: "Cityville", State: "ST",
			ZipCode: "12345", OwnerID: "owner1", Notes: []domain.Note{}},
		{ID: "property2", Address: "456 Tenant Ave", City: "Propertyburg", State: "ST",
			ZipCode: "67890", OwnerID: "owner2", Notes: []domain.Note{}},
		{ID: "property3", Address: "789 Lease Blvd", Unit: "Unit 7", City: "Rentalville", State: "ST",
			ZipCode: "34567", OwnerID: "owner3", Notes: []domain.Note{}},
	}
	st.Notes = []domain.Note{
		{ID: "note1", Content: "Tenant has requested repairs multiple times for leaky faucet.",
			CreatedAt: monthsAgo(1), CreatedBy: "admin", CaseID: "case1"},
		{ID: "note2", Content: "Owner mentioned plans to sell the property next year.",
			CreatedAt: monthsAgo(2), CreatedBy: "admin", CaseID: "case2"},
		{ID: "note3", Content: "Tenant has not responded to notice as of today.",
			CreatedAt: now, CreatedBy: "admin", CaseID: "case3"},
	}
	st.Documents = []domain.Document{
		{ID: "doc1", Name: "Lease Agreement - Alice Williams", Type: domain.DocumentLease, URL: "#",
			UploadedAt: monthsAgo(4), SignatureStatus: domain.SignatureSigned, CaseID: "case1", State: domain.DocumentActive},
		{ID: "doc2", Name: "3-Day Notice - Michael Brown", Type: domain.DocumentNotice, URL: "#",
			UploadedAt: monthsAgo(1), SignatureStatus: domain.SignatureUnsigned, CaseID: "case2", State: domain.DocumentActive},
		{ID: "doc3", Name: "Court Filing - Sarah Davis", Type: domain.DocumentCourtFiling, URL: "#",
			UploadedAt: now, CaseID: "case3", State: domain.DocumentActive},
	}
	st.Reminders = []domain.Reminder{
		{ID: "reminder1", Title: "Follow up on notice delivery", Description: "Check if tenant received the formal notice",
			DueDate: now.Add(2 * day), CaseID: "case1", AssignedTo: "admin", NotificationType: domain.NotifyEmail},
		{ID: "reminder2", Title: "Court filing deadline", Description: "Submit all paperwork to the court",
			DueDate: now.Add(5 * day), CaseID: "case2", NotificationType: domain.NotifyInApp},
		{ID: "reminder3", Title: "Prepare for hearing", Description: "Gather all documentation and evidence",
			DueDate: now.Add(10 * day), CaseID: "case3", AssignedTo: "admin", NotificationType: domain.NotifySMS},
	}
	st.Cases = []domain.Case{
		{ID: "case1", PropertyID: "property1", PropertyOwnerID: "owner1", TenantID: "tenant1",
			EvictionReason: domain.ReasonNonPayment, UrgencyLevel: domain.UrgencyASAP, Stage: domain.StageNoticeServed,
			Description: "Tenant is 2 months behind on rent payments.", LeadSource: domain.SourcePhoneCall,
			CreatedAt: monthsAgo(2), UpdatedAt: now},
		{ID: "case2", PropertyID: "property2", PropertyOwnerID: "owner2", TenantID: "tenant2",
			EvictionReason: domain.ReasonLeaseViolation, UrgencyLevel: domain.Urgency30Days, Stage: domain.StageCourtFiling,
			Description: "Tenant has unauthorized pets and has damaged the property.", LeadSource: domain.SourceWebsiteForm,
			CreatedAt: monthsAgo(3), UpdatedAt: now},
		{ID: "case3", PropertyID: "property3", PropertyOwnerID: "owner3", TenantID: "tenant3",
			EvictionReason: domain.ReasonUnauthorizedOccupant, UrgencyLevel: domain.Urgency60Days, Stage: domain.StageHearing,
			Description: "Unauthorized occupants have moved in without being on the lease.", LeadSource: domain.SourceReferral,
			CreatedAt: monthsAgo(4), UpdatedAt: now},
	}
	for i, c := range st.Cases {
		st.CaseDocuments[c.ID] = []string{st.Documents[i].ID}
		st.CaseReminders[c.ID] = []string{st.Reminders[i].ID}
		st.CaseNotes[c.ID] = []string{st.Notes[i].ID}
	}
	return st
}
