package crm

import (
	"strings"

	"evictioncrm/pkg/domain"
)

// CaseFilter narrows the case list. Zero fields match everything.
type CaseFilter struct {
	Stage      domain.CaseStage
	UrgentOnly bool
	// Query matches case, property and tenant ids case-insensitively.
	Query string
}

// Matches reports whether c passes every set criterion.
func (f CaseFilter) Matches(c domain.Case) bool {
	if f.Stage != 0 && c.Stage != f.Stage {
		return false
	}
	if f.UrgentOnly && c.UrgencyLevel != domain.UrgencyASAP {
		return false
	}
	return containsFold(f.Query, c.ID, c.PropertyID, c.TenantID)
}

// FilterCases lists the decorated cases matching f in insertion order.
func (s *Store) FilterCases(f CaseFilter) []domain.Case {
	var out []domain.Case
	s.view(func(st *State) {
		for _, c := range st.listCases() {
			if f.Matches(c) {
				out = append(out, c)
			}
		}
	})
	if out == nil {
		out = []domain.Case{}
	}
	return out
}

// SearchOwners lists owners whose name, email or phone contains query.
func (s *Store) SearchOwners(query string) []domain.PropertyOwner {
	out := []domain.PropertyOwner{}
	for _, o := range s.Owners() {
		if containsFold(query, o.Name, o.Email, o.Phone) {
			out = append(out, o)
		}
	}
	return out
}

// SearchTenants lists tenants whose name, email or phone contains query.
func (s *Store) SearchTenants(query string) []domain.Tenant {
	out := []domain.Tenant{}
	for _, t := range s.Tenants() {
		if containsFold(query, t.Name, t.Email, t.Phone) {
			out = append(out, t)
		}
	}
	return out
}

// containsFold reports whether any field contains query, ignoring case. An
// empty query matches.
func containsFold(query string, fields ...string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}
