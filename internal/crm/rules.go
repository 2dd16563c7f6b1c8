package crm

import (
	"context"
	"fmt"

	"evictioncrm/pkg/domain"
)

// DefaultRulesEngine returns the engine the Store uses when none is supplied.
func DefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(CaseReferenceRule())
	engine.Register(OrphanAttachmentRule())
	return engine
}

// CaseReferenceRule warns when a created or updated case points at an owner,
// tenant or property that is not in the snapshot. References are weak, so the
// rule never blocks.
func CaseReferenceRule() domain.Rule { return caseReferenceRule{} }

type caseReferenceRule struct{}

func (caseReferenceRule) Name() string { return "case_references" }

func (r caseReferenceRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	var res domain.Result
	for _, change := range changes {
		if change.Entity != domain.EntityCase || change.Action == domain.ActionDelete {
			continue
		}
		c, ok := change.After.(domain.Case)
		if !ok {
			continue
		}
		if _, ok := view.FindOwner(c.PropertyOwnerID); !ok {
			res.Violations = append(res.Violations, r.violation(c.ID, "owner", c.PropertyOwnerID))
		}
		if _, ok := view.FindTenant(c.TenantID); !ok {
			res.Violations = append(res.Violations, r.violation(c.ID, "tenant", c.TenantID))
		}
		if _, ok := view.FindProperty(c.PropertyID); !ok {
			res.Violations = append(res.Violations, r.violation(c.ID, "property", c.PropertyID))
		}
	}
	return res, nil
}

func (r caseReferenceRule) violation(caseID, kind, ref string) domain.Violation {
	return domain.Violation{
		Rule:     r.Name(),
		Severity: domain.SeverityWarn,
		Message:  fmt.Sprintf("case references unknown %s %q", kind, ref),
		Entity:   domain.EntityCase,
		EntityID: caseID,
	}
}

// OrphanAttachmentRule warns when a document or reminder is created with a
// case id that does not resolve; such records are kept but not linked.
func OrphanAttachmentRule() domain.Rule { return orphanAttachmentRule{} }

type orphanAttachmentRule struct{}

func (orphanAttachmentRule) Name() string { return "orphan_attachments" }

func (r orphanAttachmentRule) Evaluate(_ context.Context, view domain.RuleView, changes []domain.Change) (domain.Result, error) {
	var res domain.Result
	for _, change := range changes {
		if change.Action != domain.ActionCreate {
			continue
		}
		var id, ref string
		switch after := change.After.(type) {
		case domain.Document:
			id, ref = after.ID, after.CaseID
		case domain.Reminder:
			id, ref = after.ID, after.CaseID
		default:
			continue
		}
		if ref == "" {
			continue
		}
		if _, ok := view.FindCase(ref); !ok {
			res.Violations = append(res.Violations, domain.Violation{
				Rule:     r.Name(),
				Severity: domain.SeverityWarn,
				Message:  fmt.Sprintf("case %q not found; attachment left unlinked", ref),
				Entity:   change.Entity,
				EntityID: id,
			})
		}
	}
	return res, nil
}
