package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestResultMergeAndBlocking(t *testing.T) {
	var result Result
	result.Merge(Result{Violations: []Violation{{Rule: "warn", Severity: SeverityWarn}}})
	if result.HasBlocking() {
		t.Fatalf("expected no blocking violations")
	}
	result.Merge(Result{Violations: []Violation{{Rule: "block", Severity: SeverityBlock, Message: "stage out of range"}}})
	if !result.HasBlocking() {
		t.Fatalf("expected blocking violation")
	}
	err := RuleViolationError{Result: result}
	if !strings.Contains(err.Error(), "stage out of range") {
		t.Fatalf("expected blocking message in error, got %q", err.Error())
	}
	if (RuleViolationError{}).Error() == "" {
		t.Fatalf("expected error string for empty result")
	}
}

func TestResultMergeEmptyInput(t *testing.T) {
	original := Result{Violations: []Violation{{Rule: "existing", Severity: SeverityWarn}}}
	original.Merge(Result{})
	if len(original.Violations) != 1 || original.Violations[0].Rule != "existing" {
		t.Fatalf("expected original violations to remain, got %+v", original.Violations)
	}
}

func TestRulesEngineEvaluate(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(staticRule{"warn"})
	engine.Register(staticRule{"second"})
	res, err := engine.Evaluate(context.Background(), emptyView{}, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(res.Violations) != 2 {
		t.Fatalf("expected two violations, got %d", len(res.Violations))
	}
}

func TestRulesEngineEvaluateError(t *testing.T) {
	engine := NewRulesEngine()
	engine.Register(errorRule{})
	if _, err := engine.Evaluate(context.Background(), emptyView{}, nil); err == nil {
		t.Fatalf("expected rule error to propagate")
	}
}

type staticRule struct{ name string }

func (r staticRule) Name() string { return r.name }

func (r staticRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return Result{Violations: []Violation{{Rule: r.name, Severity: SeverityWarn}}}, nil
}

type errorRule struct{}

func (errorRule) Name() string { return "error" }

func (errorRule) Evaluate(context.Context, RuleView, []Change) (Result, error) {
	return Result{}, fmt.Errorf("boom")
}

type emptyView struct{}

func (emptyView) ListCases() []Case { return nil }
func (emptyView) FindCase(string) (Case, bool) { return Case{}, false }
func (emptyView) FindOwner(string) (PropertyOwner, bool) { return PropertyOwner{}, false }
func (emptyView) FindTenant(string) (Tenant, bool) { return Tenant{}, false }
func (emptyView) FindProperty(string) (Property, bool) { return Property{}, false }
func (emptyView) FindDocument(string) (Document, bool) { return Document{}, false }
func (emptyView) FindReminder(string) (Reminder, bool) { return Reminder{}, false }

func TestValidationErrors(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		field string
	}{
		{"owner name", PropertyOwner{Phone: "1", Email: "e", CommunicationPreference: CommunicationEmail}.Validate(), "name"},
		{"owner preference", PropertyOwner{Name: "n", Phone: "1", Email: "e", CommunicationPreference: "fax"}.Validate(), "communication_preference"},
		{"tenant name", Tenant{}.Validate(), "name"},
		{"property zip", Property{Address: "a", City: "c", State: "s", OwnerID: "o"}.Validate(), "zip_code"},
		{"case reason", Case{PropertyID: "p", PropertyOwnerID: "o", TenantID: "t", EvictionReason: "boredom"}.Validate(), "eviction_reason"},
		{"case stage", Case{PropertyID: "p", PropertyOwnerID: "o", TenantID: "t", EvictionReason: ReasonOther, UrgencyLevel: UrgencyNormal, LeadSource: SourceOther, Stage: 10}.Validate(), "stage"},
		{"document name", Document{Type: DocumentLease}.Validate(), "name"},
		{"document type", Document{Name: "x", Type: "scroll"}.Validate(), "type"},
		{"note content", Note{Content: "   "}.Validate(), "content"},
		{"reminder due", Reminder{Title: "t", CaseID: "c", NotificationType: NotifyEmail}.Validate(), "due_date"},
		{"new reminder case", Reminder{Title: "t", DueDate: time.Now(), NotificationType: NotifyEmail}.ValidateNew(), "case_id"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ve ValidationError
			if !errors.As(tc.err, &ve) {
				t.Fatalf("expected validation error, got %v", tc.err)
			}
			if ve.Field != tc.field {
				t.Fatalf("expected field %q, got %q", tc.field, ve.Field)
			}
			if !IsValidation(tc.err) {
				t.Fatalf("expected IsValidation to report true")
			}
		})
	}
}

func TestReminderUpdateNeedsNoCase(t *testing.T) {
	r := Reminder{Title: "t", DueDate: time.Now(), NotificationType: NotifyInApp}
	if err := r.Validate(); err != nil {
		t.Fatalf("expected reminder without case id to validate, got %v", err)
	}
}

func TestValidCaseAccepted(t *testing.T) {
	c := Case{
		PropertyID:      "p",
		PropertyOwnerID: "o",
		TenantID:        "t",
		EvictionReason:  ReasonNonPayment,
		UrgencyLevel:    UrgencyASAP,
		LeadSource:      SourcePhoneCall,
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("expected valid case, got %v", err)
	}
}
