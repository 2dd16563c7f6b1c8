package crm

import (
	"errors"
	"testing"
	"time"

	"evictioncrm/pkg/domain"
)

func testEnv() Env {
	n := 0
	return Env{
		Now: fixedNow.Add(time.Hour),
		NewID: func() string {
			n++
			return "gen" + string(rune('0'+n))
		},
	}
}

func TestReducersIgnoreForeignActions(t *testing.T) {
	st := Seed(fixedNow)
	if p := Reduce(st, AddTenant(domain.Tenant{Name: "x"}), testEnv()); p.Empty() {
		t.Fatalf("expected tenant add to produce a patch")
	}
	for _, reduce := range []Reducer{ReduceOwners, ReduceProperties, ReduceNotes} {
		if p := reduce(st, AddTenant(domain.Tenant{Name: "x"}), testEnv()); !p.Empty() {
			t.Fatalf("expected unrelated reducer to ignore the action")
		}
	}
}

func TestReducersOnlySetOwnedKeys(t *testing.T) {
	st := Seed(fixedNow)
	p := ReduceTenants(st, AddTenant(domain.Tenant{Name: "Only tenants"}), testEnv())
	if p.Tenants == nil {
		t.Fatalf("expected tenants set")
	}
	if p.Owners != nil || p.Cases != nil || p.Documents != nil || p.CaseDocuments != nil {
		t.Fatalf("expected tenant reducer to leave other keys nil")
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	st := Seed(fixedNow)
	before := len(st.Documents)
	beforeIndex := len(st.CaseDocuments["case1"])
	p := Reduce(st, AddDocument(domain.Document{Name: "n", Type: domain.DocumentOther, CaseID: "case1"}), testEnv())
	if p.Reject != nil {
		t.Fatalf("unexpected reject: %v", p.Reject)
	}
	if len(st.Documents) != before || len(st.CaseDocuments["case1"]) != beforeIndex {
		t.Fatalf("expected input snapshot untouched")
	}
	next := st.apply(p)
	if len(next.Documents) != before+1 || len(next.CaseDocuments["case1"]) != beforeIndex+1 {
		t.Fatalf("expected applied snapshot to grow")
	}
	if !next.Cases[0].UpdatedAt.Equal(fixedNow.Add(time.Hour)) {
		t.Fatalf("expected case touched at env time")
	}
}

func TestReduceAddCaseDefaultsStage(t *testing.T) {
	st := NewState()
	p := Reduce(st, AddCase(sampleCase()), testEnv())
	if len(p.Cases) != 1 {
		t.Fatalf("expected one case")
	}
	c := p.Cases[0]
	if c.Stage != domain.StageNewLead || c.ID != "gen1" {
		t.Fatalf("unexpected case %+v", c)
	}
	if len(p.Changes) != 1 || p.Changes[0].Action != domain.ActionCreate {
		t.Fatalf("expected one create change, got %+v", p.Changes)
	}
}

func TestReduceUpdateCaseKeepsStageWhenZero(t *testing.T) {
	st := Seed(fixedNow)
	c := st.Cases[1]
	c.Stage = 0
	c.Description = "edited"
	p := Reduce(st, UpdateCase(c), testEnv())
	got := p.Cases[1]
	if got.Stage != domain.StageCourtFiling || got.Description != "edited" {
		t.Fatalf("unexpected update result %+v", got)
	}
}

func TestReduceStageRejections(t *testing.T) {
	st := Seed(fixedNow)
	if p := Reduce(st, UpdateCaseStage("case1", 12), testEnv()); !domain.IsValidation(p.Reject) {
		t.Fatalf("expected validation reject, got %v", p.Reject)
	}
	if p := Reduce(st, UpdateCaseStage("missing", 2), testEnv()); !IsNotFound(p.Reject) {
		t.Fatalf("expected not found reject, got %v", p.Reject)
	}
}

func TestReduceAdvanceTwice(t *testing.T) {
	st := Seed(fixedNow)
	for i := 0; i < 2; i++ {
		p := Reduce(st, AdvanceCaseStage("case1"), testEnv())
		if p.Reject != nil {
			t.Fatalf("advance: %v", p.Reject)
		}
		st = st.apply(p)
	}
	c, _ := st.findCase("case1")
	if c.Stage != domain.StageCourtFiling {
		t.Fatalf("expected stage 5, got %d", c.Stage)
	}
}

func TestReduceAdvanceRejections(t *testing.T) {
	st := Seed(fixedNow)
	st = st.apply(Reduce(st, UpdateCaseStage("case2", domain.StageClosed), testEnv()))
	if p := Reduce(st, AdvanceCaseStage("case2"), testEnv()); !errors.Is(p.Reject, ErrTerminalStage) {
		t.Fatalf("expected terminal stage reject, got %v", p.Reject)
	}
	if p := Reduce(st, AdvanceCaseStage("missing"), testEnv()); !IsNotFound(p.Reject) {
		t.Fatalf("expected not found reject, got %v", p.Reject)
	}
}

func TestReduceAddReminderLinksKnownCase(t *testing.T) {
	st := Seed(fixedNow)
	p := Reduce(st, AddReminder(domain.Reminder{Title: "Call", CaseID: "case3", DueDate: fixedNow}), testEnv())
	if p.CaseReminders == nil || len(p.CaseReminders["case3"]) != 2 {
		t.Fatalf("expected reminder appended to case3 index")
	}
	if len(p.Changes) != 2 {
		t.Fatalf("expected case touch and reminder create, got %d", len(p.Changes))
	}
	orphan := Reduce(st, AddReminder(domain.Reminder{Title: "Call", CaseID: "nope", DueDate: fixedNow}), testEnv())
	if orphan.CaseReminders != nil || orphan.Cases != nil {
		t.Fatalf("expected unknown case to leave index and cases untouched")
	}
}

func TestMergeFirstRejectWins(t *testing.T) {
	first := Patch{Reject: ErrNotFound{Entity: domain.EntityCase, ID: "a"}}
	second := Patch{Reject: ErrNotFound{Entity: domain.EntityDocument, ID: "b"}}
	got := first.merge(second)
	nf, ok := got.Reject.(ErrNotFound)
	if !ok || nf.ID != "a" {
		t.Fatalf("expected first reject kept, got %v", got.Reject)
	}
}
