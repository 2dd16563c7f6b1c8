package crm

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"evictioncrm/pkg/domain"
)

var fixedNow = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	var seq atomic.Int64
	base := []Option{
		WithClock(func() time.Time { return fixedNow }),
		WithIDGenerator(func() string { return fmt.Sprintf("id-%d", seq.Add(1)) }),
	}
	return NewStore(append(base, opts...)...)
}

func sampleCase() domain.Case {
	return domain.Case{
		PropertyID:      "property1",
		PropertyOwnerID: "owner1",
		TenantID:        "tenant1",
		EvictionReason:  domain.ReasonNonPayment,
		UrgencyLevel:    domain.UrgencyASAP,
		LeadSource:      domain.SourceWebsiteForm,
	}
}

func TestSeedShape(t *testing.T) {
	store := newTestStore(t)
	if len(store.Owners()) != 3 || len(store.Tenants()) != 3 || len(store.Properties()) != 3 {
		t.Fatalf("expected three owners, tenants and properties")
	}
	cases := store.Cases()
	if len(cases) != 3 {
		t.Fatalf("expected three seeded cases, got %d", len(cases))
	}
	for _, c := range cases {
		if len(c.Documents) != 1 || len(c.Reminders) != 1 || len(c.Notes) != 1 {
			t.Fatalf("expected one document, reminder and note on %s, got %d/%d/%d",
				c.ID, len(c.Documents), len(c.Reminders), len(c.Notes))
		}
	}
	if cases[0].Stage != domain.StageNoticeServed {
		t.Fatalf("expected case1 at stage 3, got %d", cases[0].Stage)
	}
}

func TestAddCaseToSeededStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	c := sampleCase()
	c.Stage = domain.StageNewLead
	created, err := store.AddCase(ctx, c)
	if err != nil {
		t.Fatalf("add case: %v", err)
	}
	cases := store.Cases()
	if len(cases) != 4 {
		t.Fatalf("expected four cases, got %d", len(cases))
	}
	last := cases[3]
	if last.ID != created.ID || last.Stage != domain.StageNewLead {
		t.Fatalf("expected new case last at stage 1, got %+v", last)
	}
	if len(last.Documents) != 0 || len(last.Reminders) != 0 || len(last.Notes) != 0 {
		t.Fatalf("expected empty child views on new case")
	}
	if !last.CreatedAt.Equal(last.UpdatedAt) {
		t.Fatalf("expected createdAt == updatedAt, got %v vs %v", last.CreatedAt, last.UpdatedAt)
	}
	if created.Documents == nil || created.Reminders == nil || created.Notes == nil {
		t.Fatalf("expected non-nil empty child views on returned case")
	}
}

func TestAddsProduceDistinctIDs(t *testing.T) {
	store := NewStore(WithoutSeed())
	ctx := context.Background()
	seen := map[string]bool{}
	for i := 0; i < 25; i++ {
		owner, err := store.AddOwner(ctx, domain.PropertyOwner{
			Name: fmt.Sprintf("Owner %d", i), Phone: "555", Email: "o@example.com",
			CommunicationPreference: domain.CommunicationMail,
		})
		if err != nil {
			t.Fatalf("add owner: %v", err)
		}
		if seen[owner.ID] {
			t.Fatalf("duplicate id %s", owner.ID)
		}
		seen[owner.ID] = true
	}
	if got := len(store.Owners()); got != 25 {
		t.Fatalf("expected 25 owners, got %d", got)
	}
}

func TestUpdateCaseStageStrictlyIncreasesUpdatedAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	before, _ := store.FindCase("case1")
	after, err := store.UpdateCaseStage(ctx, "case1", before.Stage+1)
	if err != nil {
		t.Fatalf("update stage: %v", err)
	}
	if after.Stage != before.Stage+1 {
		t.Fatalf("expected stage %d, got %d", before.Stage+1, after.Stage)
	}
	if !after.UpdatedAt.After(before.UpdatedAt) {
		t.Fatalf("expected updatedAt to advance: %v -> %v", before.UpdatedAt, after.UpdatedAt)
	}
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Fatalf("expected createdAt unchanged")
	}
}

func TestUpdateCaseStageOutOfRangeIsRejected(t *testing.T) {
	store := newTestStore(t)
	before := store.Snapshot()
	for _, stage := range []domain.CaseStage{0, 10, -1} {
		_, err := store.UpdateCaseStage(context.Background(), "case1", stage)
		if !domain.IsValidation(err) {
			t.Fatalf("expected validation error for stage %d, got %v", stage, err)
		}
	}
	after, _ := store.FindCase("case1")
	if after.Stage != before.Cases[0].Stage || !after.UpdatedAt.Equal(before.Cases[0].UpdatedAt) {
		t.Fatalf("expected case untouched by rejected stage changes")
	}
}

func TestNotFoundLeavesStateUnchanged(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	before := store.Snapshot()
	checks := []struct {
		name   string
		run    func() error
		entity domain.EntityType
	}{
		{"stage", func() error { _, err := store.UpdateCaseStage(ctx, "nope", 2); return err }, domain.EntityCase},
		{"delete document", func() error { _, err := store.DeleteDocument(ctx, "nope"); return err }, domain.EntityDocument},
		{"complete reminder", func() error { _, err := store.CompleteReminder(ctx, "nope"); return err }, domain.EntityReminder},
		{"update tenant", func() error {
			_, err := store.UpdateTenant(ctx, domain.Tenant{ID: "nope", Name: "X"})
			return err
		}, domain.EntityTenant},
	}
	for _, tc := range checks {
		err := tc.run()
		var nf ErrNotFound
		if !errors.As(err, &nf) || nf.Entity != tc.entity || nf.ID != "nope" {
			t.Fatalf("%s: expected not found for %s, got %v", tc.name, tc.entity, err)
		}
	}
	after := store.Snapshot()
	if len(after.Cases) != len(before.Cases) || len(after.Documents) != len(before.Documents) {
		t.Fatalf("expected collections unchanged")
	}
}

func TestAddDocumentLinksCase(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	caseBefore, _ := store.FindCase("case2")
	total := len(store.Documents())
	doc, err := store.AddDocument(ctx, domain.Document{Name: "Ledger", Type: domain.DocumentOther, URL: "u", CaseID: "case2"})
	if err != nil {
		t.Fatalf("add document: %v", err)
	}
	if doc.State != domain.DocumentActive || doc.UploadedAt.IsZero() {
		t.Fatalf("expected server defaults on document, got %+v", doc)
	}
	if got := len(store.Documents()); got != total+1 {
		t.Fatalf("expected %d documents, got %d", total+1, got)
	}
	caseAfter, _ := store.FindCase("case2")
	if len(caseAfter.Documents) != len(caseBefore.Documents)+1 {
		t.Fatalf("expected embedded documents to grow by one")
	}
	if caseAfter.Documents[len(caseAfter.Documents)-1].ID != doc.ID {
		t.Fatalf("expected new document at the tail of the case view")
	}
	if !caseAfter.UpdatedAt.After(caseBefore.UpdatedAt) {
		t.Fatalf("expected attachment to refresh case updatedAt")
	}
}

func TestAddDocumentWithoutCase(t *testing.T) {
	store := newTestStore(t)
	before := store.Snapshot()
	if _, err := store.AddDocument(context.Background(), domain.Document{Name: "Loose", Type: domain.DocumentOther}); err != nil {
		t.Fatalf("add document: %v", err)
	}
	after := store.Snapshot()
	if len(after.Documents) != len(before.Documents)+1 {
		t.Fatalf("expected top-level document added")
	}
	for id, docs := range after.CaseDocuments {
		if len(docs) != len(before.CaseDocuments[id]) {
			t.Fatalf("expected no case view to change, %s changed", id)
		}
	}
}

func TestAddDocumentUnknownCaseIsNotLinked(t *testing.T) {
	store := newTestStore(t)
	doc, err := store.AddDocument(context.Background(), domain.Document{Name: "Orphan", Type: domain.DocumentOther, CaseID: "ghost"})
	if err != nil {
		t.Fatalf("add document: %v", err)
	}
	if _, ok := store.Snapshot().CaseDocuments["ghost"]; ok {
		t.Fatalf("expected no index entry for unknown case")
	}
	if doc.CaseID != "ghost" {
		t.Fatalf("expected case id kept as given")
	}
}

func TestDeleteDocumentTombstones(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	total := len(store.Documents())
	deleted, err := store.DeleteDocument(ctx, "doc1")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if !deleted.Deleted() {
		t.Fatalf("expected tombstone on returned document")
	}
	if got := len(store.Documents()); got != total {
		t.Fatalf("expected document count unchanged, got %d", got)
	}
	c, _ := store.FindCase("case1")
	if len(c.Documents) != 1 || !c.Documents[0].Deleted() {
		t.Fatalf("expected embedded copy flagged deleted")
	}
	again, err := store.DeleteDocument(ctx, "doc1")
	if err != nil || !again.Deleted() {
		t.Fatalf("expected second delete to be a no-op, got %v", err)
	}
	restored, err := store.UpdateDocument(ctx, domain.Document{ID: "doc1", Name: "Revived", Type: domain.DocumentLease})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !restored.Deleted() || restored.CaseID != "case1" {
		t.Fatalf("expected update to keep tombstone and case link, got %+v", restored)
	}
}

func TestCompleteReminderIsIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	first, err := store.CompleteReminder(ctx, "reminder1")
	if err != nil || !first.Completed {
		t.Fatalf("expected completed reminder, got %+v %v", first, err)
	}
	snap := store.Snapshot()
	second, err := store.CompleteReminder(ctx, "reminder1")
	if err != nil || !second.Completed {
		t.Fatalf("expected idempotent completion, got %+v %v", second, err)
	}
	if !reflect.DeepEqual(store.Snapshot().Reminders, snap.Reminders) {
		t.Fatalf("expected reminders unchanged by second completion")
	}
	reopened, err := store.UpdateReminder(ctx, domain.Reminder{
		ID: "reminder1", Title: "Follow up", CaseID: "case1", DueDate: fixedNow, NotificationType: domain.NotifyEmail,
	})
	if err != nil || !reopened.Completed {
		t.Fatalf("expected completion to survive update, got %+v %v", reopened, err)
	}
	c, _ := store.FindCase("case1")
	if !c.Reminders[0].Completed {
		t.Fatalf("expected case view to reflect completion")
	}
}

func TestCompleteReminderOnceReportsFirstCaller(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	var flipped atomic.Int64
	start := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			r, changed, err := store.CompleteReminderOnce(ctx, "reminder1")
			if err != nil || !r.Completed {
				t.Errorf("expected completed reminder, got %+v %v", r, err)
			}
			if changed {
				flipped.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()
	if flipped.Load() != 1 {
		t.Fatalf("expected exactly one caller to complete the reminder, got %d", flipped.Load())
	}
}

func TestConcurrentAdvancesTakeOneStepEach(t *testing.T) {
	for round := 0; round < 50; round++ {
		store := newTestStore(t)
		ctx := context.Background()
		before, _ := store.FindCase("case1")
		var wg sync.WaitGroup
		var advanced, terminal atomic.Int64
		start := make(chan struct{})
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := store.AdvanceCaseStage(ctx, "case1")
				switch {
				case err == nil:
					advanced.Add(1)
				case errors.Is(err, ErrTerminalStage):
					terminal.Add(1)
				default:
					t.Errorf("advance: %v", err)
				}
			}()
		}
		close(start)
		wg.Wait()
		after, _ := store.FindCase("case1")
		want := int64(domain.MaxStage - before.Stage)
		if advanced.Load() != want || terminal.Load() != 8-want || after.Stage != domain.MaxStage {
			t.Fatalf("round %d: expected %d advances ending closed, got %d advances at stage %d",
				round, want, advanced.Load(), after.Stage)
		}
	}
}

func TestUpdateRoundTripKeepsFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	owner, _ := store.FindOwner("owner2")
	got, err := store.UpdateOwner(ctx, owner)
	if err != nil {
		t.Fatalf("update owner: %v", err)
	}
	if !reflect.DeepEqual(got, owner) {
		t.Fatalf("expected owner unchanged:\n%+v\n%+v", owner, got)
	}
	tenant, _ := store.FindTenant("tenant2")
	if got, err := store.UpdateTenant(ctx, tenant); err != nil || !reflect.DeepEqual(got, tenant) {
		t.Fatalf("expected tenant unchanged, got %+v %v", got, err)
	}
	property, _ := store.FindProperty("property3")
	if got, err := store.UpdateProperty(ctx, property); err != nil || !reflect.DeepEqual(got, property) {
		t.Fatalf("expected property unchanged, got %+v %v", got, err)
	}
	c, _ := store.FindCase("case3")
	updatedCase, err := store.UpdateCase(ctx, c)
	if err != nil {
		t.Fatalf("update case: %v", err)
	}
	if updatedCase.Description != c.Description || updatedCase.Stage != c.Stage || !updatedCase.CreatedAt.Equal(c.CreatedAt) {
		t.Fatalf("expected case fields unchanged")
	}
	if !updatedCase.UpdatedAt.After(c.UpdatedAt) {
		t.Fatalf("expected case updatedAt to advance")
	}
	if len(updatedCase.Documents) != 1 {
		t.Fatalf("expected child views preserved through update")
	}
}

func TestOrderPreservedOnUpdate(t *testing.T) {
	store := newTestStore(t)
	tenant, _ := store.FindTenant("tenant2")
	tenant.Phone = "555-000-0000"
	if _, err := store.UpdateTenant(context.Background(), tenant); err != nil {
		t.Fatalf("update: %v", err)
	}
	tenants := store.Tenants()
	if tenants[1].ID != "tenant2" || tenants[1].Phone != "555-000-0000" {
		t.Fatalf("expected tenant2 updated in place, got %+v", tenants)
	}
}

func TestNotesIndexedByCase(t *testing.T) {
	store := newTestStore(t)
	note, err := store.AddNote(context.Background(), domain.Note{Content: "Called owner", CreatedBy: "Admin User", CaseID: "case1"})
	if err != nil {
		t.Fatalf("add note: %v", err)
	}
	c, _ := store.FindCase("case1")
	if len(c.Notes) != 2 || c.Notes[1].ID != note.ID {
		t.Fatalf("expected note joined onto case, got %+v", c.Notes)
	}
	if len(store.Notes()) != 4 {
		t.Fatalf("expected note in top-level collection")
	}
}

func TestValidationBeforeDispatch(t *testing.T) {
	store := newTestStore(t)
	var dispatched bool
	cancel := store.Subscribe(func(State) { dispatched = true })
	defer cancel()
	if _, err := store.AddOwner(context.Background(), domain.PropertyOwner{}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if dispatched {
		t.Fatalf("expected no dispatch for invalid input")
	}
}

func TestSubscribersNotified(t *testing.T) {
	store := newTestStore(t)
	var calls int
	var lastCases int
	cancel := store.Subscribe(func(st State) {
		calls++
		lastCases = len(st.Cases)
	})
	if _, err := store.AddCase(context.Background(), sampleCase()); err != nil {
		t.Fatalf("add case: %v", err)
	}
	if calls != 1 || lastCases != 4 {
		t.Fatalf("expected one notification with four cases, got %d/%d", calls, lastCases)
	}
	cancel()
	if _, err := store.AddCase(context.Background(), sampleCase()); err != nil {
		t.Fatalf("add case: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no notification after cancel")
	}
}

type blockingRule struct{}

func (blockingRule) Name() string { return "freeze" }

func (blockingRule) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	var res domain.Result
	for _, ch := range changes {
		if ch.Entity == domain.EntityCase {
			res.Violations = append(res.Violations, domain.Violation{Rule: "freeze", Severity: domain.SeverityBlock, Message: "cases frozen"})
		}
	}
	return res, nil
}

func TestBlockingRuleRejectsDispatch(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(blockingRule{})
	store := newTestStore(t, WithRulesEngine(engine))
	_, err := store.AddCase(context.Background(), sampleCase())
	var rv domain.RuleViolationError
	if !errors.As(err, &rv) || !strings.Contains(err.Error(), "cases frozen") {
		t.Fatalf("expected rule violation, got %v", err)
	}
	if len(store.Cases()) != 3 {
		t.Fatalf("expected blocked case not committed")
	}
	if _, err := store.AddTenant(context.Background(), domain.Tenant{Name: "Allowed"}); err != nil {
		t.Fatalf("expected unrelated dispatch to pass, got %v", err)
	}
}

type recordingMetrics struct {
	ops     []string
	results []bool
}

func (r *recordingMetrics) Observe(_ context.Context, op string, success bool, _ time.Duration) {
	r.ops = append(r.ops, op)
	r.results = append(r.results, success)
}

func TestMetricsObserveDispatches(t *testing.T) {
	rec := &recordingMetrics{}
	store := newTestStore(t, WithMetrics(rec))
	ctx := context.Background()
	_, _ = store.CompleteReminder(ctx, "reminder2")
	_, _ = store.CompleteReminder(ctx, "missing")
	if len(rec.ops) != 2 || rec.ops[0] != string(KindCompleteReminder) {
		t.Fatalf("unexpected observed ops %v", rec.ops)
	}
	if !rec.results[0] || rec.results[1] {
		t.Fatalf("unexpected outcomes %v", rec.results)
	}
}

func TestUseOutsideNewStorePanics(t *testing.T) {
	for name, store := range map[string]*Store{"nil": nil, "zero": {}} {
		t.Run(name, func(t *testing.T) {
			defer func() {
				r := recover()
				if err, ok := r.(error); !ok || !errors.Is(err, ErrNoStore) {
					t.Fatalf("expected ErrNoStore panic, got %v", r)
				}
			}()
			store.Cases()
		})
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	source := newTestStore(t)
	if _, err := source.AddCase(context.Background(), sampleCase()); err != nil {
		t.Fatalf("add case: %v", err)
	}
	target := newTestStore(t, WithoutSeed())
	target.ImportState(source.ExportState())
	if len(target.Cases()) != 4 {
		t.Fatalf("expected imported cases")
	}
	c, ok := target.FindCase("case1")
	if !ok || len(c.Documents) != 1 {
		t.Fatalf("expected imported case index")
	}
	next, err := target.UpdateCaseStage(context.Background(), "case1", 4)
	if err != nil || !next.UpdatedAt.After(c.UpdatedAt) {
		t.Fatalf("expected clock to continue past imported timestamps")
	}
}

func TestWithStateStartsFromSnapshot(t *testing.T) {
	st := NewState()
	st.Tenants = append(st.Tenants, domain.Tenant{ID: "t1", Name: "Only"})
	store := newTestStore(t, WithState(st))
	if tenants := store.Tenants(); len(tenants) != 1 || tenants[0].ID != "t1" {
		t.Fatalf("expected supplied snapshot, got %+v", tenants)
	}
	if len(store.Cases()) != 0 {
		t.Fatalf("expected no seed cases")
	}
}
