package casework

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"evictioncrm/internal/blob"
	"evictioncrm/internal/crm"
	"evictioncrm/internal/notify"
	"evictioncrm/pkg/domain"
)

var fixedNow = time.Date(2024, time.March, 1, 12, 0, 0, 0, time.UTC)

func newService(t *testing.T, opts ...Option) (*Service, *notify.Queue) {
	t.Helper()
	var seq atomic.Int64
	store := crm.NewStore(
		crm.WithClock(func() time.Time { return fixedNow }),
		crm.WithIDGenerator(func() string { return fmt.Sprintf("id-%d", seq.Add(1)) }),
	)
	queue := notify.New(notify.WithRemoveDelay(time.Hour))
	t.Cleanup(queue.Close)
	base := []Option{WithNotifier(queue), WithUploader(blob.NewPublisher(blob.NewMemory()))}
	return New(store, append(base, opts...)...), queue
}

func TestAdvanceStage(t *testing.T) {
	svc, queue := newService(t)
	ctx := context.Background()
	before, _ := svc.Store().FindCase("case1")
	first, err := svc.AdvanceStage(ctx, "case1")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	second, err := svc.AdvanceStage(ctx, "case1")
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	if first.Stage != domain.StageWaitingPeriod || second.Stage != domain.StageCourtFiling {
		t.Fatalf("expected stages 4 then 5, got %d and %d", first.Stage, second.Stage)
	}
	if !second.UpdatedAt.After(first.UpdatedAt) || !first.UpdatedAt.After(before.UpdatedAt) {
		t.Fatalf("expected updatedAt strictly increasing")
	}
	top := queue.List()[0]
	if top.Title != "Case Stage Advanced" || top.Description != "Case has been moved to Court Filing." {
		t.Fatalf("unexpected notification %+v", top)
	}
}

func TestAdvanceStageAtFinalStage(t *testing.T) {
	svc, queue := newService(t)
	ctx := context.Background()
	closed, err := svc.Store().UpdateCaseStage(ctx, "case2", domain.StageClosed)
	if err != nil {
		t.Fatalf("close: %v", err)
	}
	queued := len(queue.List())
	if _, err := svc.AdvanceStage(ctx, "case2"); !errors.Is(err, ErrTerminalStage) {
		t.Fatalf("expected ErrTerminalStage, got %v", err)
	}
	after, _ := svc.Store().FindCase("case2")
	if after.Stage != domain.StageClosed || !after.UpdatedAt.Equal(closed.UpdatedAt) {
		t.Fatalf("expected closed case untouched")
	}
	if len(queue.List()) != queued {
		t.Fatalf("expected no notification")
	}
	if _, err := svc.AdvanceStage(ctx, "nope"); !crm.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestConcurrentAdvanceNeverLosesOrRegresses(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := map[domain.CaseStage]int{}
	start := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			c, err := svc.AdvanceStage(ctx, "case1")
			if err != nil {
				if !errors.Is(err, ErrTerminalStage) {
					t.Errorf("advance: %v", err)
				}
				return
			}
			mu.Lock()
			seen[c.Stage]++
			mu.Unlock()
		}()
	}
	close(start)
	wg.Wait()
	for stage := domain.StageWaitingPeriod; stage <= domain.MaxStage; stage++ {
		if seen[stage] != 1 {
			t.Fatalf("expected stage %d reached exactly once, got %d", stage, seen[stage])
		}
	}
	final, _ := svc.Store().FindCase("case1")
	if final.Stage != domain.MaxStage {
		t.Fatalf("expected case closed, got stage %d", final.Stage)
	}
}

func TestAttachDocument(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	doc, err := svc.AttachDocument(ctx, "case2", domain.Document{Name: "Final Notice to Vacate.pdf", URL: "u"})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if doc.Type != domain.DocumentNotice || doc.CaseID != "case2" {
		t.Fatalf("unexpected document %+v", doc)
	}
	c, _ := svc.Store().FindCase("case2")
	if len(c.Documents) != 2 || c.Documents[1].ID != doc.ID {
		t.Fatalf("expected document linked to case")
	}
	if _, err := svc.AttachDocument(ctx, "", domain.Document{Name: "x"}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for empty case id, got %v", err)
	}
	if _, err := svc.AttachDocument(ctx, "case2", domain.Document{}); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}
	if _, err := svc.AttachDocument(ctx, "ghost", domain.Document{Name: "x"}); !crm.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAttachReminder(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	r, err := svc.AttachReminder(ctx, "case3", domain.Reminder{Title: "Call court clerk", DueDate: fixedNow.Add(48 * time.Hour)})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if r.CaseID != "case3" || r.NotificationType != domain.NotifyInApp || r.Completed {
		t.Fatalf("unexpected reminder %+v", r)
	}
	c, _ := svc.Store().FindCase("case3")
	if len(c.Reminders) != 2 {
		t.Fatalf("expected reminder linked")
	}
	if _, err := svc.AttachReminder(ctx, "case3", domain.Reminder{Title: "Late", DueDate: fixedNow.Add(-time.Hour)}); !domain.IsValidation(err) {
		t.Fatalf("expected past due date rejected, got %v", err)
	}
	if _, err := svc.AttachReminder(ctx, "case3", domain.Reminder{DueDate: fixedNow.Add(time.Hour)}); !domain.IsValidation(err) {
		t.Fatalf("expected missing title rejected, got %v", err)
	}
}

func TestCompleteReminderNotifiesOnce(t *testing.T) {
	svc, queue := newService(t)
	ctx := context.Background()
	if _, err := svc.CompleteReminder(ctx, "reminder1"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	count := len(queue.List())
	r, err := svc.CompleteReminder(ctx, "reminder1")
	if err != nil || !r.Completed {
		t.Fatalf("expected idempotent completion, got %+v %v", r, err)
	}
	if len(queue.List()) != count {
		t.Fatalf("expected no second notification")
	}
	if _, err := svc.CompleteReminder(ctx, "nope"); !crm.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddNote(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	note, err := svc.AddNote(ctx, "case1", "  Spoke with tenant  ", "")
	if err != nil {
		t.Fatalf("add note: %v", err)
	}
	if note.Content != "Spoke with tenant" || note.CreatedBy != DefaultAuthor || note.CaseID != "case1" {
		t.Fatalf("unexpected note %+v", note)
	}
	c, _ := svc.Store().FindCase("case1")
	if c.Notes[len(c.Notes)-1].ID != note.ID {
		t.Fatalf("expected note on case view")
	}
	if _, err := svc.AddNote(ctx, "case1", "   ", "x"); !domain.IsValidation(err) {
		t.Fatalf("expected empty content rejected, got %v", err)
	}
}

func TestInferDocumentType(t *testing.T) {
	cases := map[string]domain.DocumentType{
		"Signed LEASE.pdf":      domain.DocumentLease,
		"3-day-notice.docx":     domain.DocumentNotice,
		"court-summons.pdf":     domain.DocumentCourtFiling,
		"eviction filing.pdf":   domain.DocumentCourtFiling,
		"letter to tenant.txt":  domain.DocumentCorrespondence,
		"email-thread.eml":      domain.DocumentCorrespondence,
		"photo.jpg":             domain.DocumentOther,
		"lease-notice-both.pdf": domain.DocumentLease,
	}
	for name, want := range cases {
		if got := InferDocumentType(name); got != want {
			t.Fatalf("%s: expected %s, got %s", name, want, got)
		}
	}
}

type flakyUploader struct {
	fail  map[string]bool
	calls []string
}

func (f *flakyUploader) Upload(_ context.Context, _ []byte, name string) (string, error) {
	f.calls = append(f.calls, name)
	if f.fail[name] {
		return "", errors.New("storage unavailable")
	}
	return "/files/" + name, nil
}

type countingRecorder struct{ ok, failed int }

func (c *countingRecorder) ObserveUpload(_ context.Context, success bool, _ int) {
	if success {
		c.ok++
	} else {
		c.failed++
	}
}

func TestUploadDocumentsPartialFailure(t *testing.T) {
	up := &flakyUploader{fail: map[string]bool{"notice.pdf": true}}
	rec := &countingRecorder{}
	svc, queue := newService(t, WithUploader(up), WithUploadRecorder(rec))
	docsBefore := len(svc.Store().Documents())
	report, err := svc.UploadDocuments(context.Background(), "case1", []File{
		{Name: "lease.pdf", Data: []byte("a")},
		{Name: "notice.pdf", Data: []byte("b")},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(report.Documents) != 1 || len(report.Errors) != 1 {
		t.Fatalf("expected one document and one error, got %+v", report)
	}
	if !strings.Contains(report.Errors[0], "notice.pdf") {
		t.Fatalf("expected error naming the file, got %q", report.Errors[0])
	}
	doc := report.Documents[0]
	if doc.Type != domain.DocumentLease || doc.URL != "/files/lease.pdf" || doc.Notes != "Uploaded on 3/1/2024" {
		t.Fatalf("unexpected document %+v", doc)
	}
	if len(up.calls) != 2 || up.calls[0] != "lease.pdf" {
		t.Fatalf("expected sequential uploads in order, got %v", up.calls)
	}
	if got := len(svc.Store().Documents()); got != docsBefore+1 {
		t.Fatalf("expected one new document, got %d", got-docsBefore)
	}
	c, _ := svc.Store().FindCase("case1")
	if len(c.Documents) != 2 {
		t.Fatalf("expected uploaded document linked to case")
	}
	if rec.ok != 1 || rec.failed != 1 {
		t.Fatalf("unexpected recorder counts %+v", rec)
	}
	titles := []string{queue.List()[0].Title, queue.List()[1].Title}
	if titles[0] != "Upload failed" || titles[1] != "Files uploaded successfully" {
		t.Fatalf("unexpected notifications %v", titles)
	}
}

func TestUploadDocumentsUnreadableFileIsReportedPerFile(t *testing.T) {
	up := &flakyUploader{}
	svc, _ := newService(t, WithUploader(up))
	report, err := svc.UploadDocuments(context.Background(), "case1", []File{
		{Name: "scan.pdf", Err: errors.New("read: unexpected EOF")},
		{Name: "lease.pdf", Data: []byte("a")},
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(report.Documents) != 1 || report.Documents[0].Name != "lease.pdf" {
		t.Fatalf("expected the readable file uploaded, got %+v", report.Documents)
	}
	if len(report.Errors) != 1 || !strings.Contains(report.Errors[0], "scan.pdf") {
		t.Fatalf("expected one error naming the unreadable file, got %v", report.Errors)
	}
	if len(up.calls) != 1 {
		t.Fatalf("expected unreadable file never sent to the uploader, got %v", up.calls)
	}
}

func TestUploadDocumentsThroughPublisher(t *testing.T) {
	store := blob.NewMemory()
	svc, _ := newService(t, WithUploader(blob.NewPublisher(store)))
	report, err := svc.UploadDocuments(context.Background(), "", []File{{Name: "court filing.pdf", Data: []byte("%PDF")}})
	if err != nil || len(report.Errors) != 0 {
		t.Fatalf("upload: %v %v", err, report.Errors)
	}
	doc := report.Documents[0]
	if doc.CaseID != "" || doc.Type != domain.DocumentCourtFiling || !strings.HasPrefix(doc.URL, "/files/") {
		t.Fatalf("unexpected document %+v", doc)
	}
}

func TestUploadDocumentsBatchErrors(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.UploadDocuments(ctx, "case1", nil); !domain.IsValidation(err) {
		t.Fatalf("expected empty batch rejected, got %v", err)
	}
	files := make([]File, DefaultMaxFiles+1)
	for i := range files {
		files[i] = File{Name: fmt.Sprintf("f%d.txt", i)}
	}
	if _, err := svc.UploadDocuments(ctx, "case1", files); !domain.IsValidation(err) {
		t.Fatalf("expected oversized batch rejected, got %v", err)
	}
	if _, err := svc.UploadDocuments(ctx, "ghost", files[:1]); !crm.IsNotFound(err) {
		t.Fatalf("expected unknown case rejected, got %v", err)
	}
	bare := New(svc.Store())
	if _, err := bare.UploadDocuments(ctx, "", files[:1]); !errors.Is(err, ErrNoUploader) {
		t.Fatalf("expected ErrNoUploader, got %v", err)
	}
}

type discardingUploader struct {
	flakyUploader
	discarded []string
}

func (d *discardingUploader) Discard(_ context.Context, url string) error {
	d.discarded = append(d.discarded, url)
	return nil
}

func TestUploadDiscardsWhenRecordRejected(t *testing.T) {
	engine := domain.NewRulesEngine()
	engine.Register(rejectDocuments{})
	store := crm.NewStore(crm.WithRulesEngine(engine))
	up := &discardingUploader{}
	svc := New(store, WithUploader(up))
	report, err := svc.UploadDocuments(context.Background(), "", []File{{Name: "x.pdf"}})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if len(report.Errors) != 1 || len(up.discarded) != 1 || up.discarded[0] != "/files/x.pdf" {
		t.Fatalf("expected stored object discarded, got %+v %v", report, up.discarded)
	}
}

type rejectDocuments struct{}

func (rejectDocuments) Name() string { return "reject_documents" }

func (rejectDocuments) Evaluate(_ context.Context, _ domain.RuleView, changes []domain.Change) (domain.Result, error) {
	var res domain.Result
	for _, ch := range changes {
		if ch.Entity == domain.EntityDocument {
			res.Violations = append(res.Violations, domain.Violation{Rule: "reject_documents", Severity: domain.SeverityBlock, Message: "read only"})
		}
	}
	return res, nil
}
