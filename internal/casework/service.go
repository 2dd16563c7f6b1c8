// Package casework implements the case lifecycle on top of the crm store:
// stage advancement, attaching documents, reminders and notes, and batch
// document upload through the blob publisher.
package casework

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"evictioncrm/internal/crm"
	"evictioncrm/pkg/domain"
)

// DefaultMaxFiles caps a single upload batch.
const DefaultMaxFiles = 10

// DefaultAuthor signs notes added without an author.
const DefaultAuthor = "Admin User"

// ErrTerminalStage is returned when advancing a closed case.
var ErrTerminalStage = crm.ErrTerminalStage

// ErrNoUploader is returned by UploadDocuments when no uploader is configured.
var ErrNoUploader = errors.New("casework: no uploader configured")

// Uploader stores file bytes and returns the URL they are served from.
type Uploader interface {
	Upload(ctx context.Context, data []byte, name string) (string, error)
}

// discarder is implemented by uploaders that can remove an object whose
// document record could not be created.
type discarder interface {
	Discard(ctx context.Context, url string) error
}

// Notifier receives user-facing outcome messages.
type Notifier interface {
	Push(title, description string) string
	Alert(title, description string) string
}

// UploadRecorder observes per-file upload outcomes.
type UploadRecorder interface {
	ObserveUpload(ctx context.Context, success bool, size int)
}

// Service runs lifecycle operations against a store.
type Service struct {
	store    *crm.Store
	uploader Uploader
	notifier Notifier
	uploads  UploadRecorder
	logger   *zap.Logger
	maxFiles int
}

// Option configures a Service.
type Option func(*Service)

func WithUploader(u Uploader) Option { return func(s *Service) { s.uploader = u } }
func WithNotifier(n Notifier) Option { return func(s *Service) { s.notifier = n } }
func WithUploadRecorder(r UploadRecorder) Option { return func(s *Service) { s.uploads = r } }
func WithLogger(l *zap.Logger) Option { return func(s *Service) { s.logger = l } }

// WithMaxFiles overrides DefaultMaxFiles.
func WithMaxFiles(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxFiles = n
		}
	}
}

// New returns a Service over store.
func New(store *crm.Store, opts ...Option) *Service {
	s := &Service{store: store, logger: zap.NewNop(), maxFiles: DefaultMaxFiles}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	return s
}

// Store returns the underlying store.
func (s *Service) Store() *crm.Store { return s.store }

// AdvanceStage moves a case exactly one stage forward.
func (s *Service) AdvanceStage(ctx context.Context, caseID string) (domain.Case, error) {
	if _, err := s.requireCase(caseID); err != nil {
		return domain.Case{}, err
	}
	updated, err := s.store.AdvanceCaseStage(ctx, caseID)
	if err != nil {
		return domain.Case{}, err
	}
	s.logger.Info("case stage advanced",
		zap.String("case_id", caseID),
		zap.Int("from", int(updated.Stage)-1),
		zap.Int("to", int(updated.Stage)))
	s.push("Case Stage Advanced", fmt.Sprintf("Case has been moved to %s.", updated.Stage.Title()))
	return updated, nil
}

// AttachDocument creates doc linked to caseID.
func (s *Service) AttachDocument(ctx context.Context, caseID string, doc domain.Document) (domain.Document, error) {
	if _, err := s.requireCase(caseID); err != nil {
		return domain.Document{}, err
	}
	doc.CaseID = caseID
	if doc.Type == "" {
		doc.Type = InferDocumentType(doc.Name)
	}
	created, err := s.store.AddDocument(ctx, doc)
	if err != nil {
		return domain.Document{}, err
	}
	s.push("Document Added", fmt.Sprintf("%s has been added to the case.", created.Name))
	return created, nil
}

// AttachReminder creates a reminder on caseID. The due date may not be in
// the past.
func (s *Service) AttachReminder(ctx context.Context, caseID string, reminder domain.Reminder) (domain.Reminder, error) {
	if _, err := s.requireCase(caseID); err != nil {
		return domain.Reminder{}, err
	}
	reminder.CaseID = caseID
	if reminder.NotificationType == "" {
		reminder.NotificationType = domain.NotifyInApp
	}
	if !reminder.DueDate.IsZero() && reminder.DueDate.Before(s.store.Now()) {
		return domain.Reminder{}, domain.ValidationError{Field: "due_date", Message: "must not be in the past"}
	}
	created, err := s.store.AddReminder(ctx, reminder)
	if err != nil {
		return domain.Reminder{}, err
	}
	s.push("Reminder Set", fmt.Sprintf("%s is due %s.", created.Title, created.DueDate.Format("Jan 2, 2006")))
	return created, nil
}

// CompleteReminder marks a reminder done. Completing twice is not an error.
func (s *Service) CompleteReminder(ctx context.Context, id string) (domain.Reminder, error) {
	reminder, changed, err := s.store.CompleteReminderOnce(ctx, id)
	if err != nil {
		return domain.Reminder{}, err
	}
	if changed {
		s.push("Reminder Completed", fmt.Sprintf("%s has been marked complete.", reminder.Title))
	}
	return reminder, nil
}

// AddNote records a note against caseID.
func (s *Service) AddNote(ctx context.Context, caseID, content, author string) (domain.Note, error) {
	if _, err := s.requireCase(caseID); err != nil {
		return domain.Note{}, err
	}
	if strings.TrimSpace(author) == "" {
		author = DefaultAuthor
	}
	note, err := s.store.AddNote(ctx, domain.Note{Content: strings.TrimSpace(content), CreatedBy: author, CaseID: caseID})
	if err != nil {
		return domain.Note{}, err
	}
	s.push("Note Added", "Your note has been added to the case.")
	return note, nil
}

func (s *Service) requireCase(caseID string) (domain.Case, error) {
	if strings.TrimSpace(caseID) == "" {
		return domain.Case{}, domain.ValidationError{Field: "case_id", Message: "is required"}
	}
	c, ok := s.store.FindCase(caseID)
	if !ok {
		return domain.Case{}, crm.ErrNotFound{Entity: domain.EntityCase, ID: caseID}
	}
	return c, nil
}

func (s *Service) push(title, description string) {
	if s.notifier != nil {
		s.notifier.Push(title, description)
	}
}

func (s *Service) alert(title, description string) {
	if s.notifier != nil {
		s.notifier.Alert(title, description)
	}
}

func uploadedOn(t time.Time) string {
	return "Uploaded on " + t.Format("1/2/2006")
}
