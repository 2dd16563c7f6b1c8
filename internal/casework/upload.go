package casework

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"evictioncrm/pkg/domain"
)

// File is one file of an upload batch. Err marks a file whose bytes could
// not be read; it is reported like any other failed upload.
type File struct {
	Name string
	Data []byte
	Err  error
}

// UploadReport lists the documents created by a batch and a message for each
// file that was skipped.
type UploadReport struct {
	Documents []domain.Document `json:"documents"`
	Errors    []string          `json:"errors"`
}

// InferDocumentType classifies a file by keywords in its name.
func InferDocumentType(name string) domain.DocumentType {
	n := strings.ToLower(name)
	switch {
	case strings.Contains(n, "lease"):
		return domain.DocumentLease
	case strings.Contains(n, "notice"):
		return domain.DocumentNotice
	case strings.Contains(n, "court"), strings.Contains(n, "filing"):
		return domain.DocumentCourtFiling
	case strings.Contains(n, "letter"), strings.Contains(n, "email"):
		return domain.DocumentCorrespondence
	}
	return domain.DocumentOther
}

// UploadDocuments uploads files one at a time and records a document for
// each success, linked to caseID when it is non-empty. A failing file is
// reported and skipped; files already stored are kept. The returned error is
// reserved for problems with the batch as a whole.
func (s *Service) UploadDocuments(ctx context.Context, caseID string, files []File) (UploadReport, error) {
	report := UploadReport{Documents: []domain.Document{}, Errors: []string{}}
	if s.uploader == nil {
		return report, ErrNoUploader
	}
	if len(files) == 0 {
		return report, domain.ValidationError{Field: "files", Message: "no files selected"}
	}
	if len(files) > s.maxFiles {
		return report, domain.ValidationError{
			Field:   "files",
			Message: fmt.Sprintf("you can only upload a maximum of %d files at once", s.maxFiles),
		}
	}
	if caseID != "" {
		if _, err := s.requireCase(caseID); err != nil {
			return report, err
		}
	}

	for _, f := range files {
		doc, err := s.uploadOne(ctx, caseID, f)
		if s.uploads != nil {
			s.uploads.ObserveUpload(ctx, err == nil, len(f.Data))
		}
		if err != nil {
			s.logger.Warn("document upload failed", zap.String("file", f.Name), zap.String("case_id", caseID), zap.Error(err))
			report.Errors = append(report.Errors, fmt.Sprintf("Failed to upload %s: %v", f.Name, err))
			continue
		}
		report.Documents = append(report.Documents, doc)
	}

	if n := len(report.Documents); n > 0 {
		s.push("Files uploaded successfully", fmt.Sprintf("%d file(s) have been uploaded.", n))
	}
	if n := len(report.Errors); n > 0 {
		s.alert("Upload failed", fmt.Sprintf("%d file(s) could not be uploaded.", n))
	}
	return report, nil
}

func (s *Service) uploadOne(ctx context.Context, caseID string, f File) (domain.Document, error) {
	if f.Err != nil {
		return domain.Document{}, f.Err
	}
	if strings.TrimSpace(f.Name) == "" {
		return domain.Document{}, fmt.Errorf("file name is required")
	}
	url, err := s.uploader.Upload(ctx, f.Data, f.Name)
	if err != nil {
		return domain.Document{}, err
	}
	doc, err := s.store.AddDocument(ctx, domain.Document{
		Name:   f.Name,
		Type:   InferDocumentType(f.Name),
		URL:    url,
		Notes:  uploadedOn(s.store.Now()),
		CaseID: caseID,
	})
	if err != nil {
		if d, ok := s.uploader.(discarder); ok {
			if derr := d.Discard(ctx, url); derr != nil {
				s.logger.Warn("discard orphaned upload", zap.String("url", url), zap.Error(derr))
			}
		}
		return domain.Document{}, err
	}
	return doc, nil
}
