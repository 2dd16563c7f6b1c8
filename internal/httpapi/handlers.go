package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"evictioncrm/internal/auth"
	"evictioncrm/internal/blob"
	"evictioncrm/internal/casework"
	"evictioncrm/internal/crm"
	"evictioncrm/pkg/domain"
)

// uploadField is the multipart field carrying files.
const uploadField = "files"

func list[T any](fn func() []T) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, fn())
	}
}

// search filters a contact list by the q query parameter.
func search[T any](fn func(string) []T) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, fn(c.QueryParam("q")))
	}
}

// listCases honours ?stage=, ?urgent= and ?q=. A stage of "all" matches
// every stage.
func (h *Handler) listCases(c echo.Context) error {
	var f crm.CaseFilter
	if raw := c.QueryParam("stage"); raw != "" && raw != "all" {
		n, err := strconv.Atoi(raw)
		if err != nil || !domain.CaseStage(n).Valid() {
			return domain.ValidationError{Field: "stage", Message: fmt.Sprintf("%q is not a stage", raw)}
		}
		f.Stage = domain.CaseStage(n)
	}
	if raw := c.QueryParam("urgent"); raw != "" {
		urgent, err := strconv.ParseBool(raw)
		if err != nil {
			return domain.ValidationError{Field: "urgent", Message: fmt.Sprintf("%q is not a boolean", raw)}
		}
		f.UrgentOnly = urgent
	}
	f.Query = c.QueryParam("q")
	return c.JSON(http.StatusOK, h.store.FilterCases(f))
}

func find[T any](fn func(string) (T, bool), entity domain.EntityType) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		v, ok := fn(id)
		if !ok {
			return crm.ErrNotFound{Entity: entity, ID: id}
		}
		return c.JSON(http.StatusOK, v)
	}
}

func create[T any](fn func(context.Context, T) (T, error)) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in T
		if err := bindJSON(c, &in); err != nil {
			return err
		}
		out, err := fn(c.Request().Context(), in)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, out)
	}
}

// replace binds a full record and takes its id from the path.
func replace[T any](fn func(context.Context, T) (T, error), setID func(*T, string)) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in T
		if err := bindJSON(c, &in); err != nil {
			return err
		}
		setID(&in, c.Param("id"))
		out, err := fn(c.Request().Context(), in)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, out)
	}
}

func setOwnerID(v *domain.PropertyOwner, id string) { v.ID = id }
func setTenantID(v *domain.Tenant, id string) { v.ID = id }
func setPropertyID(v *domain.Property, id string) { v.ID = id }
func setCaseID(v *domain.Case, id string) { v.ID = id }
func setDocumentID(v *domain.Document, id string) { v.ID = id }
func setReminderID(v *domain.Reminder, id string) { v.ID = id }

func bindJSON(c echo.Context, v any) error {
	if err := (&echo.DefaultBinder{}).BindBody(c, v); err != nil {
		return domain.ValidationError{Message: "invalid request body"}
	}
	return nil
}

func (h *Handler) state(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.ExportState())
}

func (h *Handler) dashboard(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.Dashboard())
}

func (h *Handler) casesCSV(c echo.Context) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, "text/csv; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="cases.csv"`)
	res.WriteHeader(http.StatusOK)
	return crm.WriteCasesCSV(res, h.store.Cases())
}

type stageRequest struct {
	Stage domain.CaseStage `json:"stage"`
}

func (h *Handler) updateStage(c echo.Context) error {
	var req stageRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	updated, err := h.store.UpdateCaseStage(c.Request().Context(), c.Param("id"), req.Stage)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) advanceStage(c echo.Context) error {
	updated, err := h.cases.AdvanceStage(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) attachDocument(c echo.Context) error {
	var doc domain.Document
	if err := bindJSON(c, &doc); err != nil {
		return err
	}
	created, err := h.cases.AttachDocument(c.Request().Context(), c.Param("id"), doc)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

func (h *Handler) attachReminder(c echo.Context) error {
	var reminder domain.Reminder
	if err := bindJSON(c, &reminder); err != nil {
		return err
	}
	created, err := h.cases.AttachReminder(c.Request().Context(), c.Param("id"), reminder)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

type noteRequest struct {
	Content   string `json:"content"`
	CreatedBy string `json:"created_by"`
}

// addCaseNote signs the note with the caller's name unless one is given.
func (h *Handler) addCaseNote(c echo.Context) error {
	var req noteRequest
	if err := bindJSON(c, &req); err != nil {
		return err
	}
	author := req.CreatedBy
	if author == "" {
		if user, ok := auth.CurrentUser(c); ok {
			author = user.Name
		}
	}
	note, err := h.cases.AddNote(c.Request().Context(), c.Param("id"), req.Content, author)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, note)
}

func (h *Handler) deleteDocument(c echo.Context) error {
	doc, err := h.store.DeleteDocument(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *Handler) completeReminder(c echo.Context) error {
	reminder, err := h.cases.CompleteReminder(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reminder)
}

func (h *Handler) uploadToCase(c echo.Context) error {
	return h.uploadFor(c, c.Param("id"))
}

// upload accepts an optional case_id form field.
func (h *Handler) upload(c echo.Context) error {
	return h.uploadFor(c, strings.TrimSpace(c.FormValue("case_id")))
}

func (h *Handler) uploadFor(c echo.Context, caseID string) error {
	form, err := c.MultipartForm()
	if err != nil {
		return domain.ValidationError{Field: uploadField, Message: "expected a multipart form"}
	}
	report, err := h.cases.UploadDocuments(c.Request().Context(), caseID, readFiles(form.File[uploadField]))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, report)
}

// readFiles loads every part. A part that cannot be read is passed on with
// its error so the batch reports it per file.
func readFiles(headers []*multipart.FileHeader) []casework.File {
	files := make([]casework.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, readFile(fh))
	}
	return files
}

func readFile(fh *multipart.FileHeader) casework.File {
	f, err := fh.Open()
	if err != nil {
		return casework.File{Name: fh.Filename, Err: fmt.Errorf("open: %w", err)}
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return casework.File{Name: fh.Filename, Err: fmt.Errorf("read: %w", err)}
	}
	return casework.File{Name: fh.Filename, Data: data}
}

func (h *Handler) file(c echo.Context) error {
	key, err := url.PathUnescape(c.Param("key"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid file key")
	}
	obj, body, err := h.blobs.Get(c.Request().Context(), key)
	if errors.Is(err, blob.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "file not found")
	}
	if err != nil {
		return err
	}
	defer body.Close()
	contentType := obj.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	if name := obj.Metadata["original_name"]; name != "" {
		c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", name))
	}
	return c.Stream(http.StatusOK, contentType, body)
}

func (h *Handler) notifications(c echo.Context) error {
	return c.JSON(http.StatusOK, h.notices.List())
}

func (h *Handler) dismissNotification(c echo.Context) error {
	h.notices.Dismiss(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}

// removeNotification clears one notification, or all when no id is given.
func (h *Handler) removeNotification(c echo.Context) error {
	h.notices.Remove(c.Param("id"))
	return c.NoContent(http.StatusNoContent)
}
