// Package httpapi exposes the crm store and case lifecycle over a JSON API.
package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"evictioncrm/internal/auth"
	"evictioncrm/internal/blob"
	"evictioncrm/internal/casework"
	"evictioncrm/internal/crm"
	"evictioncrm/internal/metrics"
	"evictioncrm/internal/notify"
	"evictioncrm/pkg/domain"
	"evictioncrm/pkg/logger"
)

// DefaultBodyLimit caps request bodies, uploads included.
const DefaultBodyLimit = "32M"

// Deps are the collaborators the API serves. Store, Cases and Gate are
// required; the rest disable their routes when nil.
type Deps struct {
	Store   *crm.Store
	Cases   *casework.Service
	Gate    *auth.Gate
	Notices *notify.Queue
	Blobs   blob.Store
	Metrics *metrics.Recorder
	Logger  *zap.Logger
}

// Handler holds the request handlers.
type Handler struct {
	store   *crm.Store
	cases   *casework.Service
	notices *notify.Queue
	blobs   blob.Store
	logger  *zap.Logger
}

// New builds the echo instance with every route registered.
func New(d Deps) *echo.Echo {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	h := &Handler{store: d.Store, cases: d.Cases, notices: d.Notices, blobs: d.Blobs, logger: d.Logger}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = h.errorHandler

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimit(DefaultBodyLimit))
	e.Use(RequestID)
	e.Use(logger.Middleware(d.Logger))
	if d.Metrics != nil {
		e.Use(d.Metrics.Middleware())
		e.GET("/metrics", echo.WrapHandler(d.Metrics.Handler()))
	}

	e.GET("/health", h.health)
	e.GET("/login", h.login)
	e.GET("/", h.home, d.Gate.RedirectToLogin("/login"))
	if d.Blobs != nil {
		e.GET("/files/:key", h.file, d.Gate.Middleware())
	}

	api := e.Group("/api", d.Gate.Middleware())
	api.GET("/me", h.me)
	api.GET("/state", h.state)
	api.GET("/dashboard", h.dashboard)
	api.GET("/reports/cases.csv", h.casesCSV)

	owners := api.Group("/owners")
	owners.GET("", search(d.Store.SearchOwners))
	owners.POST("", create(d.Store.AddOwner))
	owners.GET("/:id", find(d.Store.FindOwner, domain.EntityOwner))
	owners.PUT("/:id", replace(d.Store.UpdateOwner, setOwnerID))

	tenants := api.Group("/tenants")
	tenants.GET("", search(d.Store.SearchTenants))
	tenants.POST("", create(d.Store.AddTenant))
	tenants.GET("/:id", find(d.Store.FindTenant, domain.EntityTenant))
	tenants.PUT("/:id", replace(d.Store.UpdateTenant, setTenantID))

	properties := api.Group("/properties")
	properties.GET("", list(d.Store.Properties))
	properties.POST("", create(d.Store.AddProperty))
	properties.GET("/:id", find(d.Store.FindProperty, domain.EntityProperty))
	properties.PUT("/:id", replace(d.Store.UpdateProperty, setPropertyID))

	cases := api.Group("/cases")
	cases.GET("", h.listCases)
	cases.POST("", create(d.Store.AddCase))
	cases.GET("/:id", find(d.Store.FindCase, domain.EntityCase))
	cases.PUT("/:id", replace(d.Store.UpdateCase, setCaseID))
	cases.PUT("/:id/stage", h.updateStage)
	cases.POST("/:id/advance", h.advanceStage)
	cases.POST("/:id/documents", h.attachDocument)
	cases.POST("/:id/uploads", h.uploadToCase)
	cases.POST("/:id/reminders", h.attachReminder)
	cases.POST("/:id/notes", h.addCaseNote)

	documents := api.Group("/documents")
	documents.GET("", list(d.Store.Documents))
	documents.POST("", create(d.Store.AddDocument))
	documents.GET("/:id", find(d.Store.FindDocument, domain.EntityDocument))
	documents.PUT("/:id", replace(d.Store.UpdateDocument, setDocumentID))
	documents.DELETE("/:id", h.deleteDocument)
	api.POST("/uploads", h.upload)

	notes := api.Group("/notes")
	notes.GET("", list(d.Store.Notes))
	notes.POST("", create(d.Store.AddNote))
	notes.GET("/:id", find(d.Store.FindNote, domain.EntityNote))

	reminders := api.Group("/reminders")
	reminders.GET("", list(d.Store.Reminders))
	reminders.POST("", create(d.Store.AddReminder))
	reminders.GET("/:id", find(d.Store.FindReminder, domain.EntityReminder))
	reminders.PUT("/:id", replace(d.Store.UpdateReminder, setReminderID))
	reminders.POST("/:id/complete", h.completeReminder)

	if d.Notices != nil {
		api.GET("/notifications", h.notifications)
		api.POST("/notifications/:id/dismiss", h.dismissNotification)
		api.DELETE("/notifications/:id", h.removeNotification)
		api.DELETE("/notifications", h.removeNotification)
	}
	return e
}

func (h *Handler) health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h *Handler) login(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"message": "sign in by sending a bearer token or the " + auth.CookieName + " cookie",
	})
}

func (h *Handler) home(c echo.Context) error {
	user, _ := auth.CurrentUser(c)
	return c.JSON(http.StatusOK, echo.Map{"user": user, "dashboard": h.store.Dashboard()})
}

func (h *Handler) me(c echo.Context) error {
	user, _ := auth.CurrentUser(c)
	return c.JSON(http.StatusOK, user)
}
