package note

import (
	"context"
	"embed"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/schema"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/mediscreen/patienthistory/internal/platform/auth"
	"github.com/mediscreen/patienthistory/internal/platform/patientindex"
)

// Templates holds the HTML pages, each defined under its view name.
//
//go:embed templates/*.html
var Templates embed.FS

// TemplatePattern selects the page files inside Templates.
const TemplatePattern = "templates/*.html"

// PatientIndexSource supplies the patient picker on the add form.
type PatientIndexSource interface {
	GetPatientIndex(ctx context.Context) (patientindex.Index, bool)
}

type Handler struct {
	svc    *Service
	index  PatientIndexSource
	forms  *schema.Decoder
	logger zerolog.Logger
}

func NewHandler(svc *Service, index PatientIndexSource, logger zerolog.Logger) *Handler {
	forms := schema.NewDecoder()
	forms.IgnoreUnknownKeys(true)
	return &Handler{
		svc:    svc,
		index:  index,
		forms:  forms,
		logger: logger.With().Str("component", "note").Logger(),
	}
}

// RegisterRoutes mounts the HTML pages on pages and the JSON API on api.
// Both groups are expected to be rooted at "/"+Service.Prefix() and to
// authenticate the caller; routes here only check roles.
func (h *Handler) RegisterRoutes(pages *echo.Group, api *echo.Group) {
	ui := pages.Group("", auth.RequireRole("physician", "nurse"))
	ui.GET("/list", h.ListPage)
	ui.GET("/add", h.AddPage)
	ui.POST("/validate", h.ValidatePage)
	ui.GET("/view/:id", h.ViewPage)
	ui.GET("/viewall/:patId", h.ViewAllPage)
	ui.GET("/update/:id", h.UpdatePage)
	ui.POST("/update/:id", h.UpdateSubmitPage)

	read := api.Group("", auth.RequireRole("physician", "nurse", "service"))
	read.GET("/get/:id", h.GetNote)
	read.GET("/getbypatient/:patId", h.GetNotesByPatient)
	read.GET("/retro/getbypatient/:id", h.GetNotesByPatientRetro)

	write := api.Group("", auth.RequireRole("physician", "nurse"))
	write.POST("/add", h.AddNote)
	write.PUT("/update", h.UpdateNote)
}

func parsePatientID(c echo.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil {
		return 0, false
	}
	return id, true
}

// bodyTooLarge reports whether reading the request body hit the body limit.
func bodyTooLarge(err error) bool {
	var he *echo.HTTPError
	return errors.As(err, &he) && he.Code == http.StatusRequestEntityTooLarge
}

func requestID(c echo.Context) string {
	rid, _ := c.Get("request_id").(string)
	return rid
}
