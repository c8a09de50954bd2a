package note

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mediscreen/patienthistory/internal/platform/patientindex"
)

// pageData is the model handed to every note page.
type pageData struct {
	Title      string
	Prefix     string
	Notes      []*Note
	Note       *Note
	PatientID  int
	Form       Input
	Violations Violations
	Patients   patientindex.Index
	Message    string
}

// noteForm mirrors the fields posted by the add and update pages.
type noteForm struct {
	PatientNoteID string `schema:"patientNoteId"`
	PatID         string `schema:"patId"`
	Note          string `schema:"note"`
}

func (h *Handler) page(title string) pageData {
	return pageData{Title: title, Prefix: h.svc.Prefix()}
}

func (h *Handler) render(c echo.Context, status int, action string, data pageData) error {
	return c.Render(status, h.svc.ViewName(action), data)
}

func (h *Handler) renderError(c echo.Context, status int, msg string) error {
	data := h.page(http.StatusText(status))
	data.Message = msg
	return h.render(c, status, "error", data)
}

func (h *Handler) decodeForm(c echo.Context) (Input, error) {
	params, err := c.FormParams()
	if err != nil {
		return Input{}, err
	}
	var f noteForm
	if err := h.forms.Decode(&f, params); err != nil {
		return Input{}, err
	}
	return Input{ID: f.PatientNoteID, PatientID: f.PatID, Text: f.Note}, nil
}

// patients returns nil when the index is unavailable; the form then falls
// back to a free-text patient id.
func (h *Handler) patients(c echo.Context) patientindex.Index {
	if h.index == nil {
		return nil
	}
	idx, ok := h.index.GetPatientIndex(c.Request().Context())
	if !ok {
		return nil
	}
	return idx
}

func (h *Handler) ListPage(c echo.Context) error {
	res, err := h.svc.List(c.Request().Context())
	if err != nil {
		return err
	}
	data := h.page("Patient notes")
	data.Notes = res.Notes
	return h.render(c, http.StatusOK, "list", data)
}

func (h *Handler) AddPage(c echo.Context) error {
	data := h.page("Add note")
	data.Patients = h.patients(c)
	return h.render(c, http.StatusOK, "add", data)
}

func (h *Handler) ValidatePage(c echo.Context) error {
	in, err := h.decodeForm(c)
	if err != nil {
		if bodyTooLarge(err) {
			return err
		}
		return h.renderError(c, http.StatusBadRequest, "malformed form submission")
	}
	res, err := h.svc.Add(c.Request().Context(), in)
	if err != nil {
		return err
	}
	if res.Kind == Invalid {
		data := h.page("Add note")
		data.Form = in
		data.Violations = res.Violations
		data.Patients = h.patients(c)
		return h.render(c, http.StatusOK, "add", data)
	}
	h.logger.Info().Str("request_id", requestID(c)).Str("note_id", res.Note.ID).Msg("note created")
	return c.Redirect(http.StatusFound, h.svc.ListURL())
}

func (h *Handler) ViewPage(c echo.Context) error {
	id := c.Param("id")
	res, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if res.Kind == NotFound {
		return h.renderError(c, http.StatusNotFound, fmt.Sprintf("Id %s not found", id))
	}
	data := h.page("Note")
	data.Note = res.Note
	return h.render(c, http.StatusOK, "view", data)
}

// ViewAllPage lists a patient's notes; an empty list still renders with 200.
func (h *Handler) ViewAllPage(c echo.Context) error {
	patID, ok := parsePatientID(c, "patId")
	if !ok {
		return h.renderError(c, http.StatusBadRequest, "invalid patient id")
	}
	notes, err := h.svc.ListByPatient(c.Request().Context(), patID)
	if err != nil {
		return err
	}
	data := h.page(fmt.Sprintf("Patient %d", patID))
	data.PatientID = patID
	data.Notes = notes
	return h.render(c, http.StatusOK, "viewall", data)
}

func (h *Handler) UpdatePage(c echo.Context) error {
	id := c.Param("id")
	res, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if res.Kind == NotFound {
		return h.renderError(c, http.StatusNotFound, fmt.Sprintf("Id %s not found", id))
	}
	data := h.page("Update note")
	data.Form = InputFromNote(res.Note)
	return h.render(c, http.StatusOK, "update", data)
}

func (h *Handler) UpdateSubmitPage(c echo.Context) error {
	id := c.Param("id")
	in, err := h.decodeForm(c)
	if err != nil {
		if bodyTooLarge(err) {
			return err
		}
		return h.renderError(c, http.StatusBadRequest, "malformed form submission")
	}
	in.ID = id
	res, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	switch res.Kind {
	case Invalid:
		data := h.page("Update note")
		data.Form = in
		data.Violations = res.Violations
		return h.render(c, http.StatusOK, "update", data)
	case NotFound:
		return h.renderError(c, http.StatusNotFound, fmt.Sprintf("Id %s not found", id))
	}
	h.logger.Info().Str("request_id", requestID(c)).Str("note_id", id).Msg("note updated")
	return c.Redirect(http.StatusFound, h.svc.ListURL())
}
