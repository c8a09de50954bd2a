package note

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// failureResponse is the 400 body of the add and update API routes.
type failureResponse struct {
	Message    string     `json:"message"`
	Violations Violations `json:"violations,omitempty"`
}

func (h *Handler) AddNote(c echo.Context) error {
	var req noteRequest
	if err := c.Bind(&req); err != nil {
		if bodyTooLarge(err) {
			return err
		}
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to add new entry")
	}
	res, err := h.svc.Add(c.Request().Context(), req.input())
	if err != nil {
		return err
	}
	if res.Kind == Invalid {
		return c.JSON(http.StatusBadRequest, failureResponse{Message: "Failed to add new entry", Violations: res.Violations})
	}
	h.logger.Info().Str("request_id", requestID(c)).Str("note_id", res.Note.ID).Int("patient_id", res.Note.PatientID).Msg("note created")
	return c.JSON(http.StatusCreated, res.Note)
}

func (h *Handler) GetNote(c echo.Context) error {
	id := c.Param("id")
	res, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if res.Kind == NotFound {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Id %s not found", id))
	}
	return c.JSON(http.StatusOK, res.Note)
}

func (h *Handler) GetNotesByPatient(c echo.Context) error {
	patID, ok := parsePatientID(c, "patId")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	res, err := h.svc.GetByPatient(c.Request().Context(), patID)
	if err != nil {
		return err
	}
	if res.Kind == NotFoundForPatient {
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Patient %d has no notes", patID))
	}
	return c.JSON(http.StatusOK, res.Notes)
}

func (h *Handler) UpdateNote(c echo.Context) error {
	var req noteRequest
	if err := c.Bind(&req); err != nil {
		if bodyTooLarge(err) {
			return err
		}
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to update entry")
	}
	in := req.input()
	res, err := h.svc.Update(c.Request().Context(), in.ID, in)
	if err != nil {
		return err
	}
	switch res.Kind {
	case Invalid:
		return c.JSON(http.StatusBadRequest, failureResponse{Message: "Failed to update entry", Violations: res.Violations})
	case NotFound:
		return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("Id %s not found", in.ID))
	}
	h.logger.Info().Str("request_id", requestID(c)).Str("note_id", res.Note.ID).Msg("note updated")
	return c.JSON(http.StatusOK, res.Note)
}

// retroNote is the shape sibling services decode: the note id travels as
// patientNoteId.
type retroNote struct {
	PatientNoteID string `json:"patientNoteId"`
	PatientID     int    `json:"patId"`
	Text          string `json:"note"`
}

// GetNotesByPatientRetro serves other services: always 200 with a JSON
// array, empty when the patient has no notes.
func (h *Handler) GetNotesByPatientRetro(c echo.Context) error {
	patID, ok := parsePatientID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid patient id")
	}
	notes, err := h.svc.ListByPatient(c.Request().Context(), patID)
	if err != nil {
		return err
	}
	out := make([]retroNote, 0, len(notes))
	for _, n := range notes {
		out = append(out, retroNote{PatientNoteID: n.ID, PatientID: n.PatientID, Text: n.Text})
	}
	return c.JSON(http.StatusOK, out)
}
