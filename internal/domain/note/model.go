package note

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Note maps to the patient_note table.
type Note struct {
	ID        string    `db:"id" json:"id"`
	PatientID int       `db:"patient_id" json:"patId"`
	Text      string    `db:"note" json:"note"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

func (n *Note) clone() *Note {
	c := *n
	return &c
}

// Input is a candidate note as submitted by a form or an API client.
// PatientID is kept as text so that malformed values can be reported
// back instead of being lost in conversion.
type Input struct {
	ID        string
	PatientID string
	Text      string
}

// toNote converts a validated input. Callers must run Validate first.
func (in Input) toNote() *Note {
	pid, _ := strconv.Atoi(in.PatientID)
	return &Note{PatientID: pid, Text: in.Text}
}

// InputFromNote is used to prefill the update form.
func InputFromNote(n *Note) Input {
	return Input{ID: n.ID, PatientID: strconv.Itoa(n.PatientID), Text: n.Text}
}

// noteRequest is the JSON body accepted by the API add and update routes.
type noteRequest struct {
	ID            string        `json:"id"`
	PatientNoteID string        `json:"patientNoteId"`
	PatID         PatientIDText `json:"patId"`
	Note          string        `json:"note"`
}

func (r noteRequest) input() Input {
	id := r.ID
	if id == "" {
		id = r.PatientNoteID
	}
	return Input{ID: id, PatientID: string(r.PatID), Text: r.Note}
}

// PatientIDText accepts a patient id encoded either as a JSON string or a
// JSON number and keeps its textual form for validation.
type PatientIDText string

func (p *PatientIDText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = PatientIDText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("patId must be a string or a number: %w", err)
	}
	*p = PatientIDText(n.String())
	return nil
}
