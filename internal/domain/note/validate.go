package note

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ViolationKind classifies a field-level validation failure.
type ViolationKind string

const (
	MissingField  ViolationKind = "MissingField"
	InvalidFormat ViolationKind = "InvalidFormat"
)

const (
	FieldPatientID = "patId"
	FieldText      = "note"
)

var patientIDPattern = regexp.MustCompile(`^\d+$`)

// Violation describes one rejected field.
type Violation struct {
	Field   string        `json:"field"`
	Kind    ViolationKind `json:"kind"`
	Message string        `json:"message"`
}

// Violations is the result of Validate. An empty set means the input is valid.
type Violations []Violation

func (v Violations) Has(field string) bool {
	for _, x := range v {
		if x.Field == field {
			return true
		}
	}
	return false
}

// For returns the message of the first violation on field, or "".
func (v Violations) For(field string) string {
	for _, x := range v {
		if x.Field == field {
			return x.Message
		}
	}
	return ""
}

func (v Violations) Error() string {
	msgs := make([]string, len(v))
	for i, x := range v {
		msgs[i] = x.Field + ": " + x.Message
	}
	return strings.Join(msgs, "; ")
}

// Validate checks the candidate fields. It never consults the store.
func Validate(in Input) Violations {
	var v Violations

	switch pid := in.PatientID; {
	case strings.TrimSpace(pid) == "":
		v = append(v, Violation{Field: FieldPatientID, Kind: MissingField, Message: "patient id is required"})
	case !patientIDPattern.MatchString(pid):
		v = append(v, Violation{Field: FieldPatientID, Kind: InvalidFormat, Message: "patient id must contain digits only"})
	default:
		if n, err := strconv.ParseInt(pid, 10, 64); err != nil || n > math.MaxInt32 {
			v = append(v, Violation{Field: FieldPatientID, Kind: InvalidFormat, Message: "patient id is out of range"})
		}
	}

	if strings.TrimSpace(in.Text) == "" {
		v = append(v, Violation{Field: FieldText, Kind: MissingField, Message: "note must not be empty"})
	}

	return v
}
