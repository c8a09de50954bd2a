package note

// Kind tags the result of a Service operation.
type Kind int

const (
	Listed Kind = iota + 1
	Found
	NotFound
	NotFoundForPatient
	Created
	Invalid
	Updated
)

func (k Kind) String() string {
	switch k {
	case Listed:
		return "Listed"
	case Found:
		return "Found"
	case NotFound:
		return "NotFound"
	case NotFoundForPatient:
		return "NotFoundForPatient"
	case Created:
		return "Created"
	case Invalid:
		return "Invalid"
	case Updated:
		return "Updated"
	default:
		return "Unknown"
	}
}

// Result carries the outcome of a Service call. Which payload field is set
// depends on Kind: Note for Found (by id), Created and Updated; Notes for
// Listed and Found (by patient); Violations for Invalid.
type Result struct {
	Kind       Kind
	Note       *Note
	Notes      []*Note
	Violations Violations
}
