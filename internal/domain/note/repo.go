package note

//go:generate mockgen -destination=notemock/repo.go -package=notemock github.com/mediscreen/patienthistory/internal/domain/note Repository

import (
	"context"
	"errors"
)

// ErrNotFound is returned by GetByID when no note has the requested id.
var ErrNotFound = errors.New("note not found")

// Repository is the note store. Implementations assign ids on Insert and
// return notes in insertion order.
type Repository interface {
	Insert(ctx context.Context, n *Note) error
	GetByID(ctx context.Context, id string) (*Note, error)
	List(ctx context.Context) ([]*Note, error)
	ListByPatient(ctx context.Context, patientID int) ([]*Note, error)
	Save(ctx context.Context, n *Note) error
}
