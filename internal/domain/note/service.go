package note

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// DefaultPrefix is the route and view-name prefix the note pages are served under.
const DefaultPrefix = "patient/note"

type Service struct {
	repo   Repository
	prefix string
}

// NewService returns a Service whose view names and redirect targets are
// derived from prefix (e.g. "patient/note" gives "patient/note/add" and
// "/patient/note/list").
func NewService(repo Repository, prefix string) *Service {
	return &Service{repo: repo, prefix: strings.Trim(prefix, "/")}
}

func (s *Service) Prefix() string { return s.prefix }

// ViewName returns the template name for a page action.
func (s *Service) ViewName(action string) string {
	return s.prefix + "/" + action
}

// ListURL is where successful form submissions redirect to.
func (s *Service) ListURL() string {
	return "/" + s.prefix + "/list"
}

func (s *Service) List(ctx context.Context) (Result, error) {
	notes, err := s.repo.List(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("list notes: %w", err)
	}
	return Result{Kind: Listed, Notes: notes}, nil
}

func (s *Service) Get(ctx context.Context, id string) (Result, error) {
	n, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Result{Kind: NotFound}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("get note %s: %w", id, err)
	}
	return Result{Kind: Found, Note: n}, nil
}

// GetByPatient reports NotFoundForPatient for an empty result. A patient
// with no notes and an unknown patient are indistinguishable here.
func (s *Service) GetByPatient(ctx context.Context, patientID int) (Result, error) {
	notes, err := s.ListByPatient(ctx, patientID)
	if err != nil {
		return Result{}, err
	}
	if len(notes) == 0 {
		return Result{Kind: NotFoundForPatient}, nil
	}
	return Result{Kind: Found, Notes: notes}, nil
}

// ListByPatient returns the patient's notes, never nil.
func (s *Service) ListByPatient(ctx context.Context, patientID int) ([]*Note, error) {
	notes, err := s.repo.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, fmt.Errorf("list notes for patient %d: %w", patientID, err)
	}
	if notes == nil {
		notes = []*Note{}
	}
	return notes, nil
}

func (s *Service) Add(ctx context.Context, in Input) (Result, error) {
	if v := Validate(in); len(v) > 0 {
		return Result{Kind: Invalid, Violations: v}, nil
	}
	n := in.toNote()
	if err := s.repo.Insert(ctx, n); err != nil {
		return Result{}, fmt.Errorf("insert note: %w", err)
	}
	return Result{Kind: Created, Note: n}, nil
}

// Update replaces the patient id and text of the note with the given id.
// Field validation runs before the existence check, so invalid input on an
// unknown id reports Invalid.
func (s *Service) Update(ctx context.Context, id string, in Input) (Result, error) {
	if v := Validate(in); len(v) > 0 {
		return Result{Kind: Invalid, Violations: v}, nil
	}

	existing, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return Result{Kind: NotFound}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("get note %s: %w", id, err)
	}

	fields := in.toNote()
	existing.PatientID = fields.PatientID
	existing.Text = fields.Text
	if err := s.repo.Save(ctx, existing); err != nil {
		return Result{}, fmt.Errorf("save note %s: %w", id, err)
	}
	return Result{Kind: Updated, Note: existing}, nil
}
