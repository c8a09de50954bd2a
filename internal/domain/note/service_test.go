package note_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"

	"github.com/mediscreen/patienthistory/internal/domain/note"
	"github.com/mediscreen/patienthistory/internal/domain/note/notemock"
)

func newService(t *testing.T) (*note.Service, *notemock.MockRepository) {
	ctrl := gomock.NewController(t)
	repo := notemock.NewMockRepository(ctrl)
	return note.NewService(repo, note.DefaultPrefix), repo
}

func TestService_Prefix(t *testing.T) {
	svc := note.NewService(nil, "/patient/note/")
	if svc.Prefix() != "patient/note" {
		t.Errorf("expected trimmed prefix, got %q", svc.Prefix())
	}
	if svc.ViewName("add") != "patient/note/add" {
		t.Errorf("unexpected view name %q", svc.ViewName("add"))
	}
	if svc.ListURL() != "/patient/note/list" {
		t.Errorf("unexpected list url %q", svc.ListURL())
	}
}

func TestService_List(t *testing.T) {
	svc, repo := newService(t)
	notes := []*note.Note{{ID: "a", PatientID: 1, Text: "x"}, {ID: "b", PatientID: 2, Text: "y"}}
	repo.EXPECT().List(gomock.Any()).Return(notes, nil)

	res, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != note.Listed || len(res.Notes) != 2 {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestService_Get(t *testing.T) {
	svc, repo := newService(t)
	repo.EXPECT().GetByID(gomock.Any(), "a").Return(&note.Note{ID: "a", PatientID: 1, Text: "x"}, nil)
	repo.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, note.ErrNotFound)

	res, err := svc.Get(context.Background(), "a")
	if err != nil || res.Kind != note.Found || res.Note.ID != "a" {
		t.Errorf("expected Found a, got %+v (%v)", res, err)
	}

	res, err = svc.Get(context.Background(), "missing")
	if err != nil || res.Kind != note.NotFound {
		t.Errorf("expected NotFound, got %+v (%v)", res, err)
	}
}

func TestService_Get_StoreErrorIsWrapped(t *testing.T) {
	svc, repo := newService(t)
	boom := errors.New("connection reset")
	repo.EXPECT().GetByID(gomock.Any(), "a").Return(nil, boom)

	_, err := svc.Get(context.Background(), "a")
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestService_GetByPatient(t *testing.T) {
	svc, repo := newService(t)
	repo.EXPECT().ListByPatient(gomock.Any(), 1).Return([]*note.Note{{ID: "a", PatientID: 1}}, nil)
	repo.EXPECT().ListByPatient(gomock.Any(), 2).Return(nil, nil)

	res, _ := svc.GetByPatient(context.Background(), 1)
	if res.Kind != note.Found || len(res.Notes) != 1 {
		t.Errorf("expected Found with one note, got %+v", res)
	}

	res, _ = svc.GetByPatient(context.Background(), 2)
	if res.Kind != note.NotFoundForPatient {
		t.Errorf("expected NotFoundForPatient, got %v", res.Kind)
	}
}

func TestService_ListByPatient_NeverNil(t *testing.T) {
	svc, repo := newService(t)
	repo.EXPECT().ListByPatient(gomock.Any(), 5).Return(nil, nil)

	notes, err := svc.ListByPatient(context.Background(), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notes == nil || len(notes) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", notes)
	}
}

func TestService_Add_InsertsOnce(t *testing.T) {
	svc, repo := newService(t)
	repo.EXPECT().Insert(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, n *note.Note) error {
		if n.PatientID != 3 || n.Text != "Patient reports dizziness" {
			t.Errorf("unexpected note handed to store: %+v", n)
		}
		n.ID = "new-id"
		n.CreatedAt = time.Now()
		return nil
	}).Times(1)

	res, err := svc.Add(context.Background(), note.Input{PatientID: "3", Text: "Patient reports dizziness"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != note.Created || res.Note.ID != "new-id" {
		t.Errorf("expected Created new-id, got %+v", res)
	}
}

func TestService_Add_InvalidNeverTouchesStore(t *testing.T) {
	svc, _ := newService(t)

	res, err := svc.Add(context.Background(), note.Input{PatientID: "abc", Text: ""})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != note.Invalid {
		t.Fatalf("expected Invalid, got %v", res.Kind)
	}
	if !res.Violations.Has(note.FieldPatientID) || !res.Violations.Has(note.FieldText) {
		t.Errorf("expected violations on both fields, got %v", res.Violations)
	}
}

func TestService_Add_StoreError(t *testing.T) {
	svc, repo := newService(t)
	boom := errors.New("disk full")
	repo.EXPECT().Insert(gomock.Any(), gomock.Any()).Return(boom)

	if _, err := svc.Add(context.Background(), note.Input{PatientID: "1", Text: "x"}); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestService_Update_SavesOnceWithSameID(t *testing.T) {
	svc, repo := newService(t)
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	existing := &note.Note{ID: "n-1", PatientID: 1, Text: "old", CreatedAt: created}

	gomock.InOrder(
		repo.EXPECT().GetByID(gomock.Any(), "n-1").Return(existing, nil),
		repo.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, n *note.Note) error {
			if n.ID != "n-1" || n.PatientID != 2 || n.Text != "new" {
				t.Errorf("unexpected note saved: %+v", n)
			}
			if !n.CreatedAt.Equal(created) {
				t.Errorf("expected CreatedAt to be kept, got %v", n.CreatedAt)
			}
			return nil
		}).Times(1),
	)

	res, err := svc.Update(context.Background(), "n-1", note.Input{ID: "n-1", PatientID: "2", Text: "new"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != note.Updated || res.Note.ID != "n-1" {
		t.Errorf("expected Updated n-1, got %+v", res)
	}
}

func TestService_Update_NotFoundDoesNotSave(t *testing.T) {
	svc, repo := newService(t)
	repo.EXPECT().GetByID(gomock.Any(), "ghost").Return(nil, note.ErrNotFound)

	res, err := svc.Update(context.Background(), "ghost", note.Input{PatientID: "1", Text: "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Kind != note.NotFound {
		t.Errorf("expected NotFound, got %v", res.Kind)
	}
}

func TestService_Update_InvalidBeforeLookup(t *testing.T) {
	svc, _ := newService(t)

	// No GetByID expectation: validation must short-circuit for any id.
	for _, id := range []string{"n-1", "ghost"} {
		res, err := svc.Update(context.Background(), id, note.Input{PatientID: "", Text: "x"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Kind != note.Invalid {
			t.Errorf("%s: expected Invalid, got %v", id, res.Kind)
		}
	}
}

func TestService_Update_Idempotent(t *testing.T) {
	svc, repo := newService(t)
	stored := &note.Note{ID: "n-1", PatientID: 1, Text: "old"}
	repo.EXPECT().GetByID(gomock.Any(), "n-1").DoAndReturn(func(context.Context, string) (*note.Note, error) {
		c := *stored
		return &c, nil
	}).Times(2)
	repo.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, n *note.Note) error {
		*stored = *n
		return nil
	}).Times(2)

	in := note.Input{ID: "n-1", PatientID: "4", Text: "same"}
	first, _ := svc.Update(context.Background(), "n-1", in)
	second, _ := svc.Update(context.Background(), "n-1", in)

	if first.Note.PatientID != second.Note.PatientID || first.Note.Text != second.Note.Text {
		t.Errorf("expected identical results, got %+v and %+v", first.Note, second.Note)
	}
	if stored.PatientID != 4 || stored.Text != "same" {
		t.Errorf("unexpected stored note %+v", stored)
	}
}
