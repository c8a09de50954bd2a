package note

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

type noteRepoMemory struct {
	mu    sync.RWMutex
	data  map[string]*Note
	order []string
	now   func() time.Time
}

// NewNoteRepoMemory returns a process-local store. Notes are copied on the
// way in and out so callers never share state with the store.
func NewNoteRepoMemory() Repository {
	return &noteRepoMemory{
		data: make(map[string]*Note),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (r *noteRepoMemory) Insert(_ context.Context, n *Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	n.ID = uuid.NewString()
	n.CreatedAt = r.now()
	n.UpdatedAt = n.CreatedAt
	r.data[n.ID] = n.clone()
	r.order = append(r.order, n.ID)
	return nil
}

func (r *noteRepoMemory) GetByID(_ context.Context, id string) (*Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.data[id]
	if !ok {
		return nil, ErrNotFound
	}
	return n.clone(), nil
}

func (r *noteRepoMemory) List(_ context.Context) ([]*Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := make([]*Note, 0, len(r.order))
	for _, id := range r.order {
		items = append(items, r.data[id].clone())
	}
	return items, nil
}

func (r *noteRepoMemory) ListByPatient(_ context.Context, patientID int) ([]*Note, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	items := []*Note{}
	for _, id := range r.order {
		if n := r.data[id]; n.PatientID == patientID {
			items = append(items, n.clone())
		}
	}
	return items, nil
}

func (r *noteRepoMemory) Save(_ context.Context, n *Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if existing, ok := r.data[n.ID]; ok {
		n.CreatedAt = existing.CreatedAt
	} else {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		r.order = append(r.order, n.ID)
	}
	n.UpdatedAt = now
	r.data[n.ID] = n.clone()
	return nil
}
