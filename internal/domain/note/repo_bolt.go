package note

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
)

var notesBucket = []byte("patient_notes")

// boltRecord is the stored value. Seq comes from the bucket sequence and
// fixes insertion order, which bolt's key order (by id) does not give.
type boltRecord struct {
	Seq  uint64 `json:"seq"`
	Note *Note  `json:"note"`
}

type noteRepoBolt struct {
	db  *bolt.DB
	now func() time.Time
}

// OpenNoteRepoBolt opens (or creates) a single-file store at path. The
// returned closer releases the file lock.
func OpenNoteRepoBolt(path string) (Repository, func() error, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, nil, fmt.Errorf("open bolt store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(notesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create bucket: %w", err)
	}
	r := &noteRepoBolt{db: db, now: func() time.Time { return time.Now().UTC() }}
	return r, db.Close, nil
}

func (r *noteRepoBolt) Insert(_ context.Context, n *Note) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(notesBucket)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		n.ID = uuid.NewString()
		n.CreatedAt = r.now()
		n.UpdatedAt = n.CreatedAt
		return r.put(b, boltRecord{Seq: seq, Note: n})
	})
}

func (r *noteRepoBolt) GetByID(_ context.Context, id string) (*Note, error) {
	var found *Note
	err := r.db.View(func(tx *bolt.Tx) error {
		rec, ok, err := r.get(tx.Bucket(notesBucket), id)
		if err != nil || !ok {
			return err
		}
		found = rec.Note
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (r *noteRepoBolt) List(_ context.Context) ([]*Note, error) {
	return r.scan(func(*Note) bool { return true })
}

func (r *noteRepoBolt) ListByPatient(_ context.Context, patientID int) ([]*Note, error) {
	return r.scan(func(n *Note) bool { return n.PatientID == patientID })
}

func (r *noteRepoBolt) Save(_ context.Context, n *Note) error {
	return r.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(notesBucket)
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		rec, ok, err := r.get(b, n.ID)
		if err != nil {
			return err
		}
		now := r.now()
		if ok {
			n.CreatedAt = rec.Note.CreatedAt
		} else {
			if rec.Seq, err = b.NextSequence(); err != nil {
				return err
			}
			if n.CreatedAt.IsZero() {
				n.CreatedAt = now
			}
		}
		n.UpdatedAt = now
		return r.put(b, boltRecord{Seq: rec.Seq, Note: n})
	})
}

func (r *noteRepoBolt) get(b *bolt.Bucket, id string) (boltRecord, bool, error) {
	var rec boltRecord
	raw := b.Get([]byte(id))
	if raw == nil {
		return rec, false, nil
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, false, fmt.Errorf("decode note %s: %w", id, err)
	}
	return rec, true, nil
}

func (r *noteRepoBolt) put(b *bolt.Bucket, rec boltRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode note %s: %w", rec.Note.ID, err)
	}
	return b.Put([]byte(rec.Note.ID), raw)
}

func (r *noteRepoBolt) scan(match func(*Note) bool) ([]*Note, error) {
	var recs []boltRecord
	err := r.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(notesBucket).ForEach(func(k, v []byte) error {
			var rec boltRecord
			if err := json.Unmarshal(v, &rec); err != nil {
				return fmt.Errorf("decode note %s: %w", k, err)
			}
			if match(rec.Note) {
				recs = append(recs, rec)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })
	items := make([]*Note, len(recs))
	for i, rec := range recs {
		items[i] = rec.Note
	}
	return items, nil
}
