package note

import (
	"context"
	"errors"
	"testing"

	"github.com/Pallinder/go-randomdata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runRepositoryContract checks behavior every store driver must share.
// newRepo must return an empty repository.
func runRepositoryContract(t *testing.T, newRepo func(t *testing.T) Repository) {
	ctx := context.Background()

	t.Run("insert assigns id and timestamps", func(t *testing.T) {
		repo := newRepo(t)
		n := &Note{PatientID: randomdata.Number(1, 1000), Text: randomdata.Paragraph()}
		require.NoError(t, repo.Insert(ctx, n))

		assert.NotEmpty(t, n.ID)
		assert.False(t, n.CreatedAt.IsZero())
		assert.False(t, n.UpdatedAt.IsZero())

		got, err := repo.GetByID(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, n.PatientID, got.PatientID)
		assert.Equal(t, n.Text, got.Text)
	})

	t.Run("insert never reuses ids", func(t *testing.T) {
		repo := newRepo(t)
		seen := map[string]bool{}
		for i := 0; i < 20; i++ {
			n := &Note{PatientID: 1, Text: randomdata.SillyName()}
			require.NoError(t, repo.Insert(ctx, n))
			require.False(t, seen[n.ID], "duplicate id %s", n.ID)
			seen[n.ID] = true
		}
	})

	t.Run("unknown id", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetByID(ctx, "does-not-exist")
		assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
	})

	t.Run("list keeps insertion order", func(t *testing.T) {
		repo := newRepo(t)
		var ids []string
		for i := 0; i < 5; i++ {
			n := &Note{PatientID: i + 1, Text: randomdata.Paragraph()}
			require.NoError(t, repo.Insert(ctx, n))
			ids = append(ids, n.ID)
		}

		notes, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, notes, 5)
		for i, n := range notes {
			assert.Equal(t, ids[i], n.ID)
		}
	})

	t.Run("list empty", func(t *testing.T) {
		repo := newRepo(t)
		notes, err := repo.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, notes)
	})

	t.Run("list by patient filters", func(t *testing.T) {
		repo := newRepo(t)
		for _, pid := range []int{1, 2, 1, 3, 1} {
			require.NoError(t, repo.Insert(ctx, &Note{PatientID: pid, Text: randomdata.Paragraph()}))
		}

		notes, err := repo.ListByPatient(ctx, 1)
		require.NoError(t, err)
		assert.Len(t, notes, 3)
		for _, n := range notes {
			assert.Equal(t, 1, n.PatientID)
		}

		none, err := repo.ListByPatient(ctx, 99)
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("save overwrites in place", func(t *testing.T) {
		repo := newRepo(t)
		n := &Note{PatientID: 1, Text: "Patient states they are feeling great"}
		require.NoError(t, repo.Insert(ctx, n))
		other := &Note{PatientID: 2, Text: randomdata.Paragraph()}
		require.NoError(t, repo.Insert(ctx, other))
		created := n.CreatedAt

		n.PatientID = 7
		n.Text = "Patient reports muscle aches"
		require.NoError(t, repo.Save(ctx, n))

		got, err := repo.GetByID(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, 7, got.PatientID)
		assert.Equal(t, "Patient reports muscle aches", got.Text)
		assert.True(t, got.CreatedAt.Equal(created), "created_at changed: %v -> %v", created, got.CreatedAt)
		assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, n.ID, all[0].ID, "update must not move the note")

		moved, err := repo.ListByPatient(ctx, 1)
		require.NoError(t, err)
		assert.Empty(t, moved)
	})

	t.Run("returned notes are detached", func(t *testing.T) {
		repo := newRepo(t)
		n := &Note{PatientID: 1, Text: "original"}
		require.NoError(t, repo.Insert(ctx, n))
		n.Text = "mutated after insert"

		got, err := repo.GetByID(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, "original", got.Text)

		got.Text = "mutated after get"
		again, err := repo.GetByID(ctx, n.ID)
		require.NoError(t, err)
		assert.Equal(t, "original", again.Text)
	})
}
