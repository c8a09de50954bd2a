package note

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/mediscreen/patienthistory/internal/platform/db"
	"github.com/mediscreen/patienthistory/migrations"
)

// Runs against a disposable database named by TEST_DATABASE_URL; the
// patient_note table is truncated before every subtest.
func TestNoteRepoPG(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	pool, err := db.NewPool(ctx, url, 4, 1)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = db.NewMigrator(pool, migrations.FS, ".").Up(ctx)
	require.NoError(t, err)

	runRepositoryContract(t, func(t *testing.T) Repository {
		truncate(t, pool)
		return NewNoteRepoPG(pool)
	})
}

func truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `TRUNCATE patient_note`)
	require.NoError(t, err)
}
