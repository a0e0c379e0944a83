package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func tableExists(ctx context.Context, t *testing.T, db *bun.DB, name string) bool {
	t.Helper()
	count, err := db.NewSelect().
		Table("sqlite_master").
		Where("type = 'table' AND name = ?", name).
		Count(ctx)
	require.NoError(t, err)
	return count == 1
}

func TestBringUpToDateAndRollback(t *testing.T) {
	ctx := context.Background()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	db := bun.NewDB(sqldb, sqlitedialect.New())
	t.Cleanup(func() {
		db.Close()
	})

	group, err := BringUpToDate(ctx, db)
	require.NoError(t, err)
	assert.NotZero(t, group.ID)
	for _, table := range []string{"authors", "genres", "books", "book_genres", "book_instances"} {
		assert.True(t, tableExists(ctx, t, db, table), table)
	}

	group, err = BringUpToDate(ctx, db)
	require.NoError(t, err)
	assert.Zero(t, group.ID)

	_, err = db.Exec(`INSERT INTO genres (name, name_key) VALUES ('Fantasy', 'k'), ('FANTASY', 'k')`)
	assert.Error(t, err)

	_, err = RollbackLast(ctx, db)
	require.NoError(t, err)
	assert.False(t, tableExists(ctx, t, db, "genres"))
}
