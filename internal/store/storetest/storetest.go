// Package storetest provides migrated throwaway databases for tests.
package storetest

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/husainf4l/gixat2-sub001/internal/store"
	"github.com/husainf4l/gixat2-sub001/internal/store/migrate"
	"github.com/husainf4l/gixat2-sub001/internal/store/sqlite"
	"github.com/husainf4l/gixat2-sub001/internal/tenant"
	"github.com/stretchr/testify/require"
)

// OpenSQLite opens a migrated SQLite database in a temporary directory.
// The database is closed when the test ends.
func OpenSQLite(t testing.TB) *store.DB {
	t.Helper()

	ctx := context.Background()
	db, err := sqlite.Open(ctx, filepath.Join(t.TempDir(), "gixat.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, migrate.Migrate(ctx, db, nil))
	return db
}

// CreateOrganization inserts an active organization named name.
func CreateOrganization(t testing.TB, db store.Handler, name string) uuid.UUID {
	t.Helper()

	id, err := uuid.NewV7()
	require.NoError(t, err)
	org := &tenant.Organization{ID: id, Name: name, IsActive: true, CreatedAt: time.Now().UTC()}
	require.NoError(t, store.NewOrganizationRepository(db).Create(context.Background(), org))
	return id
}

// CountingFactory counts the handles handed out by the wrapped factory.
type CountingFactory struct {
	store.HandleFactory
	n atomic.Int64
}

// Count wraps f.
func Count(f store.HandleFactory) *CountingFactory {
	return &CountingFactory{HandleFactory: f}
}

// NewHandle implements store.HandleFactory.
func (c *CountingFactory) NewHandle(ctx context.Context) (*store.Conn, error) {
	c.n.Add(1)
	return c.HandleFactory.NewHandle(ctx)
}

// Handles returns the number of handles acquired so far.
func (c *CountingFactory) Handles() int64 {
	return c.n.Load()
}
