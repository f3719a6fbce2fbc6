package ritmo

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	workerpkg "github.com/petrijr/ritmo/pkg/worker"
	"github.com/stretchr/testify/require"
)

// TestSQLiteBundle_DurableAcrossRestart demonstrates that a trigger enqueued
// via the worker/queue combination remains durable across a simulated process
// restart, assuming actions are re-registered on startup.
func TestSQLiteBundle_DurableAcrossRestart(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbPath := filepath.Join(t.TempDir(), "ritmo_bundle.db")
	dsn := "file:" + dbPath + "?_journal=WAL"

	// --- Phase 1: propose and approve a pattern, enqueue a trigger,
	// no processing yet.

	db1, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)

	bundle1, err := NewSQLiteBundle(db1, workerpkg.Config{
		MaxAttempts: 3,
	})
	require.NoError(t, err)

	require.NoError(t, bundle1.Engine.RegisterAction("notify", func(ctx context.Context, a Action) error {
		return nil
	}))

	p, err := New("invoice email received").Notify(nil).Create(ctx, bundle1.Engine)
	require.NoError(t, err)
	require.NoError(t, bundle1.Engine.ApprovePattern(ctx, p.ID))

	require.NoError(t, bundle1.Worker.EnqueueTrigger(ctx, p.ID, "evt-1", false))
	require.NoError(t, db1.Close())

	// --- Phase 2: "restart": reopen the same database, re-register the
	// action, and process the surviving task.

	db2, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer db2.Close()

	bundle2, err := NewSQLiteBundle(db2, workerpkg.Config{
		MaxAttempts: 3,
	})
	require.NoError(t, err)

	var notified atomic.Int64
	require.NoError(t, bundle2.Engine.RegisterAction("notify", func(ctx context.Context, a Action) error {
		notified.Add(1)
		return nil
	}))

	// The pattern survived the restart in its approved state.
	got, err := bundle2.Engine.GetPattern(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, StatusActive, got.Status)

	processed, err := bundle2.Worker.ProcessOne(ctx)
	require.NoError(t, err)
	require.True(t, processed)
	require.EqualValues(t, 1, notified.Load())
}

func TestSQLiteBundleSharesDatabase(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	db, err := sql.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "ritmo.db"))
	require.NoError(t, err)
	defer db.Close()

	bundle, err := NewSQLiteBundle(db, workerpkg.Config{})
	require.NoError(t, err)

	// Engine and queue tables coexist in the one database.
	p, err := New("t").Notify(nil).Create(ctx, bundle.Engine)
	require.NoError(t, err)
	require.NoError(t, bundle.Worker.EnqueueTrigger(ctx, p.ID, "evt-1", false))

	// The unapproved pattern is rejected, and the rejection is definitive:
	// the task is consumed without retries.
	processed, err := bundle.Worker.ProcessOne(ctx)
	require.NoError(t, err)
	require.True(t, processed)

	waitCtx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
	defer cancel()
	_, err = bundle.Worker.ProcessOne(waitCtx)
	require.Error(t, err)
}
