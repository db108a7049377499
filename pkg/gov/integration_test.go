//go:build integration

package gov

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/govdesk/govdesk/pkg/audit"
	"github.com/govdesk/govdesk/pkg/store"
	"github.com/govdesk/govdesk/pkg/storage"
)

// setupPostgres starts a disposable PostgreSQL container and bootstraps the
// governance schema. Run with `go test -tags integration ./pkg/gov/`.
func setupPostgres(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("govdesk_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
		postgres.BasicWaitStrategies(),
	)
	require.NoError(t, err, "failed to start PostgreSQL container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sql.Open("postgres", connStr)
	require.NoError(t, err)
	require.NoError(t, db.Ping())

	require.NoError(t, storage.EnsureSchema(ctx, db))

	cleanup := func() {
		db.Close()
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := container.Terminate(cleanupCtx); err != nil {
			t.Logf("warning: failed to terminate container: %v", err)
		}
	}

	return db, cleanup
}

func TestServices_Lifecycle(t *testing.T) {
	db, cleanup := setupPostgres(t)
	defer cleanup()

	ctx := context.Background()

	trail, err := audit.NewDBLogger(db)
	require.NoError(t, err)
	defer trail.Close()

	services, err := NewServices(db, audit.NewSink(trail, nil, nil))
	require.NoError(t, err)

	const userID = int64(7)

	t.Run("objective create update delete restore", func(t *testing.T) {
		created, err := services.Objectives.Create(ctx, ObjectiveInput{
			Title:         "Modernize legacy systems",
			DirectorateID: 3,
			Year:          2026,
		}, userID)
		require.NoError(t, err)
		id := created.ID()
		require.NotZero(t, id)
		assert.Equal(t, "active", created.String("status"))

		updated, err := services.Objectives.Update(ctx, id, store.Record{"status": StatusCompleted}, userID)
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, updated.String("status"))

		ok, err := services.Objectives.Delete(ctx, id, userID)
		require.NoError(t, err)
		require.True(t, ok)

		gone, err := services.Objectives.Get(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, gone)

		all, err := services.Objectives.ListIncludingDeleted(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		assert.True(t, all[0].IsDeleted())
		assert.Equal(t, userID, all[0].Int("deleted_by"))

		restored, err := services.Objectives.Restore(ctx, id, userID)
		require.NoError(t, err)
		require.NotNil(t, restored)
		assert.False(t, restored.IsDeleted())

		entries, err := trail.Search(ctx, audit.SearchFilter{
			TableName: TableObjectives,
			RecordID:  id,
		})
		require.NoError(t, err)
		require.Len(t, entries, 4)
		// Newest first.
		assert.Equal(t, audit.ActionRestore, entries[0].Action)
		assert.Equal(t, audit.ActionSoftDelete, entries[1].Action)
		assert.Equal(t, audit.ActionUpdate, entries[2].Action)
		assert.Equal(t, []string{"status"}, entries[2].ChangedFields)
		assert.Equal(t, audit.ActionInsert, entries[3].Action)
	})

	t.Run("objective delete cascades to key results", func(t *testing.T) {
		obj, err := services.Objectives.Create(ctx, ObjectiveInput{
			Title:         "Expand digital services",
			DirectorateID: 3,
			Year:          2026,
		}, userID)
		require.NoError(t, err)

		kr, err := services.Objectives.AddKeyResult(ctx, obj.ID(), KeyResultInput{
			Title: "Launch ten new services",
		}, userID)
		require.NoError(t, err)
		require.NotNil(t, kr)

		ok, err := services.Objectives.Delete(ctx, obj.ID(), userID)
		require.NoError(t, err)
		require.True(t, ok)

		krs, err := services.Objectives.KeyResults(ctx, obj.ID())
		require.NoError(t, err)
		assert.Empty(t, krs)

		entries, err := trail.Search(ctx, audit.SearchFilter{
			TableName: TableKeyResults,
			RecordID:  kr.ID(),
			Actions:   []audit.Action{audit.ActionSoftDelete},
		})
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})

	t.Run("concurrent updates on the same record last write wins", func(t *testing.T) {
		obj, err := services.Objectives.Create(ctx, ObjectiveInput{
			Title:         "Consolidate data centers",
			DirectorateID: 3,
			Year:          2026,
		}, userID)
		require.NoError(t, err)
		id := obj.ID()

		statuses := []string{StatusCompleted, StatusCancelled}
		errs := make([]error, len(statuses))
		var wg sync.WaitGroup
		for i, status := range statuses {
			wg.Add(1)
			go func(i int, status string) {
				defer wg.Done()
				_, errs[i] = services.Objectives.Update(ctx, id, store.Record{"status": status}, userID)
			}(i, status)
		}
		wg.Wait()

		// Neither writer sees a conflict; whichever committed last wins.
		require.NoError(t, errs[0])
		require.NoError(t, errs[1])

		final, err := services.Objectives.Get(ctx, id)
		require.NoError(t, err)
		require.NotNil(t, final)
		assert.Contains(t, statuses, final.String("status"))

		entries, err := trail.Search(ctx, audit.SearchFilter{
			TableName: TableObjectives,
			RecordID:  id,
			Actions:   []audit.Action{audit.ActionUpdate},
		})
		require.NoError(t, err)
		assert.Len(t, entries, 2)
	})

	t.Run("duplicate pca item reports the constraint", func(t *testing.T) {
		input := PCAItemInput{
			ItemPCA:       "PCA-2026-001",
			Description:   "Network equipment",
			Year:          2026,
			Quarter:       "Q1",
			DirectorateID: 3,
		}
		_, err := services.Procurement.Create(ctx, input, userID)
		require.NoError(t, err)

		_, err = services.Procurement.Create(ctx, input, userID)
		var constraintErr *store.ConstraintError
		require.ErrorAs(t, err, &constraintErr)
		assert.True(t, store.IsUniqueViolation(err))
	})

	t.Run("ata update uses its own action", func(t *testing.T) {
		committee, err := services.Committees.Create(ctx, CommitteeInput{
			Name:          "IT Governance Committee",
			Kind:          CommitteeGovernance,
			DirectorateID: 3,
		}, userID)
		require.NoError(t, err)

		updated, err := services.Committees.UpdateAta(ctx, committee.ID(), "Meeting minutes for August.", userID)
		require.NoError(t, err)
		assert.Equal(t, "Meeting minutes for August.", updated.String("ata"))

		entries, err := trail.Search(ctx, audit.SearchFilter{
			TableName: TableCommittees,
			RecordID:  committee.ID(),
			Actions:   []audit.Action{audit.ActionUpdateAta},
		})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, []string{"ata"}, entries[0].ChangedFields)
	})
}
