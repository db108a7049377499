package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock
}

var entryColumns = []string{
	"id", "table_name", "record_id", "action", "user_id",
	"changed_fields", "old_values", "new_values", "created_at",
}

func TestNewDBLogger(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS audit_log").WillReturnResult(sqlmock.NewResult(0, 0))

		logger, err := NewDBLogger(db)
		require.NoError(t, err)
		assert.NotNil(t, logger)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil database", func(t *testing.T) {
		logger, err := NewDBLogger(nil)
		assert.Error(t, err)
		assert.Nil(t, logger)
		assert.Contains(t, err.Error(), "database connection is required")
	})

	t.Run("table creation error", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		mock.ExpectExec("CREATE TABLE IF NOT EXISTS audit_log").WillReturnError(errors.New("table creation failed"))

		logger, err := NewDBLogger(db)
		assert.Error(t, err)
		assert.Nil(t, logger)
		assert.Contains(t, err.Error(), "failed to ensure audit_log table")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDBLogger_Log(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		logger := &DBLogger{db: db}
		ctx := context.Background()

		entry := &Entry{
			TableName:     "objectives",
			RecordID:      42,
			Action:        ActionUpdate,
			UserID:        7,
			ChangedFields: []string{"title"},
			OldValues:     map[string]interface{}{"title": "old"},
			NewValues:     map[string]interface{}{"title": "new"},
		}

		changedJSON, _ := json.Marshal(entry.ChangedFields)
		now := time.Now()

		mock.ExpectQuery("INSERT INTO audit_log").
			WithArgs("objectives", int64(42), "UPDATE", int64(7), changedJSON, sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(1, now))

		err := logger.Log(ctx, entry)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), entry.ID)
		assert.Equal(t, now, entry.CreatedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nil snapshots insert as NULL", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		logger := &DBLogger{db: db}
		entry := &Entry{TableName: "personnel", RecordID: 3, Action: ActionInsert, UserID: 1,
			NewValues: map[string]interface{}{"name": "Ana"}}

		mock.ExpectQuery("INSERT INTO audit_log").
			WithArgs("personnel", int64(3), "INSERT", int64(1), nil, nil, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(2, time.Now()))

		err := logger.Log(context.Background(), entry)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing table name", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		logger := &DBLogger{db: db}
		err := logger.Log(context.Background(), &Entry{Action: ActionInsert, UserID: 1})
		assert.ErrorIs(t, err, errMissingTable)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown action", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		logger := &DBLogger{db: db}
		err := logger.Log(context.Background(), &Entry{TableName: "objectives", Action: "TRUNCATE", UserID: 1})
		assert.ErrorIs(t, err, errUnknownAction)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database insert error", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		logger := &DBLogger{db: db}
		entry := &Entry{TableName: "objectives", RecordID: 1, Action: ActionInsert, UserID: 1}

		mock.ExpectQuery("INSERT INTO audit_log").
			WillReturnError(errors.New("database error"))

		err := logger.Log(context.Background(), entry)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to insert audit entry")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDBLogger_Search(t *testing.T) {
	t.Run("no filters", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		logger := &DBLogger{db: db}

		oldJSON, _ := json.Marshal(map[string]interface{}{"status": "active"})
		rows := sqlmock.NewRows(entryColumns).AddRow(
			1, "objectives", int64(42), "SOFT_DELETE", int64(7),
			nil, oldJSON, nil, time.Now(),
		)

		mock.ExpectQuery("SELECT (.+) FROM audit_log WHERE 1=1 ORDER BY created_at DESC, id DESC").
			WillReturnRows(rows)

		entries, err := logger.Search(context.Background(), SearchFilter{})
		assert.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, int64(1), entries[0].ID)
		assert.Equal(t, ActionSoftDelete, entries[0].Action)
		assert.Equal(t, "active", entries[0].OldValues["status"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("with table and record filters", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		logger := &DBLogger{db: db}

		mock.ExpectQuery("SELECT (.+) FROM audit_log WHERE 1=1 AND table_name = \\$1 AND record_id = \\$2").
			WithArgs("committees", int64(5)).
			WillReturnRows(sqlmock.NewRows(entryColumns))

		entries, err := logger.Search(context.Background(), SearchFilter{
			TableName: "committees",
			RecordID:  5,
		})
		assert.NoError(t, err)
		assert.NotNil(t, entries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("with action filter", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		logger := &DBLogger{db: db}

		mock.ExpectQuery("SELECT (.+) FROM audit_log WHERE 1=1 AND action = ANY\\(\\$1\\)").
			WithArgs(pq.Array([]string{"UPDATE_ATA", "RESTORE"})).
			WillReturnRows(sqlmock.NewRows(entryColumns))

		entries, err := logger.Search(context.Background(), SearchFilter{
			Actions: []Action{ActionUpdateAta, ActionRestore},
		})
		assert.NoError(t, err)
		assert.NotNil(t, entries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("with time range and pagination", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		logger := &DBLogger{db: db}
		since := time.Now().Add(-24 * time.Hour)
		until := time.Now()

		mock.ExpectQuery("SELECT (.+) FROM audit_log WHERE 1=1 AND created_at >= \\$1 AND created_at <= \\$2 ORDER BY created_at DESC, id DESC LIMIT \\$3 OFFSET \\$4").
			WithArgs(since, until, 10, 20).
			WillReturnRows(sqlmock.NewRows(entryColumns))

		entries, err := logger.Search(context.Background(), SearchFilter{
			Since: since, Until: until, Limit: 10, Offset: 20,
		})
		assert.NoError(t, err)
		assert.NotNil(t, entries)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		logger := &DBLogger{db: db}

		mock.ExpectQuery("SELECT (.+) FROM audit_log WHERE 1=1").
			WillReturnError(errors.New("database error"))

		entries, err := logger.Search(context.Background(), SearchFilter{})
		assert.Error(t, err)
		assert.Nil(t, entries)
		assert.Contains(t, err.Error(), "failed to search audit log")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDBLogger_Get(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		logger := &DBLogger{db: db}

		rows := sqlmock.NewRows(entryColumns).AddRow(
			9, "pca_items", int64(12), "INSERT", int64(3),
			nil, nil, []byte(`{"item_pca":"PCA-001"}`), time.Now(),
		)
		mock.ExpectQuery("SELECT (.+) FROM audit_log WHERE id = \\$1").
			WithArgs(int64(9)).
			WillReturnRows(rows)

		entry, err := logger.Get(context.Background(), 9)
		require.NoError(t, err)
		require.NotNil(t, entry)
		assert.Equal(t, "pca_items", entry.TableName)
		assert.Equal(t, "PCA-001", entry.NewValues["item_pca"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		logger := &DBLogger{db: db}

		mock.ExpectQuery("SELECT (.+) FROM audit_log WHERE id = \\$1").
			WithArgs(int64(404)).
			WillReturnRows(sqlmock.NewRows(entryColumns))

		entry, err := logger.Get(context.Background(), 404)
		assert.NoError(t, err)
		assert.Nil(t, entry)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

type captureArchiver struct {
	entries []*Entry
	err     error
}

func (a *captureArchiver) Archive(ctx context.Context, prefix string, cutoff time.Time, entries []*Entry) error {
	a.entries = append(a.entries, entries...)
	return a.err
}

func TestDBLogger_Cleanup(t *testing.T) {
	t.Run("delete only", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		logger := &DBLogger{db: db}

		mock.ExpectExec("DELETE FROM audit_log WHERE created_at <= \\$1").
			WithArgs(sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 17))

		removed, err := logger.Cleanup(context.Background(), RetentionPolicy{RetentionDays: 30}, nil)
		assert.NoError(t, err)
		assert.Equal(t, int64(17), removed)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("archive before delete", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		logger := &DBLogger{db: db}
		archiver := &captureArchiver{}

		rows := sqlmock.NewRows(entryColumns).AddRow(
			1, "objectives", int64(1), "INSERT", int64(1),
			nil, nil, nil, time.Now().AddDate(0, 0, -40),
		)
		mock.ExpectQuery("SELECT (.+) FROM audit_log WHERE 1=1 AND created_at <= \\$1").
			WillReturnRows(rows)
		mock.ExpectExec("DELETE FROM audit_log WHERE created_at <= \\$1").
			WillReturnResult(sqlmock.NewResult(0, 1))

		policy := RetentionPolicy{RetentionDays: 30, ArchiveEnabled: true, ArchivePrefix: "archive"}
		removed, err := logger.Cleanup(context.Background(), policy, archiver)
		assert.NoError(t, err)
		assert.Equal(t, int64(1), removed)
		assert.Len(t, archiver.entries, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("archives in batches", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		logger := &DBLogger{db: db}
		archiver := &captureArchiver{}

		fullPage := sqlmock.NewRows(entryColumns)
		for i := 0; i < cleanupBatchSize; i++ {
			fullPage.AddRow(
				int64(i+1), "objectives", int64(i+1), "INSERT", int64(1),
				nil, nil, nil, time.Now().AddDate(0, 0, -40),
			)
		}
		mock.ExpectQuery("SELECT (.+) FROM audit_log WHERE 1=1 AND created_at <= \\$1 ORDER BY created_at DESC, id DESC LIMIT \\$2").
			WithArgs(sqlmock.AnyArg(), cleanupBatchSize).
			WillReturnRows(fullPage)

		secondPage := sqlmock.NewRows(entryColumns).AddRow(
			int64(cleanupBatchSize+1), "objectives", int64(cleanupBatchSize+1), "INSERT", int64(1),
			nil, nil, nil, time.Now().AddDate(0, 0, -40),
		)
		mock.ExpectQuery("SELECT (.+) FROM audit_log WHERE 1=1 AND created_at <= \\$1 ORDER BY created_at DESC, id DESC LIMIT \\$2 OFFSET \\$3").
			WithArgs(sqlmock.AnyArg(), cleanupBatchSize, cleanupBatchSize).
			WillReturnRows(secondPage)

		mock.ExpectExec("DELETE FROM audit_log WHERE created_at <= \\$1").
			WillReturnResult(sqlmock.NewResult(0, int64(cleanupBatchSize+1)))

		policy := RetentionPolicy{RetentionDays: 30, ArchiveEnabled: true, ArchivePrefix: "archive"}
		removed, err := logger.Cleanup(context.Background(), policy, archiver)
		assert.NoError(t, err)
		assert.Equal(t, int64(cleanupBatchSize+1), removed)
		assert.Len(t, archiver.entries, cleanupBatchSize+1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("archive failure blocks delete", func(t *testing.T) {
		db, mock := setupMockDB(t)
		defer db.Close()

		logger := &DBLogger{db: db}
		archiver := &captureArchiver{err: errors.New("bucket unavailable")}

		rows := sqlmock.NewRows(entryColumns).AddRow(
			1, "objectives", int64(1), "INSERT", int64(1),
			nil, nil, nil, time.Now().AddDate(0, 0, -40),
		)
		mock.ExpectQuery("SELECT (.+) FROM audit_log WHERE 1=1 AND created_at <= \\$1").
			WillReturnRows(rows)

		policy := RetentionPolicy{RetentionDays: 30, ArchiveEnabled: true}
		_, err := logger.Cleanup(context.Background(), policy, archiver)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to archive expiring entries")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestDBLogger_Close(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()

	logger := &DBLogger{db: db}
	assert.NoError(t, logger.Close())
}
