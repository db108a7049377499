package audit

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLogger(t *testing.T) {
	t.Run("appends NDJSON lines", func(t *testing.T) {
		dir := t.TempDir()
		logger, err := NewFileLogger(FileLoggerConfig{BasePath: dir})
		require.NoError(t, err)
		defer logger.Close()

		ctx := context.Background()
		require.NoError(t, logger.Log(ctx, &Entry{TableName: "objectives", RecordID: 1, Action: ActionInsert, UserID: 7}))
		require.NoError(t, logger.Log(ctx, &Entry{TableName: "objectives", RecordID: 1, Action: ActionSoftDelete, UserID: 7}))

		file, err := os.Open(filepath.Join(dir, "audit.ndjson"))
		require.NoError(t, err)
		defer file.Close()

		var entries []Entry
		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			var entry Entry
			require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
			entries = append(entries, entry)
		}
		require.Len(t, entries, 2)
		assert.Equal(t, ActionInsert, entries[0].Action)
		assert.Equal(t, ActionSoftDelete, entries[1].Action)
		assert.False(t, entries[0].CreatedAt.IsZero(), "timestamp is stamped on write")
	})

	t.Run("rejects invalid entries", func(t *testing.T) {
		logger, err := NewFileLogger(FileLoggerConfig{BasePath: t.TempDir()})
		require.NoError(t, err)
		defer logger.Close()

		err = logger.Log(context.Background(), &Entry{Action: ActionInsert})
		assert.ErrorIs(t, err, errMissingTable)
	})

	t.Run("rotates when the file exceeds max size", func(t *testing.T) {
		dir := t.TempDir()
		logger, err := NewFileLogger(FileLoggerConfig{BasePath: dir, Rotate: true, MaxSize: 64})
		require.NoError(t, err)
		defer logger.Close()

		ctx := context.Background()
		for i := 0; i < 5; i++ {
			require.NoError(t, logger.Log(ctx, &Entry{TableName: "objectives", RecordID: int64(i), Action: ActionInsert, UserID: 1}))
		}

		files, err := os.ReadDir(dir)
		require.NoError(t, err)
		assert.Greater(t, len(files), 1, "rotation leaves at least one archived file")
	})

	t.Run("close is idempotent", func(t *testing.T) {
		logger, err := NewFileLogger(FileLoggerConfig{BasePath: t.TempDir()})
		require.NoError(t, err)

		assert.NoError(t, logger.Close())
		assert.NoError(t, logger.Close())
	})
}
