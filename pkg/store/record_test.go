package store

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecord_Accessors(t *testing.T) {
	now := time.Now()
	record := Record{
		"id":         int64(42),
		"title":      "Objective",
		"count":      7,
		"ratio":      2.0,
		"is_deleted": true,
		"updated_at": now,
		"deleted_at": nil,
	}

	assert.Equal(t, int64(42), record.ID())
	assert.Equal(t, "Objective", record.String("title"))
	assert.Equal(t, int64(7), record.Int("count"), "plain int coerces")
	assert.Equal(t, int64(2), record.Int("ratio"), "float coerces")
	assert.True(t, record.IsDeleted())
	assert.Equal(t, now, record.Time("updated_at"))

	// NULLs and absent columns collapse to zero values.
	assert.Equal(t, "", record.String("deleted_at"))
	assert.Equal(t, int64(0), record.Int("missing"))
	assert.False(t, record.Bool("missing"))
	assert.True(t, record.Time("missing").IsZero())
}

func TestNormalizeValue(t *testing.T) {
	assert.Equal(t, "hello", normalizeValue([]byte("hello")))
	assert.Equal(t, int64(5), normalizeValue(int64(5)))
	assert.Nil(t, normalizeValue(nil))
}
