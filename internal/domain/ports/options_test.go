package ports

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cloudsync-pg-backend/internal/domain/models"
)

func TestSyncOpFromOptions(t *testing.T) {
	tests := []struct {
		name     string
		opts     []Option
		expected models.SyncOp
	}{
		{"default", nil, models.SyncOpUpsert},
		{"insert", []Option{WithSyncOp(models.SyncOpInsert)}, models.SyncOpInsert},
		{"update", []Option{WithSyncOp(models.SyncOpUpdate)}, models.SyncOpUpdate},
		{"first wins", []Option{"noise", WithSyncOp(models.SyncOpUpdate), WithSyncOp(models.SyncOpInsert)}, models.SyncOpUpdate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SyncOpFromOptions(tt.opts))
		})
	}
}

func TestScopeStrings(t *testing.T) {
	assert.True(t, EmptyScope{}.IsEmpty())
	assert.Equal(t, "empty", EmptyScope{}.String())

	assert.True(t, NewIDScope().IsEmpty())
	assert.Equal(t, "ids(1,2)", NewIDScope(1, 2).String())

	assert.Equal(t, "cloud(7)", CloudScope{CloudID: 7}.String())
	assert.Equal(t, "category(7,flavor)", CategoryScope{CloudID: 7, Category: "flavor"}.String())
	assert.False(t, CategoryScope{CloudID: 7, Category: "flavor"}.IsEmpty())

	assert.True(t, ExternalIDScope{}.IsEmpty())
	assert.Equal(t, "external-ids(a,b)", NewExternalIDScope("a", "b").String())
}
