package docstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildFilter(t *testing.T) {
	sql, args := buildFilter([]Group{
		{{Field: "roomId", Value: "1.2"}},
		{{Field: "roomId", Value: "2.1"}},
	})

	assert.Equal(t, "(data ->> ? = ?) OR (data ->> ? = ?)", sql)
	assert.Equal(t, []any{"roomId", "1.2", "roomId", "2.1"}, args)
}

func TestBuildFilterAndGroup(t *testing.T) {
	sql, args := buildFilter([]Group{
		{{Field: "roomId", Value: "1.2"}, {Field: "id", Value: "conv-1"}},
	})

	assert.Equal(t, "(data ->> ? = ? AND data ->> ? = ?)", sql)
	assert.Equal(t, []any{"roomId", "1.2", "id", "conv-1"}, args)
}

func TestBuildFilterNonStringValues(t *testing.T) {
	sql, args := buildFilter([]Group{
		{{Field: "creatorId", Value: uint(2)}},
	})

	assert.Equal(t, "(data ->> ? = ?)", sql)
	assert.Equal(t, []any{"creatorId", "2"}, args)
}

func TestBuildFilterEmpty(t *testing.T) {
	sql, args := buildFilter(nil)
	assert.Empty(t, sql)
	assert.Empty(t, args)

	sql, _ = buildFilter([]Group{{}})
	assert.Empty(t, sql)
}

func TestBatchQueuesOpsInOrder(t *testing.T) {
	batch := &Batch{}
	batch.Update("conversations", "1.2", map[string]any{"updatedAt": "now"})
	batch.Set("conversations/1.2/messages", "msg-1", map[string]any{"text": "hi"})

	assert.Len(t, batch.Ops, 2)
	assert.False(t, batch.Ops[0].IsSet)
	assert.True(t, batch.Ops[1].IsSet)
	assert.Equal(t, "msg-1", batch.Ops[1].Key)
}
